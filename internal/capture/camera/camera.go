// Package camera reads live frames from a capture device through OpenCV.
package camera

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"realtime-vision-pipeline/internal/core"
)

// Camera is an opened capture device. Frame may be called from one
// goroutine while Close is called from another.
type Camera struct {
	mu       sync.Mutex
	deviceID int
	webcam   *gocv.VideoCapture
	frame    gocv.Mat // reused BGR read buffer
	rgba     gocv.Mat
	logger   logrus.FieldLogger
	closed   bool
}

// Open opens device id and asks for the given resolution. The driver may
// pick a different one; Resolution reports what it delivers.
func Open(id, width, height int, logger logrus.FieldLogger) (*Camera, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	webcam, err := gocv.VideoCaptureDevice(id)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture device %d: %w", id, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, fmt.Errorf("capture device %d is not available", id)
	}

	if width > 0 && height > 0 {
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(width))
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}

	c := &Camera{
		deviceID: id,
		webcam:   webcam,
		frame:    gocv.NewMat(),
		rgba:     gocv.NewMat(),
		logger:   logger,
	}

	w, h := c.Resolution()
	logger.WithFields(logrus.Fields{
		"device":           id,
		"requested_width":  width,
		"requested_height": height,
		"width":            w,
		"height":           h,
	}).Info("CAPTURE: Camera opened")

	return c, nil
}

// Frame grabs the next frame as RGBA. ok is false when the device has no
// frame ready or the camera was closed.
func (c *Camera) Frame() (core.PixelBuffer, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return core.PixelBuffer{}, false, nil
	}

	if ok := c.webcam.Read(&c.frame); !ok || c.frame.Empty() {
		c.logger.WithField("device", c.deviceID).Debug("CAPTURE: No frame available")
		return core.PixelBuffer{}, false, nil
	}

	if err := gocv.CvtColor(c.frame, &c.rgba, gocv.ColorBGRToRGBA); err != nil {
		return core.PixelBuffer{}, false, fmt.Errorf("convert frame to RGBA: %w", err)
	}

	buf := core.PixelBuffer{
		Width:  c.rgba.Cols(),
		Height: c.rgba.Rows(),
		Pix:    c.rgba.ToBytes(),
	}
	if err := buf.Validate(); err != nil {
		return core.PixelBuffer{}, false, err
	}
	return buf, true, nil
}

// Resolution reports the frame size the device is configured for.
func (c *Camera) Resolution() (int, int) {
	return int(c.webcam.Get(gocv.VideoCaptureFrameWidth)), int(c.webcam.Get(gocv.VideoCaptureFrameHeight))
}

// Close releases the device. Later calls do nothing.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	c.frame.Close()
	c.rgba.Close()
	if err := c.webcam.Close(); err != nil {
		return fmt.Errorf("failed to close capture device %d: %w", c.deviceID, err)
	}
	c.logger.WithField("device", c.deviceID).Info("CAPTURE: Camera closed")
	return nil
}
