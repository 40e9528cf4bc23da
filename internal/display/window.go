// Package display shows rendered frames and the stats overlay in a fyne
// window. It is the rendering surface of the software backend.
package display

import (
	"fmt"
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"realtime-vision-pipeline/internal/core"
	"realtime-vision-pipeline/internal/metrics"
)

// Window presents frames produced on other goroutines. ShowFrame and
// ShowStats may be called from any goroutine; widget updates are marshalled
// onto the fyne thread.
type Window struct {
	app    fyne.App
	window fyne.Window
	logger logrus.FieldLogger

	frame      *canvas.Image
	statsLabel *widget.Label
	modeLabel  *widget.Label

	mu            sync.Mutex
	onClose       func()
	onTogglePause func()
	closeOnce     sync.Once
}

// New builds the window: the frame fills the content area with the stats
// overlay stacked on its top-left corner.
func New(app fyne.App, title string, width, height int, logger logrus.FieldLogger) *Window {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	w := &Window{
		app:        app,
		window:     app.NewWindow(title),
		logger:     logger,
		statsLabel: widget.NewLabel("FPS: --"),
		modeLabel:  widget.NewLabel(""),
	}

	w.frame = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	w.frame.FillMode = canvas.ImageFillContain
	w.frame.ScaleMode = canvas.ImageScaleFastest

	overlay := container.NewVBox(w.statsLabel, w.modeLabel)
	w.window.SetContent(container.NewStack(w.frame, container.NewBorder(overlay, nil, nil, nil)))
	w.window.Resize(fyne.NewSize(float32(width), float32(height)))
	w.window.CenterOnScreen()

	w.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name != fyne.KeySpace {
			return
		}
		w.mu.Lock()
		toggle := w.onTogglePause
		w.mu.Unlock()
		if toggle != nil {
			toggle()
		}
	})

	w.window.SetCloseIntercept(func() {
		w.logger.Info("DISPLAY: Window closed")
		w.close()
		w.app.Quit()
	})

	return w
}

// SetOnClose registers fn to run once when the window closes.
func (w *Window) SetOnClose(fn func()) {
	w.mu.Lock()
	w.onClose = fn
	w.mu.Unlock()
}

// SetOnTogglePause registers fn to run when the space key is pressed.
func (w *Window) SetOnTogglePause(fn func()) {
	w.mu.Lock()
	w.onTogglePause = fn
	w.mu.Unlock()
}

func (w *Window) close() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		fn := w.onClose
		w.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

// ShowFrame displays buf. The window keeps a reference to buf's samples,
// so the caller must not modify them afterwards.
func (w *Window) ShowFrame(buf core.PixelBuffer) {
	if buf.Empty() {
		return
	}
	img := buf.ToImage()
	fyne.Do(func() { w.applyFrame(img) })
}

func (w *Window) applyFrame(img image.Image) {
	w.frame.Image = img
	w.frame.Refresh()
}

// ShowStats updates the overlay text.
func (w *Window) ShowStats(s metrics.FrameStats) {
	text := s.String()
	fyne.Do(func() { w.statsLabel.SetText(text) })
}

// ShowSelection shows the active mode and effect, and whether processing
// is paused.
func (w *Window) ShowSelection(mode, effect string, paused bool) {
	text := selectionText(mode, effect, paused)
	fyne.Do(func() { w.modeLabel.SetText(text) })
}

func selectionText(mode, effect string, paused bool) string {
	text := fmt.Sprintf("Mode: %s | Effect: %s", mode, effect)
	if paused {
		text += " | PAUSED"
	}
	return text
}

// ShowAndRun shows the window and blocks in the fyne event loop.
func (w *Window) ShowAndRun() {
	w.logger.Info("DISPLAY: Showing output window")
	w.window.ShowAndRun()
	w.close()
}

// Close closes the window from any goroutine.
func (w *Window) Close() {
	fyne.Do(func() { w.window.Close() })
}
