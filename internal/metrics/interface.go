// Throughput statistics for the frame pipeline
package metrics

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// FrameStats is one throughput sample, produced when a stats window closes.
type FrameStats struct {
	FPS              float64 `json:"fps"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
	TimestampMs      uint64  `json:"timestamp_ms"`
}

// String formats the sample the way the stats overlay shows it.
func (s FrameStats) String() string {
	return fmt.Sprintf("FPS: %.1f | %dx%d | %.1f ms", s.FPS, s.Width, s.Height, s.ProcessingTimeMs)
}

// Fields returns the sample as structured log fields.
func (s FrameStats) Fields() logrus.Fields {
	return logrus.Fields{
		"fps":                s.FPS,
		"width":              s.Width,
		"height":             s.Height,
		"processing_time_ms": s.ProcessingTimeMs,
		"timestamp_ms":       s.TimestampMs,
	}
}

// Sink consumes stats samples.
type Sink func(FrameStats)

// LogSink writes every sample to logger at info level.
func LogSink(logger logrus.FieldLogger) Sink {
	return func(s FrameStats) {
		logger.WithFields(s.Fields()).Info("PIPELINE: Frame stats")
	}
}

// Fanout delivers each sample to every non-nil sink in order.
func Fanout(sinks ...Sink) Sink {
	return func(s FrameStats) {
		for _, sink := range sinks {
			if sink != nil {
				sink(s)
			}
		}
	}
}
