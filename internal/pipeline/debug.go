package pipeline

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Stage names recorded by the Debugger.
const (
	StageAcquire   = "acquire"
	StageTransform = "transform"
	StageRender    = "render"
	StageTick      = "tick"
)

const maxStageSamples = 256

// StageOperation is one timed stage of a tick.
type StageOperation struct {
	Timestamp time.Time
	Stage     string
	Mode      string
	Success   bool
	Duration  time.Duration
	Error     string
}

// Debugger keeps a bounded history of stage timings and logs each one at
// debug level. A nil *Debugger records nothing.
type Debugger struct {
	mu         sync.Mutex
	logger     logrus.FieldLogger
	operations []StageOperation
	durations  map[string][]time.Duration
	failures   int
}

func NewDebugger(logger logrus.FieldLogger) *Debugger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Debugger{
		logger:    logger,
		durations: make(map[string][]time.Duration),
	}
}

// LogStage records one stage timing.
func (d *Debugger) LogStage(at time.Time, stage, mode string, duration time.Duration, err error) {
	if d == nil {
		return
	}

	op := StageOperation{
		Timestamp: at,
		Stage:     stage,
		Mode:      mode,
		Success:   err == nil,
		Duration:  duration,
	}
	if err != nil {
		op.Error = err.Error()
	}

	d.mu.Lock()
	d.operations = appendBounded(d.operations, op)
	d.durations[stage] = appendBounded(d.durations[stage], duration)
	if err != nil {
		d.failures++
	}
	d.mu.Unlock()

	entry := d.logger.WithFields(logrus.Fields{
		"stage":       stage,
		"mode":        mode,
		"success":     op.Success,
		"duration_ms": float64(duration) / float64(time.Millisecond),
	})
	if err != nil {
		entry.WithError(err).Debug("PIPELINE: Stage failed")
		return
	}
	entry.Debug("PIPELINE: Stage completed")
}

func appendBounded[T any](s []T, v T) []T {
	if len(s) == maxStageSamples {
		copy(s, s[1:])
		s = s[:len(s)-1]
	}
	return append(s, v)
}

// Recent returns up to n of the latest operations, oldest first.
func (d *Debugger) Recent(n int) []StageOperation {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if n > len(d.operations) {
		n = len(d.operations)
	}
	out := make([]StageOperation, n)
	copy(out, d.operations[len(d.operations)-n:])
	return out
}

// AverageDuration is the mean of the retained samples for stage.
func (d *Debugger) AverageDuration(stage string) time.Duration {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return averageDuration(d.durations[stage])
}

func averageDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	return total / time.Duration(len(durations))
}

// LogSummary writes the per-stage averages at info level.
func (d *Debugger) LogSummary() {
	if d == nil {
		return
	}
	d.mu.Lock()
	fields := logrus.Fields{
		"operations": len(d.operations),
		"failures":   d.failures,
	}
	for stage, durations := range d.durations {
		fields["avg_"+stage+"_ms"] = float64(averageDuration(durations)) / float64(time.Millisecond)
	}
	d.mu.Unlock()

	d.logger.WithFields(fields).Info("PIPELINE: Stage timing summary")
}
