// Package pipeline sequences one frame per tick: acquire, transform,
// composite through the shader stage, account throughput.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"realtime-vision-pipeline/internal/algorithms"
	"realtime-vision-pipeline/internal/core"
	"realtime-vision-pipeline/internal/metrics"
	"realtime-vision-pipeline/internal/shader"
)

// ErrTickSkipped wraps any failure that caused a tick to be dropped.
var ErrTickSkipped = errors.New("pipeline: tick skipped")

// FrameSource yields the current frame. ok is false when no source is
// active; that is not an error.
type FrameSource interface {
	Frame() (buf core.PixelBuffer, ok bool, err error)
}

// Renderer is the shader stage.
type Renderer interface {
	Configure(effect shader.Effect)
	RenderFrame(buf core.PixelBuffer) error
}

// Clock supplies monotonic timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options tunes an Orchestrator. Zero values pick the defaults.
type Options struct {
	Clock       Clock
	Sink        metrics.Sink
	Logger      logrus.FieldLogger
	StatsWindow time.Duration
	// Debugger, when set, records per-stage timings.
	Debugger *Debugger
}

// Orchestrator runs the per-tick frame loop. Tick and Run must be called
// from a single goroutine; Pause, Resume and the Settings may be used from
// any.
type Orchestrator struct {
	source   FrameSource
	renderer Renderer
	settings *Settings
	sink     metrics.Sink
	clock    Clock
	logger   logrus.FieldLogger
	debug    *Debugger

	fps        *metrics.FPSCounter
	paused     atomic.Bool
	resumed    atomic.Bool
	lastTiming time.Duration

	statsMu sync.RWMutex
	stats   metrics.FrameStats
	hasStat bool
}

func New(source FrameSource, renderer Renderer, settings *Settings, opts Options) (*Orchestrator, error) {
	if source == nil {
		return nil, errors.New("pipeline: nil frame source")
	}
	if renderer == nil {
		return nil, errors.New("pipeline: nil renderer")
	}
	if settings == nil {
		settings = NewSettings(Snapshot{Params: core.DefaultProcessingParams()})
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Sink == nil {
		opts.Sink = func(metrics.FrameStats) {}
	}

	return &Orchestrator{
		source:   source,
		renderer: renderer,
		settings: settings,
		sink:     opts.Sink,
		clock:    opts.Clock,
		logger:   opts.Logger,
		debug:    opts.Debugger,
		fps:      metrics.NewFPSCounter(opts.Clock.Now(), opts.StatsWindow),
	}, nil
}

// Settings returns the control-surface state the orchestrator reads.
func (o *Orchestrator) Settings() *Settings {
	return o.settings
}

// Pause stops processing; ticks become no-ops. The source stays open.
func (o *Orchestrator) Pause() {
	if !o.paused.Swap(true) {
		o.logger.Info("PIPELINE: Processing paused")
	}
}

// Resume restarts processing. The FPS window restarts on the next tick.
func (o *Orchestrator) Resume() {
	if o.paused.Swap(false) {
		o.resumed.Store(true)
		o.logger.Info("PIPELINE: Processing resumed")
	}
}

func (o *Orchestrator) Paused() bool {
	return o.paused.Load()
}

// Stats returns the last published sample.
func (o *Orchestrator) Stats() (metrics.FrameStats, bool) {
	o.statsMu.RLock()
	defer o.statsMu.RUnlock()
	return o.stats, o.hasStat
}

// LastProcessingTime is the duration of the most recent completed tick.
func (o *Orchestrator) LastProcessingTime() time.Duration {
	return o.lastTiming
}

// Tick processes at most one frame. It returns nil when there was nothing
// to do, and an error wrapping ErrTickSkipped when the frame was dropped.
// Panics raised by any stage are recovered and reported the same way.
func (o *Orchestrator) Tick(ctx context.Context) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.paused.Load() {
		return nil
	}
	if o.resumed.Swap(false) {
		o.fps.Reset(o.clock.Now())
	}

	var snap Snapshot
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrTickSkipped, r)
		}
		if err != nil {
			o.logger.WithError(err).WithFields(logrus.Fields{
				"mode":   snap.Mode.String(),
				"effect": snap.Effect.String(),
			}).Warn("PIPELINE: Frame processing failed, tick skipped")
		}
	}()

	start := o.clock.Now()

	frame, ok, err := o.source.Frame()
	mark := o.stage(StageAcquire, "", start, err)
	if err != nil {
		return fmt.Errorf("%w: acquire frame: %v", ErrTickSkipped, err)
	}
	if !ok {
		return nil
	}
	width, height := frame.Width, frame.Height

	snap = o.settings.Snapshot()
	mode := snap.Mode.String()

	transform, err := algorithms.NewTransform(snap.Mode, snap.Params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTickSkipped, err)
	}
	effect, err := shader.EffectFor(snap.Effect, snap.Params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTickSkipped, err)
	}

	out, err := transform.Apply(frame)
	mark = o.stage(StageTransform, mode, mark, err)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTickSkipped, snap.Mode, err)
	}

	o.renderer.Configure(effect)
	err = o.renderer.RenderFrame(out)
	o.stage(StageRender, mode, mark, err)
	if err != nil {
		return fmt.Errorf("%w: render: %w", ErrTickSkipped, err)
	}

	now := o.clock.Now()
	o.lastTiming = now.Sub(start)
	o.debug.LogStage(now, StageTick, mode, o.lastTiming, nil)

	if fps, closed := o.fps.Frame(now); closed {
		o.publish(metrics.FrameStats{
			FPS:              fps,
			Width:            width,
			Height:           height,
			ProcessingTimeMs: float64(o.lastTiming) / float64(time.Millisecond),
			TimestampMs:      uint64(now.UnixMilli()),
		})
	}
	return nil
}

// stage records the stage that began at since. It reads the clock only
// when a Debugger is attached.
func (o *Orchestrator) stage(name, mode string, since time.Time, err error) time.Time {
	if o.debug == nil {
		return since
	}
	now := o.clock.Now()
	o.debug.LogStage(now, name, mode, now.Sub(since), err)
	return now
}

func (o *Orchestrator) publish(stats metrics.FrameStats) {
	o.statsMu.Lock()
	o.stats = stats
	o.hasStat = true
	o.statsMu.Unlock()

	o.sink(stats)
}

// Run calls Tick once per value received from ticks until ctx is done or
// ticks is closed. Tick failures are logged and do not stop the loop.
func (o *Orchestrator) Run(ctx context.Context, ticks <-chan time.Time) error {
	o.logger.WithFields(logrus.Fields{
		"mode":   o.settings.Snapshot().Mode.String(),
		"effect": o.settings.Snapshot().Effect.String(),
	}).Info("PIPELINE: Frame loop started")

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("PIPELINE: Frame loop stopped")
			return ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				o.logger.Info("PIPELINE: Tick source closed")
				return nil
			}
			_ = o.Tick(ctx)
		}
	}
}
