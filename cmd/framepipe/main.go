// Real-time frame pipeline: capture, CPU transform, shader effect, display.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"realtime-vision-pipeline/internal/algorithms"
	"realtime-vision-pipeline/internal/capture"
	"realtime-vision-pipeline/internal/capture/camera"
	"realtime-vision-pipeline/internal/config"
	"realtime-vision-pipeline/internal/display"
	"realtime-vision-pipeline/internal/metrics"
	"realtime-vision-pipeline/internal/pipeline"
	"realtime-vision-pipeline/internal/shader"
	"realtime-vision-pipeline/internal/shader/gldevice"
)

const (
	AppName    = "Realtime Vision Pipeline"
	AppID      = "com.realtime-vision-pipeline.framepipe"
	AppVersion = "1.0.0"
)

// Flags that override config file values, by config.Config.Set name.
var overrideFlags = map[string]bool{
	"backend": true,
	"source":  true,
	"device":  true,
	"image":   true,
	"mode":    true,
	"effect":  true,
	"fps":     true,
}

func init() {
	// GLFW and fyne both require the main OS thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	listModes := flag.Bool("list", false, "List processing modes and shader effects, then exit")
	flag.String("backend", config.BackendGL, "Rendering backend: gl or software")
	flag.String("source", config.SourceCamera, "Frame source: camera or image")
	flag.Int("device", 0, "Camera device index")
	flag.String("image", "", "Still image to use as the frame source")
	flag.String("mode", algorithms.ModeRaw.String(), "Processing mode: raw, grayscale, edge, sobel, threshold")
	flag.String("effect", shader.EffectNone.String(), "Shader effect: none, invert, sepia, brightness, contrast")
	flag.Int("fps", 60, "Frame loop rate")
	flag.Parse()

	logger := initLogger(*debugMode)

	if *listModes {
		printCatalogue(os.Stdout)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
		"backend":    cfg.Backend,
		"source":     cfg.Source.Kind,
		"mode":       cfg.Processing.Mode.String(),
		"effect":     cfg.Processing.Effect.String(),
	}).Info("Starting " + AppName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *debugMode); err != nil {
		logger.WithError(err).Fatal("Frame pipeline failed")
	}

	logger.Info("Application shutting down gracefully")
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	var overrideErr error
	flag.Visit(func(f *flag.Flag) {
		if overrideErr != nil || !overrideFlags[f.Name] {
			return
		}
		if err := cfg.Set(f.Name, f.Value.String()); err != nil {
			overrideErr = fmt.Errorf("-%s: %w", f.Name, err)
		}
	})
	if overrideErr != nil {
		return nil, overrideErr
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

type frameSource interface {
	pipeline.FrameSource
	Close() error
}

func openSource(cfg *config.Config, logger logrus.FieldLogger) (frameSource, error) {
	switch cfg.Source.Kind {
	case config.SourceImage:
		return capture.OpenImage(cfg.Source.ImagePath, cfg.Source.Width, cfg.Source.Height, logger)
	case config.SourceCamera:
		return camera.Open(cfg.Source.Device, cfg.Source.Width, cfg.Source.Height, logger)
	}
	return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger, debugMode bool) error {
	source, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.WithError(err).Warn("CAPTURE: Close failed")
		}
	}()

	settings := pipeline.NewSettings(pipeline.Snapshot{
		Mode:   cfg.Processing.Mode,
		Effect: cfg.Processing.Effect,
		Params: cfg.Processing.Params,
	})
	interval := time.Second / time.Duration(cfg.Display.FPS)
	opts := pipeline.Options{
		Logger:      logger,
		StatsWindow: time.Duration(cfg.Display.StatsWindowMs) * time.Millisecond,
	}
	if debugMode {
		opts.Debugger = pipeline.NewDebugger(logger)
		defer opts.Debugger.LogSummary()
	}

	switch cfg.Backend {
	case config.BackendGL:
		return runGL(ctx, cfg, source, settings, interval, opts, logger)
	case config.BackendSoftware:
		return runSoftware(ctx, cfg, source, settings, interval, opts, logger)
	}
	return fmt.Errorf("unknown backend %q", cfg.Backend)
}

// runGL drives the pipeline on the main thread, presenting into a GLFW
// window.
func runGL(ctx context.Context, cfg *config.Config, source pipeline.FrameSource, settings *pipeline.Settings,
	interval time.Duration, opts pipeline.Options, logger *logrus.Logger) error {
	dev, err := gldevice.New(gldevice.Config{
		Title:  AppName,
		Width:  cfg.Source.Width,
		Height: cfg.Source.Height,
		VSync:  cfg.Display.VSync,
	}, logger)
	if err != nil {
		return err
	}
	defer dev.Close()

	renderer, err := shader.New(dev, logger)
	if err != nil {
		return err
	}
	defer renderer.Destroy()

	opts.Sink = metrics.LogSink(logger)
	orch, err := pipeline.New(source, renderer, settings, opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Window close is polled off the main thread; events are pumped by
	// Present on the main thread.
	ticks := make(chan time.Time)
	go func() {
		defer close(ticks)
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				if dev.ShouldClose() {
					cancel()
					return
				}
				select {
				case ticks <- t:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ignoreCancel(orch.Run(ctx, ticks))
}

// runSoftware renders on the CPU and shows frames in a fyne window. The
// frame loop runs on its own goroutine; fyne owns the main thread.
func runSoftware(ctx context.Context, cfg *config.Config, source pipeline.FrameSource, settings *pipeline.Settings,
	interval time.Duration, opts pipeline.Options, logger *logrus.Logger) error {
	fyneApp := app.NewWithID(AppID)
	win := display.New(fyneApp, AppName, cfg.Source.Width, cfg.Source.Height, logger)

	dev := shader.NewSoftwareDevice()
	dev.OnPresent = win.ShowFrame

	renderer, err := shader.New(dev, logger)
	if err != nil {
		return err
	}
	defer renderer.Destroy()

	opts.Sink = metrics.Fanout(metrics.LogSink(logger), win.ShowStats)
	orch, err := pipeline.New(source, renderer, settings, opts)
	if err != nil {
		return err
	}

	showSelection := func() {
		snap := settings.Snapshot()
		win.ShowSelection(snap.Mode.String(), snap.Effect.String(), orch.Paused())
	}
	win.SetOnTogglePause(func() {
		if orch.Paused() {
			orch.Resume()
		} else {
			orch.Pause()
		}
		showSelection()
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	win.SetOnClose(cancel)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	var runErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = ignoreCancel(orch.Run(ctx, ticker.C))
	}()

	uiDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		select {
		case <-uiDone:
		default:
			win.Close()
		}
	}()

	showSelection()
	win.ShowAndRun()

	close(uiDone)
	cancel()
	wg.Wait()
	return runErr
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printCatalogue(w io.Writer) {
	fmt.Fprintln(w, "Processing modes:")
	for _, m := range algorithms.Modes() {
		fmt.Fprintf(w, "  %-10s %s\n", m.Name, m.Description)
		for _, p := range m.Parameters {
			fmt.Fprintf(w, "      %-16s [%d..%d] default %d  %s\n", p.Name, p.Min, p.Max, p.Default, p.Description)
		}
	}

	fmt.Fprintln(w, "Shader effects:")
	for k := shader.EffectNone; k <= shader.EffectContrast; k++ {
		fmt.Fprintf(w, "  %s\n", k)
	}

	fmt.Fprintln(w, "Supported image formats:")
	for _, f := range capture.SupportedFormats() {
		fmt.Fprintf(w, "  %s\n", f)
	}
}
