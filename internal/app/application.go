package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"adsbtrack/internal/adsb"
	"adsbtrack/internal/basestation"
	"adsbtrack/internal/beast"
	"adsbtrack/internal/demod"
	"adsbtrack/internal/logging"
	"adsbtrack/internal/metrics"
	"adsbtrack/internal/recording"
	"adsbtrack/internal/registry"
	"adsbtrack/internal/tracker"
)

// Application represents the main application
type Application struct {
	config  Config
	logger  *logrus.Logger
	stdout  io.Writer
	metrics *metrics.Metrics
	tracker *tracker.Manager

	input       *countingReader
	source      FrameSource
	skipped     func() uint64
	demodulator *demod.Demodulator
	registry    registry.Registry
	logRotator  *logging.LogRotator
	outputs     []*basestation.Writer
	recorder    *recording.Writer
	recordFile  *os.File
	beastServer *beast.Server
	closers     []io.Closer
	lastPurgeNs int64
	frames      atomic.Uint64
	undecodable atomic.Uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApplication creates a new application instance
func NewApplication(config Config) *Application {
	logger := logrus.New()
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	if config.LogFormat == LogFormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Application{
		config:  config,
		logger:  logger,
		stdout:  os.Stdout,
		metrics: metrics.New(),
	}
}

// Start runs the application until the input ends or a shutdown signal is received
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting ADS-B decoder")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			app.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	return app.Run(ctx)
}

// Run decodes the configured input until its end or until ctx is done
func (app *Application) Run(ctx context.Context) error {
	if err := app.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	app.cancel = cancel
	defer app.shutdown()

	// Initialize components
	if err := app.initializeComponents(ctx); err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	app.run(ctx)

	err := app.pump(ctx)
	app.logStatistics("Final statistics")
	return err
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents(ctx context.Context) error {
	var err error

	if app.config.RegistryPath != "" {
		if app.registry, err = app.openRegistry(); err != nil {
			return err
		}
	}
	app.tracker = tracker.NewManager(app.registry, app.logger)

	if err := app.openSource(ctx); err != nil {
		return err
	}

	epoch := time.Now()

	if app.config.LogDir != "" {
		app.logRotator, err = logging.NewLogRotator(app.config.LogDir, app.config.LogPattern, app.config.LogRotateUTC, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize log rotator: %w", err)
		}
		app.outputs = append(app.outputs, basestation.NewWriter(app.logRotator, epoch, app.logger))
	}

	if app.config.Stdout {
		app.outputs = append(app.outputs, basestation.NewWriter(basestation.NewStreamOutput(app.stdout), epoch, app.logger))
	}

	if app.config.RecordPath != "" {
		app.recordFile, err = os.Create(app.config.RecordPath)
		if err != nil {
			return fmt.Errorf("failed to create recording: %w", err)
		}
		app.recorder = recording.NewWriter(app.recordFile)
	}

	if app.config.BeastListen != "" {
		app.beastServer, err = beast.NewServer(app.config.BeastListen, app.logger)
		if err != nil {
			return fmt.Errorf("failed to start beast server: %w", err)
		}
	}

	return nil
}

// openRegistry opens the aircraft database and puts a cache in front of it
func (app *Application) openRegistry() (registry.Registry, error) {
	var db interface {
		registry.Registry
		io.Closer
	}
	var err error

	kind := app.config.registryType()
	switch kind {
	case RegistrySQLite:
		db, err = registry.OpenSQLiteDatabase(app.config.RegistryPath)
	default:
		db, err = registry.OpenZipDatabase(app.config.RegistryPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open aircraft registry: %w", err)
	}
	app.closers = append(app.closers, db)

	app.logger.WithFields(logrus.Fields{
		"path": app.config.RegistryPath,
		"type": kind,
	}).Info("Opened aircraft registry")

	if app.config.RegistryCacheTTL <= 0 {
		return db, nil
	}
	return registry.NewCached(db, app.config.RegistryCacheTTL), nil
}

// openSource opens the input and builds the frame source for its format
func (app *Application) openSource(ctx context.Context) error {
	var r io.Reader = os.Stdin
	if app.config.Input != DefaultInput {
		f, err := os.Open(app.config.Input)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		app.closers = append(app.closers, f)
		r = f
	}
	app.input = &countingReader{r: r}

	switch app.config.InputFormat {
	case FormatSamples:
		d, err := demod.NewDemodulator(app.input)
		if err != nil {
			return fmt.Errorf("failed to create demodulator: %w", err)
		}
		app.demodulator = d
		app.metrics.RegisterDemodulator(d.Stats)
		app.source = d
	case FormatRecording:
		r := recording.NewReader(app.input)
		app.skipped = r.Skipped
		app.source = r
	case FormatBeast:
		r := beast.NewFrameReader(app.input, app.logger)
		app.skipped = r.Skipped
		app.source = r
	default:
		return fmt.Errorf("unknown input format %q", app.config.InputFormat)
	}

	if app.config.Realtime {
		app.source = newPacedSource(ctx, app.source)
	}

	app.logger.WithFields(logrus.Fields{
		"input":    app.config.Input,
		"format":   app.config.InputFormat,
		"realtime": app.config.Realtime,
	}).Info("Opened input")

	return nil
}

// run starts the background goroutines
func (app *Application) run(ctx context.Context) {
	if app.logRotator != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.logRotator.Start(ctx)
		}()

		if app.config.LogMaxDays > 0 {
			if err := app.logRotator.CleanupOldLogs(app.config.LogMaxDays); err != nil {
				app.logger.WithError(err).Warn("Failed to clean up old log files")
			}
		}
	}

	if app.beastServer != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			if err := app.beastServer.Serve(ctx); err != nil {
				app.logger.WithError(err).Error("Beast server failed")
			}
		}()
	}

	if app.config.MetricsAddr != "" {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			if err := app.metrics.Serve(ctx, app.config.MetricsAddr, app.logger); err != nil {
				app.logger.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// Start statistics reporting
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.reportStatistics(ctx)
	}()

	app.logger.Info("All components started successfully")
}

// pump pulls frames from the source and feeds every stage until the input ends
func (app *Application) pump(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			app.logger.Info("Frame processing stopped")
			return nil
		}

		frame, err := app.source.NextFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				app.logger.Info("End of input")
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}

		if err := app.processFrame(frame); err != nil {
			return err
		}
	}
}

// processFrame records, re-broadcasts, decodes and tracks one frame
func (app *Application) processFrame(frame adsb.RawFrame) error {
	app.frames.Add(1)
	app.metrics.ObserveFrame()

	if app.recorder != nil {
		if err := app.recorder.Write(frame); err != nil {
			return err
		}
	}

	if app.beastServer != nil {
		if err := app.beastServer.Broadcast(frame); err != nil {
			app.logger.WithError(err).Debug("Failed to broadcast frame")
		}
	}

	if frame.TimestampNs-app.lastPurgeNs >= int64(app.config.PurgeInterval) {
		app.purge(frame.TimestampNs)
	}

	msg, ok := adsb.Decode(frame)
	if !ok {
		app.undecodable.Add(1)
		app.metrics.ObserveUndecodable()
		app.logger.WithFields(logrus.Fields{
			"frame":     frame.String(),
			"type_code": frame.GetTypeCode(),
		}).Trace("Undecodable frame")
		return nil
	}

	aircraft, moved := app.tracker.Update(msg)
	app.metrics.ObserveMessage(msg, moved)

	if moved {
		app.logger.WithFields(logrus.Fields{
			"icao":     aircraft.Address,
			"position": aircraft.Position.String(),
			"altitude": aircraft.AltitudeM,
		}).Debug("Position update")
	}

	for _, out := range app.outputs {
		before := out.Lines()
		if err := out.WriteMessage(msg, aircraft, moved); err != nil {
			app.logger.WithError(err).Debug("Failed to write SBS message")
			continue
		}
		app.metrics.ObserveOutputLines(int(out.Lines() - before))
	}

	return nil
}

// purge drops the aircraft not heard for tracker.PurgeAgeNs before nowNs
func (app *Application) purge(nowNs int64) {
	app.lastPurgeNs = nowNs

	removed := app.tracker.Purge(nowNs)
	for _, addr := range removed {
		app.logger.WithField("icao", addr).Debug("Aircraft purged")
		for _, out := range app.outputs {
			if err := out.WriteRemoved(addr, nowNs); err != nil {
				app.logger.WithError(err).Debug("Failed to write SBS status")
			}
		}
	}

	app.metrics.SetAircraft(app.tracker.Stats().Aircraft)
}

// reportStatistics reports processing statistics periodically
func (app *Application) reportStatistics(ctx context.Context) {
	ticker := time.NewTicker(app.config.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.logStatistics("Processing statistics")
		}
	}
}

func (app *Application) logStatistics(title string) {
	if app.tracker == nil || app.input == nil {
		return
	}

	stats := app.tracker.Stats()
	fields := logrus.Fields{
		"input":         humanize.Bytes(uint64(app.input.Count())),
		"frames":        humanize.Comma(int64(app.frames.Load())),
		"undecodable":   humanize.Comma(int64(app.undecodable.Load())),
		"messages":      humanize.Comma(int64(stats.Messages)),
		"aircraft":      stats.Aircraft,
		"with_position": stats.WithPosition,
		"stream_time":   time.Duration(app.tracker.LastTimestamp()).String(),
	}

	if app.skipped != nil {
		fields["skipped"] = humanize.Comma(int64(app.skipped()))
	}

	if app.demodulator != nil {
		d := app.demodulator.Stats()
		fields["preambles"] = humanize.Comma(int64(d.Preambles))
		fields["rejected_df"] = humanize.Comma(int64(d.RejectedDF))
		fields["rejected_crc"] = humanize.Comma(int64(d.RejectedCRC))
		if d.Preambles > 0 {
			fields["success_rate"] = fmt.Sprintf("%.2f%%", float64(d.ValidFrames)/float64(d.Preambles)*100)
		}
	}

	if app.beastServer != nil {
		fields["beast_clients"] = app.beastServer.Clients()
	}

	app.logger.WithFields(fields).Info(title)
}

// Tracker returns the aircraft tracker, nil before Run
func (app *Application) Tracker() *tracker.Manager {
	return app.tracker
}

// shutdown gracefully shuts down the application
func (app *Application) shutdown() {
	app.logger.Info("Shutting down application")
	if app.cancel != nil {
		app.cancel()
	}

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		app.logger.Debug("All goroutines finished")
	case <-time.After(5 * time.Second):
		app.logger.Warn("Shutdown timeout, forcing exit")
	}

	// Cleanup resources
	if app.recorder != nil {
		if err := app.recorder.Flush(); err != nil {
			app.logger.WithError(err).Error("Failed to flush recording")
		}
	}
	if app.recordFile != nil {
		app.recordFile.Close()
	}
	if app.logRotator != nil {
		app.logRotator.Close()
	}
	for _, c := range app.closers {
		c.Close()
	}

	app.logger.Info("Shutdown completed")
}
