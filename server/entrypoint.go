// Package server implements the entry point for running the colorblob daemon.
package server

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/colorblob/capture"
	"go.viam.com/colorblob/config"
	"go.viam.com/colorblob/control"
	"go.viam.com/colorblob/logging"
	"go.viam.com/colorblob/utils"
)

// blobLogEvery is how often, in frames, the detected blobs are summarized at debug level.
const blobLogEvery = 30

// Arguments for the command.
type Arguments struct {
	ConfigFile string `flag:"0,usage=config file; built in defaults are used when omitted"`
	Debug      bool   `flag:"debug,usage=log at debug level"`
	Listen     string `flag:"listen,usage=control channel address overriding the config"`
}

// RunServer is an entry point to starting the daemon that can be called by main or used to embed
// the daemon elsewhere. It serves until ctx is done.
func RunServer(ctx context.Context, args []string, logger logging.Logger) (err error) {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	cfg := config.Default()
	if argsParsed.ConfigFile != "" {
		cfg, err = config.Read(argsParsed.ConfigFile, logger)
		if err != nil {
			return err
		}
	}
	if argsParsed.Listen != "" {
		cfg.Control.ListenAddress = argsParsed.Listen
	}

	closeLogs, err := configureLogging(cfg.Log, argsParsed.Debug, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, closeLogs())
	}()

	err = serve(ctx, cfg, logger)
	if err != nil {
		logger.Errorw("error serving", "error", err)
	}
	return err
}

// configureLogging applies the log section to logger and returns a func that closes any log
// file it opened.
func configureLogging(cfg config.LogConfig, debug bool, logger logging.Logger) (func() error, error) {
	level, err := logging.LevelFromString(cfg.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = logging.DEBUG
	}
	logger.SetLevel(level)
	if cfg.File == "" {
		return func() error { return nil }, nil
	}
	appender := logging.NewFileAppender(cfg.File, cfg.MaxSizeMB, 3)
	logger.AddAppender(appender)
	logger.Infow("logging to file", "path", cfg.File)
	return appender.Close, nil
}

func serve(ctx context.Context, cfg *config.Config, logger logging.Logger) (err error) {
	d, err := NewDaemon(cfg, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, d.Close())
	}()
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Daemon is a control server feeding parameters to a capture loop.
type Daemon struct {
	cfg    *config.Config
	logger logging.Logger

	store   *control.Store
	control *control.Server
	loop    *capture.Loop
	workers utils.StoppableWorkers
}

// NewDaemon builds the store, control server and capture loop described by cfg. Nothing runs until
// Start. clk may be nil to use the wall clock.
func NewDaemon(cfg *config.Config, clk clock.Clock, logger logging.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	params := control.DefaultParams()
	params.Thresholds = cfg.Thresholds.ToThresholds()
	params.MergeRowsEnable = cfg.Detector.MergeRowsEnabled()
	store := control.NewStore(params)

	source, testPattern, err := newSources(cfg, logger)
	if err != nil {
		return nil, err
	}

	loop, err := capture.NewLoop(
		capture.LoopConfig{
			FrequencyHz:  cfg.Capture.FrequencyHz,
			MaxRuns:      cfg.Detector.MaxRuns,
			MaxBlobs:     cfg.Detector.MaxBlobs,
			MinArea:      cfg.Detector.MinArea,
			DrawBoxes:    cfg.Detector.DrawBoxes,
			BoxThickness: cfg.Detector.BoxThickness,
			BoxColor:     cfg.Detector.Color(),
			YUVWriteDir:  cfg.Capture.YUVWriteDir,
			OverlayDir:   cfg.Capture.OverlayDir,
		},
		store,
		source,
		testPattern,
		[]capture.Consumer{&capture.LogConsumer{Logger: logger.Sublogger("blobs"), Every: blobLogEvery, Top: 3}},
		clk,
		logger.Sublogger("capture"),
	)
	if err != nil {
		return nil, multierr.Combine(err, source.Close(), testPattern.Close())
	}

	return &Daemon{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		control: control.NewServer(store, logger.Sublogger("control")),
		loop:    loop,
	}, nil
}

// newSources opens the configured frame source plus a test pattern of the same geometry for when
// the test image is switched on.
func newSources(cfg *config.Config, logger logging.Logger) (capture.Source, *capture.TestPatternSource, error) {
	layout := cfg.Detector.YUVLayout()
	width, height := cfg.Capture.Width, cfg.Capture.Height

	var source capture.Source
	if cfg.Capture.Source != config.SourceTestPattern {
		fs, err := capture.NewFileSource(cfg.Capture.Source, width, height, layout)
		if err != nil {
			return nil, nil, err
		}
		width, height, layout = fs.Geometry()
		logger.Infow("replaying frames", "path", cfg.Capture.Source, "frames", fs.NumFrames(),
			"width", width, "height", height, "layout", layout.String())
		source = fs
	}

	testPattern, err := capture.NewTestPatternSource(width, height, layout)
	if err != nil {
		if source != nil {
			err = multierr.Combine(err, source.Close())
		}
		return nil, nil, errors.Wrap(err, "cannot create test pattern")
	}
	if source == nil {
		source = testPattern
	}
	return source, testPattern, nil
}

// Store returns the parameters shared by the control server and the capture loop.
func (d *Daemon) Store() *control.Store {
	return d.store
}

// Control returns the control server.
func (d *Daemon) Control() *control.Server {
	return d.control
}

// Loop returns the capture loop.
func (d *Daemon) Loop() *capture.Loop {
	return d.loop
}

// Start opens the control channel, starts the capture loop and, when the config came from a file,
// watches it for threshold changes.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.control.Start(ctx, d.cfg.Control.ListenAddress); err != nil {
		return err
	}
	d.logger.Infow("control channel listening", "address", d.control.Addr().String())
	if err := d.loop.Start(); err != nil {
		return err
	}
	if d.cfg.ConfigFilePath == "" {
		return nil
	}
	d.workers = utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		err := config.Watch(ctx, d.cfg.ConfigFilePath, d.logger.Sublogger("config"), d.applyConfig)
		if err != nil {
			d.logger.Errorw("not watching config for changes", "error", err)
		}
	})
	return nil
}

// applyConfig copies the reloadable parts of a new config into the store. Everything else needs a
// restart.
func (d *Daemon) applyConfig(cfg *config.Config) {
	goutils.UncheckedError(d.store.Update(func(p *control.Params) error {
		p.Thresholds = cfg.Thresholds.ToThresholds()
		p.MergeRowsEnable = cfg.Detector.MergeRowsEnabled()
		return nil
	}))
	d.logger.Infow("applied reloaded thresholds", "thresholds", d.store.Snapshot().Thresholds)
}

// Close stops everything Start started and releases the loop's resources.
func (d *Daemon) Close() error {
	if d.workers != nil {
		d.workers.Stop()
	}
	return multierr.Combine(d.control.Close(), d.loop.Close())
}
