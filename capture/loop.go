package capture

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"go.viam.com/colorblob/control"
	"go.viam.com/colorblob/logging"
	"go.viam.com/colorblob/rimage"
	"go.viam.com/colorblob/utils"
	"go.viam.com/colorblob/vision/blob"
)

// latencyWindow is how many recent detection latencies are kept for Stats.
const latencyWindow = 256

// LoopConfig configures a Loop.
type LoopConfig struct {
	// FrequencyHz is how often a frame is processed. It must be in (0, 200].
	FrequencyHz float64

	MaxRuns  int
	MaxBlobs int
	MinArea  int

	DrawBoxes    bool
	BoxThickness int
	BoxColor     rimage.YUV

	// YUVWriteDir receives raw frames while YUV writing is enabled.
	YUVWriteDir string
	// OverlayDir receives a png overlay of every detected frame when set.
	OverlayDir string
}

// LoopStats describes the loop's work so far. Latencies are in milliseconds over the most
// recent detections.
type LoopStats struct {
	Frames     int64
	Detections int64
	Overflows  int64
	Failures   int64

	LatencyP50 float64
	LatencyP95 float64
	LatencyP99 float64
}

// Loop processes one frame per tick. It reads the control parameters once per frame, so
// updates from the control channel take effect on the next tick.
type Loop struct {
	cfg         LoopConfig
	dt          time.Duration
	store       *control.Store
	source      Source
	testPattern Source
	consumers   []Consumer
	logger      logging.Logger
	clock       clock.Clock

	blobs *blob.BlobList

	mu        sync.Mutex
	workers   utils.StoppableWorkers
	latencies []float64
	latIdx    int

	frames     atomic.Int64
	detections atomic.Int64
	overflows  atomic.Int64
	failures   atomic.Int64
	jpgWarned  atomic.Bool
}

// NewLoop builds a loop reading frames from source, or from testPattern while the test image is
// enabled. testPattern may be nil. clk may be nil to use the wall clock.
func NewLoop(
	cfg LoopConfig,
	store *control.Store,
	source, testPattern Source,
	consumers []Consumer,
	clk clock.Clock,
	logger logging.Logger,
) (*Loop, error) {
	if cfg.FrequencyHz <= 0 || cfg.FrequencyHz > 200 {
		return nil, errors.New("loop frequency shouldn't be 0 or above 200Hz")
	}
	if source == nil {
		return nil, errors.New("capture loop needs a frame source")
	}
	if cfg.DrawBoxes && cfg.BoxThickness < 1 {
		return nil, errors.Errorf("box thickness must be positive, got %d", cfg.BoxThickness)
	}
	for _, dir := range []string{cfg.YUVWriteDir, cfg.OverlayDir} {
		if dir == "" {
			continue
		}
		if err := utils.EnsureDir(dir); err != nil {
			return nil, err
		}
	}
	bl, err := blob.NewBlobList(cfg.MaxRuns, cfg.MaxBlobs)
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{
		cfg:         cfg,
		dt:          time.Duration(float64(time.Second) / cfg.FrequencyHz),
		store:       store,
		source:      source,
		testPattern: testPattern,
		consumers:   consumers,
		logger:      logger,
		clock:       clk,
		blobs:       bl,
		latencies:   make([]float64, 0, latencyWindow),
	}, nil
}

// Interval returns the time between frames.
func (l *Loop) Interval() time.Duration {
	return l.dt
}

// Start processes a frame on every tick in the background until Close.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.workers != nil {
		return errors.New("capture loop already started")
	}
	l.logger.Infof("running capture loop at %1.4fHz (%v)", l.cfg.FrequencyHz, l.dt)
	ticker := l.clock.Ticker(l.dt)
	l.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.Step(ctx); err != nil {
					l.logger.Errorw("skipping frame", "error", err)
				}
			}
		}
	})
	return nil
}

// Step processes a single frame. It is what every tick of a started loop runs and must not be
// called concurrently with a running loop.
func (l *Loop) Step(ctx context.Context) error {
	seq := l.frames.Inc()
	params := l.store.Snapshot()

	src := l.source
	if params.TestImageEnable && l.testPattern != nil {
		src = l.testPattern
	}
	frame, err := src.NextFrame(ctx)
	if err != nil {
		l.failures.Inc()
		return errors.Wrapf(err, "cannot read frame %d", seq)
	}

	if params.JPGWriteEnable && l.jpgWarned.CompareAndSwap(false, true) {
		l.logger.Warn("jpg writing was requested but is not supported; ignoring")
	}

	var errs error
	if params.DetectEnable {
		errs = multierr.Append(errs, l.detect(seq, params, frame))
	}
	if params.YUVWriteEnable && l.cfg.YUVWriteDir != "" {
		path := filepath.Join(l.cfg.YUVWriteDir, fmt.Sprintf("frame_%06d.yuv", seq))
		errs = multierr.Append(errs, errors.Wrap(rimage.WriteYUVFile(path, frame), "cannot write frame"))
	}
	if errs != nil {
		l.failures.Inc()
	}
	return errs
}

func (l *Loop) detect(seq int64, params control.Params, frame *rimage.YUVFrame) error {
	start := l.clock.Now()
	n, err := l.blobs.Detect(params.DetectParams(l.cfg.MinArea), frame)
	l.recordLatency(l.clock.Since(start))
	switch {
	case errors.Is(err, blob.ErrCapacityExceeded):
		l.overflows.Inc()
		l.logger.Debugw("frame exceeded detector capacity", "seq", seq, "error", err)
	case err != nil:
		return errors.Wrapf(err, "cannot detect frame %d", seq)
	}
	l.detections.Inc()

	blobs := l.blobs.Blobs()[:n]
	for _, c := range l.consumers {
		c.ConsumeBlobs(seq, blobs)
	}

	var errs error
	if l.cfg.OverlayDir != "" {
		path := filepath.Join(l.cfg.OverlayDir, fmt.Sprintf("overlay_%06d.png", seq))
		errs = multierr.Append(errs, errors.Wrap(rimage.WriteOverlayPNG(path, frame, blob.Annotations(blobs)), "cannot write overlay"))
	}
	if l.cfg.DrawBoxes {
		errs = multierr.Append(errs, blob.DrawBoundingBoxes(l.blobs, l.cfg.BoxThickness, l.cfg.BoxColor, frame))
	}
	return errs
}

func (l *Loop) recordLatency(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.latencies) < latencyWindow {
		l.latencies = append(l.latencies, ms)
		return
	}
	l.latencies[l.latIdx] = ms
	l.latIdx = (l.latIdx + 1) % latencyWindow
}

// Stats returns the loop counters and latency percentiles.
func (l *Loop) Stats() LoopStats {
	s := LoopStats{
		Frames:     l.frames.Load(),
		Detections: l.detections.Load(),
		Overflows:  l.overflows.Load(),
		Failures:   l.failures.Load(),
	}
	l.mu.Lock()
	data := stats.Float64Data(append([]float64(nil), l.latencies...))
	l.mu.Unlock()
	if len(data) == 0 {
		return s
	}
	s.LatencyP50 = percentile(data, 50)
	s.LatencyP95 = percentile(data, 95)
	s.LatencyP99 = percentile(data, 99)
	return s
}

func percentile(data stats.Float64Data, p float64) float64 {
	v, err := data.Percentile(p)
	if err != nil {
		return 0
	}
	return v
}

// Close stops the loop and releases its detector and sources.
func (l *Loop) Close() error {
	l.mu.Lock()
	workers := l.workers
	l.mu.Unlock()
	if workers != nil {
		workers.Stop()
	}
	s := l.Stats()
	l.logger.Infow("capture loop stopped",
		"frames", s.Frames, "detections", s.Detections, "overflows", s.Overflows, "failures", s.Failures,
		"p50_ms", s.LatencyP50, "p99_ms", s.LatencyP99)

	err := multierr.Combine(l.blobs.Close(), l.source.Close())
	if l.testPattern != nil {
		err = multierr.Append(err, l.testPattern.Close())
	}
	return err
}
