// Package config defines the colorblob daemon's configuration file and how it is read,
// validated and watched for changes.
package config

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/colorblob/logging"
	"go.viam.com/colorblob/rimage"
	"go.viam.com/colorblob/utils"
	"go.viam.com/colorblob/vision/blob"
)

// Defaults applied to fields left unset.
const (
	DefaultListenAddress = ":8090"
	DefaultMaxRuns       = 10000
	DefaultMaxBlobs      = 1000
	DefaultBoxThickness  = 2
	DefaultFrequencyHz   = 30
	DefaultWidth         = 640
	DefaultHeight        = 480
	DefaultLogMaxSizeMB  = 100

	// SourceTestPattern selects the generated test pattern as the capture source.
	SourceTestPattern = "test_pattern"

	// MaxFrequencyHz is the fastest capture rate allowed.
	MaxFrequencyHz = 200
)

// DefaultBoxColor is magenta in YUV.
var DefaultBoxColor = rimage.YUV{Y: 255, U: 0, V: 255}

// Config is the whole configuration file.
type Config struct {
	// ConfigFilePath is where the config was read from, if anywhere.
	ConfigFilePath string `json:"-"`

	Control    ControlConfig    `json:"control"`
	Detector   DetectorConfig   `json:"detector"`
	Thresholds *ThresholdConfig `json:"thresholds,omitempty"`
	Capture    CaptureConfig    `json:"capture"`
	Log        LogConfig        `json:"log"`
}

// ControlConfig configures the control channel.
type ControlConfig struct {
	ListenAddress string `json:"listen_address"`
}

// DetectorConfig sizes the detector and configures box drawing.
type DetectorConfig struct {
	MaxRuns      int    `json:"max_runs"`
	MaxBlobs     int    `json:"max_blobs"`
	MinArea      int    `json:"min_area"`
	MergeRows    *bool  `json:"merge_rows,omitempty"`
	Layout       string `json:"layout"`
	DrawBoxes    bool   `json:"draw_boxes"`
	BoxThickness int    `json:"box_thickness"`
	BoxColor     []int  `json:"box_color,omitempty"`
}

// ThresholdConfig holds the initial detection thresholds. Values are 0 to 255.
type ThresholdConfig struct {
	YLow  int `json:"y_low"`
	YHigh int `json:"y_high"`
	ULow  int `json:"u_low"`
	UHigh int `json:"u_high"`
	VLow  int `json:"v_low"`
	VHigh int `json:"v_high"`
}

// CaptureConfig configures where frames come from and what is written out per frame.
type CaptureConfig struct {
	// Source is SourceTestPattern or the path of a raw .yuv file.
	Source      string  `json:"source"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	FrequencyHz float64 `json:"frequency_hz"`
	YUVWriteDir string  `json:"yuv_write_dir"`
	OverlayDir  string  `json:"overlay_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	MaxSizeMB int    `json:"max_size_mb"`
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Control.ListenAddress == "" {
		c.Control.ListenAddress = DefaultListenAddress
	}
	if c.Detector.MaxRuns == 0 {
		c.Detector.MaxRuns = DefaultMaxRuns
	}
	if c.Detector.MaxBlobs == 0 {
		c.Detector.MaxBlobs = DefaultMaxBlobs
	}
	if c.Detector.MergeRows == nil {
		c.Detector.MergeRows = lo.ToPtr(true)
	}
	if c.Detector.BoxThickness == 0 {
		c.Detector.BoxThickness = DefaultBoxThickness
	}
	if len(c.Detector.BoxColor) == 0 {
		c.Detector.BoxColor = []int{int(DefaultBoxColor.Y), int(DefaultBoxColor.U), int(DefaultBoxColor.V)}
	}
	if c.Capture.Source == "" {
		c.Capture.Source = SourceTestPattern
	}
	if c.Capture.Source == SourceTestPattern {
		if c.Capture.Width == 0 {
			c.Capture.Width = DefaultWidth
		}
		if c.Capture.Height == 0 {
			c.Capture.Height = DefaultHeight
		}
	}
	if c.Capture.FrequencyHz == 0 {
		c.Capture.FrequencyHz = DefaultFrequencyHz
	}
	if c.Log.Level == "" {
		c.Log.Level = logging.INFO.String()
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Capture.Source != SourceTestPattern {
		c.Capture.Source = utils.ExpandHomeDir(c.Capture.Source)
	}
	c.Capture.YUVWriteDir = utils.ExpandHomeDir(c.Capture.YUVWriteDir)
	c.Capture.OverlayDir = utils.ExpandHomeDir(c.Capture.OverlayDir)
	c.Log.File = utils.ExpandHomeDir(c.Log.File)
}

// Validate returns every problem with the config.
func (c *Config) Validate() error {
	var errs error
	for _, err := range []error{
		c.Detector.Validate("detector"),
		c.Capture.Validate("capture"),
		c.Log.Validate("log"),
	} {
		errs = multierr.Append(errs, err)
	}
	if c.Thresholds != nil {
		errs = multierr.Append(errs, c.Thresholds.Validate("thresholds"))
	}
	if c.Control.ListenAddress == "" {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError("control", "listen_address"))
	}
	return errs
}

// Validate checks the detector section.
func (d *DetectorConfig) Validate(path string) error {
	var errs error
	if d.MaxRuns < 1 {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path, errors.Errorf("max_runs must be positive, got %d", d.MaxRuns)))
	}
	if d.MaxBlobs < 1 {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path, errors.Errorf("max_blobs must be positive, got %d", d.MaxBlobs)))
	}
	if d.MinArea < 0 {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path, errors.Errorf("min_area must not be negative, got %d", d.MinArea)))
	}
	if d.BoxThickness < 1 {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path, errors.Errorf("box_thickness must be positive, got %d", d.BoxThickness)))
	}
	if _, err := rimage.ParseYUVLayout(d.Layout); err != nil {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path, err))
	}
	if len(d.BoxColor) != 3 {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path, errors.Errorf("box_color must have 3 components, got %d", len(d.BoxColor))))
	} else if bad, ok := lo.Find(d.BoxColor, func(v int) bool { return v < 0 || v > 255 }); ok {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path, utils.NewOutOfRangeError("box_color component", bad, 0, 255)))
	}
	return errs
}

// YUVLayout returns the parsed frame layout.
func (d *DetectorConfig) YUVLayout() rimage.YUVLayout {
	layout, err := rimage.ParseYUVLayout(d.Layout)
	if err != nil {
		return rimage.YUV420
	}
	return layout
}

// Color returns the box color. The config must be valid.
func (d *DetectorConfig) Color() rimage.YUV {
	if len(d.BoxColor) != 3 {
		return DefaultBoxColor
	}
	c := lo.Map(d.BoxColor, func(v, _ int) uint8 { return uint8(utils.Clamp(0, 255, v)) })
	return rimage.YUV{Y: c[0], U: c[1], V: c[2]}
}

// MergeRowsEnabled reports whether row merging is on, defaulting to true.
func (d *DetectorConfig) MergeRowsEnabled() bool {
	return d.MergeRows == nil || *d.MergeRows
}

// Validate checks every bound is a byte.
func (t *ThresholdConfig) Validate(path string) error {
	var errs error
	for _, f := range []struct {
		name  string
		value int
	}{
		{"y_low", t.YLow}, {"y_high", t.YHigh},
		{"u_low", t.ULow}, {"u_high", t.UHigh},
		{"v_low", t.VLow}, {"v_high", t.VHigh},
	} {
		if f.value < 0 || f.value > 255 {
			errs = multierr.Append(errs, goutils.NewConfigValidationError(path, utils.NewOutOfRangeError(f.name, f.value, 0, 255)))
		}
	}
	return errs
}

// ToThresholds converts to detector thresholds. A nil config matches every pixel.
func (t *ThresholdConfig) ToThresholds() blob.Thresholds {
	if t == nil {
		return blob.MatchAll
	}
	b := func(v int) uint8 { return uint8(utils.Clamp(0, 255, v)) }
	return blob.Thresholds{
		YLow: b(t.YLow), YHigh: b(t.YHigh),
		ULow: b(t.ULow), UHigh: b(t.UHigh),
		VLow: b(t.VLow), VHigh: b(t.VHigh),
	}
}

// Validate checks the capture section.
func (c *CaptureConfig) Validate(path string) error {
	var errs error
	if c.Width < 0 || c.Height < 0 {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path,
			errors.Errorf("width and height must not be negative, got %dx%d", c.Width, c.Height)))
	}
	if (c.Width == 0) != (c.Height == 0) {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path,
			errors.New("width and height must be set together")))
	}
	if c.Source == SourceTestPattern && (c.Width == 0 || c.Height == 0) {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path,
			errors.New("the test pattern needs a width and height")))
	}
	if c.FrequencyHz <= 0 || c.FrequencyHz > MaxFrequencyHz {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path,
			utils.NewOutOfRangeError("frequency_hz", c.FrequencyHz, 0, MaxFrequencyHz)))
	}
	return errs
}

// Validate checks the log section.
func (l *LogConfig) Validate(path string) error {
	var errs error
	if _, err := logging.LevelFromString(l.Level); err != nil {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path, err))
	}
	if l.MaxSizeMB < 0 {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path,
			errors.Errorf("max_size_mb must not be negative, got %d", l.MaxSizeMB)))
	}
	return errs
}
