package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/colorblob/logging"
	"go.viam.com/colorblob/rimage"
	"go.viam.com/colorblob/vision/blob"
)

func TestFromReaderValidate(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := FromReader("somepath", strings.NewReader(""), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "EOF")

	_, err = FromReader("somepath", strings.NewReader(`{"detector": 1}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "decode")

	conf, err := FromReader("somepath", strings.NewReader(`{}`), logger)
	test.That(t, err, test.ShouldBeNil)
	want := Default()
	want.ConfigFilePath = "somepath"
	test.That(t, conf, test.ShouldResemble, want)
	test.That(t, conf.Thresholds.ToThresholds(), test.ShouldResemble, blob.MatchAll)
	test.That(t, conf.Detector.MergeRowsEnabled(), test.ShouldBeTrue)
	test.That(t, conf.Detector.YUVLayout(), test.ShouldEqual, rimage.YUV420)
	test.That(t, conf.Detector.Color(), test.ShouldResemble, DefaultBoxColor)

	_, err = FromReader("somepath", strings.NewReader(`{"detector": {"max_runs": -4, "layout": "rgb"}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "max_runs must be positive")
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown yuv layout "rgb"`)
}

func TestFromReaderFull(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	conf, err := FromReader("", strings.NewReader(`{
		"control": {"listen_address": "127.0.0.1:7000"},
		"detector": {
			"max_runs": 500,
			"max_blobs": 20,
			"min_area": 10,
			"merge_rows": false,
			"layout": "yuv422",
			"draw_boxes": true,
			"box_thickness": 4,
			"box_color": [76, 84, 255],
			"sharpen": true
		},
		"thresholds": {"y_low": 10, "y_high": 250, "u_low": 20, "u_high": 100, "v_low": 150, "v_high": 200},
		"capture": {"source": "frames.yuv", "width": 1280, "height": 720, "frequency_hz": 15.5},
		"log": {"level": "debug", "file": "/tmp/colorblob.log", "max_size_mb": 5},
		"extra": 1
	}`), logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, conf.Control.ListenAddress, test.ShouldEqual, "127.0.0.1:7000")
	test.That(t, conf.Detector.MaxRuns, test.ShouldEqual, 500)
	test.That(t, conf.Detector.MaxBlobs, test.ShouldEqual, 20)
	test.That(t, conf.Detector.MinArea, test.ShouldEqual, 10)
	test.That(t, conf.Detector.MergeRowsEnabled(), test.ShouldBeFalse)
	test.That(t, conf.Detector.YUVLayout(), test.ShouldEqual, rimage.YUV422)
	test.That(t, conf.Detector.DrawBoxes, test.ShouldBeTrue)
	test.That(t, conf.Detector.BoxThickness, test.ShouldEqual, 4)
	test.That(t, conf.Detector.Color(), test.ShouldResemble, rimage.YUV{Y: 76, U: 84, V: 255})
	test.That(t, conf.Thresholds.ToThresholds(), test.ShouldResemble,
		blob.Thresholds{YLow: 10, YHigh: 250, ULow: 20, UHigh: 100, VLow: 150, VHigh: 200})
	test.That(t, conf.Capture, test.ShouldResemble, CaptureConfig{
		Source: "frames.yuv", Width: 1280, Height: 720, FrequencyHz: 15.5,
	})
	test.That(t, conf.Log, test.ShouldResemble, LogConfig{Level: "debug", File: "/tmp/colorblob.log", MaxSizeMB: 5})

	unknown := logs.FilterMessage("ignoring unknown config keys").All()
	test.That(t, unknown, test.ShouldHaveLength, 1)
	test.That(t, unknown[0].ContextMap()["keys"], test.ShouldResemble, []interface{}{"detector.sharpen", "extra"})
}

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "colorblob.json")
	t.Setenv("COLORBLOB_TEST_PORT", "7123")
	test.That(t, os.WriteFile(path, []byte(`{"control": {"listen_address": ":${COLORBLOB_TEST_PORT}"}}`), 0o600),
		test.ShouldBeNil)

	conf, err := Read(path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, conf.Control.ListenAddress, test.ShouldEqual, ":7123")

	_, err = Read(filepath.Join(dir, "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot read config file")

	bad := filepath.Join(dir, "bad.json")
	test.That(t, os.WriteFile(bad, []byte(`{"capture": {"frequency_hz": 500}}`), 0o600), test.ShouldBeNil)
	_, err = Read(bad, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid config file")
	test.That(t, err.Error(), test.ShouldContainSubstring, "frequency_hz")
}
