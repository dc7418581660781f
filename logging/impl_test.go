package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"
)

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in    string
		level Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.level)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown log level")
}

func TestLevelJSON(t *testing.T) {
	out, err := json.Marshal(WARN)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"warn"`)

	var level Level
	test.That(t, json.Unmarshal([]byte(`"error"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, ERROR)
	test.That(t, json.Unmarshal([]byte(`"nope"`), &level), test.ShouldNotBeNil)
}

func newObservedBlank(name string) (Logger, *observer.ObservedLogs) {
	logger := NewBlankLogger(name)
	core, logs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	logger.AddAppender(core)
	return logger, logs
}

func TestLevelFiltering(t *testing.T) {
	logger, logs := newObservedBlank("filter")
	logger.SetLevel(WARN)

	logger.Debug("debug line")
	logger.Infof("info %d", 1)
	logger.Warnw("warn line", "k", 2)
	logger.Errorf("error %s", "line")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	all := logs.All()
	test.That(t, all[0].Message, test.ShouldEqual, "warn line")
	test.That(t, all[0].ContextMap()["k"], test.ShouldEqual, int64(2))
	test.That(t, all[1].Message, test.ShouldEqual, "error line")
	test.That(t, all[1].Level, test.ShouldEqual, zapcore.ErrorLevel)
}

func TestSubloggerNaming(t *testing.T) {
	logger, logs := newObservedBlank("colorblob")
	sub := logger.Sublogger("control")
	sub.Info("hello")
	subsub := sub.Sublogger("conn")
	subsub.Info("again")

	all := logs.All()
	test.That(t, all, test.ShouldHaveLength, 2)
	test.That(t, all[0].LoggerName, test.ShouldEqual, "colorblob.control")
	test.That(t, all[1].LoggerName, test.ShouldEqual, "colorblob.control.conn")

	// sublogger levels are independent of the parent.
	sub.SetLevel(ERROR)
	sub.Warn("dropped")
	logger.Warn("kept")
	test.That(t, logs.Len(), test.ShouldEqual, 3)
}

func TestUnpairedKey(t *testing.T) {
	logger, logs := newObservedBlank("")
	logger.Infow("msg", "lonely")
	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].ContextMap()["lonely"], test.ShouldNotBeNil)
}

func TestWriterAppender(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("writer")
	logger.AddAppender(NewWriterAppender(&buf))
	logger.Infow("frame processed", "blobs", 3)

	line := buf.String()
	test.That(t, line, test.ShouldContainSubstring, "INFO")
	test.That(t, line, test.ShouldContainSubstring, "writer")
	test.That(t, line, test.ShouldContainSubstring, "frame processed")
	test.That(t, line, test.ShouldContainSubstring, `{"blobs": 3}`)
	test.That(t, line, test.ShouldContainSubstring, "logging/impl_test.go")
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colorblob.log")
	appender := NewFileAppender(path, 1, 1)
	logger := NewBlankLogger("file")
	logger.AddAppender(appender)
	logger.Errorw("short message", "opcode", 7)
	test.That(t, logger.Sync(), test.ShouldBeNil)
	test.That(t, appender.Close(), test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	test.That(t, lines, test.ShouldHaveLength, 1)

	var decoded map[string]interface{}
	test.That(t, json.Unmarshal([]byte(lines[0]), &decoded), test.ShouldBeNil)
	test.That(t, decoded["msg"], test.ShouldEqual, "short message")
	test.That(t, decoded["level"], test.ShouldEqual, "ERROR")
	test.That(t, decoded["logger"], test.ShouldEqual, "file")
	test.That(t, decoded["opcode"], test.ShouldEqual, 7.0)
}

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugf("run table full, dropped %d runs", 4)
	test.That(t, logs.FilterMessageSnippet("dropped 4").Len(), test.ShouldEqual, 1)
}

func TestWithFields(t *testing.T) {
	logger, logs := newObservedBlank("colorblob")
	conn := logger.Sublogger("control").WithFields("conn_id", "abc", "remote", "10.0.0.2:5000")
	conn.Warnw("ignoring control message", "error", "message too short")
	logger.Info("unbound")

	all := logs.All()
	test.That(t, all, test.ShouldHaveLength, 2)
	test.That(t, all[0].LoggerName, test.ShouldEqual, "colorblob.control")
	test.That(t, all[0].ContextMap(), test.ShouldResemble, map[string]interface{}{
		"conn_id": "abc",
		"remote":  "10.0.0.2:5000",
		"error":   "message too short",
	})
	test.That(t, all[1].ContextMap(), test.ShouldBeEmpty)

	// bound fields share the level of the logger they came from.
	logger.SetLevel(ERROR)
	logger.WithFields("seq", 1).Warn("dropped")
	test.That(t, logs.Len(), test.ShouldEqual, 2)
}

func TestAppenderAddedAfterSublogger(t *testing.T) {
	logger := NewBlankLogger("colorblob")
	sub := logger.Sublogger("capture")
	core, logs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	logger.AddAppender(core)

	sub.Infow("running capture loop", "hz", 30)
	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "colorblob.capture")
}

func TestAsZap(t *testing.T) {
	logger, logs := newObservedBlank("colorblob")
	logger.SetLevel(INFO)
	zl := logger.WithFields("conn_id", "abc").AsZap()
	zl.Debug("hidden")
	zl.Infow("through zap", "frames", 3)

	test.That(t, logs.Len(), test.ShouldEqual, 1)
	entry := logs.All()[0]
	test.That(t, entry.Message, test.ShouldEqual, "through zap")
	test.That(t, entry.LoggerName, test.ShouldEqual, "colorblob")
	test.That(t, entry.ContextMap()["conn_id"], test.ShouldEqual, "abc")
	test.That(t, entry.ContextMap()["frames"], test.ShouldEqual, int64(3))
	test.That(t, entry.Caller.File, test.ShouldEndWith, "impl_test.go")
}
