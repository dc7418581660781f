// Package logging contains the zap-backed loggers used by the colorblob daemon and tools.
//
// A Logger writes entries to Appenders. The daemon logs to stdout and, when configured, to a
// rotating file; tests log through testing.TB and an in-memory observer. Subloggers are named
// after the component that owns them ("colorblob.control", "colorblob.capture") and
// per-connection context such as conn_id is bound with WithFields.
package logging

import (
	"fmt"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// DefaultTimeFormatStr is the timestamp layout used by console and test appenders.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// encoderConfig is shared by every appender. Appenders adjust the level encoding for their
// output.
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(DefaultTimeFormatStr),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   encodeCaller,
	}
}

// encodeCaller writes e.g. "capture/loop.go:112".
func encodeCaller(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(callerToString(&caller))
}

func callerToString(caller *zapcore.EntryCaller) string {
	return fmt.Sprintf("%s:%d", filepath.Join(filepath.Base(filepath.Dir(caller.File)), filepath.Base(caller.File)), caller.Line)
}

// NewLogger returns a new logger that outputs Info+ logs to stdout in UTC.
func NewLogger(name string) Logger {
	return newImpl(name, INFO, true, NewStdoutAppender())
}

// NewBlankLogger returns a new logger that outputs Debug+ logs in UTC, but without any
// appenders.
func NewBlankLogger(name string) Logger {
	return newImpl(name, DEBUG, true)
}

// NewTestLogger returns a new logger that outputs Debug+ logs to the test object in local time.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	observerCore, observedLogs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	return newImpl("", DEBUG, false, NewTestAppender(tb), observerCore), observedLogs
}
