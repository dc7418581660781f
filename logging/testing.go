package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

type testAppender struct {
	tb      testing.TB
	encoder zapcore.Encoder
}

// NewTestAppender returns an appender that writes console encoded entries through `tb.Log`, so
// each line is attributed to the test that produced it.
func NewTestAppender(tb testing.TB) Appender {
	cfg := encoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.LineEnding = "\n"
	return &testAppender{tb: tb, encoder: zapcore.NewConsoleEncoder(cfg)}
}

func (tapp *testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tapp.tb.Helper()
	buf, err := tapp.encoder.EncodeEntry(entry, fields)
	if err != nil {
		tapp.tb.Log(entry.Message)
		return err
	}
	defer buf.Free()
	tapp.tb.Log(strings.TrimSuffix(buf.String(), "\n"))
	return nil
}

func (tapp *testAppender) Sync() error {
	return nil
}
