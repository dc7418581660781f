package logging

import (
	"io"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Appender is an output for log entries. This is a subset of the `zapcore.Core` interface, so an
// observer core can be added to a logger directly.
type Appender interface {
	// Write submits a structured log entry to the appender for logging.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync is for signaling that any buffered logs to `Write` should be flushed. E.g: at shutdown.
	Sync() error
}

// ConsoleAppender will create human readable (console encoded) output to the underlying writer.
type ConsoleAppender struct {
	io.Writer
	encoder zapcore.Encoder
}

// NewStdoutAppender creates a new appender that outputs to stdout with colored levels.
func NewStdoutAppender() ConsoleAppender {
	return NewWriterAppender(os.Stdout)
}

// NewWriterAppender creates a new appender that outputs console encoded entries to `writer`.
func NewWriterAppender(writer io.Writer) ConsoleAppender {
	return ConsoleAppender{writer, zapcore.NewConsoleEncoder(encoderConfig())}
}

// Write outputs the log entry to the underlying stream.
func (appender ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	buf, err := appender.encoder.EncodeEntry(entry, fields)
	if err != nil {
		return err
	}
	defer buf.Free()

	_, err = appender.Writer.Write(buf.Bytes())
	return err
}

// Sync is a no-op for console output; the writer is unbuffered.
func (appender ConsoleAppender) Sync() error {
	return nil
}

// FileAppender writes json encoded entries to a size-rotated log file.
type FileAppender struct {
	rotator *lumberjack.Logger
	encoder zapcore.Encoder
}

// NewFileAppender returns an appender that writes to `filename`, rotating it once it grows past
// `maxSizeMB` megabytes. Up to `maxBackups` old files are retained.
func NewFileAppender(filename string, maxSizeMB, maxBackups int) *FileAppender {
	encoderCfg := encoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return &FileAppender{
		rotator: &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
		},
		encoder: zapcore.NewJSONEncoder(encoderCfg),
	}
}

// Write encodes the entry as json and appends it to the current log file.
func (appender *FileAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	buf, err := appender.encoder.EncodeEntry(entry, fields)
	if err != nil {
		return err
	}
	defer buf.Free()

	_, err = appender.rotator.Write(buf.Bytes())
	return err
}

// Sync is a no-op; lumberjack writes straight through to the file.
func (appender *FileAppender) Sync() error {
	return nil
}

// Close closes the underlying log file.
func (appender *FileAppender) Close() error {
	return appender.rotator.Close()
}
