package logging

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the leveled, structured logger used by every colorblob package. The `w` variants
// take alternating keys and values.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger named "<name>.<subname>" with its own level, starting at this
	// logger's current level.
	Sublogger(subname string) Logger
	// WithFields returns a logger that adds keysAndValues to every entry, such as the id of the
	// connection being served. It shares this logger's name and level.
	WithFields(keysAndValues ...interface{}) Logger

	// AddAppender adds an output to this logger and every logger derived from it.
	AddAppender(appender Appender)
	SetLevel(level Level)
	GetLevel() Level
	Sync() error

	// AsZap returns a zap logger writing through this logger's appenders and level.
	AsZap() *zap.SugaredLogger
}

// appenderSet is shared by a logger and everything derived from it, so an appender added after a
// sublogger was created still receives its entries.
type appenderSet struct {
	mu        sync.RWMutex
	appenders []Appender
}

func newAppenderSet(appenders ...Appender) *appenderSet {
	return &appenderSet{appenders: appenders}
}

func (as *appenderSet) add(appender Appender) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.appenders = append(as.appenders, appender)
}

func (as *appenderSet) write(entry zapcore.Entry, fields []zapcore.Field) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	for _, appender := range as.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, "cannot write log entry:", err)
		}
	}
}

func (as *appenderSet) sync() error {
	as.mu.RLock()
	defer as.mu.RUnlock()
	var errs error
	for _, appender := range as.appenders {
		errs = multierr.Append(errs, appender.Sync())
	}
	return errs
}

type impl struct {
	name   string
	level  AtomicLevel
	inUTC  bool
	fields []zapcore.Field
	out    *appenderSet
}

func newImpl(name string, level Level, inUTC bool, appenders ...Appender) *impl {
	return &impl{name: name, level: NewAtomicLevelAt(level), inUTC: inUTC, out: newAppenderSet(appenders...)}
}

func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return &impl{
		name:   name,
		level:  NewAtomicLevelAt(imp.level.Get()),
		inUTC:  imp.inUTC,
		fields: imp.fields,
		out:    imp.out,
	}
}

func (imp *impl) WithFields(keysAndValues ...interface{}) Logger {
	clone := *imp
	clone.fields = append(slices.Clip(imp.fields), sweeten(keysAndValues)...)
	return &clone
}

func (imp *impl) AddAppender(appender Appender) {
	imp.out.add(appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sync() error {
	return imp.out.sync()
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return zap.New(&zapCore{imp: imp}, zap.AddCaller()).Sugar().Named(imp.name)
}

func (imp *impl) enabled(level Level) bool {
	return level >= imp.level.Get()
}

// log writes one entry. It must be called directly from the exported logging method so the
// reported caller is the code that logged.
func (imp *impl) log(level Level, msg string, fields []zapcore.Field) {
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: imp.name,
		Message:    msg,
		Caller:     callerAt(2),
	}
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	if len(imp.fields) > 0 {
		fields = append(slices.Clip(imp.fields), fields...)
	}
	imp.out.write(entry, fields)
}

var errUnpairedKey = errors.New("unpaired log key")

// sweeten turns alternating keys and values into zap fields. A trailing key without a value is
// kept with an error as its value.
func sweeten(keysAndValues []interface{}) []zapcore.Field {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.NamedError(key, errUnpairedKey))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func callerAt(skip int) zapcore.EntryCaller {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return zapcore.EntryCaller{}
	}
	caller := zapcore.NewEntryCaller(pc, file, line, true)
	if fn := runtime.FuncForPC(pc); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}

func (imp *impl) Debug(args ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.log(DEBUG, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.log(DEBUG, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.log(DEBUG, msg, sweeten(keysAndValues))
	}
}

func (imp *impl) Info(args ...interface{}) {
	if imp.enabled(INFO) {
		imp.log(INFO, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Infof(template string, args ...interface{}) {
	if imp.enabled(INFO) {
		imp.log(INFO, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	if imp.enabled(INFO) {
		imp.log(INFO, msg, sweeten(keysAndValues))
	}
}

func (imp *impl) Warn(args ...interface{}) {
	if imp.enabled(WARN) {
		imp.log(WARN, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	if imp.enabled(WARN) {
		imp.log(WARN, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(WARN) {
		imp.log(WARN, msg, sweeten(keysAndValues))
	}
}

func (imp *impl) Error(args ...interface{}) {
	if imp.enabled(ERROR) {
		imp.log(ERROR, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	if imp.enabled(ERROR) {
		imp.log(ERROR, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(ERROR) {
		imp.log(ERROR, msg, sweeten(keysAndValues))
	}
}

// zapCore exposes a logger to zap. Entries keep zap's own caller and level.
type zapCore struct {
	imp    *impl
	fields []zapcore.Field
}

func (c *zapCore) Enabled(level zapcore.Level) bool {
	return level >= c.imp.level.Get().AsZap()
}

func (c *zapCore) With(fields []zapcore.Field) zapcore.Core {
	return &zapCore{imp: c.imp, fields: append(slices.Clip(c.fields), fields...)}
}

func (c *zapCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *zapCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if c.imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	all := append(slices.Clip(c.imp.fields), c.fields...)
	c.imp.out.write(entry, append(all, fields...))
	return nil
}

func (c *zapCore) Sync() error {
	return c.imp.Sync()
}
