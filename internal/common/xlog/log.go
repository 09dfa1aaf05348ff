// Package xlog is the context aware logging facade used across the service.
// It is a thin layer over zap that adds the request correlation data found in
// the context to every entry.
package xlog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog/ctxdata"
)

const DefaultLogger = "default"

// Loggers holds every initialised *zap.Logger by name. Integrations that need
// the raw logger (New Relic) load it from here.
var Loggers sync.Map

type options struct {
	level      zapcore.Level
	logTo      string
	env        string
	caller     bool
	callerSkip int
}

type Option func(o *options)

func DebugLogLevel() Option { return func(o *options) { o.level = zapcore.DebugLevel } }
func InfoLogLevel() Option  { return func(o *options) { o.level = zapcore.InfoLevel } }

// WithLogToOption selects the sink: "stdout", "stderr" or a file path.
func WithLogToOption(to string) Option {
	return func(o *options) { o.logTo = to }
}

func WithLogEnvOption(env string) Option {
	return func(o *options) { o.env = env }
}

func WithCaller(enabled bool) Option {
	return func(o *options) { o.caller = enabled }
}

func AddCallerSkip(skip int) Option {
	return func(o *options) { o.callerSkip = skip }
}

// Init builds the default logger. It is safe to call more than once, the last
// call wins.
func Init(name string, opts ...Option) {
	o := options{level: zapcore.InfoLevel, logTo: "stdout"}
	for _, opt := range opts {
		opt(&o)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.MessageKey = "message"
	encCfg.LevelKey = "severity"

	var encoder zapcore.Encoder
	if o.env == "" || o.env == "local" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, sink(o.logTo), zap.NewAtomicLevelAt(o.level))

	zopts := []zap.Option{zap.Fields(zap.String("app", name))}
	if o.caller {
		zopts = append(zopts, zap.AddCaller(), zap.AddCallerSkip(o.callerSkip))
	}

	Loggers.Store(DefaultLogger, zap.New(core, zopts...))
}

// InitForTest installs a no-op logger so tests do not print.
func InitForTest() {
	Loggers.Store(DefaultLogger, zap.NewNop())
}

func sink(to string) zapcore.WriteSyncer {
	switch to {
	case "", "stdout":
		return zapcore.Lock(os.Stdout)
	case "stderr":
		return zapcore.Lock(os.Stderr)
	default:
		f, err := os.OpenFile(to, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zapcore.Lock(os.Stdout)
		}
		return zapcore.AddSync(f)
	}
}

// Logger returns the default zap logger, initialising a production one when
// Init was never called.
func Logger() *zap.Logger {
	if l, ok := Loggers.Load(DefaultLogger); ok {
		return l.(*zap.Logger)
	}
	l, _ := zap.NewProduction()
	l = l.WithOptions(zap.AddCallerSkip(2))
	actual, _ := Loggers.LoadOrStore(DefaultLogger, l)
	return actual.(*zap.Logger)
}

func Sync() {
	_ = Logger().Sync()
}

func withContext(ctx context.Context, fields []Field) []Field {
	d := ctxdata.Get(ctx)
	if d.CorrelationID != "" {
		fields = append(fields, zap.String("correlation_id", d.CorrelationID))
	}
	if d.Path != "" {
		fields = append(fields, zap.String("http_method", d.Method), zap.String("http_path", d.Path))
	}
	return fields
}

func Debug(ctx context.Context, msg string, fields ...Field) {
	Logger().Debug(msg, withContext(ctx, fields)...)
}

func Info(ctx context.Context, msg string, fields ...Field) {
	Logger().Info(msg, withContext(ctx, fields)...)
}

func Warn(ctx context.Context, msg string, fields ...Field) {
	Logger().Warn(msg, withContext(ctx, fields)...)
}

func Error(ctx context.Context, msg string, fields ...Field) {
	Logger().Error(msg, withContext(ctx, fields)...)
}

func Panic(ctx context.Context, msg string, fields ...Field) {
	Logger().Panic(msg, withContext(ctx, fields)...)
}

func Debugf(ctx context.Context, format string, args ...any) {
	Logger().Debug(fmt.Sprintf(format, args...), withContext(ctx, nil)...)
}

func Infof(ctx context.Context, format string, args ...any) {
	Logger().Info(fmt.Sprintf(format, args...), withContext(ctx, nil)...)
}

func Warnf(ctx context.Context, format string, args ...any) {
	Logger().Warn(fmt.Sprintf(format, args...), withContext(ctx, nil)...)
}

func Errorf(ctx context.Context, format string, args ...any) {
	Logger().Error(fmt.Sprintf(format, args...), withContext(ctx, nil)...)
}

func Fatalf(ctx context.Context, format string, args ...any) {
	Logger().Fatal(fmt.Sprintf(format, args...), withContext(ctx, nil)...)
}
