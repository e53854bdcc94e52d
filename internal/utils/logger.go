package utils

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel maps a config string onto a LogLevel, defaulting to INFO.
func ParseLevel(name string) LogLevel {
	for level, n := range levelNames {
		if n == name || zapLevel(level).String() == name {
			return level
		}
	}
	return INFO
}

func zapLevel(l LogLevel) zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger is a component-scoped structured logger
type Logger struct {
	component string
	z         *zap.Logger
}

// LoggerConfig configures a logger instance
type LoggerConfig struct {
	Level      LogLevel
	Component  string
	Output     io.Writer
	JSON       bool
	ShowCaller bool
	TimeFormat string
}

// NewLogger creates a new logger with the given configuration
func NewLogger(config LoggerConfig) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}
	if config.TimeFormat == "" {
		config.TimeFormat = "15:04:05.000"
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(config.TimeFormat)
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if !config.ShowCaller {
		encCfg.CallerKey = ""
	}

	var encoder zapcore.Encoder
	if config.JSON {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(config.Output), zapLevel(config.Level))
	opts := []zap.Option{}
	if config.ShowCaller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	z := zap.New(core, opts...)
	if config.Component != "" {
		z = z.Named(config.Component)
	}

	return &Logger{component: config.Component, z: z}
}

// DefaultLogger creates a logger with sensible defaults
func DefaultLogger(component string) *Logger {
	return NewLogger(LoggerConfig{
		Level:     INFO,
		Component: component,
	})
}

// NopLogger discards everything. Used by tests and by callers that pass no logger.
func NopLogger() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Component returns the name the logger was created with
func (l *Logger) Component() string {
	return l.component
}

// With returns a new logger with the given fields attached to every entry
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{component: l.component, z: l.z.With(fields...)}
}

// Named returns a child logger for a sub-component
func (l *Logger) Named(component string) *Logger {
	name := component
	if l.component != "" {
		name = l.component + "." + component
	}
	return &Logger{component: name, z: l.z.Named(component)}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }

func (l *Logger) Info(msg string, fields ...Field) { l.z.Info(msg, fields...) }

func (l *Logger) Warn(msg string, fields ...Field) { l.z.Warn(msg, fields...) }

func (l *Logger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// Field represents a key-value pair for structured logging
type Field = zap.Field

func String(key, value string) Field { return zap.String(key, value) }

func Int(key string, value int) Field { return zap.Int(key, value) }

func Int64(key string, value int64) Field { return zap.Int64(key, value) }

func Uint32(key string, value uint32) Field { return zap.Uint32(key, value) }

func Uint64(key string, value uint64) Field { return zap.Uint64(key, value) }

func Float64(key string, value float64) Field { return zap.Float64(key, value) }

func Bool(key string, value bool) Field { return zap.Bool(key, value) }

func Err(err error) Field { return zap.Error(err) }

func Duration(key string, value time.Duration) Field { return zap.Duration(key, value) }

func Any(key string, value interface{}) Field { return zap.Any(key, value) }
