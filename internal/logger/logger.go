// Package logger provides structured logging using zap.
//
// All output goes to stderr (and optionally a file). Stdout belongs to the
// MCP protocol stream and to JSON emitted by the CLI, so nothing here may
// write there.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger with helpers for the fields this project logs.
type Logger struct {
	*zap.SugaredLogger
	config *Config
}

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum level to output (debug, info, warn, error).
	Level string

	// Format is "console" (human-readable) or "json".
	Format string

	// OutputPath is an additional log file; empty means stderr only.
	OutputPath string

	// EnableCaller adds caller information to entries.
	EnableCaller bool

	// Writer replaces stderr. Used by tests.
	Writer io.Writer
}

var (
	defaultLogger *Logger
	defaultMu     sync.Mutex
)

// New creates a logger from cfg. A nil cfg yields info-level console output.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = &Config{Level: "info", Format: "console"}
	}
	if cfg.Format == "" {
		cfg.Format = "console"
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "console":
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	var out io.Writer = os.Stderr
	if cfg.Writer != nil {
		out = cfg.Writer
	}
	syncs := []zapcore.WriteSyncer{zapcore.AddSync(out)}

	if cfg.OutputPath != "" {
		file, err := os.OpenFile(cfg.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.OutputPath, err)
		}
		syncs = append(syncs, zapcore.AddSync(file))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncs...), level)

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}

	return &Logger{
		SugaredLogger: zap.New(core, opts...).Sugar(),
		config:        cfg,
	}, nil
}

// Init replaces the global logger.
func Init(cfg *Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
	return nil
}

// Get returns the global logger, creating a default one on first use.
func Get() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		l, _ := New(nil)
		defaultLogger = l
	}
	return defaultLogger
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), config: &Config{}}
}

// WithFields returns a child logger with key/value pairs attached.
func (l *Logger) WithFields(fields ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.With(fields...),
		config:        l.config,
	}
}

// WithDocument attaches the source document path.
func (l *Logger) WithDocument(path string) *Logger {
	return l.WithFields("document", path)
}

// WithPage attaches a 1-based page number.
func (l *Logger) WithPage(page int) *Logger {
	return l.WithFields("page", page)
}

// WithOperation attaches an operation name.
func (l *Logger) WithOperation(operation string) *Logger {
	return l.WithFields("operation", operation)
}

// WithError attaches an error.
func (l *Logger) WithError(err error) *Logger {
	return l.WithFields("error", err)
}

func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", level)
	}
}

// Package-level helpers on the global logger.

// WithOperation returns the global logger with an operation field.
func WithOperation(operation string) *Logger {
	return Get().WithOperation(operation)
}

// Sync flushes the global logger.
func Sync() error {
	return Get().Sync()
}
