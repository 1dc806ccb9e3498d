package debuglog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // Disables all logging
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF":
		return LevelOff
	default:
		return LevelInfo
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Options controls where log output goes and how the file is rotated.
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
}

var (
	mu           sync.RWMutex
	currentLevel = LevelOff
	logger       = zap.NewNop()
	writer       *lumberjack.Logger
	atomicLevel  = zap.NewAtomicLevel()
)

// Setup configures the logging system with the specified level and optional file path.
// If filePath is empty, defaults to ~/.reel/reel.log.
func Setup(level LogLevel, filePath ...string) error {
	var opts Options
	if len(filePath) > 0 {
		opts.File = filePath[0]
	}
	return SetupWithOptions(level, opts)
}

// SetupWithOptions is Setup with explicit rotation settings.
func SetupWithOptions(level LogLevel, opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	currentLevel = level

	if level == LevelOff {
		return nil
	}

	logPath := opts.File
	if logPath == "" {
		home, _ := os.UserHomeDir()
		logPath = filepath.Join(home, ".reel", "reel.log")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	// Open once up front so a bad path fails here rather than on first write.
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	_ = f.Close()

	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	writer = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
		LocalTime:  true,
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	atomicLevel.SetLevel(level.zapLevel())
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(writer),
		atomicLevel,
	)
	logger = zap.New(core).Named("reel")
	return nil
}

// SetLevel changes the current logging level
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
	if level != LevelOff {
		atomicLevel.SetLevel(level.zapLevel())
	}
}

// GetLevel returns the current logging level
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// L returns the underlying zap logger. It is a no-op logger while logging is off.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if currentLevel == LevelOff {
		return zap.NewNop()
	}
	return logger
}

// Close flushes and closes the log file if open
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeLocked()
}

func closeLocked() error {
	_ = logger.Sync()
	logger = zap.NewNop()
	if writer == nil {
		return nil
	}
	err := writer.Close()
	writer = nil
	return err
}

func Debugf(format string, args ...any) {
	L().Sugar().Debugf(format, args...)
}

func Infof(format string, args ...any) {
	L().Sugar().Infof(format, args...)
}

func Warnf(format string, args ...any) {
	L().Sugar().Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	L().Sugar().Errorf(format, args...)
}

// FieldLogger attaches key-value context to every message.
type FieldLogger struct {
	fields map[string]any
}

// WithFields returns a new logger with the specified fields
func WithFields(fields map[string]any) *FieldLogger {
	return &FieldLogger{fields: fields}
}

func (fl *FieldLogger) sugar() *zap.SugaredLogger {
	s := L().Sugar()
	for key, value := range fl.fields {
		s = s.With(key, value)
	}
	return s
}

func (fl *FieldLogger) Debugf(format string, args ...any) {
	fl.sugar().Debugf(format, args...)
}

func (fl *FieldLogger) Infof(format string, args ...any) {
	fl.sugar().Infof(format, args...)
}

func (fl *FieldLogger) Warnf(format string, args ...any) {
	fl.sugar().Warnf(format, args...)
}

func (fl *FieldLogger) Errorf(format string, args ...any) {
	fl.sugar().Errorf(format, args...)
}
