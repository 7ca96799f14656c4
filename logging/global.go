// Package logging sets up slog for the converter: text on the console,
// JSON in a weekly rotating file, and package-level helpers used everywhere else.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/trialsites/config"
)

type LoggingService struct {
	Logger  *slog.Logger
	rotator *RotatingLogger
}

var DefaultLoggingService *LoggingService

// parseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level for env. LOG_LEVEL overrides the
// environment default except under test, where only verbose raises it to info.
func GetConsoleLogLevel(env config.Environment, logLevelStr string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevelStr != "" {
		return parseLogLevel(logLevelStr)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the level of the rotating file, which keeps everything
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// InitLogger initializes the global logger instance from the configuration.
// Console output goes to console; a rotating JSON file is added when cfg.LogDir is set.
func InitLogger(cfg *config.Config, console io.Writer, verbose bool) {
	DefaultLoggingService = NewLoggingService(cfg, console, verbose)
	slog.SetDefault(DefaultLoggingService.Logger)
}

// NewLoggingService builds a logging service without touching the global state
func NewLoggingService(cfg *config.Config, console io.Writer, verbose bool) *LoggingService {
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(cfg.Env, cfg.LogLevel, verbose),
	})

	if cfg.LogDir == "" {
		return &LoggingService{Logger: slog.New(consoleHandler)}
	}

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to create logs directory, logging to console only", "error", err, "log_dir", cfg.LogDir)
		return &LoggingService{Logger: logger}
	}

	rotator := NewRotatingLoggerWithSizeLimit(cfg.LogDir, cfg.LogRetentionWeeks, cfg.MaxLogFileSize)
	fileHandler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{
		Level: GetFileLogLevel(),
	})

	logger := slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}})

	if deleted, err := rotator.CleanupOldLogs(); err != nil {
		logger.Warn("Failed to cleanup old logs", "error", err)
	} else if deleted > 0 {
		logger.Debug("Cleaned up old log files", "count", deleted)
	}

	return &LoggingService{Logger: logger, rotator: rotator}
}

// Close releases the log file, if any
func (s *LoggingService) Close() error {
	if s == nil || s.rotator == nil {
		return nil
	}
	return s.rotator.Close()
}

// Close closes the global logging service
func Close() error {
	return DefaultLoggingService.Close()
}

// Package-level functions for direct access

func fallback(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func Info(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallback(slog.LevelInfo).Info(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallback(slog.LevelError).Error(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Error(msg, args...)
}

func Warn(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallback(slog.LevelWarn).Warn(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Warn(msg, args...)
}

// Debug is dropped silently when the logger is not initialized
func Debug(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return
	}
	DefaultLoggingService.Logger.Debug(msg, args...)
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
