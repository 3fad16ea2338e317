package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Constants for log levels that match slog.Level values.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Type aliases for commonly used slog types.
type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

//nolint:gochecknoglobals
var logLevelStrToLevel = map[string]Level{
	"debug": LevelDebug,
	"info":  LevelInfo,
	"warn":  LevelWarn,
	"error": LevelError,
}

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// AppName is the application identifier added to all log entries
	AppName string

	// Output specifies where logs are written ("stdout", "stderr", "discard" or a file path)
	Output string `env:"OUTPUT" envDefault:"stderr"`

	// Level sets the minimum log level ("debug", "info", "warn", "error")
	Level string `env:"LEVEL" envDefault:"info"`

	// Filter specifies per-logger overrides ("name:level,name:level")
	Filter string `env:"FILTER" envDefault:""`

	// JSON enables JSON-formatted output instead of human-readable console output
	JSON bool `env:"JSON" envDefault:"false"`

	// OutputHandle overrides Output when set
	OutputHandle io.Writer
}

//nolint:gochecknoglobals
var (
	Group = slog.Group

	config     LoggerConfig
	colored    bool
	configLock sync.Mutex
)

// Configure sets up global logging configuration for the process.
// Loggers obtained before Configure keep writing to their original output.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) {
	configure(cfg, appName)

	GetLogger("infra.logging").With(Group("config",
		"appName", appName,
		"output", cfg.Output,
		"level", cfg.Level,
		"filter", cfg.Filter,
		"json", cfg.JSON,
	)).DebugContext(ctx, "logging configured")
}

func configure(cfg LoggerConfig, appName string) {
	configLock.Lock()
	defer configLock.Unlock()

	config = cfg
	config.AppName = appName

	if cfg.OutputHandle == nil {
		switch cfg.Output {
		case "", "discard":
			config.OutputHandle = io.Discard
		case "stdout":
			config.OutputHandle = os.Stdout
		case "stderr":
			config.OutputHandle = os.Stderr
		default:
			file, err := os.OpenFile(config.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				panic(fmt.Errorf("open log file: %w", err))
			}

			config.OutputHandle = file
		}
	}

	colored = isTerminal(config.OutputHandle)

	slog.SetLogLoggerLevel(parseLogLevel(config.Level, LevelInfo))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// GetLogLogger creates a standard library *log.Logger that writes through a slog.Logger.
// Used for http.Server.ErrorLog.
func GetLogLogger(logger Logger, level Level) *log.Logger {
	return slog.NewLogLogger(logger.With("stdlog", true).Handler(), level)
}

// GetLogger creates a new logger with the given name using the global configuration.
// The name is included in log entries to identify the source component.
func GetLogger(name string) Logger {
	configLock.Lock()
	cfg, useColor := config, colored
	configLock.Unlock()

	output := cfg.OutputHandle
	if output == nil || output == io.Discard {
		return NewNopLogger()
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLogLevel(cfg.Level, LevelInfo))

	var handler slog.Handler

	if cfg.JSON {
		//nolint:exhaustruct
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{
			AddSource: true,
			Level:     levelVar,
		})
	} else {
		//nolint:exhaustruct
		handler = &ConsoleHandler{
			Output:     output,
			Level:      levelVar,
			NameLevels: cfg.nameLevels(),
			Color:      useColor,
		}
	}

	logger := slog.New(NewTracingHandler(handler))

	if cfg.AppName != "" {
		logger = logger.With("app", cfg.AppName)
	}

	return logger.With(loggerNameKey, name)
}

func (cfg LoggerConfig) nameLevels() map[string]slog.Level {
	levels := make(map[string]slog.Level)

	for _, entry := range strings.Split(cfg.Filter, ",") {
		name, level, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			continue
		}

		levels[name] = parseLogLevel(level, LevelDebug)
	}

	return levels
}

func parseLogLevel(levelStr string, fallback Level) Level {
	level, ok := logLevelStrToLevel[strings.ToLower(strings.TrimSpace(levelStr))]
	if !ok {
		return fallback
	}

	return level
}
