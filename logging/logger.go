package logging

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	activeConfig Config
)

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()
	logger.SetOutput(GetGlobalOutput())
	apply(logger, activeConfig)

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// Configure applies cfg to every existing and future component logger.
// Environment variables still take precedence over cfg.Level.
func Configure(cfg Config) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	activeConfig = cfg
	for _, entry := range loggers {
		apply(entry.Logger, cfg)
	}
}

// SetLevel changes the level of every component logger.
func SetLevel(level logrus.Level) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	activeConfig.Level = level.String()
	for _, entry := range loggers {
		entry.Logger.SetLevel(level)
	}
}

func apply(logger *logrus.Logger, cfg Config) {
	logger.SetLevel(resolveLevel(cfg))

	if os.Getenv("TEAMBOARD_LOG_CALLER") == "true" || cfg.ReportCaller {
		logger.SetReportCaller(true)
	}

	switch cfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{Config: cfg.Format, Color: stderrIsTerminal()})
	}
}

// resolveLevel picks the level from TEAMBOARD_LOG_LEVEL, LOG_LEVEL, then cfg.
func resolveLevel(cfg Config) logrus.Level {
	levelStr := "info"
	switch {
	case os.Getenv("TEAMBOARD_LOG_LEVEL") != "":
		levelStr = os.Getenv("TEAMBOARD_LOG_LEVEL")
	case os.Getenv("LOG_LEVEL") != "":
		levelStr = os.Getenv("LOG_LEVEL")
	case cfg.Level != "":
		levelStr = cfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
