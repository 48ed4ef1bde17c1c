// Package logging wraps logrus with the defaults the orchestrator's
// components expect: leveled, structured, named child loggers.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with a fixed component name attached to every entry.
type Logger struct {
	*logrus.Logger
	component string
}

// Config controls logger construction.
type Config struct {
	Level  string `json:"level" env:"LOG_LEVEL" yaml:"level"`
	Format string `json:"format" env:"LOG_FORMAT" yaml:"format"`
	Output string `json:"output" env:"LOG_OUTPUT" yaml:"output"`
}

// New builds a logger from configuration.
func New(cfg Config, component string) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch strings.ToLower(cfg.Output) {
	case "stderr":
		l.SetOutput(os.Stderr)
	default:
		l.SetOutput(os.Stdout)
	}

	return &Logger{Logger: l, component: component}
}

// NewDefault builds an info-level, text-on-stdout logger for a named component.
func NewDefault(component string) *Logger {
	return New(Config{Level: "info", Format: "text", Output: "stdout"}, component)
}

// WithField returns an entry tagged with the logger's component plus the given field.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField("component", l.component).WithField(key, value)
}

// WithFields returns an entry tagged with the logger's component plus the given fields.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithField("component", l.component).WithFields(fields)
}

// WithError returns an entry tagged with the logger's component plus an error field.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithField("component", l.component).WithError(err)
}
