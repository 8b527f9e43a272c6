package schoolnet

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a logrus.Logger to the Logger interface.
type LogrusLogger struct {
	logger *logrus.Logger
}

// NewLogrusLogger creates a text logger writing to w at INFO level.
func NewLogrusLogger(w io.Writer) *LogrusLogger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.InfoLevel)

	return &LogrusLogger{logger: logger}
}

// NewJSONLogger creates a JSON logger writing to w at INFO level.
func NewJSONLogger(w io.Writer) *LogrusLogger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "@timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})
	logger.SetLevel(logrus.InfoLevel)

	return &LogrusLogger{logger: logger}
}

// WrapLogrus uses an existing logrus.Logger.
func WrapLogrus(logger *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{logger: logger}
}

// Logrus exposes the underlying logger.
func (l *LogrusLogger) Logrus() *logrus.Logger {
	return l.logger
}

func (l *LogrusLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Error(msg)
}

// SetLevel parses level ("debug", "info", "warn", ...) and applies it.
func (l *LogrusLogger) SetLevel(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("setting log level: %w", err)
	}

	l.logger.SetLevel(parsed)

	return nil
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}
