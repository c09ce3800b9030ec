package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// OrGlobal returns l, or the global logger when l is nil
func OrGlobal(l Logger) Logger {
	if l == nil {
		return GetLogger()
	}
	return l
}

// LogRequest logs HTTP request information against l
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		OrGlobal(l).DebugWithFields("HTTP request completed", fields)
	case statusCode >= 500:
		OrGlobal(l).ErrorWithFields("HTTP request server error", fields)
	default:
		OrGlobal(l).WarnWithFields("HTTP request client error", fields)
	}
}

// LogDownload logs the outcome of a single image download
func LogDownload(l Logger, url, file string, size int64, err error) {
	log := OrGlobal(l).WithFields(map[string]interface{}{
		"url":  url,
		"file": file,
	})

	if err != nil {
		log.WithError(err).Warn("Download failed")
		return
	}
	log.WithField("size", size).Info("Image saved")
}

// LogPage logs the result of visiting one page
func LogPage(l Logger, index, total int, url string, added int) {
	OrGlobal(l).InfoWithFields("Page processed", map[string]interface{}{
		"page":  index,
		"total": total,
		"url":   url,
		"added": added,
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	log := OrGlobal(l).WithField("component", component)
	if len(config) > 0 {
		log = log.WithFields(config)
	}
	log.Debug("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	OrGlobal(l).WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Debug("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
