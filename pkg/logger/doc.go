// Package logger provides a structured logging interface for the image crawler.
//
// It wraps zerolog behind the Logger interface so crawl components can log with
// fields without depending on zerolog directly. Console output is colored and goes
// to stderr; an optional log file receives JSON lines.
//
// Basic Usage:
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	if err := logger.Initialize(cfg); err != nil {
//	    return err
//	}
//
//	logger.WithField("url", pageURL).Info("Fetching page")
//	logger.WithError(err).Warn("Download failed")
//
// Components accept a Logger and fall back to the global one through OrGlobal.
// Tests use NewTestLogger to inspect captured messages or NewNopLogger to
// silence output.
package logger
