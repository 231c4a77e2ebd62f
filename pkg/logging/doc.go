// Package logging provides structured logging configuration for oasgate.
//
// This package wraps log/slog so every component logs through the same
// configuration. It supports configurable log levels and output formats.
//
// # Usage
//
// Create a logger with desired configuration:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Warn("request validation failed", "path", r.URL.Path)
//
// Components accept a *slog.Logger in their constructor. If no logger is
// provided, logging.Nop() is used.
package logging
