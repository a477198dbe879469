// Package logging builds the structured loggers used across wsecho.
//
// It wraps log/slog so every component gets the same level and format
// handling:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("websocket server started", "addr", "localhost:8080")
//
// Levels are debug, info, warn and error. Formats are text (development) and
// json (log aggregation). A log file can be attached with Config.File; records
// are then written to both the console and the file, the file always as JSON.
//
// Components accept a *slog.Logger in their constructor or via a setter and
// fall back to Nop() when none is given.
package logging
