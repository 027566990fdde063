// Package logging provides structured logging for the segclock daemon.
//
// This package wraps a process-wide zap logger with convenience functions for
// the events the appliance cares about: accepted connections, parsed requests,
// written replies and display updates.
//
// # Log Levels
//
//   - Debug: raw request/response bytes, scheduler wake-ups
//   - Info: connections, requests, replies, display paints
//   - Warn: dropped connections, rejected requests, dropped display commands
//   - Error: listen failures, settings write failures
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// With an empty level the SEGCLOCK_LOG_LEVEL environment variable is
// consulted; if that is empty too, logging is silent.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
