// Package logging provides a simple leveled logging interface for the
// page preview renderer.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions (degraded assets, malformed filters)
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true. Subsystems obtain a tagged logger with
// Component:
//
//	var log = logging.Component("assets")
//	log.Warn("decode failed for %s: %v", ref, err)
package logging
