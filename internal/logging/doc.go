// Package logging assembles structured slog loggers and formatting helpers used
// across micrec.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes helpers so recorder code tags log lines with the
// session identifier and the standard event_type/error_hint/impact fields.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
