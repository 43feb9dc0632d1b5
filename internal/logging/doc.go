// Package logging provides slog-based structured logging with console and
// JSON handlers, standardized field keys, and context-derived correlation
// attributes shared across vigil's controllers.
package logging
