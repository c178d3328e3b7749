// Package logging assembles the structured slog loggers used by the catalog
// services and CLI.
//
// It owns the console/JSON handler choice and level parsing, and exposes a
// no-op logger for tests and wiring code that cannot fail.
package logging
