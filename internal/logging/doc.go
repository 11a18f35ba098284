// Package logging provides slog-based structured logging for waveforge.
//
// Two output formats are supported: a human-readable console format
// (timestamp, level, component prefix, then key=value fields) and JSON for
// machine consumption. Loggers are constructed from configuration and may
// write to stdout/stderr and log files simultaneously.
package logging
