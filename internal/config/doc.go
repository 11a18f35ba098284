// Package config loads, validates, and normalizes waveforge configuration.
//
// Configuration is TOML with four sections: [paths] for directories and the
// API bind address, [tools] for external binaries and their timeouts,
// [workflow] for daemon polling intervals, and [logging] for log output.
// Missing files fall back to defaults so the CLI works out of the box.
package config
