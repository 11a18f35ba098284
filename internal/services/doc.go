// Package services defines the shared error taxonomy for job processing.
//
// Sentinel errors classify failures by origin: configuration problems are
// rejected before a job starts, acquisition and packaging failures are fatal
// to a job, and individual encode failures are recovered by the transcode
// stage. Wrap tags an error with one of the sentinels while preserving stage
// and operation context for log output.
package services
