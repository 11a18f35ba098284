// Package jobs persists conversion jobs and their live progress.
//
// Each job is one end-to-end request to turn a single source locator into a
// set of encoded audio files. Jobs are keyed by UUID, stored in SQLite so
// concurrent HTTP readers never block the processing worker, and updated in
// single transactions so a poller always observes the step counter together
// with the phase text that produced it. The log column is append-only; a
// job's row becomes immutable once it reaches a terminal status.
package jobs
