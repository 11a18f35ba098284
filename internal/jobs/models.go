package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a conversion job.
type Status string

const (
	StatusPending     Status = "pending"
	StatusResolving   Status = "resolving"
	StatusAcquiring   Status = "acquiring"
	StatusTranscoding Status = "transcoding"
	StatusReporting   Status = "reporting"
	StatusPackaging   Status = "packaging"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// RestartFailureReason is the error message set on jobs found mid-processing
// after a daemon restart.
const RestartFailureReason = "daemon restarted during processing"

var allStatuses = []Status{
	StatusPending,
	StatusResolving,
	StatusAcquiring,
	StatusTranscoding,
	StatusReporting,
	StatusPackaging,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusResolving:   {},
	StatusAcquiring:   {},
	StatusTranscoding: {},
	StatusReporting:   {},
	StatusPackaging:   {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing reports whether a status reflects an in-flight stage.
func IsProcessing(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status is final.
func IsTerminal(status Status) bool {
	return status == StatusCompleted || status == StatusFailed
}

// LogEntry is one timestamped line of a job's append-only log.
type LogEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Job represents one conversion request persisted in SQLite.
type Job struct {
	ID             string
	Locator        string
	Profiles       []string
	OutputDir      string
	Title          string
	TotalSteps     int
	CompletedSteps int
	Phase          string
	Log            []LogEntry
	Status         Status
	ErrorMessage   string
	ArchivePath    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Completed reports whether the job reached a terminal status.
func (j *Job) Completed() bool {
	return IsTerminal(j.Status)
}

// Failed reports whether the job terminated with an error.
func (j *Job) Failed() bool {
	return j.Status == StatusFailed
}

// HealthSummary aggregates job counts per lifecycle bucket.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
