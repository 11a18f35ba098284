// Package api defines the JSON types exchanged over the daemon's HTTP
// surface.
package api

import (
	"time"

	"waveforge/internal/jobs"
	"waveforge/internal/profiles"
)

// SubmitRequest asks for one source to be converted into the named profiles.
type SubmitRequest struct {
	URL      string   `json:"url"`
	Profiles []string `json:"profiles"`
}

// SubmitResponse carries the identifier to poll for progress.
type SubmitResponse struct {
	JobID string `json:"job_id"`
}

// LogLine is one timestamped progress message.
type LogLine struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// JobSnapshot is the polled view of one job.
type JobSnapshot struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	Title          string    `json:"title,omitempty"`
	Status         string    `json:"status"`
	Phase          string    `json:"phase,omitempty"`
	Profiles       []string  `json:"profiles"`
	TotalSteps     int       `json:"total_steps"`
	CompletedSteps int       `json:"completed_steps"`
	Percent        float64   `json:"percent"`
	Log            []LogLine `json:"log"`
	Error          string    `json:"error,omitempty"`
	ArchiveReady   bool      `json:"archive_ready"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProfileInfo describes one catalog entry for selection UIs.
type ProfileInfo struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Tier      string `json:"tier"`
	TierLabel string `json:"tier_label"`
	Bitrate   string `json:"bitrate,omitempty"`
	Lossless  bool   `json:"lossless"`
}

// StatusResponse summarizes daemon health.
type StatusResponse struct {
	Running    bool   `json:"running"`
	Total      int    `json:"total"`
	Pending    int    `json:"pending"`
	Processing int    `json:"processing"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`
	StorePath  string `json:"store_path,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SnapshotFromJob converts a stored job into its polled representation.
func SnapshotFromJob(job *jobs.Job) JobSnapshot {
	snapshot := JobSnapshot{
		ID:             job.ID,
		URL:            job.Locator,
		Title:          job.Title,
		Status:         string(job.Status),
		Phase:          job.Phase,
		Profiles:       append([]string(nil), job.Profiles...),
		TotalSteps:     job.TotalSteps,
		CompletedSteps: job.CompletedSteps,
		Error:          job.ErrorMessage,
		ArchiveReady:   job.Status == jobs.StatusCompleted && job.ArchivePath != "",
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
	if job.TotalSteps > 0 {
		snapshot.Percent = float64(job.CompletedSteps) / float64(job.TotalSteps) * 100
	}
	snapshot.Log = make([]LogLine, len(job.Log))
	for i, entry := range job.Log {
		snapshot.Log[i] = LogLine{At: entry.At, Message: entry.Message}
	}
	return snapshot
}

// ProfileCatalog converts the static catalog for transport.
func ProfileCatalog() []ProfileInfo {
	all := profiles.All()
	out := make([]ProfileInfo, len(all))
	for i, p := range all {
		out[i] = ProfileInfo{
			Name:      p.Name,
			Extension: p.Extension,
			Tier:      string(p.Tier),
			TierLabel: p.Tier.Label(),
			Bitrate:   p.Bitrate,
			Lossless:  p.Lossless(),
		}
	}
	return out
}
