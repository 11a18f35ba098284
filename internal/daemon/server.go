package daemon

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"waveforge/internal/api"
	"waveforge/internal/archive"
	"waveforge/internal/jobs"
	"waveforge/internal/logging"
	"waveforge/internal/profiles"
	"waveforge/internal/services"
)

// apiServer carries the handler dependencies separately from the daemon
// lifecycle so tests can exercise routes directly.
type apiServer struct {
	store     *jobs.Store
	outputDir string
	running   func() bool
	logger    *slog.Logger
}

func (d *Daemon) newHandler() http.Handler {
	srv := &apiServer{
		store:     d.store,
		outputDir: d.cfg.Paths.OutputDir,
		running:   d.Running,
		logger:    d.logger,
	}
	return srv.routes()
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/profiles", s.handleProfiles)
	mux.HandleFunc("POST /api/jobs", s.handleSubmit)
	mux.HandleFunc("GET /api/jobs", s.handleList)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleJob)
	mux.HandleFunc("GET /api/jobs/{id}/archive", s.handleArchive)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	return mux
}

func (s *apiServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}

func (s *apiServer) handleProfiles(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.ProfileCatalog())
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := validateSubmitRequest(&req); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrConfiguration) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, services.Detail(err))
		return
	}

	job, err := s.store.Create(r.Context(), req.URL, req.Profiles, s.outputDir)
	if err != nil {
		s.logger.Error("create job", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "unable to queue job")
		return
	}

	s.logger.Info("job queued",
		logging.String(logging.FieldJobID, job.ID),
		logging.Int("profiles", len(job.Profiles)))
	s.writeJSON(w, http.StatusCreated, api.SubmitResponse{JobID: job.ID})
}

// validateSubmitRequest rejects a submission before any job row exists.
// Rejections carry the configuration marker so the handler can answer 400.
func validateSubmitRequest(req *api.SubmitRequest) error {
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return services.Wrap(services.ErrConfiguration, "", "", "url is required", nil)
	}
	if len(req.Profiles) == 0 {
		return services.Wrap(services.ErrConfiguration, "", "", "at least one profile is required", nil)
	}
	if _, err := profiles.Resolve(req.Profiles); err != nil {
		return services.Wrap(services.ErrConfiguration, "", "", err.Error(), nil)
	}
	return nil
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	var statuses []jobs.Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		for _, value := range strings.Split(raw, ",") {
			status, ok := jobs.ParseStatus(strings.TrimSpace(value))
			if !ok {
				s.writeError(w, http.StatusBadRequest, "unknown status "+value)
				return
			}
			statuses = append(statuses, status)
		}
	}

	list, err := s.store.List(r.Context(), statuses...)
	if err != nil {
		s.logger.Error("list jobs", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "unable to list jobs")
		return
	}

	snapshots := make([]api.JobSnapshot, len(list))
	for i, job := range list {
		snapshots[i] = api.SnapshotFromJob(job)
	}
	s.writeJSON(w, http.StatusOK, snapshots)
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, api.SnapshotFromJob(job))
}

func (s *apiServer) handleArchive(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	if job.Status != jobs.StatusCompleted || job.ArchivePath == "" {
		s.writeError(w, http.StatusConflict, "archive not ready")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+archiveDownloadName(job)+`"`)
	http.ServeFile(w, r, job.ArchivePath)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	health, err := s.store.Health(r.Context())
	if err != nil {
		s.logger.Error("store health", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "unable to read job store")
		return
	}
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Running:    s.running(),
		Total:      health.Total,
		Pending:    health.Pending,
		Processing: health.Processing,
		Completed:  health.Completed,
		Failed:     health.Failed,
		StorePath:  s.store.Path(),
	})
}

func (s *apiServer) lookupJob(w http.ResponseWriter, r *http.Request) (*jobs.Job, bool) {
	id := r.PathValue("id")
	job, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.logger.Error("load job", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "unable to load job")
		return nil, false
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "unknown job "+id)
		return nil, false
	}
	return job, true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func archiveDownloadName(job *jobs.Job) string {
	name := job.Title
	if name == "" {
		name = job.ID
	}
	return archive.FileName(name)
}
