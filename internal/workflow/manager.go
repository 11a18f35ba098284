// Package workflow drives queued jobs through acquisition, transcoding,
// reporting, and packaging.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"waveforge/internal/acquire"
	"waveforge/internal/archive"
	"waveforge/internal/config"
	"waveforge/internal/encode"
	"waveforge/internal/jobs"
	"waveforge/internal/logging"
	"waveforge/internal/profiles"
	"waveforge/internal/report"
	"waveforge/internal/services"
)

// Manager owns the single processing lane. Jobs are claimed oldest first and
// run one at a time; concurrency lives between jobs, not inside one.
type Manager struct {
	cfg      *config.Config
	store    *jobs.Store
	acquirer acquire.Acquirer
	encoder  encode.Encoder
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewManager wires the processing lane.
func NewManager(cfg *config.Config, store *jobs.Store, acquirer acquire.Acquirer, encoder encode.Encoder, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		store:    store,
		acquirer: acquirer,
		encoder:  encoder,
		logger:   logging.NewComponentLogger(logger, "workflow"),
	}
}

// Start launches the background polling loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return errors.New("workflow already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.started = true

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(runCtx)
	}()
	return nil
}

// Stop cancels the loop and waits for any in-flight job step to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()

	m.mu.Lock()
	m.started = false
	m.cancel = nil
	m.mu.Unlock()
}

func (m *Manager) run(ctx context.Context) {
	pollInterval := time.Duration(m.cfg.Workflow.JobPollInterval) * time.Second
	retryInterval := time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		job, err := m.store.NextPending(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Error("poll queue", logging.Error(err))
			if !sleepCtx(ctx, retryInterval) {
				return
			}
			continue
		}
		if job == nil {
			if !sleepCtx(ctx, pollInterval) {
				return
			}
			continue
		}

		m.ProcessJob(ctx, job)
	}
}

// ProcessJob runs one job through every stage. Stage failures finalize the
// job; a canceled context leaves it in place for the restart sweep.
func (m *Manager) ProcessJob(ctx context.Context, job *jobs.Job) {
	logger := m.logger.With(logging.String(logging.FieldJobID, job.ID))
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_started"),
		logging.String("locator", job.Locator))

	selected, err := profiles.Resolve(job.Profiles)
	if err != nil {
		m.failJob(ctx, logger, job.ID, fmt.Sprintf("Invalid profile selection: %v", err))
		return
	}

	title, err := m.resolveStage(ctx, job)
	if err != nil {
		m.finishWithError(ctx, logger, job.ID, "Failed to resolve source", err)
		return
	}

	rawPath, err := m.acquireStage(ctx, job.ID, job.Locator, title)
	if err != nil {
		m.finishWithError(ctx, logger, job.ID, "Download failed", err)
		return
	}

	items, err := m.transcodeStage(ctx, logger, job, selected, rawPath, title)

	// The raw intermediate never outlives the transcode loop.
	if removeErr := os.Remove(rawPath); removeErr != nil && !os.IsNotExist(removeErr) {
		logger.Warn("remove intermediate", logging.Error(removeErr))
	}

	if err != nil {
		m.finishWithError(ctx, logger, job.ID, "Conversion failed", err)
		return
	}
	if len(items) == 0 {
		m.finishWithError(ctx, logger, job.ID, "",
			services.Wrap(services.ErrAllEncodesFailed, "", "", "All conversions failed", nil))
		return
	}

	reportPath, err := m.reportStage(ctx, job, title, items)
	if err != nil {
		m.finishWithError(ctx, logger, job.ID, "Report generation failed", err)
		return
	}

	archivePath, err := m.packageStage(ctx, job, title, items, reportPath)
	if err != nil {
		m.finishWithError(ctx, logger, job.ID, "Packaging failed", err)
		return
	}

	if err := m.store.Succeed(ctx, job.ID, archivePath); err != nil {
		logger.Error("finalize job", logging.Error(err))
		return
	}
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_completed"),
		logging.String("archive", archivePath),
		logging.Int("derivatives", len(items)))
}

func (m *Manager) resolveStage(ctx context.Context, job *jobs.Job) (string, error) {
	if err := m.store.SetStatus(ctx, job.ID, jobs.StatusResolving); err != nil {
		return "", err
	}
	if err := m.store.SetPhase(ctx, job.ID, "Resolving source..."); err != nil {
		return "", err
	}

	title, err := m.acquirer.Resolve(ctx, job.Locator)
	if err != nil {
		return "", err
	}
	if err := m.store.SetTitle(ctx, job.ID, title); err != nil {
		return "", err
	}
	return title, nil
}

func (m *Manager) acquireStage(ctx context.Context, jobID, locator, title string) (string, error) {
	if err := m.store.SetStatus(ctx, jobID, jobs.StatusAcquiring); err != nil {
		return "", err
	}
	if err := m.store.SetPhase(ctx, jobID, "Downloading audio..."); err != nil {
		return "", err
	}

	rawPath, err := m.acquirer.Fetch(ctx, locator, m.cfg.Paths.WorkDir, title)
	if err != nil {
		return "", err
	}
	if err := m.store.Advance(ctx, jobID, 1, "Downloading audio...", "✓ Downloaded: "+title); err != nil {
		// The raw file is orphaned if the job cannot record the download.
		_ = os.Remove(rawPath)
		return "", err
	}
	return rawPath, nil
}

// transcodeStage encodes every selected profile. A single profile failure is
// logged and counted; only store errors or cancellation propagate.
func (m *Manager) transcodeStage(ctx context.Context, logger *slog.Logger, job *jobs.Job, selected []profiles.Profile, rawPath, title string) ([]report.Item, error) {
	if err := m.store.SetStatus(ctx, job.ID, jobs.StatusTranscoding); err != nil {
		return nil, err
	}

	var items []report.Item
	for _, profile := range selected {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		phase := fmt.Sprintf("Converting to %s...", profile.Name)
		if err := m.store.SetPhase(ctx, job.ID, phase); err != nil {
			return nil, err
		}

		destPath := filepath.Join(job.OutputDir, profile.OutputFileName(title))
		encodeErr := m.encoder.Encode(ctx, rawPath, destPath, profile)

		if encodeErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Only per-profile encode failures are recovered; a broken
			// encoder setup (binary missing, store trouble) fails the job.
			if services.IsFatal(encodeErr) {
				return nil, encodeErr
			}
			logger.Warn("encode failed",
				logging.String(logging.FieldProfile, profile.Name),
				logging.Error(encodeErr))
			message := fmt.Sprintf("✗ Failed to create %s: %s", profile.Name, services.Detail(encodeErr))
			if err := m.store.Advance(ctx, job.ID, 1, phase, message); err != nil {
				return nil, err
			}
			continue
		}

		info, statErr := os.Stat(destPath)
		if statErr != nil {
			return nil, statErr
		}
		items = append(items, report.Item{Profile: profile, Path: destPath, SizeBytes: info.Size()})

		sizeMB := float64(info.Size()) / (1024 * 1024)
		message := fmt.Sprintf("✓ Created: %s (%.1f MB)", filepath.Base(destPath), sizeMB)
		if err := m.store.Advance(ctx, job.ID, 1, phase, message); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (m *Manager) reportStage(ctx context.Context, job *jobs.Job, title string, items []report.Item) (string, error) {
	if err := m.store.SetStatus(ctx, job.ID, jobs.StatusReporting); err != nil {
		return "", err
	}
	if err := m.store.SetPhase(ctx, job.ID, "Generating quality report..."); err != nil {
		return "", err
	}
	return report.Write(job.OutputDir, title, items)
}

func (m *Manager) packageStage(ctx context.Context, job *jobs.Job, title string, items []report.Item, reportPath string) (string, error) {
	if err := m.store.SetStatus(ctx, job.ID, jobs.StatusPackaging); err != nil {
		return "", err
	}
	if err := m.store.SetPhase(ctx, job.ID, "Creating archive..."); err != nil {
		return "", err
	}

	files := make([]string, 0, len(items)+1)
	for _, item := range items {
		files = append(files, item.Path)
	}
	files = append(files, reportPath)
	return archive.Build(job.OutputDir, title, files)
}

// finishWithError finalizes a job unless the context was canceled, in which
// case the job stays in its processing status for the restart sweep.
func (m *Manager) finishWithError(ctx context.Context, logger *slog.Logger, jobID, prefix string, err error) {
	if ctx.Err() != nil {
		logger.Info("job interrupted by shutdown")
		return
	}
	message := services.Detail(err)
	if prefix != "" {
		message = prefix + ": " + message
	}
	m.failJob(ctx, logger, jobID, message)
}

func (m *Manager) failJob(ctx context.Context, logger *slog.Logger, jobID, message string) {
	logger.Error("job failed",
		logging.String(logging.FieldEventType, "job_failed"),
		logging.String("reason", message))
	if err := m.store.Fail(context.WithoutCancel(ctx), jobID, message); err != nil {
		logger.Error("record failure", logging.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
