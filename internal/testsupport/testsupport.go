// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"waveforge/internal/config"
	"waveforge/internal/jobs"
)

// NewConfig returns a validated configuration rooted in a per-test
// temporary directory.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Workflow.JobPollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate test config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return &cfg
}

// MustOpenStore opens a job store against the test configuration and
// registers cleanup.
func MustOpenStore(t *testing.T, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close job store: %v", err)
		}
	})
	return store
}

// MustCreateJob inserts a job and fails the test on error.
func MustCreateJob(t *testing.T, store *jobs.Store, locator string, profiles []string, outputDir string) *jobs.Job {
	t.Helper()

	job, err := store.Create(context.Background(), locator, profiles, outputDir)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}
