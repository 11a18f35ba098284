package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"waveforge/internal/api"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestProfilesCommandListsCatalog(t *testing.T) {
	out, err := executeCommand(t, "profiles")
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}
	for _, name := range []string{"FLAC (Lossless)", "MP3 320kbps", "M4A 128kbps"} {
		if !strings.Contains(out, name) {
			t.Errorf("expected %q in output:\n%s", name, out)
		}
	}
	if !strings.Contains(out, "Lossless") || !strings.Contains(out, "Medium Quality") {
		t.Errorf("expected tier labels in output:\n%s", out)
	}
}

func TestSelectedProfiles(t *testing.T) {
	if _, err := selectedProfiles(nil, false); err == nil {
		t.Fatal("expected error for empty selection")
	}
	if _, err := selectedProfiles([]string{"Vinyl 78rpm"}, false); err == nil {
		t.Fatal("expected error for unknown profile")
	}

	named, err := selectedProfiles([]string{"MP3 320kbps"}, false)
	if err != nil || len(named) != 1 {
		t.Fatalf("unexpected selection %v, %v", named, err)
	}

	all, err := selectedProfiles(nil, true)
	if err != nil {
		t.Fatalf("select all: %v", err)
	}
	if len(all) != 12 {
		t.Fatalf("expected 12 profiles, got %d", len(all))
	}
}

func TestSubmitCommandQueuesJob(t *testing.T) {
	var received api.SubmitRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode submit body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.SubmitResponse{JobID: "job-123"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	addr := strings.TrimPrefix(server.URL, "http://")
	out, err := executeCommand(t, "submit", "https://example.com/watch?v=abc", "-p", "MP3 320kbps", "--api", addr)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.Contains(out, "job-123") {
		t.Fatalf("expected job id in output:\n%s", out)
	}
	if received.URL != "https://example.com/watch?v=abc" || len(received.Profiles) != 1 {
		t.Fatalf("unexpected request %+v", received)
	}
}

func TestStatusCommandRendersJob(t *testing.T) {
	snapshot := api.JobSnapshot{
		ID:             "job-456",
		URL:            "https://example.com/watch?v=abc",
		Title:          "My Song",
		Status:         "transcoding",
		Phase:          "Converting to MP3 320kbps...",
		Profiles:       []string{"MP3 320kbps"},
		TotalSteps:     2,
		CompletedSteps: 1,
		Percent:        50,
		Log:            []api.LogLine{{At: time.Now(), Message: "✓ Downloaded: My Song"}},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snapshot)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	addr := strings.TrimPrefix(server.URL, "http://")
	out, err := executeCommand(t, "status", "job-456", "--api", addr)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"job-456", "My Song", "1/2 (50%)", "Converting to MP3 320kbps...", "✓ Downloaded: My Song"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestStatusCommandRendersOverview(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.StatusResponse{Running: true, Total: 1, Pending: 1})
	})
	mux.HandleFunc("GET /api/jobs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]api.JobSnapshot{{
			ID: "abcdef1234", URL: "https://example.com/a", Status: "pending", TotalSteps: 2,
		}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	addr := strings.TrimPrefix(server.URL, "http://")
	out, err := executeCommand(t, "status", "--api", addr)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Daemon running: true") {
		t.Fatalf("expected daemon health line:\n%s", out)
	}
	if !strings.Contains(out, "abcdef12") {
		t.Fatalf("expected shortened job id:\n%s", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := executeCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected target path in output:\n%s", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config written: %v", err)
	}

	if _, err := executeCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}

	show, err := executeCommand(t, "config", "show", "--config", target)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(show, "loaded from") || !strings.Contains(show, "[paths]") {
		t.Fatalf("unexpected show output:\n%s", show)
	}
}

func TestFetchCommandRejectsUnfinishedJob(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.JobSnapshot{ID: "job-789", Status: "transcoding"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	addr := strings.TrimPrefix(server.URL, "http://")
	_, err := executeCommand(t, "fetch", "job-789", "--api", addr)
	if err == nil || !strings.Contains(err.Error(), "no archive yet") {
		t.Fatalf("expected archive-not-ready error, got %v", err)
	}
}
