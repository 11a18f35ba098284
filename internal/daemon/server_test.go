package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"waveforge/internal/api"
	"waveforge/internal/config"
	"waveforge/internal/jobs"
	"waveforge/internal/logging"
	"waveforge/internal/testsupport"
)

func newTestServer(t *testing.T) (*httptest.Server, *jobs.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	srv := &apiServer{
		store:     store,
		outputDir: cfg.Paths.OutputDir,
		running:   func() bool { return true },
		logger:    logging.NewNop(),
	}
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts, store, cfg
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	res, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	defer res.Body.Close()
	var out T
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestSubmitQueuesJob(t *testing.T) {
	ts, store, cfg := newTestServer(t)

	res := postJSON(t, ts.URL+"/api/jobs", api.SubmitRequest{
		URL:      "https://example.com/watch?v=abc",
		Profiles: []string{"MP3 320kbps", "FLAC (Lossless)"},
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	submitted := decode[api.SubmitResponse](t, res)
	if submitted.JobID == "" {
		t.Fatal("expected a job id")
	}

	job, err := store.Get(context.Background(), submitted.JobID)
	if err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job == nil || job.Status != jobs.StatusPending {
		t.Fatalf("expected pending job, got %+v", job)
	}
	if job.OutputDir != cfg.Paths.OutputDir {
		t.Fatalf("expected configured output dir, got %q", job.OutputDir)
	}
	if job.TotalSteps != 3 {
		t.Fatalf("expected 3 steps, got %d", job.TotalSteps)
	}
}

func TestSubmitValidation(t *testing.T) {
	ts, _, _ := newTestServer(t)

	cases := []struct {
		name    string
		payload api.SubmitRequest
	}{
		{"empty url", api.SubmitRequest{Profiles: []string{"MP3 320kbps"}}},
		{"no profiles", api.SubmitRequest{URL: "https://example.com/a"}},
		{"unknown profile", api.SubmitRequest{URL: "https://example.com/a", Profiles: []string{"Betamax 900kbps"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := postJSON(t, ts.URL+"/api/jobs", tc.payload)
			defer res.Body.Close()
			if res.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", res.StatusCode)
			}
		})
	}

	res, err := http.Post(ts.URL+"/api/jobs", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post malformed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", res.StatusCode)
	}
}

func TestJobSnapshotEndpoint(t *testing.T) {
	ts, store, cfg := newTestServer(t)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, store, "https://example.com/watch?v=abc", []string{"MP3 320kbps"}, cfg.Paths.OutputDir)
	if err := store.Advance(ctx, job.ID, 1, "Downloading audio...", "✓ Downloaded: My Song"); err != nil {
		t.Fatalf("advance: %v", err)
	}

	res, err := http.Get(ts.URL + "/api/jobs/" + job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	snapshot := decode[api.JobSnapshot](t, res)
	if snapshot.ID != job.ID || snapshot.CompletedSteps != 1 || snapshot.TotalSteps != 2 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if snapshot.Percent != 50 {
		t.Fatalf("expected 50 percent, got %f", snapshot.Percent)
	}
	if len(snapshot.Log) != 1 || snapshot.Log[0].Message != "✓ Downloaded: My Song" {
		t.Fatalf("unexpected log %+v", snapshot.Log)
	}

	missing, err := http.Get(ts.URL + "/api/jobs/no-such-job")
	if err != nil {
		t.Fatalf("get missing job: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}

func TestArchiveDownload(t *testing.T) {
	ts, store, cfg := newTestServer(t)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, store, "https://example.com/watch?v=abc", []string{"MP3 320kbps"}, cfg.Paths.OutputDir)

	pending, err := http.Get(ts.URL + "/api/jobs/" + job.ID + "/archive")
	if err != nil {
		t.Fatalf("get archive: %v", err)
	}
	pending.Body.Close()
	if pending.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 before completion, got %d", pending.StatusCode)
	}

	archivePath := filepath.Join(cfg.Paths.OutputDir, "My Song_audio_collection.zip")
	if err := os.WriteFile(archivePath, []byte("zip bytes"), 0o644); err != nil {
		t.Fatalf("seed archive: %v", err)
	}
	if err := store.SetTitle(ctx, job.ID, "My Song"); err != nil {
		t.Fatalf("set title: %v", err)
	}
	if err := store.Succeed(ctx, job.ID, archivePath); err != nil {
		t.Fatalf("succeed: %v", err)
	}

	res, err := http.Get(ts.URL + "/api/jobs/" + job.ID + "/archive")
	if err != nil {
		t.Fatalf("get archive: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if cd := res.Header.Get("Content-Disposition"); !strings.Contains(cd, "My Song_audio_collection.zip") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
}

func TestProfilesEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	res, err := http.Get(ts.URL + "/api/profiles")
	if err != nil {
		t.Fatalf("get profiles: %v", err)
	}
	catalog := decode[[]api.ProfileInfo](t, res)
	if len(catalog) != 12 {
		t.Fatalf("expected 12 profiles, got %d", len(catalog))
	}
	if catalog[0].Name != "FLAC (Lossless)" || !catalog[0].Lossless {
		t.Fatalf("unexpected first profile %+v", catalog[0])
	}
	for _, p := range catalog {
		if p.TierLabel == "" {
			t.Fatalf("profile %q has no tier label", p.Name)
		}
	}
}

func TestStatusEndpoint(t *testing.T) {
	ts, store, cfg := newTestServer(t)

	testsupport.MustCreateJob(t, store, "https://example.com/a", []string{"MP3 320kbps"}, cfg.Paths.OutputDir)

	res, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	status := decode[api.StatusResponse](t, res)
	if !status.Running || status.Total != 1 || status.Pending != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestListEndpointFiltersByStatus(t *testing.T) {
	ts, store, cfg := newTestServer(t)
	ctx := context.Background()

	testsupport.MustCreateJob(t, store, "https://example.com/a", []string{"MP3 320kbps"}, cfg.Paths.OutputDir)
	failed := testsupport.MustCreateJob(t, store, "https://example.com/b", []string{"MP3 320kbps"}, cfg.Paths.OutputDir)
	if err := store.Fail(ctx, failed.ID, "boom"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	res, err := http.Get(ts.URL + "/api/jobs?status=failed")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	list := decode[[]api.JobSnapshot](t, res)
	if len(list) != 1 || list[0].ID != failed.ID {
		t.Fatalf("unexpected filtered list %+v", list)
	}

	bad, err := http.Get(ts.URL + "/api/jobs?status=melting")
	if err != nil {
		t.Fatalf("list bad status: %v", err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", bad.StatusCode)
	}
}

func TestIndexServesForm(t *testing.T) {
	ts, _, _ := newTestServer(t)

	res, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get index: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
}
