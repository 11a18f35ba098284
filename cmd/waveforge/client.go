package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"waveforge/internal/api"
)

// apiClient is a thin JSON client for the daemon HTTP surface.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) submit(url string, profileNames []string) (string, error) {
	payload, err := json.Marshal(api.SubmitRequest{URL: url, Profiles: profileNames})
	if err != nil {
		return "", err
	}
	res, err := c.http.Post(c.base+"/api/jobs", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("reach daemon: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		return "", decodeError(res)
	}
	var out api.SubmitResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.JobID, nil
}

func (c *apiClient) job(id string) (api.JobSnapshot, error) {
	var out api.JobSnapshot
	err := c.getJSON("/api/jobs/"+id, &out)
	return out, err
}

func (c *apiClient) list(status string) ([]api.JobSnapshot, error) {
	path := "/api/jobs"
	if status != "" {
		path += "?status=" + status
	}
	var out []api.JobSnapshot
	err := c.getJSON(path, &out)
	return out, err
}

func (c *apiClient) status() (api.StatusResponse, error) {
	var out api.StatusResponse
	err := c.getJSON("/api/status", &out)
	return out, err
}

// openArchive streams a completed job's archive. The caller closes the body.
func (c *apiClient) openArchive(id string) (io.ReadCloser, int64, error) {
	res, err := c.http.Get(c.base + "/api/jobs/" + id + "/archive")
	if err != nil {
		return nil, 0, fmt.Errorf("reach daemon: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		defer res.Body.Close()
		return nil, 0, decodeError(res)
	}
	return res.Body, res.ContentLength, nil
}

func (c *apiClient) getJSON(path string, out any) error {
	res, err := c.http.Get(c.base + path)
	if err != nil {
		return fmt.Errorf("reach daemon: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return decodeError(res)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeError(res *http.Response) error {
	var body api.ErrorResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("daemon: %s", body.Error)
	}
	return fmt.Errorf("daemon returned %s", res.Status)
}
