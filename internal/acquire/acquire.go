// Package acquire resolves source metadata and downloads raw audio with
// yt-dlp.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"waveforge/internal/config"
	"waveforge/internal/logging"
	"waveforge/internal/services"
	"waveforge/internal/textutil"
)

// fallbackTitle is used when the source exposes no usable title.
const fallbackTitle = "audio_download"

// commandContext is swapped out by tests to observe invocations.
var commandContext = exec.CommandContext

// Acquirer resolves a locator's title and fetches its audio as a raw
// intermediate file.
type Acquirer interface {
	Resolve(ctx context.Context, locator string) (string, error)
	Fetch(ctx context.Context, locator, workDir, title string) (string, error)
}

// Client shells out to yt-dlp for both operations.
type Client struct {
	binary         string
	resolveTimeout time.Duration
	fetchTimeout   time.Duration
	logger         *slog.Logger
}

// NewClient builds a yt-dlp client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		binary:         cfg.Tools.YtDlpBinary,
		resolveTimeout: time.Duration(cfg.Tools.ResolveTimeout) * time.Second,
		fetchTimeout:   time.Duration(cfg.Tools.FetchTimeout) * time.Second,
		logger:         logging.NewComponentLogger(logger, "acquire"),
	}
}

// Resolve queries the source title without downloading anything. The result
// is sanitized for filesystem use and never empty.
func (c *Client) Resolve(ctx context.Context, locator string) (string, error) {
	runCtx := ctx
	if c.resolveTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.resolveTimeout)
		defer cancel()
	}

	cmd := commandContext(runCtx, c.binary,
		"--no-playlist",
		"--skip-download",
		"--print", "%(title)s",
		locator,
	)
	output, err := cmd.Output()
	if err != nil {
		return "", services.Wrap(services.ErrAcquisition, "acquire", "resolve", commandFailureDetail(err), err)
	}

	title := textutil.SanitizeTitle(strings.TrimSpace(string(output)))
	if title == "" {
		title = fallbackTitle
	}
	c.logger.Info("resolved source title", logging.String("title", title))
	return title, nil
}

// Fetch downloads the best audio stream and extracts it to WAV inside
// workDir. It returns the path of the intermediate file.
func (c *Client) Fetch(ctx context.Context, locator, workDir, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		title = fallbackTitle
	}

	runCtx := ctx
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	template := filepath.Join(workDir, title+"_temp.%(ext)s")
	cmd := commandContext(runCtx, c.binary,
		"--no-playlist",
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "wav",
		"-o", template,
		locator,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = commandFailureDetail(err)
		}
		return "", services.Wrap(services.ErrAcquisition, "acquire", "fetch", detail, err)
	}

	raw, err := findIntermediate(workDir, title)
	if err != nil {
		return "", err
	}
	c.logger.Info("fetched raw audio", logging.String("path", raw))
	return raw, nil
}

// findIntermediate locates the downloaded temp file. The extension is
// whatever yt-dlp produced, normally wav after extraction.
func findIntermediate(workDir, title string) (string, error) {
	pattern := filepath.Join(workDir, title+"_temp.*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", services.Wrap(services.ErrAcquisition, "acquire", "locate intermediate", pattern, err)
	}
	for _, match := range matches {
		info, statErr := os.Stat(match)
		if statErr == nil && info.Mode().IsRegular() {
			return match, nil
		}
	}
	return "", services.Wrap(services.ErrAcquisition, "acquire", "locate intermediate",
		fmt.Sprintf("no downloaded file matches %s", pattern), nil)
}

func commandFailureDetail(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return strings.TrimSpace(string(exitErr.Stderr))
	}
	return err.Error()
}
