// Package encode produces derivative audio files with ffmpeg.
package encode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"waveforge/internal/config"
	"waveforge/internal/logging"
	"waveforge/internal/profiles"
	"waveforge/internal/services"
)

// commandContext is swapped out by tests to observe invocations.
var commandContext = exec.CommandContext

// Encoder converts one raw intermediate into one profile's output file.
type Encoder interface {
	Encode(ctx context.Context, rawPath, destPath string, profile profiles.Profile) error
}

// Client shells out to ffmpeg.
type Client struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient builds an ffmpeg client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		binary:  cfg.Tools.FFmpegBinary,
		timeout: time.Duration(cfg.Tools.EncodeTimeout) * time.Second,
		logger:  logging.NewComponentLogger(logger, "encode"),
	}
}

// Encode transcodes rawPath into destPath using the profile's codec
// parameters. A failed run never leaves a partial file at destPath.
func (c *Client) Encode(ctx context.Context, rawPath, destPath string, profile profiles.Profile) error {
	codecArgs, err := profile.EncoderArgs()
	if err != nil {
		return services.Wrap(services.ErrEncode, "encode", profile.Name, "resolve codec", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", rawPath}
	args = append(args, codecArgs...)
	args = append(args, destPath)

	started := time.Now()
	cmd := commandContext(runCtx, c.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(destPath)
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = err.Error()
		}
		// A run that never produced an exit status means ffmpeg could not
		// be launched at all; that is not a per-profile failure.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return services.Wrap(services.ErrExternalTool, "encode", c.binary, detail, err)
		}
		return services.Wrap(services.ErrEncode, "encode", profile.Name, detail, err)
	}

	info, statErr := os.Stat(destPath)
	if statErr != nil || info.Size() == 0 {
		_ = os.Remove(destPath)
		return services.Wrap(services.ErrEncode, "encode", profile.Name,
			fmt.Sprintf("ffmpeg produced no output at %s", destPath), statErr)
	}

	c.logger.Debug("encoded derivative",
		logging.String(logging.FieldProfile, profile.Name),
		logging.String("path", destPath),
		logging.Duration("elapsed", time.Since(started)))
	return nil
}
