package encode

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"waveforge/internal/logging"
	"waveforge/internal/profiles"
	"waveforge/internal/services"
	"waveforge/internal/testsupport"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return NewClient(cfg, logging.NewNop())
}

func stubCommand(t *testing.T, script string, recorded *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if recorded != nil {
			*recorded = append([]string{name}, args...)
		}
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
	t.Cleanup(func() { commandContext = original })
}

func mustProfile(t *testing.T, name string) profiles.Profile {
	t.Helper()
	p, ok := profiles.Lookup(name)
	if !ok {
		t.Fatalf("missing catalog entry %q", name)
	}
	return p
}

func TestEncodePassesCodecArguments(t *testing.T) {
	client := newTestClient(t)
	dest := filepath.Join(t.TempDir(), "My Song [mp3_320kbps].mp3")

	var argv []string
	stubCommand(t, `printf 'audio' > "`+dest+`"`, &argv)

	err := client.Encode(context.Background(), "/tmp/raw.wav", dest, mustProfile(t, "MP3 320kbps"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	joined := strings.Join(argv, " ")
	for _, want := range []string{"-codec:a mp3", "-b:a 320k", "-loglevel error", "-i /tmp/raw.wav"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in ffmpeg invocation: %v", want, argv)
		}
	}
}

func TestEncodeLosslessOmitsBitrate(t *testing.T) {
	client := newTestClient(t)
	dest := filepath.Join(t.TempDir(), "My Song [flac__lossless].flac")

	var argv []string
	stubCommand(t, `printf 'audio' > "`+dest+`"`, &argv)

	err := client.Encode(context.Background(), "/tmp/raw.wav", dest, mustProfile(t, "FLAC (Lossless)"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	joined := strings.Join(argv, " ")
	if strings.Contains(joined, "-b:a") {
		t.Fatalf("lossless encode must not carry a bitrate: %v", argv)
	}
	if !strings.Contains(joined, "-codec:a flac") {
		t.Fatalf("expected flac codec in invocation: %v", argv)
	}
}

func TestEncodeFailureIncludesToolOutputAndCleansUp(t *testing.T) {
	client := newTestClient(t)
	dest := filepath.Join(t.TempDir(), "My Song [ogg_320kbps].ogg")

	stubCommand(t, `printf 'partial' > "`+dest+`"; echo 'Invalid data found' >&2; exit 1`, nil)

	err := client.Encode(context.Background(), "/tmp/raw.wav", dest, mustProfile(t, "OGG 320kbps"))
	if !errors.Is(err, services.ErrEncode) {
		t.Fatalf("expected encode error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected tool output in error, got %v", err)
	}
	if services.IsFatal(err) {
		t.Fatal("a single profile failure must not be fatal to the job")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatalf("expected partial output removed, stat err = %v", statErr)
	}
}

func TestEncodeMissingBinaryIsFatal(t *testing.T) {
	client := newTestClient(t)
	dest := filepath.Join(t.TempDir(), "My Song [mp3_128kbps].mp3")

	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, filepath.Join(t.TempDir(), "no-such-ffmpeg"))
	}
	t.Cleanup(func() { commandContext = original })

	err := client.Encode(context.Background(), "/tmp/raw.wav", dest, mustProfile(t, "MP3 128kbps"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !services.IsFatal(err) {
		t.Fatal("an unlaunchable encoder must fail the whole job")
	}
}

func TestEncodeRejectsEmptyOutput(t *testing.T) {
	client := newTestClient(t)
	dest := filepath.Join(t.TempDir(), "My Song [aac_256kbps].aac")

	stubCommand(t, `exit 0`, nil)

	err := client.Encode(context.Background(), "/tmp/raw.wav", dest, mustProfile(t, "AAC 256kbps"))
	if !errors.Is(err, services.ErrEncode) {
		t.Fatalf("expected encode error for missing output, got %v", err)
	}
}
