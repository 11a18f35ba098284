package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"waveforge/internal/profiles"
	"waveforge/internal/report"
)

func item(t *testing.T, name string, size int64) report.Item {
	t.Helper()
	p, ok := profiles.Lookup(name)
	if !ok {
		t.Fatalf("missing catalog entry %q", name)
	}
	return report.Item{Profile: p, Path: "/out/" + p.OutputFileName("My Song"), SizeBytes: size}
}

func TestRenderHeaderAndColumns(t *testing.T) {
	items := []report.Item{
		item(t, "FLAC (Lossless)", 30*1024*1024),
		item(t, "MP3 320kbps", 8*1024*1024),
	}

	text := report.Render("My Song", items)

	lines := strings.Split(text, "\n")
	if lines[0] != "Audio Quality Report for: My Song" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != strings.Repeat("=", 50) {
		t.Fatalf("unexpected rule line %q", lines[1])
	}
	if !strings.Contains(text, "Lossless:\n"+strings.Repeat("-", 20)+"\n") {
		t.Fatal("expected lossless tier section")
	}
	if !strings.Contains(text, "High Quality:") {
		t.Fatal("expected high quality tier section")
	}
	if !strings.Contains(text, "  FLAC (Lossless)      |   30.0 MB | .flac") {
		t.Fatalf("unexpected lossless row formatting:\n%s", text)
	}
	if !strings.Contains(text, "  MP3 320kbps          |    8.0 MB | .mp3") {
		t.Fatalf("unexpected lossy row formatting:\n%s", text)
	}
}

func TestRenderOmitsEmptyTiers(t *testing.T) {
	text := report.Render("My Song", []report.Item{item(t, "MP3 128kbps", 4 * 1024 * 1024)})

	if strings.Contains(text, "Lossless:") || strings.Contains(text, "High Quality:") {
		t.Fatalf("expected only populated tiers in report:\n%s", text)
	}
	if !strings.Contains(text, "Medium Quality:") {
		t.Fatalf("expected medium tier section:\n%s", text)
	}
}

func TestRenderOrdersWithinTierBySizeDescending(t *testing.T) {
	items := []report.Item{
		item(t, "MP3 320kbps", 6*1024*1024),
		item(t, "OGG 320kbps", 9*1024*1024),
		item(t, "AAC 256kbps", 7*1024*1024),
	}

	text := report.Render("My Song", items)

	ogg := strings.Index(text, "OGG 320kbps")
	aac := strings.Index(text, "AAC 256kbps")
	mp3 := strings.Index(text, "MP3 320kbps")
	if ogg < 0 || aac < 0 || mp3 < 0 {
		t.Fatalf("missing rows:\n%s", text)
	}
	if !(ogg < aac && aac < mp3) {
		t.Fatalf("expected size-descending order within tier:\n%s", text)
	}
}

func TestWriteStoresReportFile(t *testing.T) {
	dir := t.TempDir()

	path, err := report.Write(dir, "My Song", []report.Item{item(t, "WAV (Lossless)", 40 * 1024 * 1024)})
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	if path != filepath.Join(dir, "My Song_quality_report.txt") {
		t.Fatalf("unexpected report path %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.HasPrefix(string(data), "Audio Quality Report for: My Song") {
		t.Fatalf("unexpected report contents:\n%s", data)
	}
}
