// Package report renders the per-job quality report.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"waveforge/internal/profiles"
	"waveforge/internal/services"
)

// Item is one successfully encoded derivative.
type Item struct {
	Profile   profiles.Profile
	Path      string
	SizeBytes int64
}

// FileName returns the report file name for a title.
func FileName(title string) string {
	return title + "_quality_report.txt"
}

// Render produces the report text. Derivatives are grouped by quality tier
// in fixed tier order; within a tier the largest file is listed first, with
// catalog order breaking size ties. Tiers with no entries are omitted.
func Render(title string, items []Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Audio Quality Report for: %s\n", title)
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n")

	byTier := make(map[profiles.Tier][]Item)
	for _, item := range items {
		byTier[item.Profile.Tier] = append(byTier[item.Profile.Tier], item)
	}

	for _, tier := range profiles.TierOrder {
		entries := byTier[tier]
		if len(entries) == 0 {
			continue
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].SizeBytes > entries[j].SizeBytes
		})

		fmt.Fprintf(&b, "\n%s:\n", tier.Label())
		b.WriteString(strings.Repeat("-", 20))
		b.WriteString("\n")
		for _, entry := range entries {
			sizeMB := float64(entry.SizeBytes) / (1024 * 1024)
			fmt.Fprintf(&b, "  %-20s | %6.1f MB | .%s\n", entry.Profile.Name, sizeMB, entry.Profile.Extension)
		}
	}

	return b.String()
}

// Write renders the report and stores it under dir. It returns the report
// path.
func Write(dir, title string, items []Item) (string, error) {
	path := filepath.Join(dir, FileName(title))
	if err := os.WriteFile(path, []byte(Render(title, items)), 0o644); err != nil {
		return "", services.Wrap(services.ErrPackaging, "report", "write", path, err)
	}
	return path, nil
}
