// Package profiles defines the static catalog of audio output profiles.
//
// The catalog is fixed at process start: every profile names a container
// extension, a quality tier, and (for lossy tiers) a target bitrate. Encoder
// arguments are resolved here once, through a codec table keyed by container
// extension, so no other component derives ffmpeg parameters.
package profiles

import (
	"fmt"

	"waveforge/internal/textutil"
)

// Tier classifies output quality for report grouping.
type Tier string

const (
	TierLossless Tier = "lossless"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
)

// TierOrder is the fixed report ordering of quality tiers.
var TierOrder = []Tier{TierLossless, TierHigh, TierMedium}

// Label returns the human-facing heading for a tier.
func (t Tier) Label() string {
	switch t {
	case TierLossless:
		return "Lossless"
	case TierHigh:
		return "High Quality"
	case TierMedium:
		return "Medium Quality"
	default:
		return string(t)
	}
}

// Profile is one immutable output configuration.
type Profile struct {
	Name      string
	Extension string
	Tier      Tier
	// Bitrate is the ffmpeg bitrate argument (e.g. "320k"). Empty for
	// lossless tiers, which use the container's native lossless codec.
	Bitrate string
}

// Lossless reports whether the profile encodes without a bitrate target.
func (p Profile) Lossless() bool {
	return p.Tier == TierLossless
}

// OutputFileName returns the derivative file name for a title. The profile
// token keeps same-extension profiles from colliding on disk.
func (p Profile) OutputFileName(title string) string {
	return fmt.Sprintf("%s [%s].%s", title, textutil.SanitizeToken(p.Name), p.Extension)
}

var catalog = []Profile{
	{Name: "FLAC (Lossless)", Extension: "flac", Tier: TierLossless},
	{Name: "WAV (Lossless)", Extension: "wav", Tier: TierLossless},
	{Name: "MP3 320kbps", Extension: "mp3", Tier: TierHigh, Bitrate: "320k"},
	{Name: "MP3 256kbps", Extension: "mp3", Tier: TierHigh, Bitrate: "256k"},
	{Name: "MP3 192kbps", Extension: "mp3", Tier: TierMedium, Bitrate: "192k"},
	{Name: "MP3 128kbps", Extension: "mp3", Tier: TierMedium, Bitrate: "128k"},
	{Name: "AAC 256kbps", Extension: "aac", Tier: TierHigh, Bitrate: "256k"},
	{Name: "AAC 128kbps", Extension: "aac", Tier: TierMedium, Bitrate: "128k"},
	{Name: "OGG 320kbps", Extension: "ogg", Tier: TierHigh, Bitrate: "320k"},
	{Name: "OGG 192kbps", Extension: "ogg", Tier: TierMedium, Bitrate: "192k"},
	{Name: "M4A 256kbps", Extension: "m4a", Tier: TierHigh, Bitrate: "256k"},
	{Name: "M4A 128kbps", Extension: "m4a", Tier: TierMedium, Bitrate: "128k"},
}

var catalogByName = func() map[string]Profile {
	m := make(map[string]Profile, len(catalog))
	for _, p := range catalog {
		m[p.Name] = p
	}
	return m
}()

// All returns the catalog in insertion order.
func All() []Profile {
	cp := make([]Profile, len(catalog))
	copy(cp, catalog)
	return cp
}

// Lookup returns the profile for a name.
func Lookup(name string) (Profile, bool) {
	p, ok := catalogByName[name]
	return p, ok
}

// Resolve maps a list of profile names onto catalog entries, preserving
// order. An unknown name fails the whole selection.
func Resolve(names []string) ([]Profile, error) {
	resolved := make([]Profile, 0, len(names))
	for _, name := range names {
		p, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", name)
		}
		resolved = append(resolved, p)
	}
	return resolved, nil
}
