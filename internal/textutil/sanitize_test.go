package textutil

import "testing"

func TestSanitizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Never Gonna Give You Up", "Never Gonna Give You Up"},
		{"AC/DC: Back In Black (Official)", "ACDC Back In Black Official"},
		{"  spaced  ", "spaced"},
		{"under_score-dash 9", "under_score-dash 9"},
		{"日本語タイトル", "日本語タイトル"},
		{"Años 90 Mix", "Años 90 Mix"},
		{"★☆★", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeTitle(tc.in); got != tc.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"MP3 320kbps", "mp3_320kbps"},
		{"FLAC (Lossless)", "flac__lossless"},
		{"", "unknown"},
		{"///", "unknown"},
	}
	for _, tc := range cases {
		if got := SanitizeToken(tc.in); got != tc.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
