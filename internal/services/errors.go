package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks requests rejected before a job is created:
	// empty locator, empty profile selection, or an unknown profile name.
	ErrConfiguration = errors.New("configuration error")

	// ErrAcquisition marks metadata resolution or audio retrieval failures.
	// Fatal to the job; no outputs are produced.
	ErrAcquisition = errors.New("acquisition error")

	// ErrEncode marks a single profile's encoder failure. Recovered by the
	// transcode stage and never propagated past it.
	ErrEncode = errors.New("encode error")

	// ErrAllEncodesFailed marks a job where every selected profile failed.
	ErrAllEncodesFailed = errors.New("all encodes failed")

	// ErrPackaging marks report or archive I/O failures after at least one
	// successful encode.
	ErrPackaging = errors.New("packaging error")

	// ErrExternalTool marks failures launching or running an external binary.
	ErrExternalTool = errors.New("external tool error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must terminate the whole job rather than
// a single profile attempt.
func IsFatal(err error) bool {
	switch {
	case errors.Is(err, ErrEncode):
		return false
	case errors.Is(err, ErrAcquisition),
		errors.Is(err, ErrAllEncodesFailed),
		errors.Is(err, ErrPackaging),
		errors.Is(err, ErrConfiguration):
		return true
	default:
		return err != nil
	}
}

// Detail strips the sentinel marker prefix from an error message so
// user-facing text starts at the stage detail.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	for _, marker := range []error{
		ErrConfiguration,
		ErrAcquisition,
		ErrEncode,
		ErrAllEncodesFailed,
		ErrPackaging,
		ErrExternalTool,
	} {
		if trimmed := strings.TrimPrefix(text, marker.Error()+": "); trimmed != text {
			return trimmed
		}
	}
	return text
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
