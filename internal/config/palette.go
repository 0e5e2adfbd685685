package config

import (
	"fmt"
	"regexp"

	"github.com/runnerr0/jobtrack/internal/storage"
)

// DefaultStatusColors returns the dashboard colour for each status. Saved
// settings override individual entries.
func DefaultStatusColors() map[storage.Status]string {
	return map[storage.Status]string{
		storage.StatusInterested:   "#9e9e9e",
		storage.StatusApplied:      "#1e88e5",
		storage.StatusInterviewing: "#fb8c00",
		storage.StatusOffer:        "#43a047",
		storage.StatusRejected:     "#e53935",
	}
}

// StatusColors merges saved overrides over DefaultStatusColors.
func StatusColors(settings *storage.Settings) map[storage.Status]string {
	colors := DefaultStatusColors()
	if settings == nil {
		return colors
	}
	for st, c := range settings.StatusColors {
		if st.Valid() && c != "" {
			colors[st] = c
		}
	}
	return colors
}

var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]+)$`)

// ValidateColor accepts #rgb, #rrggbb or a bare colour name.
func ValidateColor(c string) error {
	if !colorPattern.MatchString(c) {
		return fmt.Errorf("invalid colour %q (want #rgb, #rrggbb or a colour name)", c)
	}
	return nil
}
