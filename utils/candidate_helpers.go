package utils

import (
	"fmt"
	"strings"

	"sportmatch/models"
)

// ExtractFirstPhoto returns the first photo reference of a candidate, or ""
func ExtractFirstPhoto(c models.Candidate) string {
	if len(c.Photos) > 0 {
		return c.Photos[0]
	}
	return ""
}

// DisplayName returns the candidate's name, falling back to "Unknown"
func DisplayName(c models.Candidate) string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return "Unknown"
}

// FormatDistance renders the candidate's distance, e.g. "12.5 km away".
// Locality is used when no distance is known.
func FormatDistance(c models.Candidate) string {
	switch {
	case c.DistanceKM != nil && c.Locality != "":
		return fmt.Sprintf("%.1f km away, %s", *c.DistanceKM, c.Locality)
	case c.DistanceKM != nil:
		return fmt.Sprintf("%.1f km away", *c.DistanceKM)
	case c.Locality != "":
		return c.Locality
	}
	return ""
}
