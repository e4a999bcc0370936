package selection

import (
	"regexp"
	"strings"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// SlugPreview predicts the client id the backend will derive from a display
// name. The backend is authoritative and may add a suffix for uniqueness.
func SlugPreview(displayName string) string {
	slug := strings.ToLower(strings.TrimSpace(displayName))
	slug = nonSlugRun.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
