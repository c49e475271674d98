package validation

import (
	"path/filepath"
	"regexp"
	"strings"
)

// ProjectPattern defines the valid project name format: alphanumeric, hyphens, underscores.
// The name becomes part of a file name, so path separators and dots are rejected.
var ProjectPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxProjectNameLength bounds project names.
const MaxProjectNameLength = 100

// ValidateProjectName checks if a project name matches the allowed pattern.
func ValidateProjectName(name string) bool {
	if name == "" || len(name) > MaxProjectNameLength {
		return false
	}
	return ProjectPattern.MatchString(name)
}

// NormalizeProjectName trims surrounding whitespace from a submitted name.
func NormalizeProjectName(name string) string {
	return strings.TrimSpace(name)
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename reduces an uploaded file name to a safe base name.
// Returns "upload.csv" when nothing usable remains.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeFileChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "upload.csv"
	}
	if len(base) > 100 {
		base = base[len(base)-100:]
	}
	return base
}
