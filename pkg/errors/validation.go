package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// MaxNameLength bounds project and document names.
const MaxNameLength = 128

// ValidateProjectName validates a work order name. Names become part of
// storage keys and archive file names, so they are kept conservative:
//   - No empty or whitespace-only names
//   - No control characters
//   - Maximum length of [MaxNameLength] characters
func ValidateProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "project name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidInput, "project name too long (max %d characters)", MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "project name contains invalid control characters")
		}
	}
	return nil
}

// ValidateDocumentName validates a document display name.
func ValidateDocumentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "document name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidInput, "document name too long (max %d characters)", MaxNameLength)
	}
	return nil
}

// ValidateCoordinate rejects NaN and infinite coordinates. Finite values
// outside [0,1] are clamped by the store, not rejected.
func ValidateCoordinate(x, y float64) error {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return New(ErrCodeOutOfBounds, "coordinate (%v, %v) is not a finite number", x, y)
	}
	return nil
}

// unsafeFilenameChars matches runs of characters that are invalid in file
// names on at least one common file system.
var unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]+`)

// SanitizeFilename replaces runs of path-hostile characters with "_" and
// strips control characters. If the result is empty, fallback is returned.
func SanitizeFilename(name, fallback string) string {
	s := unsafeFilenameChars.ReplaceAllString(name, "_")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." {
		return fallback
	}
	return s
}
