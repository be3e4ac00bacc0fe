package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var (
	// EmailRegex validates email format
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// UUIDRegex validates UUID format
	uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

	// MonthRegex validates salary months like "2026-03"
	monthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
	MaxTextLength     = 5000
)

// IsValidEmail checks if the string is a valid email format
func IsValidEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// IsValidUUID checks if the string is a valid UUID format
func IsValidUUID(id string) bool {
	return uuidRegex.MatchString(id)
}

// IsValidMonth checks for a YYYY-MM month key.
func IsValidMonth(month string) bool {
	return monthRegex.MatchString(month)
}

// IsValidPassword checks password length.
func IsValidPassword(password string) (bool, string) {
	if len(password) < MinPasswordLength {
		return false, "Password must be at least 6 characters"
	}
	if len(password) > MaxPasswordLength {
		return false, "Password must be at most 128 characters"
	}
	return true, ""
}

// ParseUUIDs parses every value or reports the first one that is malformed.
func ParseUUIDs(values []string) ([]uuid.UUID, string, bool) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		if !IsValidUUID(v) {
			return nil, v, false
		}
		ids = append(ids, uuid.MustParse(v))
	}
	return ids, "", true
}

// ParseOptionalUUID returns nil for an empty string.
func ParseOptionalUUID(value string) (*uuid.UUID, bool) {
	if value == "" {
		return nil, true
	}
	if !IsValidUUID(value) {
		return nil, false
	}
	id := uuid.MustParse(value)
	return &id, true
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate accepts an ISO-8601 date or timestamp and returns it in UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// SanitizeString removes potentially dangerous characters for display
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	// Remove control characters except newlines and tabs
	var result strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// TruncateString truncates a string to maxLen characters
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// CleanText sanitizes free text and caps its length.
func CleanText(s string) string {
	return TruncateString(SanitizeString(s), MaxTextLength)
}
