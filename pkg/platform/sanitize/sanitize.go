// Package sanitize applies the minimal text cleaning used before free text is
// stored: trim surrounding whitespace and drop anything that looks like a
// markup tag. It is not an HTML sanitizer; renderers must still escape output.
package sanitize

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Text trims s and removes markup tags.
func Text(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(strings.TrimSpace(s), ""))
}

// Optional sanitizes s and returns nil when nothing remains.
func Optional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := Text(*s)
	if clean == "" {
		return nil
	}
	return &clean
}
