package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// sanitizer strips markup from free-text input.
type sanitizer struct {
	policy *bluemonday.Policy
}

func newSanitizer() sanitizer {
	return sanitizer{policy: bluemonday.StrictPolicy()}
}

func (s sanitizer) text(value string) string {
	cleaned := s.policy.Sanitize(strings.TrimSpace(value))
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
