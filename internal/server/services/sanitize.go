package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans user-supplied text before it is stored.
type Sanitizer interface {
	Sanitize(s string) string
}

// textSanitizer strips every HTML element. Listings and profiles are plain
// text, so entities escaped by the policy are decoded back.
type textSanitizer struct {
	policy *bluemonday.Policy
}

func NewTextSanitizer() Sanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *textSanitizer) Sanitize(in string) string {
	if in == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}

// sanitizeFields cleans every string (and []string) value of fields in place.
func sanitizeFields(s Sanitizer, fields map[string]any) map[string]any {
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			fields[k] = s.Sanitize(val)
		case []string:
			out := make([]string, 0, len(val))
			for _, item := range val {
				if c := s.Sanitize(item); c != "" {
					out = append(out, c)
				}
			}
			fields[k] = out
		}
	}
	return fields
}
