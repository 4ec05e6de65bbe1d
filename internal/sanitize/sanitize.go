package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Text strips markup from listing free text and returns plain, trimmed text.
type Text struct {
	policy *bluemonday.Policy
}

func New() *Text {
	return &Text{policy: bluemonday.StrictPolicy()}
}

func (s *Text) Sanitize(in string) string {
	if in == "" {
		return ""
	}
	out := s.policy.Sanitize(in)
	return strings.TrimSpace(html.UnescapeString(out))
}
