package service

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/forum-api/internal/validation"
)

// Body length bounds, counted on the text a reader sees after sanitization.
const (
	minQuestionTitle       = 10
	maxQuestionTitle       = 300
	minQuestionDescription = 20
	maxQuestionDescription = 30000
	minAnswerContent       = 20
	maxAnswerContent       = 30000
	minCommentContent      = 15
	maxCommentContent      = 500
)

func newContentPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")
	return policy
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		cleaned := strings.ToLower(strings.TrimSpace(tag))
		if cleaned == "" {
			continue
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}

// sanitizeText strips markup outside policy and checks the visible length.
// Entities added by escaping (&amp;, &#39;) count as the single character
// they render to, so create and update agree on the same input.
func sanitizeText(policy *bluemonday.Policy, field, value string, min, max int) (string, error) {
	cleaned := strings.TrimSpace(policy.Sanitize(value))
	visible := utf8.RuneCountInString(html.UnescapeString(cleaned))
	if visible < min {
		return "", validation.NewError(field, fmt.Sprintf("must be at least %d characters", min))
	}
	if max > 0 && visible > max {
		return "", validation.NewError(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return cleaned, nil
}

func uintPtr(v uint) *uint {
	return &v
}
