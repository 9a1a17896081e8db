package config

import (
	"fmt"
	"net/url"
	"strings"

	zxcvbn "github.com/ccojocar/zxcvbn-go"
)

const weakTokenScoreThreshold = 3

// AdminTokenIssue describes what is wrong with the admin token, or returns ""
// when it is acceptable. Words from the entry URL's host are penalized, so a
// token derived from the site name counts as weak.
func AdminTokenIssue(token, entryURL string) string {
	if token == "" {
		return "admin token is empty, the admin API is unauthenticated"
	}
	result := zxcvbn.PasswordStrength(token, tokenHints(entryURL))
	if result.Score < weakTokenScoreThreshold {
		return fmt.Sprintf("admin token is weak (score %d/4)", result.Score)
	}
	return ""
}

func tokenHints(entryURL string) []string {
	hints := []string{"stalecheck"}
	u, err := url.Parse(entryURL)
	if err != nil {
		return hints
	}
	for _, part := range strings.FieldsFunc(strings.ToLower(u.Hostname()), func(r rune) bool {
		return r == '.' || r == '-'
	}) {
		if len(part) >= 3 {
			hints = append(hints, part)
		}
	}
	return hints
}
