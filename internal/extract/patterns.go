// Package extract pulls contact candidates out of raw HTML documents.
package extract

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
)

// excludedEmailFragments drop placeholder and role addresses.
var excludedEmailFragments = []string{
	"example.com",
	"test.com",
	"placeholder",
	"noreply",
	"privacy",
}

const excludedEmailPrefix = "support@"

// Emails returns the distinct email addresses in text, in first-seen order,
// minus placeholder and role addresses.
func Emails(text string) []string {
	matches := emailPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, email := range unique(matches) {
		if excludedEmail(email) {
			continue
		}
		out = append(out, email)
	}
	return out
}

func excludedEmail(email string) bool {
	lower := strings.ToLower(email)
	if strings.HasPrefix(lower, excludedEmailPrefix) {
		return true
	}
	for _, fragment := range excludedEmailFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// Phones returns the distinct North-American-style phone numbers in text,
// in first-seen order. Matches are not validated.
func Phones(text string) []string {
	return unique(phonePattern.FindAllString(text, -1))
}

func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
