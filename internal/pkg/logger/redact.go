package logger

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// RedactEmail keeps the first two characters of the local part:
// "john.doe@example.com" becomes "jo***@example.com". Shorter local parts are
// masked entirely.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}

// RedactEmails redacts every address in a recipient list.
func RedactEmails(emails []string) []string {
	out := make([]string, len(emails))
	for i, e := range emails {
		out[i] = RedactEmail(e)
	}
	return out
}

// redactValue masks addresses embedded in any value. Recipient-like keys
// with no recognisable address are masked whole.
func redactValue(key, val string) string {
	masked := emailPattern.ReplaceAllStringFunc(val, RedactEmail)
	key = strings.ToLower(key)
	if masked == val && val != "" && (strings.Contains(key, "email") || strings.Contains(key, "recipient")) {
		return "***"
	}
	return masked
}
