package logutil

import (
	"net/url"
	"strings"
)

// SanitizeForLog strips newlines and other control characters from
// user-provided strings (artifact paths, local file names) so they cannot
// forge extra log lines.
func SanitizeForLog(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\t", " ")

	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r >= 32 && r != 127 {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// RedactURI renders a repository URI with any embedded password replaced by
// "xxxxx". The username is kept since it is useful when debugging auth.
func RedactURI(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Redacted()
}
