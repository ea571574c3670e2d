package redact

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const placeholder = "[REDACTED]"

// maxVisible is the most characters Match keeps at each end.
const maxVisible = 5

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// Keys and secrets in assignments
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// Bearer and API tokens in headers
	regexp.MustCompile(`(?i)(Bearer|Token)\s+[A-Za-z0-9._-]{20,}`),
	// JWTs
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN\s+([A-Z]+\s+)?PRIVATE KEY-----`),
	// GitHub and Slack tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	for _, pat := range secretPatterns {
		text = pat.ReplaceAllLiteralString(text, placeholder)
	}
	return text
}

// Match censors a matched value. About a sixth of the characters, at most
// five, stay visible at each end; the rest become '*'. Values shorter than
// three characters are fully censored.
func Match(s string) string {
	n := utf8.RuneCountInString(s)
	if n < 3 {
		return strings.Repeat("*", n)
	}
	visible := min((n+5)/6, maxVisible)
	runes := []rune(s)
	var b strings.Builder
	b.WriteString(string(runes[:visible]))
	b.WriteString(strings.Repeat("*", n-2*visible))
	b.WriteString(string(runes[n-visible:]))
	return b.String()
}
