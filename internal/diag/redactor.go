package diag

import "regexp"

// Redactor masks secrets in config and log text
type Redactor struct {
	patterns []redactionPattern
}

type redactionPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a redactor for key/value secrets, bearer tokens and
// credentials embedded in URLs.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []redactionPattern{
			// api_key_env names a variable, not a secret
			{
				regex:       regexp.MustCompile(`(?i)(^|[^A-Z_])(api[_-]?key|token|secret|password)(["']?\s*[:=]\s*["']?)[^"'\s,}]+`),
				replacement: `${1}${2}${3}[REDACTED]`,
			},
			{
				regex:       regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9_\-\.]+`),
				replacement: `Bearer [REDACTED]`,
			},
			{
				regex:       regexp.MustCompile(`(?i)(https?://)([^:/@\s]+):([^@/\s]+)@`),
				replacement: `$1$2:[REDACTED]@`,
			},
		},
	}
}

// Redact applies all patterns to input.
func (r *Redactor) Redact(input string) string {
	out := input
	for _, p := range r.patterns {
		out = p.regex.ReplaceAllString(out, p.replacement)
	}
	return out
}
