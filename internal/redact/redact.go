// Package redact strips secrets out of text before it reaches a log file:
// the target password used to authenticate, and registry values that turn
// out to hold credentials rather than configuration.
package redact

import (
	"regexp"
)

var sensitivePatterns = []*regexp.Regexp{
	// sudo -S password piped on stdin, as built by oscmd.Elevate.
	regexp.MustCompile(`(?i)echo\s+['"]?[^|'"]{1,200}['"]?\s*\|\s*sudo\s+-S`),

	// key=value style secrets that show up in read registry values or
	// config file dumps (password, passwd, pwd, secret, token, pat).
	regexp.MustCompile(`(?i)(password|passwd|pwd|secret|token|pat)\s*[=:]\s*['"]?[^\s'"]{4,}['"]?`),

	// Private keys, in case a probed file happens to read one back.
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----[\s\S]*?-----END (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`),

	// Basic auth embedded in a URL.
	regexp.MustCompile(`https?://[^:/\s]+:[^@/\s]+@`),
}

const redactedPlaceholder = "[REDACTED]"

// Redact replaces every recognized secret in input with a placeholder,
// leaving the surrounding text (the command or file content it came from)
// intact so the log entry is still readable.
func Redact(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, redactedPlaceholder)
	}
	return result
}
