package policy

import "regexp"

// Redaction patterns are applied in a fixed order; earlier passes consume
// text that later, looser passes would otherwise misclassify (emails before
// social handles, profile URLs before LinkedIn slugs).
var redactionPasses = []struct {
	pattern *regexp.Regexp
	tag     string
}{
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[EMAIL REDACTED]"},
	{regexp.MustCompile(`\b(\+\d{1,3}[\s\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`), "[PHONE REDACTED]"},
	{regexp.MustCompile(`\b\d{3}[\-\s]?\d{2}[\-\s]?\d{4}\b`), "[ID REDACTED]"},
	{regexp.MustCompile(`https?://[^\s/]+/(?:user|profile|account|u)/[a-zA-Z0-9_\-]+`), "[URL REDACTED]"},
	{regexp.MustCompile(`\b\d+\s+[A-Za-z0-9\s,]+(?:Avenue|Ave|Street|St|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Way|Court|Ct|Plaza|Square|Sq|Trail|Tr|Parkway|Pkwy|Circle|Cir)\b`), "[ADDRESS REDACTED]"},
	{regexp.MustCompile(`(?i)\b(?:whatsapp|telegram|signal|viber)(?:\s+at)?\s+\+?[0-9][0-9\s\-]{7,}`), "[CONTACT REDACTED]"},
	{regexp.MustCompile(`linkedin\.com/in/[a-zA-Z0-9_\-]+`), "[LINKEDIN REDACTED]"},
	{regexp.MustCompile(`@[a-zA-Z0-9_]{2,}`), "[SOCIAL MEDIA HANDLE REDACTED]"},
}

// Scrub masks recognizable personal identifiers with fixed category tags.
// Best effort: this reduces accidental PII retention, it is not a proof of
// anonymization. Re-scrubbing already scrubbed text is a no-op because no
// tag contains a substring any pass can match.
func Scrub(input string) string {
	out := input
	for _, p := range redactionPasses {
		out = p.pattern.ReplaceAllString(out, p.tag)
	}
	return out
}

// ScrubChanged reports whether scrubbing altered the input.
func ScrubChanged(input string) (string, bool) {
	out := Scrub(input)
	return out, out != input
}
