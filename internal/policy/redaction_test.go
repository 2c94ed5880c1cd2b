package policy

import (
	"strings"
	"testing"
)

func TestScrubEmail(t *testing.T) {
	out := Scrub("reach me at priya.k@example.com for referrals")
	if strings.Contains(out, "priya.k@example.com") {
		t.Fatalf("email survived scrubbing: %q", out)
	}
	if !strings.Contains(out, "[EMAIL REDACTED]") {
		t.Fatalf("missing email tag: %q", out)
	}
}

func TestScrubPhone(t *testing.T) {
	for _, in := range []string{
		"call 555-123-9876",
		"call (555) 123 9876",
		"call +1 555.123.9876",
	} {
		out := Scrub(in)
		if !strings.Contains(out, "[PHONE REDACTED]") {
			t.Fatalf("Scrub(%q) = %q, want phone tag", in, out)
		}
	}
}

func TestScrubIDNumber(t *testing.T) {
	out := Scrub("my ssn is 123-45-6789 ok")
	if strings.Contains(out, "123-45-6789") {
		t.Fatalf("id number survived: %q", out)
	}
	if !strings.Contains(out, "[ID REDACTED]") {
		t.Fatalf("missing id tag: %q", out)
	}
}

func TestScrubProfileURLAndLinkedIn(t *testing.T) {
	out := Scrub("see https://example.com/profile/pk92 or linkedin.com/in/priya-k")
	if !strings.Contains(out, "[URL REDACTED]") {
		t.Fatalf("missing url tag: %q", out)
	}
	if !strings.Contains(out, "[LINKEDIN REDACTED]") {
		t.Fatalf("missing linkedin tag: %q", out)
	}
}

func TestScrubAddress(t *testing.T) {
	out := Scrub("I live at 42 Rosewood Avenue and want a job nearby")
	if !strings.Contains(out, "[ADDRESS REDACTED]") {
		t.Fatalf("missing address tag: %q", out)
	}
}

func TestScrubMessengerContact(t *testing.T) {
	out := Scrub("ping me on whatsapp at 9 9 9 9 9 9 9 9")
	if !strings.Contains(out, "[CONTACT REDACTED]") {
		t.Fatalf("missing contact tag: %q", out)
	}
}

func TestScrubSocialHandle(t *testing.T) {
	out := Scrub("follow @priya_codes for tips")
	if strings.Contains(out, "@priya_codes") {
		t.Fatalf("handle survived: %q", out)
	}
	if !strings.Contains(out, "[SOCIAL MEDIA HANDLE REDACTED]") {
		t.Fatalf("missing handle tag: %q", out)
	}
}

func TestScrubIdempotent(t *testing.T) {
	inputs := []string{
		"Email me at sam@example.com or call 555-123-9876.",
		"see linkedin.com/in/sam and @sam_codes",
		"42 Rosewood Street, ssn 123-45-6789",
		"no pii here at all",
	}
	for _, in := range inputs {
		once := Scrub(in)
		twice := Scrub(once)
		if once != twice {
			t.Fatalf("Scrub not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestScrubChanged(t *testing.T) {
	if _, changed := ScrubChanged("plain career question"); changed {
		t.Fatalf("changed = true for clean text")
	}
	if _, changed := ScrubChanged("mail sam@example.com"); !changed {
		t.Fatalf("changed = false for text with email")
	}
}
