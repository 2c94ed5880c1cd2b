package guardrail

import (
	"strings"
	"testing"
)

func TestCategorizeClean(t *testing.T) {
	f := NewProfanityFilter(false)
	category, words := f.Categorize("how do I prepare for a system design interview")
	if category != CategoryClean || len(words) != 0 {
		t.Fatalf("got %v %v, want clean", category, words)
	}
}

func TestCategorizeProfanityOutranksAggression(t *testing.T) {
	f := NewProfanityFilter(false)
	category, _ := f.Categorize("this damn recruiter is stupid")
	if category != CategoryProfanity {
		t.Fatalf("got %v, want profanity", category)
	}
}

func TestCategorizeEvasion(t *testing.T) {
	f := NewProfanityFilter(false)
	category, _ := f.Categorize("f***k this process")
	if category != CategoryProfanity {
		t.Fatalf("evasion not caught: %v", category)
	}
}

func TestContextExceptions(t *testing.T) {
	f := NewProfanityFilter(false)
	category, _ := f.Categorize("I hate my job and want a change")
	if category != CategoryClean {
		t.Fatalf("allowed context flagged: %v", category)
	}
}

func TestShouldRedirectStrictMode(t *testing.T) {
	relaxed := NewProfanityFilter(false)
	strict := NewProfanityFilter(true)
	text := "my manager is an idiot"
	if relaxed.ShouldRedirect(text) {
		t.Fatalf("relaxed mode redirected aggression")
	}
	if !strict.ShouldRedirect(text) {
		t.Fatalf("strict mode did not redirect aggression")
	}
}

func TestMask(t *testing.T) {
	f := NewProfanityFilter(false)
	out := f.Mask("that was a damn waste")
	if strings.Contains(out, "damn") {
		t.Fatalf("word survived masking: %q", out)
	}
	if !strings.Contains(out, "d***") {
		t.Fatalf("expected masked form, got %q", out)
	}
}

func TestRedirectionResponseDeterministic(t *testing.T) {
	f := NewProfanityFilter(false)
	a := f.RedirectionResponse("same prompt")
	b := f.RedirectionResponse("same prompt")
	if a != b {
		t.Fatalf("redirection not deterministic")
	}
	if a == "" {
		t.Fatalf("empty redirection response")
	}
}
