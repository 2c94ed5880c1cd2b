package guardrail

import "testing"

func newTestPipeline() *Pipeline {
	return NewPipeline(NewBiasDetector("", 0.8), NewProfanityFilter(false))
}

func TestPipelineCareerRedirect(t *testing.T) {
	v := newTestPipeline().Evaluate("What's a good recipe for pasta?")
	if !v.Intervened {
		t.Fatalf("off-topic prompt not intercepted")
	}
	if v.Reason != "career-relevance" {
		t.Fatalf("reason = %q, want career-relevance", v.Reason)
	}
	if v.Message != CareerRedirectMessage {
		t.Fatalf("message = %q", v.Message)
	}
}

func TestPipelineBiasRephrase(t *testing.T) {
	v := newTestPipeline().Evaluate("Women are not good at leadership")
	if !v.Intervened {
		t.Fatalf("biased prompt not intercepted")
	}
	if v.Reason != "gender-bias" {
		t.Fatalf("reason = %q, want gender-bias", v.Reason)
	}
	if v.Message != BiasRephraseMessage {
		t.Fatalf("message = %q", v.Message)
	}
}

func TestPipelineProfanityRedirect(t *testing.T) {
	v := newTestPipeline().Evaluate("help me find a damn job")
	if !v.Intervened {
		t.Fatalf("profane prompt not intercepted")
	}
	if v.Reason != "profanity" {
		t.Fatalf("reason = %q, want profanity", v.Reason)
	}
	if v.Message == "" {
		t.Fatalf("empty redirection message")
	}
}

func TestPipelineCleanPromptPasses(t *testing.T) {
	v := newTestPipeline().Evaluate("How do I prepare for a product manager interview?")
	if v.Intervened {
		t.Fatalf("clean prompt intercepted: %+v", v)
	}
}
