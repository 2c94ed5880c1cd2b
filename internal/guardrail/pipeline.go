package guardrail

// Canned guardrail messages. CareerRedirectMessage doubles as the fallback
// string the context assembler filters out of model context so refusals are
// never reinforced.
const (
	CareerRedirectMessage = "Sorry, I can't help with that. Let's focus on career-related questions instead."

	BiasRephraseMessage = "This query contains potential gender bias. " +
		"At Disha AI, we promote respectful, inclusive dialogue.\n\n" +
		"Would you like to rephrase your question?\n\n" +
		"Example: try 'How can we support women in tech leadership roles?'"
)

// Verdict is the outcome of running a prompt through the guardrail chain.
// Intervened verdicts are successful responses, not errors: the caller
// returns Message verbatim and performs no model call or storage.
type Verdict struct {
	Intervened bool
	Reason     string
	Message    string
}

// Check is one predicate -> outcome step. Assess returns true plus the
// canned message when the check intervenes.
type Check struct {
	Name   string
	Assess func(text string) (bool, string)
}

// Pipeline runs checks in order and short-circuits on the first hit.
type Pipeline struct {
	checks []Check
}

// NewPipeline builds the standard chain: career relevance, gender bias,
// profanity. Order matters: off-topic prompts are redirected before the
// bias machinery ever sees them.
func NewPipeline(bias *BiasDetector, profanity *ProfanityFilter) *Pipeline {
	return &Pipeline{
		checks: []Check{
			{
				Name: "career-relevance",
				Assess: func(text string) (bool, string) {
					if !Career(text) {
						return true, CareerRedirectMessage
					}
					return false, ""
				},
			},
			{
				Name: "gender-bias",
				Assess: func(text string) (bool, string) {
					if bias.Biased(text) {
						return true, BiasRephraseMessage
					}
					return false, ""
				},
			},
			{
				Name: "profanity",
				Assess: func(text string) (bool, string) {
					if profanity.ShouldRedirect(text) {
						return true, profanity.RedirectionResponse(text)
					}
					return false, ""
				},
			},
		},
	}
}

// Evaluate returns the first intervening check's verdict, or a clean one.
func (p *Pipeline) Evaluate(text string) Verdict {
	for _, check := range p.checks {
		if hit, msg := check.Assess(text); hit {
			return Verdict{Intervened: true, Reason: check.Name, Message: msg}
		}
	}
	return Verdict{}
}
