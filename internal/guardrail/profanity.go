package guardrail

import (
	"regexp"
	"strings"
)

// ContentCategory labels the severity class of a piece of text.
type ContentCategory string

const (
	CategoryClean         ContentCategory = "clean"
	CategoryProfanity     ContentCategory = "profanity"
	CategoryAggression    ContentCategory = "aggression"
	CategoryInappropriate ContentCategory = "inappropriate"
)

var (
	profanityWords     = []string{"fuck", "shit", "bitch", "damn", "asshole", "bastard"}
	aggressionWords    = []string{"idiot", "stupid", "hate", "loser", "destroy", "pathetic", "useless"}
	inappropriateWords = []string{"sexy", "nude", "nudes"}

	// Obfuscation attempts: letter gapping and symbol substitution.
	evasionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`f[\W_]+u[\W_]+c[\W_]+k`),
		regexp.MustCompile(`s[\W_]+h[\W_]+i[\W_]+t`),
		regexp.MustCompile(`b[\W_]+i[\W_]+t[\W_]+c[\W_]+h`),
		regexp.MustCompile(`f\*+k`),
		regexp.MustCompile(`s\*+t`),
		regexp.MustCompile(`b\*+h`),
		regexp.MustCompile(`a\$\$`),
	}

	// Words that overlap a blocked term but are legitimate in these contexts.
	contextExceptions = map[string][]string{
		"hate": {"hate my job", "hate interviews", "hate networking"},
	}

	redirectionResponses = []string{
		"I'd like to keep our conversation professional and focused on your career goals. How can I help with your professional development?",
		"Let's maintain a professional tone in our conversation. I'm here to help with your career questions and aspirations.",
		"I understand you may be frustrated, but I'd prefer to help you with your professional needs in a constructive way. What career challenges can I assist with?",
		"I'm designed to provide career guidance and support in a professional manner. Could we refocus on your career questions?",
	}
)

// ProfanityFilter categorizes and masks profane, aggressive or
// inappropriate language. In strict mode any non-clean category triggers a
// redirection; otherwise only outright profanity does.
type ProfanityFilter struct {
	strict bool
}

func NewProfanityFilter(strict bool) *ProfanityFilter {
	return &ProfanityFilter{strict: strict}
}

// Categorize returns the most severe matching category plus the words that
// triggered it. Profanity outranks aggression outranks inappropriate.
func (f *ProfanityFilter) Categorize(text string) (ContentCategory, []string) {
	t := Normalize(text)
	if t == "" {
		return CategoryClean, nil
	}

	if found := matchBlockedWords(t, profanityWords); len(found) > 0 {
		return CategoryProfanity, found
	}
	for _, p := range evasionPatterns {
		if p.MatchString(t) {
			return CategoryProfanity, nil
		}
	}
	if found := matchBlockedWords(t, aggressionWords); len(found) > 0 {
		return CategoryAggression, found
	}
	if found := matchBlockedWords(t, inappropriateWords); len(found) > 0 {
		return CategoryInappropriate, found
	}
	return CategoryClean, nil
}

// ShouldRedirect reports whether the text warrants the canned professional
// redirection instead of normal processing.
func (f *ProfanityFilter) ShouldRedirect(text string) bool {
	category, _ := f.Categorize(text)
	if f.strict {
		return category != CategoryClean
	}
	return category == CategoryProfanity
}

// Mask replaces blocked words with their first letter plus asterisks.
func (f *ProfanityFilter) Mask(text string) string {
	result := text
	all := make([]string, 0, len(profanityWords)+len(aggressionWords)+len(inappropriateWords))
	all = append(all, profanityWords...)
	all = append(all, aggressionWords...)
	all = append(all, inappropriateWords...)
	for _, word := range all {
		if len(word) <= 2 {
			continue
		}
		p := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
		replacement := word[:1] + strings.Repeat("*", len(word)-1)
		result = p.ReplaceAllString(result, replacement)
	}
	return result
}

// RedirectionResponse picks a professional redirection message. Selection
// keys off the input so the same prompt gets the same answer.
func (f *ProfanityFilter) RedirectionResponse(text string) string {
	sum := 0
	for _, r := range text {
		sum += int(r)
	}
	if sum < 0 {
		sum = -sum
	}
	return redirectionResponses[sum%len(redirectionResponses)]
}

func matchBlockedWords(text string, blocked []string) []string {
	var found []string
	for _, word := range blocked {
		if !containsWord(text, word) {
			continue
		}
		if inAllowedContext(text, word) {
			continue
		}
		found = append(found, word)
	}
	return found
}

func inAllowedContext(text, word string) bool {
	for _, ctx := range contextExceptions[word] {
		if strings.Contains(text, ctx) {
			return true
		}
	}
	return false
}
