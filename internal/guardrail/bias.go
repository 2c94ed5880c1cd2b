package guardrail

import (
	"log"
	"regexp"
)

// Safe-topic allow-list. A match here wins over everything else so routine
// career queries ("women in tech", "career advice") are never flagged.
var biasSafeTopics = []string{
	"behavioral interview",
	"linkedin profile",
	"resume",
	"cv",
	"scholarships for women",
	"women in tech",
	"women coders",
	"mentorship",
	"career advice",
	"job search",
	"interview prep",
	"prepare for interview",
}

// Explicit biased-phrasing patterns, checked before the statistical model.
var biasPatterns = []*regexp.Regexp{
	regexp.MustCompile(`women (are|is) (not|less|worse|weaker|inferior)`),
	regexp.MustCompile(`men (are|is) (more|better|stronger|superior)`),
	regexp.MustCompile(`girls (can't|cannot|don't|do not) (handle|understand|do|perform)`),
	regexp.MustCompile(`females (are|aren't|can't) (as|good|capable)`),
	regexp.MustCompile(`too emotional for`),
	regexp.MustCompile(`belongs in the kitchen`),
	regexp.MustCompile(`women should be`),
	regexp.MustCompile(`gender stereotype`),
}

// BiasDetector combines the allow-list, explicit patterns and an optional
// pre-trained text classifier.
type BiasDetector struct {
	model     *biasModel
	threshold float64
}

// NewBiasDetector loads the model artifact at path. A load failure is not
// fatal: bias detection fails open and runs on patterns alone.
func NewBiasDetector(path string, threshold float64) *BiasDetector {
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.8
	}
	d := &BiasDetector{threshold: threshold}
	if path == "" {
		return d
	}
	model, err := loadBiasModel(path)
	if err != nil {
		log.Printf("bias model unavailable, falling back to patterns only: %v", err)
		return d
	}
	d.model = model
	return d
}

// Biased reports whether normalized text expresses gender bias.
func (d *BiasDetector) Biased(text string) bool {
	t := Normalize(text)
	if t == "" {
		return false
	}
	for _, safe := range biasSafeTopics {
		if containsWord(t, safe) {
			return false
		}
	}
	for _, p := range biasPatterns {
		if p.MatchString(t) {
			return true
		}
	}
	if d.model == nil {
		return false
	}
	return d.model.Probability(t) > d.threshold
}
