package guardrail

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"

	"gonum.org/v1/gonum/floats"
)

// biasModel is a TF-IDF + logistic-regression binary classifier exported
// from the offline training pipeline as a JSON artifact. It reproduces the
// trained vectorizer exactly: raw term counts weighted by IDF, L2
// normalized, then a dot product with the coefficient vector.
type biasModel struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
	Coef       []float64      `json:"coefficients"`
	Intercept  float64        `json:"intercept"`
}

// Tokens of two or more word characters, matching the vectorizer's default
// token pattern.
var biasTokenPattern = regexp.MustCompile(`\b\w\w+\b`)

func loadBiasModel(path string) (*biasModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bias model: %w", err)
	}
	var m biasModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode bias model: %w", err)
	}
	if len(m.Vocabulary) == 0 {
		return nil, fmt.Errorf("bias model has empty vocabulary")
	}
	if len(m.IDF) != len(m.Vocabulary) || len(m.Coef) != len(m.Vocabulary) {
		return nil, fmt.Errorf("bias model shape mismatch: vocab=%d idf=%d coef=%d",
			len(m.Vocabulary), len(m.IDF), len(m.Coef))
	}
	for term, idx := range m.Vocabulary {
		if idx < 0 || idx >= len(m.IDF) {
			return nil, fmt.Errorf("bias model vocabulary index out of range: %q -> %d", term, idx)
		}
	}
	return &m, nil
}

// Probability returns the predicted probability of the biased class for
// normalized text. The vectorizer counts unigrams and adjacent-pair
// bigrams, matching the trained feature space.
func (m *biasModel) Probability(text string) float64 {
	tokens := biasTokenPattern.FindAllString(text, -1)
	vec := make([]float64, len(m.IDF))
	add := func(term string) {
		if idx, ok := m.Vocabulary[term]; ok {
			vec[idx] += m.IDF[idx]
		}
	}
	for i, token := range tokens {
		add(token)
		if i+1 < len(tokens) {
			add(token + " " + tokens[i+1])
		}
	}
	norm := floats.Norm(vec, 2)
	if norm == 0 {
		return 0
	}
	floats.Scale(1/norm, vec)
	z := floats.Dot(vec, m.Coef) + m.Intercept
	return 1 / (1 + math.Exp(-z))
}
