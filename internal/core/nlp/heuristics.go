// Package nlp holds deterministic text heuristics: a keyword classifier, an
// extractive summarizer and a keyword-overlap answerer. They back the keyless
// dev mode and serve as the degraded path when a model misbehaves.
package nlp

import (
	"context"
	"strings"

	"github.com/markdave123-py/intellidoc/internal/core"
)

// Categories is the fixed label set documents classify into.
var Categories = []string{
	"contract", "invoice", "legal", "financial",
	"technical", "medical", "academic", "other",
}

var categoryKeywords = map[string][]string{
	"contract":  {"agreement", "contract", "terms", "conditions"},
	"invoice":   {"invoice", "payment", "amount", "due"},
	"legal":     {"legal", "court", "law", "attorney"},
	"financial": {"financial", "revenue", "profit", "loss"},
	"technical": {"technical", "specification", "requirements"},
	"medical":   {"medical", "patient", "diagnosis", "treatment"},
	"academic":  {"research", "study", "analysis", "paper"},
}

// KeywordClassify scores each category by the fraction of its keywords found
// in the text and returns the best label. Always yields a label; the floor is
// "other" with zero confidence.
func KeywordClassify(text string) (string, float64) {
	lower := strings.ToLower(text)

	best := "other"
	bestScore := 0.0
	for _, cat := range Categories {
		words, ok := categoryKeywords[cat]
		if !ok {
			continue
		}
		hits := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				hits++
			}
		}
		score := float64(hits) / float64(len(words))
		if score > bestScore {
			best, bestScore = cat, score
		}
	}
	return best, bestScore
}

// Heuristic implements core.AICapability without any model backend.
type Heuristic struct{}

func NewHeuristic() *Heuristic { return &Heuristic{} }

func (Heuristic) Classify(_ context.Context, text string) (string, float64, error) {
	label, confidence := KeywordClassify(text)
	return label, confidence, nil
}

// Summarize is extractive: short texts pass through, otherwise the first and
// penultimate sentences stand in for a summary.
func (Heuristic) Summarize(_ context.Context, text string) (string, float64, error) {
	if len(text) < 100 {
		return text, 1.0, nil
	}
	sentences := splitSentences(text)
	if len(sentences) <= 3 {
		return text, 1.0, nil
	}
	return sentences[0] + ". " + sentences[len(sentences)-2] + ".", 0.6, nil
}

// Answer picks the sentence with the highest question-word overlap.
func (Heuristic) Answer(_ context.Context, question, docContext string) (string, float64, error) {
	words := strings.Fields(strings.ToLower(question))
	if len(words) == 0 {
		return "", 0, nil
	}

	best := ""
	bestScore := 0
	for _, sentence := range strings.Split(docContext, ".") {
		lower := strings.ToLower(sentence)
		score := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = strings.TrimSpace(sentence)
		}
	}

	confidence := float64(bestScore) / float64(len(words))
	if confidence > 1 {
		confidence = 1
	}
	return best, confidence, nil
}

func splitSentences(text string) []string {
	parts := strings.Split(text, ".")
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

var _ core.AICapability = (*Heuristic)(nil)
