package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/markdave123-py/intellidoc/internal/core"
	"github.com/markdave123-py/intellidoc/internal/core/nlp"
)

// Fixed confidences for generation-backed results; the API does not report
// calibrated scores for free-form output.
const (
	classifyConfidence  = 0.8
	summarizeConfidence = 0.8
	answerConfidence    = 0.7
)

// GeminiCapability implements core.AICapability over a GeminiLLM. Each
// operation wraps Generate with a task-specific system prompt; malformed
// classifier output falls back to the keyword heuristic rather than failing
// the document.
type GeminiCapability struct {
	llm *GeminiLLM
}

func NewGeminiCapability(llm *GeminiLLM) *GeminiCapability {
	return &GeminiCapability{llm: llm}
}

func (g *GeminiCapability) Classify(ctx context.Context, text string) (string, float64, error) {
	system := fmt.Sprintf(
		"You classify documents. Respond with exactly one of these labels and nothing else: %s.",
		strings.Join(nlp.Categories, ", "))

	out, err := g.llm.Generate(ctx, system, truncate(text, 8000))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", core.ErrCapabilityUnavailable, err)
	}

	label := strings.ToLower(strings.TrimSpace(out))
	for _, c := range nlp.Categories {
		if label == c {
			return label, classifyConfidence, nil
		}
	}
	// Model went off-script; the keyword heuristic always yields a label.
	label, confidence := nlp.KeywordClassify(text)
	return label, confidence, nil
}

func (g *GeminiCapability) Summarize(ctx context.Context, text string) (string, float64, error) {
	const system = "Summarize the document in at most three sentences. Respond with the summary only."
	out, err := g.llm.Generate(ctx, system, truncate(text, 16000))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", core.ErrCapabilityUnavailable, err)
	}
	return strings.TrimSpace(out), summarizeConfidence, nil
}

func (g *GeminiCapability) Answer(ctx context.Context, question, docContext string) (string, float64, error) {
	const system = "You are an assistant answering based only on the given document content. If unsure, say 'I cannot find this in the document.'"
	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", truncate(docContext, 16000), question)

	out, err := g.llm.Generate(ctx, system, prompt)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", core.ErrCapabilityUnavailable, err)
	}
	return strings.TrimSpace(out), answerConfidence, nil
}

// truncate bounds prompt size; the cut is byte-based which is fine for a
// context window guard.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

var _ core.AICapability = (*GeminiCapability)(nil)
