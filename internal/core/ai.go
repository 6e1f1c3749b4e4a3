package core

import "context"

// EmbeddingProvider converts a batch of texts into vectors, one per input,
// order preserved.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Classifier assigns a category label with a confidence in [0,1].
type Classifier interface {
	Classify(ctx context.Context, text string) (label string, confidence float64, err error)
}

// Summarizer produces a short summary of the text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (summary string, confidence float64, err error)
}

// Answerer answers a question against the given context text.
type Answerer interface {
	Answer(ctx context.Context, question, context string) (answer string, confidence float64, err error)
}

// AICapability bundles the non-embedding model operations the pipeline and
// query engine depend on. Implementations are swappable: a Gemini-backed one
// in production, deterministic heuristics in tests and keyless dev mode.
type AICapability interface {
	Classifier
	Summarizer
	Answerer
}
