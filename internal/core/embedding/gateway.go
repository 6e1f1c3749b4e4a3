// Package embedding wraps an EmbeddingProvider with batching and a
// deterministic degraded mode so indexing keeps working when the model
// backend is down.
package embedding

import (
	"context"
	"crypto/md5"
	"log"
	"sync/atomic"

	"github.com/markdave123-py/intellidoc/internal/core"
)

// FallbackDim is the dimensionality of hash-derived fallback vectors.
const FallbackDim = 128

// Gateway converts batches of text into vectors via the injected provider.
// If the provider is unavailable it falls back to md5-derived bit vectors.
// Those are NOT semantic: they allow exact-duplicate detection only, and the
// Degraded flag is set so callers can observe the loss of search quality.
type Gateway struct {
	provider core.EmbeddingProvider
	degraded atomic.Bool
}

func NewGateway(provider core.EmbeddingProvider) *Gateway {
	return &Gateway{provider: provider}
}

// EmbedTexts returns one vector per input text, order preserved. A batch of
// one is fine. It never returns an error together with usable output: either
// the provider succeeded, or every vector is a hash fallback.
func (g *Gateway) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if g.provider != nil {
		vecs, err := g.provider.EmbedTexts(ctx, texts)
		if err == nil && len(vecs) == len(texts) {
			g.degraded.Store(false)
			return vecs, nil
		}
		if err != nil {
			log.Printf("embedding: provider failed, using hash fallback: %v", err)
		} else {
			log.Printf("embedding: provider returned %d vectors for %d texts, using hash fallback", len(vecs), len(texts))
		}
	}

	g.degraded.Store(true)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t)
	}
	return out, nil
}

// Degraded reports whether the last batch was served by the hash fallback.
func (g *Gateway) Degraded() bool {
	return g.degraded.Load()
}

// hashVector expands the md5 digest of text into a fixed-length bit vector.
// Identical inputs always map to identical vectors.
func hashVector(text string) []float32 {
	sum := md5.Sum([]byte(text))
	vec := make([]float32, FallbackDim)
	for i := 0; i < FallbackDim; i++ {
		if sum[i/8]>>(uint(i)%8)&1 == 1 {
			vec[i] = 1
		}
	}
	return vec
}

var _ core.EmbeddingProvider = (*Gateway)(nil)
