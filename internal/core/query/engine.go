// Package query answers questions over single documents and runs semantic
// search across an owner's corpus.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/markdave123-py/intellidoc/internal/core"
	"github.com/markdave123-py/intellidoc/internal/core/vectorindex"
	"github.com/markdave123-py/intellidoc/internal/models"
)

// Engine wires the embedding gateway, vector index and record store into the
// two read operations: Ask and Search.
type Engine struct {
	store       core.RecordStore
	embedder    core.EmbeddingProvider
	answerer    core.Answerer
	index       vectorindex.Index
	stepTimeout time.Duration
}

func NewEngine(store core.RecordStore, embedder core.EmbeddingProvider, answerer core.Answerer, index vectorindex.Index) *Engine {
	return &Engine{
		store:       store,
		embedder:    embedder,
		answerer:    answerer,
		index:       index,
		stepTimeout: 2 * time.Minute,
	}
}

// Ask runs question-answering over the full content of one document. The
// capability's answer and confidence pass through verbatim.
func (e *Engine) Ask(ctx context.Context, documentID, ownerID, question string) (*models.Answer, error) {
	doc, err := e.store.GetDocument(ctx, documentID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", documentID, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s: %w", documentID, core.ErrNotFound)
	}
	if doc.Content == nil {
		return nil, fmt.Errorf("document %s: %w", documentID, core.ErrNotProcessed)
	}

	askCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()
	answer, confidence, err := e.answerer.Answer(askCtx, question, *doc.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCapabilityUnavailable, err)
	}
	return &models.Answer{Answer: answer, Confidence: confidence}, nil
}

// Search embeds the query and returns the owner's best-matching chunks in the
// index's ranking order.
func (e *Engine) Search(ctx context.Context, ownerID, queryText string, limit int) ([]vectorindex.Result, error) {
	embedCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	vecs, err := e.embedder.EmbedTexts(embedCtx, []string{queryText})
	cancel()
	if err != nil || len(vecs) == 0 || len(vecs[0]) == 0 {
		if err == nil {
			err = core.ErrEmbeddingUnavailable
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := e.index.Search(ctx, vecs[0], limit, map[string]string{
		vectorindex.MetaOwnerID: ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}
