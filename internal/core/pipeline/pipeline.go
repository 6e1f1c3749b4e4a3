// Package pipeline orchestrates document indexing: fetch the stored original,
// extract text, classify/summarize, embed, chunk and write the vector index,
// then commit the document record in one logical write.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/google/uuid"
	"github.com/markdave123-py/intellidoc/internal/core"
	"github.com/markdave123-py/intellidoc/internal/core/chunker"
	"github.com/markdave123-py/intellidoc/internal/core/vectorindex"
	"github.com/markdave123-py/intellidoc/internal/models"
)

// Config tunes the pipeline.
//
// ChunkSize/Overlap: character chunking parameters.
// StepTimeout: upper bound for each external call (extraction, model
// inference, index writes). Zero means 2 minutes.
type Config struct {
	ChunkSize   int
	Overlap     int
	StepTimeout time.Duration
}

func (c *Config) stepTimeout() time.Duration {
	if c.StepTimeout <= 0 {
		return 2 * time.Minute
	}
	return c.StepTimeout
}

// Pipeline drives the per-document state machine
// uploaded -> extracting -> (extracted | extraction_failed) -> processed.
// Jobs come in over a bounded channel consumed by worker goroutines.
type Pipeline struct {
	store     core.RecordStore
	objects   core.ObjectStore
	extractor core.DocumentExtractor
	embedder  core.EmbeddingProvider
	ai        core.AICapability
	index     vectorindex.Index
	cfg       *Config
	jobs      chan string
}

func New(store core.RecordStore, objects core.ObjectStore, extractor core.DocumentExtractor,
	embedder core.EmbeddingProvider, ai core.AICapability, index vectorindex.Index, cfg *Config) *Pipeline {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Pipeline{
		store: store, objects: objects, extractor: extractor,
		embedder: embedder, ai: ai, index: index, cfg: cfg,
		jobs: make(chan string, 64),
	}
}

// Start launches numWorkers goroutines draining the jobs channel until the
// context is cancelled.
func (p *Pipeline) Start(ctx context.Context, numWorkers int) {
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					log.Printf("pipeline: worker %d shutting down", w)
					return
				case docID := <-p.jobs:
					log.Printf("pipeline: worker %d processing document %s", w, docID)
					if err := p.ProcessOne(ctx, docID); err != nil {
						log.Printf("pipeline: document %s failed: %v", docID, err)
					}
				}
			}
		}(w)
	}
}

// Enqueue schedules a document for indexing. Blocks when the queue is full.
func (p *Pipeline) Enqueue(docID string) {
	p.jobs <- docID
}

// ProcessOne runs the whole state machine for one document. Safe to re-run
// after a failed or cancelled attempt: chunk ids are deterministic, so the
// index upserts replace rather than duplicate.
func (p *Pipeline) ProcessOne(ctx context.Context, docID string) error {
	doc, err := p.store.GetDocumentByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", docID, err)
	}
	if doc == nil {
		return fmt.Errorf("document %s: %w", docID, core.ErrNotFound)
	}

	if err := p.store.UpdateDocumentStatus(ctx, docID, models.StatusExtracting); err != nil {
		return fmt.Errorf("mark extracting: %w", err)
	}

	data, err := p.fetchOriginal(ctx, doc.StorageKey)
	if err != nil {
		// Infra failure, not an extraction verdict: return to uploaded so a
		// retry starts clean.
		_ = p.store.UpdateDocumentStatus(ctx, docID, models.StatusUploaded)
		return fmt.Errorf("fetch original for %s: %w", docID, err)
	}

	ext, err := p.extractText(ctx, data, doc.MimeType)
	if err != nil {
		// Terminal: the record keeps its upload-time metadata, content and
		// processed_at stay null. Re-upload is the retry path.
		_ = p.store.UpdateDocumentStatus(ctx, docID, models.StatusExtractionFailed)
		return fmt.Errorf("document %s: %w", docID, err)
	}

	if err := p.store.UpdateDocumentStatus(ctx, docID, models.StatusExtracted); err != nil {
		return fmt.Errorf("mark extracted: %w", err)
	}

	return p.indexDocument(ctx, doc, ext.Text)
}

// indexDocument runs step 4 of the state machine over already-extracted text:
// best-effort classification and summarization, a hard-required embedding,
// chunk upserts, then the single processed write. If that final write fails
// the freshly written chunks are rolled back so the two stores stay
// consistent.
func (p *Pipeline) indexDocument(ctx context.Context, doc *models.Document, text string) error {
	var (
		category     string
		classifyConf float64
		summary      string
		summaryConf  float64
		classifyOK   bool
		summarizeOK  bool
	)
	if doc.Category != nil {
		category = *doc.Category
	}

	// Classification and summarization are independent; run them together.
	// Failures degrade to empty results instead of failing the document.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stepCtx, cancel := context.WithTimeout(gctx, p.cfg.stepTimeout())
		defer cancel()
		label, confidence, err := p.ai.Classify(stepCtx, text)
		if err != nil {
			log.Printf("pipeline: classification degraded for %s: %v", doc.ID, err)
			return nil
		}
		category, classifyConf, classifyOK = label, confidence, true
		return nil
	})
	g.Go(func() error {
		stepCtx, cancel := context.WithTimeout(gctx, p.cfg.stepTimeout())
		defer cancel()
		s, confidence, err := p.ai.Summarize(stepCtx, text)
		if err != nil {
			log.Printf("pipeline: summarization degraded for %s: %v", doc.ID, err)
			return nil
		}
		summary, summaryConf, summarizeOK = s, confidence, true
		return nil
	})
	_ = g.Wait() // the goroutines never return errors, only degrade

	// One embedding of the full text, reused for every chunk of the
	// document. Chunks without vectors are useless, so this one is fatal.
	embedCtx, cancel := context.WithTimeout(ctx, p.cfg.stepTimeout())
	vecs, err := p.embedder.EmbedTexts(embedCtx, []string{text})
	cancel()
	if err != nil || len(vecs) == 0 || len(vecs[0]) == 0 {
		if err == nil {
			err = core.ErrEmbeddingUnavailable
		}
		return fmt.Errorf("embed document %s: %w", doc.ID, err)
	}
	docVector := vecs[0]

	pieces := chunker.Split(text, p.cfg.ChunkSize, p.cfg.Overlap)
	chunks := make([]vectorindex.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = vectorindex.Chunk{
			ID:     fmt.Sprintf("%s_chunk_%d", doc.ID, i),
			Vector: docVector,
			Text:   piece,
			Metadata: map[string]string{
				vectorindex.MetaParentDocID: doc.ID,
				vectorindex.MetaOwnerID:     doc.OwnerID,
				vectorindex.MetaFileName:    doc.OriginalFileName,
				vectorindex.MetaCategory:    category,
				vectorindex.MetaChunkIndex:  strconv.Itoa(i),
			},
		}
	}

	if err := p.withRetry(ctx, "upsert chunks", func(c context.Context) error {
		return p.index.UpsertChunks(c, chunks)
	}); err != nil {
		return fmt.Errorf("index chunks for %s: %w", doc.ID, err)
	}

	upd := &models.DocumentUpdate{
		Content:     text,
		Category:    category,
		Confidence:  classifyConf,
		Summary:     summary,
		Status:      models.StatusProcessed,
		ProcessedAt: time.Now().UTC(),
	}
	if err := p.withRetry(ctx, "update record", func(c context.Context) error {
		return p.store.UpdateDocumentProcessed(c, doc.ID, upd)
	}); err != nil {
		// Roll back the chunks so a failed record write never leaves orphans
		// in the vector index.
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.stepTimeout())
		defer cancel()
		if rbErr := p.index.DeleteByParent(rbCtx, doc.ID); rbErr != nil {
			log.Printf("pipeline: rollback of chunks for %s failed: %v", doc.ID, rbErr)
		}
		return fmt.Errorf("finalize document %s: %w", doc.ID, err)
	}

	p.recordAnalyses(ctx, doc.ID, category, classifyConf, classifyOK, summary, summaryConf, summarizeOK)
	return nil
}

// Delete removes a document everywhere. The record goes first: once it is
// gone a concurrent indexing run can no longer commit its processed write, so
// the vector cleanup that follows cannot race against fresh chunk upserts.
// Success is reported only after that cleanup.
func (p *Pipeline) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	doc, err := p.store.GetDocument(ctx, id, ownerID)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}

	deleted, err := p.store.DeleteDocument(ctx, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete record %s: %w", id, err)
	}
	if !deleted {
		return false, nil
	}

	// The record is already gone; cleanup must run to completion even if the
	// request context gets cancelled mid-way.
	cleanupCtx := context.WithoutCancel(ctx)
	if err := p.index.DeleteByParent(cleanupCtx, id); err != nil {
		return false, fmt.Errorf("delete chunks for %s: %w", id, err)
	}

	if doc.StorageKey != "" {
		if err := p.objects.Delete(cleanupCtx, doc.StorageKey); err != nil {
			log.Printf("pipeline: could not delete stored original %s: %v", doc.StorageKey, err)
		}
	}
	return true, nil
}

func (p *Pipeline) fetchOriginal(ctx context.Context, key string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.stepTimeout())
	defer cancel()
	return p.objects.Get(fetchCtx, key)
}

func (p *Pipeline) extractText(ctx context.Context, data []byte, mimeType string) (*core.Extraction, error) {
	extractCtx, cancel := context.WithTimeout(ctx, p.cfg.stepTimeout())
	defer cancel()
	return p.extractor.ExtractText(extractCtx, data, mimeType)
}

// withRetry runs op once and retries a single time on failure. Store and
// index writes get exactly one second chance before the error surfaces.
func (p *Pipeline) withRetry(ctx context.Context, what string, op func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, p.cfg.stepTimeout())
		lastErr = op(opCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		log.Printf("pipeline: %s attempt %d failed: %v", what, attempt+1, lastErr)
	}
	return lastErr
}

func (p *Pipeline) recordAnalyses(ctx context.Context, docID, category string, classifyConf float64, classifyOK bool,
	summary string, summaryConf float64, summarizeOK bool) {
	now := time.Now().UTC()
	if classifyOK {
		a := &models.DocumentAnalysis{
			ID: uuid.NewString(), DocumentID: docID, Type: "classification",
			Result: category, Confidence: classifyConf, CreatedAt: now,
		}
		if err := p.store.CreateAnalysis(ctx, a); err != nil {
			log.Printf("pipeline: could not record classification analysis for %s: %v", docID, err)
		}
	}
	if summarizeOK {
		a := &models.DocumentAnalysis{
			ID: uuid.NewString(), DocumentID: docID, Type: "summarization",
			Result: summary, Confidence: summaryConf, CreatedAt: now,
		}
		if err := p.store.CreateAnalysis(ctx, a); err != nil {
			log.Printf("pipeline: could not record summarization analysis for %s: %v", docID, err)
		}
	}
}
