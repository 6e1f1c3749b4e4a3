package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/markdave123-py/intellidoc/internal/config"
	"github.com/markdave123-py/intellidoc/internal/core"
	db "github.com/markdave123-py/intellidoc/internal/core/database"
	"github.com/markdave123-py/intellidoc/internal/core/embedding"
	"github.com/markdave123-py/intellidoc/internal/core/extractor"
	"github.com/markdave123-py/intellidoc/internal/core/llm"
	"github.com/markdave123-py/intellidoc/internal/core/nlp"
	"github.com/markdave123-py/intellidoc/internal/core/pipeline"
	"github.com/markdave123-py/intellidoc/internal/core/query"
	"github.com/markdave123-py/intellidoc/internal/core/vectorindex"
	"github.com/markdave123-py/intellidoc/internal/objectstore"
)

type App struct {
	Store    core.RecordStore
	Objects  core.ObjectStore
	Index    vectorindex.Index
	Pipeline *pipeline.Pipeline
	Server   *Server
}

// NewApp wires the configured backends together: record store, vector index,
// object store and AI providers, then the pipeline, query engine and HTTP
// server. Worker goroutines start draining the ingest queue immediately.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	store, index, err := newStoreAndIndex(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("Record store ready (%s), vector index ready.", cfg.StoreBackend)

	objects, err := newObjectStore(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object store initialized and ready.")

	var provider core.EmbeddingProvider
	var capability core.AICapability
	if cfg.AIAPIKey != "" {
		geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
		}
		geminiLLM, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the llm, %w", err)
		}
		provider = geminiEmbedder
		capability = llm.NewGeminiCapability(geminiLLM)
	} else {
		log.Println("GEMINI_API_KEY not set; running with hash embeddings and heuristic analysis.")
		capability = nlp.NewHeuristic()
	}
	gateway := embedding.NewGateway(provider)

	docExtractor := extractor.NewDocconvExtractor(false)

	pl := pipeline.New(store, objects, docExtractor, gateway, capability, index, &pipeline.Config{
		ChunkSize: cfg.ChunkSize,
		Overlap:   cfg.ChunkOverlap,
	})
	pl.Start(ctx, cfg.IngestWorkers)

	engine := query.NewEngine(store, gateway, capability, index)

	server := NewServer(cfg, store, objects, pl, engine, index)

	return &App{Store: store, Objects: objects, Index: index, Pipeline: pl, Server: server}, nil
}

func newStoreAndIndex(ctx context.Context, cfg *config.Config) (core.RecordStore, vectorindex.Index, error) {
	if cfg.StoreBackend == "memory" {
		if cfg.VectorBackend == "pgvector" {
			log.Println("WARN: VECTOR_BACKEND=pgvector needs STORE_BACKEND=postgres; using memory index.")
		}
		return db.NewMemoryStore(), vectorindex.NewMemoryIndex(), nil
	}

	store, err := db.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	if cfg.VectorBackend == "memory" {
		return store, vectorindex.NewMemoryIndex(), nil
	}

	index, err := vectorindex.NewPGVectorIndex(ctx, store.Pool())
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, index, nil
}

func newObjectStore(ctx context.Context, cfg *config.Config) (core.ObjectStore, error) {
	if cfg.BucketName != "" {
		return objectstore.NewS3Store(ctx, cfg)
	}
	return objectstore.NewLocalStore(cfg.UploadDir)
}

func (a *App) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
}
