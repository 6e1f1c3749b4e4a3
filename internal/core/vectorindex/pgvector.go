package vectorindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"github.com/pgvector/pgvector-go"
)

// PGVectorIndex is the durable backend on Postgres + pgvector. Chunk metadata
// lives in a jsonb column so equality filters work for arbitrary fields; the
// parent document id is duplicated into its own column for fast cascades.
type PGVectorIndex struct {
	db *sql.DB
}

// NewPGVectorIndex ensures the chunks table exists on the shared connection
// pool and returns the index.
func NewPGVectorIndex(ctx context.Context, db *sql.DB) (*PGVectorIndex, error) {
	const ddl = `
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS document_chunks (
			id          TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			text        TEXT NOT NULL,
			embedding   vector,
			metadata    JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_document_chunks_document_id ON document_chunks (document_id);
		CREATE INDEX IF NOT EXISTS idx_document_chunks_metadata ON document_chunks USING gin (metadata);
	`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("ensure chunks table: %w", err)
	}
	return &PGVectorIndex{db: db}, nil
}

// UpsertChunks writes all chunks in one transaction; re-adding an id replaces
// the stored entry.
func (p *PGVectorIndex) UpsertChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}

	const q = `
		INSERT INTO document_chunks (id, document_id, text, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET document_id = EXCLUDED.document_id,
		    text        = EXCLUDED.text,
		    embedding   = EXCLUDED.embedding,
		    metadata    = EXCLUDED.metadata
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal metadata for %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Metadata[MetaParentDocID], c.Text, pgvector.NewVector(c.Vector), meta,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// Search ranks by cosine similarity using the <=> distance operator, ties by
// id so results are reproducible.
func (p *PGVectorIndex) Search(ctx context.Context, queryVector []float32, k int, filter map[string]string) ([]Result, error) {
	if k <= 0 {
		k = 10
	}
	where, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}

	const q = `
		SELECT id, text, metadata, embedding <=> $1 AS distance
		FROM document_chunks
		WHERE metadata @> $2::jsonb
		ORDER BY embedding <=> $1 ASC, id ASC
		LIMIT $3
	`
	rows, err := p.db.QueryContext(ctx, q, pgvector.NewVector(queryVector), where, k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			r        Result
			metaJSON []byte
			distance float64
		)
		if err := rows.Scan(&r.ID, &r.Text, &metaJSON, &distance); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaJSON, &r.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for %s: %w", r.ID, err)
		}
		// pgvector reports NaN distance for zero-norm vectors; score 0 keeps
		// the contract of never dividing by zero.
		if math.IsNaN(distance) {
			distance = 1
		}
		r.Distance = distance
		r.Score = 1 - distance
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PGVectorIndex) DeleteByParent(ctx context.Context, documentID string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete chunks for %s: %w", documentID, err)
	}
	return nil
}

func (p *PGVectorIndex) Stats(ctx context.Context) (Stats, error) {
	var count int
	if err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM document_chunks`).Scan(&count); err != nil {
		return Stats{}, fmt.Errorf("count chunks: %w", err)
	}
	return Stats{Count: count, Backend: "pgvector"}, nil
}

var _ Index = (*PGVectorIndex)(nil)
