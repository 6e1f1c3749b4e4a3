package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/intellidoc/internal/core"
	"github.com/markdave123-py/intellidoc/internal/models"
)

// PostgresStore implements core.RecordStore on Postgres via the pgx stdlib
// driver. Update/delete statements on the same document serialize on row
// locks, which gives the per-document mutual exclusion the pipeline relies
// on.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the pool, pings, runs the schema bootstrap and
// returns the store. The *sql.DB is exposed via Pool for components that
// share the connection (the pgvector index).
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	pool, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	pool.SetMaxOpenConns(20)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(30 * time.Minute)
	pool.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, pool); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &PostgresStore{db: pool}, nil
}

// Pool returns the underlying connection pool.
func (s *PostgresStore) Pool() *sql.DB { return s.db }

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, email, password, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`
	_, err := s.db.ExecContext(ctx, q, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	return err
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT id, email, password, created_at FROM users WHERE email = $1`
	var u models.User
	err := s.db.QueryRowContext(ctx, q, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const documentColumns = `
	id, owner_id, file_name, original_file_name, storage_key, mime_type,
	file_size, content, summary, category, confidence_score, status,
	created_at, processed_at
`

func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	var d models.Document
	err := row.Scan(
		&d.ID, &d.OwnerID, &d.FileName, &d.OriginalFileName, &d.StorageKey, &d.MimeType,
		&d.FileSize, &d.Content, &d.Summary, &d.Category, &d.Confidence, &d.Status,
		&d.CreatedAt, &d.ProcessedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(id, owner_id, file_name, original_file_name, storage_key, mime_type,
			 file_size, category, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()))
	`
	_, err := s.db.ExecContext(ctx, q,
		doc.ID, doc.OwnerID, doc.FileName, doc.OriginalFileName, doc.StorageKey, doc.MimeType,
		doc.FileSize, doc.Category, doc.Status, doc.CreatedAt)
	return err
}

func (s *PostgresStore) GetDocument(ctx context.Context, id, ownerID string) (*models.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND owner_id = $2`
	return scanDocument(s.db.QueryRowContext(ctx, q, id, ownerID))
}

func (s *PostgresStore) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(s.db.QueryRowContext(ctx, q, id))
}

func (s *PostgresStore) ListDocuments(ctx context.Context, ownerID string, skip, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, q, ownerID, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateDocumentStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE documents SET status = $2 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update status %q: %w", id, core.ErrNotFound)
	}
	return nil
}

// UpdateDocumentProcessed performs the pipeline's single logical write:
// content, category, confidence, summary, status and processed_at land in one
// statement so the processed_at-implies-content invariant holds under any
// concurrent reader.
func (s *PostgresStore) UpdateDocumentProcessed(ctx context.Context, id string, upd *models.DocumentUpdate) error {
	if upd == nil {
		return errors.New("nil update")
	}
	const q = `
		UPDATE documents
		SET content = $2,
		    category = NULLIF($3, ''),
		    confidence_score = $4,
		    summary = NULLIF($5, ''),
		    status = $6,
		    processed_at = $7
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, q,
		id, upd.Content, upd.Category, upd.Confidence, upd.Summary, upd.Status, upd.ProcessedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update processed %q: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, id, ownerID string) (bool, error) {
	// Analyses cascade via the FK.
	const q = `DELETE FROM documents WHERE id = $1 AND owner_id = $2`
	res, err := s.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *PostgresStore) CountDocuments(ctx context.Context, ownerID string) (int, int, error) {
	const q = `
		SELECT count(*), count(processed_at)
		FROM documents
		WHERE owner_id = $1
	`
	var total, processed int
	if err := s.db.QueryRowContext(ctx, q, ownerID).Scan(&total, &processed); err != nil {
		return 0, 0, err
	}
	return total, processed, nil
}

func (s *PostgresStore) CategoryCounts(ctx context.Context, ownerID string) (map[string]int, error) {
	const q = `
		SELECT COALESCE(category, ''), count(*)
		FROM documents
		WHERE owner_id = $1
		GROUP BY category
	`
	rows, err := s.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		out[cat] = n
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateAnalysis(ctx context.Context, a *models.DocumentAnalysis) error {
	if a == nil {
		return errors.New("nil analysis")
	}
	const q = `
		INSERT INTO document_analyses (id, document_id, analysis_type, result, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`
	_, err := s.db.ExecContext(ctx, q, a.ID, a.DocumentID, a.Type, a.Result, a.Confidence, a.CreatedAt)
	return err
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, documentID string) ([]models.DocumentAnalysis, error) {
	const q = `
		SELECT id, document_id, analysis_type, result, confidence, created_at
		FROM document_analyses
		WHERE document_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DocumentAnalysis
	for rows.Next() {
		var a models.DocumentAnalysis
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.Type, &a.Result, &a.Confidence, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ core.RecordStore = (*PostgresStore)(nil)
