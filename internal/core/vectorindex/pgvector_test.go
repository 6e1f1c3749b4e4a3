package vectorindex

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
)

// TestPGVectorIndexConformance runs the shared suite against a real Postgres
// with the pgvector extension. Set TEST_DATABASE_URL to enable.
func TestPGVectorIndexConformance(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	runConformance(t, func(t *testing.T) Index {
		idx, err := NewPGVectorIndex(context.Background(), db)
		require.NoError(t, err)
		_, err = db.Exec(`TRUNCATE document_chunks`)
		require.NoError(t, err)
		return idx
	})
}
