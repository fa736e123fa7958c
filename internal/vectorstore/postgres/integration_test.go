package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pagetrail/pagetrail/internal/vectorstore"
	"github.com/pagetrail/pagetrail/internal/vectorstore/postgres"
)

func TestStoreAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	pgUser := "pagetrail"
	pgPassword := "pagetrail"
	pgDB := "pagetrail"

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("pgvector/pgvector:pg16"),
		tcPostgres.WithDatabase(pgDB),
		tcPostgres.WithUsername(pgUser),
		tcPostgres.WithPassword(pgPassword),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	defer func() { _ = pgC.Terminate(ctx) }()

	pgHost, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	pgPort, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pgUser, pgPassword, pgHost, pgPort.Port(), pgDB)
	if err := applySchema(ctx, dsn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	st, err := postgres.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	defer st.Close()

	if err := st.UpsertSession(ctx, vectorstore.SessionRecord{ID: "sess-1", Start: 1000, End: 2000, Title: "Reading"}); err != nil {
		t.Fatalf("upsert session: %v", err)
	}

	pages := []vectorstore.Page{
		{SessionID: "sess-1", URL: "https://exact.example", Title: "Exact", Timestamp: 1000, Embedding: []float32{1, 0, 0}},
		{SessionID: "sess-1", URL: "https://close.example", Title: "Close", Timestamp: 1100, Embedding: []float32{1, 1, 0}},
		{SessionID: "sess-1", URL: "https://far.example", Title: "Far", Timestamp: 1200, Embedding: []float32{0, 0, 1}},
	}
	for _, p := range pages {
		if err := st.UpsertPage(ctx, p); err != nil {
			t.Fatalf("upsert page %s: %v", p.URL, err)
		}
	}

	// Re-ingesting the same page updates the row instead of duplicating it.
	if err := st.UpsertPage(ctx, pages[0]); err != nil {
		t.Fatalf("re-upsert page: %v", err)
	}
	if got := countPages(t, ctx, st.DB); got != 3 {
		t.Fatalf("page count = %d, want 3", got)
	}

	hits, err := st.Search(ctx, []float32{1, 0, 0}, 10, 0.5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, orthogonal page must be filtered out", len(hits))
	}
	if hits[0].Page.URL != "https://exact.example" {
		t.Fatalf("top hit = %s, want exact match first", hits[0].Page.URL)
	}
	if hits[0].Similarity < 0.999 {
		t.Fatalf("exact match similarity = %f, want ~1.0", hits[0].Similarity)
	}
	if hits[1].Page.URL != "https://close.example" {
		t.Fatalf("second hit = %s", hits[1].Page.URL)
	}

	// topK caps the result set.
	hits, err = st.Search(ctx, []float32{1, 0, 0}, 1, 0)
	if err != nil {
		t.Fatalf("search with topK=1: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}
}

func applySchema(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	schemaSQL := `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  started_at BIGINT NOT NULL,
  ended_at BIGINT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pages (
  id BIGSERIAL PRIMARY KEY,
  session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  url TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  snippet TEXT NOT NULL DEFAULT '',
  visited_at BIGINT NOT NULL,
  embedding VECTOR(3) NOT NULL,
  UNIQUE (session_id, url)
);
`
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func countPages(t *testing.T, ctx context.Context, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		t.Fatalf("count pages: %v", err)
	}
	return n
}
