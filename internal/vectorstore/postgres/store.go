package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"

	"github.com/pagetrail/pagetrail/internal/vectorstore"
)

// DefaultEmbeddingDimensions is the vector width the shipped migration pins
// for the pages.embedding column.
const DefaultEmbeddingDimensions = 768

// Store is the pgvector-backed index. Cosine distance comes from the `<=>`
// operator; similarity reported to callers is 1 - distance.
type Store struct {
	DB *sql.DB
}

// Open connects and pings the database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

// UpsertSession stores or refreshes the session-level record. The start
// timestamp is immutable once set; end and title track the latest export.
func (s *Store) UpsertSession(ctx context.Context, rec vectorstore.SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("session id required")
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO sessions (id, started_at, ended_at, title)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET
  ended_at = EXCLUDED.ended_at,
  title = EXCLUDED.title;
`, rec.ID, rec.Start, rec.End, rec.Title)
	return err
}

// UpsertPage stores one embedded page, keyed by (session_id, url) so
// re-ingestion is idempotent.
func (s *Store) UpsertPage(ctx context.Context, p vectorstore.Page) error {
	if p.SessionID == "" {
		return fmt.Errorf("session id required")
	}
	if p.URL == "" {
		return fmt.Errorf("url required")
	}
	vectorLiteral, err := encodeVectorLiteral(p.Embedding)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO pages (session_id, url, title, snippet, visited_at, embedding)
VALUES ($1,$2,$3,$4,$5,$6::vector)
ON CONFLICT (session_id, url) DO UPDATE SET
  title = EXCLUDED.title,
  snippet = EXCLUDED.snippet,
  visited_at = EXCLUDED.visited_at,
  embedding = EXCLUDED.embedding;
`, p.SessionID, p.URL, p.Title, p.Snippet, p.Timestamp, vectorLiteral)
	return err
}

// Search returns the closest pages for the query vector. The threshold is a
// hard filter applied in SQL: rows below minSimilarity never leave the
// database, even when fewer than topK remain.
func (s *Store) Search(ctx context.Context, query []float32, topK int, minSimilarity float64) ([]vectorstore.Hit, error) {
	if topK <= 0 {
		topK = 10
	}
	vecLiteral, err := encodeVectorLiteral(query)
	if err != nil {
		return nil, err
	}
	maxDistance := 1 - minSimilarity
	rows, err := s.DB.QueryContext(ctx, `
SELECT session_id, url, title, snippet, visited_at, 1 - (embedding <=> $1::vector) AS similarity
FROM pages
WHERE embedding <=> $1::vector <= $2
ORDER BY embedding <=> $1::vector ASC, visited_at DESC
LIMIT $3
`, vecLiteral, maxDistance, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []vectorstore.Hit
	for rows.Next() {
		var hit vectorstore.Hit
		if err := rows.Scan(&hit.Page.SessionID, &hit.Page.URL, &hit.Page.Title, &hit.Page.Snippet, &hit.Page.Timestamp, &hit.Similarity); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// encodeVectorLiteral renders a float32 slice as a pgvector text literal.
func encodeVectorLiteral(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("vector must not be empty")
	}
	var builder strings.Builder
	builder.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}
