package vectorstore

import "context"

// SessionRecord is the session-level row persisted alongside pages.
type SessionRecord struct {
	ID    string
	Start int64
	End   int64
	Title string
}

// Page is the unit stored in the vector index: one visit inside one session
// plus its embedding. Session identity is part of the record's meaning, so
// the same URL in different sessions yields independent rows.
type Page struct {
	SessionID string
	URL       string
	Title     string
	Snippet   string
	Timestamp int64 // epoch milliseconds
	Embedding []float32
}

// Hit is a ranked search result.
type Hit struct {
	Page       Page
	Similarity float64
}

// Store is the vector index contract. Two backends implement it: a pgvector
// relational store and an offline flat index. Both must produce the same
// rankings for the same data: similarity is cosine, minSimilarity is an
// inclusive hard filter, ties break toward the most recent visit.
type Store interface {
	// UpsertSession persists the session-level record. Idempotent by ID.
	UpsertSession(ctx context.Context, rec SessionRecord) error
	// UpsertPage persists one embedded page. Idempotent by
	// (session ID, URL): re-ingestion updates in place, never duplicates.
	UpsertPage(ctx context.Context, p Page) error
	// Search returns up to topK pages with cosine similarity to the query
	// vector of at least minSimilarity, best first. Pages below the
	// threshold are excluded entirely, even when that leaves fewer than
	// topK results.
	Search(ctx context.Context, query []float32, topK int, minSimilarity float64) ([]Hit, error)
	Close() error
}
