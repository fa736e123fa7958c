package flat

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pagetrail/pagetrail/internal/vectorstore"
)

// Store is the offline flat index: raw vectors in insertion order with
// parallel metadata, persisted as a single JSON file. Embeddings are
// L2-normalized at insertion so the query-time inner product equals cosine
// similarity. Queries are O(n); intended for thousands of pages, not
// production scale.
type Store struct {
	mu       sync.RWMutex
	path     string
	sessions map[string]vectorstore.SessionRecord
	entries  []entry
}

type entry struct {
	Page   vectorstore.Page `json:"page"`
	Vector []float32        `json:"vector"` // L2-normalized
}

type indexFile struct {
	Sessions  map[string]vectorstore.SessionRecord `json:"sessions"`
	Entries   []entry                              `json:"entries"`
	UpdatedAt time.Time                            `json:"updatedAt"`
}

// Open loads the index from path, starting empty when the file does not
// exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path:     path,
		sessions: make(map[string]vectorstore.SessionRecord),
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index file: %w", err)
	}
	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if idx.Sessions != nil {
		s.sessions = idx.Sessions
	}
	s.entries = idx.Entries
	return s, nil
}

func (s *Store) UpsertSession(ctx context.Context, rec vectorstore.SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("session id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.ID] = rec
	return s.saveLocked()
}

// UpsertPage inserts or replaces the entry keyed by (session ID, URL). Each
// write persists immediately; a page that made it to disk stays there even
// if a later write fails.
func (s *Store) UpsertPage(ctx context.Context, p vectorstore.Page) error {
	if p.SessionID == "" {
		return fmt.Errorf("session id required")
	}
	if p.URL == "" {
		return fmt.Errorf("url required")
	}
	vec, err := normalize(p.Embedding)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i := range s.entries {
		if s.entries[i].Page.SessionID == p.SessionID && s.entries[i].Page.URL == p.URL {
			s.entries[i] = entry{Page: p, Vector: vec}
			replaced = true
			break
		}
	}
	if !replaced {
		s.entries = append(s.entries, entry{Page: p, Vector: vec})
	}
	return s.saveLocked()
}

// Search normalizes the query and scans every stored vector. Inner product
// on normalized vectors is cosine similarity, so the filter and ordering
// match the relational backend exactly.
func (s *Store) Search(ctx context.Context, query []float32, topK int, minSimilarity float64) ([]vectorstore.Hit, error) {
	if topK <= 0 {
		topK = 10
	}
	q, err := normalize(query)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]vectorstore.Hit, 0, len(s.entries))
	for _, e := range s.entries {
		sim := dot(q, e.Vector)
		if sim < minSimilarity {
			continue
		}
		hits = append(hits, vectorstore.Hit{Page: e.Page, Similarity: sim})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Page.Timestamp > hits[j].Page.Timestamp
	})
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// Close persists the index one last time.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Count returns the number of indexed pages.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) saveLocked() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index dir: %w", err)
		}
	}
	data, err := json.Marshal(indexFile{
		Sessions:  s.sessions,
		Entries:   s.entries,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}
	return nil
}

func normalize(vec []float32) ([]float32, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("vector must not be empty")
	}
	var sum float64
	for _, f := range vec {
		sum += float64(f) * float64(f)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return nil, fmt.Errorf("vector must not be all zeros")
	}
	out := make([]float32, len(vec))
	for i, f := range vec {
		out[i] = float32(float64(f) / norm)
	}
	return out, nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
