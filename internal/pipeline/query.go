package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/pagetrail/pagetrail/internal/telemetry"
	"github.com/pagetrail/pagetrail/internal/vectorstore"
)

const (
	// DefaultTopK bounds results when the caller passes no limit.
	DefaultTopK = 10
	// DefaultMinSimilarity is the hard relevance floor. Pages below it are
	// excluded, not merely ranked low.
	DefaultMinSimilarity = 0.2
)

// Result is one ranked page hit returned to the caller, filtered and
// ordered; the caller performs no additional filtering.
type Result struct {
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Snippet    string  `json:"snippet"`
	Timestamp  int64   `json:"timestamp"`
	Similarity float64 `json:"similarity"`
}

// QueryService answers semantic queries: embed the text, search the vector
// store, return ranked hits.
type QueryService struct {
	store    vectorstore.Store
	embedder Embedder
	logger   *log.Logger
}

func NewQueryService(store vectorstore.Store, embedder Embedder, logger *log.Logger) *QueryService {
	if logger == nil {
		logger = log.New(log.Writer(), "[QUERY] ", log.LstdFlags)
	}
	return &QueryService{store: store, embedder: embedder, logger: logger}
}

// Query embeds text and ranks stored pages by similarity. Unlike ingestion,
// an exhausted embedding retry budget here is fatal to the whole query:
// there is no partial result to fall back to, and an empty success would
// look like "no matches" when the real cause was a provider outage.
// topK <= 0 and minSimilarity <= 0 select the defaults.
func (q *QueryService) Query(ctx context.Context, text string, topK int, minSimilarity float64) ([]Result, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}

	vec, err := q.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := q.store.Search(ctx, vec, topK, minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	telemetry.Searches.Inc()

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			URL:        hit.Page.URL,
			Title:      hit.Page.Title,
			Snippet:    hit.Page.Snippet,
			Timestamp:  hit.Page.Timestamp,
			Similarity: hit.Similarity,
		})
	}
	return results, nil
}
