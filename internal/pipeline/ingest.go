package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pagetrail/pagetrail/internal/capture"
	"github.com/pagetrail/pagetrail/internal/telemetry"
	"github.com/pagetrail/pagetrail/internal/vectorstore"
)

// Embedder turns text into a fixed-dimension vector. Satisfied by
// embed.Client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Report summarizes one ingestion run.
type Report struct {
	SessionsProcessed int `json:"sessionsProcessed"`
	PagesEmbedded     int `json:"pagesEmbedded"`
	PagesSkipped      int `json:"pagesSkipped"`
}

// Ingestor reads exported sessions and writes embedded pages to the vector
// store. Sessions are distributed over a bounded worker pool to keep the
// provider request volume controlled; pages within a session are processed
// in order.
type Ingestor struct {
	store    vectorstore.Store
	embedder Embedder
	workers  int
	logger   *log.Logger
}

// NewIngestor wires an ingestor. workers <= 0 selects 3.
func NewIngestor(store vectorstore.Store, embedder Embedder, workers int, logger *log.Logger) *Ingestor {
	if workers <= 0 {
		workers = 3
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	return &Ingestor{store: store, embedder: embedder, workers: workers, logger: logger}
}

// Ingest processes every session. An embedding failure skips that one page
// and continues; a store write failure stops the run, since silently losing
// committed-looking data would break the idempotency guarantee. Every page
// write is its own committed unit: cancellation or a late failure leaves
// earlier writes intact, and the report counts whatever was processed.
func (ing *Ingestor) Ingest(ctx context.Context, sessions []capture.Session) (Report, error) {
	var (
		processed atomic.Int64
		embedded  atomic.Int64
		skipped   atomic.Int64
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		runErr   error
		sessCh   = make(chan capture.Session)
		failFast = func(err error) {
			errOnce.Do(func() {
				runErr = err
				cancel()
			})
		}
	)

	workers := ing.workers
	if workers > len(sessions) && len(sessions) > 0 {
		workers = len(sessions)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sess := range sessCh {
				if err := ing.ingestSession(ctx, sess, &embedded, &skipped); err != nil {
					failFast(err)
					return
				}
				processed.Add(1)
			}
		}()
	}

feed:
	for _, sess := range sessions {
		select {
		case sessCh <- sess:
		case <-ctx.Done():
			break feed
		}
	}
	close(sessCh)
	wg.Wait()

	report := Report{
		SessionsProcessed: int(processed.Load()),
		PagesEmbedded:     int(embedded.Load()),
		PagesSkipped:      int(skipped.Load()),
	}
	if runErr != nil {
		return report, runErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	ing.logger.Printf("ingested %d sessions: %d pages embedded, %d skipped",
		report.SessionsProcessed, report.PagesEmbedded, report.PagesSkipped)
	return report, nil
}

func (ing *Ingestor) ingestSession(ctx context.Context, sess capture.Session, embedded, skipped *atomic.Int64) error {
	if err := ing.store.UpsertSession(ctx, vectorstore.SessionRecord{
		ID:    sess.ID,
		Start: sess.Start,
		End:   sess.End,
		Title: sess.Title,
	}); err != nil {
		return fmt.Errorf("upsert session %s: %w", sess.ID, err)
	}

	for _, page := range sess.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		vec, err := ing.embedder.Embed(ctx, BuildEmbeddingText(page))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// One dead page must never abort the session or the run.
			ing.logger.Printf("skip page %s in session %s: %v", page.URL, sess.ID, err)
			skipped.Add(1)
			telemetry.PagesSkipped.Inc()
			continue
		}
		if err := ing.store.UpsertPage(ctx, vectorstore.Page{
			SessionID: sess.ID,
			URL:       page.URL,
			Title:     page.Title,
			Snippet:   page.Snippet,
			Timestamp: page.Timestamp,
			Embedding: vec,
		}); err != nil {
			return fmt.Errorf("upsert page %s: %w", page.URL, err)
		}
		embedded.Add(1)
		telemetry.PagesEmbedded.Inc()
	}
	return nil
}

// BuildEmbeddingText composes the text blob embedded for one page: the
// title (URL when untitled), the snippet, and the URL itself so hostnames
// and slugs contribute to the vector.
func BuildEmbeddingText(v capture.Visit) string {
	var b strings.Builder
	if v.Title != "" {
		b.WriteString(v.Title)
	} else {
		b.WriteString(v.URL)
	}
	b.WriteString("\n")
	b.WriteString(v.Snippet)
	b.WriteString("\n")
	b.WriteString(v.URL)
	return b.String()
}
