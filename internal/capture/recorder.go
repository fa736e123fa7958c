package capture

import (
	"context"
	"log"
	"sync"
)

// Recorder serializes visit events into the owned session collection.
// Clustering itself is a pure function over (sessions, visit); the Recorder
// is the single writer that loads, places, and persists.
type Recorder struct {
	mu        sync.Mutex
	store     Store
	blacklist *Blacklist
	gapMillis int64
	snippet   int
	logger    *log.Logger
}

// NewRecorder wires a recorder. gapMillis <= 0 selects the 15-minute
// default; snippetMax <= 0 disables snippet bounding.
func NewRecorder(store Store, blacklist *Blacklist, gapMillis int64, snippetMax int, logger *log.Logger) *Recorder {
	if gapMillis <= 0 {
		gapMillis = DefaultIdleGapMillis
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[CAPTURE] ", log.LstdFlags)
	}
	return &Recorder{
		store:     store,
		blacklist: blacklist,
		gapMillis: gapMillis,
		snippet:   snippetMax,
		logger:    logger,
	}
}

// Record folds one visit into the session list. Blacklisted visits are
// dropped before anything touches the store; the bool reports whether the
// visit was captured. On capture the returned session is the target session
// after placement.
func (r *Recorder) Record(ctx context.Context, v Visit) (Session, bool, error) {
	if r.blacklist.Blocks(v.URL) {
		r.logger.Printf("blocked visit to disallowed host (ts=%d)", v.Timestamp)
		return Session{}, false, nil
	}
	v.Snippet = CleanSnippet(v.Snippet, r.snippet)

	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, err := r.store.Sessions(ctx)
	if err != nil {
		return Session{}, false, err
	}
	sessions, idx := Place(sessions, v, r.gapMillis)
	if err := r.store.Replace(ctx, sessions); err != nil {
		return Session{}, false, err
	}
	return sessions[idx], true, nil
}

// Sessions returns the current session list.
func (r *Recorder) Sessions(ctx context.Context) ([]Session, error) {
	return r.store.Sessions(ctx)
}

// Clear wipes the whole collection. Explicit user action only.
func (r *Recorder) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Clear(ctx)
}
