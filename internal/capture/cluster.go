package capture

import (
	"github.com/google/uuid"
)

// DefaultIdleGapMillis is the maximum gap between consecutive visits that
// still belong to the same session (15 minutes).
const DefaultIdleGapMillis int64 = 15 * 60 * 1000

// Visit is one observed page view, emitted by the upstream content extractor.
type Visit struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}

// Session is a contiguous cluster of visits separated by gaps no larger than
// the idle threshold. Normalized URLs are unique within Pages.
type Session struct {
	ID    string  `json:"id"`
	Start int64   `json:"start"`
	End   int64   `json:"end"`
	Title string  `json:"sessionTitle"`
	Pages []Visit `json:"pages"`
}

// Place folds a visit into the session list and returns the updated list
// along with the index of the target session.
//
// Visits must arrive in timestamp order; there is no reordering. Only the
// most recently created session is eligible: an older session is never
// reopened once a newer one exists, even if timestamps would qualify.
//
// A gap equal to gapMillis keeps the current session open; only a strictly
// larger gap starts a new one. gapMillis <= 0 selects the 15-minute default.
func Place(sessions []Session, v Visit, gapMillis int64) ([]Session, int) {
	if gapMillis <= 0 {
		gapMillis = DefaultIdleGapMillis
	}
	if len(sessions) == 0 {
		return append(sessions, newSession(v)), 0
	}

	idx := len(sessions) - 1
	last := &sessions[idx]
	if v.Timestamp-last.End > gapMillis {
		return append(sessions, newSession(v)), idx + 1
	}

	normalized := NormalizeURL(v.URL)
	for i := range last.Pages {
		if last.Pages[i].URL == normalized {
			// Repeat visit within the session: no new page entry, the
			// session just stays warm.
			if v.Timestamp > last.End {
				last.End = v.Timestamp
			}
			return sessions, idx
		}
	}

	last.Pages = append(last.Pages, Visit{
		URL:       normalized,
		Title:     v.Title,
		Snippet:   v.Snippet,
		Timestamp: v.Timestamp,
	})
	if v.Timestamp > last.End {
		last.End = v.Timestamp
	}
	// The title is sticky once the session exists, even when the seeding
	// visit had an empty title and the URL fallback was used. Known
	// limitation, kept deliberately.
	return sessions, idx
}

func newSession(v Visit) Session {
	title := v.Title
	if title == "" {
		title = v.URL
	}
	return Session{
		ID:    uuid.NewString(),
		Start: v.Timestamp,
		End:   v.Timestamp,
		Title: title,
		Pages: []Visit{{
			URL:       NormalizeURL(v.URL),
			Title:     v.Title,
			Snippet:   v.Snippet,
			Timestamp: v.Timestamp,
		}},
	}
}
