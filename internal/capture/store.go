package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Store persists the growing session list. The collection is owned by a
// single Recorder; implementations do not need to coordinate writers.
type Store interface {
	// Sessions returns the current session list, oldest first.
	Sessions(ctx context.Context) ([]Session, error)
	// Replace overwrites the stored session list.
	Replace(ctx context.Context, sessions []Session) error
	// Clear removes every session. Explicit user action only.
	Clear(ctx context.Context) error
}

// WriteJSON writes the session list as the stable export artifact: a JSON
// array of Session objects. Any array conforming to this shape is a valid
// ingestion input, independent of how it was produced.
func WriteJSON(w io.Writer, sessions []Session) error {
	if sessions == nil {
		sessions = []Session{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sessions); err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	return nil
}

// ReadJSON parses an exported session array.
func ReadJSON(r io.Reader) ([]Session, error) {
	var sessions []Session
	if err := json.NewDecoder(r).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}
