package capture

import (
	"bytes"
	"strings"
	"testing"
)

func TestExportRoundTrip(t *testing.T) {
	sessions, _ := Place(nil, visitAt("https://a.example", "A", 1000), 0)
	sessions, _ = Place(sessions, visitAt("https://b.example", "B", 2000), 0)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, sessions); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	// The export format is a stable contract: a JSON array of sessions with
	// these exact keys.
	out := buf.String()
	for _, key := range []string{`"id"`, `"start"`, `"end"`, `"sessionTitle"`, `"pages"`, `"timestamp"`} {
		if !strings.Contains(out, key) {
			t.Errorf("export missing key %s", key)
		}
	}

	decoded, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("decoded %d sessions, want 1", len(decoded))
	}
	if decoded[0].ID != sessions[0].ID {
		t.Errorf("id round trip: %q != %q", decoded[0].ID, sessions[0].ID)
	}
	if len(decoded[0].Pages) != 2 {
		t.Errorf("pages round trip: %d, want 2", len(decoded[0].Pages))
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty export = %q, want []", buf.String())
	}
}
