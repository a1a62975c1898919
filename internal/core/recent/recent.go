// Package recent defines the recently read list.
package recent

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no entry matches.
var ErrNotFound = errors.New("recent entry not found")

// Entry records the last reading position of one source.
type Entry struct {
	Title    string    `json:"title"`
	Path     string    `json:"path"`
	Chapter  int       `json:"chapter"`
	OpenedAt time.Time `json:"opened_at"`
}

// Store persists entries most recent first.
type Store interface {
	// List returns all entries, newest first.
	List(ctx context.Context) ([]Entry, error)
	// Get returns the entry for path.
	Get(ctx context.Context, path string) (Entry, error)
	// Touch moves entry to the top, replacing any entry with the same path,
	// and prunes the list to maxEntries.
	Touch(ctx context.Context, entry Entry, maxEntries int) error
	// Clear removes all entries.
	Clear(ctx context.Context) error
}

// Promote returns entries with e first and any older entry for the same
// path removed, pruned to maxEntries when it is positive.
func Promote(entries []Entry, e Entry, maxEntries int) []Entry {
	out := make([]Entry, 0, len(entries)+1)
	out = append(out, e)
	for _, existing := range entries {
		if existing.Path != e.Path {
			out = append(out, existing)
		}
	}
	if maxEntries > 0 && len(out) > maxEntries {
		out = out[:maxEntries]
	}
	return out
}
