package logging

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	chapterKey   contextKey = "chapter"
)

// WithSessionID adds a chapter session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithChapter adds the index of the chapter being read to the context.
func WithChapter(ctx context.Context, chapter int) context.Context {
	return context.WithValue(ctx, chapterKey, chapter)
}

// GetSessionID retrieves the session ID from the context.
// Returns empty string if not present.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

// GetChapter retrieves the chapter index from the context.
func GetChapter(ctx context.Context) (int, bool) {
	n, ok := ctx.Value(chapterKey).(int)
	return n, ok
}
