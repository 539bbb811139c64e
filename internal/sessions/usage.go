package sessions

import (
	"context"
	"log/slog"
	"sync"
)

type sessionIDKey struct{}

// ContextWithSessionID returns a new context carrying the session ID.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext extracts the session ID from the context, or "" if absent.
func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return id
	}
	return ""
}

// UsageTracker accumulates token usage into session metadata.
type UsageTracker struct {
	mu    sync.Mutex
	store Store
}

// NewUsageTracker creates a tracker writing to store.
func NewUsageTracker(store Store) *UsageTracker {
	return &UsageTracker{store: store}
}

// Record adds the tokens of one model call to the session found in ctx.
// Calls outside a session are ignored.
func (ut *UsageTracker) Record(ctx context.Context, input, output int) {
	id := SessionIDFromContext(ctx)
	if id == "" || (input == 0 && output == 0) {
		return
	}

	ut.mu.Lock()
	defer ut.mu.Unlock()

	sess, err := ut.store.Get(id)
	if err != nil {
		slog.Debug("usage tracker: session not found", "session_id", id, "error", err)
		return
	}

	sess.TokenUsage.Input += input
	sess.TokenUsage.Output += output

	if err := ut.store.UpdateMeta(sess); err != nil {
		slog.Error("usage tracker: update meta", "session_id", id, "error", err)
	}
}
