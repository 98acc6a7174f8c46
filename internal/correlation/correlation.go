// Package correlation generates the per-request token threaded through every
// saga stage for audit and logging.
package correlation

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type contextKey struct{}

// NewID returns a fresh 8-character uppercase correlation token. The token is
// the leading segment of a random UUID, wide enough that collision within a
// single process run is negligible.
func NewID() string {
	return strings.ToUpper(uuid.New().String()[:8])
}

// WithID stamps a correlation id onto the context.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the correlation id carried by the context, or "" if
// none was stamped.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
