package runtime

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type correlationKey struct{}

// WithCorrelationID stores id in ctx for validators and logs.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFromContext returns the id stored by WithCorrelationID.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

func correlationID(provided string) string {
	if id := strings.TrimSpace(provided); id != "" {
		return id
	}
	return uuid.NewString()
}
