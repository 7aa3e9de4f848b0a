package model

import "context"

type actorKey struct{}

// WithActor attaches the acting staff member to ctx.
func WithActor(ctx context.Context, staffID string) context.Context {
	return context.WithValue(ctx, actorKey{}, staffID)
}

// ActorFromContext returns the acting staff member, or "" when unknown.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}
