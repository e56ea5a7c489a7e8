package shared

import "context"

// Identity describes the authenticated user behind a request.
type Identity struct {
	ID   string
	Name string
}

type sessionIDContextKey struct{}

// ContextWithSessionID stores the request's session id in context.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey{}, id)
}

// SessionIDFromContext extracts the session id from context.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDContextKey{}).(string)
	return id
}
