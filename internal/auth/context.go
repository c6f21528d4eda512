package auth

import "context"

type contextKey struct{}

// AuthContext identifies the admin behind an authenticated request.
type AuthContext struct {
	Email        string
	SessionToken string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// Email returns the authenticated admin's email, or "" if unauthenticated.
func Email(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.Email
}
