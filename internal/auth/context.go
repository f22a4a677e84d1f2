package auth

import (
	"context"
)

type claimsKey struct{}

func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// ActorFromContext is the member id stamped on audit fields such as
// confirmedBy and approvedBy. Empty when the request is anonymous.
func ActorFromContext(ctx context.Context) string {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.MemberID
	}
	return ""
}
