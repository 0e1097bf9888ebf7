package auth

import (
	"context"

	"github.com/google/uuid"
)

type principalKey struct{}

// Principal identifies the caller behind an authenticated request.
type Principal struct {
	UserID    uuid.UUID
	AccountID uuid.UUID
	Email     string
}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := PrincipalFromContext(ctx)
	return p.UserID, ok
}
