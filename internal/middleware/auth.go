package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/auth"
	"github.com/josh-kwaku/naira-wallet/internal/handler"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
)

func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			p := claims.Principal()
			ctx := auth.ContextWithPrincipal(r.Context(), p)
			ctx = logging.With(ctx, "user_id", p.UserID, "account_id", p.AccountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type adminChecker interface {
	IsAdmin(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// RequireAdmin reads the role from storage on each request so a demoted
// or suspended admin loses access without waiting for token expiry.
func RequireAdmin(checker adminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			isAdmin, err := checker.IsAdmin(r.Context(), p.AccountID)
			if err != nil {
				logging.FromContext(r.Context()).Error("admin check failed", "error", err)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}
			if !isAdmin {
				logging.FromContext(r.Context()).Warn("non-admin denied", "path", r.URL.Path)
				handler.RespondAppError(w, handler.ErrForbidden, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
