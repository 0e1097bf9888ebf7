package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/josh-kwaku/naira-wallet/internal/auth"
	"github.com/josh-kwaku/naira-wallet/internal/handler"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/ratelimit"
)

type Limiter interface {
	Allow(ctx context.Context, scope, subject string, limit int, window time.Duration) (ratelimit.Result, error)
}

// RateLimit caps requests per authenticated account within scope. Without
// a principal it keys on the remote address. Limiter errors fail open.
func RateLimit(l Limiter, scope string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := r.RemoteAddr
			if p, ok := auth.PrincipalFromContext(r.Context()); ok {
				subject = p.AccountID.String()
			}

			res, err := l.Allow(r.Context(), scope, subject, limit, window)
			if err != nil {
				logging.FromContext(r.Context()).Warn("rate limiter unavailable", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				logging.FromContext(r.Context()).Warn("rate limited", "scope", scope, "count", res.Count)
				handler.RespondAppError(w, handler.ErrRateLimited, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
