package middleware

import (
	"context"
	"net/http"

	"github.com/josh-kwaku/naira-wallet/internal/handler"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
)

type maintenanceFlag interface {
	InMaintenance(ctx context.Context) (bool, error)
}

// Maintenance blocks requests while the maintenance flag is on. A failed
// lookup lets the request through.
func Maintenance(flag maintenanceFlag) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			on, err := flag.InMaintenance(r.Context())
			if err != nil {
				logging.FromContext(r.Context()).Warn("maintenance flag lookup failed", "error", err)
			}
			if on {
				w.Header().Set("Retry-After", "300")
				handler.RespondAppError(w, handler.ErrMaintenanceMode, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
