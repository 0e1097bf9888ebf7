package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/naira-wallet/internal/auth"
	"github.com/josh-kwaku/naira-wallet/internal/handler"
	"github.com/josh-kwaku/naira-wallet/internal/ratelimit"
	"github.com/josh-kwaku/naira-wallet/internal/repository"
)

const testSecret = "middleware-test-secret"

func okHandler(w http.ResponseWriter, r *http.Request) {
	handler.RespondSuccess(w, http.StatusOK, map[string]string{"ok": "yes"})
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	if resp.Error == nil {
		return ""
	}
	return resp.Error.Code
}

func withPrincipal(r *http.Request, p auth.Principal) *http.Request {
	return r.WithContext(auth.ContextWithPrincipal(r.Context(), p))
}

func TestAuth(t *testing.T) {
	claims := auth.Claims{UserID: uuid.New(), AccountID: uuid.New(), Email: "ada@test.local"}
	token, err := auth.GenerateToken(claims, testSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{name: "valid bearer", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantCode: "MISSING_TOKEN"},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "garbage token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen auth.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = auth.PrincipalFromContext(r.Context())
				okHandler(w, r)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			Auth(testSecret)(next).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantCode, errorCode(t, rr))
			if tc.wantCode == "" {
				assert.Equal(t, claims.UserID, seen.UserID)
				assert.Equal(t, claims.AccountID, seen.AccountID)
			}
		})
	}
}

type stubAdmins struct {
	admin bool
	err   error
}

func (s stubAdmins) IsAdmin(context.Context, uuid.UUID) (bool, error) { return s.admin, s.err }

func TestRequireAdmin(t *testing.T) {
	p := auth.Principal{UserID: uuid.New(), AccountID: uuid.New()}

	tests := []struct {
		name       string
		checker    stubAdmins
		noAuth     bool
		wantStatus int
		wantCode   string
	}{
		{name: "admin passes", checker: stubAdmins{admin: true}, wantStatus: http.StatusOK},
		{name: "user is forbidden", checker: stubAdmins{}, wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN"},
		{name: "lookup error", checker: stubAdmins{err: errors.New("db down")}, wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
		{name: "no principal", noAuth: true, wantStatus: http.StatusUnauthorized, wantCode: "MISSING_TOKEN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/pending", nil)
			if !tc.noAuth {
				req = withPrincipal(req, p)
			}
			rr := httptest.NewRecorder()
			RequireAdmin(tc.checker)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantCode, errorCode(t, rr))
		})
	}
}

type stubFlag struct {
	on  bool
	err error
}

func (s stubFlag) InMaintenance(context.Context) (bool, error) { return s.on, s.err }

func TestMaintenance(t *testing.T) {
	tests := []struct {
		name       string
		flag       stubFlag
		wantStatus int
	}{
		{name: "off", flag: stubFlag{}, wantStatus: http.StatusOK},
		{name: "on", flag: stubFlag{on: true}, wantStatus: http.StatusServiceUnavailable},
		{name: "lookup failure lets requests through", flag: stubFlag{err: errors.New("timeout")}, wantStatus: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", nil)
			rr := httptest.NewRecorder()
			Maintenance(tc.flag)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.flag.on {
				assert.Equal(t, "MAINTENANCE_MODE", errorCode(t, rr))
				assert.Equal(t, "300", rr.Header().Get("Retry-After"))
			}
		})
	}
}

type stubLimiter struct {
	res      ratelimit.Result
	err      error
	subjects []string
}

func (s *stubLimiter) Allow(_ context.Context, _, subject string, _ int, _ time.Duration) (ratelimit.Result, error) {
	s.subjects = append(s.subjects, subject)
	return s.res, s.err
}

func TestRateLimit(t *testing.T) {
	p := auth.Principal{UserID: uuid.New(), AccountID: uuid.New()}

	t.Run("allowed", func(t *testing.T) {
		l := &stubLimiter{res: ratelimit.Result{Allowed: true, Count: 1}}
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/transfers", nil), p)
		rr := httptest.NewRecorder()
		RateLimit(l, "money", 5, time.Minute)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{p.AccountID.String()}, l.subjects)
	})

	t.Run("over the limit", func(t *testing.T) {
		l := &stubLimiter{res: ratelimit.Result{Allowed: false, Count: 6, RetryAfter: 42 * time.Second}}
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/transfers", nil), p)
		rr := httptest.NewRecorder()
		RateLimit(l, "money", 5, time.Minute)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Equal(t, "RATE_LIMITED", errorCode(t, rr))
		assert.Equal(t, "42", rr.Header().Get("Retry-After"))
	})

	t.Run("limiter error fails open", func(t *testing.T) {
		l := &stubLimiter{err: errors.New("redis: connection refused")}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		RateLimit(l, "login", 5, time.Minute)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"10.0.0.1:5555"}, l.subjects)
	})
}

type memIdempotency struct {
	entries map[string]*repository.IdempotencyCacheEntry
	getErr  error
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{entries: map[string]*repository.IdempotencyCacheEntry{}}
}

func (m *memIdempotency) Get(_ context.Context, key string, userID uuid.UUID) (*repository.IdempotencyCacheEntry, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.entries[userID.String()+key], nil
}

func (m *memIdempotency) Set(_ context.Context, e *repository.IdempotencyCacheEntry) error {
	m.entries[e.UserID.String()+e.Key] = e
	return nil
}

func TestIdempotency(t *testing.T) {
	p := auth.Principal{UserID: uuid.New(), AccountID: uuid.New()}

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		handler.RespondSuccess(w, http.StatusCreated, map[string]any{"call": calls, "echo": string(body)})
	})

	store := newMemIdempotency()
	mw := Idempotency(store)(next)

	send := func(key, body string) *httptest.ResponseRecorder {
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/transfers", strings.NewReader(body)), p)
		if key != "" {
			req.Header.Set(IdempotencyHeader, key)
		}
		rr := httptest.NewRecorder()
		mw.ServeHTTP(rr, req)
		return rr
	}

	first := send("k-1", `{"amount":100}`)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, 1, calls)

	replay := send("k-1", `{"amount":100}`)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get(replayedHeader))
	assert.Equal(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, 1, calls, "replay must not reach the handler")

	conflict := send("k-1", `{"amount":200}`)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, "IDEMPOTENCY_CONFLICT", errorCode(t, conflict))

	missing := send("", `{"amount":100}`)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, "MISSING_IDEMPOTENCY_KEY", errorCode(t, missing))

	assert.Equal(t, 1, calls)
}

func TestIdempotency_ServerErrorsAreNotCached(t *testing.T) {
	p := auth.Principal{UserID: uuid.New(), AccountID: uuid.New()}
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler.RespondAppError(w, handler.ErrInternalError, nil)
	})
	store := newMemIdempotency()
	mw := Idempotency(store)(next)

	for range 2 {
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/payouts", strings.NewReader(`{}`)), p)
		req.Header.Set(IdempotencyHeader, "k-500")
		mw.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2, calls)
	assert.Empty(t, store.entries)
}

func TestIdempotency_LookupFailure(t *testing.T) {
	p := auth.Principal{UserID: uuid.New(), AccountID: uuid.New()}
	store := newMemIdempotency()
	store.getErr = errors.New("db down")

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/v1/transfers", strings.NewReader(`{}`)), p)
	req.Header.Set(IdempotencyHeader, "k")
	rr := httptest.NewRecorder()
	Idempotency(store)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRecovery(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rr := httptest.NewRecorder()
	Recovery(boom).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, rr))
}

func TestRequestID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rr := httptest.NewRecorder()
	RequestID(next).ServeHTTP(rr, req)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rr.Header().Get(requestIDHeader))

	rr = httptest.NewRecorder()
	RequestID(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}
