package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/naira-wallet/internal/auth"
	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

var testPrincipal = auth.Principal{
	UserID:    uuid.MustParse("6f1c2d3e-0000-4000-8000-000000000001"),
	AccountID: uuid.MustParse("6f1c2d3e-0000-4000-8000-0000000000a1"),
	Email:     "ada@test.local",
}

func newRequest(method, path, body string) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func authed(req *http.Request) *http.Request {
	return req.WithContext(auth.ContextWithPrincipal(req.Context(), testPrincipal))
}

type envelopeOf[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data"`
	Error   *APIError `json:"error"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) envelopeOf[T] {
	t.Helper()
	var resp envelopeOf[T]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp
}

func errCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode[json.RawMessage](t, rr)
	if resp.Error == nil {
		return ""
	}
	return resp.Error.Code
}

func sampleAccount() *domain.Account {
	return &domain.Account{
		ID:            testPrincipal.AccountID,
		UserID:        testPrincipal.UserID,
		AccountNumber: "8012345678",
		NairaBalance:  1_000_000,
		Role:          domain.RoleUser,
		Status:        domain.AccountStatusActive,
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func sampleEntry(kind domain.EntryKind, status domain.EntryStatus, amount int64) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:          uuid.New(),
		Kind:        kind,
		Status:      status,
		AccountID:   testPrincipal.AccountID,
		Amount:      amount,
		Description: string(kind),
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}
