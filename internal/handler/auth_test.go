package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/service"
)

type mockAuthService struct {
	registered *service.Registration
	err        error
}

func (m *mockAuthService) session(email string) *service.Session {
	return &service.Session{
		Token:   "jwt-token",
		User:    &domain.User{ID: testPrincipal.UserID, Email: email, Username: "ada"},
		Account: sampleAccount(),
	}
}

func (m *mockAuthService) Register(_ context.Context, in service.Registration) (*service.Session, error) {
	m.registered = &in
	if m.err != nil {
		return nil, m.err
	}
	return m.session(in.Email), nil
}

func (m *mockAuthService) Login(_ context.Context, email, _ string) (*service.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.session(email), nil
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       `{"email":"ada@test.local","username":"ada_l","password":"correct-horse"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "bad email",
			body:       `{"email":"ada","username":"ada_l","password":"correct-horse"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "bad username",
			body:       `{"email":"ada@test.local","username":"a!","password":"correct-horse"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "short password",
			body:       `{"email":"ada@test.local","username":"ada_l","password":"short"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "email taken",
			body:       `{"email":"ada@test.local","username":"ada_l","password":"correct-horse"}`,
			svcErr:     fmt.Errorf("Register: %w", domain.ErrEmailTaken),
			wantStatus: http.StatusConflict,
			wantCode:   "EMAIL_TAKEN",
		},
		{
			name:       "username taken",
			body:       `{"email":"ada@test.local","username":"ada_l","password":"correct-horse"}`,
			svcErr:     domain.ErrUsernameTaken,
			wantStatus: http.StatusConflict,
			wantCode:   "USERNAME_TAKEN",
		},
		{
			name:       "not json",
			body:       `email=ada`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{err: tc.svcErr})
			rr := httptest.NewRecorder()
			h.Register(rr, newRequest(http.MethodPost, "/api/v1/auth/register", tc.body))

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantCode, errCode(t, rr))
		})
	}
}

func TestAuthHandler_RegisterResponse(t *testing.T) {
	svc := &mockAuthService{}
	h := NewAuthHandler(svc)
	rr := httptest.NewRecorder()
	h.Register(rr, newRequest(http.MethodPost, "/api/v1/auth/register",
		`{"email":"ada@test.local","username":"ada_l","password":"correct-horse"}`))

	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, svc.registered)
	assert.Equal(t, "ada_l", svc.registered.Username)

	resp := decode[sessionResponse](t, rr)
	assert.Equal(t, "jwt-token", resp.Data.Token)
	assert.Equal(t, "8012345678", resp.Data.Account.AccountNumber)
	assert.Equal(t, "user", resp.Data.Account.Role)
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "ok", body: `{"email":"ada@test.local","password":"correct-horse"}`, wantStatus: http.StatusOK},
		{name: "missing fields", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{
			name:       "wrong password",
			body:       `{"email":"ada@test.local","password":"nope-nope"}`,
			svcErr:     fmt.Errorf("Login: %w", domain.ErrInvalidCredentials),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_CREDENTIALS",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{err: tc.svcErr})
			rr := httptest.NewRecorder()
			h.Login(rr, newRequest(http.MethodPost, "/api/v1/auth/login", tc.body))

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantCode, errCode(t, rr))
		})
	}
}

type mockProfiles struct {
	recipient *domain.Account
	err       error
}

func (m *mockProfiles) Profile(_ context.Context, accountID uuid.UUID) (*service.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &service.Profile{
		User:    &domain.User{ID: testPrincipal.UserID, Email: testPrincipal.Email, Username: "ada"},
		Account: sampleAccount(),
	}, nil
}

func (m *mockProfiles) ResolveRecipient(context.Context, string) (*domain.Account, error) {
	return m.recipient, m.err
}

type mockEntries struct {
	entry   *domain.LedgerEntry
	entries []domain.LedgerEntry
	total   int
	limit   int
	offset  int
}

func (m *mockEntries) GetByID(_ context.Context, id uuid.UUID) (*domain.LedgerEntry, error) {
	if m.entry == nil || m.entry.ID != id {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrEntryNotFound)
	}
	return m.entry, nil
}

func (m *mockEntries) ListByAccount(_ context.Context, _ uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	m.limit, m.offset = limit, offset
	return m.entries, m.total, nil
}

func TestAccountHandler_Me(t *testing.T) {
	h := NewAccountHandler(&mockProfiles{}, &mockEntries{})
	rr := httptest.NewRecorder()
	h.Me(rr, authed(newRequest(http.MethodGet, "/api/v1/me", "")))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[profileResponse](t, rr)
	assert.Equal(t, "ada", resp.Data.User.Username)
	assert.Equal(t, int64(1_000_000), resp.Data.Account.NairaBalance)
}

func TestAccountHandler_Recipient(t *testing.T) {
	found := &domain.Account{ID: uuid.New(), AccountNumber: "8099999999"}

	t.Run("found", func(t *testing.T) {
		h := NewAccountHandler(&mockProfiles{recipient: found}, &mockEntries{})
		req := authed(newRequest(http.MethodGet, "/api/v1/recipients/bola", ""))
		req.SetPathValue("username", "bola")
		rr := httptest.NewRecorder()
		h.Recipient(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[recipientResponse](t, rr)
		assert.Equal(t, found.ID, resp.Data.AccountID)
	})

	t.Run("missing", func(t *testing.T) {
		h := NewAccountHandler(&mockProfiles{err: domain.ErrRecipientNotFound}, &mockEntries{})
		req := authed(newRequest(http.MethodGet, "/api/v1/recipients/ghost", ""))
		req.SetPathValue("username", "ghost")
		rr := httptest.NewRecorder()
		h.Recipient(rr, req)

		assert.Equal(t, "RECIPIENT_NOT_FOUND", errCode(t, rr))
	})
}

func TestAccountHandler_History(t *testing.T) {
	entries := &mockEntries{
		entries: []domain.LedgerEntry{
			*sampleEntry(domain.EntryKindDeposit, domain.EntryStatusCompleted, 100_000),
			*sampleEntry(domain.EntryKindPayout, domain.EntryStatusPending, 200_000),
		},
		total: 42,
	}
	h := NewAccountHandler(&mockProfiles{}, entries)

	rr := httptest.NewRecorder()
	h.History(rr, authed(newRequest(http.MethodGet, "/api/v1/entries?limit=500&offset=20", "")))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, maxPageSize, entries.limit)
	assert.Equal(t, 20, entries.offset)

	resp := decode[struct {
		Items []entryDTO `json:"items"`
		Total int        `json:"total"`
	}](t, rr)
	assert.Len(t, resp.Data.Items, 2)
	assert.Equal(t, 42, resp.Data.Total)

	rr = httptest.NewRecorder()
	h.History(rr, authed(newRequest(http.MethodGet, "/api/v1/entries?limit=-1", "")))
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, rr))
}

func TestAccountHandler_Entry(t *testing.T) {
	own := sampleEntry(domain.EntryKindInternalTransfer, domain.EntryStatusCompleted, 50_000)

	incoming := sampleEntry(domain.EntryKindInternalTransfer, domain.EntryStatusCompleted, 50_000)
	incoming.AccountID = uuid.New()
	incoming.CounterpartyAccountID = &testPrincipal.AccountID

	foreign := sampleEntry(domain.EntryKindPayout, domain.EntryStatusPending, 50_000)
	foreign.AccountID = uuid.New()

	tests := []struct {
		name       string
		entry      *domain.LedgerEntry
		wantStatus int
	}{
		{name: "owner", entry: own, wantStatus: http.StatusOK},
		{name: "counterparty", entry: incoming, wantStatus: http.StatusOK},
		{name: "stranger gets not found", entry: foreign, wantStatus: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAccountHandler(&mockProfiles{}, &mockEntries{entry: tc.entry})
			req := authed(newRequest(http.MethodGet, "/api/v1/entries/"+tc.entry.ID.String(), ""))
			req.SetPathValue("id", tc.entry.ID.String())
			rr := httptest.NewRecorder()
			h.Entry(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}
