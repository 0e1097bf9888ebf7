package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/service"
)

type mockPending struct {
	kind domain.EntryKind
}

func (m *mockPending) ListPending(_ context.Context, kind domain.EntryKind, _, _ int) ([]domain.LedgerEntry, int, error) {
	m.kind = kind
	return []domain.LedgerEntry{*sampleEntry(domain.EntryKindPayout, domain.EntryStatusPending, 200_000)}, 1, nil
}

type mockResolver struct {
	outcome domain.Outcome
	adminID uuid.UUID
	reason  string
	err     error
}

func (m *mockResolver) Resolve(_ context.Context, entryID uuid.UUID, outcome domain.Outcome, adminID uuid.UUID, reason string) (*domain.LedgerEntry, error) {
	m.outcome, m.adminID, m.reason = outcome, adminID, reason
	if m.err != nil {
		return nil, m.err
	}
	status := domain.EntryStatusCompleted
	if outcome == domain.OutcomeReject {
		status = domain.EntryStatusRejected
	}
	e := sampleEntry(domain.EntryKindPayout, status, 200_000)
	e.ID = entryID
	return e, nil
}

type mockAccountAdmin struct {
	status domain.AccountStatus
}

func (m *mockAccountAdmin) ListAccounts(context.Context, int, int) ([]domain.Account, int, error) {
	return []domain.Account{*sampleAccount()}, 1, nil
}

func (m *mockAccountAdmin) SetStatus(_ context.Context, accountID uuid.UUID, status domain.AccountStatus, _ uuid.UUID) (*domain.Account, error) {
	m.status = status
	a := sampleAccount()
	a.ID = accountID
	a.Status = status
	return a, nil
}

type mockSettings struct {
	current *domain.SystemSettings
	got     *service.SettingsUpdate
	err     error
}

func (m *mockSettings) Get(context.Context) (*domain.SystemSettings, error) {
	return m.current, nil
}

func (m *mockSettings) Update(_ context.Context, in service.SettingsUpdate, adminID uuid.UUID) (*domain.SystemSettings, error) {
	m.got = &in
	if m.err != nil {
		return nil, m.err
	}
	st := *m.current
	if in.USDTBuyRate != nil {
		st.USDTBuyRate = *in.USDTBuyRate
	}
	if in.USDTSellRate != nil {
		st.USDTSellRate = *in.USDTSellRate
	}
	if in.MaintenanceMode != nil {
		st.MaintenanceMode = *in.MaintenanceMode
	}
	st.UpdatedBy = &adminID
	return &st, nil
}

func newAdminHandler() (*AdminHandler, *mockPending, *mockResolver, *mockAccountAdmin, *mockSettings) {
	p := &mockPending{}
	r := &mockResolver{}
	a := &mockAccountAdmin{}
	s := &mockSettings{current: &domain.SystemSettings{
		USDTBuyRate:  decimal.NewFromInt(1700),
		USDTSellRate: decimal.NewFromInt(1650),
		UpdatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
	return NewAdminHandler(p, r, a, s), p, r, a, s
}

func TestAdminHandler_ListPending(t *testing.T) {
	h, pending, _, _, _ := newAdminHandler()

	rr := httptest.NewRecorder()
	h.ListPending(rr, authed(newRequest(http.MethodGet, "/api/v1/admin/entries/pending?kind=payout", "")))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.EntryKindPayout, pending.kind)

	rr = httptest.NewRecorder()
	h.ListPending(rr, authed(newRequest(http.MethodGet, "/api/v1/admin/entries/pending?kind=lottery", "")))
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, rr))
}

func TestAdminHandler_Resolve(t *testing.T) {
	entryID := uuid.New()

	tests := []struct {
		name        string
		reject      bool
		body        string
		err         error
		wantStatus  int
		wantCode    string
		wantOutcome domain.Outcome
		wantReason  string
	}{
		{name: "approve without body", wantStatus: http.StatusOK, wantOutcome: domain.OutcomeApprove},
		{name: "reject with reason", reject: true, body: `{"reason":" name mismatch "}`, wantStatus: http.StatusOK, wantOutcome: domain.OutcomeReject, wantReason: "name mismatch"},
		{name: "reject gets a default reason", reject: true, wantStatus: http.StatusOK, wantOutcome: domain.OutcomeReject, wantReason: "rejected by admin"},
		{name: "already resolved", err: fmt.Errorf("settle: %w", domain.ErrAlreadyResolved), wantStatus: http.StatusConflict, wantCode: "ALREADY_RESOLVED", wantOutcome: domain.OutcomeApprove},
		{name: "never pending", err: domain.ErrEntryNotPending, wantStatus: http.StatusConflict, wantCode: "ENTRY_NOT_PENDING", wantOutcome: domain.OutcomeApprove},
		{name: "bad body", body: `{"reason":`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_REQUEST"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, _, resolver, _, _ := newAdminHandler()
			resolver.err = tc.err

			req := authed(newRequest(http.MethodPost, "/api/v1/admin/entries/"+entryID.String()+"/approve", tc.body))
			req.SetPathValue("id", entryID.String())
			rr := httptest.NewRecorder()
			if tc.reject {
				h.Reject(rr, req)
			} else {
				h.Approve(rr, req)
			}

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantCode, errCode(t, rr))
			assert.Equal(t, tc.wantOutcome, resolver.outcome)
			if tc.wantOutcome != "" {
				assert.Equal(t, testPrincipal.UserID, resolver.adminID)
				assert.Equal(t, tc.wantReason, resolver.reason)
			}
		})
	}
}

func TestAdminHandler_SetAccountStatus(t *testing.T) {
	target := uuid.New()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "suspend", body: `{"status":"suspended"}`, wantStatus: http.StatusOK},
		{name: "activate", body: `{"status":"active"}`, wantStatus: http.StatusOK},
		{name: "unknown status", body: `{"status":"banned"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, _, _, accounts, _ := newAdminHandler()
			req := authed(newRequest(http.MethodPatch, "/api/v1/admin/accounts/"+target.String()+"/status", tc.body))
			req.SetPathValue("id", target.String())
			rr := httptest.NewRecorder()
			h.SetAccountStatus(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantStatus == http.StatusOK {
				resp := decode[accountDTO](t, rr)
				assert.Equal(t, target, resp.Data.ID)
				assert.Equal(t, string(accounts.status), resp.Data.Status)
			}
		})
	}
}

func TestAdminHandler_ListAccounts(t *testing.T) {
	h, _, _, _, _ := newAdminHandler()
	rr := httptest.NewRecorder()
	h.ListAccounts(rr, authed(newRequest(http.MethodGet, "/api/v1/admin/accounts", "")))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[struct {
		Items []accountDTO `json:"items"`
		Limit int          `json:"limit"`
	}](t, rr)
	assert.Len(t, resp.Data.Items, 1)
	assert.Equal(t, defaultPageSize, resp.Data.Limit)
}

func TestAdminHandler_Settings(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		h, _, _, _, _ := newAdminHandler()
		rr := httptest.NewRecorder()
		h.GetSettings(rr, authed(newRequest(http.MethodGet, "/api/v1/admin/settings", "")))

		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[settingsDTO](t, rr)
		assert.Equal(t, "1700", resp.Data.USDTBuyRate)
		assert.Equal(t, "1650", resp.Data.USDTSellRate)
	})

	t.Run("partial update accepts string and number rates", func(t *testing.T) {
		h, _, _, _, settings := newAdminHandler()
		rr := httptest.NewRecorder()
		h.UpdateSettings(rr, authed(newRequest(http.MethodPatch, "/api/v1/admin/settings",
			`{"usdt_buy_rate":"1720.5","usdt_sell_rate":1660,"maintenance_mode":true}`)))

		require.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, settings.got)
		assert.True(t, settings.got.USDTBuyRate.Equal(decimal.RequireFromString("1720.5")))
		assert.True(t, settings.got.USDTSellRate.Equal(decimal.NewFromInt(1660)))

		resp := decode[settingsDTO](t, rr)
		assert.True(t, resp.Data.MaintenanceMode)
		require.NotNil(t, resp.Data.UpdatedBy)
		assert.Equal(t, testPrincipal.UserID, *resp.Data.UpdatedBy)
	})

	t.Run("empty update", func(t *testing.T) {
		h, _, _, _, _ := newAdminHandler()
		rr := httptest.NewRecorder()
		h.UpdateSettings(rr, authed(newRequest(http.MethodPatch, "/api/v1/admin/settings", `{}`)))
		assert.Equal(t, "VALIDATION_FAILED", errCode(t, rr))
	})

	t.Run("inverted rates", func(t *testing.T) {
		h, _, _, _, settings := newAdminHandler()
		settings.err = fmt.Errorf("Update: %w", domain.ErrInvalidRate)
		rr := httptest.NewRecorder()
		h.UpdateSettings(rr, authed(newRequest(http.MethodPatch, "/api/v1/admin/settings", `{"usdt_buy_rate":"1000"}`)))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "INVALID_RATE", errCode(t, rr))
	})
}
