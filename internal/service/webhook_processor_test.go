package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/policy"
	"github.com/josh-kwaku/naira-wallet/internal/repository"
	"github.com/josh-kwaku/naira-wallet/internal/service/ledger"
	"github.com/josh-kwaku/naira-wallet/internal/testutil"
)

type attempt struct {
	status    domain.WebhookEventStatus
	lastError *string
}

type memWebhooks struct {
	created  []*domain.WebhookEvent
	attempts map[uuid.UUID][]attempt
}

func newMemWebhooks() *memWebhooks {
	return &memWebhooks{attempts: map[uuid.UUID][]attempt{}}
}

func (m *memWebhooks) Create(_ context.Context, e *domain.WebhookEvent) error {
	m.created = append(m.created, e)
	return nil
}

func (m *memWebhooks) ClaimFailed(context.Context, *sql.Tx, int, int) ([]domain.WebhookEvent, error) {
	return nil, nil
}

func (m *memWebhooks) MarkAttempt(_ context.Context, _ repository.Execer, id uuid.UUID, status domain.WebhookEventStatus, lastError *string) error {
	m.attempts[id] = append(m.attempts[id], attempt{status, lastError})
	return nil
}

type fakeResolver struct {
	err error
	got []ledger.GatewayEvent
}

func (f *fakeResolver) ResolveGatewayEvent(_ context.Context, ev ledger.GatewayEvent) (*domain.LedgerEntry, error) {
	f.got = append(f.got, ev)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.LedgerEntry{ID: uuid.New()}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func webhookBody(t *testing.T, event, reference string, amount int64) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"event": event,
		"data": map[string]any{
			"reference":        reference,
			"amount":           amount,
			"status":           "success",
			"gateway_response": "Approved",
		},
	})
	require.NoError(t, err)
	return body
}

func TestWebhookProcessor_Process(t *testing.T) {
	tests := []struct {
		name        string
		event       string
		resolveErr  error
		wantStatus  domain.WebhookEventStatus
		wantOutcome domain.Outcome
		wantErrIs   error
		wantCalls   int
	}{
		{
			name:        "charge success approves",
			event:       "charge.success",
			wantStatus:  domain.WebhookEventStatusProcessed,
			wantOutcome: domain.OutcomeApprove,
			wantCalls:   1,
		},
		{
			name:        "charge failed fails the deposit",
			event:       "charge.failed",
			wantStatus:  domain.WebhookEventStatusProcessed,
			wantOutcome: domain.OutcomeFail,
			wantCalls:   1,
		},
		{
			name:        "transfer failed fails",
			event:       "transfer.failed",
			wantStatus:  domain.WebhookEventStatusProcessed,
			wantOutcome: domain.OutcomeFail,
			wantCalls:   1,
		},
		{
			name:        "transfer reversed fails",
			event:       "transfer.reversed",
			wantStatus:  domain.WebhookEventStatusProcessed,
			wantOutcome: domain.OutcomeFail,
			wantCalls:   1,
		},
		{
			name:        "replay of a resolved entry",
			event:       "transfer.success",
			resolveErr:  fmt.Errorf("settle: %w", domain.ErrAlreadyResolved),
			wantStatus:  domain.WebhookEventStatusProcessed,
			wantOutcome: domain.OutcomeApprove,
			wantCalls:   1,
		},
		{
			name:        "outcome contradicting a settled entry is ignored",
			event:       "transfer.success",
			resolveErr:  fmt.Errorf("ResolveGatewayEvent: %w: %w", domain.ErrSettlementConflict, domain.ErrAlreadyResolved),
			wantStatus:  domain.WebhookEventStatusIgnored,
			wantOutcome: domain.OutcomeApprove,
			wantCalls:   1,
		},
		{
			name:        "outcome not allowed is ignored",
			event:       "charge.success",
			resolveErr:  domain.ErrOutcomeNotAllowed,
			wantStatus:  domain.WebhookEventStatusIgnored,
			wantOutcome: domain.OutcomeApprove,
			wantCalls:   1,
		},
		{
			name:        "unknown reference stays failed",
			event:       "charge.success",
			resolveErr:  domain.ErrEntryNotFound,
			wantStatus:  domain.WebhookEventStatusFailed,
			wantOutcome: domain.OutcomeApprove,
			wantErrIs:   domain.ErrEntryNotFound,
			wantCalls:   1,
		},
		{
			name:        "internal failure stays failed",
			event:       "charge.success",
			resolveErr:  errors.New("connection reset"),
			wantStatus:  domain.WebhookEventStatusFailed,
			wantOutcome: domain.OutcomeApprove,
			wantCalls:   1,
		},
		{
			name:       "unhandled type is ignored",
			event:      "subscription.create",
			wantStatus: domain.WebhookEventStatusIgnored,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemWebhooks()
			resolver := &fakeResolver{err: tc.resolveErr}
			p := NewWebhookProcessor(store, resolver, nil, discardLogger(), 5, 10)

			ev, err := p.Process(context.Background(), webhookBody(t, tc.event, "ref_123", policy.Naira(500)))
			switch {
			case tc.wantErrIs != nil:
				require.ErrorIs(t, err, tc.wantErrIs)
			case tc.wantStatus == domain.WebhookEventStatusFailed:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}

			require.Len(t, store.created, 1)
			require.NotNil(t, ev)
			assert.Equal(t, tc.wantStatus, ev.Status)

			attempts := store.attempts[ev.ID]
			require.Len(t, attempts, 1)
			assert.Equal(t, tc.wantStatus, attempts[0].status)
			if tc.wantStatus == domain.WebhookEventStatusFailed {
				assert.NotNil(t, attempts[0].lastError)
			}

			require.Len(t, resolver.got, tc.wantCalls)
			if tc.wantCalls > 0 {
				assert.Equal(t, "ref_123", resolver.got[0].Reference)
				assert.Equal(t, tc.wantOutcome, resolver.got[0].Outcome)
			}
		})
	}
}

func TestWebhookProcessor_AmountOnlyCheckedOnApproval(t *testing.T) {
	store := newMemWebhooks()
	resolver := &fakeResolver{}
	p := NewWebhookProcessor(store, resolver, nil, discardLogger(), 5, 10)
	ctx := context.Background()

	_, err := p.Process(ctx, webhookBody(t, "charge.success", "ref_a", 50_000))
	require.NoError(t, err)
	_, err = p.Process(ctx, webhookBody(t, "transfer.failed", "ref_b", 50_000))
	require.NoError(t, err)

	require.Len(t, resolver.got, 2)
	assert.Equal(t, int64(50_000), resolver.got[0].Amount)
	assert.Equal(t, int64(0), resolver.got[1].Amount)
}

func TestWebhookProcessor_RejectsMalformedPayload(t *testing.T) {
	store := newMemWebhooks()
	p := NewWebhookProcessor(store, &fakeResolver{}, nil, discardLogger(), 5, 10)

	_, err := p.Process(context.Background(), []byte(`{not json`))
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = p.Process(context.Background(), []byte(`{"data":{"reference":"x"}}`))
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	assert.Empty(t, store.created)
}

func TestWebhookProcessor_ReplayFailed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	repos := ledger.Repos{
		Accounts: repository.NewAccountRepository(db),
		Entries:  repository.NewLedgerRepository(db),
		Postings: repository.NewPostingRepository(db),
		Audit:    repository.NewEntryEventRepository(db),
		Rounds:   repository.NewGameRoundRepository(db),
	}
	reconciler := ledger.NewReconciler(db, repos, nil)
	webhooks := repository.NewWebhookEventRepository(db)
	p := NewWebhookProcessor(webhooks, reconciler, db, discardLogger(), 3, 10)

	acct := testutil.SeedAccount(t, db, "ada", 0, 0)

	// The webhook lands before the deposit entry exists.
	ev, err := p.Process(ctx, webhookBody(t, "charge.success", "dep_late", policy.Naira(500)))
	require.ErrorIs(t, err, domain.ErrEntryNotFound)
	assert.Equal(t, domain.WebhookEventStatusFailed, ev.Status)

	ref := "dep_late"
	entry := &domain.LedgerEntry{
		ID:                uuid.New(),
		Kind:              domain.EntryKindDeposit,
		Status:            domain.EntryStatusPending,
		AccountID:         acct.ID,
		Amount:            policy.Naira(500),
		ExternalReference: &ref,
		Description:       "Deposit",
		CreatedAt:         time.Now().UTC(),
	}
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repos.Entries.Create(ctx, tx, entry))
	require.NoError(t, tx.Commit())

	applied, err := p.ReplayFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, policy.Naira(500), testutil.NairaBalance(t, db, acct.ID))

	stored, err := webhooks.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WebhookEventStatusProcessed, stored.Status)
	assert.Equal(t, 2, stored.Attempts)
	assert.Nil(t, stored.LastError)

	applied, err = p.ReplayFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
	assert.Equal(t, policy.Naira(500), testutil.NairaBalance(t, db, acct.ID))
}

func TestWebhookProcessor_ReplayGivesUpAfterMaxAttempts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	repos := ledger.Repos{
		Accounts: repository.NewAccountRepository(db),
		Entries:  repository.NewLedgerRepository(db),
		Postings: repository.NewPostingRepository(db),
		Audit:    repository.NewEntryEventRepository(db),
		Rounds:   repository.NewGameRoundRepository(db),
	}
	webhooks := repository.NewWebhookEventRepository(db)
	p := NewWebhookProcessor(webhooks, ledger.NewReconciler(db, repos, nil), db, discardLogger(), 2, 10)

	ev, err := p.Process(ctx, webhookBody(t, "transfer.success", "never_seen", policy.Naira(100)))
	require.Error(t, err)

	_, err = p.ReplayFailed(ctx)
	require.NoError(t, err)
	_, err = p.ReplayFailed(ctx)
	require.NoError(t, err)

	stored, err := webhooks.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WebhookEventStatusFailed, stored.Status)
	assert.Equal(t, 2, stored.Attempts)
}
