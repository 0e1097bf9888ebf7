package testutil

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

const TestPassword = "password123"

var accountSeq int

// SeedAccount creates a user with username and a wallet holding the given
// balances (kobo and micro-USDT).
func SeedAccount(t *testing.T, db *sql.DB, username string, naira, usdt int64) *domain.Account {
	t.Helper()
	return seedAccount(t, db, username, naira, usdt, domain.RoleUser)
}

func SeedAdmin(t *testing.T, db *sql.DB, username string) *domain.Account {
	t.Helper()
	return seedAccount(t, db, username, 0, 0, domain.RoleAdmin)
}

func seedAccount(t *testing.T, db *sql.DB, username string, naira, usdt int64, role domain.Role) *domain.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	userID := uuid.New()
	_, err = db.Exec(
		`INSERT INTO users (id, email, username, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, username+"@test.local", username, string(hash), now,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}

	accountSeq++
	a := &domain.Account{
		ID:            uuid.New(),
		UserID:        userID,
		AccountNumber: fmt.Sprintf("9%09d", accountSeq),
		NairaBalance:  naira,
		USDTBalance:   usdt,
		Role:          role,
		Status:        domain.AccountStatusActive,
		EmailVerified: true,
		CreatedAt:     now,
	}
	_, err = db.Exec(
		`INSERT INTO accounts (id, user_id, account_number, naira_balance, usdt_balance, role, status, email_verified, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9)`,
		a.ID, a.UserID, a.AccountNumber, a.NairaBalance, a.USDTBalance, a.Role, a.Status, a.EmailVerified, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed account %s: %v", username, err)
	}
	return a
}

func SuspendAccount(t *testing.T, db *sql.DB, accountID uuid.UUID) {
	t.Helper()
	if _, err := db.Exec(`UPDATE accounts SET status = 'suspended' WHERE id = $1`, accountID); err != nil {
		t.Fatalf("suspend account %s: %v", accountID, err)
	}
}

// Balances returns the naira (kobo) and USDT (micro) balances of an account.
func Balances(t *testing.T, db *sql.DB, accountID uuid.UUID) (int64, int64) {
	t.Helper()

	var naira, usdt int64
	err := db.QueryRow(`SELECT naira_balance, usdt_balance FROM accounts WHERE id = $1`, accountID).Scan(&naira, &usdt)
	if err != nil {
		t.Fatalf("get balances %s: %v", accountID, err)
	}
	return naira, usdt
}

func NairaBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) int64 {
	t.Helper()
	n, _ := Balances(t, db, accountID)
	return n
}

// TotalNaira sums naira across every wallet.
func TotalNaira(t *testing.T, db *sql.DB) int64 {
	t.Helper()

	var total int64
	if err := db.QueryRow(`SELECT COALESCE(SUM(naira_balance), 0) FROM accounts`).Scan(&total); err != nil {
		t.Fatalf("sum naira: %v", err)
	}
	return total
}

func CountPostings(t *testing.T, db *sql.DB, entryID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM postings WHERE entry_id = $1`, entryID).Scan(&count)
	if err != nil {
		t.Fatalf("count postings for entry %s: %v", entryID, err)
	}
	return count
}

func CountEntries(t *testing.T, db *sql.DB, accountID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count entries for account %s: %v", accountID, err)
	}
	return count
}

func EntryStatus(t *testing.T, db *sql.DB, entryID uuid.UUID) domain.EntryStatus {
	t.Helper()

	var status domain.EntryStatus
	if err := db.QueryRow(`SELECT status FROM ledger_entries WHERE id = $1`, entryID).Scan(&status); err != nil {
		t.Fatalf("get entry status %s: %v", entryID, err)
	}
	return status
}
