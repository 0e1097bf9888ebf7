package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/naira-wallet/internal/auth"
	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
)

const accountNumberAttempts = 5

type txRunner interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type accountRepo interface {
	Create(ctx context.Context, tx *sql.Tx, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]domain.Account, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error
}

type userRepo interface {
	Create(ctx context.Context, tx *sql.Tx, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

type AccountService struct {
	db         txRunner
	accounts   accountRepo
	users      userRepo
	jwtSecret  string
	jwtExpiry  time.Duration
	bcryptCost int
}

func NewAccountService(db txRunner, accounts accountRepo, users userRepo, jwtSecret string, jwtExpiry time.Duration) *AccountService {
	return &AccountService{
		db:         db,
		accounts:   accounts,
		users:      users,
		jwtSecret:  jwtSecret,
		jwtExpiry:  jwtExpiry,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// WithBcryptCost lowers the hashing cost for tests.
func (s *AccountService) WithBcryptCost(cost int) *AccountService {
	s.bcryptCost = cost
	return s
}

type Registration struct {
	Email    string
	Username string
	Password string
}

// Session is what a successful register or login hands back to the client.
type Session struct {
	Token   string
	User    *domain.User
	Account *domain.Account
}

// Register creates a user and its wallet in one transaction. Wallet numbers
// are random, so a collision retries with a fresh number.
func (s *AccountService) Register(ctx context.Context, in Registration) (*Session, error) {
	log := logging.FromContext(ctx)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("Register: hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: string(hash),
		CreatedAt:    now,
	}

	var account *domain.Account
	for attempt := 1; ; attempt++ {
		number, err := generateAccountNumber()
		if err != nil {
			return nil, fmt.Errorf("Register: %w", err)
		}
		account = &domain.Account{
			ID:            uuid.New(),
			UserID:        user.ID,
			AccountNumber: number,
			Role:          domain.RoleUser,
			Status:        domain.AccountStatusActive,
			CreatedAt:     now,
		}

		err = s.db.InTx(ctx, func(tx *sql.Tx) error {
			if err := s.users.Create(ctx, tx, user); err != nil {
				return err
			}
			return s.accounts.Create(ctx, tx, account)
		})
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrDuplicateEntry) && attempt < accountNumberAttempts {
			log.Warn("wallet number collision, retrying", "attempt", attempt)
			continue
		}
		return nil, fmt.Errorf("Register: %w", err)
	}

	token, err := s.issue(user, account)
	if err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	log.Info("user registered", "user_id", user.ID, "account_id", account.ID)
	return &Session{Token: token, User: user, Account: account}, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("Login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
	}

	account, err := s.accounts.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}

	token, err := s.issue(user, account)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		logging.FromContext(ctx).Warn("failed to record last login", "error", err, "user_id", user.ID)
	}
	return &Session{Token: token, User: user, Account: account}, nil
}

func (s *AccountService) issue(user *domain.User, account *domain.Account) (string, error) {
	return auth.GenerateToken(auth.Claims{
		UserID:    user.ID,
		AccountID: account.ID,
		Email:     user.Email,
	}, s.jwtSecret, s.jwtExpiry)
}

// Profile is an account together with its owner.
type Profile struct {
	User    *domain.User
	Account *domain.Account
}

func (s *AccountService) Profile(ctx context.Context, accountID uuid.UUID) (*Profile, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("Profile: %w", err)
	}
	user, err := s.users.GetByID(ctx, account.UserID)
	if err != nil {
		return nil, fmt.Errorf("Profile: %w", err)
	}
	return &Profile{User: user, Account: account}, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return account, nil
}

// ResolveRecipient finds the wallet a username points at.
func (s *AccountService) ResolveRecipient(ctx context.Context, username string) (*domain.Account, error) {
	account, err := s.accounts.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("ResolveRecipient: %w", domain.ErrRecipientNotFound)
		}
		return nil, fmt.Errorf("ResolveRecipient: %w", err)
	}
	return account, nil
}

// IsAdmin reads the role from storage on every call.
func (s *AccountService) IsAdmin(ctx context.Context, accountID uuid.UUID) (bool, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("IsAdmin: %w", err)
	}
	return account.IsAdmin() && account.Status == domain.AccountStatusActive, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, int, error) {
	accounts, total, err := s.accounts.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, total, nil
}

func (s *AccountService) SetStatus(ctx context.Context, accountID uuid.UUID, status domain.AccountStatus, adminID uuid.UUID) (*domain.Account, error) {
	if status != domain.AccountStatusActive && status != domain.AccountStatusSuspended {
		return nil, fmt.Errorf("SetStatus: status %q: %w", status, domain.ErrInvalidRequest)
	}
	if err := s.accounts.UpdateStatus(ctx, accountID, status); err != nil {
		return nil, fmt.Errorf("SetStatus: %w", err)
	}

	logging.FromContext(ctx).Info("account status changed",
		"account_id", accountID,
		"status", status,
		"admin_id", adminID,
	)
	return s.GetAccount(ctx, accountID)
}

func generateAccountNumber() (string, error) {
	digits := make([]byte, 10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generateAccountNumber: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}
