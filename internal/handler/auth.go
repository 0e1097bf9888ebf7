package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"regexp"

	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/service"
)

type authService interface {
	Register(ctx context.Context, in service.Registration) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
}

type AuthHandler struct {
	accounts authService
}

func NewAuthHandler(accounts authService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	} else if _, err := mail.ParseAddress(r.Email); err != nil {
		errs = append(errs, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if r.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "required"})
	} else if !usernamePattern.MatchString(r.Username) {
		errs = append(errs, FieldError{Field: "username", Message: "3-30 letters, digits or underscores"})
	}
	if len(r.Password) < minPasswordLength {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	return errs
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type sessionResponse struct {
	Token   string     `json:"token"`
	User    userDTO    `json:"user"`
	Account accountDTO `json:"account"`
}

func toSessionResponse(s *service.Session) sessionResponse {
	return sessionResponse{
		Token:   s.Token,
		User:    toUserDTO(s.User),
		Account: toAccountDTO(s.Account),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	sess, err := h.accounts.Register(r.Context(), service.Registration{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("registration failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toSessionResponse(sess))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	sess, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toSessionResponse(sess))
}
