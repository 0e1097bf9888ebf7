package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
	"github.com/josh-kwaku/naira-wallet/internal/logging"
	"github.com/josh-kwaku/naira-wallet/internal/policy"
	"github.com/josh-kwaku/naira-wallet/internal/service/ledger"
)

type gamePlayer interface {
	OpenLuckyRound(ctx context.Context, accountID uuid.UUID) (*domain.GameRound, error)
	PlayLuckyRound(ctx context.Context, in ledger.LuckyPlayIntent) (*ledger.LuckyResult, error)
	PlayNumberGuess(ctx context.Context, in ledger.GuessIntent) (*ledger.GuessResult, error)
}

type GameHandler struct {
	games gamePlayer
}

func NewGameHandler(games gamePlayer) *GameHandler {
	return &GameHandler{games: games}
}

type roundDTO struct {
	ID         uuid.UUID  `json:"id"`
	State      string     `json:"state"`
	Candidates []int      `json:"candidates"`
	Picks      []int      `json:"picks,omitempty"`
	Winning    []int      `json:"winning,omitempty"`
	Stake      int64      `json:"stake,omitempty"`
	Matches    int        `json:"matches"`
	Payout     int64      `json:"payout"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func toRoundDTO(r *domain.GameRound) roundDTO {
	return roundDTO{
		ID:         r.ID,
		State:      string(r.State),
		Candidates: r.Candidates,
		Picks:      r.Selection,
		Winning:    r.Winning,
		Stake:      r.Stake,
		Matches:    r.Matches,
		Payout:     r.Payout,
		CreatedAt:  r.CreatedAt,
		ResolvedAt: r.ResolvedAt,
	}
}

func (h *GameHandler) OpenRound(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	round, err := h.games.OpenLuckyRound(r.Context(), p.AccountID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("open lucky round failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toRoundDTO(round))
}

type playRequest struct {
	Stake int64 `json:"stake"`
	Picks []int `json:"picks"`
}

func (r playRequest) Validate() []FieldError {
	if len(r.Picks) == 0 {
		return []FieldError{{Field: "picks", Message: "required"}}
	}
	return nil
}

type playResponse struct {
	movementResponse
	Round roundDTO `json:"round"`
	Won   bool     `json:"won"`
}

func (h *GameHandler) PlayRound(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	roundID, appErr := idFromPath(r, ErrResourceNotFound)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	if !checkAmount(w, policy.OpLuckyNumbers, req.Stake) {
		return
	}

	res, err := h.games.PlayLuckyRound(r.Context(), ledger.LuckyPlayIntent{
		AccountID: p.AccountID,
		UserID:    p.UserID,
		RoundID:   roundID,
		Stake:     req.Stake,
		Picks:     req.Picks,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("lucky round play failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, playResponse{
		movementResponse: newMovementResponse(res.Entry, res.Account),
		Round:            toRoundDTO(res.Round),
		Won:              res.Round.Won(),
	})
}

type guessRequest struct {
	Stake int64 `json:"stake"`
	Guess int   `json:"guess"`
}

type guessResponse struct {
	movementResponse
	Guess  int   `json:"guess"`
	Drawn  int   `json:"drawn"`
	Won    bool  `json:"won"`
	Payout int64 `json:"payout"`
}

func (h *GameHandler) Guess(w http.ResponseWriter, r *http.Request) {
	p, appErr := principal(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req guessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if !checkAmount(w, policy.OpNumberGuess, req.Stake) {
		return
	}

	res, err := h.games.PlayNumberGuess(r.Context(), ledger.GuessIntent{
		AccountID: p.AccountID,
		UserID:    p.UserID,
		Stake:     req.Stake,
		Guess:     req.Guess,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("number guess failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, guessResponse{
		movementResponse: newMovementResponse(res.Entry, res.Account),
		Guess:            req.Guess,
		Drawn:            res.Drawn,
		Won:              res.Won,
		Payout:           res.Payout,
	})
}
