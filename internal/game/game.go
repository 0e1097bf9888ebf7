// Package game implements the server-side draw for the wallet's games. Every
// random choice is made here, never by the client.
package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"slices"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

const (
	CandidateCount = 15
	PickCount      = 4
	MaxNumber      = 99

	GuessMin = 1
	GuessMax = 3
)

// Source returns a uniform integer in [0, n).
type Source func(n int) (int, error)

// CryptoSource draws from crypto/rand.
func CryptoSource(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("CryptoSource: %w", err)
	}
	return int(v.Int64()), nil
}

type Engine struct {
	src Source
}

func NewEngine(src Source) *Engine {
	if src == nil {
		src = CryptoSource
	}
	return &Engine{src: src}
}

// Candidates returns CandidateCount distinct numbers from 1..MaxNumber.
func (e *Engine) Candidates() ([]int, error) {
	pool := make([]int, MaxNumber)
	for i := range pool {
		pool[i] = i + 1
	}
	out, err := e.sample(pool, CandidateCount)
	if err != nil {
		return nil, fmt.Errorf("Candidates: %w", err)
	}
	slices.Sort(out)
	return out, nil
}

// Draw picks PickCount winners from candidates without replacement.
func (e *Engine) Draw(candidates []int) ([]int, error) {
	if len(candidates) < PickCount {
		return nil, fmt.Errorf("Draw: only %d candidates: %w", len(candidates), domain.ErrInvalidSelection)
	}
	out, err := e.sample(slices.Clone(candidates), PickCount)
	if err != nil {
		return nil, fmt.Errorf("Draw: %w", err)
	}
	return out, nil
}

// Guess draws the winning number for a number-guess play.
func (e *Engine) Guess() (int, error) {
	n, err := e.src(GuessMax - GuessMin + 1)
	if err != nil {
		return 0, fmt.Errorf("Guess: %w", err)
	}
	return GuessMin + n, nil
}

// sample is a partial Fisher-Yates over pool, which it mutates.
func (e *Engine) sample(pool []int, k int) ([]int, error) {
	for i := 0; i < k; i++ {
		j, err := e.src(len(pool) - i)
		if err != nil {
			return nil, err
		}
		pool[i], pool[i+j] = pool[i+j], pool[i]
	}
	return slices.Clone(pool[:k]), nil
}

// Matches counts how many picks appear in winning.
func Matches(picks, winning []int) int {
	n := 0
	for _, p := range picks {
		if slices.Contains(winning, p) {
			n++
		}
	}
	return n
}

// ValidateGuess checks a number-guess pick.
func ValidateGuess(guess int) error {
	if guess < GuessMin || guess > GuessMax {
		return fmt.Errorf("ValidateGuess: guess must be between %d and %d: %w", GuessMin, GuessMax, domain.ErrInvalidSelection)
	}
	return nil
}
