package game

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/naira-wallet/internal/domain"
)

// firstSource always picks index 0, so sampling is deterministic.
func firstSource(int) (int, error) { return 0, nil }

func TestCandidates_DistinctAndInRange(t *testing.T) {
	e := NewEngine(nil)

	for i := 0; i < 50; i++ {
		c, err := e.Candidates()
		require.NoError(t, err)
		require.Len(t, c, CandidateCount)

		seen := map[int]bool{}
		for _, n := range c {
			assert.GreaterOrEqual(t, n, 1)
			assert.LessOrEqual(t, n, MaxNumber)
			assert.False(t, seen[n], "duplicate candidate %d", n)
			seen[n] = true
		}
	}
}

func TestDraw_SubsetOfCandidates(t *testing.T) {
	e := NewEngine(nil)
	candidates := []int{3, 7, 11, 19, 23, 31, 42, 50, 51, 60, 66, 70, 81, 90, 99}

	for i := 0; i < 50; i++ {
		w, err := e.Draw(candidates)
		require.NoError(t, err)
		require.Len(t, w, PickCount)
		for _, n := range w {
			assert.Contains(t, candidates, n)
		}
		assert.Len(t, uniq(w), PickCount)
	}
	assert.Equal(t, []int{3, 7, 11, 19, 23, 31, 42, 50, 51, 60, 66, 70, 81, 90, 99}, candidates, "input must not be reordered")
}

func TestDraw_Deterministic(t *testing.T) {
	e := NewEngine(firstSource)
	w, err := e.Draw([]int{5, 6, 7, 8, 9})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6, 7, 8}, w)
}

func TestDraw_SourceError(t *testing.T) {
	boom := errors.New("entropy exhausted")
	e := NewEngine(func(int) (int, error) { return 0, boom })
	_, err := e.Draw([]int{1, 2, 3, 4, 5})
	require.ErrorIs(t, err, boom)
}

func TestMatches(t *testing.T) {
	assert.Equal(t, 4, Matches([]int{1, 2, 3, 4}, []int{4, 3, 2, 1}))
	assert.Equal(t, 2, Matches([]int{1, 2, 3, 4}, []int{1, 2, 8, 9}))
	assert.Equal(t, 0, Matches([]int{1, 2, 3, 4}, []int{5, 6, 7, 8}))
}

func TestRoundLifecycle(t *testing.T) {
	e := NewEngine(firstSource)

	r, err := e.Open(uuid.New())
	require.NoError(t, err)
	assert.Equal(t, domain.RoundStateSelecting, r.State)
	// firstSource yields 1..15.
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, r.Candidates)

	require.NoError(t, Commit(r, 100_000, []int{1, 2, 3, 9}))
	assert.Equal(t, domain.RoundStateCommitted, r.State)

	require.NoError(t, e.Resolve(r))
	assert.Equal(t, domain.RoundStateResolved, r.State)
	assert.Equal(t, []int{1, 2, 3, 4}, r.Winning)
	assert.Equal(t, 3, r.Matches)
	assert.Equal(t, int64(100_000), r.Payout)
	assert.True(t, r.Won())

	err = Commit(r, 100_000, []int{1, 2, 3, 4})
	require.ErrorIs(t, err, domain.ErrRoundNotOpen)
	require.ErrorIs(t, e.Resolve(r), domain.ErrRoundNotOpen)
}

func TestCommit_RejectsBadPicks(t *testing.T) {
	tests := []struct {
		name  string
		picks []int
	}{
		{"too few", []int{1, 2, 3}},
		{"too many", []int{1, 2, 3, 4, 5}},
		{"duplicate", []int{1, 1, 2, 3}},
		{"not a candidate", []int{1, 2, 3, 98}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &domain.GameRound{
				State:      domain.RoundStateSelecting,
				Candidates: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
			}
			err := Commit(r, 10_000, tc.picks)
			require.ErrorIs(t, err, domain.ErrInvalidSelection)
			assert.Equal(t, domain.RoundStateSelecting, r.State)
		})
	}
}

func TestResolve_RequiresCommit(t *testing.T) {
	e := NewEngine(nil)
	r, err := e.Open(uuid.New())
	require.NoError(t, err)
	require.ErrorIs(t, e.Resolve(r), domain.ErrRoundNotOpen)
}

func TestGuess(t *testing.T) {
	e := NewEngine(nil)
	for i := 0; i < 100; i++ {
		g, err := e.Guess()
		require.NoError(t, err)
		require.NoError(t, ValidateGuess(g))
	}
	require.ErrorIs(t, ValidateGuess(0), domain.ErrInvalidSelection)
	require.ErrorIs(t, ValidateGuess(4), domain.ErrInvalidSelection)
}

func uniq(xs []int) map[int]struct{} {
	m := make(map[int]struct{}, len(xs))
	for _, x := range xs {
		m[x] = struct{}{}
	}
	return m
}
