package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRating(t *testing.T) {
	tests := []struct {
		lpm  float64
		want RatingType
	}{
		{0, RatingExpert},
		{0.1, RatingExpert},
		{0.25, RatingAdvanced},
		{1, RatingIntermediate},
		{2, RatingBeginner},
		{3, RatingAwful},
		{50, RatingAwful},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, GetRating(tc.lpm), "lpm %v", tc.lpm)
	}
	assert.Equal(t, "Intermediate", RatingIntermediate.String())
}

func TestReviewGameBestPlay(t *testing.T) {
	e := newTestEngine(t)

	// Both sides play the depth-2 search move, so nothing is lost at depth 2.
	g := NewGame(Player)
	for i := 0; i < 4 && !g.Over(); i++ {
		r := e.Search(g.Board, g.Turn, 2)
		require.NotNil(t, r.BestMove)
		require.NoError(t, g.Play(*r.BestMove))
	}

	review, err := e.ReviewGame(g.Start, g.First, g.History, ReviewOptions{Depth: 2})
	require.NoError(t, err)
	assert.Equal(t, len(g.History), review.Plies)
	assert.Empty(t, review.Errors)
	assert.Zero(t, review.Player.TotalLoss)
	assert.Zero(t, review.Cpu.TotalLoss)
	assert.Equal(t, len(g.History), review.Player.Moves+review.Player.Forced+review.Cpu.Moves+review.Cpu.Forced)
	if review.Player.Moves > 0 {
		assert.Equal(t, RatingExpert, review.Player.Rating)
	}
}

func TestReviewGameMatchesTutor(t *testing.T) {
	e := newTestEngine(t)
	start := StartingBoard()

	m1, err := ParseMove("a1a2a3b3 d1-d2", Player)
	require.NoError(t, err)
	m2, err := ParseMove("b4c4d4d3", Cpu)
	require.NoError(t, err)

	review, err := e.ReviewGame(start, Player, []Move{m1, m2}, ReviewOptions{Depth: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, review.Plies)
	assert.Equal(t, ResultNone, review.Result)
	assert.Equal(t, 1, review.Player.Moves)
	assert.Equal(t, 1, review.Cpu.Moves)

	tutor, err := e.AnalyzeMoveSkill(start, m1, 1)
	require.NoError(t, err)
	assert.InDelta(t, tutor.Loss, review.Player.TotalLoss, 1e-9)
	assert.InDelta(t, tutor.Loss, review.Player.LossPerMove, 1e-9)
}

func TestReviewGameIllegalMove(t *testing.T) {
	e := newTestEngine(t)

	// Putting the L back where it stands is not a move.
	noop, err := ParseMove("b1c1b2b3", Player)
	require.NoError(t, err)

	_, err = e.ReviewGame(StartingBoard(), Player, []Move{noop}, DefaultReviewOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIllegalMove)
	assert.Contains(t, err.Error(), "ply 1")
}
