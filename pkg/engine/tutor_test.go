package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySkill(t *testing.T) {
	tests := []struct {
		loss float64
		want SkillType
	}{
		{0, SkillNone},
		{0.5, SkillNone},
		{1, SkillDoubtful},
		{2.5, SkillDoubtful},
		{3, SkillBad},
		{99, SkillBad},
		{100, SkillVeryBad},
		{200, SkillVeryBad},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, ClassifySkill(tc.loss), "loss %v", tc.loss)
	}
	assert.Equal(t, "??", SkillVeryBad.Abbr())
	assert.Equal(t, "very_bad", SkillVeryBad.Key())
}

func TestAnalyzePosition(t *testing.T) {
	e := newTestEngine(t)
	b := StartingBoard()

	result := e.AnalyzePosition(b, Cpu, 1)
	require.Equal(t, 65, result.NumMoves)
	require.Len(t, result.Moves, 65)

	// Ranked best first, and the best agrees with the search.
	for i := 1; i < len(result.Moves); i++ {
		assert.GreaterOrEqual(t, result.Moves[i-1].Value, result.Moves[i].Value)
	}
	assert.Equal(t, Search(b, 1, negInf, posInf, true).Score, result.BestScore)
	assert.Equal(t, 4.0, result.BestScore)
	assert.Equal(t, -15.0, result.Moves[len(result.Moves)-1].Score)

	// From the Player's side values are negated scores.
	result = e.AnalyzePosition(b, Player, 1)
	assert.Equal(t, -4.0, result.BestScore)
	assert.Equal(t, 4.0, result.Moves[0].Value)
}

func TestAnalyzePositionNoMoves(t *testing.T) {
	e := newTestEngine(t)
	result := e.AnalyzePosition(mustBoard(t, boxedGrid), Player, 2)
	assert.Zero(t, result.NumMoves)
	assert.Equal(t, WinScore, result.BestScore)
}

func TestRankMoves(t *testing.T) {
	e := newTestEngine(t)
	top := e.RankMoves(StartingBoard(), Cpu, 1, 3)
	assert.Len(t, top, 3)
	assert.Len(t, e.RankMoves(StartingBoard(), Cpu, 1, 0), 65)
}

func TestAnalyzeMoveSkill(t *testing.T) {
	e := newTestEngine(t)
	b := StartingBoard()
	result := e.AnalyzePosition(b, Cpu, 1)

	best, err := e.AnalyzeMoveSkill(b, result.BestMove, 1)
	require.NoError(t, err)
	assert.Equal(t, SkillNone, best.Skill)
	assert.Zero(t, best.Loss)
	assert.Len(t, best.TopMoves, 5)

	worst := result.Moves[len(result.Moves)-1].Move
	bad, err := e.AnalyzeMoveSkill(b, worst, 1)
	require.NoError(t, err)
	assert.Equal(t, 19.0, bad.Loss)
	assert.Equal(t, SkillBad, bad.Skill)
}

func TestAnalyzeMoveSkillIllegal(t *testing.T) {
	e := newTestEngine(t)
	b := StartingBoard()

	_, err := e.AnalyzeMoveSkill(b, Move{Side: Cpu, L: b.Placement(Cpu)}, 1)
	assert.ErrorIs(t, err, ErrIllegalMove)

	_, err = e.AnalyzeMoveSkill(mustBoard(t, boxedGrid), Move{Side: Player}, 1)
	assert.ErrorIs(t, err, ErrIllegalMove)
}
