package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

func TestSearchDepthZeroIsMobility(t *testing.T) {
	for _, b := range randomBoards(t, 100, 3) {
		for _, maximizing := range []bool{true, false} {
			if Mobility(b, SideToMove(maximizing)) == 0 {
				continue
			}
			r := Search(b, 0, negInf, posInf, maximizing)
			assert.Nil(t, r.BestMove)
			assert.Equal(t, float64(Mobility(b, Cpu)-Mobility(b, Player)), r.Score)
		}
	}
}

func TestSearchNoMovesIsTerminal(t *testing.T) {
	b := mustBoard(t, boxedGrid)

	for depth := 0; depth <= 3; depth++ {
		r := Search(b, depth, negInf, posInf, false)
		assert.Nil(t, r.BestMove, "depth %d", depth)
		assert.Equal(t, WinScore, r.Score, "depth %d", depth)
	}

	// Cpu to move is not terminal: at depth 0 it is plain mobility.
	r := Search(b, 0, negInf, posInf, true)
	assert.Equal(t, 11.0, r.Score)

	// Cpu can keep the Player boxed in.
	r = Search(b, 1, negInf, posInf, true)
	assert.Equal(t, WinScore, r.Score)
	require.NotNil(t, r.BestMove)
	assert.Empty(t, GenerateMoves(ApplyMove(b, *r.BestMove), Player))
}

func TestSearchStartingPosition(t *testing.T) {
	b := StartingBoard()
	tests := []struct {
		depth int
		cpu   float64
	}{
		{0, 0},
		{1, 4},
		{2, -4},
		{3, 6},
	}

	for _, tc := range tests {
		if tc.depth == 3 && testing.Short() {
			continue
		}
		cpu := Search(b, tc.depth, negInf, posInf, true)
		assert.Equal(t, tc.cpu, cpu.Score, "cpu depth %d", tc.depth)

		// The position is symmetric, so Player sees the mirror score.
		player := Search(b, tc.depth, negInf, posInf, false)
		assert.Equal(t, -tc.cpu, player.Score, "player depth %d", tc.depth)

		if tc.depth > 0 {
			require.NotNil(t, cpu.BestMove)
			assert.Equal(t, Cpu, cpu.BestMove.Side)
			assert.GreaterOrEqual(t, FindMove(GenerateMoves(b, Cpu), *cpu.BestMove), 0)
		}
	}
}

func TestAlphaBetaMatchesMinimax(t *testing.T) {
	boards := randomBoards(t, 12, 21)
	maxDepth := 2
	if !testing.Short() {
		boards = append(boards, mustBoard(t, boxedGrid))
	}

	for i, b := range boards {
		for _, maximizing := range []bool{true, false} {
			for depth := 0; depth <= maxDepth; depth++ {
				pruned := Search(b, depth, negInf, posInf, maximizing)
				full := Minimax(b, depth, maximizing)
				assert.Equal(t, full.Score, pruned.Score, "board %d depth %d max %v", i, depth, maximizing)
				assert.LessOrEqual(t, pruned.Nodes, full.Nodes)
			}
		}
	}
}

func TestAlphaBetaMatchesMinimaxDepth3(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full-width depth 3 search in short mode")
	}

	b := StartingBoard()
	pruned := Search(b, 3, negInf, posInf, true)
	full := Minimax(b, 3, true)
	assert.Equal(t, full.Score, pruned.Score)
	assert.Less(t, pruned.Nodes, full.Nodes)
	t.Logf("depth 3: %d nodes pruned, %d full", pruned.Nodes, full.Nodes)
}

func TestSearchJitter(t *testing.T) {
	b := StartingBoard()

	// No source, no noise.
	r := SearchWithOptions(b, 1, negInf, posInf, true, SearchOptions{Jitter: 2})
	assert.Equal(t, 4.0, r.Score)

	// Seeded noise is reproducible and bounded by the amplitude.
	a := SearchWithOptions(b, 1, negInf, posInf, true, SearchOptions{Jitter: 2, Rand: rand.New(rand.NewSource(5))})
	c := SearchWithOptions(b, 1, negInf, posInf, true, SearchOptions{Jitter: 2, Rand: rand.New(rand.NewSource(5))})
	assert.Equal(t, a.Score, c.Score)
	require.NotNil(t, a.BestMove)
	assert.True(t, a.BestMove.Equal(*c.BestMove))
	assert.InDelta(t, 4.0, a.Score, 2.0)
}

func TestSearchMobilityOverride(t *testing.T) {
	calls := 0
	counting := func(b Board, s Side) int {
		calls++
		return Mobility(b, s)
	}

	b := StartingBoard()
	r := SearchWithOptions(b, 1, negInf, posInf, true, SearchOptions{Mobility: counting})
	assert.Equal(t, 4.0, r.Score)
	assert.Positive(t, calls)
}

func BenchmarkSearchDepth3(b *testing.B) {
	board := StartingBoard()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Search(board, 3, negInf, posInf, true)
	}
}
