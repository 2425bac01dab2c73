package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	startGrid = ".PPT/.PC./.PC./TCC."
	// Player is boxed in: none of its 48 placements is free.
	boxedGrid = "PPP./PCCC/TC../.T.."
)

func mustBoard(t *testing.T, s string) Board {
	t.Helper()
	b, err := ParseBoard(s)
	require.NoError(t, err)
	return b
}

func TestStartingBoard(t *testing.T) {
	b := StartingBoard()
	require.NoError(t, b.Validate())
	assert.Equal(t, startGrid, b.Grid())

	assert.Equal(t, NewPlacement(Coord{0, 1}, Coord{1, 1}, Coord{2, 1}, Coord{0, 2}), b.Placement(Player))
	assert.Equal(t, NewPlacement(Coord{1, 2}, Coord{2, 2}, Coord{3, 2}, Coord{3, 1}), b.Placement(Cpu))
	assert.Equal(t, []Coord{{0, 3}, {3, 0}}, b.Tokens())
	assert.Len(t, b.Cells(Empty), 6)
}

func TestParseBoard(t *testing.T) {
	start := StartingBoard()

	for _, s := range []string{"start", "START", startGrid, start.PositionID()} {
		b, err := ParseBoard(s)
		require.NoError(t, err, s)
		assert.True(t, b.Equal(start), s)
	}
}

func TestParseBoardInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"garbage", "hello world"},
		{"wrong counts", ".PPT/.PC./.PC./TCCT"},
		{"player not an L", "PPPP/CC../C.../C.TT"},
		{"cpu not an L", ".PPT/.PC./.P.C/TCC."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBoard(tc.input)
			assert.ErrorIs(t, err, ErrInvalidBoard)
		})
	}
}

func TestBoardClone(t *testing.T) {
	a := StartingBoard()
	b := a.Clone()
	b.Set(Coord{0, 0}, Token)

	assert.Equal(t, Empty, a.At(Coord{0, 0}))
	assert.False(t, a.Equal(b))
}

func TestBoardPositionIDRoundTrip(t *testing.T) {
	for _, s := range []string{startGrid, boxedGrid} {
		b := mustBoard(t, s)
		decoded := mustBoard(t, b.PositionID())
		assert.Equal(t, b, decoded)
	}
}

func TestCoordNotation(t *testing.T) {
	c, err := ParseCoord("b3")
	require.NoError(t, err)
	assert.Equal(t, Coord{Row: 2, Col: 1}, c)
	assert.Equal(t, "b3", c.String())

	for _, s := range []string{"", "e1", "a0", "a5", "b33"} {
		_, err := ParseCoord(s)
		assert.Error(t, err, s)
	}
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide("CPU")
	require.NoError(t, err)
	assert.Equal(t, Cpu, s)
	assert.Equal(t, Player, s.Opponent())

	_, err = ParseSide("nobody")
	assert.Error(t, err)
}

func TestIsLegalPlacement(t *testing.T) {
	b := StartingBoard()
	lifted := liftL(b, Cpu)

	// Overlaps the token at a4.
	blocked := NewPlacement(Coord{1, 0}, Coord{2, 0}, Coord{3, 0}, Coord{3, 1})
	assert.False(t, IsLegalPlacement(lifted, blocked, PlayerL))

	// Overlaps the Player's L.
	blocked = NewPlacement(Coord{0, 0}, Coord{1, 0}, Coord{2, 0}, Coord{2, 1})
	assert.False(t, IsLegalPlacement(lifted, blocked, PlayerL))

	// Reuses Cpu cells in a new orientation.
	free := NewPlacement(Coord{1, 2}, Coord{1, 3}, Coord{2, 2}, Coord{3, 2})
	assert.True(t, IsLegalPlacement(lifted, free, PlayerL))
}

func TestShapes(t *testing.T) {
	placements := AllPlacements()
	require.Len(t, placements, 48)

	seen := make(map[Placement]bool)
	for _, p := range placements {
		assert.False(t, seen[p], "duplicate placement %s", p)
		seen[p] = true
		assert.True(t, p.InBounds())
		assert.GreaterOrEqual(t, p.ShapeIndex(), 0)
	}

	// Four in a row is not an L.
	line := NewPlacement(Coord{0, 0}, Coord{0, 1}, Coord{0, 2}, Coord{0, 3})
	assert.Equal(t, -1, line.ShapeIndex())
}

func TestParsePlacement(t *testing.T) {
	p, err := ParsePlacement("b3b1c1b2")
	require.NoError(t, err)
	assert.Equal(t, StartingBoard().Placement(Player), p)
	assert.Equal(t, "b1c1b2b3", p.String())

	_, err = ParsePlacement("a1b1c1d1")
	assert.Error(t, err)
	_, err = ParsePlacement("a1b1")
	assert.Error(t, err)
}
