package positionid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startingBoard returns the standard opening position:
//
//	. P P T
//	. P C .
//	. P C .
//	T C C .
func startingBoard() Board {
	var board Board
	board[0][1], board[1][1], board[2][1], board[0][2] = CellPlayer, CellPlayer, CellPlayer, CellPlayer
	board[1][2], board[2][2], board[3][2], board[3][1] = CellCpu, CellCpu, CellCpu, CellCpu
	board[3][0], board[0][3] = CellToken, CellToken
	return board
}

const startingGrid = ".PPT/.PC./.PC./TCC."

func TestGridStartingPosition(t *testing.T) {
	assert.Equal(t, startingGrid, Grid(startingBoard()))

	board, err := BoardFromGrid(startingGrid)
	require.NoError(t, err)
	assert.Equal(t, startingBoard(), board)
}

func TestBoardFromGridLenient(t *testing.T) {
	board, err := BoardFromGrid(" .ppt .pc- xpc. tcc. ")
	require.NoError(t, err)
	assert.Equal(t, startingBoard(), board)
}

func TestBoardFromGridInvalid(t *testing.T) {
	tests := []struct {
		name string
		grid string
	}{
		{"too short", ".PPT/.PC./.PC."},
		{"bad char", ".PPZ/.PC./.PC./TCC."},
		{"three tokens", "TPPT/.PC./.PC./TCC."},
		{"missing cpu cell", ".PPT/.PC./.PC./TC.."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BoardFromGrid(tc.grid)
			assert.ErrorIs(t, err, ErrInvalidGrid)
		})
	}
}

func TestPositionKeyRoundTrip(t *testing.T) {
	board := startingBoard()
	key := MakePositionKey(board)
	assert.Equal(t, board, BoardFromKey(key))
}

func TestPositionIDRoundTrip(t *testing.T) {
	board := startingBoard()
	posID := PositionID(board)
	require.Len(t, posID, PositionIDLength)

	decoded, err := BoardFromPositionID(posID)
	require.NoError(t, err)
	assert.Equal(t, board, decoded)

	parsed, err := Parse(posID)
	require.NoError(t, err)
	assert.Equal(t, board, parsed)
}

func TestPositionIDDistinct(t *testing.T) {
	a := startingBoard()
	b := SwapSides(a)
	assert.NotEqual(t, PositionID(a), PositionID(b))
	assert.Equal(t, a, SwapSides(b))
}

func TestBoardFromPositionIDInvalid(t *testing.T) {
	for _, id := range []string{"", "AAAAA", "AAAAAAA", "AAAA!A", "zAAAAA"} {
		_, err := BoardFromPositionID(id)
		assert.ErrorIs(t, err, ErrInvalidPositionID, "id %q", id)
	}

	// Decodes, but an all-empty board is not a position.
	_, err := BoardFromPositionID("AAAAAA")
	assert.ErrorIs(t, err, ErrInvalidPositionID)
}
