package engine

import (
	"fmt"
	"strings"
)

// MaxMoves bounds the composite move count of any position:
// 48 placements x (1 + 2 tokens x 6 empty cells).
const MaxMoves = 48 * 13

// TokenMove relocates one neutral token.
type TokenMove struct {
	From Coord
	To   Coord
}

func (t TokenMove) String() string {
	return t.From.String() + "-" + t.To.String()
}

// Move is a composite move: an L placement plus an optional token relocation.
type Move struct {
	Side  Side
	L     Placement
	Token *TokenMove // nil when the token move is skipped
}

// Equal reports whether two moves place the L identically and move the same
// token (or both skip the token move).
func (m Move) Equal(o Move) bool {
	if m.Side != o.Side || m.L != o.L {
		return false
	}
	if m.Token == nil || o.Token == nil {
		return m.Token == nil && o.Token == nil
	}
	return *m.Token == *o.Token
}

// String returns the move in algebraic notation, e.g. "a2b2c2a3 d1-b4".
func (m Move) String() string {
	return FormatMove(m)
}

// GeneratePlacements returns every legal new L placement for side: the
// side's own L is lifted off a copy of the board, every shape is tried at
// every in-bounds translation, and the original placement is excluded.
func GeneratePlacements(board Board, side Side) []Placement {
	original := board.Placement(side)
	lifted := liftL(board, side)
	opponent := side.Opponent().Tag()

	placements := make([]Placement, 0, 8)
	for _, p := range allPlacements {
		if p == original {
			continue
		}
		if IsLegalPlacement(lifted, p, opponent) {
			placements = append(placements, p)
		}
	}
	return placements
}

// Mobility is the number of legal L placements available to side.
func Mobility(board Board, side Side) int {
	original := board.Placement(side)
	lifted := liftL(board, side)
	opponent := side.Opponent().Tag()

	n := 0
	for _, p := range allPlacements {
		if p != original && IsLegalPlacement(lifted, p, opponent) {
			n++
		}
	}
	return n
}

// GenerateMoves enumerates every composite move for side. Each legal
// placement is paired with "no token move" and with every relocation of
// either token to a cell left empty by that placement.
func GenerateMoves(board Board, side Side) []Move {
	placements := GeneratePlacements(board, side)
	if len(placements) == 0 {
		return nil
	}

	tokens := board.Tokens()
	lifted := liftL(board, side)

	moves := make([]Move, 0, len(placements)*13)
	for _, p := range placements {
		moves = append(moves, Move{Side: side, L: p})

		placed := lifted
		placeL(&placed, p, side.Tag())
		empties := placed.Cells(Empty)

		for _, from := range tokens {
			for _, to := range empties {
				moves = append(moves, Move{
					Side:  side,
					L:     p,
					Token: &TokenMove{From: from, To: to},
				})
			}
		}
	}
	return moves
}

// ApplyMove returns the board after move. The input board is not modified.
func ApplyMove(board Board, move Move) Board {
	next := liftL(board, move.Side)
	placeL(&next, move.L, move.Side.Tag())
	if move.Token != nil {
		next.Set(move.Token.From, Empty)
		next.Set(move.Token.To, Token)
	}
	return next
}

// FindMove returns the index of move in moves, or -1.
func FindMove(moves []Move, move Move) int {
	for i := range moves {
		if moves[i].Equal(move) {
			return i
		}
	}
	return -1
}

// liftL returns a copy of board with side's L cells cleared.
func liftL(board Board, side Side) Board {
	tag := side.Tag()
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if board[r][c] == tag {
				board[r][c] = Empty
			}
		}
	}
	return board
}

func placeL(board *Board, p Placement, tag Cell) {
	for _, c := range p {
		board[c.Row][c.Col] = tag
	}
}

// FormatMove renders a move as its four L cells, followed by the token
// relocation if there is one.
func FormatMove(m Move) string {
	if m.Token == nil {
		return m.L.String()
	}
	return m.L.String() + " " + m.Token.String()
}

// ParseMove parses the FormatMove notation for side. The L cells may be
// given in any order; the token part is optional.
func ParseMove(s string, side Side) (Move, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return Move{}, fmt.Errorf("invalid move: %q", s)
	}

	l, err := ParsePlacement(fields[0])
	if err != nil {
		return Move{}, err
	}
	move := Move{Side: side, L: l}

	if len(fields) == 2 {
		from, to, ok := strings.Cut(fields[1], "-")
		if !ok {
			return Move{}, fmt.Errorf("invalid token move: %q", fields[1])
		}
		fc, err := ParseCoord(from)
		if err != nil {
			return Move{}, err
		}
		tc, err := ParseCoord(to)
		if err != nil {
			return Move{}, err
		}
		move.Token = &TokenMove{From: fc, To: tc}
	}
	return move, nil
}
