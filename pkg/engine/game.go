package engine

import (
	"errors"
	"fmt"
)

// Game errors
var (
	ErrIllegalMove = errors.New("illegal move")
	ErrGameOver    = errors.New("game is over")
	ErrWrongTurn   = errors.New("not this side's turn")
)

// DefaultMaxPlies caps a game's length. L-Game play can cycle forever, so
// a capped game ends as a draw.
const DefaultMaxPlies = 200

// Result is the outcome of a game.
type Result int

const (
	ResultNone   Result = iota // Still in progress
	ResultPlayer               // Player won
	ResultCpu                  // Cpu won
	ResultDraw                 // Ply cap reached
)

func (r Result) String() string {
	return [...]string{"none", "player", "cpu", "draw"}[r]
}

// MarshalText encodes the result by name.
func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ParseResult parses the String form of a result.
func ParseResult(s string) (Result, error) {
	for r := ResultNone; r <= ResultDraw; r++ {
		if r.String() == s {
			return r, nil
		}
	}
	return ResultNone, fmt.Errorf("invalid result: %q", s)
}

// Winner returns the winning side, if any.
func (r Result) Winner() (Side, bool) {
	switch r {
	case ResultPlayer:
		return Player, true
	case ResultCpu:
		return Cpu, true
	}
	return Player, false
}

func winResult(s Side) Result {
	if s == Cpu {
		return ResultCpu
	}
	return ResultPlayer
}

// Game is a game session: the live board, whose turn it is and the moves
// played so far. It is not safe for concurrent use.
type Game struct {
	Start    Board  // Position the game started from
	First    Side   // Side that moved first
	Board    Board  // Current position
	Turn     Side   // Side to move
	History  []Move // Moves played, in order
	Result   Result
	MaxPlies int // 0 = unlimited
}

// NewGame starts a game from the standard position.
func NewGame(first Side) *Game {
	g := &Game{MaxPlies: DefaultMaxPlies}
	g.reset(StartingBoard(), first)
	return g
}

// NewGameFrom starts a game from an arbitrary valid position.
func NewGameFrom(board Board, turn Side) (*Game, error) {
	if err := board.Validate(); err != nil {
		return nil, err
	}
	g := &Game{MaxPlies: DefaultMaxPlies}
	g.reset(board, turn)
	return g, nil
}

// Reset restarts the game from its starting position.
func (g *Game) Reset() {
	g.reset(g.Start, g.First)
}

func (g *Game) reset(board Board, first Side) {
	g.Start = board
	g.First = first
	g.Board = board
	g.Turn = first
	g.History = g.History[:0]
	g.Result = ResultNone
	g.checkEnd()
}

// Over reports whether the game has finished.
func (g *Game) Over() bool {
	return g.Result != ResultNone
}

// Plies returns the number of moves played.
func (g *Game) Plies() int {
	return len(g.History)
}

// LegalMoves returns the moves available to the side to move.
func (g *Game) LegalMoves() []Move {
	if g.Over() {
		return nil
	}
	return GenerateMoves(g.Board, g.Turn)
}

// Play applies a move for the side to move after checking it is legal.
func (g *Game) Play(m Move) error {
	if g.Over() {
		return ErrGameOver
	}
	if m.Side != g.Turn {
		return fmt.Errorf("%w: %s to move", ErrWrongTurn, g.Turn)
	}
	if FindMove(GenerateMoves(g.Board, g.Turn), m) < 0 {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}

	g.Board = ApplyMove(g.Board, m)
	g.History = append(g.History, m)
	g.Turn = g.Turn.Opponent()
	g.checkEnd()
	return nil
}

// checkEnd sets the result when the side to move is stuck or the ply cap
// is reached. A stuck side loses even on the last allowed ply.
func (g *Game) checkEnd() {
	if Mobility(g.Board, g.Turn) == 0 {
		g.Result = winResult(g.Turn.Opponent())
		return
	}
	if g.MaxPlies > 0 && len(g.History) >= g.MaxPlies {
		g.Result = ResultDraw
	}
}

// Replay rebuilds a game from a start position and a move list.
func Replay(start Board, first Side, moves []Move) (*Game, error) {
	g, err := NewGameFrom(start, first)
	if err != nil {
		return nil, err
	}
	g.MaxPlies = 0
	for i, m := range moves {
		if err := g.Play(m); err != nil {
			return g, fmt.Errorf("ply %d: %w", i+1, err)
		}
	}
	return g, nil
}
