// Package match provides game record import/export for L-Game sessions.
// Supports a plain-text record format and a per-ply Parquet export.
package match

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/yourusername/lgengine/pkg/engine"
)

// Match represents a series of games between the same two opponents.
type Match struct {
	// Match metadata
	Player  string  // Name of the Player side
	Cpu     string  // Name of the Cpu side
	Date    string  // Match date (YYYY-MM-DD format)
	Event   string  // Event name
	Comment string  // General match comments
	Games   []*Game // List of games in the match
}

// Game represents a single game within a match.
type Game struct {
	Number int           // Game number (1-indexed)
	Start  engine.Board  // Starting position (usually standard)
	First  engine.Side   // Side that moved first
	Moves  []engine.Move // Moves in order, alternating from First
	Result engine.Result // How the game ended
}

// NewMatch creates a new empty match.
func NewMatch(player, cpu string) *Match {
	return &Match{
		Player: player,
		Cpu:    cpu,
		Games:  make([]*Game, 0),
	}
}

// NewGame creates a new game with the standard starting position.
func NewGame(number int, first engine.Side) *Game {
	return &Game{
		Number: number,
		Start:  engine.StartingBoard(),
		First:  first,
		Moves:  make([]engine.Move, 0),
		Result: engine.ResultNone,
	}
}

// GameFromSession records a played session as game number.
func GameFromSession(number int, s *engine.Game) *Game {
	return &Game{
		Number: number,
		Start:  s.Start,
		First:  s.First,
		Moves:  append([]engine.Move(nil), s.History...),
		Result: s.Result,
	}
}

// AddSession appends a played session as the next game.
func (m *Match) AddSession(s *engine.Game) *Game {
	g := GameFromSession(len(m.Games)+1, s)
	m.Games = append(m.Games, g)
	return g
}

// AddMove appends a move. The side is taken from the ply parity.
func (g *Game) AddMove(move engine.Move) {
	move.Side = g.sideAt(len(g.Moves))
	g.Moves = append(g.Moves, move)
}

// sideAt returns the side to move at ply (0-indexed).
func (g *Game) sideAt(ply int) engine.Side {
	if ply%2 == 0 {
		return g.First
	}
	return g.First.Opponent()
}

// Replay plays the recorded moves from the start position and checks each
// one is legal. The returned session has no ply cap.
func (g *Game) Replay() (*engine.Game, error) {
	s, err := engine.Replay(g.Start, g.First, g.Moves)
	if err != nil {
		return nil, fmt.Errorf("game %d: %w", g.Number, err)
	}
	return s, nil
}

// Score returns the number of games won by each side and the draws.
func (m *Match) Score() (player, cpu, draws int) {
	player = lo.CountBy(m.Games, func(g *Game) bool { return g.Result == engine.ResultPlayer })
	cpu = lo.CountBy(m.Games, func(g *Game) bool { return g.Result == engine.ResultCpu })
	draws = lo.CountBy(m.Games, func(g *Game) bool { return g.Result == engine.ResultDraw })
	return player, cpu, draws
}
