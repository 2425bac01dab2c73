// Command lgplay plays the L-Game against the engine in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/lgengine/pkg/engine"
)

// engineMsg carries the engine's reply back to the UI.
type engineMsg struct {
	decision *engine.Decision
	err      error
}

type model struct {
	ctx        context.Context
	engine     *engine.Engine
	game       *engine.Game
	difficulty engine.Difficulty
	rng        *rand.Rand
	tutor      bool

	input    string
	status   string
	feedback string
	thinking bool
	history  []string
}

func initialModel(ctx context.Context, e *engine.Engine, g *engine.Game, d engine.Difficulty, rng *rand.Rand, tutor bool) model {
	return model{
		ctx:        ctx,
		engine:     e,
		game:       g,
		difficulty: d,
		rng:        rng,
		tutor:      tutor,
		status:     "Your move (you are P).",
		thinking:   !g.Over() && g.Turn == engine.Cpu,
	}
}

// thinkCmd asks the engine for the Cpu's move on a copy of the board.
func (m model) thinkCmd() tea.Cmd {
	board, turn := m.game.Board, m.game.Turn
	e, d, rng, ctx := m.engine, m.difficulty, m.rng, m.ctx
	return func() tea.Msg {
		dec, err := e.BestMove(ctx, board, turn, d, rng)
		return engineMsg{decision: dec, err: err}
	}
}

func (m model) Init() tea.Cmd {
	if !m.game.Over() && m.game.Turn == engine.Cpu {
		return m.thinkCmd()
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.submit()
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		default:
			switch msg.Type {
			case tea.KeySpace:
				m.input += " "
			case tea.KeyRunes:
				m.input += string(msg.Runes)
			}
		}

	case engineMsg:
		m.thinking = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Engine error: %v", msg.err)
			return m, nil
		}
		if msg.decision.Move != nil {
			move := *msg.decision.Move
			if err := m.game.Play(move); err != nil {
				m.status = fmt.Sprintf("Engine error: %v", err)
				return m, nil
			}
			m.history = append(m.history, "C "+engine.FormatMove(move))
			log.Debug().
				Str("move", engine.FormatMove(move)).
				Float64("score", msg.decision.Score).
				Bool("random", msg.decision.Random).
				Int64("nodes", msg.decision.Nodes).
				Msg("engine-move")
		}
		m.status = m.statusLine()
	}
	return m, nil
}

// submit handles a line of input: a move, "hint", "new" or "quit".
func (m model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input)
	m.input = ""

	switch strings.ToLower(line) {
	case "":
		return m, nil
	case "q", "quit", "exit":
		return m, tea.Quit
	case "new":
		// The pending reply belongs to the current game.
		if m.thinking {
			m.status = "Wait for the engine to move first."
			return m, nil
		}
		m.game.Reset()
		m.history = nil
		m.feedback = ""
		m.thinking = !m.game.Over() && m.game.Turn == engine.Cpu
		m.status = m.statusLine()
		return m, m.Init()
	case "hint", "?":
		if m.game.Over() || m.game.Turn != engine.Player {
			m.status = "No hint available now."
			return m, nil
		}
		r := m.engine.Search(m.game.Board, engine.Player, engine.Hard.Depth())
		if r.BestMove != nil {
			m.status = fmt.Sprintf("Hint: %s", engine.FormatMove(*r.BestMove))
		}
		return m, nil
	}

	if m.thinking || m.game.Over() || m.game.Turn != engine.Player {
		m.status = "Not your turn."
		return m, nil
	}

	move, err := engine.ParseMove(line, engine.Player)
	if err != nil {
		m.status = fmt.Sprintf("Cannot read %q: %v", line, err)
		return m, nil
	}
	before := m.game.Board
	if err := m.game.Play(move); err != nil {
		m.status = fmt.Sprintf("Illegal move: %v", err)
		return m, nil
	}
	m.history = append(m.history, "P "+engine.FormatMove(move))

	m.feedback = ""
	if m.tutor {
		if a, err := m.engine.AnalyzeMoveSkill(before, move, 2); err == nil && !a.IsForced {
			m.feedback = fmt.Sprintf("%s (best %s, lost %g)", a.Skill, engine.FormatMove(a.BestMove), a.Loss)
		}
	}

	if m.game.Over() {
		m.status = m.statusLine()
		return m, nil
	}
	m.thinking = true
	m.status = "Thinking..."
	return m, m.thinkCmd()
}

func (m model) statusLine() string {
	g := m.game
	if winner, ok := g.Result.Winner(); ok {
		if winner == engine.Player {
			return "You win! Type \"new\" to play again."
		}
		return "The engine wins. Type \"new\" to play again."
	}
	if g.Over() {
		return "Draw by move limit. Type \"new\" to play again."
	}
	if g.Turn == engine.Player {
		return "Your move (you are P)."
	}
	return "Thinking..."
}

func (m model) View() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "L-Game vs engine (%s)\n\n", m.difficulty)

	// Row 1 on top, as in Board.String.
	for row := 0; row < engine.Size; row++ {
		fmt.Fprintf(&sb, "  %d ", row+1)
		for col := 0; col < engine.Size; col++ {
			fmt.Fprintf(&sb, " %s", m.game.Board[row][col])
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("     a b c d\n\n")

	fmt.Fprintf(&sb, "Ply %d, %s to move, %d legal moves\n",
		m.game.Plies(), m.game.Turn, len(m.game.LegalMoves()))
	start := 0
	if len(m.history) > 6 {
		start = len(m.history) - 6
	}
	for _, h := range m.history[start:] {
		fmt.Fprintf(&sb, "  %s\n", h)
	}
	if m.feedback != "" {
		fmt.Fprintf(&sb, "\nYour last move: %s\n", m.feedback)
	}
	fmt.Fprintf(&sb, "\n%s\n> %s\n", m.status, m.input)
	sb.WriteString("\nMoves look like \"a1a2a3b3 d1-d2\". Commands: hint, new, quit.\n")
	return sb.String()
}

func main() {
	difficulty := flag.String("difficulty", "medium", "Engine difficulty (easy, medium, hard)")
	first := flag.String("first", "player", "Side to move first (player or cpu)")
	position := flag.String("p", "start", "Starting position")
	seed := flag.Int64("seed", 0, "Random seed (0 = random)")
	tutor := flag.Bool("tutor", false, "Rate every move you play")
	logFile := flag.String("log", "", "Write debug logs to this file")
	flag.Parse()

	// The terminal belongs to the UI.
	zerolog.SetGlobalLevel(zerolog.Disabled)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.Logger = zerolog.New(f).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	d, err := engine.ParseDifficulty(*difficulty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	side, err := engine.ParseSide(*first)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	board, err := engine.ParseBoard(*position)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	g, err := engine.NewGameFrom(board, side)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	e, err := engine.NewEngine(engine.DefaultEngineOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	log.Info().Int64("seed", s).Str("difficulty", d.String()).Msg("lgplay-start")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := initialModel(ctx, e, g, d, rand.New(rand.NewSource(s)), *tutor)
	m.status = m.statusLine()
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
