// Package external implements a line-based TCP protocol for driving the
// engine from other programs.
//
// Protocol overview:
// - Server listens on a TCP port
// - Client connects and sends one command per line
// - Each connection has its own position, side to move, difficulty and RNG
// - Positions are grid strings (".PPT/.PC./.PC./TCC."), position IDs or "start"
// - Every response ends with a newline; errors start with "Error:"
package external

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/lgengine/pkg/engine"
)

// Version is reported by the version command.
const Version = "lgengine external protocol 1.0"

// Server implements the external protocol server.
type Server struct {
	engine   *engine.Engine
	listener net.Listener
	mu       sync.Mutex
	running  bool
	options  ServerOptions
	wg       sync.WaitGroup
}

// ServerOptions configures the external protocol server.
type ServerOptions struct {
	Host          string // Host to bind to ("" = all interfaces)
	Port          int    // TCP port to listen on (0 = any free port)
	Difficulty    string // Initial difficulty of every connection
	PromptEnabled bool   // Send prompts after responses
}

// DefaultServerOptions returns sensible defaults.
func DefaultServerOptions() ServerOptions {
	return ServerOptions{
		Port:          4321,
		Difficulty:    engine.Hard.String(),
		PromptEnabled: true,
	}
}

// NewServer creates a new external protocol server.
func NewServer(eng *engine.Engine, opts ServerOptions) *Server {
	return &Server{
		engine:  eng,
		options: opts,
	}
}

// Start begins listening for connections.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}
	if _, err := engine.ParseDifficulty(s.options.Difficulty); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.options.Host, strconv.Itoa(s.options.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.running = true
	log.Info().Str("addr", listener.Addr().String()).Msg("external-server-listening")

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Addr returns the listening address, or nil when the server is stopped.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops accepting connections. Open connections are left to close.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	err := s.listener.Close()
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if !running {
				return // Server stopped
			}
			log.Warn().Err(err).Msg("external-accept")
			continue
		}

		go s.handleConnection(conn)
	}
}

// session is the per-connection state.
type session struct {
	board      engine.Board
	turn       engine.Side
	difficulty engine.Difficulty
	rng        *rand.Rand
}

func (s *Server) newSession() *session {
	// Start validates the difficulty.
	d, _ := engine.ParseDifficulty(s.options.Difficulty)
	return &session{
		board:      engine.StartingBoard(),
		turn:       engine.Cpu,
		difficulty: d,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// handleConnection handles a single client connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	log.Debug().Str("remote", remote).Msg("external-connect")
	defer log.Debug().Str("remote", remote).Msg("external-disconnect")

	sess := s.newSession()
	scanner := bufio.NewScanner(conn)
	w := bufio.NewWriter(conn)

	prompt := func() {
		if s.options.PromptEnabled {
			w.WriteString("> ")
		}
		w.Flush()
	}

	prompt()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			prompt()
			continue
		}

		response, quit := s.processCommand(sess, line)
		w.WriteString(response)
		if quit {
			w.Flush()
			return
		}
		prompt()
	}
}

// processCommand processes a single command and returns the response and
// whether the connection should close.
func (s *Server) processCommand(sess *session, cmd string) (string, bool) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return "Error: empty command\n", false
	}

	switch strings.ToLower(parts[0]) {
	case "version":
		return Version + "\n", false

	case "help":
		return helpResponse(), false

	case "exit", "quit":
		return "Goodbye\n", true

	case "set":
		return handleSet(sess, parts[1:]), false

	case "position", "pos":
		return handlePosition(sess, parts[1:]), false

	case "show", "board":
		return sess.board.String() + fmt.Sprintf("%s to move\n", sess.turn), false

	case "moves":
		return handleMoves(sess), false

	case "evaluation", "eval":
		return s.handleEval(sess), false

	case "go":
		return s.handleGo(sess), false

	case "play":
		return handlePlay(sess, strings.TrimSpace(cmd[len(parts[0]):])), false

	default:
		return fmt.Sprintf("Error: unknown command '%s'\n", parts[0]), false
	}
}

// helpResponse returns help text.
func helpResponse() string {
	return `Available commands:
  version                   - Show version information
  help                      - Show this help
  position <pos> [side]     - Set position (grid, position ID or "start") and side to move
  show                      - Print the board
  moves                     - List legal moves of the side to move
  eval                      - Static evaluation: score, Player and Cpu mobility
  set difficulty <d>        - easy, medium or hard
  set seed <n>              - Seed the move randomizer
  go                        - Best move for the side to move
  play <move>               - Play a move for the side to move
  exit                      - Close connection
`
}

// handleSet handles the set command.
func handleSet(sess *session, args []string) string {
	if len(args) < 2 {
		return "Error: set requires option and value\n"
	}

	option := strings.ToLower(args[0])
	value := args[1]

	switch option {
	case "difficulty":
		d, err := engine.ParseDifficulty(value)
		if err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
		sess.difficulty = d
		return fmt.Sprintf("difficulty set to %s\n", d)

	case "seed":
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return "Error: seed must be an integer\n"
		}
		sess.rng = rand.New(rand.NewSource(seed))
		return fmt.Sprintf("seed set to %d\n", seed)

	default:
		return fmt.Sprintf("Error: unknown option '%s'\n", option)
	}
}

// handlePosition handles "position <pos> [side]".
func handlePosition(sess *session, args []string) string {
	if len(args) == 0 {
		return "Error: no position specified\n"
	}
	board, err := engine.ParseBoard(args[0])
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	turn := sess.turn
	if len(args) > 1 {
		if turn, err = engine.ParseSide(args[1]); err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
	}

	sess.board = board
	sess.turn = turn
	return fmt.Sprintf("ok %s %s\n", board.Grid(), turn)
}

// handleMoves lists the legal moves, one per line, after a count line.
func handleMoves(sess *session) string {
	moves := engine.GenerateMoves(sess.board, sess.turn)
	var sb strings.Builder
	fmt.Fprintf(&sb, "moves %d\n", len(moves))
	for _, m := range moves {
		sb.WriteString(engine.FormatMove(m))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// handleEval returns "<score> <player mobility> <cpu mobility>".
func (s *Server) handleEval(sess *session) string {
	mp := s.engine.Mobility(sess.board, engine.Player)
	mc := s.engine.Mobility(sess.board, engine.Cpu)
	return fmt.Sprintf("%d %d %d\n", mc-mp, mp, mc)
}

// handleGo returns the best move for the side to move, or "none" when it
// has no legal move.
func (s *Server) handleGo(sess *session) string {
	d, err := s.engine.BestMove(context.Background(), sess.board, sess.turn, sess.difficulty, sess.rng)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	move := "none"
	if d.Move != nil {
		move = engine.FormatMove(*d.Move)
	}
	return fmt.Sprintf("bestmove %s score %g depth %d nodes %d\n", move, d.Score, d.Depth, d.Nodes)
}

// handlePlay applies a move for the side to move.
func handlePlay(sess *session, notation string) string {
	if notation == "" {
		return "Error: no move specified\n"
	}
	move, err := engine.ParseMove(notation, sess.turn)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}

	g, err := engine.NewGameFrom(sess.board, sess.turn)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	if err := g.Play(move); err != nil {
		if errors.Is(err, engine.ErrGameOver) {
			return fmt.Sprintf("Error: %s has no legal move\n", sess.turn)
		}
		return fmt.Sprintf("Error: %v\n", err)
	}

	sess.board = g.Board
	sess.turn = g.Turn
	if winner, ok := g.Result.Winner(); ok {
		return fmt.Sprintf("ok %s %s wins\n", g.Board.Grid(), winner)
	}
	return fmt.Sprintf("ok %s %s\n", g.Board.Grid(), g.Turn)
}
