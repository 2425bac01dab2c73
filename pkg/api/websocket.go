package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/lgengine/pkg/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins - configure properly in production
	},
}

// WSMessage is a generic WebSocket message.
type WSMessage struct {
	Type    string          `json:"type"`    // Message type: "new", "move", "engine", "ping"
	ID      string          `json:"id"`      // Request ID for correlating responses
	Payload json.RawMessage `json:"payload"` // Type-specific payload
}

// WSResponse is a generic WebSocket response.
type WSResponse struct {
	Type    string      `json:"type"`              // Response type: "state", "error", "pong"
	ID      string      `json:"id,omitempty"`      // Request ID
	Payload interface{} `json:"payload,omitempty"` // Response data
	Error   string      `json:"error,omitempty"`   // Error message if any
}

// WSNewGame starts a new game on the connection.
type WSNewGame struct {
	Position   string `json:"position,omitempty"`   // Start position (default "start")
	First      string `json:"first,omitempty"`      // Side to move first (default "player")
	Difficulty string `json:"difficulty,omitempty"` // Engine strength (default engine's)
	Seed       int64  `json:"seed,omitempty"`       // RNG seed (0 = random)
}

// WSMove is a move played by the human, who always plays Player.
type WSMove struct {
	Move string `json:"move"` // Move notation
}

// WSGameState is sent after every change to the game.
type WSGameState struct {
	Position   string          `json:"position"`         // Position ID
	Grid       string          `json:"grid"`             // Grid string
	Turn       string          `json:"turn"`             // Side to move
	Result     string          `json:"result"`           // "none", "player", "cpu", "draw"
	Plies      int             `json:"plies"`            // Moves played
	Legal      int             `json:"legal"`            // Legal moves for the side to move
	Difficulty string          `json:"difficulty"`       // Engine strength
	LastMove   string          `json:"last_move"`        // Most recent move, if any
	Engine     *SearchResponse `json:"engine,omitempty"` // Engine reply, when one was played
}

// playSession is one connection's game against the engine, which plays Cpu.
// It is only touched from the read pump.
type playSession struct {
	game       *engine.Game
	difficulty engine.Difficulty
	rng        *rand.Rand
}

// WSClient represents a connected WebSocket client.
type WSClient struct {
	conn     *websocket.Conn
	handlers *Handlers
	sendChan chan WSResponse
	session  *playSession
	ctx      context.Context
}

// WebSocket handles WebSocket connections for playing against the engine.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket-upgrade")
		return
	}
	client := &WSClient{
		conn:     conn,
		handlers: h,
		sendChan: make(chan WSResponse, 64),
		ctx:      r.Context(),
	}
	go client.writePump()
	client.readPump()
}

func (c *WSClient) writePump() {
	defer c.conn.Close()
	for msg := range c.sendChan {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *WSClient) readPump() {
	defer func() { close(c.sendChan); c.conn.Close() }()
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.handleMessage(msg)
	}
}

func (c *WSClient) sendError(id, msg string) {
	c.sendChan <- WSResponse{Type: "error", ID: id, Error: msg}
}

func (c *WSClient) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "new":
		c.handleNew(msg)
	case "move":
		c.handleMove(msg)
	case "engine":
		c.handleEngine(msg)
	case "ping":
		c.sendChan <- WSResponse{Type: "pong", ID: msg.ID}
	default:
		c.sendError(msg.ID, "unknown message type")
	}
}

func (c *WSClient) handleNew(msg WSMessage) {
	var req WSNewGame
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			c.sendError(msg.ID, "invalid payload")
			return
		}
	}

	start := engine.StartingBoard()
	if req.Position != "" {
		b, err := engine.ParseBoard(req.Position)
		if err != nil {
			c.sendError(msg.ID, "invalid position")
			return
		}
		start = b
	}
	first := engine.Player
	if req.First != "" {
		s, err := engine.ParseSide(req.First)
		if err != nil {
			c.sendError(msg.ID, "invalid side")
			return
		}
		first = s
	}
	difficulty := c.handlers.engine.Difficulty()
	if req.Difficulty != "" {
		d, err := engine.ParseDifficulty(req.Difficulty)
		if err != nil {
			c.sendError(msg.ID, "invalid difficulty")
			return
		}
		difficulty = d
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	game, err := engine.NewGameFrom(start, first)
	if err != nil {
		c.sendError(msg.ID, err.Error())
		return
	}
	c.session = &playSession{
		game:       game,
		difficulty: difficulty,
		rng:        rand.New(rand.NewSource(seed)),
	}
	c.sendState(msg.ID, nil)
}

func (c *WSClient) handleMove(msg WSMessage) {
	if c.session == nil {
		c.sendError(msg.ID, "no game in progress")
		return
	}
	var req WSMove
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.sendError(msg.ID, "invalid payload")
		return
	}
	move, err := engine.ParseMove(req.Move, engine.Player)
	if err != nil {
		c.sendError(msg.ID, "invalid move notation")
		return
	}

	g := c.session.game
	if err := g.Play(move); err != nil {
		switch {
		case errors.Is(err, engine.ErrGameOver):
			c.sendError(msg.ID, "game is over")
		case errors.Is(err, engine.ErrWrongTurn):
			c.sendError(msg.ID, "not your turn")
		default:
			c.sendError(msg.ID, "illegal move")
		}
		return
	}

	// The engine answers straight away.
	var reply *SearchResponse
	if !g.Over() {
		if reply, err = c.engineMove(); err != nil {
			c.sendError(msg.ID, err.Error())
			return
		}
	}
	c.sendState(msg.ID, reply)
}

// handleEngine asks the engine to move, e.g. when Cpu moves first.
func (c *WSClient) handleEngine(msg WSMessage) {
	if c.session == nil {
		c.sendError(msg.ID, "no game in progress")
		return
	}
	g := c.session.game
	if g.Over() {
		c.sendError(msg.ID, "game is over")
		return
	}
	if g.Turn != engine.Cpu {
		c.sendError(msg.ID, "not the engine's turn")
		return
	}
	reply, err := c.engineMove()
	if err != nil {
		c.sendError(msg.ID, err.Error())
		return
	}
	c.sendState(msg.ID, reply)
}

// engineMove plays the engine's move for the side to move.
func (c *WSClient) engineMove() (*SearchResponse, error) {
	s := c.session
	before := s.game.Board
	d, err := c.handlers.engine.BestMove(c.ctx, before, s.game.Turn, s.difficulty, s.rng)
	if err != nil {
		return nil, err
	}
	if d.Move != nil {
		if err := s.game.Play(*d.Move); err != nil {
			return nil, err
		}
	}
	return DecisionToResponse(before, d), nil
}

func (c *WSClient) sendState(id string, reply *SearchResponse) {
	g := c.session.game
	state := WSGameState{
		Position:   g.Board.PositionID(),
		Grid:       g.Board.Grid(),
		Turn:       g.Turn.String(),
		Result:     g.Result.String(),
		Plies:      g.Plies(),
		Legal:      len(g.LegalMoves()),
		Difficulty: c.session.difficulty.String(),
		Engine:     reply,
	}
	if n := len(g.History); n > 0 {
		state.LastMove = engine.FormatMove(g.History[n-1])
	}
	c.sendChan <- WSResponse{Type: "state", ID: id, Payload: state}
}
