package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/yourusername/lgengine/pkg/engine"
)

const (
	// MaxSearchDepth caps fixed-depth searches and analysis requested over HTTP.
	MaxSearchDepth = 4
	// DefaultAnalyzeDepth is used when an analyze or tutor request has no depth.
	DefaultAnalyzeDepth = 2
	// MaxTournamentGames caps the games of one tournament request.
	MaxTournamentGames = 2000
	// MaxRolloutTrials caps the trials of one rollout request.
	MaxRolloutTrials = 5000
	// MaxReviewPlies caps the length of a reviewed game.
	MaxReviewPlies = 400
	// MaxGamePlies caps the ply limit of tournament and rollout games.
	MaxGamePlies = 1000
	// MaxWorkers caps the workers of one tournament or rollout request.
	MaxWorkers = 64
	// libraryDepth is the search depth stored on library positions.
	libraryDepth = 2
)

// Handlers holds the HTTP handlers and engine reference.
type Handlers struct {
	engine    *engine.Engine
	version   string
	pool      *WorkerPool
	positions *engine.PositionDB
}

// NewHandlers creates a new Handlers instance without a worker pool.
func NewHandlers(e *engine.Engine, version string) *Handlers {
	return NewHandlersWithPool(e, version, nil)
}

// NewHandlersWithPool creates a new Handlers instance with a worker pool.
func NewHandlersWithPool(e *engine.Engine, version string, pool *WorkerPool) *Handlers {
	db := engine.DefaultPositionDB()
	if e != nil {
		db.PrecomputeEvaluations(e, libraryDepth)
	}
	return &Handlers{
		engine:    e,
		version:   version,
		pool:      pool,
		positions: db,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

// decodeRequest decodes the JSON body into v, writing INVALID_JSON on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return false
	}
	return true
}

// acquire takes a fast or slow pool slot. On failure it writes SERVER_BUSY
// and returns ok == false; otherwise the caller must call release.
func (h *Handlers) acquire(w http.ResponseWriter, r *http.Request, slow bool) (release func(), ok bool) {
	if h.pool == nil {
		return func() {}, true
	}
	if slow {
		if err := h.pool.AcquireSlow(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
			return nil, false
		}
		return h.pool.ReleaseSlow, true
	}
	if err := h.pool.AcquireFast(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return nil, false
	}
	return h.pool.ReleaseFast, true
}

// parsePosition parses a grid string, position ID or "start", writing the
// matching error response on failure.
func parsePosition(w http.ResponseWriter, s string) (engine.Board, bool) {
	if s == "" {
		writeError(w, http.StatusBadRequest, "position is required", "MISSING_POSITION")
		return engine.Board{}, false
	}
	board, err := engine.ParseBoard(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_POSITION")
		return engine.Board{}, false
	}
	return board, true
}

// parseSide parses a side name, using def when s is empty.
func parseSide(w http.ResponseWriter, s string, def engine.Side) (engine.Side, bool) {
	if s == "" {
		return def, true
	}
	side, err := engine.ParseSide(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_SIDE")
		return 0, false
	}
	return side, true
}

// parseDifficulty parses a difficulty name, using the engine's default when
// s is empty.
func (h *Handlers) parseDifficulty(w http.ResponseWriter, s string) (engine.Difficulty, bool) {
	if s == "" {
		return h.engine.Difficulty(), true
	}
	d, err := engine.ParseDifficulty(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_DIFFICULTY")
		return 0, false
	}
	return d, true
}

// parseDepth applies the default for 0 and checks the HTTP depth cap.
func parseDepth(w http.ResponseWriter, depth, def int) (int, bool) {
	if depth == 0 {
		return def, true
	}
	if depth < 0 || depth > MaxSearchDepth {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("depth must be between 1 and %d", MaxSearchDepth), "INVALID_DEPTH")
		return 0, false
	}
	return depth, true
}

// newRand returns a seeded generator, or nil for seed 0 so the engine
// seeds its own.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewSource(seed))
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Ready:   h.engine != nil,
	}

	if h.engine != nil {
		resp.Difficulty = h.engine.Difficulty().String()
		if c := h.engine.Cache(); c != nil {
			lookups, hits, adds := c.Stats()
			resp.Cache = &CacheStats{
				Lookups: lookups,
				Hits:    hits,
				Adds:    adds,
				HitRate: c.HitRate(),
			}
		}
	}

	// Include pool stats if available
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}

	writeJSON(w, http.StatusOK, resp)
}

// Moves handles POST /api/moves
func (h *Handlers) Moves(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, false)
	if !ok {
		return
	}
	defer release()

	var req MovesRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	board, ok := parsePosition(w, req.Position)
	if !ok {
		return
	}
	side, ok := parseSide(w, req.Side, engine.Cpu)
	if !ok {
		return
	}

	moves := engine.GenerateMoves(board, side)
	writeJSON(w, http.StatusOK, MovesResponse{
		Position: board.PositionID(),
		Grid:     board.Grid(),
		Side:     side.String(),
		Mobility: h.engine.Mobility(board, side),
		NumLegal: len(moves),
		Moves: lo.Map(moves, func(m engine.Move, _ int) MoveResponse {
			return MoveToResponse(m)
		}),
	})
}

// Evaluate handles POST /api/evaluate
func (h *Handlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, false)
	if !ok {
		return
	}
	defer release()

	var req EvaluateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	board, ok := parsePosition(w, req.Position)
	if !ok {
		return
	}

	resp := EvaluateResponse{
		Position:       board.PositionID(),
		Grid:           board.Grid(),
		MobilityPlayer: h.engine.Mobility(board, engine.Player),
		MobilityCpu:    h.engine.Mobility(board, engine.Cpu),
	}
	resp.Score = float64(resp.MobilityCpu - resp.MobilityPlayer)
	switch {
	case resp.MobilityPlayer == 0:
		resp.Stuck = engine.Player.String()
	case resp.MobilityCpu == 0:
		resp.Stuck = engine.Cpu.String()
	}

	writeJSON(w, http.StatusOK, resp)
}

// Search handles POST /api/search
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, false)
	if !ok {
		return
	}
	defer release()

	var req SearchRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	board, ok := parsePosition(w, req.Position)
	if !ok {
		return
	}
	side, ok := parseSide(w, req.Side, engine.Cpu)
	if !ok {
		return
	}

	// Fixed depth: plain deterministic search
	if req.Depth != 0 {
		depth, ok := parseDepth(w, req.Depth, 0)
		if !ok {
			return
		}
		sr := h.engine.Search(board, side, depth)
		resp := &SearchResponse{
			Score: sr.Score,
			Depth: depth,
			Nodes: sr.Nodes,
		}
		if sr.BestMove != nil {
			resp.Move = lo.ToPtr(MoveToResponse(*sr.BestMove))
			resp.Result = engine.ApplyMove(board, *sr.BestMove).Grid()
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	difficulty, ok := h.parseDifficulty(w, req.Difficulty)
	if !ok {
		return
	}
	decision, err := h.engine.BestMove(r.Context(), board, side, difficulty, newRand(req.Seed))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "SEARCH_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, DecisionToResponse(board, decision))
}

// Analyze handles POST /api/analyze
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, true)
	if !ok {
		return
	}
	defer release()

	var req AnalyzeRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	board, ok := parsePosition(w, req.Position)
	if !ok {
		return
	}
	side, ok := parseSide(w, req.Side, engine.Cpu)
	if !ok {
		return
	}
	depth, ok := parseDepth(w, req.Depth, DefaultAnalyzeDepth)
	if !ok {
		return
	}

	analysis := h.engine.AnalyzePosition(board, side, depth)
	moves := analysis.Moves
	if req.NumMoves > 0 && req.NumMoves < len(moves) {
		moves = moves[:req.NumMoves]
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Side:      side.String(),
		Depth:     analysis.Depth,
		NumLegal:  analysis.NumMoves,
		BestScore: analysis.BestScore,
		Nodes:     analysis.Nodes,
		Moves:     RankedToResponse(moves),
	})
}

// TutorMove handles POST /api/tutor/move and rates a played move.
func (h *Handlers) TutorMove(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, false)
	if !ok {
		return
	}
	defer release()

	var req TutorMoveRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	board, ok := parsePosition(w, req.Position)
	if !ok {
		return
	}
	if req.Move == "" {
		writeError(w, http.StatusBadRequest, "move is required", "MISSING_MOVE")
		return
	}
	side, ok := parseSide(w, req.Side, engine.Player)
	if !ok {
		return
	}
	depth, ok := parseDepth(w, req.Depth, DefaultAnalyzeDepth)
	if !ok {
		return
	}

	played, err := engine.ParseMove(req.Move, side)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid move notation: %v", err), "INVALID_MOVE")
		return
	}

	analysis, err := h.engine.AnalyzeMoveSkill(board, played, depth)
	if errors.Is(err, engine.ErrIllegalMove) {
		writeError(w, http.StatusBadRequest, err.Error(), "ILLEGAL_MOVE")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "ANALYSIS_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, TutorMoveResponse{
		Skill:       analysis.Skill.Key(),
		SkillAbbr:   analysis.Skill.Abbr(),
		Loss:        analysis.Loss,
		BestMove:    engine.FormatMove(analysis.BestMove),
		BestValue:   analysis.BestValue,
		PlayedValue: analysis.Value,
		IsForced:    analysis.IsForced,
		TopMoves:    RankedToResponse(analysis.TopMoves),
		Suggestion:  moveSuggestion(analysis),
	})
}

// moveSuggestion generates an improvement suggestion for a move error.
func moveSuggestion(analysis *engine.MoveSkillAnalysis) string {
	if analysis.Skill == engine.SkillNone || analysis.IsForced {
		return ""
	}

	best := engine.FormatMove(analysis.BestMove)
	switch analysis.Skill {
	case engine.SkillVeryBad:
		return fmt.Sprintf("This was a blunder losing %.0f. The best move was %s.", analysis.Loss, best)
	case engine.SkillBad:
		return fmt.Sprintf("This was an error losing %.0f. Consider %s instead.", analysis.Loss, best)
	case engine.SkillDoubtful:
		return fmt.Sprintf("This move is questionable (%.0f lost). %s was slightly better.", analysis.Loss, best)
	default:
		return ""
	}
}

// checkGameLimits bounds the worker count and game length of a request.
func checkGameLimits(workers, maxPlies int) *ErrorResponse {
	if workers < 0 || workers > MaxWorkers {
		return &ErrorResponse{
			Error: fmt.Sprintf("workers must be between 0 and %d", MaxWorkers),
			Code:  "INVALID_WORKERS",
		}
	}
	if maxPlies < 0 || maxPlies > MaxGamePlies {
		return &ErrorResponse{
			Error: fmt.Sprintf("max_plies must be between 0 and %d", MaxGamePlies),
			Code:  "INVALID_MAX_PLIES",
		}
	}
	return nil
}

// tournamentOptions converts a request into engine options.
func tournamentOptions(req TournamentRequest) (engine.TournamentOptions, *ErrorResponse) {
	opts := engine.DefaultTournamentOptions()
	if req.Games > 0 {
		opts.Games = req.Games
	}
	if opts.Games > MaxTournamentGames {
		return opts, &ErrorResponse{
			Error: fmt.Sprintf("games must be at most %d", MaxTournamentGames),
			Code:  "INVALID_GAMES",
		}
	}
	if errResp := checkGameLimits(req.Workers, req.MaxPlies); errResp != nil {
		return opts, errResp
	}
	opts.Workers = req.Workers
	opts.Seed = req.Seed
	if req.MaxPlies > 0 {
		opts.MaxPlies = req.MaxPlies
	}

	for _, d := range []struct {
		name string
		dst  *engine.Difficulty
	}{
		{req.PlayerDifficulty, &opts.PlayerDifficulty},
		{req.CpuDifficulty, &opts.CpuDifficulty},
	} {
		if d.name == "" {
			continue
		}
		parsed, err := engine.ParseDifficulty(d.name)
		if err != nil {
			return opts, &ErrorResponse{Error: err.Error(), Code: "INVALID_DIFFICULTY"}
		}
		*d.dst = parsed
	}
	return opts, nil
}

// Tournament handles POST /api/tournament
func (h *Handlers) Tournament(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, true)
	if !ok {
		return
	}
	defer release()

	var req TournamentRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	opts, errResp := tournamentOptions(req)
	if errResp != nil {
		writeJSON(w, http.StatusBadRequest, errResp)
		return
	}

	result, err := h.engine.Tournament(r.Context(), opts, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "TOURNAMENT_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, TournamentToResponse(result))
}

// Rollout handles POST /api/rollout
func (h *Handlers) Rollout(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, true)
	if !ok {
		return
	}
	defer release()

	var req RolloutRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	board, ok := parsePosition(w, req.Position)
	if !ok {
		return
	}
	side, ok := parseSide(w, req.Side, engine.Cpu)
	if !ok {
		return
	}
	depth, ok := parseDepth(w, req.Depth, DefaultAnalyzeDepth)
	if !ok {
		return
	}

	opts := engine.DefaultRolloutOptions()
	if req.Trials > 0 {
		opts.Trials = req.Trials
	}
	if opts.Trials > MaxRolloutTrials {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("trials must be at most %d", MaxRolloutTrials), "INVALID_TRIALS")
		return
	}
	if errResp := checkGameLimits(req.Workers, req.MaxPlies); errResp != nil {
		writeError(w, http.StatusBadRequest, errResp.Error, errResp.Code)
		return
	}
	if req.Difficulty != "" {
		d, err := engine.ParseDifficulty(req.Difficulty)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_DIFFICULTY")
			return
		}
		opts.Difficulty = d
	}
	opts.Seed = req.Seed
	opts.Workers = req.Workers
	if req.MaxPlies > 0 {
		opts.Truncate = req.MaxPlies
	}

	start := time.Now()
	resp := RolloutResponse{Side: side.String()}
	if req.NumMoves > 0 {
		moves, err := h.engine.RolloutMoves(r.Context(), board, side, depth, req.NumMoves, opts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error(), "ROLLOUT_ERROR")
			return
		}
		resp.Moves = lo.Map(moves, func(m engine.MoveRollout, _ int) MoveRolloutResponse {
			return MoveRolloutResponse{Move: MoveToResponse(m.Move), Rollout: RolloutToResponse(m.Rollout)}
		})
	} else {
		result, err := h.engine.Rollout(r.Context(), board, side, opts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error(), "ROLLOUT_ERROR")
			return
		}
		resp.Position = lo.ToPtr(RolloutToResponse(result))
	}
	resp.ElapsedMs = float64(time.Since(start).Microseconds()) / 1000

	writeJSON(w, http.StatusOK, resp)
}

// Review handles POST /api/review and rates every move of a game.
func (h *Handlers) Review(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, true)
	if !ok {
		return
	}
	defer release()

	var req ReviewRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Start == "" {
		req.Start = "start"
	}
	board, ok := parsePosition(w, req.Start)
	if !ok {
		return
	}
	first, ok := parseSide(w, req.First, engine.Player)
	if !ok {
		return
	}
	depth, ok := parseDepth(w, req.Depth, DefaultAnalyzeDepth)
	if !ok {
		return
	}
	if len(req.Moves) > MaxReviewPlies {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("at most %d moves can be reviewed", MaxReviewPlies), "INVALID_MOVES")
		return
	}

	moves := make([]engine.Move, len(req.Moves))
	side := first
	for i, s := range req.Moves {
		m, err := engine.ParseMove(s, side)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("move %d: %v", i+1, err), "INVALID_MOVE")
			return
		}
		moves[i] = m
		side = side.Opponent()
	}

	review, err := h.engine.ReviewGame(board, first, moves, engine.ReviewOptions{Depth: depth})
	if errors.Is(err, engine.ErrIllegalMove) || errors.Is(err, engine.ErrGameOver) {
		writeError(w, http.StatusBadRequest, err.Error(), "ILLEGAL_MOVE")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "ANALYSIS_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, review)
}

// Positions handles GET /api/positions. Query parameters: q (text search),
// tag, similar (a position to compare against).
func (h *Handlers) Positions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var entries []*engine.PositionEntry
	switch {
	case q.Get("similar") != "":
		board, ok := parsePosition(w, q.Get("similar"))
		if !ok {
			return
		}
		entries = lo.Map(h.positions.FindSimilar(board, 10), func(s engine.PositionSimilarity, _ int) *engine.PositionEntry {
			return s.Entry
		})
	case q.Get("tag") != "":
		entries = h.positions.GetByTag(q.Get("tag"))
	case q.Get("q") != "":
		entries = h.positions.Search(q.Get("q"))
	default:
		entries = h.positions.All()
	}

	writeJSON(w, http.StatusOK, EntriesToResponse(entries))
}
