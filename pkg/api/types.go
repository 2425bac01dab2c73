// Package api provides the HTTP/JSON API for the L-Game engine.
package api

import (
	"github.com/samber/lo"

	"github.com/yourusername/lgengine/pkg/engine"
)

// ============================================================================
// Request Types
// ============================================================================

// MovesRequest is the request body for move generation.
type MovesRequest struct {
	Position string `json:"position"`       // Grid string, position ID or "start"
	Side     string `json:"side,omitempty"` // "player" or "cpu" (default "cpu")
}

// EvaluateRequest is the request body for static evaluation.
type EvaluateRequest struct {
	Position string `json:"position"` // Grid string, position ID or "start"
}

// SearchRequest is the request body for choosing a move.
//
// With Depth > 0 the search is deterministic at that depth. Otherwise the
// move is picked at Difficulty, with depth, jitter and random substitution
// taken from the difficulty.
type SearchRequest struct {
	Position   string `json:"position"`             // Grid string, position ID or "start"
	Side       string `json:"side,omitempty"`       // Side to move (default "cpu")
	Difficulty string `json:"difficulty,omitempty"` // "easy", "medium", "hard"
	Depth      int    `json:"depth,omitempty"`      // Fixed depth (0 = use difficulty)
	Seed       int64  `json:"seed,omitempty"`       // RNG seed (0 = random)
}

// AnalyzeRequest is the request body for ranking every legal move.
type AnalyzeRequest struct {
	Position string `json:"position"`            // Grid string, position ID or "start"
	Side     string `json:"side,omitempty"`      // Side to move (default "cpu")
	Depth    int    `json:"depth,omitempty"`     // Search depth counting the move (default 2)
	NumMoves int    `json:"num_moves,omitempty"` // Max moves to return (0 = all)
}

// TutorMoveRequest is the request for rating a played move.
type TutorMoveRequest struct {
	Position string `json:"position"`        // Position before the move
	Side     string `json:"side,omitempty"`  // Side that played (default "player")
	Move     string `json:"move"`            // Move played (e.g., "a1a2a3b3 d1-d2")
	Depth    int    `json:"depth,omitempty"` // Search depth (default 2)
}

// TournamentRequest is the request body for a self-play tournament.
type TournamentRequest struct {
	Games            int    `json:"games,omitempty"`             // Number of games (default 100)
	Workers          int    `json:"workers,omitempty"`           // Parallel workers (0 = GOMAXPROCS)
	Seed             int64  `json:"seed,omitempty"`              // RNG seed (0 = random)
	PlayerDifficulty string `json:"player_difficulty,omitempty"` // Strength on the Player side
	CpuDifficulty    string `json:"cpu_difficulty,omitempty"`    // Strength on the Cpu side
	MaxPlies         int    `json:"max_plies,omitempty"`         // Ply cap per game
}

// RolloutRequest is the request body for a Monte Carlo rollout.
//
// With NumMoves > 0 the best NumMoves moves at Depth are rolled out one by
// one; otherwise the position itself is.
type RolloutRequest struct {
	Position   string `json:"position"`             // Grid string, position ID or "start"
	Side       string `json:"side,omitempty"`       // Side to move (default "cpu")
	Trials     int    `json:"trials,omitempty"`     // Games per rollout (default 200)
	Difficulty string `json:"difficulty,omitempty"` // Strength of both sides (default "easy")
	Seed       int64  `json:"seed,omitempty"`       // RNG seed (0 = random)
	Workers    int    `json:"workers,omitempty"`    // Parallel workers (0 = GOMAXPROCS)
	MaxPlies   int    `json:"max_plies,omitempty"`  // Trial length before a draw
	NumMoves   int    `json:"num_moves,omitempty"`  // Candidate moves to roll out
	Depth      int    `json:"depth,omitempty"`      // Candidate ranking depth (default 2)
}

// ReviewRequest is the request body for reviewing a whole game.
type ReviewRequest struct {
	Start string   `json:"start,omitempty"` // Starting position (default "start")
	First string   `json:"first,omitempty"` // Side that moved first (default "player")
	Moves []string `json:"moves"`           // Moves in order, alternating sides
	Depth int      `json:"depth,omitempty"` // Analysis depth (default 2)
}

// ============================================================================
// Response Types
// ============================================================================

// MoveResponse is a single move in a response.
type MoveResponse struct {
	Move      string   `json:"move"`            // Move notation (e.g., "a1a2a3b3 d1-d2")
	Placement string   `json:"placement"`       // New L cells
	Token     string   `json:"token,omitempty"` // Token relocation, if any
	Score     *float64 `json:"score,omitempty"` // Cpu-positive score after the move
	Value     *float64 `json:"value,omitempty"` // Score from the mover's point of view
}

// MovesResponse is the response for move generation.
type MovesResponse struct {
	Position string         `json:"position"`  // Position ID
	Grid     string         `json:"grid"`      // Grid string
	Side     string         `json:"side"`      // Side to move
	Mobility int            `json:"mobility"`  // Distinct L placements
	NumLegal int            `json:"num_legal"` // Composite moves
	Moves    []MoveResponse `json:"moves"`     // Moves in generation order
}

// EvaluateResponse is the response for static evaluation.
type EvaluateResponse struct {
	Position       string  `json:"position"`        // Position ID
	Grid           string  `json:"grid"`            // Grid string
	Score          float64 `json:"score"`           // mobility(cpu) - mobility(player)
	MobilityPlayer int     `json:"mobility_player"` // Player L placements
	MobilityCpu    int     `json:"mobility_cpu"`    // Cpu L placements
	Stuck          string  `json:"stuck,omitempty"` // Side with no legal move, if any
}

// SearchResponse is the response for a move choice.
type SearchResponse struct {
	Move       *MoveResponse `json:"move"`                 // nil when the side has no move
	Score      float64       `json:"score"`                // Cpu-positive search score
	Depth      int           `json:"depth"`                // Search depth used
	Nodes      int64         `json:"nodes"`                // Positions visited
	Difficulty string        `json:"difficulty,omitempty"` // Difficulty, if one was used
	Random     bool          `json:"random"`               // Move was randomly substituted
	ElapsedMs  float64       `json:"elapsed_ms"`           // Wall time
	Result     string        `json:"result,omitempty"`     // Grid after the move
}

// AnalyzeResponse is the response for move ranking.
type AnalyzeResponse struct {
	Side      string         `json:"side"`       // Side to move
	Depth     int            `json:"depth"`      // Search depth
	NumLegal  int            `json:"num_legal"`  // Total number of legal moves
	BestScore float64        `json:"best_score"` // Cpu-positive score of the best move
	Nodes     int64          `json:"nodes"`      // Positions visited
	Moves     []MoveResponse `json:"moves"`      // Ranked moves (best first)
}

// TutorMoveResponse is the response for move skill analysis.
type TutorMoveResponse struct {
	Skill       string         `json:"skill"`        // "none", "doubtful", "bad", "very_bad"
	SkillAbbr   string         `json:"skill_abbr"`   // "", "?!", "?", "??"
	Loss        float64        `json:"loss"`         // Value lost by this move
	BestMove    string         `json:"best_move"`    // Best move notation
	BestValue   float64        `json:"best_value"`   // Mover's value of the best move
	PlayedValue float64        `json:"played_value"` // Mover's value of the played move
	IsForced    bool           `json:"is_forced"`    // True if only one legal move
	TopMoves    []MoveResponse `json:"top_moves"`    // Top moves for context
	Suggestion  string         `json:"suggestion"`   // Improvement suggestion
}

// TournamentResponse is the response for a self-play tournament.
type TournamentResponse struct {
	Games          int     `json:"games"`
	CpuWins        int     `json:"cpu_wins"`
	PlayerWins     int     `json:"player_wins"`
	Draws          int     `json:"draws"`
	CpuScore       float64 `json:"cpu_score"`         // Mean Cpu score (win 1, draw 0.5)
	CpuScoreStdDev float64 `json:"cpu_score_std_dev"` // Standard deviation
	CpuScoreCI     float64 `json:"cpu_score_ci"`      // 95% confidence interval (+/-)
	MeanPlies      float64 `json:"mean_plies"`        // Mean game length
	LongestGame    int     `json:"longest_game"`      // Longest game in plies
	Seed           int64   `json:"seed"`              // Seed used
	ElapsedMs      float64 `json:"elapsed_ms"`        // Wall time
}

// TournamentProgressResponse is streamed while a tournament runs.
type TournamentProgressResponse struct {
	GamesCompleted int     `json:"games_completed"`
	GamesTotal     int     `json:"games_total"`
	Percent        float64 `json:"percent"`
	CpuWins        int     `json:"cpu_wins"`
	PlayerWins     int     `json:"player_wins"`
	Draws          int     `json:"draws"`
	CpuScore       float64 `json:"cpu_score"`
}

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error   string `json:"error"`             // Error message
	Code    string `json:"code,omitempty"`    // Error code
	Details string `json:"details,omitempty"` // Additional details
}

// CacheStats reports the engine's mobility cache counters.
type CacheStats struct {
	Lookups uint64  `json:"lookups"`
	Hits    uint64  `json:"hits"`
	Adds    uint64  `json:"adds"`
	HitRate float64 `json:"hit_rate"`
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status     string      `json:"status"`               // "ok" or "error"
	Version    string      `json:"version"`              // Engine version
	Ready      bool        `json:"ready"`                // Whether an engine is attached
	Difficulty string      `json:"difficulty,omitempty"` // Engine default difficulty
	Pool       *PoolStats  `json:"pool,omitempty"`       // Worker pool statistics
	Cache      *CacheStats `json:"cache,omitempty"`      // Mobility cache statistics
}

// RolloutResultResponse is one rollout's statistics.
type RolloutResultResponse struct {
	Score       float64 `json:"score"` // Mean score for the mover: win 1, draw 0.5
	ScoreStdDev float64 `json:"score_std_dev"`
	ScoreCI     float64 `json:"score_ci"` // 95% confidence half-width
	Trials      int     `json:"trials"`
	Wins        int     `json:"wins"`
	Draws       int     `json:"draws"`
	Losses      int     `json:"losses"`
	MeanPlies   float64 `json:"mean_plies"`
}

// MoveRolloutResponse is a candidate move with its rollout.
type MoveRolloutResponse struct {
	Move    MoveResponse          `json:"move"`
	Rollout RolloutResultResponse `json:"rollout"`
}

// RolloutResponse is the response for a rollout request.
type RolloutResponse struct {
	Side      string                 `json:"side"`
	Position  *RolloutResultResponse `json:"position,omitempty"` // Set when no moves were requested
	Moves     []MoveRolloutResponse  `json:"moves,omitempty"`    // Best first
	ElapsedMs float64                `json:"elapsed_ms"`
}

// PositionEntryResponse is a library position with its grid.
type PositionEntryResponse struct {
	*engine.PositionEntry
	Grid string `json:"grid"`
}

// PositionsResponse lists library positions.
type PositionsResponse struct {
	Count     int                     `json:"count"`
	Positions []PositionEntryResponse `json:"positions"`
}

// ============================================================================
// Helper Functions
// ============================================================================

// MoveToResponse converts an engine move to its API form.
func MoveToResponse(m engine.Move) MoveResponse {
	resp := MoveResponse{
		Move:      engine.FormatMove(m),
		Placement: m.L.String(),
	}
	if m.Token != nil {
		resp.Token = m.Token.String()
	}
	return resp
}

// RankedToResponse converts analysed moves to their API form.
func RankedToResponse(moves []engine.MoveWithEval) []MoveResponse {
	return lo.Map(moves, func(m engine.MoveWithEval, _ int) MoveResponse {
		resp := MoveToResponse(m.Move)
		resp.Score = lo.ToPtr(m.Score)
		resp.Value = lo.ToPtr(m.Value)
		return resp
	})
}

// DecisionToResponse converts an engine decision to its API form.
func DecisionToResponse(board engine.Board, d *engine.Decision) *SearchResponse {
	resp := &SearchResponse{
		Score:      d.Score,
		Depth:      d.Depth,
		Nodes:      d.Nodes,
		Difficulty: d.Difficulty.String(),
		Random:     d.Random,
		ElapsedMs:  float64(d.Elapsed.Microseconds()) / 1000,
	}
	if d.Move != nil {
		resp.Move = lo.ToPtr(MoveToResponse(*d.Move))
		resp.Result = engine.ApplyMove(board, *d.Move).Grid()
	}
	return resp
}

// TournamentToResponse converts a tournament result to its API form.
func TournamentToResponse(r *engine.TournamentResult) *TournamentResponse {
	return &TournamentResponse{
		Games:          r.Games,
		CpuWins:        r.CpuWins,
		PlayerWins:     r.PlayerWins,
		Draws:          r.Draws,
		CpuScore:       r.CpuScore,
		CpuScoreStdDev: r.CpuScoreStdDev,
		CpuScoreCI:     r.CpuScoreCI,
		MeanPlies:      r.MeanPlies,
		LongestGame:    r.LongestGame,
		Seed:           r.Seed,
		ElapsedMs:      float64(r.Elapsed.Microseconds()) / 1000,
	}
}

// ProgressToResponse converts tournament progress to its API form.
func ProgressToResponse(p engine.TournamentProgress) TournamentProgressResponse {
	return TournamentProgressResponse{
		GamesCompleted: p.GamesCompleted,
		GamesTotal:     p.GamesTotal,
		Percent:        p.Percent,
		CpuWins:        p.CpuWins,
		PlayerWins:     p.PlayerWins,
		Draws:          p.Draws,
		CpuScore:       p.CpuScore,
	}
}

// RolloutToResponse converts a rollout result to its API form.
func RolloutToResponse(r *engine.RolloutResult) RolloutResultResponse {
	return RolloutResultResponse{
		Score:       r.Score,
		ScoreStdDev: r.ScoreStdDev,
		ScoreCI:     r.ScoreCI,
		Trials:      r.TrialsCompleted,
		Wins:        r.Wins,
		Draws:       r.Draws,
		Losses:      r.Losses,
		MeanPlies:   r.MeanPlies,
	}
}

// EntriesToResponse converts library positions to their API form.
func EntriesToResponse(entries []*engine.PositionEntry) PositionsResponse {
	return PositionsResponse{
		Count: len(entries),
		Positions: lo.Map(entries, func(e *engine.PositionEntry, _ int) PositionEntryResponse {
			return PositionEntryResponse{PositionEntry: e, Grid: e.Board.Grid()}
		}),
	}
}
