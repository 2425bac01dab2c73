package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Engine is the main search engine. It is safe for concurrent use; every
// call works on its own board copies and the only shared state is the
// mobility cache.
type Engine struct {
	cache      *MobilityCache
	difficulty Difficulty
}

// EngineOptions configures the engine
type EngineOptions struct {
	CacheSize  int    // Mobility cache size (0 = default, negative = disabled)
	Difficulty string // Default difficulty for callers that do not pick one
}

// DefaultEngineOptions returns the options used by the binaries.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		CacheSize:  DefaultCacheSize,
		Difficulty: Medium.String(),
	}
}

// NewEngine creates a new engine with the given options
func NewEngine(opts EngineOptions) (*Engine, error) {
	e := &Engine{difficulty: Medium}

	if opts.Difficulty != "" {
		d, err := ParseDifficulty(opts.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("failed to configure engine: %w", err)
		}
		e.difficulty = d
	}

	switch {
	case opts.CacheSize == 0:
		e.cache = NewMobilityCache(DefaultCacheSize)
	case opts.CacheSize > 0:
		e.cache = NewMobilityCache(uint32(opts.CacheSize))
	}

	return e, nil
}

// Difficulty returns the engine's default difficulty.
func (e *Engine) Difficulty() Difficulty {
	return e.difficulty
}

// Cache returns the mobility cache, or nil when caching is disabled.
func (e *Engine) Cache() *MobilityCache {
	return e.cache
}

// Mobility counts side's legal L placements, through the cache when enabled.
func (e *Engine) Mobility(board Board, side Side) int {
	if e.cache == nil {
		return Mobility(board, side)
	}
	return e.cache.Mobility(board, side)
}

// Evaluate returns the static evaluation mobility(Cpu) - mobility(Player).
func (e *Engine) Evaluate(board Board) float64 {
	return float64(e.Mobility(board, Cpu) - e.Mobility(board, Player))
}

// Search runs the deterministic alpha-beta search over the full window for
// side, using the engine's cache.
func (e *Engine) Search(board Board, side Side, depth int) SearchResult {
	return SearchWithOptions(board, depth, math.Inf(-1), math.Inf(1), side.Maximizing(),
		SearchOptions{Mobility: e.Mobility})
}

// Decision is the engine's chosen move for one turn.
type Decision struct {
	Move       *Move         // nil when the side to move has no legal move
	Score      float64       // Search score, Cpu-positive
	Random     bool          // Move was substituted by a random legal move
	Difficulty Difficulty    // Difficulty the decision was made at
	Depth      int           // Search depth used
	Nodes      int64         // Positions visited
	Elapsed    time.Duration // Wall time of the search
}

// BestMove picks side's move at the given difficulty. The search runs with
// difficulty-scaled depth and score jitter; afterwards, with the difficulty's
// random-move probability, the searched move is replaced by a uniformly
// random legal move. A nil rng is replaced by a freshly seeded one.
//
// When side has no legal move the returned Decision has a nil Move and the
// losing score; this is the game's end, not an error.
func (e *Engine) BestMove(ctx context.Context, board Board, side Side, difficulty Difficulty, rng *rand.Rand) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !difficulty.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDifficulty, int(difficulty))
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	start := time.Now()
	d := &Decision{
		Difficulty: difficulty,
		Depth:      difficulty.Depth(),
	}

	result := SearchWithOptions(board, d.Depth, math.Inf(-1), math.Inf(1), side.Maximizing(), SearchOptions{
		Jitter:   difficulty.Jitter(),
		Rand:     rng,
		Mobility: e.Mobility,
	})
	d.Score = result.Score
	d.Nodes = result.Nodes
	d.Move = result.BestMove

	if d.Move != nil && rng.Float64() < difficulty.RandomMoveProbability() {
		moves := GenerateMoves(board, side)
		d.Move = &moves[rng.Intn(len(moves))]
		d.Random = true
	}
	d.Elapsed = time.Since(start)

	ev := log.Debug().
		Str("side", side.String()).
		Str("difficulty", difficulty.String()).
		Int("depth", d.Depth).
		Int64("nodes", d.Nodes).
		Float64("score", d.Score).
		Bool("random", d.Random).
		Dur("elapsed", d.Elapsed)
	if d.Move != nil {
		ev = ev.Str("move", d.Move.String())
	}
	ev.Msg("best-move")

	return d, nil
}
