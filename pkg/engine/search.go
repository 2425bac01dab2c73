package engine

import (
	"math"
	"math/rand"
)

// WinScore is the magnitude of a decided position. The side to move with no
// legal move has lost: -WinScore when Cpu is to move, +WinScore for Player.
const WinScore = 100.0

// SearchResult is the outcome of a search call.
type SearchResult struct {
	Score    float64
	BestMove *Move // nil at depth 0 or when the side to move has no move
	Nodes    int64 // positions visited
}

// SearchOptions tunes SearchWithOptions. The zero value gives the
// deterministic alpha-beta search.
type SearchOptions struct {
	Jitter         float64               // Uniform noise in [-Jitter, +Jitter] added to child scores
	Rand           *rand.Rand            // Noise source; jitter is off when nil
	Mobility       func(Board, Side) int // Mobility override, e.g. a cached one
	DisablePruning bool                  // Full minimax, for reference and benchmarks
}

// Search runs minimax with alpha-beta pruning. Cpu is to move when
// maximizing is true. The root caller passes alpha=-Inf, beta=+Inf.
func Search(board Board, depth int, alpha, beta float64, maximizing bool) SearchResult {
	return SearchWithOptions(board, depth, alpha, beta, maximizing, SearchOptions{})
}

// Minimax is the unpruned reference search over the full window.
func Minimax(board Board, depth int, maximizing bool) SearchResult {
	return SearchWithOptions(board, depth, math.Inf(-1), math.Inf(1), maximizing,
		SearchOptions{DisablePruning: true})
}

// SearchWithOptions is Search with jitter, a mobility override and pruning
// control.
func SearchWithOptions(board Board, depth int, alpha, beta float64, maximizing bool, opts SearchOptions) SearchResult {
	s := &searcher{opts: opts, mobility: opts.Mobility}
	if s.mobility == nil {
		s.mobility = Mobility
	}
	if opts.Rand == nil || opts.Jitter <= 0 {
		s.opts.Jitter = 0
	}

	score, best := s.search(board, depth, alpha, beta, maximizing)
	return SearchResult{Score: score, BestMove: best, Nodes: s.nodes}
}

type searcher struct {
	opts     SearchOptions
	mobility func(Board, Side) int
	nodes    int64
}

func (s *searcher) jitter() float64 {
	if s.opts.Jitter == 0 {
		return 0
	}
	return (s.opts.Rand.Float64()*2 - 1) * s.opts.Jitter
}

func (s *searcher) search(board Board, depth int, alpha, beta float64, maximizing bool) (float64, *Move) {
	s.nodes++
	side := SideToMove(maximizing)

	// A side without placements has no composite move at all.
	if s.mobility(board, side) == 0 {
		if maximizing {
			return -WinScore, nil
		}
		return WinScore, nil
	}

	if depth <= 0 {
		return float64(s.mobility(board, Cpu) - s.mobility(board, Player)), nil
	}

	moves := GenerateMoves(board, side)

	var best *Move
	if maximizing {
		bestScore := math.Inf(-1)
		for i := range moves {
			score, _ := s.search(ApplyMove(board, moves[i]), depth-1, alpha, beta, false)
			score += s.jitter()
			if score > bestScore {
				bestScore = score
				best = &moves[i]
			}
			alpha = math.Max(alpha, bestScore)
			if beta <= alpha && !s.opts.DisablePruning {
				break
			}
		}
		return bestScore, best
	}

	bestScore := math.Inf(1)
	for i := range moves {
		score, _ := s.search(ApplyMove(board, moves[i]), depth-1, alpha, beta, true)
		score += s.jitter()
		if score < bestScore {
			bestScore = score
			best = &moves[i]
		}
		beta = math.Min(beta, bestScore)
		if beta <= alpha && !s.opts.DisablePruning {
			break
		}
	}
	return bestScore, best
}
