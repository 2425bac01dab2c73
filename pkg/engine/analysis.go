package engine

import (
	"math"
	"sort"
)

// MoveWithEval is a move together with its search score
type MoveWithEval struct {
	Move  Move
	Score float64 // Cpu-positive search score after the move
	Value float64 // Score from the mover's point of view, used for ranking
}

// AnalysisResult contains the result of move analysis
type AnalysisResult struct {
	Side      Side           // Side to move
	Depth     int            // Search depth, counting the root move
	Moves     []MoveWithEval // All moves ranked best first for Side
	BestMove  Move           // Best move
	BestScore float64        // Cpu-positive score of the best move
	NumMoves  int            // Total number of legal moves
	Nodes     int64          // Positions visited over all root moves
}

// valueFor converts a Cpu-positive score to the side's point of view.
func valueFor(side Side, score float64) float64 {
	if side.Maximizing() {
		return score
	}
	return -score
}

// AnalyzePosition scores every legal move of side with a deterministic
// full-window search of depth-1 plies below it, and ranks them best first.
// Depths below 1 are treated as 1.
func (e *Engine) AnalyzePosition(board Board, side Side, depth int) *AnalysisResult {
	if depth < 1 {
		depth = 1
	}

	moves := GenerateMoves(board, side)
	result := &AnalysisResult{
		Side:     side,
		Depth:    depth,
		NumMoves: len(moves),
	}
	if len(moves) == 0 {
		result.BestScore = valueFor(side, -WinScore)
		return result
	}

	result.Moves = make([]MoveWithEval, len(moves))
	for i, m := range moves {
		sr := SearchWithOptions(ApplyMove(board, m), depth-1, math.Inf(-1), math.Inf(1),
			!side.Maximizing(), SearchOptions{Mobility: e.Mobility})
		result.Nodes += sr.Nodes
		result.Moves[i] = MoveWithEval{
			Move:  m,
			Score: sr.Score,
			Value: valueFor(side, sr.Score),
		}
	}

	// Sort by value (best first); ties keep generation order
	sort.SliceStable(result.Moves, func(i, j int) bool {
		return result.Moves[i].Value > result.Moves[j].Value
	})

	result.BestMove = result.Moves[0].Move
	result.BestScore = result.Moves[0].Score

	return result
}

// RankMoves returns the top n moves. If n <= 0, returns all moves ranked
func (e *Engine) RankMoves(board Board, side Side, depth, n int) []MoveWithEval {
	analysis := e.AnalyzePosition(board, side, depth)
	if n <= 0 || n > len(analysis.Moves) {
		return analysis.Moves
	}
	return analysis.Moves[:n]
}
