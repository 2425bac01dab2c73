package engine

import (
	"fmt"
)

// SkillType represents the skill rating of a move.
type SkillType int

const (
	SkillVeryBad  SkillType = iota // Blunder: throws away a decided result
	SkillBad                       // Error: loses 3 or more points
	SkillDoubtful                  // Doubtful: loses 1-3 points
	SkillNone                      // Good or best move
)

// String returns the display name of the skill type.
func (s SkillType) String() string {
	return [...]string{"Very Bad", "Bad", "Doubtful", "None"}[s]
}

// Abbr returns the abbreviated notation (?, ??, ?!).
func (s SkillType) Abbr() string {
	return [...]string{"??", "?", "?!", ""}[s]
}

// Key returns the snake_case name used on the wire.
func (s SkillType) Key() string {
	return [...]string{"very_bad", "bad", "doubtful", "none"}[s]
}

// MarshalText encodes the skill by its Key.
func (s SkillType) MarshalText() ([]byte, error) {
	return []byte(s.Key()), nil
}

// SkillThresholds are the score loss thresholds for skill ratings,
// in mobility points. A win is worth WinScore.
var SkillThresholds = [4]float64{
	WinScore, // very bad
	3,        // bad
	1,        // doubtful
	0,        // none
}

// ClassifySkill returns the skill rating based on score loss.
// loss should be positive for moves worse than best.
func ClassifySkill(loss float64) SkillType {
	if loss >= SkillThresholds[0] {
		return SkillVeryBad
	} else if loss >= SkillThresholds[1] {
		return SkillBad
	} else if loss >= SkillThresholds[2] {
		return SkillDoubtful
	}
	return SkillNone
}

// MoveSkillAnalysis contains the detailed analysis of a single move for tutoring.
type MoveSkillAnalysis struct {
	Move      Move           // The move that was played
	BestMove  Move           // The best move according to analysis
	Value     float64        // Mover's value of the played move
	BestValue float64        // Mover's value of the best move
	Loss      float64        // BestValue - Value (positive = error)
	Skill     SkillType      // Skill rating
	IsForced  bool           // True if only one legal move
	TopMoves  []MoveWithEval // Top N moves for context
}

// AnalyzeMoveSkill rates a played move against the best move at depth.
func (e *Engine) AnalyzeMoveSkill(board Board, played Move, depth int) (*MoveSkillAnalysis, error) {
	result := e.AnalyzePosition(board, played.Side, depth)
	if result.NumMoves == 0 {
		return nil, fmt.Errorf("%w: %s has no legal move", ErrIllegalMove, played.Side)
	}

	analysis := &MoveSkillAnalysis{
		Move:      played,
		BestMove:  result.BestMove,
		BestValue: result.Moves[0].Value,
		IsForced:  result.NumMoves == 1,
	}

	// Store top moves for context (up to 5)
	maxTop := 5
	if len(result.Moves) < maxTop {
		maxTop = len(result.Moves)
	}
	analysis.TopMoves = result.Moves[:maxTop]

	found := false
	for _, m := range result.Moves {
		if m.Move.Equal(played) {
			analysis.Value = m.Value
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, played)
	}

	analysis.Loss = analysis.BestValue - analysis.Value
	analysis.Skill = ClassifySkill(analysis.Loss)

	return analysis, nil
}
