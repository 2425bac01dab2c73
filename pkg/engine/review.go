package engine

import (
	"fmt"
)

// RatingType is an overall rating of a side's play over a game.
type RatingType int

const (
	RatingUndefined    RatingType = iota // No unforced moves
	RatingAwful                          // >= 3 points lost per move
	RatingBeginner                       // 1.5-3
	RatingIntermediate                   // 0.75-1.5
	RatingAdvanced                       // 0.25-0.75
	RatingExpert                         // < 0.25
)

// RatingThresholds are the lower bounds of loss per move for each rating,
// indexed by RatingType.
var RatingThresholds = [6]float64{
	0,    // undefined (never used)
	3,    // awful
	1.5,  // beginner
	0.75, // intermediate
	0.25, // advanced
	0,    // expert
}

func (r RatingType) String() string {
	return [...]string{"Undefined", "Awful", "Beginner", "Intermediate", "Advanced", "Expert"}[r]
}

// MarshalText encodes the rating by name.
func (r RatingType) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// GetRating returns the rating for a loss per unforced move.
func GetRating(lossPerMove float64) RatingType {
	for r := RatingAwful; r < RatingExpert; r++ {
		if lossPerMove >= RatingThresholds[r] {
			return r
		}
	}
	return RatingExpert
}

// SideReview summarizes one side's play over a game.
type SideReview struct {
	Side        Side       `json:"side"`
	Moves       int        `json:"moves"`         // Unforced moves
	Forced      int        `json:"forced"`        // Moves with a single legal option
	TotalLoss   float64    `json:"total_loss"`    // Sum of points lost
	LossPerMove float64    `json:"loss_per_move"` // Over unforced moves
	Blunders    int        `json:"blunders"`
	Errors      int        `json:"errors"`
	Doubtful    int        `json:"doubtful"`
	Rating      RatingType `json:"rating"`
}

// MoveErrorDetail describes one move that lost points.
type MoveErrorDetail struct {
	Ply      int       `json:"ply"` // 1-based
	Side     Side      `json:"side"`
	Position string    `json:"position"` // Position ID before the move
	Played   string    `json:"played"`
	Best     string    `json:"best"`
	Loss     float64   `json:"loss"`
	Skill    SkillType `json:"skill"`
}

// GameReview is the move-by-move review of a finished or partial game.
type GameReview struct {
	Plies  int               `json:"plies"`
	Result Result            `json:"result"`
	Player SideReview        `json:"player"`
	Cpu    SideReview        `json:"cpu"`
	Errors []MoveErrorDetail `json:"errors"`
}

// ReviewOptions configures ReviewGame.
type ReviewOptions struct {
	Depth          int     // Analysis depth per move (default 2)
	ErrorThreshold float64 // Losses below this are not counted
}

// DefaultReviewOptions returns the options the binaries use.
func DefaultReviewOptions() ReviewOptions {
	return ReviewOptions{Depth: 2}
}

func (r *GameReview) side(s Side) *SideReview {
	if s == Cpu {
		return &r.Cpu
	}
	return &r.Player
}

// ReviewGame replays moves from start and rates every move with
// AnalyzeMoveSkill. It fails on the first illegal move.
func (e *Engine) ReviewGame(start Board, first Side, moves []Move, opts ReviewOptions) (*GameReview, error) {
	if opts.Depth <= 0 {
		opts.Depth = DefaultReviewOptions().Depth
	}
	g, err := NewGameFrom(start, first)
	if err != nil {
		return nil, err
	}
	g.MaxPlies = 0

	review := &GameReview{
		Player: SideReview{Side: Player},
		Cpu:    SideReview{Side: Cpu},
		Errors: make([]MoveErrorDetail, 0),
	}

	for i, m := range moves {
		before := g.Board
		analysis, err := e.AnalyzeMoveSkill(before, m, opts.Depth)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}
		if err := g.Play(m); err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}

		sr := review.side(m.Side)
		if analysis.IsForced {
			sr.Forced++
			continue
		}
		sr.Moves++
		if analysis.Loss < opts.ErrorThreshold || analysis.Loss <= 0 {
			continue
		}
		sr.TotalLoss += analysis.Loss

		switch analysis.Skill {
		case SkillVeryBad:
			sr.Blunders++
		case SkillBad:
			sr.Errors++
		case SkillDoubtful:
			sr.Doubtful++
		}
		if analysis.Skill != SkillNone {
			review.Errors = append(review.Errors, MoveErrorDetail{
				Ply:      i + 1,
				Side:     m.Side,
				Position: before.PositionID(),
				Played:   FormatMove(m),
				Best:     FormatMove(analysis.BestMove),
				Loss:     analysis.Loss,
				Skill:    analysis.Skill,
			})
		}
	}

	review.Plies = g.Plies()
	review.Result = g.Result
	for _, sr := range []*SideReview{&review.Player, &review.Cpu} {
		if sr.Moves > 0 {
			sr.LossPerMove = sr.TotalLoss / float64(sr.Moves)
			sr.Rating = GetRating(sr.LossPerMove)
		}
	}
	return review, nil
}
