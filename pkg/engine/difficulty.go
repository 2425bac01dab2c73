package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Difficulty scales search depth and randomness.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// ErrInvalidDifficulty is returned for an unknown difficulty name.
var ErrInvalidDifficulty = errors.New("invalid difficulty")

// difficultyParams holds the per-level settings
var difficultyParams = [...]struct {
	name   string
	depth  int
	random float64
	jitter float64
}{
	Easy:   {"easy", 1, 0.7, 2},
	Medium: {"medium", 2, 0.4, 1},
	Hard:   {"hard", 3, 0.2, 0},
}

// ParseDifficulty parses "easy", "medium" or "hard".
func ParseDifficulty(s string) (Difficulty, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d, p := range difficultyParams {
		if p.name == name {
			return Difficulty(d), nil
		}
	}
	return Medium, fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
}

func (d Difficulty) valid() bool {
	return d >= Easy && d <= Hard
}

func (d Difficulty) String() string {
	if !d.valid() {
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
	return difficultyParams[d].name
}

// Depth is the search depth in plies.
func (d Difficulty) Depth() int {
	if !d.valid() {
		return difficultyParams[Hard].depth
	}
	return difficultyParams[d].depth
}

// RandomMoveProbability is the chance the searched move is replaced by a
// uniformly random legal move.
func (d Difficulty) RandomMoveProbability() float64 {
	if !d.valid() {
		return 0
	}
	return difficultyParams[d].random
}

// Jitter is the amplitude of the noise added to scores during search.
func (d Difficulty) Jitter() float64 {
	if !d.valid() {
		return 0
	}
	return difficultyParams[d].jitter
}

// MarshalText implements encoding.TextMarshaler.
func (d Difficulty) MarshalText() ([]byte, error) {
	if !d.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDifficulty, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
