// Package engine provides the public API for the L-Game engine: board state,
// move generation, alpha-beta search and difficulty modulation.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yourusername/lgengine/internal/positionid"
)

// Size is the board edge length.
const Size = 4

// Cell is the occupancy tag of a single square.
type Cell uint8

const (
	Empty   Cell = iota // Free square
	PlayerL             // Part of the Player's L
	CpuL                // Part of the Cpu's L
	Token               // Neutral token
)

// String returns the grid character of the cell.
func (c Cell) String() string {
	return [...]string{".", "P", "C", "T"}[c&0x3]
}

// Side identifies who is to move. Cpu maximizes, Player minimizes.
type Side int

const (
	Player Side = iota
	Cpu
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == Cpu {
		return Player
	}
	return Cpu
}

// Tag returns the cell tag of the side's L piece.
func (s Side) Tag() Cell {
	if s == Cpu {
		return CpuL
	}
	return PlayerL
}

// Maximizing reports whether the side is the maximizing one.
func (s Side) Maximizing() bool {
	return s == Cpu
}

func (s Side) String() string {
	if s == Cpu {
		return "cpu"
	}
	return "player"
}

// MarshalText encodes the side by name.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts anything ParseSide does.
func (s *Side) UnmarshalText(text []byte) error {
	v, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SideToMove maps the search's maximizing flag to a side.
func SideToMove(maximizing bool) Side {
	if maximizing {
		return Cpu
	}
	return Player
}

// ParseSide parses "player" or "cpu" (also "p"/"c").
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "player", "p", "human":
		return Player, nil
	case "cpu", "c", "computer", "engine":
		return Cpu, nil
	default:
		return Player, fmt.Errorf("invalid side: %q", s)
	}
}

// Coord is a board coordinate. Row and Col are 0-based.
type Coord struct {
	Row int
	Col int
}

// InBounds reports whether the coordinate lies on the board.
func (c Coord) InBounds() bool {
	return c.Row >= 0 && c.Row < Size && c.Col >= 0 && c.Col < Size
}

// less orders coordinates row-major.
func (c Coord) less(o Coord) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Col < o.Col
}

// String returns algebraic notation: column a-d, row 1-4.
func (c Coord) String() string {
	return fmt.Sprintf("%c%d", 'a'+c.Col, c.Row+1)
}

// ParseCoord parses algebraic notation such as "b3".
func ParseCoord(s string) (Coord, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return Coord{}, fmt.Errorf("invalid coordinate: %q", s)
	}
	c := Coord{Row: int(s[1] - '1'), Col: int(s[0] - 'a')}
	if !c.InBounds() {
		return Coord{}, fmt.Errorf("invalid coordinate: %q", s)
	}
	return c, nil
}

// Board is the 4x4 cell matrix, [row][col]. It is a value type: assigning
// or passing a Board copies it.
type Board [Size][Size]Cell

// ErrInvalidBoard is returned when a board violates the piece invariants.
var ErrInvalidBoard = errors.New("invalid board")

// StartingBoard returns the standard opening position.
func StartingBoard() Board {
	var b Board
	for _, c := range []Coord{{0, 1}, {1, 1}, {2, 1}, {0, 2}} {
		b.Set(c, PlayerL)
	}
	for _, c := range []Coord{{1, 2}, {2, 2}, {3, 2}, {3, 1}} {
		b.Set(c, CpuL)
	}
	b.Set(Coord{3, 0}, Token)
	b.Set(Coord{0, 3}, Token)
	return b
}

// At returns the tag at c.
func (b Board) At(c Coord) Cell {
	return b[c.Row][c.Col]
}

// Set writes a tag at c.
func (b *Board) Set(c Coord, v Cell) {
	b[c.Row][c.Col] = v
}

// Clone returns an independent copy of the board.
func (b Board) Clone() Board {
	return b
}

// Equal returns true if two boards are identical
func (b Board) Equal(o Board) bool {
	return b == o
}

// Cells returns the coordinates holding tag, in row-major order.
func (b Board) Cells(tag Cell) []Coord {
	var cells []Coord
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] == tag {
				cells = append(cells, Coord{r, c})
			}
		}
	}
	return cells
}

// Placement returns the current L placement of a side. The result is only
// meaningful on a valid board.
func (b Board) Placement(side Side) Placement {
	var p Placement
	copy(p[:], b.Cells(side.Tag()))
	return p
}

// Tokens returns the token coordinates in row-major order.
func (b Board) Tokens() []Coord {
	return b.Cells(Token)
}

// Validate checks the piece invariants: each L occupies 4 cells forming one
// of the canonical shapes, there are exactly 2 tokens and 6 empty cells.
func (b Board) Validate() error {
	var counts [4]int
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] > Token {
				return fmt.Errorf("%w: unknown tag %d at %s", ErrInvalidBoard, b[r][c], Coord{r, c})
			}
			counts[b[r][c]]++
		}
	}

	if counts[PlayerL] != 4 || counts[CpuL] != 4 {
		return fmt.Errorf("%w: L pieces need 4 cells each (player %d, cpu %d)",
			ErrInvalidBoard, counts[PlayerL], counts[CpuL])
	}
	if counts[Token] != 2 {
		return fmt.Errorf("%w: need 2 tokens, found %d", ErrInvalidBoard, counts[Token])
	}

	for _, side := range []Side{Player, Cpu} {
		if b.Placement(side).ShapeIndex() < 0 {
			return fmt.Errorf("%w: %s piece is not an L", ErrInvalidBoard, side)
		}
	}
	return nil
}

// String renders the board as four lines, top row first.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(b[r][c].String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// raw converts the board to the positionid representation.
func (b Board) raw() positionid.Board {
	var pb positionid.Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			pb[r][c] = uint8(b[r][c])
		}
	}
	return pb
}

func fromRaw(pb positionid.Board) Board {
	var b Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			b[r][c] = Cell(pb[r][c])
		}
	}
	return b
}

// Key returns the packed 32-bit position key.
func (b Board) Key() positionid.PositionKey {
	return positionid.MakePositionKey(b.raw())
}

// Grid returns the grid string form, e.g. ".PPT/.PC./.PC./TCC.".
func (b Board) Grid() string {
	return positionid.Grid(b.raw())
}

// Mirror returns the board with the two Ls exchanged. The mirrored board with
// the other side to move is the same position from the opponent's view.
func (b Board) Mirror() Board {
	return fromRaw(positionid.SwapSides(b.raw()))
}

// PositionID returns the 6-character position ID.
func (b Board) PositionID() string {
	return positionid.PositionID(b.raw())
}

// ParseBoard accepts "start", a grid string or a position ID and returns a
// validated board.
func ParseBoard(s string) (Board, error) {
	if strings.EqualFold(strings.TrimSpace(s), "start") {
		return StartingBoard(), nil
	}

	pb, err := positionid.Parse(s)
	if err != nil {
		return Board{}, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}

	b := fromRaw(pb)
	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// IsLegalPlacement reports whether no cell of p holds the opponent's L or a
// token. Bounds must already have been checked by the caller.
func IsLegalPlacement(b Board, p Placement, opponent Cell) bool {
	for _, c := range p {
		if v := b[c.Row][c.Col]; v == opponent || v == Token {
			return false
		}
	}
	return true
}
