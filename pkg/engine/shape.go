package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Shape is a canonical L-tetromino given as offsets from an anchor at (0,0).
type Shape [4]Coord

// Shapes holds the 8 orientations of the L: four tall (3x2) forms and four
// wide (2x3) forms, covering every rotation and mirror image.
var Shapes = [8]Shape{
	// Tall
	{{0, 0}, {1, 0}, {2, 0}, {2, 1}},
	{{0, 1}, {1, 1}, {2, 1}, {2, 0}},
	{{0, 0}, {0, 1}, {1, 0}, {2, 0}},
	{{0, 0}, {0, 1}, {1, 1}, {2, 1}},
	// Wide
	{{0, 0}, {0, 1}, {0, 2}, {1, 0}},
	{{0, 0}, {0, 1}, {0, 2}, {1, 2}},
	{{0, 0}, {1, 0}, {1, 1}, {1, 2}},
	{{0, 2}, {1, 0}, {1, 1}, {1, 2}},
}

// Extent returns the bounding box of the shape.
func (s Shape) Extent() (rows, cols int) {
	for _, c := range s {
		if c.Row+1 > rows {
			rows = c.Row + 1
		}
		if c.Col+1 > cols {
			cols = c.Col + 1
		}
	}
	return rows, cols
}

// At translates the shape so its anchor sits at origin.
func (s Shape) At(origin Coord) Placement {
	var cells [4]Coord
	for i, c := range s {
		cells[i] = Coord{c.Row + origin.Row, c.Col + origin.Col}
	}
	return NewPlacement(cells[:]...)
}

// Placement is an absolute L position. Cells are kept in row-major order so
// two placements covering the same cells compare equal with ==.
type Placement [4]Coord

// NewPlacement builds a placement from 4 cells in any order.
func NewPlacement(cells ...Coord) Placement {
	var p Placement
	copy(p[:], cells)
	sort.Slice(p[:], func(i, j int) bool { return p[i].less(p[j]) })
	return p
}

// InBounds reports whether every cell lies on the board.
func (p Placement) InBounds() bool {
	for _, c := range p {
		if !c.InBounds() {
			return false
		}
	}
	return true
}

// Contains reports whether c is one of the placement's cells.
func (p Placement) Contains(c Coord) bool {
	for _, pc := range p {
		if pc == c {
			return true
		}
	}
	return false
}

// ShapeIndex returns the index into Shapes of the placement's form, or -1
// if the cells do not form an L.
func (p Placement) ShapeIndex() int {
	if !p.InBounds() {
		return -1
	}
	for i, s := range Shapes {
		rows, cols := s.Extent()
		for dr := 0; dr+rows <= Size; dr++ {
			for dc := 0; dc+cols <= Size; dc++ {
				if s.At(Coord{dr, dc}) == p {
					return i
				}
			}
		}
	}
	return -1
}

// String returns the concatenated algebraic cells, e.g. "b1c1b2b3".
func (p Placement) String() string {
	var sb strings.Builder
	for _, c := range p {
		sb.WriteString(c.String())
	}
	return sb.String()
}

// ParsePlacement parses 4 concatenated algebraic cells.
func ParsePlacement(s string) (Placement, error) {
	s = strings.TrimSpace(s)
	if len(s) != 8 {
		return Placement{}, fmt.Errorf("invalid placement: %q", s)
	}
	var cells [4]Coord
	for i := range cells {
		c, err := ParseCoord(s[2*i : 2*i+2])
		if err != nil {
			return Placement{}, fmt.Errorf("invalid placement: %q: %w", s, err)
		}
		cells[i] = c
	}
	p := NewPlacement(cells[:]...)
	if p.ShapeIndex() < 0 {
		return Placement{}, fmt.Errorf("invalid placement: %q is not an L", s)
	}
	return p, nil
}

// allPlacements lists every in-bounds translation of every shape, in shape
// order and then row-major anchor order. There are 48 of them.
var allPlacements = func() []Placement {
	var out []Placement
	for _, s := range Shapes {
		rows, cols := s.Extent()
		for dr := 0; dr+rows <= Size; dr++ {
			for dc := 0; dc+cols <= Size; dc++ {
				out = append(out, s.At(Coord{dr, dc}))
			}
		}
	}
	return out
}()

// AllPlacements returns a copy of every on-board L placement.
func AllPlacements() []Placement {
	return append([]Placement(nil), allPlacements...)
}
