// Package positionid implements compact position encoding for L-Game boards.
//
// A board has 16 cells with 4 possible tags, so every position fits in a
// 32-bit key (2 bits per cell, row-major). Two text forms are provided:
// a 6-character base64 position ID derived from the key, and a 16-cell
// grid string with rows separated by '/'.
package positionid

import (
	"errors"
	"strings"
)

const (
	// Size is the board edge length.
	Size = 4
	// PositionIDLength is the length of a position ID string.
	PositionIDLength = 6
	// GridLength is the length of a grid string including row separators.
	GridLength = Size*Size + Size - 1
)

// Cell tags as stored in a key. They match the engine's cell order.
const (
	CellEmpty uint8 = iota
	CellPlayer
	CellCpu
	CellToken
)

// Base64 alphabet used for position ID encoding
const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// gridChars maps a cell tag to its grid character.
const gridChars = ".PCT"

// Board is the raw cell matrix, [row][col].
type Board [Size][Size]uint8

// PositionKey is the packed 32-bit form of a board.
type PositionKey uint32

var (
	// ErrInvalidPositionID is returned when a position ID cannot be decoded.
	ErrInvalidPositionID = errors.New("invalid position ID")
	// ErrInvalidGrid is returned when a grid string cannot be parsed.
	ErrInvalidGrid = errors.New("invalid grid")
)

// MakePositionKey packs a board into a key.
func MakePositionKey(board Board) PositionKey {
	var key PositionKey
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			key |= PositionKey(board[r][c]&0x3) << (2 * uint(r*Size+c))
		}
	}
	return key
}

// BoardFromKey unpacks a key.
func BoardFromKey(key PositionKey) Board {
	var board Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			board[r][c] = uint8(key>>(2*uint(r*Size+c))) & 0x3
		}
	}
	return board
}

// PositionIDFromKey renders a key as 6 base64 characters, most significant first.
// The first character only carries the top 2 bits of the key.
func PositionIDFromKey(key PositionKey) string {
	result := make([]byte, PositionIDLength)
	result[0] = base64Chars[key>>30]
	for i := 1; i < PositionIDLength; i++ {
		shift := uint(6 * (PositionIDLength - 1 - i))
		result[i] = base64Chars[(key>>shift)&0x3F]
	}
	return string(result)
}

// PositionID generates a base64 position ID string from a board
func PositionID(board Board) string {
	return PositionIDFromKey(MakePositionKey(board))
}

// base64Decode decodes a base64 character to its value
func base64Decode(ch byte) uint8 {
	switch {
	case ch >= 'A' && ch <= 'Z':
		return ch - 'A'
	case ch >= 'a' && ch <= 'z':
		return ch - 'a' + 26
	case ch >= '0' && ch <= '9':
		return ch - '0' + 52
	case ch == '+':
		return 62
	case ch == '/':
		return 63
	}
	return 255
}

// KeyFromPositionID decodes a position ID without checking the resulting board.
func KeyFromPositionID(posID string) (PositionKey, error) {
	if len(posID) != PositionIDLength {
		return 0, ErrInvalidPositionID
	}

	var key PositionKey
	for i := 0; i < PositionIDLength; i++ {
		v := base64Decode(posID[i])
		if v == 255 || (i == 0 && v > 3) {
			return 0, ErrInvalidPositionID
		}
		key = key<<6 | PositionKey(v)
	}
	return key, nil
}

// BoardFromPositionID decodes a base64 position ID string to a board
func BoardFromPositionID(posID string) (Board, error) {
	key, err := KeyFromPositionID(posID)
	if err != nil {
		return Board{}, err
	}

	board := BoardFromKey(key)
	if !CheckPosition(board) {
		return board, ErrInvalidPositionID
	}
	return board, nil
}

// Grid renders a board as "r0/r1/r2/r3" using '.', 'P', 'C' and 'T'.
func Grid(board Board) string {
	var sb strings.Builder
	sb.Grow(GridLength)
	for r := 0; r < Size; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		for c := 0; c < Size; c++ {
			sb.WriteByte(gridChars[board[r][c]&0x3])
		}
	}
	return sb.String()
}

// BoardFromGrid parses a grid string. Separators are optional and letters
// are case-insensitive; 'x' and '-' are accepted as empty cells.
func BoardFromGrid(s string) (Board, error) {
	var board Board

	cells := make([]uint8, 0, Size*Size)
	for _, ch := range strings.ToUpper(s) {
		switch ch {
		case '/', ' ', '\n', '\t':
			continue
		case '.', '-', 'X':
			cells = append(cells, CellEmpty)
		case 'P':
			cells = append(cells, CellPlayer)
		case 'C':
			cells = append(cells, CellCpu)
		case 'T':
			cells = append(cells, CellToken)
		default:
			return board, ErrInvalidGrid
		}
	}
	if len(cells) != Size*Size {
		return board, ErrInvalidGrid
	}

	for i, v := range cells {
		board[i/Size][i%Size] = v
	}
	if !CheckPosition(board) {
		return board, ErrInvalidGrid
	}
	return board, nil
}

// Parse accepts either a grid string or a position ID.
func Parse(s string) (Board, error) {
	s = strings.TrimSpace(s)
	if len(s) == PositionIDLength && !strings.ContainsAny(s, ".") {
		if board, err := BoardFromPositionID(s); err == nil {
			return board, nil
		}
	}
	return BoardFromGrid(s)
}

// CheckPosition reports whether the cell counts are plausible: four cells
// for each L, two tokens and six empty cells. Shape checks belong to the engine.
func CheckPosition(board Board) bool {
	var counts [4]int
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			counts[board[r][c]&0x3]++
		}
	}
	return counts[CellEmpty] == 6 && counts[CellPlayer] == 4 &&
		counts[CellCpu] == 4 && counts[CellToken] == 2
}

// SwapSides exchanges the two L pieces, leaving tokens in place.
func SwapSides(board Board) Board {
	result := board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			switch board[r][c] {
			case CellPlayer:
				result[r][c] = CellCpu
			case CellCpu:
				result[r][c] = CellPlayer
			}
		}
	}
	return result
}
