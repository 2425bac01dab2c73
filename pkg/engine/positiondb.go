package engine

import (
	"sort"
	"strings"
	"sync"
)

// PositionCategory represents the type of position.
type PositionCategory int

const (
	CategoryUnknown    PositionCategory = iota
	CategoryOpening                     // The standard start
	CategoryMiddlegame                  // Both sides can move, no immediate win
	CategoryWinInOne                    // The side to move can leave the opponent stuck
	CategoryTerminal                    // One side has no legal move
)

// String returns the human-readable name of the category.
func (c PositionCategory) String() string {
	return [...]string{"Unknown", "Opening", "Middlegame", "Win in One", "Terminal"}[c]
}

// MarshalText encodes the category by name.
func (c PositionCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// PositionAnalysis is a stored search result for a library position.
type PositionAnalysis struct {
	Depth    int     `json:"depth"`
	Score    float64 `json:"score"`
	BestMove string  `json:"best_move,omitempty"`
}

// PositionEntry represents a position in the database.
type PositionEntry struct {
	ID          string           `json:"id"`          // Position ID
	Name        string           `json:"name"`        // Human-readable name
	Category    PositionCategory `json:"category"`    // Position category
	Description string           `json:"description"` // Detailed description
	Board       Board            `json:"-"`
	Side        Side             `json:"side"` // Side to move
	Tags        []string         `json:"tags"` // Searchable tags

	// Pre-computed analysis (optional)
	Analysis *PositionAnalysis `json:"analysis,omitempty"`

	// Key concepts this position demonstrates
	Concepts []string `json:"concepts,omitempty"`

	// Difficulty level (1-5)
	Difficulty int `json:"difficulty"`
}

// PositionDB is an in-memory position database.
type PositionDB struct {
	positions  map[string]*PositionEntry
	byCategory map[PositionCategory][]*PositionEntry
	byTag      map[string][]*PositionEntry
	mu         sync.RWMutex
}

// NewPositionDB creates a new empty position database.
func NewPositionDB() *PositionDB {
	return &PositionDB{
		positions:  make(map[string]*PositionEntry),
		byCategory: make(map[PositionCategory][]*PositionEntry),
		byTag:      make(map[string][]*PositionEntry),
	}
}

// Add adds a position to the database.
func (db *PositionDB) Add(entry *PositionEntry) {
	db.mu.Lock()
	defer db.mu.Unlock()

	// Generate ID if not set
	if entry.ID == "" {
		entry.ID = entry.Board.PositionID()
	}

	db.positions[entry.ID] = entry

	// Index by category
	db.byCategory[entry.Category] = append(db.byCategory[entry.Category], entry)

	// Index by tags
	for _, tag := range entry.Tags {
		db.byTag[tag] = append(db.byTag[tag], entry)
	}
}

// Get retrieves a position by ID.
func (db *PositionDB) Get(id string) *PositionEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.positions[id]
}

// GetByCategory returns all positions in a category.
func (db *PositionDB) GetByCategory(cat PositionCategory) []*PositionEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.byCategory[cat]
}

// GetByTag returns all positions with a given tag.
func (db *PositionDB) GetByTag(tag string) []*PositionEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.byTag[tag]
}

// Search finds positions whose name, description or tags contain query,
// ignoring case.
func (db *PositionDB) Search(query string) []*PositionEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()

	q := strings.ToLower(query)
	var results []*PositionEntry
	for _, p := range db.positions {
		if matchesQuery(p, q) {
			results = append(results, p)
		}
	}
	sortEntries(results)
	return results
}

// Count returns the total number of positions.
func (db *PositionDB) Count() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.positions)
}

// All returns all positions, ordered by difficulty then name.
func (db *PositionDB) All() []*PositionEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()

	results := make([]*PositionEntry, 0, len(db.positions))
	for _, p := range db.positions {
		results = append(results, p)
	}
	sortEntries(results)
	return results
}

func sortEntries(entries []*PositionEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Difficulty != entries[j].Difficulty {
			return entries[i].Difficulty < entries[j].Difficulty
		}
		return entries[i].Name < entries[j].Name
	})
}

// matchesQuery checks a lower-cased query against a position.
func matchesQuery(p *PositionEntry, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// PositionSimilarity contains similarity information between two positions.
type PositionSimilarity struct {
	Entry      *PositionEntry
	Similarity float64 // 0.0 to 1.0
}

// FindSimilar finds positions similar to the given board.
func (db *PositionDB) FindSimilar(board Board, maxResults int) []PositionSimilarity {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var results []PositionSimilarity
	for _, p := range db.positions {
		sim := calculateBoardSimilarity(board, p.Board)
		if sim > 0.5 { // Threshold for "similar"
			results = append(results, PositionSimilarity{
				Entry:      p,
				Similarity: sim,
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Entry.Name < results[j].Entry.Name
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// calculateBoardSimilarity returns the fraction of cells two boards agree on.
func calculateBoardSimilarity(a, b Board) float64 {
	matches := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if a[r][c] == b[r][c] {
				matches++
			}
		}
	}
	return float64(matches) / float64(Size*Size)
}

// ClassifyPosition determines the category of a position with side to move.
func ClassifyPosition(board Board, side Side) PositionCategory {
	if Mobility(board, Player) == 0 || Mobility(board, Cpu) == 0 {
		return CategoryTerminal
	}
	if board.Equal(StartingBoard()) {
		return CategoryOpening
	}
	for _, m := range GenerateMoves(board, side) {
		if Mobility(ApplyMove(board, m), side.Opponent()) == 0 {
			return CategoryWinInOne
		}
	}
	return CategoryMiddlegame
}

// CreatePositionEntry creates a classified entry from a grid string or
// position ID.
func CreatePositionEntry(pos, name string, side Side, desc string, tags []string) (*PositionEntry, error) {
	board, err := ParseBoard(pos)
	if err != nil {
		return nil, err
	}

	return &PositionEntry{
		ID:          board.PositionID(),
		Name:        name,
		Category:    ClassifyPosition(board, side),
		Description: desc,
		Board:       board,
		Side:        side,
		Tags:        tags,
	}, nil
}

// DefaultPositionDB creates a database with common reference positions.
func DefaultPositionDB() *PositionDB {
	db := NewPositionDB()

	referencePositions := []struct {
		grid     string
		name     string
		side     Side
		desc     string
		tags     []string
		concepts []string
		diff     int
	}{
		{StartingBoard().Grid(), "Starting Position", Player,
			"Both Ls interlocked in the centre, one token at each end of the anti-diagonal",
			[]string{"opening", "standard", "initial"},
			[]string{"game start"}, 1},
		{"PPP./PCCC/TC../.T..", "Player Boxed In", Player,
			"The Player's L is pinned in the corner and cannot move",
			[]string{"endgame", "cpu-wins", "corner"},
			[]string{"blocking", "corner trap"}, 1},
		{"P.CT/P.C./PPCC/.T..", "Edge Squeeze", Cpu,
			"Exactly one Cpu move leaves the Player without a placement",
			[]string{"tactics", "win-in-one", "edge"},
			[]string{"blocking", "token play"}, 3},
	}

	for _, rp := range referencePositions {
		entry, err := CreatePositionEntry(rp.grid, rp.name, rp.side, rp.desc, rp.tags)
		if err != nil {
			continue // Skip invalid positions
		}
		entry.Concepts = rp.concepts
		entry.Difficulty = rp.diff
		db.Add(entry)

		if rp.name == "Player Boxed In" {
			db.Add(mirrorEntry(entry, "Cpu Boxed In",
				"Mirror of the corner trap with the Cpu stuck",
				[]string{"endgame", "player-wins", "corner"}))
		}
	}

	return db
}

// mirrorEntry builds the entry for e's board with the Ls exchanged and the
// other side to move.
func mirrorEntry(e *PositionEntry, name, desc string, tags []string) *PositionEntry {
	board := e.Board.Mirror()
	side := e.Side.Opponent()
	return &PositionEntry{
		ID:          board.PositionID(),
		Name:        name,
		Category:    ClassifyPosition(board, side),
		Description: desc,
		Board:       board,
		Side:        side,
		Tags:        tags,
		Concepts:    e.Concepts,
		Difficulty:  e.Difficulty,
	}
}

// PrecomputeEvaluations stores a depth-limited search result on every
// position that has none.
func (db *PositionDB) PrecomputeEvaluations(e *Engine, depth int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, p := range db.positions {
		if p.Analysis != nil {
			continue
		}
		r := e.Search(p.Board, p.Side, depth)
		p.Analysis = &PositionAnalysis{Depth: depth, Score: r.Score}
		if r.BestMove != nil {
			p.Analysis.BestMove = FormatMove(*r.BestMove)
		}
	}
	return nil
}
