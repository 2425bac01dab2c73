package engine

import (
	"testing"
)

const edgeSqueezeGrid = "P.CT/P.C./PPCC/.T.."

func TestPositionDB(t *testing.T) {
	db := NewPositionDB()

	// Add a position
	entry := &PositionEntry{
		Name:        "Test Position",
		Category:    CategoryMiddlegame,
		Description: "A test position",
		Board:       StartingBoard(),
		Tags:        []string{"test", "contact"},
	}
	db.Add(entry)

	if db.Count() != 1 {
		t.Errorf("Count() = %d, want 1", db.Count())
	}
	if entry.ID != StartingBoard().PositionID() {
		t.Errorf("ID = %q, want the position ID", entry.ID)
	}

	got := db.Get(entry.ID)
	if got == nil {
		t.Fatal("Get() returned nil")
	}
	if got.Name != "Test Position" {
		t.Errorf("Name = %q, want %q", got.Name, "Test Position")
	}

	if n := len(db.GetByCategory(CategoryMiddlegame)); n != 1 {
		t.Errorf("GetByCategory() returned %d positions, want 1", n)
	}
	if n := len(db.GetByTag("test")); n != 1 {
		t.Errorf("GetByTag() returned %d positions, want 1", n)
	}
}

func TestClassifyPosition(t *testing.T) {
	tests := []struct {
		grid string
		side Side
		want PositionCategory
	}{
		{startGrid, Player, CategoryOpening},
		{startGrid, Cpu, CategoryOpening},
		{boxedGrid, Player, CategoryTerminal},
		{"CCC./CPPP/TP../.T..", Player, CategoryTerminal},
		{edgeSqueezeGrid, Cpu, CategoryWinInOne},
		{edgeSqueezeGrid, Player, CategoryMiddlegame},
	}

	for _, tc := range tests {
		if got := ClassifyPosition(mustBoard(t, tc.grid), tc.side); got != tc.want {
			t.Errorf("ClassifyPosition(%s, %s) = %s, want %s", tc.grid, tc.side, got, tc.want)
		}
	}
}

func TestDefaultPositionDB(t *testing.T) {
	db := DefaultPositionDB()

	if db.Count() != 4 {
		t.Fatalf("Count() = %d, want 4", db.Count())
	}
	start := db.Get(StartingBoard().PositionID())
	if start == nil || start.Category != CategoryOpening {
		t.Fatalf("starting position missing or misclassified: %+v", start)
	}
	if n := len(db.GetByCategory(CategoryTerminal)); n != 2 {
		t.Errorf("terminal positions = %d, want 2", n)
	}
	if n := len(db.GetByCategory(CategoryWinInOne)); n != 1 {
		t.Errorf("win-in-one positions = %d, want 1", n)
	}
	if n := len(db.GetByTag("corner")); n != 2 {
		t.Errorf("corner positions = %d, want 2", n)
	}

	all := db.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].Difficulty > all[i].Difficulty {
			t.Errorf("All() not ordered by difficulty at %d", i)
		}
	}
}

func TestPositionDBSearch(t *testing.T) {
	db := DefaultPositionDB()

	corner := db.Search("CORNER")
	if len(corner) != 2 {
		t.Fatalf("Search(CORNER) = %d results, want 2", len(corner))
	}
	for _, p := range corner {
		if p.Category != CategoryTerminal {
			t.Errorf("Search(CORNER) returned %q (%s)", p.Name, p.Category)
		}
	}
	results := db.Search("squeeze")
	if len(results) != 1 || results[0].Name != "Edge Squeeze" {
		t.Errorf("Search(squeeze) = %v", results)
	}
	if n := len(db.Search("no such thing")); n != 0 {
		t.Errorf("Search(no such thing) = %d results, want 0", n)
	}
}

func TestDefaultPositionDBMirror(t *testing.T) {
	db := DefaultPositionDB()

	mirrored := mustBoard(t, "CCC./CPPP/TP../.T..")
	if !mustBoard(t, boxedGrid).Mirror().Equal(mirrored) {
		t.Fatalf("Mirror(%s) = %s", boxedGrid, mustBoard(t, boxedGrid).Mirror().Grid())
	}

	e := db.Get(mirrored.PositionID())
	if e == nil {
		t.Fatal("mirrored corner trap missing")
	}
	if e.Name != "Cpu Boxed In" || e.Side != Cpu || e.Category != CategoryTerminal {
		t.Errorf("mirrored entry = %+v", e)
	}
	if Mobility(e.Board, Cpu) != 0 || Mobility(e.Board, Player) != 11 {
		t.Errorf("mobility = %d/%d, want 0/11", Mobility(e.Board, Cpu), Mobility(e.Board, Player))
	}
}

func TestFindSimilar(t *testing.T) {
	db := DefaultPositionDB()

	sims := db.FindSimilar(StartingBoard(), 10)
	if len(sims) != 1 || sims[0].Similarity != 1.0 {
		t.Fatalf("FindSimilar(start) = %+v", sims)
	}

	// Half the cells match the start, which is not enough; 9 of 16 match
	// the edge squeeze.
	sims = db.FindSimilar(mustBoard(t, "P.../P.CT/PPC./TCC."), 10)
	if len(sims) != 1 || sims[0].Entry.Name != "Edge Squeeze" {
		t.Fatalf("FindSimilar = %+v", sims)
	}
	if sims[0].Similarity != 9.0/16 {
		t.Errorf("Similarity = %v, want %v", sims[0].Similarity, 9.0/16)
	}
}

func TestPrecomputeEvaluations(t *testing.T) {
	db := DefaultPositionDB()
	if err := db.PrecomputeEvaluations(newTestEngine(t), 1); err != nil {
		t.Fatal(err)
	}

	edge := db.Get(mustBoard(t, edgeSqueezeGrid).PositionID())
	if edge.Analysis == nil || edge.Analysis.Score != WinScore {
		t.Fatalf("edge squeeze analysis = %+v", edge.Analysis)
	}
	best, err := ParseMove(edge.Analysis.BestMove, Cpu)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := ParseMove("b1b2c2d2 d1-c3", Cpu)
	if !best.Equal(want) {
		t.Errorf("best move = %s, want %s", best, want)
	}

	boxed := db.Get(mustBoard(t, boxedGrid).PositionID())
	if boxed.Analysis.BestMove != "" || boxed.Analysis.Score != WinScore {
		t.Errorf("boxed analysis = %+v", boxed.Analysis)
	}
}
