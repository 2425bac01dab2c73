package match

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/yourusername/lgengine/pkg/engine"
)

// PlyRow is one move of a recorded game, with the position it was played
// from. One row per ply keeps the file flat and easy to query.
//
// Value is the final outcome from the mover's point of view: 1 win,
// 0 draw or unfinished, -1 loss.
type PlyRow struct {
	GameID         string  `parquet:"game_id,dict"`
	Game           int32   `parquet:"game"`
	Ply            int32   `parquet:"ply"`
	Side           string  `parquet:"side,dict"`
	Position       string  `parquet:"position"` // Position ID before the move
	Grid           string  `parquet:"grid"`     // Grid string before the move
	Move           string  `parquet:"move"`
	MobilityPlayer int32   `parquet:"mobility_player"`
	MobilityCpu    int32   `parquet:"mobility_cpu"`
	Result         string  `parquet:"result,dict"`
	Value          float32 `parquet:"value"`
}

// Rows flattens a match into ply rows, replaying every game.
func Rows(m *Match) ([]PlyRow, error) {
	var rows []PlyRow
	for _, g := range m.Games {
		if _, err := g.Replay(); err != nil {
			return nil, err
		}

		gameID := fmt.Sprintf("%s-%d", m.Date, g.Number)
		if m.Date == "" {
			gameID = fmt.Sprintf("game-%d", g.Number)
		}

		board := g.Start
		for i, move := range g.Moves {
			rows = append(rows, PlyRow{
				GameID:         gameID,
				Game:           int32(g.Number),
				Ply:            int32(i + 1),
				Side:           move.Side.String(),
				Position:       board.PositionID(),
				Grid:           board.Grid(),
				Move:           engine.FormatMove(move),
				MobilityPlayer: int32(engine.Mobility(board, engine.Player)),
				MobilityCpu:    int32(engine.Mobility(board, engine.Cpu)),
				Result:         g.Result.String(),
				Value:          outcomeValue(g.Result, move.Side),
			})
			board = engine.ApplyMove(board, move)
		}
	}
	return rows, nil
}

func outcomeValue(r engine.Result, mover engine.Side) float32 {
	winner, ok := r.Winner()
	if !ok {
		return 0
	}
	if winner == mover {
		return 1
	}
	return -1
}

// WriteParquet writes the match's ply rows to outPath.
func WriteParquet(outPath string, m *Match) error {
	rows, err := Rows(m)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return errors.New("match has no moves")
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// Write to a temp file and rename atomically.
	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "lgame_ply_v1"),
	); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// ReadParquet reads back the rows written by WriteParquet.
func ReadParquet(path string) ([]PlyRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, err
	}

	reader := parquet.NewGenericReader[PlyRow](pf)
	defer reader.Close()

	rows := make([]PlyRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return rows[:n], nil
}
