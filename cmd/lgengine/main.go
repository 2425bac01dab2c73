// lgengine - L-Game search engine command line
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/lgengine/pkg/engine"
	"github.com/yourusername/lgengine/pkg/match"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "moves":
		cmdMoves(args)
	case "eval":
		cmdEval(args)
	case "search":
		cmdSearch(args)
	case "analyze":
		cmdAnalyze(args)
	case "tutor":
		cmdTutor(args)
	case "bench":
		cmdBench(args)
	case "selfplay":
		cmdSelfPlay(args)
	case "replay":
		cmdReplay(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`lgengine - L-Game Search Engine

Usage: lgengine <command> [options]

Commands:
  moves     List the legal moves of a position
  eval      Static mobility evaluation
  search    Choose a move (fixed depth or difficulty)
  analyze   Rank every legal move
  tutor     Rate a played move
  bench     Time fixed-depth searches over random positions
  selfplay  Engine-vs-engine tournament
  replay    Read back a text record or Parquet export

Use "lgengine <command> -h" for command-specific help.

Position Format:
  A grid string, four rows of four cells separated by '/', with
  '.' empty, 'P' Player L, 'C' Cpu L and 'T' neutral token,
  e.g. ".PPT/.PC./.PC./TCC." (the start), a 6-character position ID,
  or "start".`)
}

// setupLogging routes zerolog through a console writer on stderr.
func setupLogging(verbose bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// fatal prints an error and exits.
func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// positionFlags registers the flags shared by the position commands.
type positionFlags struct {
	position *string
	side     *string
	verbose  *bool
}

func addPositionFlags(fs *flag.FlagSet, defaultSide string) positionFlags {
	return positionFlags{
		position: fs.String("p", "start", "Position (grid string, position ID or \"start\")"),
		side:     fs.String("side", defaultSide, "Side to move (player or cpu)"),
		verbose:  fs.Bool("v", false, "Debug logging"),
	}
}

func (pf positionFlags) parse() (engine.Board, engine.Side) {
	setupLogging(*pf.verbose)
	board, err := engine.ParseBoard(*pf.position)
	if err != nil {
		fatal("%v", err)
	}
	side, err := engine.ParseSide(*pf.side)
	if err != nil {
		fatal("%v", err)
	}
	return board, side
}

func createEngine(difficulty string) *engine.Engine {
	opts := engine.DefaultEngineOptions()
	if difficulty != "" {
		opts.Difficulty = difficulty
	}
	e, err := engine.NewEngine(opts)
	if err != nil {
		fatal("failed to create engine: %v", err)
	}
	return e
}

func cmdMoves(args []string) {
	fs := flag.NewFlagSet("moves", flag.ExitOnError)
	pf := addPositionFlags(fs, "cpu")
	placements := fs.Bool("placements", false, "List distinct L placements only")
	fs.Parse(args)
	board, side := pf.parse()

	fmt.Print(board)
	if *placements {
		ps := engine.GeneratePlacements(board, side)
		fmt.Printf("%d L placements for %s:\n", len(ps), side)
		for _, p := range ps {
			fmt.Printf("  %s\n", p)
		}
		return
	}

	moves := engine.GenerateMoves(board, side)
	fmt.Printf("%d moves for %s:\n", len(moves), side)
	for _, m := range moves {
		fmt.Printf("  %s\n", engine.FormatMove(m))
	}
}

func cmdEval(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	pf := addPositionFlags(fs, "cpu")
	fs.Parse(args)
	board, _ := pf.parse()

	e := createEngine("")
	mp := e.Mobility(board, engine.Player)
	mc := e.Mobility(board, engine.Cpu)

	fmt.Print(board)
	fmt.Printf("Position ID: %s\n", board.PositionID())
	fmt.Printf("Score:       %+d (cpu %d, player %d)\n", mc-mp, mc, mp)
	switch {
	case mp == 0:
		fmt.Println("Player has no legal move")
	case mc == 0:
		fmt.Println("Cpu has no legal move")
	}
}

func cmdSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	pf := addPositionFlags(fs, "cpu")
	depth := fs.Int("depth", 0, "Fixed search depth (0 = use difficulty)")
	difficulty := fs.String("difficulty", "medium", "Difficulty (easy, medium, hard)")
	seed := fs.Int64("seed", 0, "Random seed (0 = random)")
	fs.Parse(args)
	board, side := pf.parse()

	e := createEngine(*difficulty)

	if *depth > 0 {
		start := time.Now()
		r := e.Search(board, side, *depth)
		elapsed := time.Since(start)
		if r.BestMove == nil {
			fmt.Printf("%s has no legal move (score %+g)\n", side, r.Score)
			return
		}
		fmt.Printf("Best move:  %s\n", engine.FormatMove(*r.BestMove))
		fmt.Printf("Score:      %+g (depth %d, %d nodes, %s)\n", r.Score, *depth, r.Nodes, elapsed.Round(time.Microsecond))
		fmt.Print(engine.ApplyMove(board, *r.BestMove))
		return
	}

	var rng *rand.Rand
	if *seed != 0 {
		rng = rand.New(rand.NewSource(*seed))
	}
	d, err := e.BestMove(context.Background(), board, side, e.Difficulty(), rng)
	if err != nil {
		fatal("%v", err)
	}
	if d.Move == nil {
		fmt.Printf("%s has no legal move (score %+g)\n", side, d.Score)
		return
	}
	note := ""
	if d.Random {
		note = " (random)"
	}
	fmt.Printf("Move:       %s%s\n", engine.FormatMove(*d.Move), note)
	fmt.Printf("Score:      %+g (%s, depth %d, %d nodes, %s)\n",
		d.Score, d.Difficulty, d.Depth, d.Nodes, d.Elapsed.Round(time.Microsecond))
	fmt.Print(engine.ApplyMove(board, *d.Move))
}

func cmdAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	pf := addPositionFlags(fs, "cpu")
	depth := fs.Int("depth", 2, "Search depth, counting the move itself")
	numMoves := fs.Int("n", 10, "Number of moves to show (0 = all)")
	fs.Parse(args)
	board, side := pf.parse()

	e := createEngine("")
	start := time.Now()
	a := e.AnalyzePosition(board, side, *depth)
	elapsed := time.Since(start)

	if a.NumMoves == 0 {
		fmt.Printf("%s has no legal move\n", side)
		return
	}

	moves := a.Moves
	if *numMoves > 0 && *numMoves < len(moves) {
		moves = moves[:*numMoves]
	}
	fmt.Printf("%d moves for %s at depth %d (%d nodes, %s):\n",
		a.NumMoves, side, a.Depth, a.Nodes, elapsed.Round(time.Millisecond))
	for i, m := range moves {
		fmt.Printf("  %2d. %-20s  %+6g\n", i+1, engine.FormatMove(m.Move), m.Value)
	}
}

func cmdTutor(args []string) {
	fs := flag.NewFlagSet("tutor", flag.ExitOnError)
	pf := addPositionFlags(fs, "player")
	moveStr := fs.String("move", "", "Move played (e.g. \"a1a2a3b3 d1-d2\")")
	depth := fs.Int("depth", 2, "Search depth")
	fs.Parse(args)
	board, side := pf.parse()

	if *moveStr == "" {
		fmt.Fprintln(os.Stderr, "Usage: lgengine tutor -p <position> -side <side> -move <move>")
		os.Exit(1)
	}
	played, err := engine.ParseMove(*moveStr, side)
	if err != nil {
		fatal("%v", err)
	}

	a, err := createEngine("").AnalyzeMoveSkill(board, played, *depth)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Printf("Played:  %-20s %+g %s\n", engine.FormatMove(a.Move), a.Value, a.Skill.Abbr())
	fmt.Printf("Best:    %-20s %+g\n", engine.FormatMove(a.BestMove), a.BestValue)
	fmt.Printf("Rating:  %s (lost %g)\n", a.Skill, a.Loss)
	if a.IsForced {
		fmt.Println("Forced move")
	}
}

// randomPositions plays random games from the start and collects the
// positions reached, skipping finished ones.
func randomPositions(n int, rng *rand.Rand) []engine.Board {
	var out []engine.Board
	for len(out) < n {
		g := engine.NewGame(engine.Player)
		g.MaxPlies = 1 + rng.Intn(20)
		for !g.Over() {
			moves := g.LegalMoves()
			if err := g.Play(moves[rng.Intn(len(moves))]); err != nil {
				fatal("%v", err)
			}
		}
		if g.Result == engine.ResultDraw {
			out = append(out, g.Board)
		}
	}
	return out
}

func cmdBench(args []string) {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	depth := fs.Int("depth", 3, "Search depth")
	positions := fs.Int("positions", 50, "Number of random positions")
	seed := fs.Int64("seed", 1, "Random seed for the positions")
	noCache := fs.Bool("no-cache", false, "Disable the mobility cache")
	verbose := fs.Bool("v", false, "Debug logging")
	fs.Parse(args)
	setupLogging(*verbose)

	opts := engine.DefaultEngineOptions()
	if *noCache {
		opts.CacheSize = -1
	}
	e, err := engine.NewEngine(opts)
	if err != nil {
		fatal("%v", err)
	}

	boards := randomPositions(*positions, rand.New(rand.NewSource(*seed)))
	times := make([]float64, len(boards))
	var nodes int64
	start := time.Now()
	for i, b := range boards {
		t0 := time.Now()
		r := e.Search(b, engine.SideToMove(i%2 == 0), *depth)
		times[i] = float64(time.Since(t0).Microseconds()) / 1000
		nodes += r.Nodes
	}
	elapsed := time.Since(start)

	mean, sd := stat.MeanStdDev(times, nil)
	fmt.Printf("Depth %d over %d positions: %s\n", *depth, len(boards), elapsed.Round(time.Millisecond))
	fmt.Printf("  Nodes:       %d (%.0f/s)\n", nodes, float64(nodes)/elapsed.Seconds())
	fmt.Printf("  Per search:  %.2fms ± %.2fms\n", mean, sd)
	if c := e.Cache(); c != nil {
		lookups, hits, _ := c.Stats()
		fmt.Printf("  Cache:       %d lookups, %d hits (%.1f%%)\n", lookups, hits, c.HitRate()*100)
	}
}

func cmdSelfPlay(args []string) {
	fs := flag.NewFlagSet("selfplay", flag.ExitOnError)
	def := engine.DefaultTournamentOptions()
	games := fs.Int("games", def.Games, "Number of games")
	workers := fs.Int("workers", 0, "Number of worker goroutines (0 = auto)")
	seed := fs.Int64("seed", 0, "Random seed (0 = random)")
	player := fs.String("player", def.PlayerDifficulty.String(), "Player side difficulty")
	cpu := fs.String("cpu", def.CpuDifficulty.String(), "Cpu side difficulty")
	maxPlies := fs.Int("max-plies", def.MaxPlies, "Ply cap per game (draw when reached)")
	parquetOut := fs.String("parquet", "", "Write one row per ply to this Parquet file")
	recordOut := fs.String("record", "", "Write the games to this text record")
	verbose := fs.Bool("v", false, "Debug logging")
	fs.Parse(args)
	setupLogging(*verbose)

	opts := engine.TournamentOptions{
		Games:     *games,
		Workers:   *workers,
		Seed:      *seed,
		MaxPlies:  *maxPlies,
		KeepGames: *parquetOut != "" || *recordOut != "",
	}
	var err error
	if opts.PlayerDifficulty, err = engine.ParseDifficulty(*player); err != nil {
		fatal("%v", err)
	}
	if opts.CpuDifficulty, err = engine.ParseDifficulty(*cpu); err != nil {
		fatal("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := createEngine("")
	result, err := e.Tournament(ctx, opts, func(p engine.TournamentProgress) {
		if p.GamesCompleted%10 == 0 || p.GamesCompleted == p.GamesTotal {
			log.Info().
				Int("done", p.GamesCompleted).
				Int("total", p.GamesTotal).
				Float64("cpu-score", p.CpuScore).
				Msg("selfplay-progress")
		}
	})
	if err != nil {
		fatal("tournament: %v", err)
	}

	fmt.Printf("%d games, %s (cpu %s vs player %s, seed %d):\n",
		result.Games, result.Elapsed.Round(time.Millisecond), opts.CpuDifficulty, opts.PlayerDifficulty, result.Seed)
	fmt.Printf("  Cpu wins:    %d\n", result.CpuWins)
	fmt.Printf("  Player wins: %d\n", result.PlayerWins)
	fmt.Printf("  Draws:       %d\n", result.Draws)
	fmt.Printf("  Cpu score:   %.3f ± %.3f (95%% CI)\n", result.CpuScore, result.CpuScoreCI)
	fmt.Printf("  Game length: %.1f ± %.1f plies (longest %d)\n", result.MeanPlies, result.PliesStdDev, result.LongestGame)

	if !opts.KeepGames {
		return
	}
	m := match.NewMatch("lgengine "+opts.PlayerDifficulty.String(), "lgengine "+opts.CpuDifficulty.String())
	m.Date = time.Now().Format("2006-01-02")
	m.Event = fmt.Sprintf("selfplay seed %d", result.Seed)
	for _, g := range result.Records {
		m.AddSession(g)
	}

	if *recordOut != "" {
		f, err := os.Create(*recordOut)
		if err != nil {
			fatal("%v", err)
		}
		if err := match.ExportText(f, m); err != nil {
			f.Close()
			fatal("write record: %v", err)
		}
		if err := f.Close(); err != nil {
			fatal("%v", err)
		}
		log.Info().Str("path", *recordOut).Int("games", len(m.Games)).Msg("record-written")
	}
	if *parquetOut != "" {
		if err := match.WriteParquet(*parquetOut, m); err != nil {
			fatal("%v", err)
		}
		log.Info().Str("path", *parquetOut).Msg("parquet-written")
	}
}

func printReview(g *match.Game, depth int) {
	e := createEngine("")
	r, err := e.ReviewGame(g.Start, g.First, g.Moves, engine.ReviewOptions{Depth: depth})
	if err != nil {
		fatal("game %d: %v", g.Number, err)
	}
	for _, sr := range []engine.SideReview{r.Player, r.Cpu} {
		fmt.Printf("  %-6s %2d moves (%d forced), lost %g (%.2f/move), %d blunders, %d errors, %d doubtful: %s\n",
			sr.Side, sr.Moves, sr.Forced, sr.TotalLoss, sr.LossPerMove, sr.Blunders, sr.Errors, sr.Doubtful, sr.Rating)
	}
	for _, d := range r.Errors {
		fmt.Printf("    ply %3d %-6s %-20s best %-20s -%g %s\n", d.Ply, d.Side, d.Played, d.Best, d.Loss, d.Skill.Abbr())
	}
}

func cmdReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	recordIn := fs.String("record", "", "Text record to replay")
	parquetIn := fs.String("parquet", "", "Parquet export to summarize")
	review := fs.Bool("review", false, "Rate every move of a text record")
	depth := fs.Int("depth", engine.DefaultReviewOptions().Depth, "Review depth")
	verbose := fs.Bool("v", false, "Show every position")
	fs.Parse(args)
	setupLogging(false)

	switch {
	case *recordIn != "":
		f, err := os.Open(*recordIn)
		if err != nil {
			fatal("%v", err)
		}
		defer f.Close()
		m, err := match.ImportText(f)
		if err != nil {
			fatal("%v", err)
		}
		player, cpu, draws := m.Score()
		fmt.Printf("%s (player) vs %s (cpu): %d-%d, %d drawn\n", m.Player, m.Cpu, player, cpu, draws)
		for _, g := range m.Games {
			s, err := g.Replay()
			if err != nil {
				fatal("%v", err)
			}
			fmt.Printf("Game %d: %d plies, %s first, result %s\n", g.Number, len(g.Moves), g.First, g.Result)
			if *verbose {
				fmt.Print(s.Board)
			}
			if *review {
				printReview(g, *depth)
			}
		}

	case *parquetIn != "":
		rows, err := match.ReadParquet(*parquetIn)
		if err != nil {
			fatal("%v", err)
		}
		games := map[string]bool{}
		var sb strings.Builder
		for _, r := range rows {
			games[r.GameID] = true
			if *verbose {
				fmt.Fprintf(&sb, "%s %3d %-6s %s %s\n", r.GameID, r.Ply, r.Side, r.Grid, r.Move)
			}
		}
		fmt.Print(sb.String())
		fmt.Printf("%d plies over %d games\n", len(rows), len(games))

	default:
		fmt.Fprintln(os.Stderr, "Usage: lgengine replay -record <file> | -parquet <file>")
		os.Exit(1)
	}
}
