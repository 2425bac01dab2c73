package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GameConfig describes one engine-vs-engine game.
type GameConfig struct {
	Start            Board      // Starting position
	First            Side       // Side to move first
	PlayerDifficulty Difficulty // Difficulty of the engine playing Player
	CpuDifficulty    Difficulty // Difficulty of the engine playing Cpu
	MaxPlies         int        // Ply cap (0 = DefaultMaxPlies)
}

// PlayGame plays one game with the engine on both sides.
func (e *Engine) PlayGame(ctx context.Context, cfg GameConfig, rng *rand.Rand) (*Game, error) {
	g, err := NewGameFrom(cfg.Start, cfg.First)
	if err != nil {
		return nil, err
	}
	if cfg.MaxPlies > 0 {
		g.MaxPlies = cfg.MaxPlies
	}

	for !g.Over() {
		difficulty := cfg.PlayerDifficulty
		if g.Turn == Cpu {
			difficulty = cfg.CpuDifficulty
		}

		d, err := e.BestMove(ctx, g.Board, g.Turn, difficulty, rng)
		if err != nil {
			return g, err
		}
		if d.Move == nil {
			// checkEnd already caught this; keep the loop finite regardless
			break
		}
		if err := g.Play(*d.Move); err != nil {
			return g, fmt.Errorf("engine produced %s: %w", d.Move, err)
		}
	}
	return g, nil
}

// TournamentOptions controls a self-play tournament
type TournamentOptions struct {
	Games            int        // Number of games (default 100)
	Workers          int        // Parallel workers (0 = GOMAXPROCS)
	Seed             int64      // RNG seed (0 = random)
	PlayerDifficulty Difficulty // Engine strength on the Player side
	CpuDifficulty    Difficulty // Engine strength on the Cpu side
	MaxPlies         int        // Ply cap per game (0 = DefaultMaxPlies)
	KeepGames        bool       // Return every finished game in the result
}

// DefaultTournamentOptions returns sensible defaults
func DefaultTournamentOptions() TournamentOptions {
	return TournamentOptions{
		Games:            100,
		PlayerDifficulty: Medium,
		CpuDifficulty:    Hard,
		MaxPlies:         DefaultMaxPlies,
	}
}

// TournamentProgress contains progress information during a tournament
type TournamentProgress struct {
	GamesCompleted int     // Number of games finished so far
	GamesTotal     int     // Total number of games
	Percent        float64 // Percentage complete (0-100)
	CpuWins        int
	PlayerWins     int
	Draws          int
	CpuScore       float64 // Mean Cpu score so far (win 1, draw 0.5)
}

// TournamentProgressCallback is called after every finished game. Calls are
// serialized.
type TournamentProgressCallback func(progress TournamentProgress)

// TournamentResult contains the results of a tournament
type TournamentResult struct {
	Games      int
	CpuWins    int
	PlayerWins int
	Draws      int

	CpuScore       float64 // Mean Cpu score (win 1, draw 0.5, loss 0)
	CpuScoreStdDev float64
	CpuScoreCI     float64 // 95% confidence interval half-width

	MeanPlies   float64
	PliesStdDev float64
	LongestGame int

	Seed    int64
	Elapsed time.Duration
	Records []*Game // Finished games, in game order, when KeepGames is set
}

// cpuScore maps a result to the Cpu's score.
func cpuScore(r Result) float64 {
	switch r {
	case ResultCpu:
		return 1
	case ResultDraw:
		return 0.5
	}
	return 0
}

// Tournament plays opts.Games engine-vs-engine games from the starting
// position, alternating the first mover. Game i is seeded with
// Seed + i*1000000 so results do not depend on the worker count.
func (e *Engine) Tournament(ctx context.Context, opts TournamentOptions, progress TournamentProgressCallback) (*TournamentResult, error) {
	if opts.Games <= 0 {
		opts.Games = 100
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Int63()
	}

	start := time.Now()
	games := make([]*Game, opts.Games)

	var (
		mu       sync.Mutex
		snapshot = TournamentProgress{GamesTotal: opts.Games}
		scoreSum float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i := 0; i < opts.Games; i++ {
		i := i
		g.Go(func() error {
			first := Player
			if i%2 == 1 {
				first = Cpu
			}
			rng := rand.New(rand.NewSource(opts.Seed + int64(i)*1000000))

			game, err := e.PlayGame(gctx, GameConfig{
				Start:            StartingBoard(),
				First:            first,
				PlayerDifficulty: opts.PlayerDifficulty,
				CpuDifficulty:    opts.CpuDifficulty,
				MaxPlies:         opts.MaxPlies,
			}, rng)
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			games[i] = game

			mu.Lock()
			defer mu.Unlock()
			snapshot.GamesCompleted++
			switch game.Result {
			case ResultCpu:
				snapshot.CpuWins++
			case ResultPlayer:
				snapshot.PlayerWins++
			default:
				snapshot.Draws++
			}
			scoreSum += cpuScore(game.Result)
			snapshot.CpuScore = scoreSum / float64(snapshot.GamesCompleted)
			snapshot.Percent = float64(snapshot.GamesCompleted) / float64(opts.Games) * 100
			if progress != nil {
				progress(snapshot)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := aggregateGames(games)
	result.Seed = opts.Seed
	result.Elapsed = time.Since(start)
	if opts.KeepGames {
		result.Records = games
	}

	log.Info().
		Int("games", result.Games).
		Int("cpu_wins", result.CpuWins).
		Int("player_wins", result.PlayerWins).
		Int("draws", result.Draws).
		Float64("cpu_score", result.CpuScore).
		Dur("elapsed", result.Elapsed).
		Msg("tournament-done")

	return result, nil
}

// aggregateGames computes tournament statistics from finished games
func aggregateGames(games []*Game) *TournamentResult {
	result := &TournamentResult{Games: len(games)}
	if len(games) == 0 {
		return result
	}

	scores := make([]float64, len(games))
	plies := make([]float64, len(games))
	for i, g := range games {
		switch g.Result {
		case ResultCpu:
			result.CpuWins++
		case ResultPlayer:
			result.PlayerWins++
		default:
			result.Draws++
		}
		scores[i] = cpuScore(g.Result)
		plies[i] = float64(g.Plies())
	}

	result.CpuScore, result.CpuScoreStdDev = stat.MeanStdDev(scores, nil)
	result.MeanPlies, result.PliesStdDev = stat.MeanStdDev(plies, nil)
	result.LongestGame = int(floats.Max(plies))

	// A single game has no spread
	if len(games) < 2 {
		result.CpuScoreStdDev = 0
		result.PliesStdDev = 0
	}
	result.CpuScoreCI = 1.96 * result.CpuScoreStdDev / math.Sqrt(float64(len(games)))

	return result
}
