package engine

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// RolloutOptions controls rollout execution
type RolloutOptions struct {
	Trials     int        // Number of games to simulate (default 200)
	Truncate   int        // Plies per trial before it counts as a draw (0 = DefaultMaxPlies)
	Seed       int64      // RNG seed (0 = random)
	Workers    int        // Number of parallel workers (0 = GOMAXPROCS)
	Difficulty Difficulty // Strength both sides play the trials at
}

// RolloutProgress contains progress information during a rollout
type RolloutProgress struct {
	TrialsCompleted int     // Number of trials completed so far
	TrialsTotal     int     // Total number of trials
	Percent         float64 // Percentage complete (0-100)
	CurrentScore    float64 // Current score estimate
	CurrentCI       float64 // Current 95% confidence interval
}

// ProgressCallback is called periodically during rollout with progress updates
type ProgressCallback func(progress RolloutProgress)

// RolloutResult contains the results of a rollout, from the point of view
// of the side to move at the rolled out position.
type RolloutResult struct {
	Score       float64 // Mean score: win 1, draw 0.5, loss 0
	ScoreStdDev float64
	ScoreCI     float64 // 95% confidence interval half-width

	TrialsCompleted int
	Wins            int
	Draws           int
	Losses          int
	MeanPlies       float64
}

// partialResult holds results from a single worker batch
type partialResult struct {
	scores   []float64
	sumPlies float64
	wins     int
	draws    int
	losses   int
}

// DefaultRolloutOptions returns sensible defaults
func DefaultRolloutOptions() RolloutOptions {
	return RolloutOptions{
		Trials:     200,
		Truncate:   DefaultMaxPlies,
		Difficulty: Easy,
	}
}

// Rollout estimates how well side does from board by playing opts.Trials
// games to the end at opts.Difficulty.
func (e *Engine) Rollout(ctx context.Context, board Board, side Side, opts RolloutOptions) (*RolloutResult, error) {
	return e.RolloutWithProgress(ctx, board, side, opts, nil)
}

// RolloutWithProgress performs a rollout with periodic progress callbacks.
// The callback is called after each batch of trials completes.
func (e *Engine) RolloutWithProgress(ctx context.Context, board Board, side Side, opts RolloutOptions, callback ProgressCallback) (*RolloutResult, error) {
	if err := board.Validate(); err != nil {
		return nil, err
	}
	if opts.Trials <= 0 {
		opts.Trials = DefaultRolloutOptions().Trials
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Workers > opts.Trials {
		opts.Workers = opts.Trials
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Int63()
	}
	if !opts.Difficulty.valid() {
		return nil, ErrInvalidDifficulty
	}

	// Report progress approximately 20 times during the rollout
	batchSize := opts.Trials / 20
	if batchSize > opts.Trials/opts.Workers {
		batchSize = opts.Trials / opts.Workers
	}
	if batchSize < 1 {
		batchSize = 1
	}

	results := make(chan partialResult, opts.Workers*20)
	var wg sync.WaitGroup

	trialsPerWorker := opts.Trials / opts.Workers
	extraTrials := opts.Trials % opts.Workers

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		workerTrials := trialsPerWorker
		if i < extraTrials {
			workerTrials++
		}
		workerSeed := opts.Seed + int64(i)*1000000

		go func(trials int, seed int64) {
			defer wg.Done()
			e.rolloutWorker(ctx, board, side, opts, trials, seed, batchSize, results)
		}(workerTrials, workerSeed)
	}

	// Close channel when all workers done
	go func() {
		wg.Wait()
		close(results)
	}()

	result := aggregateRollout(results, opts.Trials, callback)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// rolloutWorker plays trials and reports them in batches
func (e *Engine) rolloutWorker(ctx context.Context, board Board, side Side, opts RolloutOptions, trials int, seed int64, batchSize int, results chan<- partialResult) {
	rng := rand.New(rand.NewSource(seed))
	cfg := GameConfig{
		Start:            board,
		First:            side,
		PlayerDifficulty: opts.Difficulty,
		CpuDifficulty:    opts.Difficulty,
		MaxPlies:         opts.Truncate,
	}

	for trialsRemaining := trials; trialsRemaining > 0; {
		currentBatch := batchSize
		if currentBatch > trialsRemaining {
			currentBatch = trialsRemaining
		}

		pr := partialResult{scores: make([]float64, 0, currentBatch)}
		for i := 0; i < currentBatch; i++ {
			if ctx.Err() != nil {
				return
			}
			g, err := e.PlayGame(ctx, cfg, rng)
			if err != nil {
				return
			}

			score := 0.5
			if winner, ok := g.Result.Winner(); ok {
				score = 0
				if winner == side {
					score = 1
				}
			}
			switch score {
			case 1:
				pr.wins++
			case 0:
				pr.losses++
			default:
				pr.draws++
			}
			pr.scores = append(pr.scores, score)
			pr.sumPlies += float64(g.Plies())
		}

		results <- pr
		trialsRemaining -= currentBatch
	}
}

// aggregateRollout combines worker batches and calls the progress callback
func aggregateRollout(results <-chan partialResult, totalTrials int, callback ProgressCallback) *RolloutResult {
	var sum partialResult
	for pr := range results {
		sum.scores = append(sum.scores, pr.scores...)
		sum.sumPlies += pr.sumPlies
		sum.wins += pr.wins
		sum.draws += pr.draws
		sum.losses += pr.losses

		if callback != nil && len(sum.scores) > 0 {
			n := float64(len(sum.scores))
			mean, sd := scoreStats(sum.scores)
			callback(RolloutProgress{
				TrialsCompleted: len(sum.scores),
				TrialsTotal:     totalTrials,
				Percent:         n / float64(totalTrials) * 100,
				CurrentScore:    mean,
				CurrentCI:       1.96 * sd / math.Sqrt(n),
			})
		}
	}

	result := &RolloutResult{
		TrialsCompleted: len(sum.scores),
		Wins:            sum.wins,
		Draws:           sum.draws,
		Losses:          sum.losses,
	}
	if n := float64(len(sum.scores)); n > 0 {
		result.Score, result.ScoreStdDev = scoreStats(sum.scores)
		result.MeanPlies = sum.sumPlies / n

		// 95% confidence interval = 1.96 * stdErr = 1.96 * stdDev / sqrt(n)
		result.ScoreCI = 1.96 * result.ScoreStdDev / math.Sqrt(n)
	}
	return result
}

// scoreStats returns the mean and sample standard deviation of trial
// scores. Batches arrive in any order; sorting first keeps the result
// independent of scheduling.
func scoreStats(scores []float64) (mean, stdDev float64) {
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	mean, stdDev = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		stdDev = 0
	}
	return mean, stdDev
}

// MoveRollout is one candidate move with its rollout.
type MoveRollout struct {
	Move    Move
	Rollout *RolloutResult // From the mover's point of view
}

// RolloutMoves rolls out the n best moves at depth (all moves when n <= 0)
// and returns them ordered by rollout score, best first.
func (e *Engine) RolloutMoves(ctx context.Context, board Board, side Side, depth, n int, opts RolloutOptions) ([]MoveRollout, error) {
	candidates := e.RankMoves(board, side, depth, n)

	out := make([]MoveRollout, 0, len(candidates))
	for _, c := range candidates {
		child := ApplyMove(board, c.Move)
		r, err := e.Rollout(ctx, child, side.Opponent(), opts)
		if err != nil {
			return nil, err
		}
		// The opponent moves next; flip to the mover's view.
		r.Score = 1 - r.Score
		r.Wins, r.Losses = r.Losses, r.Wins
		out = append(out, MoveRollout{Move: c.Move, Rollout: r})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rollout.Score > out[j].Rollout.Score
	})
	return out, nil
}
