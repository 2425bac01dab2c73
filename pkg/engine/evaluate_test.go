package engine

import (
	"context"
	"math/rand"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultEngineOptions())
	require.NoError(t, err)
	return e
}

func TestNewEngineOptions(t *testing.T) {
	e, err := NewEngine(EngineOptions{Difficulty: "hard", CacheSize: -1})
	require.NoError(t, err)
	assert.Equal(t, Hard, e.Difficulty())
	assert.Nil(t, e.Cache())

	e, err = NewEngine(EngineOptions{})
	require.NoError(t, err)
	assert.Equal(t, Medium, e.Difficulty())
	assert.NotNil(t, e.Cache())

	_, err = NewEngine(EngineOptions{Difficulty: "impossible"})
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestDifficultyParams(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		random float64
		jitter float64
	}{
		{"easy", 1, 0.7, 2},
		{"medium", 2, 0.4, 1},
		{"hard", 3, 0.2, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := ParseDifficulty(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.name, d.String())
			assert.Equal(t, tc.depth, d.Depth())
			assert.Equal(t, tc.random, d.RandomMoveProbability())
			assert.Equal(t, tc.jitter, d.Jitter())

			text, err := d.MarshalText()
			require.NoError(t, err)
			var back Difficulty
			require.NoError(t, back.UnmarshalText(text))
			assert.Equal(t, d, back)
		})
	}

	_, err := ParseDifficulty("")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestEngineEvaluate(t *testing.T) {
	e := newTestEngine(t)
	for _, b := range randomBoards(t, 30, 9) {
		assert.Equal(t, float64(Mobility(b, Cpu)-Mobility(b, Player)), e.Evaluate(b))
	}
}

func TestEngineCacheIsTransparent(t *testing.T) {
	cached := newTestEngine(t)
	uncached, err := NewEngine(EngineOptions{CacheSize: -1})
	require.NoError(t, err)

	for _, b := range randomBoards(t, 8, 13) {
		for _, side := range []Side{Player, Cpu} {
			if Mobility(b, side) == 0 {
				continue
			}
			a := cached.Search(b, side, 2)
			c := uncached.Search(b, side, 2)
			assert.Equal(t, c.Score, a.Score)
			assert.Equal(t, c.Nodes, a.Nodes)
		}
	}

	lookups, hits, adds := cached.Cache().Stats()
	assert.Positive(t, lookups)
	assert.Positive(t, hits)
	assert.Positive(t, adds)
	assert.Greater(t, cached.Cache().HitRate(), 0.0)
}

func TestMobilityCacheLookup(t *testing.T) {
	c := NewMobilityCache(16)
	b := StartingBoard()
	key := b.Key()

	_, slot := c.Lookup(key, Cpu)
	require.NotEqual(t, CacheHit, slot)
	c.Add(key, Cpu, 5, slot)

	n, slot := c.Lookup(key, Cpu)
	assert.Equal(t, CacheHit, slot)
	assert.Equal(t, 5, n)

	// Same position, other side: separate entry.
	_, slot = c.Lookup(key, Player)
	assert.NotEqual(t, CacheHit, slot)

	c.Flush()
	_, slot = c.Lookup(key, Cpu)
	assert.NotEqual(t, CacheHit, slot)
}

func TestBestMoveNoMove(t *testing.T) {
	e := newTestEngine(t)
	b := mustBoard(t, boxedGrid)

	d, err := e.BestMove(context.Background(), b, Player, Hard, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Nil(t, d.Move)
	assert.Equal(t, WinScore, d.Score)
	assert.False(t, d.Random)
}

func TestBestMoveCancelled(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.BestMove(ctx, StartingBoard(), Cpu, Easy, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBestMoveInvalidDifficulty(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.BestMove(context.Background(), StartingBoard(), Cpu, Difficulty(9), nil)
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestBestMoveDeterministicWithSeed(t *testing.T) {
	e := newTestEngine(t)
	b := StartingBoard()

	for _, d := range []Difficulty{Easy, Medium, Hard} {
		a, err := e.BestMove(context.Background(), b, Cpu, d, rand.New(rand.NewSource(42)))
		require.NoError(t, err)
		c, err := e.BestMove(context.Background(), b, Cpu, d, rand.New(rand.NewSource(42)))
		require.NoError(t, err)

		require.NotNil(t, a.Move)
		assert.True(t, a.Move.Equal(*c.Move), d.String())
		assert.Equal(t, a.Random, c.Random)
		assert.Equal(t, d.Depth(), a.Depth)
		assert.GreaterOrEqual(t, FindMove(GenerateMoves(b, Cpu), *a.Move), 0)
	}
}

func TestBestMoveRandomEitherSide(t *testing.T) {
	e := newTestEngine(t)
	b := StartingBoard()

	// Random substitution is not limited to Cpu: an engine playing Player
	// at easy also swaps in random moves, and those are Player moves.
	for _, side := range []Side{Player, Cpu} {
		random := 0
		for seed := int64(1); seed <= 40; seed++ {
			d, err := e.BestMove(context.Background(), b, side, Easy, rand.New(rand.NewSource(seed)))
			require.NoError(t, err)
			require.NotNil(t, d.Move)
			assert.Equal(t, side, d.Move.Side)
			assert.GreaterOrEqual(t, FindMove(GenerateMoves(b, side), *d.Move), 0)
			if d.Random {
				random++
			}
		}
		assert.Greater(t, random, 0, side.String())
		assert.Less(t, random, 40, side.String())
	}
}

func TestBestMoveHardMatchesSearch(t *testing.T) {
	e := newTestEngine(t)
	b := StartingBoard()
	want := Search(b, Hard.Depth(), negInf, posInf, false)

	// Hard has no jitter, so the search score is exact whether or not the
	// move was substituted.
	for seed := int64(1); seed <= 5; seed++ {
		d, err := e.BestMove(context.Background(), b, Player, Hard, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		assert.Equal(t, want.Score, d.Score)
		if !d.Random {
			assert.True(t, d.Move.Equal(*want.BestMove))
		}
	}
}

func TestBestMoveRandomRate(t *testing.T) {
	e := newTestEngine(t)
	rng := rand.New(rand.NewSource(99))
	b := StartingBoard()

	const trials = 300
	random := 0
	for i := 0; i < trials; i++ {
		d, err := e.BestMove(context.Background(), b, Cpu, Easy, rng)
		require.NoError(t, err)
		if d.Random {
			random++
		}
	}

	rate := float64(random) / trials
	assert.InDelta(t, Easy.RandomMoveProbability(), rate, 0.12)
}
