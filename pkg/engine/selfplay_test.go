package engine

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayGame(t *testing.T) {
	e := newTestEngine(t)
	g, err := e.PlayGame(context.Background(), GameConfig{
		Start:            StartingBoard(),
		First:            Player,
		PlayerDifficulty: Easy,
		CpuDifficulty:    Easy,
		MaxPlies:         30,
	}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	assert.True(t, g.Over())
	assert.LessOrEqual(t, g.Plies(), 30)

	replayed, err := Replay(g.Start, g.First, g.History)
	require.NoError(t, err)
	assert.Equal(t, g.Board, replayed.Board)
}

func TestPlayGameInvalidStart(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.PlayGame(context.Background(), GameConfig{}, nil)
	assert.ErrorIs(t, err, ErrInvalidBoard)
}

func TestTournament(t *testing.T) {
	e := newTestEngine(t)
	opts := TournamentOptions{
		Games:            6,
		Workers:          3,
		Seed:             12345,
		PlayerDifficulty: Easy,
		CpuDifficulty:    Easy,
		MaxPlies:         20,
		KeepGames:        true,
	}

	var updates []TournamentProgress
	result, err := e.Tournament(context.Background(), opts, func(p TournamentProgress) {
		updates = append(updates, p)
	})
	require.NoError(t, err)

	assert.Equal(t, 6, result.Games)
	assert.Equal(t, 6, result.CpuWins+result.PlayerWins+result.Draws)
	assert.GreaterOrEqual(t, result.CpuScore, 0.0)
	assert.LessOrEqual(t, result.CpuScore, 1.0)
	assert.LessOrEqual(t, result.LongestGame, 20)
	assert.GreaterOrEqual(t, result.CpuScoreCI, 0.0)
	require.Len(t, result.Records, 6)

	// Alternating first mover.
	assert.Equal(t, Player, result.Records[0].First)
	assert.Equal(t, Cpu, result.Records[1].First)

	require.Len(t, updates, 6)
	assert.Equal(t, 6, updates[5].GamesCompleted)
	assert.Equal(t, 100.0, updates[5].Percent)

	// Per-game seeding makes the outcome independent of the worker count.
	opts.Workers = 1
	again, err := e.Tournament(context.Background(), opts, nil)
	require.NoError(t, err)
	assert.Equal(t, result.CpuWins, again.CpuWins)
	assert.Equal(t, result.PlayerWins, again.PlayerWins)
	assert.Equal(t, result.MeanPlies, again.MeanPlies)
}

func TestTournamentCancelled(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Tournament(ctx, TournamentOptions{Games: 4, Seed: 1}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregateGames(t *testing.T) {
	games := []*Game{
		{Result: ResultCpu, History: make([]Move, 10)},
		{Result: ResultPlayer, History: make([]Move, 20)},
		{Result: ResultDraw, History: make([]Move, 30)},
		{Result: ResultCpu, History: make([]Move, 40)},
	}

	r := aggregateGames(games)
	assert.Equal(t, 2, r.CpuWins)
	assert.Equal(t, 1, r.PlayerWins)
	assert.Equal(t, 1, r.Draws)
	assert.InDelta(t, 0.625, r.CpuScore, 1e-9)
	assert.InDelta(t, 25.0, r.MeanPlies, 1e-9)
	assert.Equal(t, 40, r.LongestGame)
	assert.Positive(t, r.CpuScoreCI)
}
