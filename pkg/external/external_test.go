package external

import (
	"bufio"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/lgengine/pkg/engine"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

const (
	startGrid = ".PPT/.PC./.PC./TCC."
	boxedGrid = "PPP./PCCC/TC../.T.."
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := engine.NewEngine(engine.DefaultEngineOptions())
	require.NoError(t, err)
	opts := DefaultServerOptions()
	opts.Host = "127.0.0.1"
	opts.Port = 0
	opts.PromptEnabled = false
	return NewServer(eng, opts)
}

func TestProcessCommand(t *testing.T) {
	s := newTestServer(t)
	sess := s.newSession()

	tests := []struct {
		cmd    string
		prefix string
	}{
		{"version", Version},
		{"help", "Available commands:"},
		{"eval", "0 5 5"},
		{"moves", "moves 65\n"},
		{"set difficulty easy", "difficulty set to easy"},
		{"set difficulty brutal", "Error:"},
		{"set seed 42", "seed set to 42"},
		{"set seed x", "Error:"},
		{"set", "Error:"},
		{"set colour red", "Error: unknown option"},
		{"position", "Error:"},
		{"position nonsense", "Error:"},
		{"position start nobody", "Error:"},
		{"play", "Error:"},
		{"play zz", "Error:"},
		{"frobnicate", "Error: unknown command"},
	}
	for _, tc := range tests {
		t.Run(tc.cmd, func(t *testing.T) {
			resp, quit := s.processCommand(sess, tc.cmd)
			assert.True(t, strings.HasPrefix(resp, tc.prefix), "got %q", resp)
			assert.True(t, strings.HasSuffix(resp, "\n"))
			assert.False(t, quit)
		})
	}

	resp, quit := s.processCommand(sess, "exit")
	assert.Equal(t, "Goodbye\n", resp)
	assert.True(t, quit)
}

func TestPositionAndPlay(t *testing.T) {
	s := newTestServer(t)
	sess := s.newSession()

	resp, _ := s.processCommand(sess, "position start player")
	assert.Equal(t, "ok "+startGrid+" player\n", resp)

	resp, _ = s.processCommand(sess, "play a1a2a3b3 d1-d2")
	assert.Equal(t, "ok P.../P.CT/PPC./TCC. cpu\n", resp)
	assert.Equal(t, engine.Cpu, sess.turn)

	// The Cpu cannot replay the Player's move.
	resp, _ = s.processCommand(sess, "play a1a2a3b3")
	assert.True(t, strings.HasPrefix(resp, "Error:"), resp)

	resp, _ = s.processCommand(sess, "show")
	assert.True(t, strings.HasSuffix(resp, "cpu to move\n"), resp)
}

func TestGo(t *testing.T) {
	s := newTestServer(t)
	sess := s.newSession()

	s.processCommand(sess, "set difficulty hard")
	resp, _ := s.processCommand(sess, "go")
	require.True(t, strings.HasPrefix(resp, "bestmove "), resp)

	// The suggested move is legal for the side to move.
	notation, _, found := strings.Cut(strings.TrimPrefix(resp, "bestmove "), " score ")
	require.True(t, found, resp)
	move, err := engine.ParseMove(notation, engine.Cpu)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, engine.FindMove(engine.GenerateMoves(sess.board, engine.Cpu), move), 0)

	// Player is stuck: no move.
	s.processCommand(sess, "position "+boxedGrid+" player")
	resp, _ = s.processCommand(sess, "go")
	assert.True(t, strings.HasPrefix(resp, "bestmove none score 100 "), resp)
}

func TestPlayWinningMove(t *testing.T) {
	s := newTestServer(t)
	sess := s.newSession()

	resp, _ := s.processCommand(sess, "position "+boxedGrid+" cpu")
	require.True(t, strings.HasPrefix(resp, "ok "), resp)

	// Depth 1 finds the win; play it and check the server reports it.
	d := s.engine.Search(sess.board, engine.Cpu, 1)
	require.NotNil(t, d.BestMove)
	require.Equal(t, engine.WinScore, d.Score)
	resp, _ = s.processCommand(sess, "play "+engine.FormatMove(*d.BestMove))
	assert.True(t, strings.HasSuffix(resp, "cpu wins\n"), resp)
}

func TestServerTCP(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Error(t, s.Start(), "second start must fail")

	conn, err := net.DialTimeout("tcp", s.Addr().String(), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(10*time.Second)))

	r := bufio.NewReader(conn)
	send := func(cmd string) string {
		_, err := conn.Write([]byte(cmd + "\n"))
		require.NoError(t, err)
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		return line
	}

	assert.Equal(t, Version+"\n", send("version"))
	assert.Equal(t, "0 5 5\n", send("eval"))
	assert.Equal(t, "difficulty set to medium\n", send("set difficulty medium"))
	assert.True(t, strings.HasPrefix(send("go"), "bestmove "))
	assert.Equal(t, "Goodbye\n", send("exit"))

	_, err = r.ReadString('\n')
	assert.Error(t, err, "server closes the connection after exit")

	require.NoError(t, s.Stop())
	assert.Nil(t, s.Addr())
	require.NoError(t, s.Stop())
}

func TestStartRejectsBadDifficulty(t *testing.T) {
	s := newTestServer(t)
	s.options.Difficulty = "brutal"
	assert.ErrorIs(t, s.Start(), engine.ErrInvalidDifficulty)
}
