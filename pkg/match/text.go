package match

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/lgengine/pkg/engine"
)

// Text record format. Example:
//
//	; [Player "alice"]
//	; [Cpu "lgengine hard"]
//	; [Date "2025-01-31"]
//
//	Game 1
//	Start .PPT/.PC./.PC./TCC. player
//	  1) a1a2a3b3 d1-d2       b4c4d4d3
//	Result none
//
// Each numbered line holds one move of the first mover and, separated by
// three or more spaces, the reply.

var (
	gameHeaderRE = regexp.MustCompile(`^Game\s+(\d+)$`)
	startLineRE  = regexp.MustCompile(`^Start\s+(\S+)\s+(\w+)$`)
	resultLineRE = regexp.MustCompile(`^Result\s+(\w+)$`)
	moveLineRE   = regexp.MustCompile(`^\s*(\d+)\)`)
	tagRE        = regexp.MustCompile(`\[(\w+)\s+"([^"]*)"\]`)
	halvesRE     = regexp.MustCompile(`\s{3,}`)
)

// ImportText reads a match in text format. Every game is replayed so an
// illegal move is reported with its game and ply.
func ImportText(r io.Reader) (*Match, error) {
	scanner := bufio.NewScanner(r)
	match := &Match{
		Games: make([]*Game, 0),
	}

	var currentGame *Game
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines
		if line == "" {
			continue
		}

		// Parse metadata comments
		if strings.HasPrefix(line, ";") {
			if m := tagRE.FindStringSubmatch(line); m != nil {
				value := m[2]
				switch strings.ToLower(m[1]) {
				case "player":
					match.Player = value
				case "cpu":
					match.Cpu = value
				case "event":
					match.Event = value
				case "date":
					match.Date = value
				case "comment":
					match.Comment = value
				}
			}
			continue
		}

		// Parse game header
		if m := gameHeaderRE.FindStringSubmatch(line); m != nil {
			gameNum, _ := strconv.Atoi(m[1])
			currentGame = NewGame(gameNum, engine.Player)
			match.Games = append(match.Games, currentGame)
			continue
		}

		if currentGame == nil {
			return nil, fmt.Errorf("line %d: %q outside a game", lineNo, line)
		}

		if m := startLineRE.FindStringSubmatch(line); m != nil {
			start, err := engine.ParseBoard(m[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			first, err := engine.ParseSide(m[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			currentGame.Start = start
			currentGame.First = first
			continue
		}

		if m := resultLineRE.FindStringSubmatch(line); m != nil {
			result, err := engine.ParseResult(m[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			currentGame.Result = result
			continue
		}

		if moveLineRE.MatchString(line) {
			if err := parseMoveLine(line, currentGame); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}

		return nil, fmt.Errorf("line %d: unrecognized %q", lineNo, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading match record: %w", err)
	}

	for _, g := range match.Games {
		if _, err := g.Replay(); err != nil {
			return nil, err
		}
	}

	return match, nil
}

// parseMoveLine parses "N) move   reply".
func parseMoveLine(line string, game *Game) error {
	// Remove the move number prefix
	parts := strings.SplitN(line, ")", 2)
	line = strings.TrimSpace(parts[1])
	if line == "" {
		return nil
	}

	for _, half := range halvesRE.Split(line, 2) {
		half = strings.TrimSpace(half)
		if half == "" {
			continue
		}
		move, err := engine.ParseMove(half, game.sideAt(len(game.Moves)))
		if err != nil {
			return err
		}
		game.Moves = append(game.Moves, move)
	}
	return nil
}

// ExportText writes a match in text format.
func ExportText(w io.Writer, match *Match) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "; [Player \"%s\"]\n", match.Player)
	fmt.Fprintf(bw, "; [Cpu \"%s\"]\n", match.Cpu)
	if match.Event != "" {
		fmt.Fprintf(bw, "; [Event \"%s\"]\n", match.Event)
	}
	if match.Date != "" {
		fmt.Fprintf(bw, "; [Date \"%s\"]\n", match.Date)
	}
	if match.Comment != "" {
		fmt.Fprintf(bw, "; [Comment \"%s\"]\n", match.Comment)
	}
	fmt.Fprintln(bw)

	for _, game := range match.Games {
		exportGameText(bw, game)
	}

	return bw.Flush()
}

// exportGameText writes a single game in text format.
func exportGameText(w io.Writer, game *Game) {
	fmt.Fprintf(w, "Game %d\n", game.Number)
	fmt.Fprintf(w, "Start %s %s\n", game.Start.Grid(), game.First)

	for i := 0; i < len(game.Moves); i += 2 {
		fmt.Fprintf(w, "%3d) %-20s", i/2+1, engine.FormatMove(game.Moves[i]))
		if i+1 < len(game.Moves) {
			fmt.Fprintf(w, "   %s", engine.FormatMove(game.Moves[i+1]))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Result %s\n\n", game.Result)
}
