// Package main provides C-compatible functions for building a shared library.
// Build with: go build -buildmode=c-shared -o liblgengine.so ./pkg/capi
package main

/*
#include <stdlib.h>
#include <stdint.h>
*/
import "C"
import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"unsafe"

	"github.com/yourusername/lgengine/pkg/api"
	"github.com/yourusername/lgengine/pkg/engine"
)

var (
	globalEngine *engine.Engine
	engineMutex  sync.RWMutex
	lastError    string
	errorMutex   sync.Mutex
)

// setError stores an error message for later retrieval.
func setError(err error) {
	errorMutex.Lock()
	defer errorMutex.Unlock()
	if err != nil {
		lastError = err.Error()
	} else {
		lastError = ""
	}
}

func currentEngine() *engine.Engine {
	engineMutex.RLock()
	defer engineMutex.RUnlock()
	return globalEngine
}

// writeResult marshals v into *resultJSON.
func writeResult(v interface{}, resultJSON **C.char) C.int {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		setError(err)
		*resultJSON = C.CString(`{"error": "encoding failed"}`)
		return -1
	}
	*resultJSON = C.CString(string(jsonBytes))
	setError(nil)
	return 0
}

// parseArgs reads a position and a side, reporting failures through
// resultJSON.
func parseArgs(position, side *C.char, resultJSON **C.char) (engine.Board, engine.Side, bool) {
	board, err := engine.ParseBoard(C.GoString(position))
	if err != nil {
		setError(err)
		*resultJSON = C.CString(`{"error": "invalid position"}`)
		return board, engine.Cpu, false
	}
	s := engine.Cpu
	if side != nil {
		if s, err = engine.ParseSide(C.GoString(side)); err != nil {
			setError(err)
			*resultJSON = C.CString(`{"error": "invalid side"}`)
			return board, s, false
		}
	}
	return board, s, true
}

//export lgengine_version
func lgengine_version() *C.char {
	return C.CString("0.1.0")
}

//export lgengine_last_error
func lgengine_last_error() *C.char {
	errorMutex.Lock()
	defer errorMutex.Unlock()
	if lastError == "" {
		return nil
	}
	return C.CString(lastError)
}

//export lgengine_init
func lgengine_init(difficulty *C.char, cacheSize C.int) C.int {
	engineMutex.Lock()
	defer engineMutex.Unlock()

	opts := engine.DefaultEngineOptions()
	opts.CacheSize = int(cacheSize)
	if difficulty != nil {
		opts.Difficulty = C.GoString(difficulty)
	}

	eng, err := engine.NewEngine(opts)
	if err != nil {
		setError(err)
		return -1
	}

	globalEngine = eng
	setError(nil)
	return 0
}

//export lgengine_shutdown
func lgengine_shutdown() {
	engineMutex.Lock()
	defer engineMutex.Unlock()
	globalEngine = nil
}

//export lgengine_evaluate
func lgengine_evaluate(position *C.char, resultJSON **C.char) C.int {
	eng := currentEngine()
	if eng == nil {
		*resultJSON = C.CString(`{"error": "engine not initialized"}`)
		return -1
	}

	board, _, ok := parseArgs(position, nil, resultJSON)
	if !ok {
		return -1
	}

	mp := eng.Mobility(board, engine.Player)
	mc := eng.Mobility(board, engine.Cpu)
	return writeResult(api.EvaluateResponse{
		Position:       board.PositionID(),
		Grid:           board.Grid(),
		Score:          float64(mc - mp),
		MobilityPlayer: mp,
		MobilityCpu:    mc,
	}, resultJSON)
}

//export lgengine_moves
func lgengine_moves(position, side *C.char, resultJSON **C.char) C.int {
	board, s, ok := parseArgs(position, side, resultJSON)
	if !ok {
		return -1
	}

	moves := engine.GenerateMoves(board, s)
	resp := api.MovesResponse{
		Position: board.PositionID(),
		Grid:     board.Grid(),
		Side:     s.String(),
		Mobility: engine.Mobility(board, s),
		NumLegal: len(moves),
		Moves:    make([]api.MoveResponse, len(moves)),
	}
	for i, m := range moves {
		resp.Moves[i] = api.MoveToResponse(m)
	}
	return writeResult(resp, resultJSON)
}

//export lgengine_best_move
func lgengine_best_move(position, side, difficulty *C.char, seed C.int64_t, resultJSON **C.char) C.int {
	eng := currentEngine()
	if eng == nil {
		*resultJSON = C.CString(`{"error": "engine not initialized"}`)
		return -1
	}

	board, s, ok := parseArgs(position, side, resultJSON)
	if !ok {
		return -1
	}
	d := eng.Difficulty()
	if difficulty != nil {
		var err error
		if d, err = engine.ParseDifficulty(C.GoString(difficulty)); err != nil {
			setError(err)
			*resultJSON = C.CString(`{"error": "invalid difficulty"}`)
			return -1
		}
	}
	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewSource(int64(seed)))
	}

	decision, err := eng.BestMove(context.Background(), board, s, d, rng)
	if err != nil {
		setError(err)
		*resultJSON = C.CString(`{"error": "search failed"}`)
		return -1
	}
	return writeResult(api.DecisionToResponse(board, decision), resultJSON)
}

//export lgengine_free_string
func lgengine_free_string(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

func main() {}
