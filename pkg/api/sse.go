package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/yourusername/lgengine/pkg/engine"
)

// TournamentSSE handles Server-Sent Events for streaming tournament progress.
// GET /api/tournament/stream?games=...&workers=...&seed=...&player=...&cpu=...&max_plies=...
//
// Events: "progress" after every finished game, then "result" and "done".
// Failures are sent as an "error" event.
func (h *Handlers) TournamentSSE(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeSSEError(w, "streaming not supported")
		return
	}

	if h.pool != nil {
		if !h.pool.TryAcquireSlow() {
			writeSSEError(w, "server busy")
			return
		}
		defer h.pool.ReleaseSlow()
	}

	query := r.URL.Query()
	req := TournamentRequest{
		Games:            parseIntParam(query.Get("games"), 0),
		Workers:          parseIntParam(query.Get("workers"), 0),
		Seed:             int64(parseIntParam(query.Get("seed"), 0)),
		PlayerDifficulty: query.Get("player"),
		CpuDifficulty:    query.Get("cpu"),
		MaxPlies:         parseIntParam(query.Get("max_plies"), 0),
	}

	opts, errResp := tournamentOptions(req)
	if errResp != nil {
		writeSSEError(w, errResp.Error)
		return
	}

	// Progress callback sends SSE events; calls are serialized by the engine
	callback := func(p engine.TournamentProgress) {
		writeSSEEvent(w, "progress", ProgressToResponse(p))
		flusher.Flush()
	}

	result, err := h.engine.Tournament(r.Context(), opts, callback)
	if err != nil {
		writeSSEError(w, "tournament failed: "+err.Error())
		return
	}

	writeSSEEvent(w, "result", TournamentToResponse(result))
	flusher.Flush()

	// Send done event to signal completion
	writeSSEEvent(w, "done", nil)
	flusher.Flush()
}

// writeSSEEvent writes a Server-Sent Event to the response.
func writeSSEEvent(w http.ResponseWriter, event string, data interface{}) {
	fmt.Fprintf(w, "event: %s\n", event)
	if data != nil {
		jsonData, _ := json.Marshal(data)
		fmt.Fprintf(w, "data: %s\n", jsonData)
	}
	fmt.Fprintf(w, "\n")
}

// writeSSEError writes an error event and closes the stream.
func writeSSEError(w http.ResponseWriter, message string) {
	writeSSEEvent(w, "error", map[string]string{"error": message})
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// parseIntParam parses an integer from a string with a default value.
func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}
