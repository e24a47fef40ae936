package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"territory-arena/internal/game"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	if snap == nil {
		writeError(w, "state not ready", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Engine    game.EngineStats `json:"engine"`
		RateLimit RateLimitStats   `json:"rateLimit"`
	}{
		Engine:    h.engine.Stats(),
		RateLimit: h.limiter.GetStats(),
	})
}

// handleGetLeaderboard ranks players by territory. ?limit=N caps the list.
func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardSize
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLeaderboardSize)
	}
	writeJSON(w, game.Leaderboard(h.engine.Snapshot(), limit))
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("⚠️ Write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
