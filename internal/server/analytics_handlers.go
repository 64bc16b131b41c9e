package server

import (
	"log"
	"net/http"
	"strconv"

	"rltracker/internal/analytics"
)

const defaultHistoryLimit = 50

func (s *Server) handleHistoryPlaylist(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "history requires a database connection")
		return
	}

	playlist := r.URL.Query().Get("playlist")
	if playlist == "" {
		writeJSONError(w, http.StatusBadRequest, "playlist query parameter required")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	q := analytics.NewQueries(s.DB)
	points, err := q.PlaylistHistory(playlist, limit)
	if err != nil {
		log.Printf("[History] playlist history error: %v\n", err)
		writeJSONError(w, http.StatusInternalServerError, "error loading history")
		return
	}
	if points == nil {
		points = []analytics.RankPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleHistoryDeltas(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "history requires a database connection")
		return
	}

	q := analytics.NewQueries(s.DB)
	deltas, err := q.LatestDeltas()
	if err != nil {
		log.Printf("[History] deltas error: %v\n", err)
		writeJSONError(w, http.StatusInternalServerError, "error loading deltas")
		return
	}
	if deltas == nil {
		deltas = []analytics.PlaylistDelta{}
	}
	writeJSON(w, http.StatusOK, deltas)
}

func (s *Server) handleHistorySummary(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "history requires a database connection")
		return
	}

	q := analytics.NewQueries(s.DB)
	summary, err := q.GetSummary()
	if err != nil {
		log.Printf("[History] summary error: %v\n", err)
		writeJSONError(w, http.StatusInternalServerError, "error loading summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
