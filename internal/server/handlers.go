package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"text/template"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"rltracker/internal/cache"
	"rltracker/internal/config"
	"rltracker/internal/db"
	"rltracker/internal/ranks"
	"rltracker/internal/refresh"
	"rltracker/internal/snapshot"
	"rltracker/internal/utility"
	"rltracker/internal/wshub"
)

type Server struct {
	Cfg        config.Config
	Tmpl       *template.Template
	Store      *cache.Store
	Controller *refresh.Controller
	Hub        *wshub.Hub
	Icons      *ranks.Resolver
	DB         *db.DB          // nil if no database configured
	Ctx        context.Context // process lifetime; background refreshes stop with it
}

// lifetimeOrder fixes the display order of the lifetime stat cards.
var lifetimeOrder = []string{"Wins", "Goals", "Assists", "Saves", "Shots", "MVPs", "Goal Shot Ratio"}

type playlistView struct {
	Name string
	Rank string
	MMR  int
	Icon string
}

type statView struct {
	Name  string
	Value string
}

type activityCell struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

type dashboardData struct {
	Theme     string
	Width     int
	Height    int
	Platform  string
	Username  string
	HasData   bool
	UpdatedAt string
	Playlists []playlistView
	Lifetime  []statView
	Sessions  []snapshot.Session
	Activity  []activityCell
	Status    refresh.Status
}

func (s *Server) dashboardView(snap *snapshot.ProfileSnapshot) dashboardData {
	data := dashboardData{
		Theme:    s.Cfg.Theme,
		Width:    s.Cfg.WindowWidth,
		Height:   s.Cfg.WindowHeight,
		Platform: s.Cfg.Platform,
		Username: s.Cfg.Username,
		Status:   s.Controller.Status(),
	}
	if snap == nil {
		return data
	}

	data.HasData = true
	data.UpdatedAt = snap.Timestamp.Format("Jan 2, 2006 15:04")

	names := make([]string, 0, len(snap.Playlists))
	for name := range snap.Playlists {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rank := snap.Playlists[name]
		data.Playlists = append(data.Playlists, playlistView{
			Name: name,
			Rank: rank.Rank,
			MMR:  rank.MMR,
			Icon: "/icons/" + filepath.Base(s.Icons.IconPath(rank.Rank)),
		})
	}

	for _, name := range lifetimeOrder {
		if value, ok := snap.Lifetime[name]; ok {
			data.Lifetime = append(data.Lifetime, statView{Name: name, Value: value})
		}
	}

	data.Sessions = snap.Sessions
	data.Activity = activityCells(snap.Activity, snap.Timestamp)
	return data
}

// activityCells renders one cell per calendar day over the whole retention
// window ending at the snapshot date. Days without recorded matches get a
// zero count, so the grid always reads as a contiguous calendar.
func activityCells(days []snapshot.ActivityDay, anchor time.Time) []activityCell {
	counts := make(map[string]int, len(days))
	max := 0
	for _, d := range days {
		counts[d.Date] = d.Count
		if d.Count > max {
			max = d.Count
		}
	}

	start := anchor.AddDate(0, 0, -(snapshot.RetainDays - 1))
	cells := make([]activityCell, 0, snapshot.RetainDays)
	for i := 0; i < snapshot.RetainDays; i++ {
		date := start.AddDate(0, 0, i).Format(snapshot.DateFormat)
		count := counts[date]
		cells = append(cells, activityCell{
			Date:  date,
			Count: count,
			Color: utility.HeatColorHex(count, max),
		})
	}
	return cells
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := s.dashboardView(s.Store.Load())
	if err := s.Tmpl.ExecuteTemplate(w, "dashboard", data); err != nil {
		log.Println(err)
		http.Error(w, "Error rendering dashboard", http.StatusInternalServerError)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.Store.Load()
	if snap == nil {
		writeJSONError(w, http.StatusNotFound, "no snapshot cached yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	snap := s.Store.Load()
	if snap == nil {
		writeJSONError(w, http.StatusNotFound, "no snapshot cached yet")
		return
	}
	writeJSON(w, http.StatusOK, activityCells(snap.Activity, snap.Timestamp))
}

// handleRefresh starts an on-demand refresh. The cycle runs in the
// background; clients learn the outcome over the WebSocket.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fmt.Println("[Handle:Refresh] Request Received")

	if s.Controller.Status().InFlight {
		writeJSONError(w, http.StatusConflict, "refresh already in flight")
		return
	}

	ctx := s.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		if err := s.Controller.TryRefresh(ctx); err != nil && !errors.Is(err, refresh.ErrRefreshInFlight) {
			log.Printf("[Handle:Refresh] Cycle failed: %v\n", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Controller.Status())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("[WS] Accept error: %v\n", err)
		return
	}

	client := &wshub.Client{
		ID:   uuid.New().String(),
		Conn: conn,
		Send: make(chan []byte, 16),
	}
	s.Hub.Register(client)
	defer s.Hub.Unregister(client.ID)

	ctx := r.Context()
	go client.WritePump(ctx)

	// Reads are discarded; the read loop only notices disconnects.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			status = "db_error"
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"%s","error":"%s"}`, status, err.Error())
			return
		}
	}
	fmt.Fprintf(w, `{"status":"%s"}`, status)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] Encoding response: %v\n", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
