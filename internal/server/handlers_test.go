package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"text/template"
	"time"

	"rltracker/internal/cache"
	"rltracker/internal/config"
	"rltracker/internal/events"
	"rltracker/internal/ranks"
	"rltracker/internal/refresh"
	"rltracker/internal/snapshot"
	"rltracker/internal/wshub"
)

type stubAcquirer struct {
	markup string
	block  chan struct{}
}

func (a *stubAcquirer) Fetch(ctx context.Context, platform, username string) (string, error) {
	if a.block != nil {
		select {
		case <-a.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return a.markup, nil
}

func testSnap() *snapshot.ProfileSnapshot {
	return &snapshot.ProfileSnapshot{
		Timestamp: time.Date(2025, 11, 20, 15, 0, 0, 0, time.UTC),
		Playlists: map[string]snapshot.PlaylistRank{
			"Ranked Doubles 2v2": {Rank: "Champion III Div I", MMR: 1308},
			"Ranked Duel 1v1":    {Rank: "Diamond II Div III", MMR: 823},
		},
		Lifetime: map[string]string{
			"Wins":  "2,260",
			"Goals": "3,825",
		},
		Sessions: []snapshot.Session{
			{
				TimeAgo: "22 hours ago", Date: "2025-11-19", Wins: 4,
				Goals: 9, Shots: 21, Assists: 3, Saves: 12, MVPCount: 2,
				Matches: []snapshot.MatchGroup{{Count: 9, Playlist: "Ranked Doubles 2v2", MMR: 1308}},
			},
		},
		Activity: []snapshot.ActivityDay{
			{Date: "2025-11-18", Count: 3},
			{Date: "2025-11-19", Count: 11},
		},
	}
}

func newTestServer(t *testing.T, acq *stubAcquirer) (*Server, *httptest.Server) {
	t.Helper()

	tmpl := template.Must(template.ParseFiles("../../templates/dashboard.html"))
	store := cache.NewStore(filepath.Join(t.TempDir(), "rl_stats.json"))
	bus := events.NewBus()
	hub := wshub.NewHub()

	extractor := func(markup string, now time.Time) (*snapshot.ProfileSnapshot, error) {
		return testSnap(), nil
	}

	srv := &Server{
		Cfg: config.Config{
			Platform: "steam", Username: "TestPilot",
			Theme: "dark", WindowWidth: 900, WindowHeight: 700,
		},
		Tmpl:       tmpl,
		Store:      store,
		Hub:        hub,
		Icons:      ranks.NewResolver(t.TempDir()),
		Controller: refresh.NewController(acq, extractor, store, nil, bus, "steam", "TestPilot", time.Minute, time.Minute),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleDashboard)
	mux.HandleFunc("/api/snapshot", srv.handleSnapshot)
	mux.HandleFunc("/api/activity", srv.handleActivity)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/refresh", srv.handleRefresh)
	mux.HandleFunc("/history/playlist", srv.handleHistoryPlaylist)
	mux.HandleFunc("/history/deltas", srv.handleHistoryDeltas)
	mux.HandleFunc("/history/summary", srv.handleHistorySummary)
	mux.HandleFunc("/health", srv.handleHealth)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestHandleDashboard_NoData(t *testing.T) {
	_, ts := newTestServer(t, &stubAcquirer{markup: "<html></html>"})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "No snapshot cached yet") {
		t.Error("empty dashboard should show the no-data hint")
	}
}

func TestHandleDashboard_WithSnapshot(t *testing.T) {
	srv, ts := newTestServer(t, &stubAcquirer{markup: "<html></html>"})
	if err := srv.Store.Save(testSnap()); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"Champion III Div I", "1308", "Ranked Doubles 2v2", "2,260", "22 hours ago"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestHandleDashboard_UnknownPathIs404(t *testing.T) {
	_, ts := newTestServer(t, &stubAcquirer{markup: "<html></html>"})

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestHandleSnapshot(t *testing.T) {
	srv, ts := newTestServer(t, &stubAcquirer{markup: "<html></html>"})

	resp, err := http.Get(ts.URL + "/api/snapshot")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("empty cache status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	if err := srv.Store.Save(testSnap()); err != nil {
		t.Fatal(err)
	}

	resp, err = http.Get(ts.URL + "/api/snapshot")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var payload struct {
		Overview map[string]json.RawMessage `json:"overview"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if _, ok := payload.Overview["Ranked Doubles 2v2"]; !ok {
		t.Error("snapshot JSON missing playlist under overview")
	}
}

func TestHandleActivity(t *testing.T) {
	srv, ts := newTestServer(t, &stubAcquirer{markup: "<html></html>"})
	if err := srv.Store.Save(testSnap()); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(ts.URL + "/api/activity")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var cells []activityCell
	if err := json.NewDecoder(resp.Body).Decode(&cells); err != nil {
		t.Fatal(err)
	}
	if len(cells) != snapshot.RetainDays {
		t.Fatalf("cells = %d, want one per day of the %d-day window", len(cells), snapshot.RetainDays)
	}

	byDate := make(map[string]activityCell, len(cells))
	for _, c := range cells {
		byDate[c.Date] = c
	}
	if c := byDate["2025-11-19"]; c.Count != 11 || c.Color != "#ff8c00" {
		t.Errorf("busiest day = %+v, want count 11 at full intensity", c)
	}
	if c := byDate["2025-11-20"]; c.Count != 0 || c.Color != "#2d2d2d" {
		t.Errorf("idle snapshot day = %+v, want zero count with inactive color", c)
	}
}

func TestActivityCells_FillsIdleDays(t *testing.T) {
	anchor := time.Date(2025, 11, 12, 10, 0, 0, 0, time.UTC)
	days := []snapshot.ActivityDay{
		{Date: "2025-11-10", Count: 3},
		{Date: "2025-11-12", Count: 5},
	}

	cells := activityCells(days, anchor)
	if len(cells) != snapshot.RetainDays {
		t.Fatalf("cells = %d, want %d for the full window", len(cells), snapshot.RetainDays)
	}
	if cells[0].Date != "2025-10-14" {
		t.Errorf("first cell date = %q, want %q", cells[0].Date, "2025-10-14")
	}
	if last := cells[len(cells)-1]; last.Date != "2025-11-12" || last.Count != 5 {
		t.Errorf("last cell = %+v, want the anchor day with count 5", last)
	}

	idle := cells[len(cells)-2]
	if idle.Date != "2025-11-11" || idle.Count != 0 {
		t.Fatalf("middle cell = %+v, want 2025-11-11 with zero count", idle)
	}
	if idle.Color != "#2d2d2d" {
		t.Errorf("idle day color = %q, want inactive", idle.Color)
	}
}

func TestHandleRefresh_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, &stubAcquirer{markup: "<html></html>"})

	resp, err := http.Get(ts.URL + "/refresh")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestHandleRefresh_ConflictWhileRunning(t *testing.T) {
	acq := &stubAcquirer{markup: "<html></html>", block: make(chan struct{})}
	srv, ts := newTestServer(t, acq)
	defer close(acq.block)

	resp, err := http.Post(ts.URL+"/refresh", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("first refresh status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	deadline := time.After(2 * time.Second)
	for !srv.Controller.Status().InFlight {
		select {
		case <-deadline:
			t.Fatal("refresh never started")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	resp, err = http.Post(ts.URL+"/refresh", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second refresh status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestHandleStatus(t *testing.T) {
	_, ts := newTestServer(t, &stubAcquirer{markup: "<html></html>"})

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var status refresh.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.InFlight {
		t.Error("InFlight = true, want false before any refresh")
	}
}

func TestHandleHistory_NoDatabase(t *testing.T) {
	_, ts := newTestServer(t, &stubAcquirer{markup: "<html></html>"})

	for _, path := range []string{"/history/playlist?playlist=Ranked+Duel+1v1", "/history/deltas", "/history/summary"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want %d", path, resp.StatusCode, http.StatusServiceUnavailable)
		}
	}
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t, &stubAcquirer{markup: "<html></html>"})

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"status":"ok"`) {
		t.Errorf("health body = %s, want ok status", body)
	}
}
