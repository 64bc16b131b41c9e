package analytics

import (
	"os"
	"testing"
	"time"

	"rltracker/internal/db"
	"rltracker/internal/snapshot"
)

func getTestQueries(t *testing.T) *Queries {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	database, err := db.Connect(dsn)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		database.Exec("DELETE FROM snapshots")
		database.Close()
	})
	return NewQueries(database)
}

func TestGetSummary_SnapshotWithoutRanks(t *testing.T) {
	q := getTestQueries(t)

	// An extraction can legitimately produce zero playlist ranks.
	if _, err := q.DB.StoreSnapshot(&snapshot.ProfileSnapshot{Timestamp: time.Now()}); err != nil {
		t.Fatalf("StoreSnapshot() error: %v", err)
	}

	summary, err := q.GetSummary()
	if err != nil {
		t.Fatalf("GetSummary() error: %v", err)
	}
	if summary.Snapshots != 1 {
		t.Errorf("Snapshots = %d, want 1", summary.Snapshots)
	}
	if summary.PeakMMR != 0 || summary.PeakList != "" {
		t.Errorf("peak = %q/%d, want empty for a rankless history", summary.PeakList, summary.PeakMMR)
	}
}

func TestGetSummary_WithRanks(t *testing.T) {
	q := getTestQueries(t)

	_, err := q.DB.StoreSnapshot(&snapshot.ProfileSnapshot{
		Timestamp: time.Now(),
		Playlists: map[string]snapshot.PlaylistRank{
			"Ranked Doubles 2v2": {Rank: "Champion III Div I", MMR: 1308},
			"Ranked Duel 1v1":    {Rank: "Diamond II Div III", MMR: 823},
		},
		Activity: []snapshot.ActivityDay{{Date: "2025-11-19", Count: 11}},
	})
	if err != nil {
		t.Fatalf("StoreSnapshot() error: %v", err)
	}

	summary, err := q.GetSummary()
	if err != nil {
		t.Fatalf("GetSummary() error: %v", err)
	}
	if summary.PeakMMR != 1308 || summary.PeakList != "Ranked Doubles 2v2" {
		t.Errorf("peak = %q/%d, want Ranked Doubles 2v2/1308", summary.PeakList, summary.PeakMMR)
	}
	if summary.BusiestDay == nil || summary.BusiestDay.Count != 11 {
		t.Errorf("busiest day = %+v, want count 11", summary.BusiestDay)
	}
}
