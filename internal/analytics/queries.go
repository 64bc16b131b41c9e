package analytics

import (
	"database/sql"
	"errors"
	"fmt"

	"rltracker/internal/db"
)

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

// PlaylistHistory returns the MMR trail for one playlist, oldest first.
func (q *Queries) PlaylistHistory(playlist string, limit int) ([]RankPoint, error) {
	rows, err := q.DB.Query(`
		SELECT s.captured_at, pr.rank, pr.mmr
		FROM playlist_ranks pr
		JOIN snapshots s ON s.id = pr.snapshot_id
		WHERE pr.playlist = $1
		ORDER BY s.captured_at DESC
		LIMIT $2
	`, playlist, limit)
	if err != nil {
		return nil, fmt.Errorf("getting playlist history: %w", err)
	}
	defer rows.Close()

	var points []RankPoint
	for rows.Next() {
		var p RankPoint
		if err := rows.Scan(&p.CapturedAt, &p.Rank, &p.MMR); err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	// Reverse so the chart reads left to right.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// LatestDeltas compares each playlist's two most recent snapshots and
// reports the MMR movement between them.
func (q *Queries) LatestDeltas() ([]PlaylistDelta, error) {
	latestID, err := q.DB.LatestSnapshotID()
	if err != nil {
		return nil, fmt.Errorf("getting latest snapshot: %w", err)
	}
	if latestID == "" {
		return nil, nil
	}

	latest, err := q.snapshotRanks(latestID)
	if err != nil {
		return nil, err
	}

	var previousID string
	err = q.DB.QueryRow(`
		SELECT id FROM snapshots
		WHERE id != $1
		ORDER BY captured_at DESC
		LIMIT 1
	`, latestID).Scan(&previousID)
	var previous []PlaylistDelta
	if err == nil {
		previous, err = q.snapshotRanks(previousID)
		if err != nil {
			return nil, err
		}
	}

	return DiffRanks(latest, previous), nil
}

func (q *Queries) snapshotRanks(snapshotID string) ([]PlaylistDelta, error) {
	rows, err := q.DB.Query(`
		SELECT playlist, rank, mmr FROM playlist_ranks
		WHERE snapshot_id = $1
		ORDER BY playlist
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("getting snapshot ranks: %w", err)
	}
	defer rows.Close()

	var ranks []PlaylistDelta
	for rows.Next() {
		var r PlaylistDelta
		if err := rows.Scan(&r.Playlist, &r.Rank, &r.MMR); err != nil {
			return nil, err
		}
		ranks = append(ranks, r)
	}
	return ranks, nil
}

// GetSummary aggregates the whole history: snapshot span, peak MMR, and
// the single busiest activity day on record.
func (q *Queries) GetSummary() (*Summary, error) {
	summary := &Summary{}

	err := q.DB.QueryRow(`
		SELECT COUNT(*), MIN(captured_at), MAX(captured_at) FROM snapshots
	`).Scan(&summary.Snapshots, &summary.FirstSeen, &summary.LastSeen)
	if err != nil {
		return nil, fmt.Errorf("getting snapshot span: %w", err)
	}
	if summary.Snapshots == 0 {
		return summary, nil
	}

	// A snapshot can legitimately carry zero playlist ranks; no rows here
	// just means no peak yet.
	err = q.DB.QueryRow(`
		SELECT playlist, mmr FROM playlist_ranks
		ORDER BY mmr DESC
		LIMIT 1
	`).Scan(&summary.PeakList, &summary.PeakMMR)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting peak MMR: %w", err)
	}

	var busiest BusiestDay
	err = q.DB.QueryRow(`
		SELECT day::text, MAX(match_count) as count
		FROM activity_days
		GROUP BY day
		ORDER BY count DESC, day DESC
		LIMIT 1
	`).Scan(&busiest.Date, &busiest.Count)
	if err == nil {
		summary.BusiestDay = &busiest
	}

	return summary, nil
}
