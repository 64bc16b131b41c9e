package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rltracker/internal/snapshot"
)

// StoreSnapshot appends one snapshot to the history in a single transaction
// and returns its row ID. The cache file stays the source of truth for the
// current snapshot; the history only feeds trend views.
func (d *DB) StoreSnapshot(snap *snapshot.ProfileSnapshot) (string, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()
	if _, err := tx.Exec(`
		INSERT INTO snapshots (id, captured_at) VALUES ($1, $2)
	`, id, snap.Timestamp); err != nil {
		return "", fmt.Errorf("inserting snapshot: %w", err)
	}

	for playlist, rank := range snap.Playlists {
		if _, err := tx.Exec(`
			INSERT INTO playlist_ranks (snapshot_id, playlist, rank, mmr)
			VALUES ($1, $2, $3, $4)
		`, id, playlist, rank.Rank, rank.MMR); err != nil {
			return "", fmt.Errorf("inserting rank for %s: %w", playlist, err)
		}
	}

	for _, day := range snap.Activity {
		if _, err := tx.Exec(`
			INSERT INTO activity_days (snapshot_id, day, match_count)
			VALUES ($1, $2, $3)
		`, id, day.Date, day.Count); err != nil {
			return "", fmt.Errorf("inserting activity for %s: %w", day.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing snapshot: %w", err)
	}
	return id, nil
}

// LatestSnapshotID returns the most recent history row, or "" when the
// history is empty.
func (d *DB) LatestSnapshotID() (string, error) {
	var id string
	err := d.conn.QueryRow(`
		SELECT id FROM snapshots ORDER BY captured_at DESC LIMIT 1
	`).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

// PruneBefore deletes history rows captured before the cutoff and returns
// how many snapshots were removed.
func (d *DB) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := d.conn.Exec(`DELETE FROM snapshots WHERE captured_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return res.RowsAffected()
}
