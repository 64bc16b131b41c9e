package analytics

import "time"

type RankPoint struct {
	CapturedAt time.Time `json:"captured_at"`
	Rank       string    `json:"rank"`
	MMR        int       `json:"mmr"`
}

type PlaylistDelta struct {
	Playlist string `json:"playlist"`
	Rank     string `json:"rank"`
	MMR      int    `json:"mmr"`
	Change   int    `json:"change"` // MMR movement since the previous snapshot
}

type BusiestDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Summary struct {
	Snapshots  int         `json:"snapshots"`
	FirstSeen  *time.Time  `json:"first_seen,omitempty"`
	LastSeen   *time.Time  `json:"last_seen,omitempty"`
	PeakMMR    int         `json:"peak_mmr"`
	PeakList   string      `json:"peak_playlist"`
	BusiestDay *BusiestDay `json:"busiest_day,omitempty"`
}
