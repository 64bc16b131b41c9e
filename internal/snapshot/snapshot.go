package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// LifetimeKey is the reserved key under which the lifetime stats mapping is
// nested inside the overview mapping in the cache file. No playlist is ever
// named this.
const LifetimeKey = "__lifetime__"

// RetainDays is how many calendar days of activity a snapshot keeps.
const RetainDays = 30

// DateFormat is the calendar-date layout used everywhere a date is stored as
// a string. Lexicographic order matches chronological order.
const DateFormat = "2006-01-02"

// PlaylistRank is the rank and rating extracted for one playlist.
type PlaylistRank struct {
	Rank string `json:"rank"`
	MMR  int    `json:"mmr"`
}

// MatchGroup is a run of matches played in one playlist within a session.
type MatchGroup struct {
	Count    int    `json:"count"`
	Playlist string `json:"playlist"`
	MMR      int    `json:"mmr"`
}

// Session is one contiguous block of play as grouped by the tracker site.
// Date is empty when the relative time label could not be resolved.
type Session struct {
	TimeAgo  string       `json:"time_ago"`
	Date     string       `json:"date,omitempty"`
	Wins     int          `json:"wins"`
	Goals    int          `json:"goals"`
	Shots    int          `json:"shots"`
	Assists  int          `json:"assists"`
	Saves    int          `json:"saves"`
	MVPCount int          `json:"mvp_count"`
	Matches  []MatchGroup `json:"matches"`
}

// MatchCount sums the match-group counts of the session.
func (s Session) MatchCount() int {
	total := 0
	for _, m := range s.Matches {
		total += m.Count
	}
	return total
}

// ActivityDay is the number of matches recorded on one calendar day.
// Days without activity are absent, not zero.
type ActivityDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ProfileSnapshot is one complete extraction result. It is produced whole by
// a single extraction pass and superseded wholesale by the next one.
type ProfileSnapshot struct {
	Timestamp time.Time
	Playlists map[string]PlaylistRank
	Lifetime  map[string]string
	Sessions  []Session
	Activity  []ActivityDay
}

// wireSnapshot is the cache-file layout: the lifetime mapping is nested
// inside the overview mapping under LifetimeKey.
type wireSnapshot struct {
	Timestamp time.Time                  `json:"timestamp"`
	Overview  map[string]json.RawMessage `json:"overview"`
	Sessions  []Session                  `json:"sessions"`
	Activity  []ActivityDay              `json:"activity_heatmap"`
}

func (p ProfileSnapshot) MarshalJSON() ([]byte, error) {
	overview := make(map[string]json.RawMessage, len(p.Playlists)+1)
	for name, rank := range p.Playlists {
		raw, err := json.Marshal(rank)
		if err != nil {
			return nil, err
		}
		overview[name] = raw
	}
	if len(p.Lifetime) > 0 {
		raw, err := json.Marshal(p.Lifetime)
		if err != nil {
			return nil, err
		}
		overview[LifetimeKey] = raw
	}
	return json.Marshal(wireSnapshot{
		Timestamp: p.Timestamp,
		Overview:  overview,
		Sessions:  p.Sessions,
		Activity:  p.Activity,
	})
}

func (p *ProfileSnapshot) UnmarshalJSON(data []byte) error {
	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.Timestamp = w.Timestamp
	p.Sessions = w.Sessions
	p.Activity = w.Activity
	p.Playlists = make(map[string]PlaylistRank)
	p.Lifetime = nil
	for name, raw := range w.Overview {
		if name == LifetimeKey {
			if err := json.Unmarshal(raw, &p.Lifetime); err != nil {
				return fmt.Errorf("lifetime stats: %w", err)
			}
			continue
		}
		var rank PlaylistRank
		if err := json.Unmarshal(raw, &rank); err != nil {
			return fmt.Errorf("playlist %q: %w", name, err)
		}
		p.Playlists[name] = rank
	}
	return nil
}

// BuildActivity derives per-day match counts from the sessions. Sessions
// sharing a calendar date are summed (a day may span several sessions).
// Only dates within the most recent retainDays calendar days relative to now
// are kept, sorted ascending.
func BuildActivity(sessions []Session, now time.Time, retainDays int) []ActivityDay {
	cutoff := now.AddDate(0, 0, -(retainDays - 1)).Format(DateFormat)

	counts := make(map[string]int)
	for _, s := range sessions {
		if s.Date == "" || s.Date < cutoff {
			continue
		}
		if n := s.MatchCount(); n > 0 {
			counts[s.Date] += n
		}
	}

	days := make([]ActivityDay, 0, len(counts))
	for date, count := range counts {
		days = append(days, ActivityDay{Date: date, Count: count})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	// Never more than retainDays entries, even if session dates are malformed.
	if len(days) > retainDays {
		days = days[len(days)-retainDays:]
	}
	return days
}
