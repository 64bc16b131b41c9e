package extract

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"rltracker/internal/snapshot"
)

// maxSessions bounds how many session blocks one extraction keeps.
const maxSessions = 20

var (
	sessionAnchor = "Session Overview"

	// Text that follows the last session block on the page; a session's
	// details end where the first of these begins.
	sessionTrailers = []string{"Get the Mobile", "Premium users"}

	timeAgoRe    = regexp.MustCompile(`(?i)^\s*(\d+\s+(?:hours?|days?|weeks?|months?)\s+ago)`)
	winsRe       = regexp.MustCompile(`(?i)(\d+)\s+Wins?`)
	goalsShotsRe = regexp.MustCompile(`Goals\s*/\s*Shots\s+(\d+)\s*/\s*(\d+)`)
	assistsRe    = regexp.MustCompile(`Assists\s+(\d+)`)
	savesRe      = regexp.MustCompile(`Saves\s+(\d+)`)
	mvpRe        = regexp.MustCompile(`MVP\s*\((\d+)\)`)

	// "9 Matches Ranked Standard 3v3 1,096" — repetition count, playlist,
	// optional rating. The count is capped at two digits so a stat value
	// running into the count ("Saves 249 Matches") cannot swallow it.
	matchGroupRe = regexp.MustCompile(`(\d{1,2})\s+Match(?:es)?\s+(Ranked\s+(?:Duel|Doubles|Standard|4v4\s+Quads?)\s+\dv\d)\s*(\d{1,3}(?:,\d{3})?)`)
)

func extractSessions(text string, now time.Time) []snapshot.Session {
	parts := strings.Split(text, sessionAnchor)
	if len(parts) < 2 {
		return []snapshot.Session{}
	}

	sessions := []snapshot.Session{}
	for _, part := range parts[1:] {
		if len(sessions) >= maxSessions {
			break
		}
		for _, trailer := range sessionTrailers {
			if idx := strings.Index(part, trailer); idx >= 0 {
				part = part[:idx]
			}
		}

		m := timeAgoRe.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		timeAgo := collapseWhitespace(m[1])
		details := part[len(m[0]):]

		s := snapshot.Session{
			TimeAgo: timeAgo,
			Date:    resolveSessionDate(timeAgo, details, now),
			Matches: parseMatchGroups(details),
		}
		if w := winsRe.FindStringSubmatch(details); w != nil {
			s.Wins, _ = strconv.Atoi(w[1])
		}
		if g := goalsShotsRe.FindStringSubmatch(details); g != nil {
			s.Goals, _ = strconv.Atoi(g[1])
			s.Shots, _ = strconv.Atoi(g[2])
		}
		if a := assistsRe.FindStringSubmatch(details); a != nil {
			s.Assists, _ = strconv.Atoi(a[1])
		}
		if sv := savesRe.FindStringSubmatch(details); sv != nil {
			s.Saves, _ = strconv.Atoi(sv[1])
		}
		if mv := mvpRe.FindStringSubmatch(details); mv != nil {
			s.MVPCount, _ = strconv.Atoi(mv[1])
		}

		// A session block with no match groups is a rendering artifact.
		if len(s.Matches) == 0 {
			log.Printf("[Extract] session %q has no match groups, dropping", timeAgo)
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions
}

func parseMatchGroups(details string) []snapshot.MatchGroup {
	var groups []snapshot.MatchGroup
	for _, m := range matchGroupRe.FindAllStringSubmatch(details, -1) {
		count, err := strconv.Atoi(m[1])
		if err != nil || count == 0 {
			continue
		}
		mmr, _ := ParseMMR(m[3])
		groups = append(groups, snapshot.MatchGroup{
			Count:    count,
			Playlist: canonicalPlaylist(m[2]),
			MMR:      mmr,
		})
	}
	return groups
}

// canonicalPlaylist folds the playlist spellings seen in session blocks onto
// the names used in the rank section.
func canonicalPlaylist(p string) string {
	switch {
	case strings.Contains(p, "Standard"), strings.Contains(p, "3v3"):
		return "Ranked Standard 3v3"
	case strings.Contains(p, "Doubles"), strings.Contains(p, "2v2"):
		return "Ranked Doubles 2v2"
	case strings.Contains(p, "Duel"), strings.Contains(p, "1v1"):
		return "Ranked Duel 1v1"
	}
	return collapseWhitespace(p)
}
