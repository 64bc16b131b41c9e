// Package extract turns raw overview-page markup from the tracker site into
// a normalized ProfileSnapshot. Extraction is best effort: a field or section
// that cannot be located is omitted rather than failing the whole pass. The
// only hard failure is markup with no recognizable playlist rank section.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"rltracker/internal/snapshot"
)

// ErrNoOverview means the markup has no playlist rank section anywhere and
// is therefore not a profile overview page.
var ErrNoOverview = errors.New("no playlist rank section found in markup")

var whitespaceRe = regexp.MustCompile(`\s+`)

// Extract parses the markup and returns a snapshot stamped with now. now is
// also the anchor for resolving relative session dates, so two calls on the
// same markup with the same now yield identical snapshots.
func Extract(markup string, now time.Time) (*snapshot.ProfileSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parsing markup: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	text := doc.Text()

	if !hasOverviewAnchor(text) {
		return nil, ErrNoOverview
	}

	sessions := extractSessions(text, now)

	return &snapshot.ProfileSnapshot{
		Timestamp: now,
		Playlists: extractPlaylists(text),
		Lifetime:  extractLifetime(doc, text),
		Sessions:  sessions,
		Activity:  snapshot.BuildActivity(sessions, now, snapshot.RetainDays),
	}, nil
}

// hasOverviewAnchor reports whether any known playlist label appears in the
// page text. Without one the markup cannot be an overview page.
func hasOverviewAnchor(text string) bool {
	for _, pl := range knownPlaylists {
		if strings.Contains(text, pl.label) {
			return true
		}
	}
	return false
}

func collapseWhitespace(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}
