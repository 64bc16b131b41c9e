package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"rltracker/internal/snapshot"
)

var (
	numberRunRe = regexp.MustCompile(`\d[\d,]*`)
	digitsRe    = regexp.MustCompile(`\d+`)
)

// ParseMMR parses a rating value as rendered by the site: thousands
// separators are stripped and any non-numeric trailing text is ignored, so
// "1,308" and "1,308 MMR" both parse to 1308.
func ParseMMR(s string) (int, bool) {
	run := numberRunRe.FindString(s)
	if run == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(run, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseStatNumber converts a display-formatted lifetime stat ("2,260",
// "48.5%") to a number for callers that aggregate.
func ParseStatNumber(s string) (float64, error) {
	cleaned := strings.TrimSuffix(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), "%")
	return strconv.ParseFloat(cleaned, 64)
}

// dateStrategy resolves a session's calendar date. Strategies run in order:
// an explicit date printed in the block wins over the relative-offset label.
type dateStrategy struct {
	name    string
	resolve func(timeAgo, details string, now time.Time) (string, bool)
}

var dateStrategies = []dateStrategy{
	{name: "absolute-date", resolve: absoluteDate},
	{name: "relative-offset", resolve: relativeDate},
}

func resolveSessionDate(timeAgo, details string, now time.Time) string {
	for _, st := range dateStrategies {
		if date, ok := st.resolve(timeAgo, details, now); ok {
			return date
		}
	}
	return ""
}

var absoluteDateRe = regexp.MustCompile(`[A-Z][a-z]{2,8} \d{1,2}, \d{4}|\d{1,2}/\d{1,2}/\d{4}|\d{4}-\d{2}-\d{2}`)

var absoluteDateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"1/2/2006",
	"2006-01-02",
}

func absoluteDate(_, details string, _ time.Time) (string, bool) {
	raw := absoluteDateRe.FindString(details)
	if raw == "" {
		return "", false
	}
	for _, layout := range absoluteDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(snapshot.DateFormat), true
		}
	}
	return "", false
}

// relativeDate subtracts the full relative offset from now in the process
// timezone and takes the calendar date of the result, so "22 hours ago" can
// land on the previous day when it crosses local midnight.
func relativeDate(timeAgo, _ string, now time.Time) (string, bool) {
	lower := strings.ToLower(timeAgo)
	numStr := digitsRe.FindString(lower)
	if numStr == "" {
		return now.Format(snapshot.DateFormat), true
	}
	n, err := strconv.Atoi(numStr)
	if err != nil {
		return now.Format(snapshot.DateFormat), true
	}

	var then time.Time
	switch {
	case strings.Contains(lower, "hour"):
		then = now.Add(-time.Duration(n) * time.Hour)
	case strings.Contains(lower, "day"):
		then = now.AddDate(0, 0, -n)
	case strings.Contains(lower, "week"):
		then = now.AddDate(0, 0, -7*n)
	case strings.Contains(lower, "month"):
		then = now.AddDate(0, -n, 0)
	default:
		then = now
	}
	return then.Format(snapshot.DateFormat), true
}
