package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Lifetime stat names tracked from the overview page's lifetime block.
var lifetimeStatNames = []string{
	"Wins", "Goals", "Assists", "Saves", "Shots", "MVPs", "Goal Shot Ratio",
}

// The lifetime block renders each stat as "Name<value>#<global rank> • Top X%",
// e.g. "Wins2,260#2,449,599 • Top 36.0%". The leading non-letter guard keeps
// "Goals" from matching inside a longer label.
var lifetimeTextPatterns = map[string]*regexp.Regexp{
	"Wins":            regexp.MustCompile(`(?i)Lifetime\s+Wins([\d,]+)#`),
	"Goals":           regexp.MustCompile(`(?i)(?:^|[^a-z])Goals([\d,]+)#`),
	"Assists":         regexp.MustCompile(`(?i)(?:^|[^a-z])Assists([\d,]+)#`),
	"Saves":           regexp.MustCompile(`(?i)(?:^|[^a-z])Saves([\d,]+)#`),
	"Shots":           regexp.MustCompile(`(?i)(?:^|[^a-z])Shots([\d,]+)#`),
	"MVPs":            regexp.MustCompile(`(?i)MVPs([\d,]+)#`),
	"Goal Shot Ratio": regexp.MustCompile(`(?i)Goal\s+Shot\s+Ratio([\d.]+)#`),
}

var statValueRe = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?%?`)

// lifetimeStrategy fills missing stats in the result map. Strategies run in
// order; a later strategy never overwrites a stat an earlier one found.
type lifetimeStrategy struct {
	name    string
	extract func(doc *goquery.Document, text string, out map[string]string)
}

var lifetimeStrategies = []lifetimeStrategy{
	{name: "anchored-text", extract: lifetimeFromText},
	{name: "element-scan", extract: lifetimeFromElements},
}

func extractLifetime(doc *goquery.Document, text string) map[string]string {
	out := make(map[string]string)
	for _, st := range lifetimeStrategies {
		st.extract(doc, text, out)
		if len(out) == len(lifetimeStatNames) {
			break
		}
	}
	if _, ok := out["Goal Shot Ratio"]; !ok {
		if ratio, ok := deriveGoalShotRatio(out); ok {
			out["Goal Shot Ratio"] = ratio
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// deriveGoalShotRatio computes the ratio from the Goals and Shots totals when
// the page does not render it as its own stat.
func deriveGoalShotRatio(out map[string]string) (string, bool) {
	goals, err := ParseStatNumber(out["Goals"])
	if err != nil {
		return "", false
	}
	shots, err := ParseStatNumber(out["Shots"])
	if err != nil || shots == 0 {
		return "", false
	}
	return fmt.Sprintf("%.1f%%", goals/shots*100), true
}

func lifetimeFromText(_ *goquery.Document, text string, out map[string]string) {
	for _, name := range lifetimeStatNames {
		if _, ok := out[name]; ok {
			continue
		}
		m := lifetimeTextPatterns[name].FindStringSubmatch(text)
		if m == nil {
			continue
		}
		out[name] = formatStatValue(name, m[1])
	}
}

// lifetimeFromElements walks leaf-ish elements looking for a stat label
// followed by a value inside the same element. Values stay display-formatted.
func lifetimeFromElements(doc *goquery.Document, _ string, out map[string]string) {
	if doc == nil {
		return
	}
	doc.Find("div, span, td, li").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		// Containers that wrap the whole page match every keyword; only
		// short runs can be a single labeled stat.
		if text == "" || len(text) > 80 {
			return true
		}
		for _, name := range lifetimeStatNames {
			if _, ok := out[name]; ok {
				continue
			}
			idx := strings.Index(text, name)
			if idx < 0 {
				continue
			}
			if v := statValueRe.FindString(text[idx+len(name):]); v != "" {
				out[name] = formatStatValue(name, v)
			}
		}
		return len(out) < len(lifetimeStatNames)
	})
}

func formatStatValue(name, value string) string {
	if name == "Goal Shot Ratio" && !strings.Contains(value, "%") {
		value += "%"
	}
	return value
}
