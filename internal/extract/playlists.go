package extract

import (
	"log"
	"regexp"
	"strings"

	"rltracker/internal/snapshot"
)

// knownPlaylists maps the label as it appears in the page text to the
// canonical playlist name. Blocks whose label matches none of these are
// dropped rather than kept as unknown entries.
var knownPlaylists = []struct {
	label string
	name  string
}{
	{"Ranked Duel 1v1", "Ranked Duel 1v1"},
	{"Ranked Doubles 2v2", "Ranked Doubles 2v2"},
	{"Ranked Standard 3v3", "Ranked Standard 3v3"},
	{"Hoops", "Hoops"},
	{"Rumble", "Rumble"},
	{"Dropshot", "Dropshot"},
	{"Snowday", "Snow Day"},
}

const (
	tierAlt    = `(?:Supersonic Legend|Grand Champion|Champion|Diamond|Platinum|Gold|Silver|Bronze)`
	numeralAlt = `(?:IV|V|I{1,3})`
	mmrPattern = `\d{1,4}(?:,\d{3})?`
)

// chunkSize bounds how far past a playlist label the loose fallback looks.
const chunkSize = 200

var looseRankRe = regexp.MustCompile(tierAlt + `\s+` + numeralAlt + `?\s*(?:Div\s+` + numeralAlt + `)?`)

// rankStrategy is one way of pulling a rank and MMR for a playlist out of
// the flattened page text. Strategies are tried in order until one matches.
type rankStrategy struct {
	name    string
	extract func(text, label string) (snapshot.PlaylistRank, bool)
}

var rankStrategies = []rankStrategy{
	{name: "combined-rank-mmr", extract: combinedRankMMR},
	{name: "chunked-fallback", extract: chunkedRankMMR},
}

func extractPlaylists(text string) map[string]snapshot.PlaylistRank {
	out := make(map[string]snapshot.PlaylistRank)
	for _, pl := range knownPlaylists {
		if !strings.Contains(text, pl.label) {
			continue
		}
		for _, st := range rankStrategies {
			rank, ok := st.extract(text, pl.label)
			if !ok {
				continue
			}
			// An unranked playlist with no rating carries no information.
			if rank.Rank != "Unranked" || rank.MMR > 0 {
				out[pl.name] = rank
			}
			break
		}
	}
	if len(out) == 0 {
		log.Println("[Extract] playlist labels present but no rank data parsed")
	}
	return out
}

// combinedRankMMR matches the full text run the site renders for a ranked
// playlist, e.g. "Ranked Doubles 2v2 1,308Div257Champion III Div I": label,
// rating, division progress noise, then the complete rank label.
func combinedRankMMR(text, label string) (snapshot.PlaylistRank, bool) {
	re := regexp.MustCompile(regexp.QuoteMeta(label) +
		`\s*(` + mmrPattern + `)[Div\d\s]*?(` + tierAlt + `\s+` + numeralAlt + `\s+Div\s+` + numeralAlt + `)`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return snapshot.PlaylistRank{}, false
	}
	mmr, _ := ParseMMR(m[1])
	return snapshot.PlaylistRank{Rank: collapseWhitespace(m[2]), MMR: mmr}, true
}

// chunkedRankMMR is the loose fallback: take a bounded chunk after the
// playlist label and look for a rating and a rank label independently.
func chunkedRankMMR(text, label string) (snapshot.PlaylistRank, bool) {
	pos := strings.Index(text, label)
	if pos < 0 {
		return snapshot.PlaylistRank{}, false
	}
	end := pos + len(label) + chunkSize
	if end > len(text) {
		end = len(text)
	}
	chunk := text[pos:end]

	rank := snapshot.PlaylistRank{Rank: "Unranked"}
	found := false

	mmrRe := regexp.MustCompile(regexp.QuoteMeta(label) + `\s*(` + mmrPattern + `)`)
	if m := mmrRe.FindStringSubmatch(chunk); m != nil {
		if mmr, ok := ParseMMR(m[1]); ok {
			rank.MMR = mmr
			found = true
		}
	}
	if m := looseRankRe.FindString(chunk); m != "" {
		rank.Rank = collapseWhitespace(m)
		found = true
	}
	return rank, found
}
