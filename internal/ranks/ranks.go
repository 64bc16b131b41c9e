package ranks

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Tiers, longest name first so that a prefix match never mistakes a higher
// tier for a lower one sharing a word ("Grand Champion" before "Champion").
var tiers = []string{
	"Supersonic Legend",
	"Grand Champion",
	"Champion",
	"Diamond",
	"Platinum",
	"Gold",
	"Silver",
	"Bronze",
	"Unranked",
}

// The tier numeral sits immediately after the tier name. The division
// numeral only ever follows the literal token "Div"; the two are independent
// numerals in the same label and are captured by separate anchored patterns.
var (
	tierNumeralRe = regexp.MustCompile(`^(?:IV|V|III|II|I)\b`)
	divNumeralRe  = regexp.MustCompile(`\bDiv\s+(IV|V|III|II|I)\b`)
)

// Normalize splits a rank label into its tier name, tier numeral and
// division numeral. Empty strings are returned for parts the label does not
// carry; an unrecognized label yields an empty tier.
func Normalize(label string) (tier, numeral, division string) {
	s := strings.Join(strings.Fields(label), " ")
	if s == "" {
		return "", "", ""
	}

	for _, t := range tiers {
		if len(s) >= len(t) && strings.EqualFold(s[:len(t)], t) {
			tier = t
			s = strings.TrimSpace(s[len(t):])
			break
		}
	}
	if tier == "" {
		return "", "", ""
	}

	numeral = tierNumeralRe.FindString(s)
	if m := divNumeralRe.FindStringSubmatch(s); m != nil {
		division = m[1]
	}
	return tier, numeral, division
}

// Resolver maps rank labels to icon asset paths under Dir.
type Resolver struct {
	Dir string
}

func NewResolver(dir string) *Resolver {
	return &Resolver{Dir: dir}
}

// IconPath returns the icon for the label's tier and tier numeral. The
// division numeral never influences icon choice. Falls back to the bare tier
// icon, then to unranked.png.
func (r *Resolver) IconPath(label string) string {
	tier, numeral, _ := Normalize(label)
	if tier == "" {
		tier = "Unranked"
	}
	base := slug(tier)

	if numeral != "" {
		if p := r.lookup(base + "_" + strings.ToLower(numeral)); p != "" {
			return p
		}
	}
	if p := r.lookup(base); p != "" {
		return p
	}
	return filepath.Join(r.Dir, "unranked.png")
}

func (r *Resolver) lookup(key string) string {
	p := filepath.Join(r.Dir, key+".png")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func slug(tier string) string {
	return strings.ReplaceAll(strings.ToLower(tier), " ", "_")
}
