package extract

import (
	"testing"
)

func TestCombinedRankMMR(t *testing.T) {
	text := "Ranked Doubles 2v2 1,308Div257Champion III Div I"

	rank, ok := combinedRankMMR(text, "Ranked Doubles 2v2")
	if !ok {
		t.Fatal("combinedRankMMR() did not match")
	}
	if rank.Rank != "Champion III Div I" {
		t.Errorf("rank = %q, want %q", rank.Rank, "Champion III Div I")
	}
	if rank.MMR != 1308 {
		t.Errorf("MMR = %d, want 1308", rank.MMR)
	}
}

func TestChunkedFallback_WhenRankHasNoDivision(t *testing.T) {
	// Some rank renderings omit the division marker entirely; the combined
	// pattern requires it, the chunked fallback does not.
	text := "Ranked Standard 3v3 602 Gold II some trailing page text"

	if _, ok := combinedRankMMR(text, "Ranked Standard 3v3"); ok {
		t.Fatal("combined strategy should not match without a Div marker")
	}

	rank, ok := chunkedRankMMR(text, "Ranked Standard 3v3")
	if !ok {
		t.Fatal("chunkedRankMMR() did not match")
	}
	if rank.Rank != "Gold II" {
		t.Errorf("rank = %q, want %q", rank.Rank, "Gold II")
	}
	if rank.MMR != 602 {
		t.Errorf("MMR = %d, want 602", rank.MMR)
	}
}

func TestExtractPlaylists_StrategyOrder(t *testing.T) {
	// Both strategies can match here; the combined one must win because it
	// captures the full rank label including the division.
	text := "Ranked Duel 1v1 823Div12Diamond II Div III"

	out := extractPlaylists(text)
	duel, ok := out["Ranked Duel 1v1"]
	if !ok {
		t.Fatal("missing Ranked Duel 1v1")
	}
	if duel.Rank != "Diamond II Div III" {
		t.Errorf("rank = %q, want %q", duel.Rank, "Diamond II Div III")
	}
}

func TestCanonicalPlaylist(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Ranked Standard 3v3", "Ranked Standard 3v3"},
		{"Ranked  Doubles  2v2", "Ranked Doubles 2v2"},
		{"Ranked Duel 1v1", "Ranked Duel 1v1"},
		{"Ranked 4v4 Quads 4v4", "Ranked 4v4 Quads 4v4"},
	}
	for _, c := range cases {
		if got := canonicalPlaylist(c.in); got != c.want {
			t.Errorf("canonicalPlaylist(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
