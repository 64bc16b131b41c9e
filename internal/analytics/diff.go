package analytics

// DiffRanks fills Change on each current playlist entry by comparing it to
// the same playlist in the previous snapshot. Playlists without a previous
// entry report zero change.
func DiffRanks(current, previous []PlaylistDelta) []PlaylistDelta {
	prevMMR := make(map[string]int, len(previous))
	for _, p := range previous {
		prevMMR[p.Playlist] = p.MMR
	}

	out := make([]PlaylistDelta, len(current))
	for i, c := range current {
		c.Change = 0
		if mmr, ok := prevMMR[c.Playlist]; ok {
			c.Change = c.MMR - mmr
		}
		out[i] = c
	}
	return out
}
