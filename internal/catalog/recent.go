package catalog

import (
	"slices"

	"github.com/coroscristianos/contentgen/internal/song"
)

// RecentFile names the recent-songs document in the home pages directory.
const RecentFile = "recent.json"

// DefaultRecentLimit caps the recent-songs listing.
const DefaultRecentLimit = 180

// RecentList is the newest songs by generation timestamp.
type RecentList struct {
	Total       int        `json:"total"`
	GeneratedAt string     `json:"generatedAt"`
	Songs       []HomeSong `json:"songs"`
}

// RecentSongs returns up to limit songs with a parseable generated_at, newest
// first, ties by collated title.
func RecentSongs(songs []song.Song, limit, previewLen int, generatedAt string) RecentList {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	type dated struct {
		song song.Song
		ts   int64
	}
	var candidates []dated
	for _, s := range songs {
		if ts, ok := song.ParseGeneratedAt(s.GeneratedAt); ok {
			candidates = append(candidates, dated{song: s, ts: ts.UnixNano()})
		}
	}
	c := song.NewCollator()
	slices.SortStableFunc(candidates, func(a, b dated) int {
		switch {
		case a.ts > b.ts:
			return -1
		case a.ts < b.ts:
			return 1
		}
		return c.Compare(a.song.Title, b.song.Title)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]HomeSong, 0, len(candidates))
	for _, d := range candidates {
		out = append(out, newHomeSong(d.song, previewLen))
	}
	return RecentList{Total: len(out), GeneratedAt: generatedAt, Songs: out}
}
