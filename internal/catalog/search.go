package catalog

import (
	"slices"

	"github.com/coroscristianos/contentgen/internal/song"
)

// SearchEntry is one row of the client-side search index. Keys are kept short
// to reduce the payload.
type SearchEntry struct {
	Title  string `json:"t"`
	Author string `json:"a"`
	Slug   string `json:"s"`
	Album  string `json:"al"`
}

// BuildSearchIndex returns one entry per song with a slug, ordered by title.
func BuildSearchIndex(songs []song.Song) []SearchEntry {
	entries := make([]SearchEntry, 0, len(songs))
	for _, s := range songs {
		if s.Slug == "" {
			continue
		}
		entries = append(entries, SearchEntry{
			Title:  s.Title,
			Author: s.Author,
			Slug:   s.Slug,
			Album:  s.Album,
		})
	}
	c := song.NewCollator()
	slices.SortStableFunc(entries, func(a, b SearchEntry) int {
		return c.Compare(a.Title, b.Title)
	})
	return entries
}
