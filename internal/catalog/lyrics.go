package catalog

import "github.com/coroscristianos/contentgen/internal/song"

// LyricsDoc is the lyrics-only document fetched on demand per song.
type LyricsDoc struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Author        string   `json:"author"`
	Album         *string  `json:"album"`
	Lyrics        string   `json:"lyrics"`
	LyricsStanzas []string `json:"lyricsStanzas"`
}

// FileName is the lyrics document name.
func (d LyricsDoc) FileName() string {
	return d.Slug + ".json"
}

// BuildLyrics returns one document per distinct song slug; the first song
// seen for a slug wins.
func BuildLyrics(songs []song.Song) []LyricsDoc {
	seen := make(map[string]struct{}, len(songs))
	docs := make([]LyricsDoc, 0, len(songs))
	for _, s := range songs {
		if _, dup := seen[s.Slug]; dup || s.Slug == "" {
			continue
		}
		seen[s.Slug] = struct{}{}
		stanzas := s.Stanzas
		if stanzas == nil {
			stanzas = []string{}
		}
		docs = append(docs, LyricsDoc{
			Title:         s.Title,
			Slug:          s.Slug,
			Author:        s.Author,
			Album:         nullable(s.Album),
			Lyrics:        s.Lyrics,
			LyricsStanzas: stanzas,
		})
	}
	return docs
}
