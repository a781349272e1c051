package catalog

import (
	"slices"

	"github.com/coroscristianos/contentgen/internal/song"
)

// IndexFile is the summary document written next to per-entity files.
const IndexFile = "index.json"

// ReservedSlugs cannot be used as artist file names.
var ReservedSlugs = []string{"index"}

// Artist groups the songs credited to one artist slug. A song with several
// authors appears in several artists.
type Artist struct {
	Name  string
	Slug  string
	Songs []song.Song
}

// SongCount is the number of songs credited to the artist.
func (a Artist) SongCount() int {
	return len(a.Songs)
}

// ThumbnailURL is the first thumbnail found in song order, or "" if none.
func (a Artist) ThumbnailURL() string {
	for _, s := range a.Songs {
		if s.ThumbnailURL != "" {
			return s.ThumbnailURL
		}
	}
	return ""
}

// DroppedCredit is an author attribution that produced no artist.
type DroppedCredit struct {
	SongSlug string
	Author   string
	Reason   string
}

// ArtistSet holds the grouped artists in both published orders.
type ArtistSet struct {
	// ByName is ordered by collated display name.
	ByName []Artist
	// Ranking is ordered by song count, descending, ties by name.
	Ranking []Artist
	Dropped []DroppedCredit
}

// GroupArtists credits each song to every one of its authors. The first
// display name seen for a slug becomes the artist name. A song is credited at
// most once per slug. Authors whose slug is empty or reserved are reported in
// Dropped.
func GroupArtists(songs []song.Song) ArtistSet {
	var (
		order   []string
		bySlug  = make(map[string]*Artist)
		dropped []DroppedCredit
	)
	for _, s := range songs {
		credited := make(map[string]struct{}, len(s.Authors))
		for _, name := range s.Authors {
			slug := song.Slugify(name)
			if _, dup := credited[slug]; dup {
				continue
			}
			switch {
			case slug == "":
				dropped = append(dropped, DroppedCredit{SongSlug: s.Slug, Author: name, Reason: "empty artist slug"})
				continue
			case slices.Contains(ReservedSlugs, slug):
				dropped = append(dropped, DroppedCredit{SongSlug: s.Slug, Author: name, Reason: "reserved artist slug " + slug})
				continue
			}
			credited[slug] = struct{}{}
			artist, ok := bySlug[slug]
			if !ok {
				artist = &Artist{Name: name, Slug: slug}
				bySlug[slug] = artist
				order = append(order, slug)
			}
			artist.Songs = append(artist.Songs, s)
		}
	}

	byName := make([]Artist, 0, len(order))
	for _, slug := range order {
		artist := bySlug[slug]
		artist.Songs = SortByTitle(artist.Songs)
		byName = append(byName, *artist)
	}

	c := song.NewCollator()
	slices.SortStableFunc(byName, func(a, b Artist) int {
		return c.Compare(a.Name, b.Name)
	})
	ranking := slices.Clone(byName)
	slices.SortStableFunc(ranking, func(a, b Artist) int {
		if a.SongCount() != b.SongCount() {
			return b.SongCount() - a.SongCount()
		}
		return c.Compare(a.Name, b.Name)
	})

	return ArtistSet{ByName: byName, Ranking: ranking, Dropped: dropped}
}

// ArtistDetail is the per-artist document.
type ArtistDetail struct {
	Name         string       `json:"name"`
	Slug         string       `json:"slug"`
	SongCount    int          `json:"songCount"`
	ThumbnailURL *string      `json:"thumbnailUrl"`
	Songs        []ArtistSong `json:"songs"`
}

// ArtistSummary is one row of the artist index.
type ArtistSummary struct {
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	SongCount    int     `json:"songCount"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

// ArtistIndex lists every artist without songs.
type ArtistIndex struct {
	TotalArtists int             `json:"totalArtists"`
	GeneratedAt  string          `json:"generatedAt"`
	Artists      []ArtistSummary `json:"artists"`
	// Ranking lists artist slugs by song count.
	Ranking []string `json:"ranking"`
}

// Detail projects the artist into its published document.
func (a Artist) Detail(previewLen int) ArtistDetail {
	songs := make([]ArtistSong, 0, len(a.Songs))
	for _, s := range a.Songs {
		songs = append(songs, newArtistSong(s, previewLen))
	}
	return ArtistDetail{
		Name:         a.Name,
		Slug:         a.Slug,
		SongCount:    a.SongCount(),
		ThumbnailURL: nullable(a.ThumbnailURL()),
		Songs:        songs,
	}
}

// FileName is the artist document name.
func (a Artist) FileName() string {
	return a.Slug + ".json"
}

// BuildArtistIndex summarises the set.
func BuildArtistIndex(set ArtistSet, generatedAt string) ArtistIndex {
	artists := make([]ArtistSummary, 0, len(set.ByName))
	for _, a := range set.ByName {
		artists = append(artists, ArtistSummary{
			Name:         a.Name,
			Slug:         a.Slug,
			SongCount:    a.SongCount(),
			ThumbnailURL: nullable(a.ThumbnailURL()),
		})
	}
	ranking := make([]string, 0, len(set.Ranking))
	for _, a := range set.Ranking {
		ranking = append(ranking, a.Slug)
	}
	return ArtistIndex{
		TotalArtists: len(artists),
		GeneratedAt:  generatedAt,
		Artists:      artists,
		Ranking:      ranking,
	}
}
