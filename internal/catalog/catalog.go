// Package catalog derives the published views (artist bundles, home pages,
// search index, video gallery, lyrics files) from normalized songs. Every
// function is pure: identical input yields identical output.
package catalog

import (
	"slices"

	"github.com/coroscristianos/contentgen/internal/song"
)

// ArtistSong is the per-song projection embedded in artist files.
type ArtistSong struct {
	Slug            string  `json:"slug"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Album           *string `json:"album"`
	MetaDescription string  `json:"metaDescription"`
	LyricsPreview   string  `json:"lyricsPreview"`
	YouTubeID       *string `json:"youtubeId"`
	ThumbnailURL    *string `json:"thumbnailUrl"`
	GeneratedAt     *string `json:"generatedAt"`
}

// HomeSong is the per-song projection embedded in home pages.
type HomeSong struct {
	Slug            string   `json:"slug"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Authors         []string `json:"authors"`
	Album           *string  `json:"album"`
	MetaDescription string   `json:"metaDescription"`
	LyricsPreview   string   `json:"lyricsPreview"`
	YouTubeID       *string  `json:"youtubeId"`
	ThumbnailURL    *string  `json:"thumbnailUrl"`
	GeneratedAt     *string  `json:"generatedAt"`
}

func newArtistSong(s song.Song, previewLen int) ArtistSong {
	return ArtistSong{
		Slug:            s.Slug,
		Title:           s.Title,
		Author:          s.Author,
		Album:           nullable(s.Album),
		MetaDescription: s.MetaDescription,
		LyricsPreview:   song.Preview(s.Lyrics, previewLen),
		YouTubeID:       nullable(s.YouTubeID),
		ThumbnailURL:    nullable(s.ThumbnailURL),
		GeneratedAt:     nullable(s.GeneratedAt),
	}
}

func newHomeSong(s song.Song, previewLen int) HomeSong {
	return HomeSong{
		Slug:            s.Slug,
		Title:           s.Title,
		Author:          s.Author,
		Authors:         append([]string{}, s.Authors...),
		Album:           nullable(s.Album),
		MetaDescription: s.MetaDescription,
		LyricsPreview:   song.Preview(s.Lyrics, previewLen),
		YouTubeID:       nullable(s.YouTubeID),
		ThumbnailURL:    nullable(s.ThumbnailURL),
		GeneratedAt:     nullable(s.GeneratedAt),
	}
}

// SortByTitle returns a copy of songs ordered by Spanish-collated title. Equal
// titles keep their input order.
func SortByTitle(songs []song.Song) []song.Song {
	sorted := slices.Clone(songs)
	c := song.NewCollator()
	slices.SortStableFunc(sorted, func(a, b song.Song) int {
		return c.Compare(a.Title, b.Title)
	})
	return sorted
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
