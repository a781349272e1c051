package catalog

import (
	"fmt"

	"github.com/coroscristianos/contentgen/internal/song"
)

// DefaultPerPage is the home listing page size.
const DefaultPerPage = 20

// PageFilePrefix prefixes every home page document name.
const PageFilePrefix = "home_"

// HomePage is one window of the title-sorted song list. From and To are the
// 0-based inclusive ranks covered by the page; To is From-1 on an empty page.
type HomePage struct {
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
	TotalSongs int        `json:"totalSongs"`
	PerPage    int        `json:"perPage"`
	From       int        `json:"from"`
	To         int        `json:"to"`
	Songs      []HomeSong `json:"songs"`
}

// HomeIndex describes the full set of home pages.
type HomeIndex struct {
	TotalSongs  int      `json:"totalSongs"`
	TotalPages  int      `json:"totalPages"`
	PerPage     int      `json:"perPage"`
	GeneratedAt string   `json:"generatedAt"`
	Pages       []string `json:"pages"`
}

// PageFileName names the document for the 0-based page n.
func PageFileName(n int) string {
	return fmt.Sprintf("%s%d.json", PageFilePrefix, n)
}

// TotalPages is ceil(total/perPage), never less than 1.
func TotalPages(total, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	pages := (total + perPage - 1) / perPage
	return max(pages, 1)
}

// Paginate sorts songs by title and splits them into consecutive pages of
// perPage songs. There is always at least one page.
func Paginate(songs []song.Song, perPage, previewLen int) []HomePage {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	sorted := SortByTitle(songs)
	totalPages := TotalPages(len(sorted), perPage)
	pages := make([]HomePage, 0, totalPages)
	for page := 0; page < totalPages; page++ {
		start := page * perPage
		end := min(start+perPage, len(sorted))
		window := make([]HomeSong, 0, end-start)
		for _, s := range sorted[start:end] {
			window = append(window, newHomeSong(s, previewLen))
		}
		pages = append(pages, HomePage{
			Page:       page,
			TotalPages: totalPages,
			TotalSongs: len(sorted),
			PerPage:    perPage,
			From:       start,
			To:         start + len(window) - 1,
			Songs:      window,
		})
	}
	return pages
}

// BuildHomeIndex summarises pages.
func BuildHomeIndex(pages []HomePage, perPage int, generatedAt string) HomeIndex {
	names := make([]string, 0, len(pages))
	total := 0
	for _, p := range pages {
		names = append(names, PageFileName(p.Page))
		total = p.TotalSongs
	}
	return HomeIndex{
		TotalSongs:  total,
		TotalPages:  len(pages),
		PerPage:     perPage,
		GeneratedAt: generatedAt,
		Pages:       names,
	}
}

// DefaultHomePreviewLength bounds lyric previews on home pages.
const DefaultHomePreviewLength = 220
