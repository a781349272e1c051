package catalog

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coroscristianos/contentgen/internal/song"
)

func mkSong(slug, title, author, youtubeID string) song.Song {
	return song.Song{
		Slug:         slug,
		Title:        title,
		Author:       author,
		Authors:      song.SplitAuthors(author),
		Lyrics:       "Letra de " + title,
		Stanzas:      []string{"Letra de " + title},
		YouTubeID:    youtubeID,
		ThumbnailURL: song.ThumbnailURL(youtubeID, song.DefaultThumbnailTier),
	}
}

func slugs[T any](items []T, key func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, key(item))
	}
	return out
}

func TestGroupArtistsSharedCredits(t *testing.T) {
	t.Parallel()

	songs := []song.Song{
		mkSong("a", "A", "Juan Pérez", ""),
		mkSong("b", "B", "Juan Pérez, María", ""),
	}
	set := GroupArtists(songs)

	require.Len(t, set.ByName, 2)
	assert.Equal(t, "Juan Pérez", set.ByName[0].Name)
	assert.Equal(t, "juan-perez", set.ByName[0].Slug)
	assert.Equal(t, 2, set.ByName[0].SongCount())
	assert.Equal(t, "María", set.ByName[1].Name)
	assert.Equal(t, "maria", set.ByName[1].Slug)
	assert.Equal(t, []string{"b"}, slugs(set.ByName[1].Songs, func(s song.Song) string { return s.Slug }))
	assert.Empty(t, set.Dropped)

	index := BuildArtistIndex(set, "2024-01-01T00:00:00Z")
	assert.Equal(t, 2, index.TotalArtists)
	assert.Equal(t, []string{"juan-perez", "maria"}, index.Ranking)
}

func TestGroupArtistsFirstNameWinsAndDedupes(t *testing.T) {
	t.Parallel()

	songs := []song.Song{
		mkSong("x", "X", "Jose", ""),
		mkSong("y", "Y", "José, JOSE", ""),
	}
	set := GroupArtists(songs)

	require.Len(t, set.ByName, 1)
	assert.Equal(t, "Jose", set.ByName[0].Name)
	assert.Equal(t, 2, set.ByName[0].SongCount())
}

func TestGroupArtistsDropsEmptyAndReservedSlugs(t *testing.T) {
	t.Parallel()

	songs := []song.Song{
		mkSong("x", "X", "!!!, Index, Ana", ""),
	}
	set := GroupArtists(songs)

	require.Len(t, set.ByName, 1)
	assert.Equal(t, "ana", set.ByName[0].Slug)
	require.Len(t, set.Dropped, 2)
	assert.Equal(t, "!!!", set.Dropped[0].Author)
	assert.Equal(t, "Index", set.Dropped[1].Author)
}

func TestGroupArtistsSortsSongsAndRanking(t *testing.T) {
	t.Parallel()

	songs := []song.Song{
		mkSong("z", "Zafiro", "Beto", ""),
		mkSong("a", "Ábside", "Beto", ""),
		mkSong("m", "Mar", "Ana", "vid000001"),
		mkSong("n", "Nube", "Beto", "vid000002"),
	}
	set := GroupArtists(songs)

	assert.Equal(t, []string{"Ana", "Beto"}, slugs(set.ByName, func(a Artist) string { return a.Name }))
	assert.Equal(t, []string{"Beto", "Ana"}, slugs(set.Ranking, func(a Artist) string { return a.Name }))
	beto := set.Ranking[0]
	assert.Equal(t, []string{"Ábside", "Nube", "Zafiro"}, slugs(beto.Songs, func(s song.Song) string { return s.Title }))
	assert.Equal(t, song.ThumbnailURL("vid000002", ""), beto.ThumbnailURL())

	detail := beto.Detail(10)
	assert.Equal(t, 3, detail.SongCount)
	require.NotNil(t, detail.ThumbnailURL)
	assert.Nil(t, detail.Songs[0].YouTubeID)
	assert.Equal(t, "Letra de...", detail.Songs[0].LyricsPreview)
	assert.Equal(t, "beto.json", beto.FileName())
}

func TestPaginate(t *testing.T) {
	t.Parallel()

	var songs []song.Song
	for i := 0; i < 45; i++ {
		songs = append(songs, mkSong(fmt.Sprintf("s%02d", i), fmt.Sprintf("Canción %02d", i), "Ana", ""))
	}

	tests := []struct {
		name      string
		songs     []song.Song
		perPage   int
		wantPages int
		wantLast  int
	}{
		{name: "partial last page", songs: songs, perPage: 20, wantPages: 3, wantLast: 5},
		{name: "exact fit", songs: songs[:40], perPage: 20, wantPages: 2, wantLast: 20},
		{name: "single page", songs: songs[:3], perPage: 20, wantPages: 1, wantLast: 3},
		{name: "default size", songs: songs, perPage: 0, wantPages: 3, wantLast: 5},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pages := Paginate(tt.songs, tt.perPage, 220)
			require.Len(t, pages, tt.wantPages)
			var flat []string
			for i, p := range pages {
				assert.Equal(t, i, p.Page)
				assert.Equal(t, tt.wantPages, p.TotalPages)
				assert.Equal(t, len(tt.songs), p.TotalSongs)
				assert.Equal(t, p.From+len(p.Songs)-1, p.To)
				for _, s := range p.Songs {
					flat = append(flat, s.Title)
				}
			}
			assert.Len(t, pages[len(pages)-1].Songs, tt.wantLast)
			want := slugs(SortByTitle(tt.songs), func(s song.Song) string { return s.Title })
			assert.Equal(t, want, flat)
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	t.Parallel()

	pages := Paginate(nil, 20, 220)
	require.Len(t, pages, 1)
	assert.Equal(t, 0, pages[0].Page)
	assert.Equal(t, 1, pages[0].TotalPages)
	assert.Equal(t, 0, pages[0].From)
	assert.Equal(t, -1, pages[0].To)
	assert.NotNil(t, pages[0].Songs)

	index := BuildHomeIndex(pages, 20, "now")
	assert.Equal(t, []string{"home_0.json"}, index.Pages)
	assert.Equal(t, 0, index.TotalSongs)
}

func TestPageFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "home_12.json", PageFileName(12))
}

func TestBuildSearchIndex(t *testing.T) {
	t.Parallel()

	s := mkSong("b", "Bendito", "Ana", "")
	s.Album = "Vol. 1"
	entries := BuildSearchIndex([]song.Song{s, mkSong("a", "Alabad", "Beto", "")})

	require.Len(t, entries, 2)
	assert.Equal(t, SearchEntry{Title: "Alabad", Author: "Beto", Slug: "a"}, entries[0])
	data, err := json.Marshal(entries[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"Bendito","a":"Ana","s":"b","al":"Vol. 1"}`, string(data))
}

func TestCurateVideos(t *testing.T) {
	t.Parallel()

	var songs []song.Song
	for i := 0; i < 12; i++ {
		songs = append(songs, mkSong(fmt.Sprintf("p%02d", i), fmt.Sprintf("Prolífico %02d", i), "Prolífico", fmt.Sprintf("vidp%04d", i)))
	}
	for i := 0; i < 3; i++ {
		songs = append(songs, mkSong(fmt.Sprintf("t%d", i), fmt.Sprintf("Trío %d", i), "Trío", fmt.Sprintf("vidt%04d", i)))
	}
	songs = append(songs,
		mkSong("d1", "Duo 1", "Dúo", "vidd0001"),
		mkSong("d2", "Duo 2", "Dúo", "vidd0002"),
		mkSong("d3", "Duo 3", "Dúo", "short"),
		mkSong("u1", "U1", "", "vidu0001"),
		mkSong("u2", "U2", "", "vidu0002"),
		mkSong("u3", "U3", "", "vidu0003"),
	)
	set := GroupArtists(songs)
	buckets := CurateVideos(set.ByName, VideoOptions{ExcludedSlugs: []string{"desconocido"}})

	require.Len(t, buckets, 2)
	assert.Equal(t, "prolifico", buckets[0].ArtistSlug)
	assert.Equal(t, 12, buckets[0].VideoCount)
	assert.Equal(t, []string{"p00", "p02", "p04", "p06", "p08"},
		slugs(buckets[0].Videos, func(v VideoEntry) string { return v.Slug }))
	assert.Equal(t, "trio", buckets[1].ArtistSlug)
	assert.Len(t, buckets[1].Videos, 3)

	gallery := BuildGallery(buckets, "now")
	assert.Equal(t, 8, gallery.TotalVideos)
	assert.Equal(t, 2, gallery.TotalArtists)
	require.NotNil(t, gallery.Videos[0].ThumbnailURL)
	assert.Equal(t, "https://i.ytimg.com/vi/vidp0000/hqdefault.jpg", *gallery.Videos[0].ThumbnailURL)
}

func TestBuildGalleryEmpty(t *testing.T) {
	t.Parallel()

	gallery := BuildGallery(nil, "now")
	data, err := json.Marshal(gallery)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalVideos":0,"totalArtists":0,"generatedAt":"now","videos":[]}`, string(data))
}

func TestBuildLyricsFirstSlugWins(t *testing.T) {
	t.Parallel()

	first := mkSong("dup", "Primera", "Ana", "")
	second := mkSong("dup", "Segunda", "Ana", "")
	empty := mkSong("vacia", "Vacía", "Ana", "")
	empty.Lyrics, empty.Stanzas = "", nil

	docs := BuildLyrics([]song.Song{first, second, empty})
	require.Len(t, docs, 2)
	assert.Equal(t, "Primera", docs[0].Title)
	assert.Equal(t, "dup.json", docs[0].FileName())
	assert.Equal(t, []string{}, docs[1].LyricsStanzas)
	assert.Nil(t, docs[1].Album)
}

func TestRecentSongs(t *testing.T) {
	t.Parallel()

	older := mkSong("o", "Old", "Ana", "")
	older.GeneratedAt = "2024-01-01T00:00:00Z"
	newerB := mkSong("b", "Beta", "Ana", "")
	newerB.GeneratedAt = "2024-06-01T00:00:00Z"
	newerA := mkSong("a", "Alfa", "Ana", "")
	newerA.GeneratedAt = "2024-06-01 00:00:00"
	undated := mkSong("u", "Undated", "Ana", "")

	list := RecentSongs([]song.Song{older, newerB, undated, newerA}, 2, 220, "now")
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, []string{"a", "b"}, slugs(list.Songs, func(s HomeSong) string { return s.Slug }))
}
