package catalog

import (
	"slices"
	"strings"

	"github.com/coroscristianos/contentgen/internal/song"
)

// Video curation defaults.
const (
	DefaultMaxVideosPerArtist = 5
	DefaultMinVideosToQualify = 3
	DefaultMinVideoIDLength   = 6
)

// VideoOptions tunes CurateVideos.
type VideoOptions struct {
	MaxPerArtist  int
	MinToQualify  int
	MinIDLength   int
	ExcludedSlugs []string
	ThumbnailTier string
}

func (o VideoOptions) withDefaults() VideoOptions {
	if o.MaxPerArtist <= 0 {
		o.MaxPerArtist = DefaultMaxVideosPerArtist
	}
	if o.MinToQualify <= 0 {
		o.MinToQualify = DefaultMinVideosToQualify
	}
	if o.MinIDLength <= 0 {
		o.MinIDLength = DefaultMinVideoIDLength
	}
	return o
}

// VideoEntry is one curated video.
type VideoEntry struct {
	YouTubeID    string  `json:"youtubeId"`
	Title        string  `json:"title"`
	Slug         string  `json:"slug"`
	Artist       string  `json:"artist"`
	ArtistSlug   string  `json:"artistSlug"`
	Album        *string `json:"album"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

// VideoBucket is the selection made for one artist.
type VideoBucket struct {
	Artist     string
	ArtistSlug string
	// VideoCount counts every qualifying song, not just the selected ones.
	VideoCount int
	Videos     []VideoEntry
}

// VideoGallery is the published video document.
type VideoGallery struct {
	TotalVideos  int          `json:"totalVideos"`
	TotalArtists int          `json:"totalArtists"`
	GeneratedAt  string       `json:"generatedAt"`
	Videos       []VideoEntry `json:"videos"`
}

// CurateVideos samples up to MaxPerArtist videos from every artist with at
// least MinToQualify songs carrying a usable YouTube id. Songs are walked with
// a fixed stride of max(1, count/MaxPerArtist) so the selection spreads across
// the artist's catalog. Buckets are ordered by VideoCount descending, ties by
// artist name.
func CurateVideos(artists []Artist, opts VideoOptions) []VideoBucket {
	opts = opts.withDefaults()
	var buckets []VideoBucket
	for _, artist := range artists {
		if slices.Contains(opts.ExcludedSlugs, artist.Slug) {
			continue
		}
		var withVideo []song.Song
		for _, s := range artist.Songs {
			if len(strings.TrimSpace(s.YouTubeID)) >= opts.MinIDLength {
				withVideo = append(withVideo, s)
			}
		}
		if len(withVideo) < opts.MinToQualify {
			continue
		}
		step := max(1, len(withVideo)/opts.MaxPerArtist)
		picked := make([]VideoEntry, 0, opts.MaxPerArtist)
		for i := 0; i < len(withVideo) && len(picked) < opts.MaxPerArtist; i += step {
			s := withVideo[i]
			thumb := s.ThumbnailURL
			if thumb == "" {
				thumb = song.ThumbnailURL(s.YouTubeID, opts.ThumbnailTier)
			}
			picked = append(picked, VideoEntry{
				YouTubeID:    s.YouTubeID,
				Title:        s.Title,
				Slug:         s.Slug,
				Artist:       artist.Name,
				ArtistSlug:   artist.Slug,
				Album:        nullable(s.Album),
				ThumbnailURL: nullable(thumb),
			})
		}
		buckets = append(buckets, VideoBucket{
			Artist:     artist.Name,
			ArtistSlug: artist.Slug,
			VideoCount: len(withVideo),
			Videos:     picked,
		})
	}

	c := song.NewCollator()
	slices.SortStableFunc(buckets, func(a, b VideoBucket) int {
		if a.VideoCount != b.VideoCount {
			return b.VideoCount - a.VideoCount
		}
		return c.Compare(a.Artist, b.Artist)
	})
	return buckets
}

// BuildGallery flattens buckets into the published document.
func BuildGallery(buckets []VideoBucket, generatedAt string) VideoGallery {
	videos := make([]VideoEntry, 0)
	for _, b := range buckets {
		videos = append(videos, b.Videos...)
	}
	return VideoGallery{
		TotalVideos:  len(videos),
		TotalArtists: len(buckets),
		GeneratedAt:  generatedAt,
		Videos:       videos,
	}
}
