package song

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// ErrInvalidRecord marks a record lacking a slug or title after trimming, or
// whose slug cannot name a single output file.
var ErrInvalidRecord = errors.New("invalid song record")

// UnknownAuthor is the display name used when a record carries no author.
const UnknownAuthor = "Desconocido"

// Defaults applied by NewNormalizer when options are left zero.
const (
	DefaultPreviewLength = 180
	DefaultStanzaGap     = 4
	DefaultThumbnailTier = "hqdefault"
	ellipsis             = "..."
	thumbnailTemplate    = "https://i.ytimg.com/vi/%s/%s.jpg"
)

// Options configures a Normalizer.
type Options struct {
	// PreviewLength bounds Song.LyricsPreview. Truncated previews keep
	// PreviewLength-1 runes followed by the ellipsis marker.
	PreviewLength int
	// StanzaGap is the minimum run of newlines that separates stanzas in a
	// single-string lyrics field. It is also the separator width used when
	// stanzas are joined back together.
	StanzaGap int
	// ThumbnailTier selects the i.ytimg.com image variant (hqdefault, mqdefault, ...).
	ThumbnailTier string
}

// Song is the normalized form of a Record.
type Song struct {
	Slug            string
	Title           string
	PostTitle       string
	Author          string
	Authors         []string
	Album           string
	MetaDescription string
	Lyrics          string
	Stanzas         []string
	LyricsPreview   string
	LyricsKind      LyricsKind
	YouTubeID       string
	ThumbnailURL    string
	GeneratedAt     string
	Content         string
	SourceFile      string
}

// Normalizer turns records into songs. It is safe for concurrent use.
type Normalizer struct {
	opts      Options
	gap       *regexp.Regexp
	separator string
}

// NewNormalizer builds a Normalizer, filling zero options with defaults.
func NewNormalizer(opts Options) *Normalizer {
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = DefaultPreviewLength
	}
	if opts.StanzaGap < 2 {
		opts.StanzaGap = DefaultStanzaGap
	}
	if strings.TrimSpace(opts.ThumbnailTier) == "" {
		opts.ThumbnailTier = DefaultThumbnailTier
	}
	return &Normalizer{
		opts:      opts,
		gap:       regexp.MustCompile(fmt.Sprintf(`\n{%d,}`, opts.StanzaGap)),
		separator: strings.Repeat("\n", opts.StanzaGap),
	}
}

// Separator is the string placed between stanzas when they are joined.
func (n *Normalizer) Separator() string {
	return n.separator
}

// Normalize derives a Song from rec. It only fails, with ErrInvalidRecord,
// when slug or title is empty after trimming.
func (n *Normalizer) Normalize(rec Record) (Song, error) {
	slug := rec.Slug.Clean()
	title := rec.Title.Clean()
	switch {
	case slug == "" && title == "":
		return Song{}, fmt.Errorf("%w: slug and title are empty", ErrInvalidRecord)
	case slug == "":
		return Song{}, fmt.Errorf("%w: slug is empty", ErrInvalidRecord)
	case title == "":
		return Song{}, fmt.Errorf("%w: title is empty", ErrInvalidRecord)
	case !isPathSegment(slug):
		return Song{}, fmt.Errorf("%w: slug %q is not a single path segment", ErrInvalidRecord, slug)
	}

	author := rec.Author.Clean()
	if author == "" {
		author = UnknownAuthor
	}
	stanzas := n.ExtractStanzas(rec.Lyrics)
	lyrics := strings.Join(stanzas, n.separator)
	youtubeID := rec.YouTubeID.Clean()

	return Song{
		Slug:            slug,
		Title:           title,
		PostTitle:       rec.PostTitle.Clean(),
		Author:          author,
		Authors:         SplitAuthors(author),
		Album:           rec.Album.Clean(),
		MetaDescription: rec.MetaDescription.Clean(),
		Lyrics:          lyrics,
		Stanzas:         stanzas,
		LyricsPreview:   Preview(lyrics, n.opts.PreviewLength),
		LyricsKind:      rec.Lyrics.Kind,
		YouTubeID:       youtubeID,
		ThumbnailURL:    ThumbnailURL(youtubeID, n.opts.ThumbnailTier),
		GeneratedAt:     rec.GeneratedAt.Clean(),
		Content:         rec.Content.Clean(),
	}, nil
}

// ExtractStanzas maps the lyrics variant to an ordered list of non-empty stanzas.
func (n *Normalizer) ExtractStanzas(l Lyrics) []string {
	switch l.Kind {
	case LyricsSequence:
		stanzas := []string{}
		for _, item := range l.Items {
			stanzas = append(stanzas, n.SplitStanzas(item)...)
		}
		return stanzas
	case LyricsText:
		return n.SplitStanzas(l.Text)
	default:
		return []string{}
	}
}

// SplitStanzas splits text on runs of StanzaGap or more newlines. When the
// split yields a single segment the whole trimmed text is the only stanza.
func (n *Normalizer) SplitStanzas(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}
	}
	var parts []string
	for _, part := range n.gap.Split(text, -1) {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) > 1 {
		return parts
	}
	return []string{text}
}

// isPathSegment reports whether slug can name a file directly inside an
// output directory.
func isPathSegment(slug string) bool {
	return !strings.ContainsAny(slug, `/\`) && !strings.Contains(slug, "..") && slug != "."
}

// SplitAuthors splits a comma separated author list, dropping empty names.
func SplitAuthors(author string) []string {
	var authors []string
	for _, token := range strings.Split(author, ",") {
		if token = strings.TrimSpace(token); token != "" {
			authors = append(authors, token)
		}
	}
	if len(authors) == 0 {
		return []string{UnknownAuthor}
	}
	return authors
}

// Preview collapses whitespace and truncates to maxLen runes, ending truncated
// output with an ellipsis.
func Preview(text string, maxLen int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= maxLen {
		return collapsed
	}
	cut := maxLen - 1
	if cut < 0 {
		cut = 0
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace) + ellipsis
}

// ThumbnailURL returns the YouTube thumbnail for id at the given tier, or ""
// when id is blank.
func ThumbnailURL(youtubeID, tier string) string {
	youtubeID = strings.TrimSpace(youtubeID)
	if youtubeID == "" {
		return ""
	}
	if tier == "" {
		tier = DefaultThumbnailTier
	}
	return fmt.Sprintf(thumbnailTemplate, encodeComponent(youtubeID), tier)
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

var generatedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseGeneratedAt parses a generation timestamp. The boolean is false when
// the value is empty or unparseable.
func ParseGeneratedAt(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range generatedAtLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
