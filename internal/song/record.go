// Package song decodes raw song-post records and normalizes them into the
// canonical form shared by every generated view.
package song

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotObject reports a payload that is valid JSON but not a JSON object.
var ErrNotObject = errors.New("payload is not a JSON object")

// Text is a string field that tolerates non-string JSON values. Anything other
// than a JSON string decodes to the empty string.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = ""
		return nil
	}
	*t = Text(s)
	return nil
}

// Clean returns the trimmed value.
func (t Text) Clean() string {
	return strings.TrimSpace(string(t))
}

// LyricsKind tags the shape the lyrics field arrived in.
type LyricsKind int

// Supported lyrics shapes.
const (
	LyricsNone LyricsKind = iota
	LyricsText
	LyricsSequence
	LyricsUnsupported
)

func (k LyricsKind) String() string {
	switch k {
	case LyricsNone:
		return "none"
	case LyricsText:
		return "text"
	case LyricsSequence:
		return "sequence"
	default:
		return "unsupported"
	}
}

// stanzaFields lists the keys checked, in order, on object items of a lyrics sequence.
var stanzaFields = []string{"text", "lyric", "lyrics", "stanza", "verse"}

// Lyrics holds the lyrics field as a tagged variant.
//   - LyricsText: Text holds the raw string.
//   - LyricsSequence: Items holds one trimmed entry per usable element; elements
//     that yield nothing are dropped.
//   - LyricsUnsupported: Raw keeps the original JSON for diagnostics.
type Lyrics struct {
	Kind  LyricsKind
	Text  string
	Items []string
	Raw   json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler. It never fails; shapes outside the
// known variants are tagged LyricsUnsupported.
func (l *Lyrics) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*l = Lyrics{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			l.Kind = LyricsUnsupported
			l.Raw = append(json.RawMessage(nil), trimmed...)
			return nil
		}
		l.Kind = LyricsText
		l.Text = s
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			l.Kind = LyricsUnsupported
			l.Raw = append(json.RawMessage(nil), trimmed...)
			return nil
		}
		l.Kind = LyricsSequence
		for _, elem := range elems {
			if item, ok := sequenceItem(elem); ok {
				l.Items = append(l.Items, item)
			}
		}
	default:
		l.Kind = LyricsUnsupported
		l.Raw = append(json.RawMessage(nil), trimmed...)
	}
	return nil
}

func sequenceItem(elem json.RawMessage) (string, bool) {
	elem = bytes.TrimSpace(elem)
	if len(elem) == 0 {
		return "", false
	}
	switch elem[0] {
	case '"':
		var s string
		if err := json.Unmarshal(elem, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(elem, &fields); err != nil {
			return "", false
		}
		for _, key := range stanzaFields {
			raw, ok := fields[key]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// Record is one raw song post as stored on disk.
type Record struct {
	Slug            Text   `json:"slug"`
	Title           Text   `json:"title"`
	PostTitle       Text   `json:"post_title"`
	Author          Text   `json:"author"`
	Album           Text   `json:"album"`
	Lyrics          Lyrics `json:"lyrics"`
	YouTubeID       Text   `json:"youtube_id"`
	MetaDescription Text   `json:"meta_description"`
	GeneratedAt     Text   `json:"generated_at"`
	Content         Text   `json:"content"`
}

// DecodeRecord parses a single JSON object. Parse failures and non-object
// payloads are returned as errors; missing fields are not.
func DecodeRecord(data []byte) (Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Record{}, fmt.Errorf("decode record: %w", ErrNotObject)
	}
	if !json.Valid(trimmed) {
		return Record{}, fmt.Errorf("decode record: invalid JSON")
	}
	if trimmed[0] != '{' {
		return Record{}, fmt.Errorf("decode record: %w", ErrNotObject)
	}
	var rec Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
