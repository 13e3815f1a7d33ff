package codec

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/desertthunder/lipl/internal/models"
	"gopkg.in/yaml.v3"
)

// File extensions for per-record files.
const (
	LyricExt    = ".txt"
	PlaylistExt = ".yaml"
)

const frontmatterDelim = "---"

// Kind tells lyric files from playlist files.
type Kind int

const (
	KindUnknown Kind = iota
	KindLyric
	KindPlaylist
)

type frontmatter struct {
	Title string     `yaml:"title"`
	Parts [][]string `yaml:"parts,omitempty"`
}

type playlistDoc struct {
	Title   string      `yaml:"title"`
	Members []models.ID `yaml:"members"`
}

// LyricFileName returns "<id>.txt".
func LyricFileName(id models.ID) string {
	return id.String() + LyricExt
}

// PlaylistFileName returns "<id>.yaml".
func PlaylistFileName(id models.ID) string {
	return id.String() + PlaylistExt
}

// ParseFileName recovers the ID and record kind from a per-record file name.
// Names that are not "<canonical id>.txt" or "<canonical id>.yaml" yield [KindUnknown].
func ParseFileName(name string) (models.ID, Kind) {
	base := path.Base(name)
	ext := path.Ext(base)

	var kind Kind
	switch ext {
	case LyricExt:
		kind = KindLyric
	case PlaylistExt:
		kind = KindPlaylist
	default:
		return models.ID{}, KindUnknown
	}

	id, err := models.ParseID(strings.TrimSuffix(base, ext))
	if err != nil || id.String() != strings.TrimSuffix(base, ext) {
		return models.ID{}, KindUnknown
	}
	return id, kind
}

// PartsToText renders parts as lines joined by newlines, parts separated by a blank line.
func PartsToText(parts [][]string) string {
	rendered := make([]string, 0, len(parts))
	for _, part := range parts {
		rendered = append(rendered, strings.Join(part, "\n"))
	}
	return strings.Join(rendered, "\n\n")
}

// TextToParts splits text into parts at blank lines. Lines are trimmed and empty parts dropped.
func TextToParts(text string) [][]string {
	parts := [][]string{}
	var current []string

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				parts = append(parts, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}

	if len(current) > 0 {
		parts = append(parts, current)
	}
	return parts
}

// PlainText reports whether parts survive [PartsToText] followed by [TextToParts] unchanged:
// every part has lines, and no line is empty, padded or multi-line.
func PlainText(parts [][]string) bool {
	for _, part := range parts {
		if len(part) == 0 {
			return false
		}
		for _, line := range part {
			if line == "" || line != strings.TrimSpace(line) || strings.ContainsAny(line, "\r\n") {
				return false
			}
		}
	}
	return true
}

// EncodeLyric renders a lyric as frontmatter plus text. The ID lives in the file name, not the content.
//
// Parts that the text layout cannot hold exactly go into the frontmatter instead and the body stays empty.
func EncodeLyric(lyric models.Lyric) ([]byte, error) {
	header := frontmatter{Title: lyric.Title}
	plain := PlainText(lyric.Parts)
	if !plain {
		header.Parts = models.CloneParts(lyric.Parts)
	}

	fm, err := yaml.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim + "\n")
	buf.Write(fm)
	buf.WriteString(frontmatterDelim + "\n")
	if text := PartsToText(lyric.Parts); plain && text != "" {
		buf.WriteString("\n")
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// DecodeLyric parses content written by [EncodeLyric]. Content without frontmatter has an empty title.
// Parts from the frontmatter take precedence over the body.
func DecodeLyric(id models.ID, data []byte) (models.Lyric, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var fm frontmatter
	if rest, ok := strings.CutPrefix(text, frontmatterDelim+"\n"); ok {
		header, body, found := cutDelimiter(rest)
		if !found {
			return models.Lyric{}, fmt.Errorf("lyric %s: unterminated frontmatter", id)
		}
		if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
			return models.Lyric{}, fmt.Errorf("lyric %s: failed to parse frontmatter: %w", id, err)
		}
		text = body
	}

	if fm.Parts != nil {
		return models.Lyric{ID: id, Title: fm.Title, Parts: models.CloneParts(fm.Parts)}, nil
	}
	return models.Lyric{ID: id, Title: fm.Title, Parts: TextToParts(text)}, nil
}

// cutDelimiter splits s at the first line consisting of the frontmatter delimiter.
func cutDelimiter(s string) (header, body string, found bool) {
	if rest, ok := strings.CutPrefix(s, frontmatterDelim+"\n"); ok {
		return "", rest, true
	}
	if s == frontmatterDelim {
		return "", "", true
	}
	if header, body, found = strings.Cut(s, "\n"+frontmatterDelim+"\n"); found {
		return header, body, true
	}
	if header, found = strings.CutSuffix(s, "\n"+frontmatterDelim); found {
		return header, "", true
	}
	return "", "", false
}

// EncodePlaylist renders a playlist's title and members as YAML.
func EncodePlaylist(playlist models.Playlist) ([]byte, error) {
	data, err := yaml.Marshal(playlistDoc{Title: playlist.Title, Members: models.CloneMembers(playlist.Members)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode playlist %s: %w", playlist.ID, err)
	}
	return data, nil
}

// DecodePlaylist parses content written by [EncodePlaylist].
func DecodePlaylist(id models.ID, data []byte) (models.Playlist, error) {
	var doc playlistDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return models.Playlist{}, fmt.Errorf("playlist %s: failed to parse: %w", id, err)
	}
	return models.Playlist{ID: id, Title: doc.Title, Members: models.CloneMembers(doc.Members)}, nil
}
