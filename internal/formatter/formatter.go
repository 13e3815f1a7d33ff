// package formatter renders a playlist and its lyrics as a songbook (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/lipl/internal/codec"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
)

// Format names accepted by [ParseFormat].
const (
	FormatMarkdown = "md"
	FormatText     = "txt"
	FormatCSV      = "csv"
)

// Entry is one playlist position. Lyric is nil when the member no longer resolves.
type Entry struct {
	Position int
	ID       models.ID
	Lyric    *models.Lyric
}

// Songbook is a playlist with its members resolved in order.
type Songbook struct {
	Playlist models.Playlist
	Entries  []Entry
}

// Missing counts entries whose lyric could not be found.
func (b Songbook) Missing() int {
	n := 0
	for _, e := range b.Entries {
		if e.Lyric == nil {
			n++
		}
	}
	return n
}

// Collect reads the playlist and resolves each member against repo.
//
// A member that is not found becomes an empty entry; any other error aborts.
func Collect(ctx context.Context, repo models.Repository, id models.ID) (Songbook, error) {
	playlist, err := repo.GetPlaylist(ctx, id)
	if err != nil {
		return Songbook{}, err
	}

	book := Songbook{Playlist: playlist, Entries: make([]Entry, 0, len(playlist.Members))}
	for i, member := range playlist.Members {
		entry := Entry{Position: i + 1, ID: member}
		lyric, err := repo.GetLyric(ctx, member)
		switch {
		case err == nil:
			entry.Lyric = &lyric
		case errors.Is(err, shared.ErrNotFound):
		default:
			return Songbook{}, err
		}
		book.Entries = append(book.Entries, entry)
	}
	return book, nil
}

// ParseFormat maps a format name or file extension to a format constant.
func ParseFormat(name string) (string, error) {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, name)
}

// Export renders book in the given format.
func Export(book Songbook, format string) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return ExportToMarkdown(book)
	case FormatText:
		return ExportToText(book)
	case FormatCSV:
		return ExportToCSV(book)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
}

// ExportToCSV writes one row per position with columns: Position, ID, Title, Parts, Lines
func ExportToCSV(book Songbook) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Parts", "Lines"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range book.Entries {
		record := []string{strconv.Itoa(entry.Position), entry.ID.String(), "", "0", "0"}
		if entry.Lyric != nil {
			record[2] = entry.Lyric.Title
			record[3] = strconv.Itoa(len(entry.Lyric.Parts))
			record[4] = strconv.Itoa(lineCount(entry.Lyric.Parts))
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown writes a table of contents followed by every lyric as its own section.
func ExportToMarkdown(book Songbook) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", book.Playlist.Title)
	fmt.Fprintf(&buf, "**Lyrics**: %d\n", len(book.Entries))
	if missing := book.Missing(); missing > 0 {
		fmt.Fprintf(&buf, "**Missing**: %d\n", missing)
	}
	buf.WriteString("\n## Contents\n\n")
	for _, entry := range book.Entries {
		fmt.Fprintf(&buf, "%d. %s\n", entry.Position, entryTitle(entry))
	}

	for _, entry := range book.Entries {
		if entry.Lyric == nil {
			continue
		}
		fmt.Fprintf(&buf, "\n## %d. %s\n\n", entry.Position, entry.Lyric.Title)
		for i, part := range entry.Lyric.Parts {
			if i > 0 {
				buf.WriteString("\n")
			}
			for _, line := range part {
				fmt.Fprintf(&buf, "%s  \n", line)
			}
		}
	}

	return buf.Bytes(), nil
}

// ExportToText writes the playlist header and each lyric in the on-disk text layout.
func ExportToText(book Songbook) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", book.Playlist.Title)
	fmt.Fprintf(&buf, "Lyrics: %d\n", len(book.Entries))

	for _, entry := range book.Entries {
		fmt.Fprintf(&buf, "\n%d. %s\n", entry.Position, entryTitle(entry))
		if entry.Lyric != nil && len(entry.Lyric.Parts) > 0 {
			buf.WriteString("\n")
			buf.WriteString(codec.PartsToText(entry.Lyric.Parts))
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

// WriteExport renders book and writes it to path.
//
// Defaults to {playlist.ID}.{format} as the filename.
func WriteExport(book Songbook, format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.%s", book.Playlist.ID, format)
	}

	data, err := Export(book, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func entryTitle(entry Entry) string {
	if entry.Lyric == nil {
		return fmt.Sprintf("(missing %s)", entry.ID)
	}
	return entry.Lyric.Title
}

func lineCount(parts [][]string) int {
	n := 0
	for _, part := range parts {
		n += len(part)
	}
	return n
}
