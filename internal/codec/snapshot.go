package codec

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
	"gopkg.in/yaml.v3"
)

// Format identifies a snapshot file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatArchive
)

// FormatOf picks the snapshot format from a path's extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".zip":
		return FormatArchive
	default:
		return FormatUnknown
	}
}

// Load decodes a YAML snapshot.
func Load(r io.Reader) (models.Snapshot, error) {
	var snap models.Snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return models.Snapshot{Lyrics: []models.Lyric{}, Playlists: []models.Playlist{}}, nil
		}
		return models.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return normalize(snap), nil
}

// Save encodes snap as YAML with both collections sorted by title.
func Save(w io.Writer, snap models.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap.Sorted()); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	return nil
}

// WriteArchive packs every record of snap into a zip archive of per-record files.
func WriteArchive(w io.Writer, snap models.Snapshot) error {
	zw := zip.NewWriter(w)
	snap = snap.Sorted()

	for _, lyric := range snap.Lyrics {
		data, err := EncodeLyric(lyric)
		if err != nil {
			return err
		}
		if err := writeEntry(zw, LyricFileName(lyric.ID), data); err != nil {
			return err
		}
	}

	for _, playlist := range snap.Playlists {
		data, err := EncodePlaylist(playlist)
		if err != nil {
			return err
		}
		if err := writeEntry(zw, PlaylistFileName(playlist.ID), data); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", name, err)
	}
	return nil
}

// ReadArchive unpacks an archive written by [WriteArchive]. Entries with unrecognised names are skipped.
func ReadArchive(r io.ReaderAt, size int64) (models.Snapshot, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to open archive: %w", err)
	}

	snap := models.Snapshot{Lyrics: []models.Lyric{}, Playlists: []models.Playlist{}}
	for _, f := range zr.File {
		id, kind := ParseFileName(f.Name)
		if kind == KindUnknown || f.FileInfo().IsDir() {
			continue
		}

		data, err := readEntry(f)
		if err != nil {
			return models.Snapshot{}, err
		}

		switch kind {
		case KindLyric:
			lyric, err := DecodeLyric(id, data)
			if err != nil {
				return models.Snapshot{}, err
			}
			snap.Lyrics = append(snap.Lyrics, lyric)
		case KindPlaylist:
			playlist, err := DecodePlaylist(id, data)
			if err != nil {
				return models.Snapshot{}, err
			}
			snap.Playlists = append(snap.Playlists, playlist)
		}
	}

	return snap, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive entry %s: %w", f.Name, err)
	}
	return data, nil
}

// ReadFile loads a snapshot from path, choosing the format by extension.
func ReadFile(path string) (models.Snapshot, error) {
	format := FormatOf(path)
	if format == FormatUnknown {
		return models.Snapshot{}, fmt.Errorf("%w: unsupported snapshot extension %q", shared.ErrInvalidArgument, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if format == FormatArchive {
		return ReadArchive(bytes.NewReader(data), int64(len(data)))
	}
	return Load(bytes.NewReader(data))
}

// WriteFile saves snap to path, choosing the format by extension.
//
// The snapshot is written to a temporary file in the same directory and renamed into place.
func WriteFile(path string, snap models.Snapshot) error {
	format := FormatOf(path)
	if format == FormatUnknown {
		return fmt.Errorf("%w: unsupported snapshot extension %q", shared.ErrInvalidArgument, filepath.Ext(path))
	}

	var buf bytes.Buffer
	var err error
	if format == FormatArchive {
		err = WriteArchive(&buf, snap)
	} else {
		err = Save(&buf, snap)
	}
	if err != nil {
		return err
	}

	return writeAtomic(path, buf.Bytes())
}

// writeAtomic replaces path with data via a temporary sibling file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// WriteRecordFile atomically writes a per-record file. Used by the filesystem backend.
func WriteRecordFile(path string, data []byte) error {
	return writeAtomic(path, data)
}

// normalize replaces nil collections with empty ones so encoders emit "[]" rather than null.
func normalize(snap models.Snapshot) models.Snapshot {
	out := models.Snapshot{
		Lyrics:    make([]models.Lyric, len(snap.Lyrics)),
		Playlists: make([]models.Playlist, len(snap.Playlists)),
	}
	for i, l := range snap.Lyrics {
		out.Lyrics[i] = l.Clone()
	}
	for i, p := range snap.Playlists {
		out.Playlists[i] = p.Clone()
	}
	return out
}
