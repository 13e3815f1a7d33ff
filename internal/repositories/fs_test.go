package repositories

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/lipl/internal/codec"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
)

func TestFileRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Layout", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := NewFileRepository(dir)
		if err != nil {
			t.Fatalf("failed to open repository: %v", err)
		}

		lyric, err := repo.CreateLyric(ctx, models.Lyric{Title: "On Disk", Parts: [][]string{{"a", "b"}, {"c"}}})
		if err != nil {
			t.Fatalf("failed to create lyric: %v", err)
		}
		playlist, err := repo.CreatePlaylist(ctx, models.Playlist{Title: "Disk", Members: []models.ID{lyric.ID}})
		if err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, lyric.ID.String()+codec.LyricExt))
		if err != nil {
			t.Fatalf("lyric file missing: %v", err)
		}
		decoded, err := codec.DecodeLyric(lyric.ID, data)
		if err != nil {
			t.Fatalf("failed to decode lyric file: %v", err)
		}
		if decoded.Title != "On Disk" || len(decoded.Parts) != 2 {
			t.Errorf("unexpected lyric file contents: %+v", decoded)
		}

		if _, err := os.Stat(filepath.Join(dir, playlist.ID.String()+codec.PlaylistExt)); err != nil {
			t.Errorf("playlist file missing: %v", err)
		}
	})

	t.Run("IgnoresForeignFiles", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := NewFileRepository(dir)
		if err != nil {
			t.Fatalf("failed to open repository: %v", err)
		}

		if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("hello"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}

		lyrics, err := repo.ListLyrics(ctx)
		if err != nil {
			t.Fatalf("failed to list lyrics: %v", err)
		}
		if len(lyrics) != 0 {
			t.Errorf("expected no lyrics, got %d", len(lyrics))
		}
	})

	t.Run("CorruptPlaylist", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := NewFileRepository(dir)
		if err != nil {
			t.Fatalf("failed to open repository: %v", err)
		}

		id := models.NewID()
		path := filepath.Join(dir, codec.PlaylistFileName(id))
		if err := os.WriteFile(path, []byte("title: [unterminated"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		if _, err := repo.GetPlaylist(ctx, id); !errors.Is(err, shared.ErrBackend) {
			t.Errorf("expected ErrBackend, got %v", err)
		}
	})

	t.Run("Reopen", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := NewFileRepository(dir)
		if err != nil {
			t.Fatalf("failed to open repository: %v", err)
		}
		lyric, err := repo.CreateLyric(ctx, models.Lyric{Title: "Kept"})
		if err != nil {
			t.Fatalf("failed to create lyric: %v", err)
		}

		again, err := NewFileRepository(dir)
		if err != nil {
			t.Fatalf("failed to reopen repository: %v", err)
		}
		if _, err := again.GetLyric(ctx, lyric.ID); err != nil {
			t.Errorf("lyric should survive reopen: %v", err)
		}
	})
}
