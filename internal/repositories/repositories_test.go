package repositories

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/lipl/internal/codec"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func seed(t *testing.T, repo models.Repository) models.Snapshot {
	t.Helper()
	ctx := context.Background()

	l1, err := repo.CreateLyric(ctx, models.Lyric{Title: "Bravo", Parts: [][]string{{"b1", "b2"}}})
	if err != nil {
		t.Fatalf("failed to create lyric: %v", err)
	}
	l2, err := repo.CreateLyric(ctx, models.Lyric{Title: "Alpha", Parts: [][]string{{"a1"}, {"a2"}}})
	if err != nil {
		t.Fatalf("failed to create lyric: %v", err)
	}
	l3, err := repo.CreateLyric(ctx, models.Lyric{Title: "Charlie", Parts: [][]string{{"  indented", "", "after blank"}, {}}})
	if err != nil {
		t.Fatalf("failed to create lyric: %v", err)
	}
	p, err := repo.CreatePlaylist(ctx, models.Playlist{Title: "Set", Members: []models.ID{l1.ID, l2.ID, l3.ID}})
	if err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}

	return models.Snapshot{Lyrics: []models.Lyric{l2, l1, l3}, Playlists: []models.Playlist{p}}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	t.Run("Backends", func(t *testing.T) {
		dir := t.TempDir()
		tests := []struct {
			backend string
			want    any
		}{
			{shared.BackendMemory, &SnapshotRepository{}},
			{shared.BackendFS, &FileRepository{}},
			{shared.BackendSQLite, &SQLiteRepository{}},
		}

		for _, tt := range tests {
			t.Run(tt.backend, func(t *testing.T) {
				cfg := shared.DefaultConfig()
				cfg.Repository.Backend = tt.backend
				cfg.Repository.Snapshot = filepath.Join(dir, "lipl.yaml")
				cfg.Repository.Directory = filepath.Join(dir, "data")
				cfg.Database.Path = filepath.Join(dir, "lipl.db")

				repo, err := Open(ctx, cfg, logger)
				if err != nil {
					t.Fatalf("failed to open %s: %v", tt.backend, err)
				}
				defer repo.Shutdown(ctx)

				if got, want := typeName(repo), typeName(tt.want); got != want {
					t.Errorf("expected %s, got %s", want, got)
				}
			})
		}
	})

	t.Run("MemoryWithoutSnapshot", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Repository.Backend = shared.BackendMemory
		cfg.Repository.Snapshot = ""

		repo, err := Open(ctx, cfg, logger)
		if err != nil {
			t.Fatalf("failed to open: %v", err)
		}
		if _, ok := repo.(*MemoryRepository); !ok {
			t.Errorf("expected *MemoryRepository, got %T", repo)
		}
	})

	t.Run("UnknownBackend", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Repository.Backend = "postgres"

		_, err := Open(ctx, cfg, logger)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func typeName(v any) string {
	switch v.(type) {
	case *SnapshotRepository:
		return "snapshot"
	case *FileRepository:
		return "fs"
	case *SQLiteRepository:
		return "sqlite"
	case *MemoryRepository:
		return "memory"
	default:
		return "unknown"
	}
}

func TestSnapshotRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("SavesOnShutdownWhenChanged", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lipl.yaml")
		repo, err := OpenSnapshot(path)
		if err != nil {
			t.Fatalf("failed to open snapshot: %v", err)
		}

		want := seed(t, repo)
		if err := repo.Shutdown(ctx); err != nil {
			t.Fatalf("failed to shut down: %v", err)
		}

		got, err := codec.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read snapshot: %v", err)
		}
		if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("SkipsUnchanged", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lipl.yaml")
		repo, err := OpenSnapshot(path)
		if err != nil {
			t.Fatalf("failed to open snapshot: %v", err)
		}
		if err := repo.Shutdown(ctx); err != nil {
			t.Fatalf("failed to shut down: %v", err)
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("unchanged repository should not write a snapshot, stat: %v", err)
		}
	})

	t.Run("SaveMarksPersisted", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lipl.zip")
		repo, err := OpenSnapshot(path)
		if err != nil {
			t.Fatalf("failed to open snapshot: %v", err)
		}

		seed(t, repo)
		if err := repo.Save(ctx); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if err := os.Remove(path); err != nil {
			t.Fatalf("failed to remove snapshot: %v", err)
		}

		if err := repo.Shutdown(ctx); err != nil {
			t.Fatalf("failed to shut down: %v", err)
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("shutdown after save should not write again, stat: %v", err)
		}
	})

	t.Run("CorruptFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lipl.yaml")
		if err := os.WriteFile(path, []byte("lyrics: {"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := OpenSnapshot(path); !errors.Is(err, shared.ErrBackend) {
			t.Errorf("expected ErrBackend, got %v", err)
		}
	})
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	locations := []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.zip"),
		filepath.Join(dir, "c.db"),
		filepath.Join(dir, "d"),
	}

	source := NewMemoryRepository(nil, nil)
	want := seed(t, source)

	var opened []models.Repository
	defer func() {
		for _, repo := range opened {
			repo.Shutdown(ctx)
		}
	}()

	var previous models.Repository = source
	for _, location := range locations {
		t.Run(filepath.Base(location), func(t *testing.T) {
			dst, err := OpenLocation(ctx, location)
			if err != nil {
				t.Fatalf("failed to open %s: %v", location, err)
			}
			opened = append(opened, dst)

			n, err := Copy(ctx, dst, previous)
			if err != nil {
				t.Fatalf("failed to copy into %s: %v", location, err)
			}
			if n != 4 {
				t.Errorf("expected 4 records copied, got %d", n)
			}

			got, err := Dump(ctx, dst)
			if err != nil {
				t.Fatalf("failed to dump %s: %v", location, err)
			}
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("copy mismatch (-want +got):\n%s", diff)
			}

			previous = dst
		})
	}

	t.Run("ReloadSnapshots", func(t *testing.T) {
		for _, repo := range opened {
			snap, ok := repo.(*SnapshotRepository)
			if !ok {
				continue
			}
			if err := snap.Save(ctx); err != nil {
				t.Fatalf("failed to save %s: %v", snap.Path(), err)
			}

			reloaded, err := OpenSnapshot(snap.Path())
			if err != nil {
				t.Fatalf("failed to reopen %s: %v", snap.Path(), err)
			}
			got, err := Dump(ctx, reloaded)
			if err != nil {
				t.Fatalf("failed to dump %s: %v", snap.Path(), err)
			}
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("%s does not round trip (-want +got):\n%s", filepath.Base(snap.Path()), diff)
			}
		}
	})

	t.Run("Conflict", func(t *testing.T) {
		dst := NewMemoryRepository(nil, nil)
		if _, err := Copy(ctx, dst, source); err != nil {
			t.Fatalf("failed first copy: %v", err)
		}
		if _, err := Copy(ctx, dst, source); !errors.Is(err, shared.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists on second copy, got %v", err)
		}
	})
}

func TestOpenLocation(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyLocation", func(t *testing.T) {
		if _, err := OpenLocation(ctx, ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("RegularFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.md")
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := OpenLocation(ctx, path); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
