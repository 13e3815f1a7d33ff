package repositories

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lipl/internal/codec"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
)

// SnapshotRepository is a [MemoryRepository] loaded from, and saved back to, a snapshot file.
//
// Shutdown writes the file when any mutation succeeded since it was loaded.
type SnapshotRepository struct {
	*MemoryRepository
	path   string
	loaded uint64
}

// OpenSnapshot loads the snapshot at path into memory. A missing file yields an empty repository.
func OpenSnapshot(path string) (*SnapshotRepository, error) {
	snap, err := codec.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		snap = models.Snapshot{}
	case err != nil:
		return nil, fmt.Errorf("%w: failed to load snapshot %s: %w", shared.ErrBackend, path, err)
	}

	mem := NewMemoryRepositoryFromSnapshot(snap)
	return &SnapshotRepository{MemoryRepository: mem, path: path, loaded: mem.Version()}, nil
}

// Path returns the snapshot file location.
func (r *SnapshotRepository) Path() string {
	return r.path
}

// Save writes the current contents to the snapshot file and marks them as persisted.
func (r *SnapshotRepository) Save(ctx context.Context) error {
	version := r.Version()
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := codec.WriteFile(r.path, snap); err != nil {
		return fmt.Errorf("%w: failed to save snapshot %s: %w", shared.ErrBackend, r.path, err)
	}
	r.loaded = version
	return nil
}

// Shutdown saves the snapshot when the contents changed.
func (r *SnapshotRepository) Shutdown(ctx context.Context) error {
	if r.Poisoned() || r.Version() == r.loaded {
		return nil
	}
	return r.Save(ctx)
}

// Open selects the backend named by cfg.Repository.Backend.
//
// The memory backend is seeded from cfg.Repository.Snapshot when one is configured.
func Open(ctx context.Context, cfg *shared.Config, logger *log.Logger) (models.Repository, error) {
	switch cfg.Repository.Backend {
	case shared.BackendMemory:
		if cfg.Repository.Snapshot == "" {
			logger.Info("opened repository", "backend", shared.BackendMemory)
			return NewMemoryRepository(nil, nil), nil
		}
		repo, err := OpenSnapshot(cfg.Repository.Snapshot)
		if err != nil {
			return nil, err
		}
		logger.Info("opened repository", "backend", shared.BackendMemory, "snapshot", repo.Path())
		return repo, nil
	case shared.BackendFS:
		repo, err := NewFileRepository(cfg.Repository.Directory)
		if err != nil {
			return nil, err
		}
		logger.Info("opened repository", "backend", shared.BackendFS, "directory", repo.Dir())
		return repo, nil
	case shared.BackendSQLite:
		repo, err := OpenSQLiteRepository(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("opened repository", "backend", shared.BackendSQLite, "path", cfg.Database.Path)
		return repo, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", shared.ErrInvalidConfig, cfg.Repository.Backend)
	}
}

// OpenLocation opens a store named by a path:
// "*.yaml", "*.yml" and "*.zip" are snapshot files, "*.db" and "*.sqlite" are SQLite databases,
// and anything else is a directory for the filesystem backend.
func OpenLocation(ctx context.Context, location string) (models.Repository, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: empty location", shared.ErrInvalidArgument)
	}

	if codec.FormatOf(location) != codec.FormatUnknown {
		return OpenSnapshot(location)
	}

	switch strings.ToLower(filepath.Ext(location)) {
	case ".db", ".sqlite":
		return OpenSQLiteRepository(ctx, shared.DatabaseConfig{Path: location})
	}

	if info, err := os.Stat(location); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", shared.ErrInvalidArgument, location)
	}
	return NewFileRepository(location)
}

// Dump reads every lyric and playlist from repo.
func Dump(ctx context.Context, repo models.Repository) (models.Snapshot, error) {
	if mem, ok := repo.(interface {
		Snapshot(context.Context) (models.Snapshot, error)
	}); ok {
		return mem.Snapshot(ctx)
	}

	lyrics, err := repo.ListLyrics(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to list lyrics: %w", err)
	}
	playlists, err := repo.ListPlaylists(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to list playlists: %w", err)
	}
	return models.Snapshot{Lyrics: lyrics, Playlists: playlists}, nil
}

// Restore creates every record of snap in repo, keeping IDs. Lyrics go first so playlist members resolve.
func Restore(ctx context.Context, repo models.Repository, snap models.Snapshot) error {
	for _, lyric := range snap.Lyrics {
		if _, err := repo.CreateLyric(ctx, lyric); err != nil {
			return fmt.Errorf("failed to create lyric %s: %w", lyric.ID, err)
		}
	}
	for _, playlist := range snap.Playlists {
		if _, err := repo.CreatePlaylist(ctx, playlist); err != nil {
			return fmt.Errorf("failed to create playlist %s: %w", playlist.ID, err)
		}
	}
	return nil
}

// Copy dumps src and restores it into dst, returning the number of records copied.
func Copy(ctx context.Context, dst, src models.Repository) (int, error) {
	snap, err := Dump(ctx, src)
	if err != nil {
		return 0, err
	}
	if err := Restore(ctx, dst, snap); err != nil {
		return 0, err
	}
	return len(snap.Lyrics) + len(snap.Playlists), nil
}
