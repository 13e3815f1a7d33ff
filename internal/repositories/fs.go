package repositories

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/lipl/internal/codec"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
	"github.com/pkg/errors"
)

// FileRepository implements [models.Repository] over a directory of per-record files.
//
// Lyrics are stored as "<id>.txt" and playlists as "<id>.yaml" (see package codec).
// A [sync.RWMutex] serializes access within the process; no coordination is attempted across processes.
type FileRepository struct {
	dir string
	mu  sync.RWMutex
}

var _ models.Repository = (*FileRepository)(nil)

// NewFileRepository opens (creating when needed) the directory at dir.
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, backendError(err, "creating directory %s", dir)
	}
	return &FileRepository{dir: dir}, nil
}

// Dir returns the backing directory.
func (r *FileRepository) Dir() string {
	return r.dir
}

func backendError(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %w", shared.ErrBackend, errors.Wrapf(err, format, args...))
}

func (r *FileRepository) lyricPath(id models.ID) string {
	return filepath.Join(r.dir, codec.LyricFileName(id))
}

func (r *FileRepository) playlistPath(id models.ID) string {
	return filepath.Join(r.dir, codec.PlaylistFileName(id))
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, backendError(err, "checking %s", path)
}

// scan reads every record file of kind in the directory.
func (r *FileRepository) scan(kind codec.Kind, visit func(id models.ID, data []byte) error) error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return backendError(err, "reading directory %s", r.dir)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, k := codec.ParseFileName(entry.Name())
		if k != kind {
			continue
		}

		data, err := os.ReadFile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			return backendError(err, "reading %s", entry.Name())
		}
		if err := visit(id, data); err != nil {
			return err
		}
	}
	return nil
}

func (r *FileRepository) readLyric(id models.ID) (models.Lyric, error) {
	data, err := os.ReadFile(r.lyricPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return models.Lyric{}, models.NotFound(id)
	}
	if err != nil {
		return models.Lyric{}, backendError(err, "reading lyric %s", id)
	}

	lyric, err := codec.DecodeLyric(id, data)
	if err != nil {
		return models.Lyric{}, backendError(err, "decoding lyric %s", id)
	}
	return lyric, nil
}

func (r *FileRepository) readPlaylist(id models.ID) (models.Playlist, error) {
	data, err := os.ReadFile(r.playlistPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return models.Playlist{}, models.NotFound(id)
	}
	if err != nil {
		return models.Playlist{}, backendError(err, "reading playlist %s", id)
	}

	playlist, err := codec.DecodePlaylist(id, data)
	if err != nil {
		return models.Playlist{}, backendError(err, "decoding playlist %s", id)
	}
	return playlist, nil
}

func (r *FileRepository) writeLyric(lyric models.Lyric) error {
	data, err := codec.EncodeLyric(lyric)
	if err != nil {
		return backendError(err, "encoding lyric %s", lyric.ID)
	}
	if err := codec.WriteRecordFile(r.lyricPath(lyric.ID), data); err != nil {
		return backendError(err, "writing lyric %s", lyric.ID)
	}
	return nil
}

func (r *FileRepository) writePlaylist(playlist models.Playlist) error {
	data, err := codec.EncodePlaylist(playlist)
	if err != nil {
		return backendError(err, "encoding playlist %s", playlist.ID)
	}
	if err := codec.WriteRecordFile(r.playlistPath(playlist.ID), data); err != nil {
		return backendError(err, "writing playlist %s", playlist.ID)
	}
	return nil
}

// occupied reports whether id is used by a lyric or a playlist file.
func (r *FileRepository) occupied(id models.ID) (bool, error) {
	for _, path := range []string{r.lyricPath(id), r.playlistPath(id)} {
		ok, err := exists(path)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// ListLyrics returns every lyric sorted by title.
func (r *FileRepository) ListLyrics(ctx context.Context) ([]models.Lyric, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	lyrics := []models.Lyric{}
	err := r.scan(codec.KindLyric, func(id models.ID, data []byte) error {
		lyric, err := codec.DecodeLyric(id, data)
		if err != nil {
			return backendError(err, "decoding lyric %s", id)
		}
		lyrics = append(lyrics, lyric)
		return nil
	})
	if err != nil {
		return nil, err
	}

	models.SortLyrics(lyrics)
	return lyrics, nil
}

// ListLyricSummaries returns the ID and title of every lyric sorted by title.
func (r *FileRepository) ListLyricSummaries(ctx context.Context) ([]models.Summary, error) {
	lyrics, err := r.ListLyrics(ctx)
	if err != nil {
		return nil, err
	}
	return models.LyricSummaries(lyrics), nil
}

// GetLyric returns the lyric stored under id.
func (r *FileRepository) GetLyric(ctx context.Context, id models.ID) (models.Lyric, error) {
	if err := ctx.Err(); err != nil {
		return models.Lyric{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.readLyric(id)
}

// CreateLyric writes a new lyric file, assigning a fresh ID when the lyric's ID is zero.
func (r *FileRepository) CreateLyric(ctx context.Context, lyric models.Lyric) (models.Lyric, error) {
	if err := ctx.Err(); err != nil {
		return models.Lyric{}, err
	}
	lyric = lyric.Post().WithID(assignID(lyric.ID))

	r.mu.Lock()
	defer r.mu.Unlock()

	taken, err := r.occupied(lyric.ID)
	if err != nil {
		return models.Lyric{}, err
	}
	if taken {
		return models.Lyric{}, models.AlreadyExists(lyric.ID)
	}

	if err := r.writeLyric(lyric); err != nil {
		return models.Lyric{}, err
	}
	return lyric, nil
}

// ReplaceLyric rewrites the lyric file for id.
func (r *FileRepository) ReplaceLyric(ctx context.Context, id models.ID, post models.LyricPost) (models.Lyric, error) {
	if err := ctx.Err(); err != nil {
		return models.Lyric{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ok, err := exists(r.lyricPath(id))
	if err != nil {
		return models.Lyric{}, err
	}
	if !ok {
		return models.Lyric{}, models.NotFound(id)
	}

	lyric := post.WithID(id)
	if err := r.writeLyric(lyric); err != nil {
		return models.Lyric{}, err
	}
	return lyric, nil
}

// DeleteLyric strips id from every playlist file and then removes the lyric file.
//
// The lyric file goes last so an interrupted delete can be retried to finish the cascade.
func (r *FileRepository) DeleteLyric(ctx context.Context, id models.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ok, err := exists(r.lyricPath(id))
	if err != nil {
		return err
	}
	if !ok {
		return models.NotFound(id)
	}

	var affected []models.Playlist
	err = r.scan(codec.KindPlaylist, func(pid models.ID, data []byte) error {
		playlist, err := codec.DecodePlaylist(pid, data)
		if err != nil {
			return backendError(err, "decoding playlist %s", pid)
		}
		if playlist.Contains(id) {
			affected = append(affected, playlist)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, playlist := range affected {
		playlist.Members = models.Without(playlist.Members, id)
		if err := r.writePlaylist(playlist); err != nil {
			return err
		}
	}

	if err := os.Remove(r.lyricPath(id)); err != nil {
		return backendError(err, "removing lyric %s", id)
	}
	return nil
}

// ListPlaylists returns every playlist sorted by title.
func (r *FileRepository) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	playlists := []models.Playlist{}
	err := r.scan(codec.KindPlaylist, func(id models.ID, data []byte) error {
		playlist, err := codec.DecodePlaylist(id, data)
		if err != nil {
			return backendError(err, "decoding playlist %s", id)
		}
		playlists = append(playlists, playlist)
		return nil
	})
	if err != nil {
		return nil, err
	}

	models.SortPlaylists(playlists)
	return playlists, nil
}

// ListPlaylistSummaries returns the ID and title of every playlist sorted by title.
func (r *FileRepository) ListPlaylistSummaries(ctx context.Context) ([]models.Summary, error) {
	playlists, err := r.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	return models.PlaylistSummaries(playlists), nil
}

// GetPlaylist returns the playlist stored under id.
func (r *FileRepository) GetPlaylist(ctx context.Context, id models.ID) (models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return models.Playlist{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.readPlaylist(id)
}

// CreatePlaylist writes a new playlist file, assigning a fresh ID when the playlist's ID is zero.
func (r *FileRepository) CreatePlaylist(ctx context.Context, playlist models.Playlist) (models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return models.Playlist{}, err
	}
	playlist = playlist.Post().WithID(assignID(playlist.ID))

	r.mu.Lock()
	defer r.mu.Unlock()

	taken, err := r.occupied(playlist.ID)
	if err != nil {
		return models.Playlist{}, err
	}
	if taken {
		return models.Playlist{}, models.AlreadyExists(playlist.ID)
	}

	if err := r.writePlaylist(playlist); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

// ReplacePlaylist rewrites the playlist file for id.
func (r *FileRepository) ReplacePlaylist(ctx context.Context, id models.ID, post models.PlaylistPost) (models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return models.Playlist{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ok, err := exists(r.playlistPath(id))
	if err != nil {
		return models.Playlist{}, err
	}
	if !ok {
		return models.Playlist{}, models.NotFound(id)
	}

	playlist := post.WithID(id)
	if err := r.writePlaylist(playlist); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

// DeletePlaylist removes the playlist file for id.
func (r *FileRepository) DeletePlaylist(ctx context.Context, id models.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.Remove(r.playlistPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return models.NotFound(id)
	}
	if err != nil {
		return backendError(err, "removing playlist %s", id)
	}
	return nil
}

// Shutdown is a no-op; every operation opens and closes its own files.
func (r *FileRepository) Shutdown(ctx context.Context) error {
	return nil
}
