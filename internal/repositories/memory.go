package repositories

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
)

type recordKind int

const (
	lyricRecord recordKind = iota + 1
	playlistRecord
)

// record is the tagged value stored under an ID: exactly one of lyric or playlist is meaningful.
type record struct {
	kind     recordKind
	lyric    models.LyricPost
	playlist models.PlaylistPost
}

func lyricEntry(post models.LyricPost) record {
	return record{kind: lyricRecord, lyric: models.LyricPost{Title: post.Title, Parts: models.CloneParts(post.Parts)}}
}

func playlistEntry(post models.PlaylistPost) record {
	return record{kind: playlistRecord, playlist: models.PlaylistPost{Title: post.Title, Members: models.CloneMembers(post.Members)}}
}

// MemoryRepository implements [models.Repository] over one map shared by lyrics and playlists.
//
// A single [sync.RWMutex] guards the map: lists and gets run under the read lock, mutations under the write lock.
// A lyric delete rewrites the affected playlists inside the same write section, so readers never observe a dangling member.
// A panic inside a write section poisons the repository; every later call fails with [shared.ErrPoisoned].
type MemoryRepository struct {
	mu       sync.RWMutex
	records  map[models.ID]record
	poisoned atomic.Bool
	version  atomic.Uint64
}

var _ models.Repository = (*MemoryRepository)(nil)

// NewMemoryRepository builds a repository holding lyrics and playlists.
//
// Records with a zero ID get a fresh one. When an ID repeats, the later record wins.
func NewMemoryRepository(lyrics []models.Lyric, playlists []models.Playlist) *MemoryRepository {
	records := make(map[models.ID]record, len(lyrics)+len(playlists))
	for _, l := range lyrics {
		records[assignID(l.ID)] = lyricEntry(l.Post())
	}
	for _, p := range playlists {
		records[assignID(p.ID)] = playlistEntry(p.Post())
	}
	return &MemoryRepository{records: records}
}

// NewMemoryRepositoryFromSnapshot builds a repository from a loaded snapshot.
func NewMemoryRepositoryFromSnapshot(snap models.Snapshot) *MemoryRepository {
	return NewMemoryRepository(snap.Lyrics, snap.Playlists)
}

func assignID(id models.ID) models.ID {
	if id.IsZero() {
		return models.NewID()
	}
	return id
}

// read runs fn under the read lock.
func (r *MemoryRepository) read(ctx context.Context, fn func(records map[models.ID]record) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.poisoned.Load() {
		return shared.ErrPoisoned
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.poisoned.Load() {
		return shared.ErrPoisoned
	}
	return fn(r.records)
}

// write runs fn under the write lock. A panic in fn poisons the repository and is reported as an error.
func (r *MemoryRepository) write(ctx context.Context, fn func(records map[models.ID]record) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.poisoned.Load() {
		return shared.ErrPoisoned
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.poisoned.Load() {
		return shared.ErrPoisoned
	}

	defer func() {
		if p := recover(); p != nil {
			r.poisoned.Store(true)
			err = fmt.Errorf("%w: panic during write: %v", shared.ErrPoisoned, p)
		}
	}()

	if err := fn(r.records); err != nil {
		return err
	}
	r.version.Add(1)
	return nil
}

// Version counts the successful mutations applied since construction.
func (r *MemoryRepository) Version() uint64 {
	return r.version.Load()
}

// Poisoned reports whether a failed write has made the repository unusable.
func (r *MemoryRepository) Poisoned() bool {
	return r.poisoned.Load()
}

// ListLyrics returns every lyric sorted by title.
func (r *MemoryRepository) ListLyrics(ctx context.Context) ([]models.Lyric, error) {
	var lyrics []models.Lyric
	err := r.read(ctx, func(records map[models.ID]record) error {
		lyrics = make([]models.Lyric, 0, len(records))
		for id, rec := range records {
			if rec.kind == lyricRecord {
				lyrics = append(lyrics, rec.lyric.WithID(id))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	models.SortLyrics(lyrics)
	return lyrics, nil
}

// ListLyricSummaries returns the ID and title of every lyric sorted by title.
func (r *MemoryRepository) ListLyricSummaries(ctx context.Context) ([]models.Summary, error) {
	return r.summaries(ctx, lyricRecord)
}

// GetLyric returns the lyric stored under id.
func (r *MemoryRepository) GetLyric(ctx context.Context, id models.ID) (models.Lyric, error) {
	var lyric models.Lyric
	err := r.read(ctx, func(records map[models.ID]record) error {
		rec, ok := records[id]
		if !ok || rec.kind != lyricRecord {
			return models.NotFound(id)
		}
		lyric = rec.lyric.WithID(id)
		return nil
	})
	return lyric, err
}

// CreateLyric stores lyric, assigning a fresh ID when its ID is zero.
func (r *MemoryRepository) CreateLyric(ctx context.Context, lyric models.Lyric) (models.Lyric, error) {
	id := assignID(lyric.ID)
	err := r.insert(ctx, id, lyricEntry(lyric.Post()))
	if err != nil {
		return models.Lyric{}, err
	}
	return lyric.Post().WithID(id), nil
}

// ReplaceLyric swaps the title and parts of the lyric stored under id.
func (r *MemoryRepository) ReplaceLyric(ctx context.Context, id models.ID, post models.LyricPost) (models.Lyric, error) {
	if err := r.replace(ctx, id, lyricEntry(post)); err != nil {
		return models.Lyric{}, err
	}
	return post.WithID(id), nil
}

// DeleteLyric removes the lyric and every occurrence of its ID from all playlists.
func (r *MemoryRepository) DeleteLyric(ctx context.Context, id models.ID) error {
	return r.write(ctx, func(records map[models.ID]record) error {
		rec, ok := records[id]
		if !ok || rec.kind != lyricRecord {
			return models.NotFound(id)
		}
		delete(records, id)

		for key, other := range records {
			if other.kind != playlistRecord || !other.playlist.Contains(id) {
				continue
			}
			records[key] = playlistEntry(models.PlaylistPost{
				Title:   other.playlist.Title,
				Members: models.Without(other.playlist.Members, id),
			})
		}
		return nil
	})
}

// ListPlaylists returns every playlist sorted by title.
func (r *MemoryRepository) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	err := r.read(ctx, func(records map[models.ID]record) error {
		playlists = make([]models.Playlist, 0, len(records))
		for id, rec := range records {
			if rec.kind == playlistRecord {
				playlists = append(playlists, rec.playlist.WithID(id))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	models.SortPlaylists(playlists)
	return playlists, nil
}

// ListPlaylistSummaries returns the ID and title of every playlist sorted by title.
func (r *MemoryRepository) ListPlaylistSummaries(ctx context.Context) ([]models.Summary, error) {
	return r.summaries(ctx, playlistRecord)
}

// GetPlaylist returns the playlist stored under id.
func (r *MemoryRepository) GetPlaylist(ctx context.Context, id models.ID) (models.Playlist, error) {
	var playlist models.Playlist
	err := r.read(ctx, func(records map[models.ID]record) error {
		rec, ok := records[id]
		if !ok || rec.kind != playlistRecord {
			return models.NotFound(id)
		}
		playlist = rec.playlist.WithID(id)
		return nil
	})
	return playlist, err
}

// CreatePlaylist stores playlist, assigning a fresh ID when its ID is zero. Members are not validated.
func (r *MemoryRepository) CreatePlaylist(ctx context.Context, playlist models.Playlist) (models.Playlist, error) {
	id := assignID(playlist.ID)
	err := r.insert(ctx, id, playlistEntry(playlist.Post()))
	if err != nil {
		return models.Playlist{}, err
	}
	return playlist.Post().WithID(id), nil
}

// ReplacePlaylist swaps the title and members of the playlist stored under id.
func (r *MemoryRepository) ReplacePlaylist(ctx context.Context, id models.ID, post models.PlaylistPost) (models.Playlist, error) {
	if err := r.replace(ctx, id, playlistEntry(post)); err != nil {
		return models.Playlist{}, err
	}
	return post.WithID(id), nil
}

// DeletePlaylist removes the playlist stored under id.
func (r *MemoryRepository) DeletePlaylist(ctx context.Context, id models.ID) error {
	return r.write(ctx, func(records map[models.ID]record) error {
		rec, ok := records[id]
		if !ok || rec.kind != playlistRecord {
			return models.NotFound(id)
		}
		delete(records, id)
		return nil
	})
}

// Shutdown is a no-op; the memory repository holds no external resources.
func (r *MemoryRepository) Shutdown(ctx context.Context) error {
	return nil
}

// Snapshot returns every lyric and playlist, each collection sorted by title.
func (r *MemoryRepository) Snapshot(ctx context.Context) (models.Snapshot, error) {
	snap := models.Snapshot{Lyrics: []models.Lyric{}, Playlists: []models.Playlist{}}
	err := r.read(ctx, func(records map[models.ID]record) error {
		for id, rec := range records {
			switch rec.kind {
			case lyricRecord:
				snap.Lyrics = append(snap.Lyrics, rec.lyric.WithID(id))
			case playlistRecord:
				snap.Playlists = append(snap.Playlists, rec.playlist.WithID(id))
			}
		}
		return nil
	})
	if err != nil {
		return models.Snapshot{}, err
	}

	models.SortLyrics(snap.Lyrics)
	models.SortPlaylists(snap.Playlists)
	return snap, nil
}

func (r *MemoryRepository) summaries(ctx context.Context, kind recordKind) ([]models.Summary, error) {
	var summaries []models.Summary
	err := r.read(ctx, func(records map[models.ID]record) error {
		summaries = make([]models.Summary, 0, len(records))
		for id, rec := range records {
			switch {
			case kind == lyricRecord && rec.kind == lyricRecord:
				summaries = append(summaries, models.Summary{ID: id, Title: rec.lyric.Title})
			case kind == playlistRecord && rec.kind == playlistRecord:
				summaries = append(summaries, models.Summary{ID: id, Title: rec.playlist.Title})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	models.SortSummaries(summaries)
	return summaries, nil
}

// insert installs rec under id unless the ID is already used by either kind.
func (r *MemoryRepository) insert(ctx context.Context, id models.ID, rec record) error {
	return r.write(ctx, func(records map[models.ID]record) error {
		if _, occupied := records[id]; occupied {
			return models.AlreadyExists(id)
		}
		records[id] = rec
		return nil
	})
}

// replace overwrites the record under id when it holds the same kind.
func (r *MemoryRepository) replace(ctx context.Context, id models.ID, rec record) error {
	return r.write(ctx, func(records map[models.ID]record) error {
		existing, ok := records[id]
		if !ok || existing.kind != rec.kind {
			return models.NotFound(id)
		}
		records[id] = rec
		return nil
	})
}
