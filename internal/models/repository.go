package models

import "context"

// Repository is the storage contract shared by the memory, filesystem and SQLite backends.
//
// Every implementation must behave identically:
//   - List operations return records sorted by title, ascending.
//   - Get and Delete fail with [NotFound] for an absent ID, or an ID holding the other kind.
//   - Create assigns a fresh ID when the record's ID is zero and honors it otherwise.
//     It fails with [AlreadyExists] when the ID is used by a lyric or a playlist, leaving the store unchanged.
//   - Replace keeps the ID and fails with [NotFound] when the ID does not hold a record of that kind.
//   - DeleteLyric removes the lyric from every playlist before it returns.
//   - Shutdown releases resources and may be called more than once.
type Repository interface {
	ListLyrics(ctx context.Context) ([]Lyric, error)
	ListLyricSummaries(ctx context.Context) ([]Summary, error)
	GetLyric(ctx context.Context, id ID) (Lyric, error)
	CreateLyric(ctx context.Context, lyric Lyric) (Lyric, error)
	ReplaceLyric(ctx context.Context, id ID, post LyricPost) (Lyric, error)
	DeleteLyric(ctx context.Context, id ID) error

	ListPlaylists(ctx context.Context) ([]Playlist, error)
	ListPlaylistSummaries(ctx context.Context) ([]Summary, error)
	GetPlaylist(ctx context.Context, id ID) (Playlist, error)
	CreatePlaylist(ctx context.Context, playlist Playlist) (Playlist, error)
	ReplacePlaylist(ctx context.Context, id ID, post PlaylistPost) (Playlist, error)
	DeletePlaylist(ctx context.Context, id ID) error

	Shutdown(ctx context.Context) error
}
