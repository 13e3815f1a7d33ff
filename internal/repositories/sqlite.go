package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
)

// SQLiteRepository implements [models.Repository] over the lyrics, playlists and playlist_members tables.
//
// Parts are stored as a JSON array of line arrays. Member order is kept by playlist_members.position.
// Mutations run in a transaction and are serialized within the process so the shared keyspace check and the insert cannot interleave.
type SQLiteRepository struct {
	db        *sql.DB
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

var _ models.Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository wraps an open, migrated database. Shutdown closes db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// OpenSQLiteRepository opens the database at cfg.Path, applies the pool settings and runs pending migrations.
func OpenSQLiteRepository(ctx context.Context, cfg shared.DatabaseConfig) (*SQLiteRepository, error) {
	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrBackend, err)
	}
	if cfg.Path != shared.MemoryDatabase {
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}

	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", shared.ErrBackend, err)
	}
	return NewSQLiteRepository(db), nil
}

func sqlError(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", shared.ErrBackend, op, err)
}

func idValue(id models.ID) string {
	return id.UUID().String()
}

func scanID(text string) (models.ID, error) {
	id, err := models.ParseID(text)
	if err != nil {
		return models.ID{}, fmt.Errorf("%w: corrupt id %q: %w", shared.ErrBackend, text, err)
	}
	return id, nil
}

// withTx runs fn in a transaction, committing when fn returns nil.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return sqlError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return sqlError("commit transaction", err)
	}
	return nil
}

// writeTx is withTx under the in-process write lock.
func (r *SQLiteRepository) writeTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.withTx(ctx, fn)
}

func encodeParts(parts [][]string) (string, error) {
	data, err := json.Marshal(models.CloneParts(parts))
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode parts: %w", shared.ErrBackend, err)
	}
	return string(data), nil
}

func decodeParts(text string) ([][]string, error) {
	var parts [][]string
	if err := json.Unmarshal([]byte(text), &parts); err != nil {
		return nil, fmt.Errorf("%w: failed to decode parts: %w", shared.ErrBackend, err)
	}
	return models.CloneParts(parts), nil
}

func occupiedTx(ctx context.Context, tx *sql.Tx, id models.ID) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM lyrics WHERE id = ?) + (SELECT COUNT(*) FROM playlists WHERE id = ?)
	`, idValue(id), idValue(id)).Scan(&n)
	if err != nil {
		return false, sqlError("check id", err)
	}
	return n > 0, nil
}

func existsTx(ctx context.Context, tx *sql.Tx, table string, id models.ID) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", table), idValue(id)).Scan(&n)
	if err != nil {
		return false, sqlError("check "+table, err)
	}
	return n > 0, nil
}

// ListLyrics returns every lyric sorted by title.
func (r *SQLiteRepository) ListLyrics(ctx context.Context) ([]models.Lyric, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, title, parts FROM lyrics")
	if err != nil {
		return nil, sqlError("list lyrics", err)
	}
	defer rows.Close()

	lyrics := []models.Lyric{}
	for rows.Next() {
		lyric, err := scanLyric(rows)
		if err != nil {
			return nil, err
		}
		lyrics = append(lyrics, lyric)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlError("iterate lyrics", err)
	}

	models.SortLyrics(lyrics)
	return lyrics, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLyric(row scanner) (models.Lyric, error) {
	var id, title, parts string
	if err := row.Scan(&id, &title, &parts); err != nil {
		return models.Lyric{}, err
	}

	lyricID, err := scanID(id)
	if err != nil {
		return models.Lyric{}, err
	}
	decoded, err := decodeParts(parts)
	if err != nil {
		return models.Lyric{}, err
	}
	return models.Lyric{ID: lyricID, Title: title, Parts: decoded}, nil
}

// ListLyricSummaries returns the ID and title of every lyric sorted by title.
func (r *SQLiteRepository) ListLyricSummaries(ctx context.Context) ([]models.Summary, error) {
	return r.summaries(ctx, "lyrics")
}

func (r *SQLiteRepository) summaries(ctx context.Context, table string) ([]models.Summary, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT id, title FROM %s", table))
	if err != nil {
		return nil, sqlError("list "+table, err)
	}
	defer rows.Close()

	summaries := []models.Summary{}
	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, sqlError("scan "+table, err)
		}
		sid, err := scanID(id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.Summary{ID: sid, Title: title})
	}
	if err := rows.Err(); err != nil {
		return nil, sqlError("iterate "+table, err)
	}

	models.SortSummaries(summaries)
	return summaries, nil
}

// GetLyric returns the lyric stored under id.
func (r *SQLiteRepository) GetLyric(ctx context.Context, id models.ID) (models.Lyric, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, title, parts FROM lyrics WHERE id = ?", idValue(id))
	lyric, err := scanLyric(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Lyric{}, models.NotFound(id)
	}
	if err != nil {
		if errors.Is(err, shared.ErrBackend) {
			return models.Lyric{}, err
		}
		return models.Lyric{}, sqlError("get lyric", err)
	}
	return lyric, nil
}

// CreateLyric inserts a lyric, assigning a fresh ID when the lyric's ID is zero.
func (r *SQLiteRepository) CreateLyric(ctx context.Context, lyric models.Lyric) (models.Lyric, error) {
	lyric = lyric.Post().WithID(assignID(lyric.ID))
	parts, err := encodeParts(lyric.Parts)
	if err != nil {
		return models.Lyric{}, err
	}

	err = r.writeTx(ctx, func(tx *sql.Tx) error {
		taken, err := occupiedTx(ctx, tx, lyric.ID)
		if err != nil {
			return err
		}
		if taken {
			return models.AlreadyExists(lyric.ID)
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO lyrics (id, title, parts) VALUES (?, ?, ?)", idValue(lyric.ID), lyric.Title, parts)
		if err != nil {
			return sqlError("insert lyric", err)
		}
		return nil
	})
	if err != nil {
		return models.Lyric{}, err
	}
	return lyric, nil
}

// ReplaceLyric updates the title and parts of the lyric stored under id.
func (r *SQLiteRepository) ReplaceLyric(ctx context.Context, id models.ID, post models.LyricPost) (models.Lyric, error) {
	parts, err := encodeParts(post.Parts)
	if err != nil {
		return models.Lyric{}, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	result, err := r.db.ExecContext(ctx, "UPDATE lyrics SET title = ?, parts = ? WHERE id = ?", post.Title, parts, idValue(id))
	if err != nil {
		return models.Lyric{}, sqlError("update lyric", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return models.Lyric{}, sqlError("get affected rows", err)
	}
	if rows == 0 {
		return models.Lyric{}, models.NotFound(id)
	}
	return post.WithID(id), nil
}

// DeleteLyric removes the lyric and every playlist_members row naming it, then renumbers the affected playlists.
func (r *SQLiteRepository) DeleteLyric(ctx context.Context, id models.ID) error {
	return r.writeTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM lyrics WHERE id = ?", idValue(id))
		if err != nil {
			return sqlError("delete lyric", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return sqlError("get affected rows", err)
		}
		if rows == 0 {
			return models.NotFound(id)
		}

		affected, err := playlistsContaining(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, pid := range affected {
			members, err := membersTx(ctx, tx, pid)
			if err != nil {
				return err
			}
			if err := setMembersTx(ctx, tx, pid, models.Without(members, id)); err != nil {
				return err
			}
		}
		return nil
	})
}

func playlistsContaining(ctx context.Context, tx *sql.Tx, lyricID models.ID) ([]models.ID, error) {
	rows, err := tx.QueryContext(ctx, "SELECT DISTINCT playlist_id FROM playlist_members WHERE lyric_id = ?", idValue(lyricID))
	if err != nil {
		return nil, sqlError("find playlists containing lyric", err)
	}
	defer rows.Close()

	var ids []models.ID
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, sqlError("scan playlist id", err)
		}
		id, err := scanID(text)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlError("iterate playlist ids", err)
	}
	return ids, nil
}

func membersTx(ctx context.Context, tx *sql.Tx, playlistID models.ID) ([]models.ID, error) {
	rows, err := tx.QueryContext(ctx, "SELECT lyric_id FROM playlist_members WHERE playlist_id = ? ORDER BY position", idValue(playlistID))
	if err != nil {
		return nil, sqlError("list members", err)
	}
	defer rows.Close()

	members := []models.ID{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, sqlError("scan member", err)
		}
		id, err := scanID(text)
		if err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlError("iterate members", err)
	}
	return members, nil
}

func setMembersTx(ctx context.Context, tx *sql.Tx, playlistID models.ID, members []models.ID) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM playlist_members WHERE playlist_id = ?", idValue(playlistID)); err != nil {
		return sqlError("clear members", err)
	}
	if len(members) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO playlist_members (playlist_id, position, lyric_id) VALUES (?, ?, ?)")
	if err != nil {
		return sqlError("prepare member insert", err)
	}
	defer stmt.Close()

	for i, member := range members {
		if _, err := stmt.ExecContext(ctx, idValue(playlistID), i, idValue(member)); err != nil {
			return sqlError("insert member", err)
		}
	}
	return nil
}

// ListPlaylists returns every playlist sorted by title.
func (r *SQLiteRepository) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	playlists := []models.Playlist{}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT id, title FROM playlists")
		if err != nil {
			return sqlError("list playlists", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id, title string
			if err := rows.Scan(&id, &title); err != nil {
				return sqlError("scan playlist", err)
			}
			pid, err := scanID(id)
			if err != nil {
				return err
			}
			playlists = append(playlists, models.Playlist{ID: pid, Title: title})
		}
		if err := rows.Err(); err != nil {
			return sqlError("iterate playlists", err)
		}
		rows.Close()

		for i := range playlists {
			members, err := membersTx(ctx, tx, playlists[i].ID)
			if err != nil {
				return err
			}
			playlists[i].Members = members
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
func (r *SQLiteRepository) ListPlaylistSummaries(ctx context.Context) ([]models.Summary, error) {
	return r.summaries(ctx, "playlists")
}

// GetPlaylist returns the playlist stored under id.
func (r *SQLiteRepository) GetPlaylist(ctx context.Context, id models.ID) (models.Playlist, error) {
	var playlist models.Playlist
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var title string
		err := tx.QueryRowContext(ctx, "SELECT title FROM playlists WHERE id = ?", idValue(id)).Scan(&title)
		if errors.Is(err, sql.ErrNoRows) {
			return models.NotFound(id)
		}
		if err != nil {
			return sqlError("get playlist", err)
		}

		members, err := membersTx(ctx, tx, id)
		if err != nil {
			return err
		}
		playlist = models.Playlist{ID: id, Title: title, Members: members}
		return nil
	})
	if err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

// CreatePlaylist inserts a playlist and its members, assigning a fresh ID when the playlist's ID is zero.
func (r *SQLiteRepository) CreatePlaylist(ctx context.Context, playlist models.Playlist) (models.Playlist, error) {
	playlist = playlist.Post().WithID(assignID(playlist.ID))

	err := r.writeTx(ctx, func(tx *sql.Tx) error {
		taken, err := occupiedTx(ctx, tx, playlist.ID)
		if err != nil {
			return err
		}
		if taken {
			return models.AlreadyExists(playlist.ID)
		}

		if _, err := tx.ExecContext(ctx, "INSERT INTO playlists (id, title) VALUES (?, ?)", idValue(playlist.ID), playlist.Title); err != nil {
			return sqlError("insert playlist", err)
		}
		return setMembersTx(ctx, tx, playlist.ID, playlist.Members)
	})
	if err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

// ReplacePlaylist updates the title and rewrites the members of the playlist stored under id.
func (r *SQLiteRepository) ReplacePlaylist(ctx context.Context, id models.ID, post models.PlaylistPost) (models.Playlist, error) {
	err := r.writeTx(ctx, func(tx *sql.Tx) error {
		ok, err := existsTx(ctx, tx, "playlists", id)
		if err != nil {
			return err
		}
		if !ok {
			return models.NotFound(id)
		}

		if _, err := tx.ExecContext(ctx, "UPDATE playlists SET title = ? WHERE id = ?", post.Title, idValue(id)); err != nil {
			return sqlError("update playlist", err)
		}
		return setMembersTx(ctx, tx, id, post.Members)
	})
	if err != nil {
		return models.Playlist{}, err
	}
	return post.WithID(id), nil
}

// DeletePlaylist removes the playlist stored under id along with its member rows.
func (r *SQLiteRepository) DeletePlaylist(ctx context.Context, id models.ID) error {
	return r.writeTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM playlist_members WHERE playlist_id = ?", idValue(id)); err != nil {
			return sqlError("delete members", err)
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM playlists WHERE id = ?", idValue(id))
		if err != nil {
			return sqlError("delete playlist", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return sqlError("get affected rows", err)
		}
		if rows == 0 {
			return models.NotFound(id)
		}
		return nil
	})
}

// Shutdown closes the database. Later calls return the first result.
func (r *SQLiteRepository) Shutdown(ctx context.Context) error {
	r.closeOnce.Do(func() {
		if err := r.db.Close(); err != nil {
			r.closeErr = sqlError("close database", err)
		}
	})
	return r.closeErr
}
