package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.MemoryDatabase)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestSQLiteRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("MemberRowsFollowPositions", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSQLiteRepository(db)
		defer repo.Shutdown(ctx)

		a, b := models.NewID(), models.NewID()
		p, err := repo.CreatePlaylist(ctx, models.Playlist{Title: "Order", Members: []models.ID{b, a, b}})
		if err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM playlist_members WHERE playlist_id = ?", idValue(p.ID)).Scan(&count); err != nil {
			t.Fatalf("failed to count members: %v", err)
		}
		if count != 3 {
			t.Errorf("expected 3 member rows, got %d", count)
		}

		got, err := repo.GetPlaylist(ctx, p.ID)
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		want := []models.ID{b, a, b}
		for i := range want {
			if got.Members[i] != want[i] {
				t.Errorf("member %d: expected %s, got %s", i, want[i], got.Members[i])
			}
		}
	})

	t.Run("DeletePlaylistRemovesMembers", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSQLiteRepository(db)
		defer repo.Shutdown(ctx)

		p, err := repo.CreatePlaylist(ctx, models.Playlist{Title: "Gone", Members: []models.ID{models.NewID()}})
		if err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		if err := repo.DeletePlaylist(ctx, p.ID); err != nil {
			t.Fatalf("failed to delete playlist: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM playlist_members").Scan(&count); err != nil {
			t.Fatalf("failed to count members: %v", err)
		}
		if count != 0 {
			t.Errorf("expected no member rows, got %d", count)
		}
	})

	t.Run("CorruptParts", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSQLiteRepository(db)
		defer repo.Shutdown(ctx)

		id := models.NewID()
		if _, err := db.Exec("INSERT INTO lyrics (id, title, parts) VALUES (?, ?, ?)", idValue(id), "Bad", "not json"); err != nil {
			t.Fatalf("failed to insert row: %v", err)
		}

		_, err := repo.GetLyric(ctx, id)
		if !errors.Is(err, shared.ErrBackend) {
			t.Errorf("expected ErrBackend, got %v", err)
		}
	})

	t.Run("Shutdown", func(t *testing.T) {
		repo := NewSQLiteRepository(setupTestDB(t))

		if err := repo.Shutdown(ctx); err != nil {
			t.Fatalf("failed to shut down: %v", err)
		}
		if err := repo.Shutdown(ctx); err != nil {
			t.Errorf("second shutdown should return the first result, got %v", err)
		}

		_, err := repo.ListLyrics(ctx)
		if !errors.Is(err, shared.ErrBackend) {
			t.Errorf("expected ErrBackend after shutdown, got %v", err)
		}
	})

	t.Run("OpenSQLiteRepository", func(t *testing.T) {
		path := t.TempDir() + "/lipl.db"
		repo, err := OpenSQLiteRepository(ctx, shared.DatabaseConfig{Path: path, MaxOpenConns: 2, MaxIdleConns: 1})
		if err != nil {
			t.Fatalf("failed to open repository: %v", err)
		}

		lyric, err := repo.CreateLyric(ctx, models.Lyric{Title: "Persisted"})
		if err != nil {
			t.Fatalf("failed to create lyric: %v", err)
		}
		if err := repo.Shutdown(ctx); err != nil {
			t.Fatalf("failed to shut down: %v", err)
		}

		reopened, err := OpenSQLiteRepository(ctx, shared.DatabaseConfig{Path: path})
		if err != nil {
			t.Fatalf("failed to reopen repository: %v", err)
		}
		defer reopened.Shutdown(ctx)

		got, err := reopened.GetLyric(ctx, lyric.ID)
		if err != nil {
			t.Fatalf("failed to get lyric after reopen: %v", err)
		}
		if got.Title != "Persisted" {
			t.Errorf("expected title Persisted, got %q", got.Title)
		}
	})
}
