// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/desertthunder/lipl/internal/models"
)

// ErrRepository is a [models.Repository] whose every call fails with Err.
//
// Calls are counted so tests can check that a code path reached the repository.
type ErrRepository struct {
	Err       error
	Calls     int
	Shutdowns int
}

var _ models.Repository = (*ErrRepository)(nil)

func (r *ErrRepository) fail() error {
	r.Calls++
	return r.Err
}

func (r *ErrRepository) ListLyrics(ctx context.Context) ([]models.Lyric, error) {
	return nil, r.fail()
}
func (r *ErrRepository) ListLyricSummaries(ctx context.Context) ([]models.Summary, error) {
	return nil, r.fail()
}
func (r *ErrRepository) GetLyric(ctx context.Context, id models.ID) (models.Lyric, error) {
	return models.Lyric{}, r.fail()
}
func (r *ErrRepository) CreateLyric(ctx context.Context, lyric models.Lyric) (models.Lyric, error) {
	return models.Lyric{}, r.fail()
}
func (r *ErrRepository) ReplaceLyric(ctx context.Context, id models.ID, post models.LyricPost) (models.Lyric, error) {
	return models.Lyric{}, r.fail()
}
func (r *ErrRepository) DeleteLyric(ctx context.Context, id models.ID) error {
	return r.fail()
}
func (r *ErrRepository) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return nil, r.fail()
}
func (r *ErrRepository) ListPlaylistSummaries(ctx context.Context) ([]models.Summary, error) {
	return nil, r.fail()
}
func (r *ErrRepository) GetPlaylist(ctx context.Context, id models.ID) (models.Playlist, error) {
	return models.Playlist{}, r.fail()
}
func (r *ErrRepository) CreatePlaylist(ctx context.Context, playlist models.Playlist) (models.Playlist, error) {
	return models.Playlist{}, r.fail()
}
func (r *ErrRepository) ReplacePlaylist(ctx context.Context, id models.ID, post models.PlaylistPost) (models.Playlist, error) {
	return models.Playlist{}, r.fail()
}
func (r *ErrRepository) DeletePlaylist(ctx context.Context, id models.ID) error {
	return r.fail()
}

// Shutdown counts the call and succeeds.
func (r *ErrRepository) Shutdown(ctx context.Context) error {
	r.Shutdowns++
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
