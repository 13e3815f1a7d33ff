package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/desertthunder/lipl/internal/formatter"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/repositories"
	"github.com/desertthunder/lipl/internal/shared"
	"github.com/desertthunder/lipl/internal/ui"
	"github.com/urfave/cli/v3"
)

// listing is the JSON shape printed by "db list --json".
type listing struct {
	Lyrics    []models.Summary `json:"lyrics"`
	Playlists []models.Summary `json:"playlists"`
}

// DBCopy copies every record from the source store into the target store and reports the elapsed time.
func (r *Runner) DBCopy(ctx context.Context, cmd *cli.Command) error {
	source := cmd.StringArg("source")
	target := cmd.StringArg("target")
	if source == "" || target == "" {
		return fmt.Errorf("%w: source and target are required", shared.ErrMissingArgument)
	}
	if source == target {
		return fmt.Errorf("%w: source and target are the same store", shared.ErrInvalidArgument)
	}

	start := time.Now()

	src, err := repositories.OpenLocation(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer r.shutdown(ctx, src)

	dst, err := repositories.OpenLocation(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to open target: %w", err)
	}

	n, err := repositories.Copy(ctx, dst, src)
	if err != nil {
		r.shutdown(ctx, dst)
		return fmt.Errorf("failed to copy %s to %s: %w", source, target, err)
	}

	if snap, ok := dst.(*repositories.SnapshotRepository); ok {
		if err := snap.Save(ctx); err != nil {
			return err
		}
	}
	if err := dst.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to close target: %w", err)
	}

	elapsed := time.Since(start)
	r.logger.Info("copied store", "source", source, "target", target, "records", n, "elapsed", elapsed)
	return r.writePlain("%s\n", ui.Styles().OK(fmt.Sprintf("✓ Copied %d records from %s to %s in %s", n, source, target, elapsed.Round(time.Millisecond))))
}

// openSource opens an explicit store location, falling back to the configured backend.
func (r *Runner) openSource(ctx context.Context, source string) (models.Repository, error) {
	if source != "" {
		return repositories.OpenLocation(ctx, source)
	}
	return r.open(ctx, r.config, r.logger)
}

// DBList prints the lyric and playlist summaries of a store.
func (r *Runner) DBList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.openSource(ctx, cmd.StringArg("source"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer r.shutdown(ctx, repo)

	lyrics, err := repo.ListLyricSummaries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list lyrics: %w", err)
	}
	playlists, err := repo.ListPlaylistSummaries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(listing{Lyrics: lyrics, Playlists: playlists}, cmd.Bool("pretty"))
	}

	styles := ui.Styles()
	if err := r.writePlain("%s\n", styles.Title(fmt.Sprintf("Lyrics (%d)", len(lyrics)))); err != nil {
		return err
	}
	if err := r.writeSummaries(lyrics); err != nil {
		return err
	}
	if err := r.writePlain("\n%s\n", styles.Title(fmt.Sprintf("Playlists (%d)", len(playlists)))); err != nil {
		return err
	}
	return r.writeSummaries(playlists)
}

func (r *Runner) writeSummaries(summaries []models.Summary) error {
	styles := ui.Styles()
	for _, s := range summaries {
		if err := r.writePlain("  %s  %s\n", s.Title, styles.Help(s.ID.String())); err != nil {
			return err
		}
	}
	return nil
}

// DBExport writes a playlist with its lyrics resolved in order to a Markdown, text or CSV file.
func (r *Runner) DBExport(ctx context.Context, cmd *cli.Command) error {
	arg := cmd.StringArg("playlist")
	if arg == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}
	id, err := models.ParseID(arg)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}

	output := cmd.String("output")
	name := cmd.String("format")
	if name == "" && output != "" {
		name = filepath.Ext(output)
	}
	format := formatter.FormatMarkdown
	if name != "" {
		if format, err = formatter.ParseFormat(name); err != nil {
			return err
		}
	}

	repo, err := r.openSource(ctx, cmd.StringArg("source"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer r.shutdown(ctx, repo)

	book, err := formatter.Collect(ctx, repo, id)
	if err != nil {
		return fmt.Errorf("failed to read playlist %s: %w", id, err)
	}
	if missing := book.Missing(); missing > 0 {
		r.logger.Warn("playlist has members that no longer resolve", "playlist", id, "missing", missing)
	}

	path, err := formatter.WriteExport(book, format, output)
	if err != nil {
		return err
	}

	r.logger.Info("exported playlist", "playlist", id, "format", format, "path", path)
	return r.writePlain("%s\n", ui.Styles().OK(fmt.Sprintf("✓ Exported %q (%d lyrics) to %s", book.Playlist.Title, len(book.Entries), path)))
}
