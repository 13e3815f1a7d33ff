package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lipl/internal/shared"
	"github.com/desertthunder/lipl/internal/ui"
	"github.com/urfave/cli/v3"
)

// Browse launches the interactive terminal UI over the configured backend.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	repo, err := r.open(ctx, r.config, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	defer r.shutdown(context.Background(), repo)

	p := tea.NewProgram(ui.NewModel(ctx, repo), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
