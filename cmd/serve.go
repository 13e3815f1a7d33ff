package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/lipl/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve opens the configured backend and serves it over HTTP until SIGINT or SIGTERM.
//
// The repository is shut down after the server drains, which saves the memory snapshot when one is configured.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.Port = port
	}

	repo, err := r.open(ctx, r.config, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	defer r.shutdown(context.Background(), repo)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, repo, r.logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}

	r.logger.Info("server stopped")
	return nil
}
