package main

import (
	"context"
	"os"

	"github.com/desertthunder/lipl/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	app := newApp(NewRunner(RunnerOpts{Logger: logger}))

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// newApp builds the root command with the global --config and --env flags.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "lipl",
		Usage:   "Store lyrics and playlists",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to a .env file with LIPL_* overrides",
				Value: ".env",
			},
		},
		Before:   r.LoadConfig,
		Commands: r.register(),
	}
}
