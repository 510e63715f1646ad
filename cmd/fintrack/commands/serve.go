package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/fintrack/internal/app"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run a local proxy that adds the stored credentials to API requests",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server--host",
				Usage: "server host",
				Value: app.DefaultConfigServerHost,
			},
			&cli.IntFlag{
				Name:  "server--port",
				Usage: "server port",
				Value: int(app.DefaultConfigServerPort),
			},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			slog.InfoContext(ctx, "starting")

			if err := a.Serve(ctx); err != nil {
				return fmt.Errorf("app failed to start: %w", err)
			}

			slog.InfoContext(ctx, "stopped gracefully")
			return nil
		}),
	}
}
