package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/fintrack/internal/app"
	"github.com/florianilch/fintrack/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	return newRootCommand(os.Stdin, os.Stdout, os.Stderr).Run(ctx, args)
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "fintrack",
		Usage:     "Personal finance tracker client",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "path to a .env file; variables already set in the environment win",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "api--base-url",
				Usage: "finance API base URL",
				Value: app.DefaultConfigAPIBaseURL,
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			registerCommand(),
			logoutCommand(),
			statusCommand(),
			categoriesCommand(),
			transactionsCommand(),
			summaryCommand(),
			requestCommand(),
			serveCommand(),
		},
	}
}

// appAction is the body of a command that needs the configured App.
type appAction func(ctx context.Context, cmd *cli.Command, a *app.App) error

// withApp loads configuration, sets up logging and builds the App before
// running action. Logging is flushed when action returns.
func withApp(action appAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) (err error) {
		cfg, err := loadConfig(cmd.String("config"), cmd.String("env-file"), cmd, os.Environ)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Set up observability before creating app
		shutdown, err := observability.Instrument(ctx, cfg.ObservabilityOptions())
		if err != nil {
			return fmt.Errorf("failed to set up observability layer: %w", err)
		}
		defer func() {
			if shutdownErr := shutdown(context.WithoutCancel(ctx)); shutdownErr != nil && err == nil {
				err = shutdownErr
			}
		}()

		application, err := app.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to create app: %w", err)
		}

		return action(ctx, cmd, application)
	}
}
