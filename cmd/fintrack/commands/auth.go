package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/fintrack/internal/app"
)

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "account username (prompted when omitted)",
		},
		&cli.BoolFlag{
			Name:  "password-stdin",
			Usage: "read the password from standard input",
		},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the API credentials",
		Flags: credentialFlags(),
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			username, password, err := promptCredentials(cmd)
			if err != nil {
				return err
			}

			token, err := a.Account.Login(ctx, username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			printf(cmd, "Signed in as %s\n", username)
			if !token.Expiry.IsZero() {
				printf(cmd, "Access token valid until %s\n", token.Expiry.Local().Format(time.DateTime))
			}
			return nil
		}),
	}
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account",
		Flags: credentialFlags(),
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			username, password, err := promptCredentials(cmd)
			if err != nil {
				return err
			}

			if err := a.Account.Register(ctx, username, password); err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			printf(cmd, "Account %s created, run \"fintrack login\" to sign in\n", username)
			return nil
		}),
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Remove the stored API credentials",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			if err := a.Account.Logout(ctx); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			printf(cmd, "Signed out\n")
			return nil
		}),
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show whether credentials are stored and when they expire",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			status, err := a.Account.Status(ctx)
			if err != nil {
				return err
			}

			if !status.Authenticated {
				printf(cmd, "Not signed in\n")
				return nil
			}

			printf(cmd, "Signed in (storage: %s)\n", a.Config().Credentials.Storage)
			printf(cmd, "Access token expires:  %s\n", formatExpiry(status.AccessExpiry))
			printf(cmd, "Refresh token expires: %s\n", formatExpiry(status.RefreshExpiry))
			return nil
		}),
	}
}

func formatExpiry(t time.Time) string {
	switch {
	case t.IsZero():
		return "unknown"
	case time.Now().After(t):
		return t.Local().Format(time.DateTime) + " (expired)"
	default:
		return t.Local().Format(time.DateTime)
	}
}

// promptCredentials reads the username and password from flags, standard
// input or an interactive prompt.
func promptCredentials(cmd *cli.Command) (string, string, error) {
	root := cmd.Root()
	in := bufio.NewReader(root.Reader)

	username := strings.TrimSpace(cmd.String("username"))
	if username == "" {
		if cmd.Bool("password-stdin") {
			return "", "", errors.New("--username is required with --password-stdin")
		}
		fmt.Fprint(root.ErrWriter, "Username: ")
		line, err := readLine(in)
		if err != nil {
			return "", "", fmt.Errorf("reading username: %w", err)
		}
		username = line
	}
	if username == "" {
		return "", "", errors.New("username is required")
	}

	var password string
	if f, ok := root.Reader.(*os.File); ok && !cmd.Bool("password-stdin") && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(root.ErrWriter, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(root.ErrWriter)
		if err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}
		password = string(b)
	} else {
		line, err := readLine(in)
		if err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}
		password = line
	}
	if password == "" {
		return "", "", errors.New("password is required")
	}

	return username, password, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
