package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/fintrack/internal/apiclient"
	"github.com/florianilch/fintrack/internal/app"
)

func requestCommand() *cli.Command {
	return &cli.Command{
		Name:      "request",
		Usage:     "Send an authenticated request to the API and print the JSON response",
		ArgsUsage: "METHOD PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON request body"},
			&cli.BoolFlag{Name: "no-auth", Usage: "send without credentials"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("expected METHOD PATH, got %d arguments", cmd.NArg())
			}

			opts := apiclient.Options{
				Method: strings.ToUpper(cmd.Args().Get(0)),
				NoAuth: cmd.Bool("no-auth"),
			}
			if data := cmd.String("data"); data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				opts.Body = json.RawMessage(data)
			}
			if opts.Method == http.MethodGet && opts.Body != nil {
				return fmt.Errorf("--data cannot be used with GET")
			}

			data, err := a.Client.Send(ctx, cmd.Args().Get(1), opts)
			if err != nil {
				var apiErr *apiclient.Error
				if errors.As(err, &apiErr) && len(apiErr.Data) > 0 {
					_ = printJSON(cmd.Root().ErrWriter, apiErr.Data)
				}
				return err
			}
			return printJSON(cmd.Root().Writer, data)
		}),
	}
}
