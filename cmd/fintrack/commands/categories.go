package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/fintrack/internal/app"
)

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:    "categories",
		Aliases: []string{"cat"},
		Usage:   "Manage categories",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List categories",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					categories, err := a.Categories.List(ctx)
					if err != nil {
						return err
					}

					table := newTable(cmd.Root().Writer, "ID", "Name")
					for _, c := range categories {
						table.Append([]string{strconv.FormatInt(c.ID, 10), c.Name})
					}
					table.Render()
					return nil
				}),
			},
			{
				Name:      "add",
				Usage:     "Create a category",
				ArgsUsage: "NAME",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					if cmd.NArg() != 1 {
						return fmt.Errorf("expected NAME, got %d arguments", cmd.NArg())
					}
					c, err := a.Categories.Create(ctx, cmd.Args().First())
					if err != nil {
						return err
					}
					printf(cmd, "Created category %d %q\n", c.ID, c.Name)
					return nil
				}),
			},
			{
				Name:      "rename",
				Usage:     "Rename a category",
				ArgsUsage: "ID NAME",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					if cmd.NArg() != 2 {
						return fmt.Errorf("expected ID NAME, got %d arguments", cmd.NArg())
					}
					id, err := parseID(cmd.Args().Get(0))
					if err != nil {
						return err
					}
					c, err := a.Categories.Rename(ctx, id, cmd.Args().Get(1))
					if err != nil {
						return err
					}
					printf(cmd, "Renamed category %d to %q\n", c.ID, c.Name)
					return nil
				}),
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a category",
				ArgsUsage: "ID",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					if cmd.NArg() != 1 {
						return fmt.Errorf("expected ID, got %d arguments", cmd.NArg())
					}
					id, err := parseID(cmd.Args().First())
					if err != nil {
						return err
					}
					if err := a.Categories.Delete(ctx, id); err != nil {
						return err
					}
					printf(cmd, "Deleted category %d\n", id)
					return nil
				}),
			},
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
