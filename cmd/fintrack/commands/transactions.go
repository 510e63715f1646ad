package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/fintrack/internal/app"
	"github.com/florianilch/fintrack/internal/finance"
)

func transactionsCommand() *cli.Command {
	return &cli.Command{
		Name:    "transactions",
		Aliases: []string{"tx"},
		Usage:   "Manage income and expense entries",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List transactions",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "month", Usage: "only transactions in `YYYY-MM`"},
					&cli.StringFlag{Name: "type", Usage: "income or expense"},
					&cli.IntFlag{Name: "category", Usage: "category `ID`"},
					&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "match description text"},
					&cli.StringFlag{Name: "sort", Usage: "sort field, prefix with - for descending (e.g. -amount)"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					transactions, err := a.Transactions.List(ctx, finance.TransactionFilter{
						Month:    cmd.String("month"),
						Type:     finance.TransactionType(cmd.String("type")),
						Category: int64(cmd.Int("category")),
						Query:    cmd.String("search"),
						Sort:     cmd.String("sort"),
					})
					if err != nil {
						return err
					}

					table := newTable(cmd.Root().Writer, "ID", "Date", "Type", "Amount", "Category", "Description")
					for _, tx := range transactions {
						table.Append([]string{
							strconv.FormatInt(tx.ID, 10),
							tx.Date.String(),
							string(tx.Type),
							tx.Amount.String(),
							tx.CategoryName(),
							tx.Description,
						})
					}
					table.Render()
					return nil
				}),
			},
			{
				Name:  "add",
				Usage: "Record a transaction",
				Flags: transactionFlags(),
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					in := finance.TransactionInput{
						Type:        finance.TransactionType(cmd.String("type")),
						Description: cmd.String("description"),
						CategoryID:  int64(cmd.Int("category")),
					}

					var err error
					if in.Amount, err = finance.ParseMoney(cmd.String("amount")); err != nil {
						return err
					}
					in.Date = finance.Date{Time: time.Now().UTC().Truncate(24 * time.Hour)}
					if cmd.IsSet("date") {
						if in.Date, err = finance.ParseDate(cmd.String("date")); err != nil {
							return err
						}
					}

					tx, err := a.Transactions.Create(ctx, in)
					if err != nil {
						return err
					}
					printf(cmd, "Recorded %s %s on %s (id %d)\n", tx.Type, tx.Amount, tx.Date, tx.ID)
					return nil
				}),
			},
			{
				Name:      "update",
				Usage:     "Change fields of a transaction",
				ArgsUsage: "ID",
				Flags:     transactionFlags(),
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					if cmd.NArg() != 1 {
						return fmt.Errorf("expected ID, got %d arguments", cmd.NArg())
					}
					id, err := parseID(cmd.Args().First())
					if err != nil {
						return err
					}

					patch, err := transactionPatch(cmd)
					if err != nil {
						return err
					}

					tx, err := a.Transactions.Update(ctx, id, patch)
					if err != nil {
						return err
					}
					printf(cmd, "Updated transaction %d\n", tx.ID)
					return nil
				}),
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a transaction",
				ArgsUsage: "ID",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					if cmd.NArg() != 1 {
						return fmt.Errorf("expected ID, got %d arguments", cmd.NArg())
					}
					id, err := parseID(cmd.Args().First())
					if err != nil {
						return err
					}
					if err := a.Transactions.Delete(ctx, id); err != nil {
						return err
					}
					printf(cmd, "Deleted transaction %d\n", id)
					return nil
				}),
			},
		},
	}
}

func transactionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "date", Usage: "`YYYY-MM-DD`, defaults to today"},
		&cli.StringFlag{Name: "type", Usage: "income or expense"},
		&cli.StringFlag{Name: "amount", Usage: "positive amount, e.g. 12.50"},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}},
		&cli.IntFlag{Name: "category", Usage: "category `ID`"},
	}
}

// transactionPatch builds a patch from the flags that were set explicitly.
func transactionPatch(cmd *cli.Command) (finance.TransactionPatch, error) {
	var patch finance.TransactionPatch
	if cmd.IsSet("date") {
		d, err := finance.ParseDate(cmd.String("date"))
		if err != nil {
			return patch, err
		}
		patch.Date = &d
	}
	if cmd.IsSet("type") {
		t := finance.TransactionType(cmd.String("type"))
		patch.Type = &t
	}
	if cmd.IsSet("amount") {
		m, err := finance.ParseMoney(cmd.String("amount"))
		if err != nil {
			return patch, err
		}
		patch.Amount = &m
	}
	if cmd.IsSet("description") {
		d := cmd.String("description")
		patch.Description = &d
	}
	if cmd.IsSet("category") {
		id := int64(cmd.Int("category"))
		patch.CategoryID = &id
	}
	if patch == (finance.TransactionPatch{}) {
		return patch, fmt.Errorf("nothing to update, set at least one of --date --type --amount --description --category")
	}
	return patch, nil
}
