package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/florianilch/fintrack/internal/app"
	"github.com/florianilch/fintrack/internal/finance"
)

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Show income, expenses and balance for a month",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "month", Usage: "`YYYY-MM`, defaults to the current month"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			month := cmd.String("month")
			if month == "" {
				month = time.Now().Format("2006-01")
			}

			var (
				categories   []finance.Category
				transactions []finance.Transaction
			)

			g, gCtx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				categories, err = a.Categories.List(gCtx)
				return err
			})
			g.Go(func() error {
				var err error
				transactions, err = a.Transactions.List(gCtx, finance.TransactionFilter{Month: month})
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			s := finance.Summarize(transactions)
			w := cmd.Root().Writer

			fmt.Fprintf(w, "Summary for %s (%d transactions)\n\n", month, s.Count)

			totals := newTable(w, "Income", "Expense", "Balance")
			totals.Append([]string{s.Income.String(), s.Expense.String(), s.Balance.String()})
			totals.Render()
			fmt.Fprintln(w)

			byCategory := newTable(w, "Category", "Expense", "Income", "Count")
			seen := make(map[string]bool, len(s.ByCategory))
			for _, c := range s.ByCategory {
				seen[c.Category] = true
				name := c.Category
				if name == "" {
					name = "(none)"
				}
				byCategory.Append([]string{name, c.Expense.String(), c.Income.String(), strconv.Itoa(c.Count)})
			}
			// Categories without activity this month, already in name order
			for _, c := range categories {
				if !seen[c.Name] {
					byCategory.Append([]string{c.Name, finance.Money{}.String(), finance.Money{}.String(), "0"})
				}
			}
			byCategory.Render()
			return nil
		}),
	}
}
