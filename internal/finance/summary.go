package finance

import (
	"cmp"
	"slices"
)

// CategoryTotal aggregates one category's transactions.
type CategoryTotal struct {
	Category string
	Income   Money
	Expense  Money
	Count    int
}

// Summary holds the dashboard totals for a set of transactions.
type Summary struct {
	Income     Money
	Expense    Money
	Balance    Money
	Count      int
	ByCategory []CategoryTotal
}

// Summarize totals transactions overall and per category. Categories are
// ordered by expense, largest first, then by name.
func Summarize(transactions []Transaction) Summary {
	var s Summary
	byName := make(map[string]*CategoryTotal)

	for _, tx := range transactions {
		name := tx.CategoryName()
		total, ok := byName[name]
		if !ok {
			total = &CategoryTotal{Category: name}
			byName[name] = total
		}
		total.Count++
		s.Count++

		switch tx.Type {
		case TransactionTypeIncome:
			s.Income = s.Income.Add(tx.Amount)
			total.Income = total.Income.Add(tx.Amount)
		case TransactionTypeExpense:
			s.Expense = s.Expense.Add(tx.Amount)
			total.Expense = total.Expense.Add(tx.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)

	s.ByCategory = make([]CategoryTotal, 0, len(byName))
	for _, total := range byName {
		s.ByCategory = append(s.ByCategory, *total)
	}
	slices.SortFunc(s.ByCategory, func(a, b CategoryTotal) int {
		if c := cmp.Compare(b.Expense.Cents, a.Expense.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})

	return s
}
