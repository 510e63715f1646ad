package finance

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/fintrack/internal/apiclient"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Sender performs an API call and decodes the JSON response into out.
// *apiclient.Client satisfies it.
type Sender interface {
	Do(ctx context.Context, path string, opts apiclient.Options, out any) error
}

// Compile-time check that *apiclient.Client implements Sender
var _ Sender = (*apiclient.Client)(nil)

// Category groups transactions. Names are unique per user.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Transaction is a single income or expense entry.
type Transaction struct {
	ID          int64           `json:"id"`
	Date        Date            `json:"date"`
	Type        TransactionType `json:"type"`
	Amount      Money           `json:"amount"`
	Description string          `json:"description"`
	Category    *Category       `json:"category"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CategoryName returns the category's name, or "" when the transaction has none.
func (t Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Name
}

// CategoryInput is the payload for creating or renaming a category.
type CategoryInput struct {
	Name string `json:"name" validate:"required,max=50"`
}

// TransactionInput is the payload for creating a transaction.
type TransactionInput struct {
	Date        Date            `json:"date"`
	Type        TransactionType `json:"type" validate:"required,oneof=income expense"`
	Amount      Money           `json:"amount"`
	Description string          `json:"description" validate:"max=200"`
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
}

// TransactionPatch is a partial update; nil fields are left unchanged.
type TransactionPatch struct {
	Date        *Date            `json:"date,omitempty"`
	Type        *TransactionType `json:"type,omitempty" validate:"omitempty,oneof=income expense"`
	Amount      *Money           `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=200"`
	CategoryID  *int64           `json:"category_id,omitempty" validate:"omitempty,gt=0"`
}

// TransactionFilter narrows a transaction listing. Zero fields are not sent.
type TransactionFilter struct {
	// Month in "2006-01" form.
	Month    string          `validate:"omitempty,datetime=2006-01"`
	Type     TransactionType `validate:"omitempty,oneof=income expense"`
	Category int64           `validate:"gte=0"`
	Query    string
	// Sort is passed through to the API, e.g. "date" or "-amount".
	Sort string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(TransactionInput)
		if in.Amount.Validate() != nil {
			sl.ReportError(in.Amount, "Amount", "amount", "positive", "")
		}
		if in.Date.IsZero() {
			sl.ReportError(in.Date, "Date", "date", "required", "")
		}
	}, TransactionInput{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(TransactionPatch)
		if p.Amount != nil && p.Amount.Validate() != nil {
			sl.ReportError(p.Amount, "Amount", "amount", "positive", "")
		}
	}, TransactionPatch{})
	return v
}
