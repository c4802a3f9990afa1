package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Transaction is a single recorded money movement. Amount is always
	// positive; the sign of its contribution to a balance is derived from
	// Type. CategoryID may dangle if the category was deleted later.
	Transaction struct {
		ID         string          `json:"id"`
		Amount     float64         `json:"amount"`
		Type       TransactionType `json:"type"`
		CategoryID string          `json:"categoryId"`
		Date       time.Time       `json:"date"`
		Note       string          `json:"note,omitempty"`
		CreatedAt  time.Time       `json:"createdAt"`
		UpdatedAt  time.Time       `json:"updatedAt"`
	}

	// Category labels transactions. Icon and Color are display hints the
	// core carries but never interprets.
	Category struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Icon  string          `json:"icon"`
		Color string          `json:"color"`
		Type  TransactionType `json:"type"`
	}

	// TransactionWithCategory is a read-time view joining a transaction with
	// its category by value. It is derived and never persisted.
	TransactionWithCategory struct {
		Transaction
		Category Category `json:"category"`
	}

	// Period is a named inclusive date range. Periods are rebuilt on every
	// query because they are relative to "now".
	Period struct {
		Start time.Time `json:"startDate"`
		End   time.Time `json:"endDate"`
		Label string    `json:"label"`
	}

	// Balance is the gross and net summary over a set of transactions.
	// Total == Income - Expense always holds.
	Balance struct {
		Total   float64 `json:"total"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
	}

	// CategoryTotal is a per-category aggregate over a filtered set.
	// Percentage is relative to the total of that set, in [0, 100].
	CategoryTotal struct {
		CategoryID    string  `json:"categoryId"`
		CategoryName  string  `json:"categoryName"`
		CategoryColor string  `json:"categoryColor"`
		Amount        float64 `json:"amount"`
		Percentage    float64 `json:"percentage"`
	}

	// ChartData is a presentation-ready projection of category totals.
	// The three slices are index-aligned.
	ChartData struct {
		Labels []string  `json:"labels"`
		Data   []float64 `json:"data"`
		Colors []string  `json:"colors"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyCategory = errors.New("empty category id")
	ErrEmptyName     = errors.New("empty name")
)

// UnknownCategory is the sentinel substituted when a transaction references
// a category that no longer exists. Its Type is filled in from the
// transaction at join time. Callers can detect it by the empty ID.
var UnknownCategory = Category{
	ID:    "",
	Name:  "Unknown",
	Icon:  "help-circle",
	Color: "#808080",
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

// Validate checks boundary-level constraints. The aggregation engine itself
// accepts any transaction; this is for the request parser, which rejects
// non-positive amounts before they reach storage.
func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (c Category) Validate() error {
	if err := c.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
