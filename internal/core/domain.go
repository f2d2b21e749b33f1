package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

type (
	// TransactionType tags a transaction or category as expense or income.
	// An absent or unknown value is treated as expense.
	TransactionType string

	Money struct {
		Cents int64
	}

	// Category groups transactions under a name with display metadata.
	// Spent and Percentage are derived per-month and never persisted.
	Category struct {
		ID          int64
		Name        string
		Icon        string
		Color       string
		BudgetLimit Money
		Type        TransactionType

		Spent      Money
		Percentage int
	}

	// Transaction is a single dated monetary movement linked to one category.
	// CategoryName/Icon/Color are read-only projections joined at query time.
	Transaction struct {
		ID         int64
		CategoryID int64
		Amount     Money
		Date       string // ISO-8601, YYYY-MM-DD
		Note       string
		Type       TransactionType
		ImageRef   string
		CreatedAt  time.Time

		CategoryName  string
		CategoryIcon  string
		CategoryColor string
	}

	// SplitBill is a shared expense divided among named members.
	SplitBill struct {
		ID        int64
		Date      string
		Name      string
		Total     Money
		ImageRef  string
		CreatedAt time.Time
	}

	// SplitMember is one participant's share of a split bill.
	// IsMe marks the bill owner.
	SplitMember struct {
		ID     int64
		BillID int64
		Name   string
		Share  Money
		IsMe   bool
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyName     = errors.New("empty name")
	ErrNoMembers     = errors.New("split bill needs at least one member")
)

// Normalize maps absent or unknown values to Expense.
func (t TransactionType) Normalize() TransactionType {
	if t == Income {
		return Income
	}
	return Expense
}

// Valid reports whether t is an explicitly known type.
func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParseDate validates an ISO-8601 calendar date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Type != "" && !c.Type.Valid() {
		return ErrInvalidType
	}
	if c.BudgetLimit.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (tx Transaction) Validate() error {
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if _, err := ParseDate(tx.Date); err != nil {
		return err
	}
	if tx.Type != "" && !tx.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (b SplitBill) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if err := b.Total.Validate(); err != nil {
		return err
	}
	if _, err := ParseDate(b.Date); err != nil {
		return err
	}
	return nil
}

func (m SplitMember) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if m.Share.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
