// Package finance implements the state manager that mediates every read and
// write between the application and the durable store, republishing a
// consistent in-memory snapshot after each mutation.
package finance

import (
	"context"

	"dompet/internal/core"
)

// Store is the durable-store contract the manager runs against. It is
// implemented by storage.SQLiteStore; tests may substitute their own.
type Store interface {
	Categories(ctx context.Context) ([]core.Category, error)
	InsertCategory(ctx context.Context, c core.Category) (int64, error)
	UpdateCategory(ctx context.Context, id int64, name, icon, color string) error
	DeleteCategory(ctx context.Context, id int64) error

	InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
	DeleteTransaction(ctx context.Context, id int64) error
	RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error)

	MonthTotals(ctx context.Context, month core.Month) (income, expense core.Money, err error)
	CategoryExpenseTotals(ctx context.Context, month core.Month) (map[int64]core.Money, error)

	InsertSplitBill(ctx context.Context, b core.SplitBill, members []core.SplitMember) (int64, error)
	SplitBills(ctx context.Context) ([]core.SplitBill, error)
	SplitMembers(ctx context.Context, billID int64) ([]core.SplitMember, error)
	DeleteSplitBill(ctx context.Context, id int64) error
}
