// Package worker watches transaction events and flags categories whose
// month-to-date spending exceeds their budget limit.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/core"
)

// Store is the slice of the durable store the budget worker reads.
type Store interface {
	Category(ctx context.Context, id int64) (core.Category, error)
	Categories(ctx context.Context) ([]core.Category, error)
	CategoryExpenseTotals(ctx context.Context, month core.Month) (map[int64]core.Money, error)
}

// Breach records one category over its budget for a month.
type Breach struct {
	CategoryID   int64
	CategoryName string
	Month        core.Month
	Limit        core.Money
	Spent        core.Money
}

// BudgetWorker checks budget limits reactively on events and via a periodic
// full sweep that covers lost events.
type BudgetWorker struct {
	store Store
}

func NewBudgetWorker(store Store) *BudgetWorker {
	return &BudgetWorker{store: store}
}

// HandleTransactionEvent reacts to a single event from the bus. Events
// without category detail fall back to a full sweep of the event's month.
func (w *BudgetWorker) HandleTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	month := core.CurrentMonth()
	if ev.Month != "" {
		if m, err := core.ParseMonth(ev.Month); err == nil {
			month = m
		}
	}

	if ev.CategoryID == 0 {
		_, err := w.SweepMonth(ctx, month)
		return err
	}

	breach, err := w.CheckCategory(ctx, ev.CategoryID, month)
	if err != nil {
		return err
	}
	if breach != nil {
		logBreach(ctx, *breach)
	}
	return nil
}

// CheckCategory compares one category's month spending against its limit.
// Categories without a limit never breach.
func (w *BudgetWorker) CheckCategory(ctx context.Context, categoryID int64, month core.Month) (*Breach, error) {
	cat, err := w.store.Category(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("load category %d: %w", categoryID, err)
	}
	if cat.BudgetLimit.Cents <= 0 {
		return nil, nil
	}

	totals, err := w.store.CategoryExpenseTotals(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("load category totals: %w", err)
	}

	spent := totals[categoryID]
	if spent.Cents <= cat.BudgetLimit.Cents {
		return nil, nil
	}
	return &Breach{
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		Month:        month,
		Limit:        cat.BudgetLimit,
		Spent:        spent,
	}, nil
}

// SweepMonth checks every limited category for the given month.
func (w *BudgetWorker) SweepMonth(ctx context.Context, month core.Month) ([]Breach, error) {
	cats, err := w.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	totals, err := w.store.CategoryExpenseTotals(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("load category totals: %w", err)
	}

	var breaches []Breach
	for _, cat := range cats {
		if cat.BudgetLimit.Cents <= 0 {
			continue
		}
		spent := totals[cat.ID]
		if spent.Cents > cat.BudgetLimit.Cents {
			b := Breach{
				CategoryID:   cat.ID,
				CategoryName: cat.Name,
				Month:        month,
				Limit:        cat.BudgetLimit,
				Spent:        spent,
			}
			logBreach(ctx, b)
			breaches = append(breaches, b)
		}
	}
	return breaches, nil
}

// Run performs a periodic sweep of the current month until ctx is cancelled.
func (w *BudgetWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Budget sweep loop started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Budget sweep loop stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.SweepMonth(ctx, core.CurrentMonth()); err != nil {
				slog.ErrorContext(ctx, "Budget sweep failed", "error", err)
			}
		}
	}
}

func logBreach(ctx context.Context, b Breach) {
	slog.WarnContext(ctx, "Budget limit exceeded",
		"category_id", b.CategoryID,
		"category", b.CategoryName,
		"month", b.Month.String(),
		"limit_cents", b.Limit.Cents,
		"spent_cents", b.Spent.Cents)
}
