package finance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"dompet/internal/amqp"
	"dompet/internal/core"
)

// DefaultRecentLimit caps the recent-transactions window.
const DefaultRecentLimit = 20

// Manager is the single source of truth for the in-memory view of financial
// data. Every operation performs its database work first, then re-fetches the
// dependent state and publishes it as one atomic snapshot update. On failure
// the previously published snapshot stays untouched and the error is returned
// to the caller.
//
// A Manager is constructed once at application start and passed by reference;
// there is no package-level instance.
type Manager struct {
	store       Store
	events      *amqp.Client // optional, nil disables event publishing
	recentLimit int

	mu         sync.RWMutex
	categories []core.Category
	recent     []core.Transaction
	splitBills []core.SplitBill
	summary    core.MonthSummary

	// Advisory UI-facing flag, toggled only for the duration of
	// AddTransaction. It is not a lock.
	busy atomic.Bool
}

// NewManager creates a manager over the given store. events may be nil.
func NewManager(store Store, events *amqp.Client) *Manager {
	return &Manager{
		store:       store,
		events:      events,
		recentLimit: DefaultRecentLimit,
	}
}

// SetRecentLimit overrides the recent-transactions window size. Call before
// serving traffic; values below 1 are ignored.
func (m *Manager) SetRecentLimit(n int) {
	if n >= 1 {
		m.recentLimit = n
	}
}

// Bootstrap loads every cached view from the store so the first reader sees
// real state. Intended to run once at startup.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if err := m.RefreshCategories(ctx); err != nil {
		return err
	}
	if err := m.RefreshRecentTransactions(ctx); err != nil {
		return err
	}
	if err := m.RefreshSplitBills(ctx); err != nil {
		return err
	}
	return m.RecalculateSummary(ctx, core.Month{})
}

// Busy reports whether an AddTransaction call is in flight.
func (m *Manager) Busy() bool {
	return m.busy.Load()
}

// Categories returns the cached category set, including the stats attached by
// the latest summary recalculation.
func (m *Manager) Categories() []core.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Category, len(m.categories))
	copy(out, m.categories)
	return out
}

// RecentTransactions returns the cached recent-transactions window.
func (m *Manager) RecentTransactions() []core.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Transaction, len(m.recent))
	copy(out, m.recent)
	return out
}

// SplitBills returns the cached split-bill list.
func (m *Manager) SplitBills() []core.SplitBill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.SplitBill, len(m.splitBills))
	copy(out, m.splitBills)
	return out
}

// Summary returns the most recently computed month summary.
func (m *Manager) Summary() core.MonthSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summary
}

// RefreshCategories replaces the cached category set with all stored rows.
func (m *Manager) RefreshCategories(ctx context.Context) error {
	cats, err := m.store.Categories(ctx)
	if err != nil {
		return fmt.Errorf("refresh categories: %w", err)
	}
	m.mu.Lock()
	m.categories = cats
	m.mu.Unlock()
	return nil
}

// AddCategory inserts a category and refreshes the cached set.
func (m *Manager) AddCategory(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	id, err := m.store.InsertCategory(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("add category: %w", err)
	}
	return id, m.RefreshCategories(ctx)
}

// UpdateCategory overwrites a category's display fields. Empty values leave
// the stored field unchanged.
func (m *Manager) UpdateCategory(ctx context.Context, id int64, name, icon, color string) error {
	if err := m.store.UpdateCategory(ctx, id, name, icon, color); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return m.RefreshCategories(ctx)
}

// DeleteCategory removes the category and every transaction referencing it,
// then refreshes categories, the recent window, and the current summary.
func (m *Manager) DeleteCategory(ctx context.Context, id int64) error {
	if err := m.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := m.RefreshCategories(ctx); err != nil {
		return err
	}
	if err := m.RefreshRecentTransactions(ctx); err != nil {
		return err
	}
	return m.RecalculateSummary(ctx, m.summaryMonth())
}

// AddTransaction inserts a transaction, then re-fetches the recent window and
// recomputes the current month's summary. The busy flag is set for the whole
// call.
func (m *Manager) AddTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	m.busy.Store(true)
	defer m.busy.Store(false)

	if err := t.Validate(); err != nil {
		return 0, err
	}
	t.Type = t.Type.Normalize()

	id, err := m.store.InsertTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("add transaction: %w", err)
	}
	m.publishTransactionEvent(ctx, amqp.TransactionCreated, id, t)

	if err := m.RefreshRecentTransactions(ctx); err != nil {
		return id, err
	}
	return id, m.RecalculateSummary(ctx, core.Month{})
}

// DeleteTransaction deletes by id, then re-fetches the recent window and
// recomputes the current month's summary.
func (m *Manager) DeleteTransaction(ctx context.Context, id int64) error {
	if err := m.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	m.publishTransactionEvent(ctx, amqp.TransactionDeleted, id, core.Transaction{})

	if err := m.RefreshRecentTransactions(ctx); err != nil {
		return err
	}
	return m.RecalculateSummary(ctx, core.Month{})
}

// RefreshRecentTransactions replaces the cached window with the newest rows,
// joined with their category display fields.
func (m *Manager) RefreshRecentTransactions(ctx context.Context) error {
	txs, err := m.store.RecentTransactions(ctx, m.recentLimit)
	if err != nil {
		return fmt.Errorf("refresh recent transactions: %w", err)
	}
	m.mu.Lock()
	m.recent = txs
	m.mu.Unlock()
	return nil
}

// RecalculateSummary recomputes totals and the per-category breakdown for the
// given month (the current month when zero) and publishes the summary together
// with the augmented category set as one state update.
func (m *Manager) RecalculateSummary(ctx context.Context, month core.Month) error {
	if month.IsZero() {
		month = core.CurrentMonth()
	}

	income, expense, err := m.store.MonthTotals(ctx, month)
	if err != nil {
		return fmt.Errorf("recalculate summary: %w", err)
	}
	spent, err := m.store.CategoryExpenseTotals(ctx, month)
	if err != nil {
		return fmt.Errorf("recalculate summary: %w", err)
	}
	cats, err := m.store.Categories(ctx)
	if err != nil {
		return fmt.Errorf("recalculate summary: %w", err)
	}

	summary := core.ComputeMonthSummary(month, income, expense, cats, spent)

	m.mu.Lock()
	m.summary = summary
	m.categories = summary.Categories
	m.mu.Unlock()
	return nil
}

// RefreshSplitBills replaces the cached split-bill list. Members are not
// eagerly joined; use SplitMembers for a single bill's detail.
func (m *Manager) RefreshSplitBills(ctx context.Context) error {
	bills, err := m.store.SplitBills(ctx)
	if err != nil {
		return fmt.Errorf("refresh split bills: %w", err)
	}
	m.mu.Lock()
	m.splitBills = bills
	m.mu.Unlock()
	return nil
}

// AddSplitBill persists the bill with all its members in a single store
// transaction and refreshes the cached list. A failure leaves no partial bill
// behind.
func (m *Manager) AddSplitBill(ctx context.Context, b core.SplitBill, members []core.SplitMember) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	for _, mem := range members {
		if err := mem.Validate(); err != nil {
			return 0, err
		}
	}
	id, err := m.store.InsertSplitBill(ctx, b, members)
	if err != nil {
		return 0, fmt.Errorf("add split bill: %w", err)
	}
	return id, m.RefreshSplitBills(ctx)
}

// SplitMembers loads one bill's members from the store.
func (m *Manager) SplitMembers(ctx context.Context, billID int64) ([]core.SplitMember, error) {
	return m.store.SplitMembers(ctx, billID)
}

// DeleteSplitBill removes the bill and its members, then refreshes the list.
func (m *Manager) DeleteSplitBill(ctx context.Context, id int64) error {
	if err := m.store.DeleteSplitBill(ctx, id); err != nil {
		return fmt.Errorf("delete split bill: %w", err)
	}
	return m.RefreshSplitBills(ctx)
}

// summaryMonth returns the month of the last computed summary, or the zero
// month when none has been computed yet.
func (m *Manager) summaryMonth() core.Month {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summary.Month
}

// publishTransactionEvent emits a change event to the bus. Publishing is
// best-effort: a failure is logged and the mutation still counts as
// successful, the budget worker's periodic sweep covers lost events.
func (m *Manager) publishTransactionEvent(ctx context.Context, kind amqp.EventKind, id int64, t core.Transaction) {
	if m.events == nil {
		return
	}
	ev := amqp.NewTransactionEvent(kind, id, t.CategoryID, t.Amount.Cents, string(t.Type))
	if t.Date != "" {
		if d, err := core.ParseDate(t.Date); err == nil {
			ev.Month = core.MonthOf(d).String()
		}
	}
	if err := m.events.PublishTransactionEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"kind", kind, "id", id, "error", err)
	}
}
