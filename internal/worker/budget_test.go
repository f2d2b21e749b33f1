package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/storage"
)

func newTestWorker(t *testing.T) (*BudgetWorker, *storage.SQLiteStore) {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "dompet-worker-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := storage.Open(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewBudgetWorker(store), store
}

func seedCategory(t *testing.T, store *storage.SQLiteStore, name string, limitCents int64) int64 {
	t.Helper()
	id, err := store.InsertCategory(context.Background(), core.Category{
		Name:        name,
		BudgetLimit: core.Money{Cents: limitCents},
	})
	if err != nil {
		t.Fatalf("InsertCategory failed: %v", err)
	}
	return id
}

func seedTransaction(t *testing.T, store *storage.SQLiteStore, categoryID, cents int64, date string) {
	t.Helper()
	_, err := store.InsertTransaction(context.Background(), core.Transaction{
		CategoryID: categoryID,
		Amount:     core.Money{Cents: cents},
		Date:       date,
		Type:       core.Expense,
	})
	if err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}
}

func TestCheckCategory(t *testing.T) {
	w, store := newTestWorker(t)
	ctx := context.Background()
	june := core.Month{Year: 2024, Month: 6}

	foodID := seedCategory(t, store, "Food", 30000)
	funID := seedCategory(t, store, "Fun", 0) // no limit

	t.Run("under limit", func(t *testing.T) {
		seedTransaction(t, store, foodID, 20000, "2024-06-10")
		breach, err := w.CheckCategory(ctx, foodID, june)
		if err != nil {
			t.Fatalf("CheckCategory failed: %v", err)
		}
		if breach != nil {
			t.Errorf("unexpected breach: %+v", breach)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		seedTransaction(t, store, foodID, 15000, "2024-06-20")
		breach, err := w.CheckCategory(ctx, foodID, june)
		if err != nil {
			t.Fatalf("CheckCategory failed: %v", err)
		}
		if breach == nil {
			t.Fatalf("expected a breach at 35000 spent against 30000 limit")
		}
		if breach.Spent.Cents != 35000 || breach.Limit.Cents != 30000 {
			t.Errorf("breach = %+v", breach)
		}
	})

	t.Run("no limit never breaches", func(t *testing.T) {
		seedTransaction(t, store, funID, 999999, "2024-06-01")
		breach, err := w.CheckCategory(ctx, funID, june)
		if err != nil {
			t.Fatalf("CheckCategory failed: %v", err)
		}
		if breach != nil {
			t.Errorf("unexpected breach for unlimited category: %+v", breach)
		}
	})

	t.Run("other month not counted", func(t *testing.T) {
		breach, err := w.CheckCategory(ctx, foodID, core.Month{Year: 2024, Month: 7})
		if err != nil {
			t.Fatalf("CheckCategory failed: %v", err)
		}
		if breach != nil {
			t.Errorf("unexpected breach in empty month: %+v", breach)
		}
	})
}

func TestSweepMonth(t *testing.T) {
	w, store := newTestWorker(t)
	ctx := context.Background()
	june := core.Month{Year: 2024, Month: 6}

	foodID := seedCategory(t, store, "Food", 10000)
	transportID := seedCategory(t, store, "Transport", 5000)
	seedCategory(t, store, "Fun", 0)

	seedTransaction(t, store, foodID, 12000, "2024-06-05")
	seedTransaction(t, store, transportID, 4000, "2024-06-06")

	breaches, err := w.SweepMonth(ctx, june)
	if err != nil {
		t.Fatalf("SweepMonth failed: %v", err)
	}
	if len(breaches) != 1 {
		t.Fatalf("got %d breaches, want 1", len(breaches))
	}
	if breaches[0].CategoryID != foodID || breaches[0].Spent.Cents != 12000 {
		t.Errorf("breach = %+v", breaches[0])
	}
}

func TestHandleTransactionEvent(t *testing.T) {
	w, store := newTestWorker(t)
	ctx := context.Background()

	foodID := seedCategory(t, store, "Food", 1000)
	seedTransaction(t, store, foodID, 2000, "2024-06-05")

	t.Run("event with category", func(t *testing.T) {
		ev := &amqp.TransactionEvent{
			Kind:       amqp.TransactionCreated,
			ID:         1,
			CategoryID: foodID,
			Month:      "2024-06",
		}
		if err := w.HandleTransactionEvent(ctx, ev); err != nil {
			t.Fatalf("HandleTransactionEvent failed: %v", err)
		}
	})

	t.Run("delete event without detail sweeps", func(t *testing.T) {
		ev := &amqp.TransactionEvent{
			Kind:  amqp.TransactionDeleted,
			ID:    1,
			Month: "2024-06",
		}
		if err := w.HandleTransactionEvent(ctx, ev); err != nil {
			t.Fatalf("HandleTransactionEvent failed: %v", err)
		}
	})

	t.Run("unknown category is an error", func(t *testing.T) {
		ev := &amqp.TransactionEvent{
			Kind:       amqp.TransactionCreated,
			CategoryID: 9999,
			Month:      "2024-06",
		}
		if err := w.HandleTransactionEvent(ctx, ev); err == nil {
			t.Error("expected error for missing category")
		}
	})
}
