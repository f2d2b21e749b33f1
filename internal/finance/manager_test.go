package finance

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dompet/internal/core"
	"dompet/internal/storage"
)

// The real store backs these tests; the manager's consistency rules are about
// what it republishes after touching durable state.
var _ Store = (*storage.SQLiteStore)(nil)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "dompet-manager-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := storage.Open(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewManager(store, nil)
}

func TestAddCategoryDefaults(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if err := m.RefreshCategories(ctx); err != nil {
		t.Fatalf("RefreshCategories failed: %v", err)
	}
	before := len(m.Categories())

	if _, err := m.AddCategory(ctx, core.Category{Name: "Food", Icon: "utensils", Color: "#FF9800"}); err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}

	cats := m.Categories()
	if len(cats) != before+1 {
		t.Fatalf("category set size = %d, want %d", len(cats), before+1)
	}
	if cats[len(cats)-1].Type != core.Expense {
		t.Errorf("omitted type should default to expense, got %q", cats[len(cats)-1].Type)
	}

	if _, err := m.AddCategory(ctx, core.Category{Name: ""}); err == nil {
		t.Errorf("expected validation error for empty name")
	}
}

func TestDeleteCategoryCascades(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.AddCategory(ctx, core.Category{Name: "Food"})
	if err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	if _, err := m.AddTransaction(ctx, core.Transaction{
		CategoryID: id, Amount: core.Money{Cents: 50000}, Date: "2024-06-15", Note: "lunch",
	}); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}

	if err := m.DeleteCategory(ctx, id); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}

	for _, tx := range m.RecentTransactions() {
		if tx.CategoryID == id {
			t.Errorf("cache still references deleted category %d", id)
		}
	}
	for _, c := range m.Categories() {
		if c.ID == id {
			t.Errorf("category set still contains deleted category %d", id)
		}
	}
}

func TestMonthSummaryScenario(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	foodID, err := m.AddCategory(ctx, core.Category{Name: "Food", Type: core.Expense})
	if err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	if _, err := m.AddTransaction(ctx, core.Transaction{
		CategoryID: foodID,
		Amount:     core.Money{Cents: 50000},
		Date:       "2024-06-15",
		Note:       "lunch",
		Type:       core.Expense,
	}); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}

	june := core.Month{Year: 2024, Month: 6}
	if err := m.RecalculateSummary(ctx, june); err != nil {
		t.Fatalf("RecalculateSummary failed: %v", err)
	}

	s := m.Summary()
	if s.TotalExpense.Cents != 50000 {
		t.Errorf("totalExpense = %d, want 50000", s.TotalExpense.Cents)
	}
	if s.TotalIncome.Cents != 0 {
		t.Errorf("totalIncome = %d, want 0", s.TotalIncome.Cents)
	}
	if s.Balance.Cents != -50000 {
		t.Errorf("balance = %d, want -50000", s.Balance.Cents)
	}

	var food core.Category
	for _, c := range s.Categories {
		if c.ID == foodID {
			food = c
		}
	}
	if food.Spent.Cents != 50000 {
		t.Errorf("Food spent = %d, want 50000", food.Spent.Cents)
	}
	if food.Percentage != 100 {
		t.Errorf("Food percentage = %d, want 100", food.Percentage)
	}

	t.Run("idempotent recomputation", func(t *testing.T) {
		first := m.Summary()
		if err := m.RecalculateSummary(ctx, june); err != nil {
			t.Fatalf("RecalculateSummary failed: %v", err)
		}
		second := m.Summary()
		if first.Balance != second.Balance ||
			first.TotalIncome != second.TotalIncome ||
			first.TotalExpense != second.TotalExpense {
			t.Errorf("totals changed without writes: %+v vs %+v", first, second)
		}
		for i := range first.Categories {
			if first.Categories[i].Percentage != second.Categories[i].Percentage {
				t.Errorf("percentages changed without writes")
			}
		}
	})

	t.Run("delete decreases expense by exactly the amount", func(t *testing.T) {
		id, err := m.AddTransaction(ctx, core.Transaction{
			CategoryID: foodID, Amount: core.Money{Cents: 12345}, Date: "2024-06-20", Type: core.Expense,
		})
		if err != nil {
			t.Fatalf("AddTransaction failed: %v", err)
		}
		if err := m.RecalculateSummary(ctx, june); err != nil {
			t.Fatalf("RecalculateSummary failed: %v", err)
		}
		before := m.Summary().TotalExpense

		if err := m.DeleteTransaction(ctx, id); err != nil {
			t.Fatalf("DeleteTransaction failed: %v", err)
		}
		if err := m.RecalculateSummary(ctx, june); err != nil {
			t.Fatalf("RecalculateSummary failed: %v", err)
		}
		after := m.Summary().TotalExpense
		if before.Cents-after.Cents != 12345 {
			t.Errorf("expense delta = %d, want 12345", before.Cents-after.Cents)
		}
	})
}

func TestSummaryZeroExpenseMonth(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	salaryID, err := m.AddCategory(ctx, core.Category{Name: "Salary", Type: core.Income})
	if err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	if _, err := m.AddCategory(ctx, core.Category{Name: "Food"}); err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	if _, err := m.AddTransaction(ctx, core.Transaction{
		CategoryID: salaryID, Amount: core.Money{Cents: 900000}, Date: "2024-03-01", Type: core.Income,
	}); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}

	if err := m.RecalculateSummary(ctx, core.Month{Year: 2024, Month: 3}); err != nil {
		t.Fatalf("RecalculateSummary failed: %v", err)
	}

	s := m.Summary()
	if s.TotalExpense.Cents != 0 {
		t.Fatalf("totalExpense = %d, want 0", s.TotalExpense.Cents)
	}
	for _, c := range s.Categories {
		if c.Percentage != 0 {
			t.Errorf("category %s percentage = %d, want 0 when month has no expense", c.Name, c.Percentage)
		}
	}
	if s.Balance.Cents != 900000 {
		t.Errorf("balance = %d, want 900000", s.Balance.Cents)
	}
}

func TestSummaryPercentagesBounded(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"Food", "Transport", "Fun"} {
		id, err := m.AddCategory(ctx, core.Category{Name: name})
		if err != nil {
			t.Fatalf("AddCategory failed: %v", err)
		}
		ids = append(ids, id)
	}
	amounts := []int64{3333, 3333, 3334}
	for i, id := range ids {
		if _, err := m.AddTransaction(ctx, core.Transaction{
			CategoryID: id, Amount: core.Money{Cents: amounts[i]}, Date: "2024-06-10",
		}); err != nil {
			t.Fatalf("AddTransaction failed: %v", err)
		}
	}

	if err := m.RecalculateSummary(ctx, core.Month{Year: 2024, Month: 6}); err != nil {
		t.Fatalf("RecalculateSummary failed: %v", err)
	}

	sum := 0
	for _, c := range m.Summary().Categories {
		if c.Percentage < 0 || c.Percentage > 100 {
			t.Errorf("category %s percentage %d out of [0,100]", c.Name, c.Percentage)
		}
		sum += c.Percentage
	}
	if sum > 100+len(ids) {
		t.Errorf("percentage sum %d beyond rounding slack", sum)
	}
}

func TestSplitBillLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	t.Run("add and list", func(t *testing.T) {
		id, err := m.AddSplitBill(ctx,
			core.SplitBill{Date: "2024-06-15", Name: "Dinner", Total: core.Money{Cents: 90000}},
			[]core.SplitMember{
				{Name: "Ari", Share: core.Money{Cents: 30000}, IsMe: true},
				{Name: "Bud", Share: core.Money{Cents: 30000}},
				{Name: "Cici", Share: core.Money{Cents: 30000}},
			})
		if err != nil {
			t.Fatalf("AddSplitBill failed: %v", err)
		}

		bills := m.SplitBills()
		if len(bills) != 1 || bills[0].ID != id {
			t.Fatalf("expected cached bill %d, got %+v", id, bills)
		}

		members, err := m.SplitMembers(ctx, id)
		if err != nil {
			t.Fatalf("SplitMembers failed: %v", err)
		}
		if len(members) != 3 {
			t.Errorf("expected 3 members, got %d", len(members))
		}
	})

	t.Run("failed member leaves no bill behind", func(t *testing.T) {
		before := len(m.SplitBills())
		_, err := m.AddSplitBill(ctx,
			core.SplitBill{Date: "2024-06-16", Name: "Broken", Total: core.Money{Cents: 10000}},
			[]core.SplitMember{{Name: "", Share: core.Money{Cents: 10000}}})
		if err == nil {
			t.Fatalf("expected validation error for empty member name")
		}
		if err := m.RefreshSplitBills(ctx); err != nil {
			t.Fatalf("RefreshSplitBills failed: %v", err)
		}
		if len(m.SplitBills()) != before {
			t.Errorf("bill persisted despite member failure")
		}
	})

	t.Run("delete removes bill from cache", func(t *testing.T) {
		bills := m.SplitBills()
		if len(bills) == 0 {
			t.Fatalf("need a bill to delete")
		}
		if err := m.DeleteSplitBill(ctx, bills[0].ID); err != nil {
			t.Fatalf("DeleteSplitBill failed: %v", err)
		}
		for _, b := range m.SplitBills() {
			if b.ID == bills[0].ID {
				t.Errorf("deleted bill still cached")
			}
		}
	})
}

func TestBusyFlagClearedAfterFailure(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	// Invalid date fails validation before any database work.
	if _, err := m.AddTransaction(ctx, core.Transaction{
		CategoryID: 1, Amount: core.Money{Cents: 100}, Date: "not-a-date",
	}); err == nil {
		t.Fatalf("expected error")
	}
	if m.Busy() {
		t.Errorf("busy flag should be cleared after a failed AddTransaction")
	}
}

func TestFailureLeavesPriorStateUntouched(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.AddCategory(ctx, core.Category{Name: "Food"})
	if err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	if _, err := m.AddTransaction(ctx, core.Transaction{
		CategoryID: id, Amount: core.Money{Cents: 1000}, Date: "2024-06-01",
	}); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	before := m.RecentTransactions()

	if _, err := m.AddTransaction(ctx, core.Transaction{
		CategoryID: id, Amount: core.Money{Cents: -5}, Date: "2024-06-02",
	}); err == nil {
		t.Fatalf("expected validation error")
	}

	after := m.RecentTransactions()
	if len(after) != len(before) {
		t.Errorf("failed mutation changed the cached window: %d vs %d", len(before), len(after))
	}
}
