package core

import "testing"

func TestComputeMonthSummary(t *testing.T) {
	month := Month{Year: 2024, Month: 6}
	cats := []Category{
		{ID: 1, Name: "Food", Type: Expense},
		{ID: 2, Name: "Transport", Type: Expense},
		{ID: 3, Name: "Salary", Type: Income},
	}

	t.Run("single category takes 100 percent", func(t *testing.T) {
		s := ComputeMonthSummary(month,
			Money{}, Money{Cents: 50000},
			cats, map[int64]Money{1: {Cents: 50000}})

		if s.TotalExpense.Cents != 50000 || s.TotalIncome.Cents != 0 {
			t.Fatalf("totals: expense=%d income=%d", s.TotalExpense.Cents, s.TotalIncome.Cents)
		}
		if s.Balance.Cents != -50000 {
			t.Fatalf("balance = %d, want -50000", s.Balance.Cents)
		}
		if s.Categories[0].Spent.Cents != 50000 || s.Categories[0].Percentage != 100 {
			t.Fatalf("food: spent=%d pct=%d", s.Categories[0].Spent.Cents, s.Categories[0].Percentage)
		}
		if s.Categories[1].Spent.Cents != 0 || s.Categories[1].Percentage != 0 {
			t.Fatalf("transport should be zero, got spent=%d pct=%d",
				s.Categories[1].Spent.Cents, s.Categories[1].Percentage)
		}
	})

	t.Run("zero expense yields zero percentages", func(t *testing.T) {
		s := ComputeMonthSummary(month, Money{Cents: 120000}, Money{}, cats, nil)
		for _, c := range s.Categories {
			if c.Percentage != 0 {
				t.Fatalf("category %s percentage = %d, want 0", c.Name, c.Percentage)
			}
		}
		if s.Balance.Cents != 120000 {
			t.Fatalf("balance = %d", s.Balance.Cents)
		}
	})

	t.Run("percentages bounded and sum at most 100 plus rounding", func(t *testing.T) {
		spent := map[int64]Money{1: {Cents: 3333}, 2: {Cents: 6667}}
		s := ComputeMonthSummary(month, Money{}, Money{Cents: 10000}, cats, spent)
		sum := 0
		for _, c := range s.Categories {
			if c.Percentage < 0 || c.Percentage > 100 {
				t.Fatalf("category %s percentage %d out of range", c.Name, c.Percentage)
			}
			sum += c.Percentage
		}
		// Each value is individually rounded, so the sum can exceed 100 only by
		// the accumulated rounding, never by a whole share.
		if sum > 100+len(cats) {
			t.Fatalf("percentage sum %d exceeds rounding slack", sum)
		}
	})

	t.Run("idempotent for identical inputs", func(t *testing.T) {
		spent := map[int64]Money{1: {Cents: 7500}, 2: {Cents: 2500}}
		a := ComputeMonthSummary(month, Money{Cents: 500}, Money{Cents: 10000}, cats, spent)
		b := ComputeMonthSummary(month, Money{Cents: 500}, Money{Cents: 10000}, cats, spent)
		if a.Balance != b.Balance || a.TotalExpense != b.TotalExpense || a.TotalIncome != b.TotalIncome {
			t.Fatalf("totals differ between runs")
		}
		for i := range a.Categories {
			if a.Categories[i].Percentage != b.Categories[i].Percentage ||
				a.Categories[i].Spent != b.Categories[i].Spent {
				t.Fatalf("category %d differs between runs", i)
			}
		}
	})
}
