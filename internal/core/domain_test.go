package core

import "testing"

func TestTransactionTypeNormalize(t *testing.T) {
	cases := []struct {
		in  TransactionType
		out TransactionType
	}{
		{"", Expense},
		{"expense", Expense},
		{"income", Income},
		{"EXPENSE", Expense}, // unknown casing defaults to expense
		{"garbage", Expense},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.out {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	good := Category{Name: "Food", Icon: "utensils", Color: "#FF9800"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Category{
		{Name: ""},
		{Name: "   "},
		{Name: "Food", Type: "weird"},
		{Name: "Food", BudgetLimit: Money{Cents: -1}},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{CategoryID: 1, Amount: Money{Cents: 50000}, Date: "2024-06-15", Note: "lunch"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{CategoryID: 1, Amount: Money{Cents: 0}, Date: "2024-06-15"},
		{CategoryID: 1, Amount: Money{Cents: -5}, Date: "2024-06-15"},
		{CategoryID: 1, Amount: Money{Cents: 100}, Date: "15/06/2024"},
		{CategoryID: 1, Amount: Money{Cents: 100}, Date: ""},
		{CategoryID: 1, Amount: Money{Cents: 100}, Date: "2024-06-15", Type: "transfer"},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSplitBillValidate(t *testing.T) {
	good := SplitBill{Name: "Dinner", Total: Money{Cents: 90000}, Date: "2024-06-15"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []SplitBill{
		{Name: "", Total: Money{Cents: 90000}, Date: "2024-06-15"},
		{Name: "Dinner", Total: Money{Cents: 0}, Date: "2024-06-15"},
		{Name: "Dinner", Total: Money{Cents: 90000}, Date: "June 15"},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSplitMemberValidate(t *testing.T) {
	if err := (SplitMember{Name: "Ari", Share: Money{Cents: 30000}}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// Zero share is allowed, a member may owe nothing.
	if err := (SplitMember{Name: "Bud", Share: Money{}}).Validate(); err != nil {
		t.Fatalf("expected ok for zero share, got %v", err)
	}
	if err := (SplitMember{Name: "", Share: Money{Cents: 1}}).Validate(); err == nil {
		t.Fatalf("expected error for empty name")
	}
}
