package core

import "math"

// MonthSummary aggregates one calendar month: totals by type, their balance,
// and the category set augmented with per-category expense stats.
type MonthSummary struct {
	Month        Month
	TotalIncome  Money
	TotalExpense Money
	Balance      Money // income - expense
	Categories   []Category
}

// ComputeMonthSummary merges per-category expense totals into the known
// category set and derives the month's totals.
//
// Every known category gets a Spent value (zero when it has no expenses) and
// Percentage = round(spent/totalExpense*100). When totalExpense is zero every
// percentage is zero; there is no division.
func ComputeMonthSummary(month Month, income, expense Money, categories []Category, spentByCategory map[int64]Money) MonthSummary {
	s := MonthSummary{
		Month:        month,
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
		Categories:   make([]Category, len(categories)),
	}
	for i, c := range categories {
		c.Spent = spentByCategory[c.ID]
		c.Percentage = percentage(c.Spent, expense)
		s.Categories[i] = c
	}
	return s
}

func percentage(spent, total Money) int {
	if total.Cents <= 0 || spent.Cents <= 0 {
		return 0
	}
	return int(math.Round(float64(spent.Cents) / float64(total.Cents) * 100))
}
