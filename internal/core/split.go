package core

import "github.com/shopspring/decimal"

// SplitEvenly divides a bill total into n equal shares.
//
// Shares always sum exactly to the total: the quotient is truncated to whole
// cents and the remainder is distributed one cent at a time from the first
// share on.
func SplitEvenly(total Money, n int) []Money {
	if n <= 0 {
		return nil
	}
	per := decimal.NewFromInt(total.Cents).
		DivRound(decimal.NewFromInt(int64(n)), 0).
		IntPart()
	// DivRound rounds half away from zero; start from the floor instead so the
	// remainder is always non-negative.
	if per*int64(n) > total.Cents {
		per--
	}
	rem := total.Cents - per*int64(n)
	shares := make([]Money, n)
	for i := range shares {
		shares[i] = Money{Cents: per}
		if int64(i) < rem {
			shares[i].Cents++
		}
	}
	return shares
}
