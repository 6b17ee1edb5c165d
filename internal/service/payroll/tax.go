package payroll

import (
	"fmt"

	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// ComputeTax returns the progressive income tax on taxableIncome as the
// marginal sum over the bracket table: each bracket taxes only the slice
// of income that falls inside its own range. Brackets must be sorted by
// SortOrder ascending; inactive brackets are skipped. Taxable income at or
// beyond a finite top bracket's upper bound is uncovered and fails with
// ErrInvalidBracketConfig rather than silently under-taxing.
func ComputeTax(taxableIncome decimal.Decimal, brackets []payroll.TaxBracket) (decimal.Decimal, error) {
	total := decimal.Zero
	if !taxableIncome.IsPositive() {
		return total, nil
	}

	covered := false
	seen := 0
	for _, b := range brackets {
		if !b.IsActive {
			continue
		}
		seen++

		if b.MaxIncome == nil || taxableIncome.LessThan(*b.MaxIncome) {
			covered = true
		}

		upper := taxableIncome
		if b.MaxIncome != nil && upper.GreaterThan(*b.MaxIncome) {
			upper = *b.MaxIncome
		}
		portion := upper.Sub(b.MinIncome)
		if portion.IsPositive() {
			total = total.Add(portion.Mul(b.Rate))
		}
	}

	if seen == 0 {
		return decimal.Decimal{}, payroll.ErrNoActiveBrackets
	}
	if !covered {
		return decimal.Decimal{}, fmt.Errorf("%w: taxable income %s exceeds bracket coverage",
			payroll.ErrInvalidBracketConfig, taxableIncome)
	}

	return total, nil
}
