package payroll

import (
	"context"
	"fmt"

	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// AdjustmentClass is the tax/NSSF treatment of one adjustment. The
// resolver classifies every adjustment exactly once; the calculator
// consumes the pre-classified buckets and never re-derives treatment from
// the raw type and flags.
type AdjustmentClass string

const (
	// Added to both the NSSF base and taxable gross.
	ClassNssfAssessableEarning AdjustmentClass = "NSSF_ASSESSABLE_EARNING"
	// Added to taxable gross only, excluded from the NSSF base.
	ClassTaxableEarning AdjustmentClass = "TAXABLE_EARNING"
	// Added to net pay after tax; touches neither gross nor NSSF.
	ClassNonTaxableEarning AdjustmentClass = "NON_TAXABLE_EARNING"
	// Flat reduction of net pay, not tax-affecting.
	ClassDeduction AdjustmentClass = "DEDUCTION"
	// Added to net pay directly, treated as already-net.
	ClassBonus AdjustmentClass = "BONUS"
)

// Classify maps an adjustment's type and flags to its class.
func Classify(adj payroll.Adjustment) AdjustmentClass {
	switch adj.Type {
	case payroll.AdjustmentTypeDeduction:
		return ClassDeduction
	case payroll.AdjustmentTypeBonus:
		return ClassBonus
	default:
		if !adj.IsTaxable {
			return ClassNonTaxableEarning
		}
		if adj.IsNssfAssessable {
			return ClassNssfAssessableEarning
		}
		return ClassTaxableEarning
	}
}

// ClassifiedAdjustment pairs an adjustment with its resolved class.
type ClassifiedAdjustment struct {
	payroll.Adjustment
	Class AdjustmentClass
}

// Buckets holds the per-class sums the calculator consumes.
type Buckets struct {
	Items []ClassifiedAdjustment

	NssfAssessableEarnings decimal.Decimal
	TaxableEarnings        decimal.Decimal
	NonTaxableEarnings     decimal.Decimal
	Deductions             decimal.Decimal
	Bonuses                decimal.Decimal
}

// BucketsFrom classifies and sums a list of adjustments.
func BucketsFrom(adjustments []payroll.Adjustment) Buckets {
	b := Buckets{
		NssfAssessableEarnings: decimal.Zero,
		TaxableEarnings:        decimal.Zero,
		NonTaxableEarnings:     decimal.Zero,
		Deductions:             decimal.Zero,
		Bonuses:                decimal.Zero,
	}

	for _, adj := range adjustments {
		class := Classify(adj)
		b.Items = append(b.Items, ClassifiedAdjustment{Adjustment: adj, Class: class})

		switch class {
		case ClassNssfAssessableEarning:
			b.NssfAssessableEarnings = b.NssfAssessableEarnings.Add(adj.Amount)
		case ClassTaxableEarning:
			b.TaxableEarnings = b.TaxableEarnings.Add(adj.Amount)
		case ClassNonTaxableEarning:
			b.NonTaxableEarnings = b.NonTaxableEarnings.Add(adj.Amount)
		case ClassDeduction:
			b.Deductions = b.Deductions.Add(adj.Amount)
		case ClassBonus:
			b.Bonuses = b.Bonuses.Add(adj.Amount)
		}
	}

	return b
}

// AdjustmentResolver fetches and classifies the adjustments for one
// (employee, period) pair. Read-only; it performs no mutation.
type AdjustmentResolver struct {
	repo payroll.PayrollRepository
}

func NewAdjustmentResolver(repo payroll.PayrollRepository) *AdjustmentResolver {
	return &AdjustmentResolver{repo: repo}
}

func (r *AdjustmentResolver) Resolve(ctx context.Context, employeeID, periodID string) (Buckets, error) {
	adjustments, err := r.repo.ListAdjustments(ctx, periodID, &employeeID)
	if err != nil {
		return Buckets{}, fmt.Errorf("resolve adjustments for employee %s: %w", employeeID, err)
	}
	return BucketsFrom(adjustments), nil
}
