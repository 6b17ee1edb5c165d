package payroll

import (
	"errors"
	"time"

	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// maxDependents caps the dependent tax deduction regardless of the
// configured per-dependent amount.
const maxDependents = 3

// CurrencyExponent returns the number of decimal places of a currency's
// smallest reporting unit. LAK has no minor unit.
func CurrencyExponent(currency string) int32 {
	if currency == payroll.CurrencyLAK {
		return 0
	}
	return 2
}

// roundUnit rounds half-up to the currency's smallest reporting unit.
// Each finalized quantity passes through here exactly once.
func roundUnit(d decimal.Decimal, currency string) decimal.Decimal {
	return d.Round(CurrencyExponent(currency))
}

// CalculatorInput carries everything one employee's calculation needs.
// Overtime and allowances arrive pre-resolved in LAK from upstream
// attendance and benefits processing.
type CalculatorInput struct {
	BaseSalary       decimal.Decimal // in ContractCurrency
	ContractCurrency string
	PaymentCurrency  string
	OvertimePay      decimal.Decimal
	Allowances       decimal.Decimal
	OtherDeductions  decimal.Decimal
	DependentCount   int
	Adjustments      Buckets
	EffectiveDate    time.Time // rate lookup date, conventionally the period end
}

// Breakdown is the fully computed salary result, all LAK except the
// original-currency mirrors.
type Breakdown struct {
	BaseSalary      decimal.Decimal
	OvertimePay     decimal.Decimal
	Allowances      decimal.Decimal
	GrossIncome     decimal.Decimal
	NssfBase        decimal.Decimal
	NssfEmployee    decimal.Decimal
	NssfEmployer    decimal.Decimal
	TaxableIncome   decimal.Decimal
	TaxDeduction    decimal.Decimal
	OtherDeductions decimal.Decimal
	NetSalary       decimal.Decimal

	BaseSalaryOriginal decimal.Decimal
	ContractCurrency   string
	ExchangeRateUsed   decimal.Decimal
	NetSalaryOriginal  decimal.Decimal
	PaymentCurrency    string
}

// Calculate computes one employee's salary breakdown against the run
// snapshot. Pure: no I/O, no mutation of the snapshot.
//
// The step order is load-bearing. Conversion precedes gross, the NSSF base
// is derived before the ceiling cap, the NSSF employee deduction and the
// dependent deduction come off before tax, and post-tax adjustments apply
// last.
func Calculate(in CalculatorInput, snap *Snapshot) (Breakdown, error) {
	if !in.BaseSalary.IsPositive() {
		return Breakdown{}, payroll.ErrInvalidBaseSalary
	}

	// Step 1: convert the base salary into the computation currency.
	rate, err := snap.RateFor(in.ContractCurrency, in.EffectiveDate)
	if err != nil {
		return Breakdown{}, err
	}
	baseLAK := in.BaseSalary.Mul(rate)

	// Step 2: gross income. Non-taxable earnings and bonuses stay out.
	gross := baseLAK.
		Add(in.OvertimePay).
		Add(in.Allowances).
		Add(in.Adjustments.NssfAssessableEarnings).
		Add(in.Adjustments.TaxableEarnings)

	// Step 3: NSSF base from assessable components only, capped.
	nssfBase := baseLAK.
		Add(in.OvertimePay).
		Add(in.Allowances).
		Add(in.Adjustments.NssfAssessableEarnings)
	if nssfBase.GreaterThan(snap.Settings.NssfCeiling) {
		nssfBase = snap.Settings.NssfCeiling
	}

	// Step 4: contributions. The employer share is informational and is
	// never subtracted from the employee's net pay.
	nssfEmployee := roundUnit(nssfBase.Mul(snap.Settings.NssfEmployeeRate), payroll.CurrencyLAK)
	nssfEmployer := roundUnit(nssfBase.Mul(snap.Settings.NssfEmployerRate), payroll.CurrencyLAK)

	// Step 5: dependent deduction, capped at maxDependents.
	dependents := in.DependentCount
	if dependents > maxDependents {
		dependents = maxDependents
	}
	dependentDeduction := snap.Settings.DependentDeduction.Mul(decimal.NewFromInt(int64(dependents)))

	// Step 6: taxable income, floored at zero.
	taxable := gross.Sub(nssfEmployee).Sub(dependentDeduction)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	// Step 7: progressive tax.
	tax, err := ComputeTax(taxable, snap.Brackets)
	if err != nil {
		return Breakdown{}, err
	}
	tax = roundUnit(tax, payroll.CurrencyLAK)

	// Step 8: net pay.
	net := gross.
		Sub(nssfEmployee).
		Sub(tax).
		Sub(in.OtherDeductions).
		Sub(in.Adjustments.Deductions).
		Add(in.Adjustments.NonTaxableEarnings).
		Add(in.Adjustments.Bonuses)
	net = roundUnit(net, payroll.CurrencyLAK)

	// Step 9: mirror net pay into the payment currency.
	netOriginal := net
	if in.PaymentCurrency != payroll.CurrencyLAK {
		payRate, err := snap.RateFor(in.PaymentCurrency, in.EffectiveDate)
		if err != nil {
			return Breakdown{}, err
		}
		netOriginal = net.DivRound(payRate, CurrencyExponent(in.PaymentCurrency))
	}

	return Breakdown{
		BaseSalary:      baseLAK,
		OvertimePay:     in.OvertimePay,
		Allowances:      in.Allowances,
		GrossIncome:     gross,
		NssfBase:        nssfBase,
		NssfEmployee:    nssfEmployee,
		NssfEmployer:    nssfEmployer,
		TaxableIncome:   taxable,
		TaxDeduction:    tax,
		OtherDeductions: in.OtherDeductions,
		NetSalary:       net,

		BaseSalaryOriginal: in.BaseSalary,
		ContractCurrency:   in.ContractCurrency,
		ExchangeRateUsed:   rate,
		NetSalaryOriginal:  netOriginal,
		PaymentCurrency:    in.PaymentCurrency,
	}, nil
}

// IsConfigError reports whether a calculation error indicts the bracket
// configuration rather than one employee's data. Configuration errors
// abort the whole run.
func IsConfigError(err error) bool {
	return errors.Is(err, payroll.ErrInvalidBracketConfig) ||
		errors.Is(err, payroll.ErrNoActiveBrackets)
}
