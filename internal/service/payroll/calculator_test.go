package payroll

import (
	"testing"

	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := NewSnapshot(testSettings(), laoBrackets(), testRates())
	require.NoError(t, err)
	return snap
}

func lakInput(base string) CalculatorInput {
	return CalculatorInput{
		BaseSalary:       dec(base),
		ContractCurrency: "LAK",
		PaymentCurrency:  "LAK",
		EffectiveDate:    day("2026-03-31"),
	}
}

func TestCalculate_StandardLAKEmployee(t *testing.T) {
	// 6M LAK base, no extras: NSSF base caps at the 4.5M ceiling, the
	// employee share is 247,500, taxable lands at 5,752,500 and the
	// marginal tax is 260,250.
	b, err := Calculate(lakInput("6000000"), testSnapshot(t))
	require.NoError(t, err)

	assert.Equal(t, "6000000", b.GrossIncome.String())
	assert.Equal(t, "4500000", b.NssfBase.String())
	assert.Equal(t, "247500", b.NssfEmployee.String())
	assert.Equal(t, "270000", b.NssfEmployer.String())
	assert.Equal(t, "5752500", b.TaxableIncome.String())
	assert.Equal(t, "260250", b.TaxDeduction.String())
	assert.Equal(t, "5492250", b.NetSalary.String())

	// LAK contract: the mirrors are identity.
	assert.Equal(t, "1", b.ExchangeRateUsed.String())
	assert.Equal(t, "6000000", b.BaseSalaryOriginal.String())
	assert.True(t, b.NetSalaryOriginal.Equal(b.NetSalary))
}

func TestCalculate_BelowNssfCeiling(t *testing.T) {
	b, err := Calculate(lakInput("3000000"), testSnapshot(t))
	require.NoError(t, err)

	assert.Equal(t, "3000000", b.NssfBase.String())
	assert.Equal(t, "165000", b.NssfEmployee.String())
	assert.Equal(t, "2835000", b.TaxableIncome.String())
	assert.Equal(t, "76750", b.TaxDeduction.String())
	assert.Equal(t, "2758250", b.NetSalary.String())
}

func TestCalculate_DependentDeductionCapped(t *testing.T) {
	in := lakInput("6000000")
	in.DependentCount = 5 // only 3 count

	b, err := Calculate(in, testSnapshot(t))
	require.NoError(t, err)

	// 6,000,000 - 247,500 - 3*100,000
	assert.Equal(t, "5452500", b.TaxableIncome.String())
	assert.Equal(t, "230250", b.TaxDeduction.String())
	assert.Equal(t, "5522250", b.NetSalary.String())
}

func TestCalculate_TaxableFlooredAtZero(t *testing.T) {
	settings := testSettings()
	settings.DependentDeduction = dec("500000")
	snap, err := NewSnapshot(settings, laoBrackets(), nil)
	require.NoError(t, err)

	in := lakInput("1000000")
	in.DependentCount = 3

	b, err := Calculate(in, snap)
	require.NoError(t, err)

	assert.True(t, b.TaxableIncome.IsZero())
	assert.True(t, b.TaxDeduction.IsZero())
	assert.Equal(t, "945000", b.NetSalary.String())
}

func TestCalculate_USDContractAndPayment(t *testing.T) {
	in := CalculatorInput{
		BaseSalary:       dec("500"),
		ContractCurrency: "USD",
		PaymentCurrency:  "USD",
		EffectiveDate:    day("2026-03-31"),
	}

	b, err := Calculate(in, testSnapshot(t))
	require.NoError(t, err)

	assert.Equal(t, "10000000", b.BaseSalary.String())
	assert.Equal(t, "20000", b.ExchangeRateUsed.String())
	assert.Equal(t, "500", b.BaseSalaryOriginal.String())
	assert.Equal(t, "247500", b.NssfEmployee.String())
	assert.Equal(t, "9752500", b.TaxableIncome.String())
	assert.Equal(t, "660250", b.TaxDeduction.String())
	assert.Equal(t, "9092250", b.NetSalary.String())

	// Net mirrored back at the same run rate, rounded to cents.
	assert.Equal(t, "454.61", b.NetSalaryOriginal.String())
	assert.Equal(t, "USD", b.PaymentCurrency)
}

func TestCalculate_RateSelectedByEffectiveDate(t *testing.T) {
	in := CalculatorInput{
		BaseSalary:       dec("500"),
		ContractCurrency: "USD",
		PaymentCurrency:  "LAK",
		EffectiveDate:    day("2026-07-31"),
	}

	b, err := Calculate(in, testSnapshot(t))
	require.NoError(t, err)

	assert.Equal(t, "21000", b.ExchangeRateUsed.String())
	assert.Equal(t, "10500000", b.BaseSalary.String())
}

func TestCalculate_MissingConversionRateIsFatal(t *testing.T) {
	in := CalculatorInput{
		BaseSalary:       dec("1000"),
		ContractCurrency: "EUR",
		PaymentCurrency:  "LAK",
		EffectiveDate:    day("2026-03-31"),
	}

	_, err := Calculate(in, testSnapshot(t))
	assert.ErrorIs(t, err, payroll.ErrMissingConversionRate)
}

func TestCalculate_NonPositiveBaseSalary(t *testing.T) {
	_, err := Calculate(lakInput("0"), testSnapshot(t))
	assert.ErrorIs(t, err, payroll.ErrInvalidBaseSalary)

	_, err = Calculate(lakInput("-100"), testSnapshot(t))
	assert.ErrorIs(t, err, payroll.ErrInvalidBaseSalary)
}

func TestCalculate_AdjustmentsFlowThroughBuckets(t *testing.T) {
	in := lakInput("3000000")
	in.OvertimePay = dec("200000")
	in.Allowances = dec("100000")
	in.OtherDeductions = dec("50000")
	in.Adjustments = BucketsFrom([]payroll.Adjustment{
		{Type: payroll.AdjustmentTypeEarning, Amount: dec("300000"), IsTaxable: true, IsNssfAssessable: true},
		{Type: payroll.AdjustmentTypeEarning, Amount: dec("400000"), IsTaxable: true},
		{Type: payroll.AdjustmentTypeEarning, Amount: dec("150000")},
		{Type: payroll.AdjustmentTypeDeduction, Amount: dec("80000")},
		{Type: payroll.AdjustmentTypeBonus, Amount: dec("250000")},
	})

	b, err := Calculate(in, testSnapshot(t))
	require.NoError(t, err)

	// Gross: base + OT + allowances + assessable + taxable earnings.
	// Non-taxable earnings and bonuses stay out.
	assert.Equal(t, "4000000", b.GrossIncome.String())

	// NSSF base excludes the taxable-only earning: 3.6M, under ceiling.
	assert.Equal(t, "3600000", b.NssfBase.String())
	assert.Equal(t, "198000", b.NssfEmployee.String())

	// Reconciliation identity:
	// net = gross - nssfEmployee - tax - other - deductions + nonTaxable + bonuses
	expected := b.GrossIncome.
		Sub(b.NssfEmployee).
		Sub(b.TaxDeduction).
		Sub(b.OtherDeductions).
		Sub(in.Adjustments.Deductions).
		Add(in.Adjustments.NonTaxableEarnings).
		Add(in.Adjustments.Bonuses).
		Round(0)
	assert.True(t, b.NetSalary.Equal(expected),
		"net %s, reconciled %s", b.NetSalary, expected)
}

func TestCalculate_NetMonotonicInBase(t *testing.T) {
	snap := testSnapshot(t)

	prev, err := Calculate(lakInput("1000000"), snap)
	require.NoError(t, err)
	for _, base := range []string{"2000000", "4000000", "8000000", "16000000"} {
		next, err := Calculate(lakInput(base), snap)
		require.NoError(t, err)
		assert.True(t, next.NetSalary.GreaterThan(prev.NetSalary),
			"net should grow with base: %s vs %s", next.NetSalary, prev.NetSalary)
		prev = next
	}
}

func TestCurrencyExponent(t *testing.T) {
	assert.Equal(t, int32(0), CurrencyExponent("LAK"))
	assert.Equal(t, int32(2), CurrencyExponent("USD"))
	assert.Equal(t, int32(2), CurrencyExponent("THB"))
}
