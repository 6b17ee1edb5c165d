package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

// PayrollRepository defines data access for periods, slips and adjustments.
type PayrollRepository interface {
	// Periods
	CreatePeriod(ctx context.Context, period Period) (Period, error)
	GetPeriodByID(ctx context.Context, id string) (Period, error)
	GetPeriodByYearMonth(ctx context.Context, year, month int) (Period, error)
	ListPeriods(ctx context.Context) ([]Period, error)
	CompletePeriod(ctx context.Context, id string) error

	// Slips
	CreateSlip(ctx context.Context, slip SalarySlip) (SalarySlip, error)
	ReplaceSlip(ctx context.Context, slip SalarySlip) (SalarySlip, error)
	GetSlipByID(ctx context.Context, id string) (SalarySlip, error)
	GetSlipByEmployeePeriod(ctx context.Context, employeeID, periodID string) (SalarySlip, error)
	ListSlipsByPeriod(ctx context.Context, periodID string) ([]SalarySlip, error)
	// AdvanceSlipsStatus moves every listed slip to the target status in
	// one transaction. If any slip is missing or its transition is
	// invalid, none of them move.
	AdvanceSlipsStatus(ctx context.Context, ids []string, to SlipStatus) error

	// Adjustments
	CreateAdjustment(ctx context.Context, adjustment Adjustment) (Adjustment, error)
	GetAdjustmentByID(ctx context.Context, id string) (Adjustment, error)
	ListAdjustments(ctx context.Context, periodID string, employeeID *string) ([]Adjustment, error)
	DeleteAdjustment(ctx context.Context, id string) error

	// Aggregations
	GetPeriodSummary(ctx context.Context, periodID string) (PeriodSummaryResponse, error)
	GetNssfReportLines(ctx context.Context, periodID string) ([]NssfReportLine, error)
	GetBankTransferLines(ctx context.Context, periodID string) ([]BankTransferLine, error)
}

// RateRepository defines data access for the statutory tables the engine
// snapshots at the start of a run: system settings, tax brackets and
// currency conversion rates.
type RateRepository interface {
	// Settings
	GetSettings(ctx context.Context) (Settings, error)

	// Tax brackets
	ListBrackets(ctx context.Context, activeOnly bool) ([]TaxBracket, error)
	CreateBracket(ctx context.Context, bracket TaxBracket) (TaxBracket, error)
	SetBracketActive(ctx context.Context, id string, active bool) error

	// Conversion rates. CreateRate closes any still-open rate row for the
	// same currency by setting its expiry to the new row's effective date,
	// preserving the at-most-one-effective-rate invariant. A new rate whose
	// effective date falls inside an existing row's coverage is rejected
	// with ErrRateConflict.
	ListRates(ctx context.Context) ([]ConversionRate, error)
	CreateRate(ctx context.Context, rate ConversionRate) (ConversionRate, error)
}

// PeriodEarnings are the attendance- and benefits-derived amounts upstream
// processing resolves per (employee, period), already in LAK.
type PeriodEarnings struct {
	Overtime        decimal.Decimal
	Allowances      decimal.Decimal
	OtherDeductions decimal.Decimal
}

// EarningsSource supplies pre-computed period earnings. The engine treats
// these as opaque numeric inputs; how they are derived is out of scope.
type EarningsSource interface {
	EarningsFor(ctx context.Context, employeeID, periodID string) (PeriodEarnings, error)
}
