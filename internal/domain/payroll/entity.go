package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyLAK is the computation currency. Salaries in other currencies
// convert into LAK before any NSSF or tax arithmetic.
const CurrencyLAK = "LAK"

// PeriodStatus enum
type PeriodStatus string

const (
	PeriodStatusDraft     PeriodStatus = "DRAFT"
	PeriodStatusCompleted PeriodStatus = "COMPLETED"
)

// Period - one calendar month's payroll run. At most one period exists
// per (year, month); only the orchestrator's run transition mutates it.
type Period struct {
	ID        string
	Year      int
	Month     int
	StartDate time.Time
	EndDate   time.Time
	Status    PeriodStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SlipStatus enum. Progression is CALCULATED -> APPROVED -> PAID with no
// reverse transitions.
type SlipStatus string

const (
	SlipStatusCalculated SlipStatus = "CALCULATED"
	SlipStatusApproved   SlipStatus = "APPROVED"
	SlipStatusPaid       SlipStatus = "PAID"
)

// CanTransitionTo reports whether s may progress to next.
func (s SlipStatus) CanTransitionTo(next SlipStatus) bool {
	switch s {
	case SlipStatusCalculated:
		return next == SlipStatusApproved || next == SlipStatusPaid
	case SlipStatusApproved:
		return next == SlipStatusPaid
	default:
		return false
	}
}

// SalarySlip - the per-employee, per-period computed salary breakdown.
// All monetary fields except the *Original mirrors are in LAK. Immutable
// once created, apart from status progression.
type SalarySlip struct {
	ID              string
	EmployeeID      string
	PeriodID        string
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
	Status          SlipStatus

	// Original-currency mirrors for payslip display and bank transfer.
	BaseSalaryOriginal decimal.Decimal
	ContractCurrency   string
	ExchangeRateUsed   decimal.Decimal
	NetSalaryOriginal  decimal.Decimal
	PaymentCurrency    string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined fields
	EmployeeName *string
	EmployeeCode *string
}

// TaxBracket - one band of the progressive income tax table. MaxIncome is
// an exclusive upper bound; nil means the band is open-ended. Active
// brackets sorted by SortOrder must partition [0, +inf) without gaps or
// overlaps.
type TaxBracket struct {
	ID        string
	MinIncome decimal.Decimal
	MaxIncome *decimal.Decimal
	Rate      decimal.Decimal
	SortOrder int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConversionRate - one row of the FromCurrency -> LAK rate time series.
// ExpiryDate nil means the rate is still current. For any currency and
// instant at most one row is effective.
type ConversionRate struct {
	ID            string
	FromCurrency  string
	ToCurrency    string
	Rate          decimal.Decimal
	EffectiveDate time.Time
	ExpiryDate    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Covers reports whether the rate's effective window contains asOf.
func (r ConversionRate) Covers(asOf time.Time) bool {
	if asOf.Before(r.EffectiveDate) {
		return false
	}
	return r.ExpiryDate == nil || asOf.Before(*r.ExpiryDate)
}

// AdjustmentType enum
type AdjustmentType string

const (
	AdjustmentTypeEarning   AdjustmentType = "EARNING"
	AdjustmentTypeDeduction AdjustmentType = "DEDUCTION"
	AdjustmentTypeBonus     AdjustmentType = "BONUS"
)

// Adjustment - an ad-hoc earning, deduction, or bonus scoped to one
// (employee, period) pair. IsTaxable and IsNssfAssessable are meaningful
// for earnings only.
type Adjustment struct {
	ID               string
	EmployeeID       string
	PeriodID         string
	Name             string
	Type             AdjustmentType
	Amount           decimal.Decimal
	IsTaxable        bool
	IsNssfAssessable bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Setting keys in the system_settings table.
const (
	SettingNssfCeiling        = "nssf_ceiling_base"
	SettingNssfEmployeeRate   = "nssf_employee_rate"
	SettingNssfEmployerRate   = "nssf_employer_rate"
	SettingDependentDeduction = "dependent_deduction_amount"
)

// Settings is the statutory constant set read from system_settings at the
// start of a run.
type Settings struct {
	NssfCeiling        decimal.Decimal
	NssfEmployeeRate   decimal.Decimal
	NssfEmployerRate   decimal.Decimal
	DependentDeduction decimal.Decimal
}
