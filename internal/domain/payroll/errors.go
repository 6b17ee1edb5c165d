package payroll

import "errors"

var (
	// Configuration errors. These abort a whole run: every employee would
	// be mis-calculated identically.
	ErrNoActiveBrackets     = errors.New("no active tax brackets configured")
	ErrInvalidBracketConfig = errors.New("active tax brackets do not form a contiguous ascending partition")
	ErrSettingNotFound      = errors.New("required system setting not found")
	ErrInvalidSettingValue  = errors.New("system setting value is not a valid decimal")

	// Per-employee calculation errors. The run records these and continues.
	ErrMissingConversionRate = errors.New("no conversion rate effective for currency at the required date")
	ErrInvalidBaseSalary     = errors.New("base salary must be a positive amount")

	// Period state machine.
	ErrPeriodNotFound  = errors.New("payroll period not found")
	ErrPeriodConflict  = errors.New("payroll period already exists for this year and month")
	ErrPeriodNotDraft  = errors.New("payroll period is not in draft status")
	ErrPeriodCompleted = errors.New("payroll period already completed")
	ErrRunInProgress   = errors.New("a payroll run is already in progress for this period")

	// Slips.
	ErrSlipNotFound          = errors.New("salary slip not found")
	ErrSlipAlreadyPaid       = errors.New("salary slip already paid, cannot modify")
	ErrInvalidSlipTransition = errors.New("invalid salary slip status transition")

	// Adjustments.
	ErrAdjustmentNotFound = errors.New("payroll adjustment not found")

	// Brackets and rates master data.
	ErrBracketNotFound = errors.New("tax bracket not found")
	ErrRateConflict    = errors.New("conversion rate overlaps an existing rate for this currency")
)
