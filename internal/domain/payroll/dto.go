package payroll

import (
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== PERIOD DTOs ==========

type CreatePeriodRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (r *CreatePeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Year < 2000 || r.Year > 2100 {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 2000 and 2100"})
	}
	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PeriodResponse struct {
	ID        string `json:"id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

// ========== RUN DTOs ==========

type RunPayrollRequest struct {
	// Recompute allows re-running a COMPLETED period. Only slips not yet
	// PAID are recalculated.
	Recompute bool `json:"recompute,omitempty"`
}

type RunErrorResponse struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeCode string `json:"employee_code,omitempty"`
	Reason       string `json:"reason"`
}

// RunSummaryResponse reports the outcome of one payroll run. A run with
// skipped employees is never presented as a clean success.
type RunSummaryResponse struct {
	PeriodID       string             `json:"period_id"`
	Year           int                `json:"year"`
	Month          int                `json:"month"`
	TotalEmployees int                `json:"total_employees"`
	SlipsCreated   int                `json:"slips_created"`
	SlipsSkipped   int                `json:"slips_skipped"`
	Errors         []RunErrorResponse `json:"errors,omitempty"`
	PeriodStatus   string             `json:"period_status"`
}

// ========== SLIP DTOs ==========

type SlipResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	EmployeeName    string          `json:"employee_name,omitempty"`
	EmployeeCode    string          `json:"employee_code,omitempty"`
	PeriodID        string          `json:"period_id"`
	BaseSalary      decimal.Decimal `json:"base_salary"`
	OvertimePay     decimal.Decimal `json:"overtime_pay"`
	Allowances      decimal.Decimal `json:"allowances"`
	GrossIncome     decimal.Decimal `json:"gross_income"`
	NssfBase        decimal.Decimal `json:"nssf_base"`
	NssfEmployee    decimal.Decimal `json:"nssf_employee_deduction"`
	NssfEmployer    decimal.Decimal `json:"nssf_employer_contribution"`
	TaxableIncome   decimal.Decimal `json:"taxable_income"`
	TaxDeduction    decimal.Decimal `json:"tax_deduction"`
	OtherDeductions decimal.Decimal `json:"other_deductions"`
	NetSalary       decimal.Decimal `json:"net_salary"`
	Status          string          `json:"status"`

	BaseSalaryOriginal decimal.Decimal `json:"base_salary_original"`
	ContractCurrency   string          `json:"contract_currency"`
	ExchangeRateUsed   decimal.Decimal `json:"exchange_rate_used"`
	NetSalaryOriginal  decimal.Decimal `json:"net_salary_original"`
	PaymentCurrency    string          `json:"payment_currency"`
}

type SlipStatusRequest struct {
	SlipIDs []string `json:"slip_ids"`
}

func (r *SlipStatusRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.SlipIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "slip_ids", Message: "is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== ADJUSTMENT DTOs ==========

type CreateAdjustmentRequest struct {
	EmployeeID       string          `json:"employee_id"`
	PeriodID         string          `json:"-"`
	Name             string          `json:"name"`
	Type             string          `json:"type"` // EARNING, DEDUCTION or BONUS
	Amount           decimal.Decimal `json:"amount"`
	IsTaxable        bool            `json:"is_taxable,omitempty"`
	IsNssfAssessable bool            `json:"is_nssf_assessable,omitempty"`
}

func (r *CreateAdjustmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID == "" {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	switch AdjustmentType(r.Type) {
	case AdjustmentTypeEarning, AdjustmentTypeDeduction, AdjustmentTypeBonus:
	default:
		errs = append(errs, validator.ValidationError{Field: "type", Message: "must be 'EARNING', 'DEDUCTION' or 'BONUS'"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be positive"})
	}
	if AdjustmentType(r.Type) != AdjustmentTypeEarning && (r.IsTaxable || r.IsNssfAssessable) {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "tax and NSSF flags apply to earnings only"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AdjustmentResponse struct {
	ID               string          `json:"id"`
	EmployeeID       string          `json:"employee_id"`
	PeriodID         string          `json:"period_id"`
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	IsTaxable        bool            `json:"is_taxable"`
	IsNssfAssessable bool            `json:"is_nssf_assessable"`
}

// ========== TAX BRACKET DTOs ==========

type CreateBracketRequest struct {
	MinIncome decimal.Decimal  `json:"min_income"`
	MaxIncome *decimal.Decimal `json:"max_income,omitempty"`
	Rate      decimal.Decimal  `json:"rate"`
	SortOrder int              `json:"sort_order"`
}

func (r *CreateBracketRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.MinIncome.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "min_income", Message: "must be non-negative"})
	}
	if r.MaxIncome != nil && !r.MaxIncome.GreaterThan(r.MinIncome) {
		errs = append(errs, validator.ValidationError{Field: "max_income", Message: "must be greater than min_income"})
	}
	if r.Rate.IsNegative() || r.Rate.GreaterThan(decimal.NewFromInt(1)) {
		errs = append(errs, validator.ValidationError{Field: "rate", Message: "must be between 0 and 1"})
	}
	if r.SortOrder < 0 {
		errs = append(errs, validator.ValidationError{Field: "sort_order", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type BracketResponse struct {
	ID        string           `json:"id"`
	MinIncome decimal.Decimal  `json:"min_income"`
	MaxIncome *decimal.Decimal `json:"max_income,omitempty"`
	Rate      decimal.Decimal  `json:"rate"`
	SortOrder int              `json:"sort_order"`
	IsActive  bool             `json:"is_active"`
}

// ========== CONVERSION RATE DTOs ==========

type CreateRateRequest struct {
	FromCurrency  string          `json:"from_currency"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate string          `json:"effective_date"` // YYYY-MM-DD
}

func (r *CreateRateRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidCurrencyCode(r.FromCurrency) {
		errs = append(errs, validator.ValidationError{Field: "from_currency", Message: "must be a three-letter currency code"})
	}
	if r.FromCurrency == CurrencyLAK {
		errs = append(errs, validator.ValidationError{Field: "from_currency", Message: "LAK does not need a conversion rate"})
	}
	if !r.Rate.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "rate", Message: "must be positive"})
	}
	if _, ok := validator.IsValidDate(r.EffectiveDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "effective_date", Message: "must be a valid date (YYYY-MM-DD)"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RateResponse struct {
	ID            string          `json:"id"`
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate string          `json:"effective_date"`
	ExpiryDate    *string         `json:"expiry_date,omitempty"`
}

// ========== AGGREGATION DTOs ==========

type PeriodSummaryResponse struct {
	PeriodID          string          `json:"period_id"`
	Year              int             `json:"year"`
	Month             int             `json:"month"`
	TotalEmployees    int64           `json:"total_employees"`
	TotalGrossIncome  decimal.Decimal `json:"total_gross_income"`
	TotalNssfEmployee decimal.Decimal `json:"total_nssf_employee"`
	TotalNssfEmployer decimal.Decimal `json:"total_nssf_employer"`
	TotalTax          decimal.Decimal `json:"total_tax"`
	TotalNetSalary    decimal.Decimal `json:"total_net_salary"`
	CalculatedCount   int64           `json:"calculated_count"`
	ApprovedCount     int64           `json:"approved_count"`
	PaidCount         int64           `json:"paid_count"`
}

type NssfReportLine struct {
	EmployeeID   string          `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	NssfNumber   *string         `json:"nssf_number,omitempty"`
	NssfBase     decimal.Decimal `json:"nssf_base"`
	NssfEmployee decimal.Decimal `json:"nssf_employee_deduction"`
	NssfEmployer decimal.Decimal `json:"nssf_employer_contribution"`
}

type NssfReportResponse struct {
	PeriodID          string           `json:"period_id"`
	Year              int              `json:"year"`
	Month             int              `json:"month"`
	TotalNssfBase     decimal.Decimal  `json:"total_nssf_base"`
	TotalNssfEmployee decimal.Decimal  `json:"total_nssf_employee"`
	TotalNssfEmployer decimal.Decimal  `json:"total_nssf_employer"`
	Lines             []NssfReportLine `json:"lines"`
}

type BankTransferLine struct {
	EmployeeID        string          `json:"employee_id"`
	EmployeeName      string          `json:"employee_name"`
	BankName          string          `json:"bank_name"`
	BankAccountNumber string          `json:"bank_account_number"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
}

type BankTransferResponse struct {
	PeriodID    string             `json:"period_id"`
	Year        int                `json:"year"`
	Month       int                `json:"month"`
	TotalCount  int                `json:"total_count"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Lines       []BankTransferLine `json:"lines"`
}
