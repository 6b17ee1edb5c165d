package payroll

import "context"

// PayrollService is the operator-facing contract of the payroll engine.
type PayrollService interface {
	// Periods
	CreatePeriod(ctx context.Context, req CreatePeriodRequest) (PeriodResponse, error)
	GetPeriod(ctx context.Context, id string) (PeriodResponse, error)
	ListPeriods(ctx context.Context) ([]PeriodResponse, error)

	// Batch calculation
	RunPayroll(ctx context.Context, periodID string, req RunPayrollRequest) (RunSummaryResponse, error)

	// Slips
	GetSlip(ctx context.Context, id string) (SlipResponse, error)
	ListSlips(ctx context.Context, periodID string) ([]SlipResponse, error)
	ApproveSlips(ctx context.Context, req SlipStatusRequest) error
	MarkSlipsPaid(ctx context.Context, req SlipStatusRequest) error

	// Adjustments
	CreateAdjustment(ctx context.Context, req CreateAdjustmentRequest) (AdjustmentResponse, error)
	ListAdjustments(ctx context.Context, periodID string, employeeID *string) ([]AdjustmentResponse, error)
	DeleteAdjustment(ctx context.Context, id string) error

	// Master data
	ListBrackets(ctx context.Context) ([]BracketResponse, error)
	CreateBracket(ctx context.Context, req CreateBracketRequest) (BracketResponse, error)
	SetBracketActive(ctx context.Context, id string, active bool) error
	ListRates(ctx context.Context) ([]RateResponse, error)
	CreateRate(ctx context.Context, req CreateRateRequest) (RateResponse, error)

	// Downstream data feeds
	GetPeriodSummary(ctx context.Context, periodID string) (PeriodSummaryResponse, error)
	GetNssfReport(ctx context.Context, periodID string) (NssfReportResponse, error)
	GetBankTransfer(ctx context.Context, periodID string) (BankTransferResponse, error)
}
