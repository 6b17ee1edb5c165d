package payroll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/employee"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	payrollRepo  payroll.PayrollRepository
	rateRepo     payroll.RateRepository
	employeeRepo employee.EmployeeRepository
	earnings     payroll.EarningsSource
	resolver     *AdjustmentResolver

	// activeRuns is the per-period exclusive section: at most one
	// RunPayroll in flight per period, never a global lock.
	mu         sync.Mutex
	activeRuns map[string]struct{}
}

func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	rateRepo payroll.RateRepository,
	employeeRepo employee.EmployeeRepository,
	earnings payroll.EarningsSource,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		payrollRepo:  payrollRepo,
		rateRepo:     rateRepo,
		employeeRepo: employeeRepo,
		earnings:     earnings,
		resolver:     NewAdjustmentResolver(payrollRepo),
		activeRuns:   make(map[string]struct{}),
	}
}

// ========== PERIODS ==========

func (s *PayrollServiceImpl) CreatePeriod(ctx context.Context, req payroll.CreatePeriodRequest) (payroll.PeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PeriodResponse{}, err
	}

	// The unique index on (year, month) is the backstop; checking first
	// gives the caller a conflict instead of a constraint violation.
	if _, err := s.payrollRepo.GetPeriodByYearMonth(ctx, req.Year, req.Month); err == nil {
		return payroll.PeriodResponse{}, payroll.ErrPeriodConflict
	} else if !errors.Is(err, payroll.ErrPeriodNotFound) {
		return payroll.PeriodResponse{}, err
	}

	start := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	period := payroll.Period{
		Year:      req.Year,
		Month:     req.Month,
		StartDate: start,
		EndDate:   end,
		Status:    payroll.PeriodStatusDraft,
	}

	created, err := s.payrollRepo.CreatePeriod(ctx, period)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}

	return mapToPeriodResponse(created), nil
}

func (s *PayrollServiceImpl) GetPeriod(ctx context.Context, id string) (payroll.PeriodResponse, error) {
	period, err := s.payrollRepo.GetPeriodByID(ctx, id)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}
	return mapToPeriodResponse(period), nil
}

func (s *PayrollServiceImpl) ListPeriods(ctx context.Context) ([]payroll.PeriodResponse, error) {
	periods, err := s.payrollRepo.ListPeriods(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.PeriodResponse, 0, len(periods))
	for _, p := range periods {
		result = append(result, mapToPeriodResponse(p))
	}
	return result, nil
}

// ========== PAYROLL RUN ==========

func (s *PayrollServiceImpl) acquireRun(periodID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, inFlight := s.activeRuns[periodID]; inFlight {
		return false
	}
	s.activeRuns[periodID] = struct{}{}
	return true
}

func (s *PayrollServiceImpl) releaseRun(periodID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeRuns, periodID)
}

// RunPayroll executes the batch calculation for one period. Per-employee
// failures are recorded in the summary and the run continues; a bad
// bracket table aborts the whole run before any slip is touched. A
// COMPLETED period is rejected unless recompute is requested, in which
// case slips already PAID are left untouched.
func (s *PayrollServiceImpl) RunPayroll(ctx context.Context, periodID string, req payroll.RunPayrollRequest) (payroll.RunSummaryResponse, error) {
	if !s.acquireRun(periodID) {
		return payroll.RunSummaryResponse{}, payroll.ErrRunInProgress
	}
	defer s.releaseRun(periodID)

	period, err := s.payrollRepo.GetPeriodByID(ctx, periodID)
	if err != nil {
		return payroll.RunSummaryResponse{}, err
	}
	if period.Status == payroll.PeriodStatusCompleted && !req.Recompute {
		return payroll.RunSummaryResponse{}, payroll.ErrPeriodCompleted
	}

	// One immutable snapshot for the whole run. Rate or bracket edits made
	// while the run executes do not affect it.
	snap, err := LoadSnapshot(ctx, s.rateRepo)
	if err != nil {
		return payroll.RunSummaryResponse{}, err
	}

	employees, err := s.employeeRepo.GetActive(ctx)
	if err != nil {
		return payroll.RunSummaryResponse{}, fmt.Errorf("load active employees: %w", err)
	}

	summary := payroll.RunSummaryResponse{
		PeriodID:       period.ID,
		Year:           period.Year,
		Month:          period.Month,
		TotalEmployees: len(employees),
	}

	for _, emp := range employees {
		outcome, err := s.runEmployee(ctx, emp, period, snap, req.Recompute)
		if err != nil {
			if IsConfigError(err) {
				// Every remaining employee would fail the same way.
				return payroll.RunSummaryResponse{}, err
			}
			summary.Errors = append(summary.Errors, payroll.RunErrorResponse{
				EmployeeID:   emp.ID,
				EmployeeCode: emp.EmployeeCode,
				Reason:       err.Error(),
			})
			continue
		}
		if outcome == runOutcomeSkipped {
			summary.SlipsSkipped++
		} else {
			summary.SlipsCreated++
		}
	}

	// Every active employee now has a slip or a recorded error, so the
	// period may complete. On recompute it already is COMPLETED.
	if period.Status == payroll.PeriodStatusDraft {
		if err := s.payrollRepo.CompletePeriod(ctx, period.ID); err != nil {
			return payroll.RunSummaryResponse{}, fmt.Errorf("complete period: %w", err)
		}
		period.Status = payroll.PeriodStatusCompleted
	}
	summary.PeriodStatus = string(period.Status)

	return summary, nil
}

type runOutcome int

const (
	runOutcomeCreated runOutcome = iota
	runOutcomeSkipped
)

func (s *PayrollServiceImpl) runEmployee(
	ctx context.Context,
	emp employee.Employee,
	period payroll.Period,
	snap *Snapshot,
	recompute bool,
) (runOutcome, error) {
	// Explicit slip state check: absent creates, PAID never changes, and
	// an existing unpaid slip is overwritten only under recompute.
	existing, err := s.payrollRepo.GetSlipByEmployeePeriod(ctx, emp.ID, period.ID)
	var hasExisting bool
	switch {
	case err == nil:
		hasExisting = true
	case errors.Is(err, payroll.ErrSlipNotFound):
	default:
		return 0, fmt.Errorf("check existing slip: %w", err)
	}

	if hasExisting {
		if existing.Status == payroll.SlipStatusPaid || !recompute {
			return runOutcomeSkipped, nil
		}
	}

	buckets, err := s.resolver.Resolve(ctx, emp.ID, period.ID)
	if err != nil {
		return 0, err
	}

	earned, err := s.earnings.EarningsFor(ctx, emp.ID, period.ID)
	if err != nil {
		return 0, fmt.Errorf("resolve period earnings: %w", err)
	}

	breakdown, err := Calculate(CalculatorInput{
		BaseSalary:       emp.BaseSalary,
		ContractCurrency: emp.ContractCurrency,
		PaymentCurrency:  emp.PaymentCurrency,
		OvertimePay:      earned.Overtime,
		Allowances:       earned.Allowances,
		OtherDeductions:  earned.OtherDeductions,
		DependentCount:   emp.DependentCount,
		Adjustments:      buckets,
		EffectiveDate:    period.EndDate,
	}, snap)
	if err != nil {
		return 0, err
	}

	slip := slipFromBreakdown(emp.ID, period.ID, breakdown)

	if hasExisting {
		slip.ID = existing.ID
		slip.Status = existing.Status
		if _, err := s.payrollRepo.ReplaceSlip(ctx, slip); err != nil {
			return 0, fmt.Errorf("replace slip: %w", err)
		}
		return runOutcomeCreated, nil
	}

	slip.Status = payroll.SlipStatusCalculated
	if _, err := s.payrollRepo.CreateSlip(ctx, slip); err != nil {
		return 0, fmt.Errorf("create slip: %w", err)
	}
	return runOutcomeCreated, nil
}

func slipFromBreakdown(employeeID, periodID string, b Breakdown) payroll.SalarySlip {
	return payroll.SalarySlip{
		EmployeeID:      employeeID,
		PeriodID:        periodID,
		BaseSalary:      b.BaseSalary,
		OvertimePay:     b.OvertimePay,
		Allowances:      b.Allowances,
		GrossIncome:     b.GrossIncome,
		NssfBase:        b.NssfBase,
		NssfEmployee:    b.NssfEmployee,
		NssfEmployer:    b.NssfEmployer,
		TaxableIncome:   b.TaxableIncome,
		TaxDeduction:    b.TaxDeduction,
		OtherDeductions: b.OtherDeductions,
		NetSalary:       b.NetSalary,

		BaseSalaryOriginal: b.BaseSalaryOriginal,
		ContractCurrency:   b.ContractCurrency,
		ExchangeRateUsed:   b.ExchangeRateUsed,
		NetSalaryOriginal:  b.NetSalaryOriginal,
		PaymentCurrency:    b.PaymentCurrency,
	}
}

// ========== SLIPS ==========

func (s *PayrollServiceImpl) GetSlip(ctx context.Context, id string) (payroll.SlipResponse, error) {
	slip, err := s.payrollRepo.GetSlipByID(ctx, id)
	if err != nil {
		return payroll.SlipResponse{}, err
	}
	return mapToSlipResponse(slip), nil
}

func (s *PayrollServiceImpl) ListSlips(ctx context.Context, periodID string) ([]payroll.SlipResponse, error) {
	if _, err := s.payrollRepo.GetPeriodByID(ctx, periodID); err != nil {
		return nil, err
	}

	slips, err := s.payrollRepo.ListSlipsByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.SlipResponse, 0, len(slips))
	for _, slip := range slips {
		result = append(result, mapToSlipResponse(slip))
	}
	return result, nil
}

func (s *PayrollServiceImpl) ApproveSlips(ctx context.Context, req payroll.SlipStatusRequest) error {
	return s.advanceSlips(ctx, req, payroll.SlipStatusApproved)
}

func (s *PayrollServiceImpl) MarkSlipsPaid(ctx context.Context, req payroll.SlipStatusRequest) error {
	return s.advanceSlips(ctx, req, payroll.SlipStatusPaid)
}

func (s *PayrollServiceImpl) advanceSlips(ctx context.Context, req payroll.SlipStatusRequest, to payroll.SlipStatus) error {
	if err := req.Validate(); err != nil {
		return err
	}

	return s.payrollRepo.AdvanceSlipsStatus(ctx, req.SlipIDs, to)
}

// ========== ADJUSTMENTS ==========

func (s *PayrollServiceImpl) CreateAdjustment(ctx context.Context, req payroll.CreateAdjustmentRequest) (payroll.AdjustmentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	period, err := s.payrollRepo.GetPeriodByID(ctx, req.PeriodID)
	if err != nil {
		return payroll.AdjustmentResponse{}, err
	}
	// Adjustments are frozen inputs once the period completes; a
	// recompute must see the same set the original run saw.
	if period.Status != payroll.PeriodStatusDraft {
		return payroll.AdjustmentResponse{}, payroll.ErrPeriodNotDraft
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	adjustment := payroll.Adjustment{
		EmployeeID:       req.EmployeeID,
		PeriodID:         req.PeriodID,
		Name:             req.Name,
		Type:             payroll.AdjustmentType(req.Type),
		Amount:           req.Amount,
		IsTaxable:        req.IsTaxable,
		IsNssfAssessable: req.IsNssfAssessable,
	}

	created, err := s.payrollRepo.CreateAdjustment(ctx, adjustment)
	if err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	return mapToAdjustmentResponse(created), nil
}

func (s *PayrollServiceImpl) ListAdjustments(ctx context.Context, periodID string, employeeID *string) ([]payroll.AdjustmentResponse, error) {
	adjustments, err := s.payrollRepo.ListAdjustments(ctx, periodID, employeeID)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.AdjustmentResponse, 0, len(adjustments))
	for _, a := range adjustments {
		result = append(result, mapToAdjustmentResponse(a))
	}
	return result, nil
}

func (s *PayrollServiceImpl) DeleteAdjustment(ctx context.Context, id string) error {
	adjustment, err := s.payrollRepo.GetAdjustmentByID(ctx, id)
	if err != nil {
		return err
	}

	period, err := s.payrollRepo.GetPeriodByID(ctx, adjustment.PeriodID)
	if err != nil {
		return err
	}
	if period.Status != payroll.PeriodStatusDraft {
		return payroll.ErrPeriodNotDraft
	}

	return s.payrollRepo.DeleteAdjustment(ctx, id)
}

// ========== MASTER DATA ==========

func (s *PayrollServiceImpl) ListBrackets(ctx context.Context) ([]payroll.BracketResponse, error) {
	brackets, err := s.rateRepo.ListBrackets(ctx, false)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.BracketResponse, 0, len(brackets))
	for _, b := range brackets {
		result = append(result, payroll.BracketResponse{
			ID:        b.ID,
			MinIncome: b.MinIncome,
			MaxIncome: b.MaxIncome,
			Rate:      b.Rate,
			SortOrder: b.SortOrder,
			IsActive:  b.IsActive,
		})
	}
	return result, nil
}

func (s *PayrollServiceImpl) CreateBracket(ctx context.Context, req payroll.CreateBracketRequest) (payroll.BracketResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.BracketResponse{}, err
	}

	created, err := s.rateRepo.CreateBracket(ctx, payroll.TaxBracket{
		MinIncome: req.MinIncome,
		MaxIncome: req.MaxIncome,
		Rate:      req.Rate,
		SortOrder: req.SortOrder,
		IsActive:  true,
	})
	if err != nil {
		return payroll.BracketResponse{}, err
	}

	return payroll.BracketResponse{
		ID:        created.ID,
		MinIncome: created.MinIncome,
		MaxIncome: created.MaxIncome,
		Rate:      created.Rate,
		SortOrder: created.SortOrder,
		IsActive:  created.IsActive,
	}, nil
}

func (s *PayrollServiceImpl) SetBracketActive(ctx context.Context, id string, active bool) error {
	return s.rateRepo.SetBracketActive(ctx, id, active)
}

func (s *PayrollServiceImpl) ListRates(ctx context.Context) ([]payroll.RateResponse, error) {
	rates, err := s.rateRepo.ListRates(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.RateResponse, 0, len(rates))
	for _, r := range rates {
		result = append(result, mapToRateResponse(r))
	}
	return result, nil
}

func (s *PayrollServiceImpl) CreateRate(ctx context.Context, req payroll.CreateRateRequest) (payroll.RateResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RateResponse{}, err
	}

	effective, _ := time.Parse("2006-01-02", req.EffectiveDate)

	created, err := s.rateRepo.CreateRate(ctx, payroll.ConversionRate{
		FromCurrency:  req.FromCurrency,
		ToCurrency:    payroll.CurrencyLAK,
		Rate:          req.Rate,
		EffectiveDate: effective,
	})
	if err != nil {
		return payroll.RateResponse{}, err
	}

	return mapToRateResponse(created), nil
}

// ========== DOWNSTREAM DATA FEEDS ==========

func (s *PayrollServiceImpl) GetPeriodSummary(ctx context.Context, periodID string) (payroll.PeriodSummaryResponse, error) {
	period, err := s.payrollRepo.GetPeriodByID(ctx, periodID)
	if err != nil {
		return payroll.PeriodSummaryResponse{}, err
	}

	summary, err := s.payrollRepo.GetPeriodSummary(ctx, periodID)
	if err != nil {
		return payroll.PeriodSummaryResponse{}, err
	}

	summary.PeriodID = period.ID
	summary.Year = period.Year
	summary.Month = period.Month
	return summary, nil
}

func (s *PayrollServiceImpl) GetNssfReport(ctx context.Context, periodID string) (payroll.NssfReportResponse, error) {
	period, err := s.payrollRepo.GetPeriodByID(ctx, periodID)
	if err != nil {
		return payroll.NssfReportResponse{}, err
	}

	lines, err := s.payrollRepo.GetNssfReportLines(ctx, periodID)
	if err != nil {
		return payroll.NssfReportResponse{}, err
	}

	report := payroll.NssfReportResponse{
		PeriodID:          period.ID,
		Year:              period.Year,
		Month:             period.Month,
		TotalNssfBase:     decimal.Zero,
		TotalNssfEmployee: decimal.Zero,
		TotalNssfEmployer: decimal.Zero,
		Lines:             lines,
	}
	for _, line := range lines {
		report.TotalNssfBase = report.TotalNssfBase.Add(line.NssfBase)
		report.TotalNssfEmployee = report.TotalNssfEmployee.Add(line.NssfEmployee)
		report.TotalNssfEmployer = report.TotalNssfEmployer.Add(line.NssfEmployer)
	}

	return report, nil
}

func (s *PayrollServiceImpl) GetBankTransfer(ctx context.Context, periodID string) (payroll.BankTransferResponse, error) {
	period, err := s.payrollRepo.GetPeriodByID(ctx, periodID)
	if err != nil {
		return payroll.BankTransferResponse{}, err
	}

	lines, err := s.payrollRepo.GetBankTransferLines(ctx, periodID)
	if err != nil {
		return payroll.BankTransferResponse{}, err
	}

	transfer := payroll.BankTransferResponse{
		PeriodID:    period.ID,
		Year:        period.Year,
		Month:       period.Month,
		TotalCount:  len(lines),
		TotalAmount: decimal.Zero,
		Lines:       lines,
	}
	for _, line := range lines {
		transfer.TotalAmount = transfer.TotalAmount.Add(line.Amount)
	}

	return transfer, nil
}

// ========== HELPERS ==========

func mapToPeriodResponse(p payroll.Period) payroll.PeriodResponse {
	return payroll.PeriodResponse{
		ID:        p.ID,
		Year:      p.Year,
		Month:     p.Month,
		StartDate: p.StartDate.Format("2006-01-02"),
		EndDate:   p.EndDate.Format("2006-01-02"),
		Status:    string(p.Status),
	}
}

func mapToSlipResponse(s payroll.SalarySlip) payroll.SlipResponse {
	employeeName := ""
	employeeCode := ""
	if s.EmployeeName != nil {
		employeeName = *s.EmployeeName
	}
	if s.EmployeeCode != nil {
		employeeCode = *s.EmployeeCode
	}

	return payroll.SlipResponse{
		ID:              s.ID,
		EmployeeID:      s.EmployeeID,
		EmployeeName:    employeeName,
		EmployeeCode:    employeeCode,
		PeriodID:        s.PeriodID,
		BaseSalary:      s.BaseSalary,
		OvertimePay:     s.OvertimePay,
		Allowances:      s.Allowances,
		GrossIncome:     s.GrossIncome,
		NssfBase:        s.NssfBase,
		NssfEmployee:    s.NssfEmployee,
		NssfEmployer:    s.NssfEmployer,
		TaxableIncome:   s.TaxableIncome,
		TaxDeduction:    s.TaxDeduction,
		OtherDeductions: s.OtherDeductions,
		NetSalary:       s.NetSalary,
		Status:          string(s.Status),

		BaseSalaryOriginal: s.BaseSalaryOriginal,
		ContractCurrency:   s.ContractCurrency,
		ExchangeRateUsed:   s.ExchangeRateUsed,
		NetSalaryOriginal:  s.NetSalaryOriginal,
		PaymentCurrency:    s.PaymentCurrency,
	}
}

func mapToAdjustmentResponse(a payroll.Adjustment) payroll.AdjustmentResponse {
	return payroll.AdjustmentResponse{
		ID:               a.ID,
		EmployeeID:       a.EmployeeID,
		PeriodID:         a.PeriodID,
		Name:             a.Name,
		Type:             string(a.Type),
		Amount:           a.Amount,
		IsTaxable:        a.IsTaxable,
		IsNssfAssessable: a.IsNssfAssessable,
	}
}

func mapToRateResponse(r payroll.ConversionRate) payroll.RateResponse {
	var expiry *string
	if r.ExpiryDate != nil {
		str := r.ExpiryDate.Format("2006-01-02")
		expiry = &str
	}

	return payroll.RateResponse{
		ID:            r.ID,
		FromCurrency:  r.FromCurrency,
		ToCurrency:    r.ToCurrency,
		Rate:          r.Rate,
		EffectiveDate: r.EffectiveDate.Format("2006-01-02"),
		ExpiryDate:    expiry,
	}
}
