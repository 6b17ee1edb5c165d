package payroll

import (
	"context"
	"fmt"
	"testing"

	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/employee"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory fakes. The orchestrator's behavior (locking, snapshotting,
// skip/replace decisions, error isolation) is independent of the storage
// engine, so these tests run without a database.

type fakePayrollRepo struct {
	periods     map[string]payroll.Period
	slips       map[string]payroll.SalarySlip
	adjustments map[string]payroll.Adjustment
	nextID      int
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{
		periods:     make(map[string]payroll.Period),
		slips:       make(map[string]payroll.SalarySlip),
		adjustments: make(map[string]payroll.Adjustment),
	}
}

func (f *fakePayrollRepo) genID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakePayrollRepo) CreatePeriod(_ context.Context, period payroll.Period) (payroll.Period, error) {
	for _, p := range f.periods {
		if p.Year == period.Year && p.Month == period.Month {
			return payroll.Period{}, payroll.ErrPeriodConflict
		}
	}
	period.ID = f.genID("period")
	f.periods[period.ID] = period
	return period, nil
}

func (f *fakePayrollRepo) GetPeriodByID(_ context.Context, id string) (payroll.Period, error) {
	p, ok := f.periods[id]
	if !ok {
		return payroll.Period{}, payroll.ErrPeriodNotFound
	}
	return p, nil
}

func (f *fakePayrollRepo) GetPeriodByYearMonth(_ context.Context, year, month int) (payroll.Period, error) {
	for _, p := range f.periods {
		if p.Year == year && p.Month == month {
			return p, nil
		}
	}
	return payroll.Period{}, payroll.ErrPeriodNotFound
}

func (f *fakePayrollRepo) ListPeriods(_ context.Context) ([]payroll.Period, error) {
	var out []payroll.Period
	for _, p := range f.periods {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePayrollRepo) CompletePeriod(_ context.Context, id string) error {
	p, ok := f.periods[id]
	if !ok {
		return payroll.ErrPeriodNotFound
	}
	if p.Status != payroll.PeriodStatusDraft {
		return payroll.ErrPeriodNotDraft
	}
	p.Status = payroll.PeriodStatusCompleted
	f.periods[id] = p
	return nil
}

func (f *fakePayrollRepo) CreateSlip(_ context.Context, slip payroll.SalarySlip) (payroll.SalarySlip, error) {
	slip.ID = f.genID("slip")
	f.slips[slip.ID] = slip
	return slip, nil
}

func (f *fakePayrollRepo) ReplaceSlip(_ context.Context, slip payroll.SalarySlip) (payroll.SalarySlip, error) {
	existing, ok := f.slips[slip.ID]
	if !ok {
		return payroll.SalarySlip{}, payroll.ErrSlipNotFound
	}
	if existing.Status == payroll.SlipStatusPaid {
		return payroll.SalarySlip{}, payroll.ErrSlipAlreadyPaid
	}
	f.slips[slip.ID] = slip
	return slip, nil
}

func (f *fakePayrollRepo) GetSlipByID(_ context.Context, id string) (payroll.SalarySlip, error) {
	s, ok := f.slips[id]
	if !ok {
		return payroll.SalarySlip{}, payroll.ErrSlipNotFound
	}
	return s, nil
}

func (f *fakePayrollRepo) GetSlipByEmployeePeriod(_ context.Context, employeeID, periodID string) (payroll.SalarySlip, error) {
	for _, s := range f.slips {
		if s.EmployeeID == employeeID && s.PeriodID == periodID {
			return s, nil
		}
	}
	return payroll.SalarySlip{}, payroll.ErrSlipNotFound
}

func (f *fakePayrollRepo) ListSlipsByPeriod(_ context.Context, periodID string) ([]payroll.SalarySlip, error) {
	var out []payroll.SalarySlip
	for _, s := range f.slips {
		if s.PeriodID == periodID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakePayrollRepo) AdvanceSlipsStatus(_ context.Context, ids []string, to payroll.SlipStatus) error {
	// All-or-nothing, like the transactional implementation.
	updated := make(map[string]payroll.SalarySlip, len(ids))
	for _, id := range ids {
		s, ok := f.slips[id]
		if !ok {
			return fmt.Errorf("slip %s: %w", id, payroll.ErrSlipNotFound)
		}
		if !s.Status.CanTransitionTo(to) {
			return fmt.Errorf("slip %s: %w", id, payroll.ErrInvalidSlipTransition)
		}
		s.Status = to
		updated[id] = s
	}
	for id, s := range updated {
		f.slips[id] = s
	}
	return nil
}

func (f *fakePayrollRepo) CreateAdjustment(_ context.Context, adjustment payroll.Adjustment) (payroll.Adjustment, error) {
	adjustment.ID = f.genID("adj")
	f.adjustments[adjustment.ID] = adjustment
	return adjustment, nil
}

func (f *fakePayrollRepo) GetAdjustmentByID(_ context.Context, id string) (payroll.Adjustment, error) {
	a, ok := f.adjustments[id]
	if !ok {
		return payroll.Adjustment{}, payroll.ErrAdjustmentNotFound
	}
	return a, nil
}

func (f *fakePayrollRepo) ListAdjustments(_ context.Context, periodID string, employeeID *string) ([]payroll.Adjustment, error) {
	var out []payroll.Adjustment
	for _, a := range f.adjustments {
		if a.PeriodID != periodID {
			continue
		}
		if employeeID != nil && a.EmployeeID != *employeeID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakePayrollRepo) DeleteAdjustment(_ context.Context, id string) error {
	if _, ok := f.adjustments[id]; !ok {
		return payroll.ErrAdjustmentNotFound
	}
	delete(f.adjustments, id)
	return nil
}

func (f *fakePayrollRepo) GetPeriodSummary(_ context.Context, periodID string) (payroll.PeriodSummaryResponse, error) {
	var summary payroll.PeriodSummaryResponse
	for _, s := range f.slips {
		if s.PeriodID != periodID {
			continue
		}
		summary.TotalEmployees++
		summary.TotalGrossIncome = summary.TotalGrossIncome.Add(s.GrossIncome)
		summary.TotalNssfEmployee = summary.TotalNssfEmployee.Add(s.NssfEmployee)
		summary.TotalNssfEmployer = summary.TotalNssfEmployer.Add(s.NssfEmployer)
		summary.TotalTax = summary.TotalTax.Add(s.TaxDeduction)
		summary.TotalNetSalary = summary.TotalNetSalary.Add(s.NetSalary)
		switch s.Status {
		case payroll.SlipStatusCalculated:
			summary.CalculatedCount++
		case payroll.SlipStatusApproved:
			summary.ApprovedCount++
		case payroll.SlipStatusPaid:
			summary.PaidCount++
		}
	}
	return summary, nil
}

func (f *fakePayrollRepo) GetNssfReportLines(_ context.Context, periodID string) ([]payroll.NssfReportLine, error) {
	var lines []payroll.NssfReportLine
	for _, s := range f.slips {
		if s.PeriodID != periodID {
			continue
		}
		lines = append(lines, payroll.NssfReportLine{
			EmployeeID:   s.EmployeeID,
			NssfBase:     s.NssfBase,
			NssfEmployee: s.NssfEmployee,
			NssfEmployer: s.NssfEmployer,
		})
	}
	return lines, nil
}

func (f *fakePayrollRepo) GetBankTransferLines(_ context.Context, periodID string) ([]payroll.BankTransferLine, error) {
	var lines []payroll.BankTransferLine
	for _, s := range f.slips {
		if s.PeriodID != periodID || s.Status != payroll.SlipStatusApproved {
			continue
		}
		amount := s.NetSalary
		if s.PaymentCurrency != payroll.CurrencyLAK {
			amount = s.NetSalaryOriginal
		}
		lines = append(lines, payroll.BankTransferLine{
			EmployeeID: s.EmployeeID,
			Amount:     amount,
			Currency:   s.PaymentCurrency,
		})
	}
	return lines, nil
}

type fakeRateRepo struct {
	settings payroll.Settings
	brackets []payroll.TaxBracket
	rates    []payroll.ConversionRate
}

func (f *fakeRateRepo) GetSettings(_ context.Context) (payroll.Settings, error) {
	return f.settings, nil
}

func (f *fakeRateRepo) ListBrackets(_ context.Context, activeOnly bool) ([]payroll.TaxBracket, error) {
	var out []payroll.TaxBracket
	for _, b := range f.brackets {
		if activeOnly && !b.IsActive {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeRateRepo) CreateBracket(_ context.Context, bracket payroll.TaxBracket) (payroll.TaxBracket, error) {
	bracket.ID = fmt.Sprintf("bracket-%d", len(f.brackets)+1)
	f.brackets = append(f.brackets, bracket)
	return bracket, nil
}

func (f *fakeRateRepo) SetBracketActive(_ context.Context, id string, active bool) error {
	for i := range f.brackets {
		if f.brackets[i].ID == id {
			f.brackets[i].IsActive = active
			return nil
		}
	}
	return payroll.ErrBracketNotFound
}

func (f *fakeRateRepo) ListRates(_ context.Context) ([]payroll.ConversionRate, error) {
	return f.rates, nil
}

func (f *fakeRateRepo) CreateRate(_ context.Context, rate payroll.ConversionRate) (payroll.ConversionRate, error) {
	for _, existing := range f.rates {
		if existing.FromCurrency != rate.FromCurrency {
			continue
		}
		if !existing.EffectiveDate.Before(rate.EffectiveDate) {
			return payroll.ConversionRate{}, payroll.ErrRateConflict
		}
		if existing.ExpiryDate != nil && existing.ExpiryDate.After(rate.EffectiveDate) {
			return payroll.ConversionRate{}, payroll.ErrRateConflict
		}
	}
	for i := range f.rates {
		if f.rates[i].FromCurrency == rate.FromCurrency && f.rates[i].ExpiryDate == nil {
			expiry := rate.EffectiveDate
			f.rates[i].ExpiryDate = &expiry
		}
	}
	rate.ID = fmt.Sprintf("rate-%d", len(f.rates)+1)
	f.rates = append(f.rates, rate)
	return rate, nil
}

type fakeEmployeeRepo struct {
	employees []employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	for _, e := range f.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployeeRepo) GetActive(_ context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.employees {
		if e.IsActive() {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeEarnings struct {
	byEmployee map[string]payroll.PeriodEarnings
}

func (f *fakeEarnings) EarningsFor(_ context.Context, employeeID, _ string) (payroll.PeriodEarnings, error) {
	return f.byEmployee[employeeID], nil
}

// ========== FIXTURE ==========

type fixture struct {
	svc          payroll.PayrollService
	payrollRepo  *fakePayrollRepo
	rateRepo     *fakeRateRepo
	employeeRepo *fakeEmployeeRepo
	earnings     *fakeEarnings
}

func lakEmployee(id, code, base string) employee.Employee {
	return employee.Employee{
		ID:               id,
		EmployeeCode:     code,
		FullName:         "Employee " + code,
		BaseSalary:       dec(base),
		ContractCurrency: "LAK",
		PaymentCurrency:  "LAK",
		Status:           employee.EmploymentStatusActive,
	}
}

func newFixture(employees ...employee.Employee) *fixture {
	f := &fixture{
		payrollRepo: newFakePayrollRepo(),
		rateRepo: &fakeRateRepo{
			settings: testSettings(),
			brackets: laoBrackets(),
			rates:    testRates(),
		},
		employeeRepo: &fakeEmployeeRepo{employees: employees},
		earnings:     &fakeEarnings{byEmployee: make(map[string]payroll.PeriodEarnings)},
	}
	f.svc = NewPayrollService(f.payrollRepo, f.rateRepo, f.employeeRepo, f.earnings)
	return f
}

func (f *fixture) createPeriod(t *testing.T, year, month int) payroll.PeriodResponse {
	t.Helper()
	period, err := f.svc.CreatePeriod(context.Background(), payroll.CreatePeriodRequest{Year: year, Month: month})
	require.NoError(t, err)
	return period
}

// ========== PERIODS ==========

func TestCreatePeriod_DuplicateMonthRejected(t *testing.T) {
	f := newFixture()

	f.createPeriod(t, 2026, 3)

	_, err := f.svc.CreatePeriod(context.Background(), payroll.CreatePeriodRequest{Year: 2026, Month: 3})
	assert.ErrorIs(t, err, payroll.ErrPeriodConflict)
}

func TestCreatePeriod_InvalidMonth(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreatePeriod(context.Background(), payroll.CreatePeriodRequest{Year: 2026, Month: 13})
	assert.Error(t, err)
}

// ========== PAYROLL RUN ==========

func TestRunPayroll_CreatesSlipsAndCompletesPeriod(t *testing.T) {
	f := newFixture(
		lakEmployee("emp-1", "E001", "6000000"),
		lakEmployee("emp-2", "E002", "3000000"),
	)
	period := f.createPeriod(t, 2026, 3)

	summary, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalEmployees)
	assert.Equal(t, 2, summary.SlipsCreated)
	assert.Equal(t, 0, summary.SlipsSkipped)
	assert.Empty(t, summary.Errors)
	assert.Equal(t, "COMPLETED", summary.PeriodStatus)

	slips, err := f.payrollRepo.ListSlipsByPeriod(context.Background(), period.ID)
	require.NoError(t, err)
	require.Len(t, slips, 2)
	for _, s := range slips {
		assert.Equal(t, payroll.SlipStatusCalculated, s.Status)
	}
}

func TestRunPayroll_UnknownPeriod(t *testing.T) {
	f := newFixture(lakEmployee("emp-1", "E001", "6000000"))

	_, err := f.svc.RunPayroll(context.Background(), "missing", payroll.RunPayrollRequest{})
	assert.ErrorIs(t, err, payroll.ErrPeriodNotFound)
}

func TestRunPayroll_CompletedPeriodNeedsRecompute(t *testing.T) {
	f := newFixture(lakEmployee("emp-1", "E001", "6000000"))
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	_, err = f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	assert.ErrorIs(t, err, payroll.ErrPeriodCompleted)
}

func TestRunPayroll_ExistingSlipSkippedWithoutRecompute(t *testing.T) {
	f := newFixture(
		lakEmployee("emp-1", "E001", "6000000"),
		lakEmployee("emp-2", "E002", "3000000"),
	)
	period := f.createPeriod(t, 2026, 3)

	// emp-1 already has a slip from a prior partial run.
	_, err := f.payrollRepo.CreateSlip(context.Background(), payroll.SalarySlip{
		EmployeeID: "emp-1",
		PeriodID:   period.ID,
		NetSalary:  dec("5492250"),
		Status:     payroll.SlipStatusCalculated,
	})
	require.NoError(t, err)

	summary, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SlipsCreated)
	assert.Equal(t, 1, summary.SlipsSkipped)
}

func TestRunPayroll_RecomputeReplacesUnpaidPreservingIDAndStatus(t *testing.T) {
	f := newFixture(lakEmployee("emp-1", "E001", "6000000"))
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	original, err := f.payrollRepo.GetSlipByEmployeePeriod(context.Background(), "emp-1", period.ID)
	require.NoError(t, err)

	require.NoError(t, f.payrollRepo.AdvanceSlipsStatus(context.Background(), []string{original.ID}, payroll.SlipStatusApproved))

	// Salary changed between runs.
	f.employeeRepo.employees[0].BaseSalary = dec("7000000")

	summary, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{Recompute: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SlipsCreated)

	replaced, err := f.payrollRepo.GetSlipByEmployeePeriod(context.Background(), "emp-1", period.ID)
	require.NoError(t, err)
	assert.Equal(t, original.ID, replaced.ID)
	assert.Equal(t, payroll.SlipStatusApproved, replaced.Status)
	assert.False(t, replaced.NetSalary.Equal(original.NetSalary))
}

func TestRunPayroll_RecomputeNeverTouchesPaidSlips(t *testing.T) {
	f := newFixture(lakEmployee("emp-1", "E001", "6000000"))
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	slip, err := f.payrollRepo.GetSlipByEmployeePeriod(context.Background(), "emp-1", period.ID)
	require.NoError(t, err)
	require.NoError(t, f.payrollRepo.AdvanceSlipsStatus(context.Background(), []string{slip.ID}, payroll.SlipStatusPaid))

	f.employeeRepo.employees[0].BaseSalary = dec("9000000")

	summary, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{Recompute: true})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.SlipsCreated)
	assert.Equal(t, 1, summary.SlipsSkipped)

	after, err := f.payrollRepo.GetSlipByID(context.Background(), slip.ID)
	require.NoError(t, err)
	assert.True(t, after.NetSalary.Equal(slip.NetSalary))
	assert.Equal(t, payroll.SlipStatusPaid, after.Status)
}

func TestRunPayroll_MissingRateIsolatesEmployee(t *testing.T) {
	eur := lakEmployee("emp-2", "E002", "2000")
	eur.ContractCurrency = "EUR"

	f := newFixture(lakEmployee("emp-1", "E001", "6000000"), eur)
	period := f.createPeriod(t, 2026, 3)

	summary, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SlipsCreated)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "emp-2", summary.Errors[0].EmployeeID)
	assert.Contains(t, summary.Errors[0].Reason, "EUR")

	// The failed employee got no slip, the period still completed.
	_, err = f.payrollRepo.GetSlipByEmployeePeriod(context.Background(), "emp-2", period.ID)
	assert.ErrorIs(t, err, payroll.ErrSlipNotFound)
	assert.Equal(t, "COMPLETED", summary.PeriodStatus)
}

func TestRunPayroll_BadBracketTableAbortsRun(t *testing.T) {
	f := newFixture(
		lakEmployee("emp-1", "E001", "6000000"),
		lakEmployee("emp-2", "E002", "3000000"),
	)
	f.rateRepo.brackets[2].MinIncome = dec("5000001") // gap
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	assert.ErrorIs(t, err, payroll.ErrInvalidBracketConfig)

	// Nothing was written and the period stayed DRAFT.
	slips, listErr := f.payrollRepo.ListSlipsByPeriod(context.Background(), period.ID)
	require.NoError(t, listErr)
	assert.Empty(t, slips)

	p, getErr := f.payrollRepo.GetPeriodByID(context.Background(), period.ID)
	require.NoError(t, getErr)
	assert.Equal(t, payroll.PeriodStatusDraft, p.Status)
}

func TestRunPayroll_RejectsConcurrentRunOnSamePeriod(t *testing.T) {
	f := newFixture(lakEmployee("emp-1", "E001", "6000000"))
	period := f.createPeriod(t, 2026, 3)

	impl := f.svc.(*PayrollServiceImpl)
	require.True(t, impl.acquireRun(period.ID))
	defer impl.releaseRun(period.ID)

	_, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	assert.ErrorIs(t, err, payroll.ErrRunInProgress)

	// A different period is unaffected.
	other := f.createPeriod(t, 2026, 4)
	_, err = f.svc.RunPayroll(context.Background(), other.ID, payroll.RunPayrollRequest{})
	assert.NoError(t, err)
}

func TestRunPayroll_UsesPeriodEarnings(t *testing.T) {
	f := newFixture(lakEmployee("emp-1", "E001", "3000000"))
	f.earnings.byEmployee["emp-1"] = payroll.PeriodEarnings{
		Overtime:        dec("200000"),
		Allowances:      dec("100000"),
		OtherDeductions: dec("50000"),
	}
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	slip, err := f.payrollRepo.GetSlipByEmployeePeriod(context.Background(), "emp-1", period.ID)
	require.NoError(t, err)
	assert.Equal(t, "200000", slip.OvertimePay.String())
	assert.Equal(t, "100000", slip.Allowances.String())
	assert.Equal(t, "50000", slip.OtherDeductions.String())
	assert.Equal(t, "3300000", slip.GrossIncome.String())
}

// ========== SLIP STATUS ==========

func TestSlipStatus_ForwardOnly(t *testing.T) {
	f := newFixture(lakEmployee("emp-1", "E001", "6000000"))
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	slip, err := f.payrollRepo.GetSlipByEmployeePeriod(context.Background(), "emp-1", period.ID)
	require.NoError(t, err)

	req := payroll.SlipStatusRequest{SlipIDs: []string{slip.ID}}
	require.NoError(t, f.svc.ApproveSlips(context.Background(), req))
	require.NoError(t, f.svc.MarkSlipsPaid(context.Background(), req))

	// No transition leaves PAID.
	err = f.svc.ApproveSlips(context.Background(), req)
	assert.ErrorIs(t, err, payroll.ErrInvalidSlipTransition)
	err = f.svc.MarkSlipsPaid(context.Background(), req)
	assert.ErrorIs(t, err, payroll.ErrInvalidSlipTransition)
}

func TestSlipStatus_CalculatedStraightToPaid(t *testing.T) {
	f := newFixture(lakEmployee("emp-1", "E001", "6000000"))
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	slip, err := f.payrollRepo.GetSlipByEmployeePeriod(context.Background(), "emp-1", period.ID)
	require.NoError(t, err)

	err = f.svc.MarkSlipsPaid(context.Background(), payroll.SlipStatusRequest{SlipIDs: []string{slip.ID}})
	assert.NoError(t, err)
}

func TestSlipStatus_BatchIsAllOrNothing(t *testing.T) {
	f := newFixture(
		lakEmployee("emp-1", "E001", "6000000"),
		lakEmployee("emp-2", "E002", "3000000"),
	)
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	first, err := f.payrollRepo.GetSlipByEmployeePeriod(context.Background(), "emp-1", period.ID)
	require.NoError(t, err)
	second, err := f.payrollRepo.GetSlipByEmployeePeriod(context.Background(), "emp-2", period.ID)
	require.NoError(t, err)

	// The second slip is already PAID, so the batch approve must fail
	// without advancing the first.
	require.NoError(t, f.payrollRepo.AdvanceSlipsStatus(context.Background(), []string{second.ID}, payroll.SlipStatusPaid))

	err = f.svc.ApproveSlips(context.Background(), payroll.SlipStatusRequest{SlipIDs: []string{first.ID, second.ID}})
	assert.ErrorIs(t, err, payroll.ErrInvalidSlipTransition)

	after, err := f.payrollRepo.GetSlipByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.SlipStatusCalculated, after.Status)
}

func TestSlipStatus_EmptyRequestRejected(t *testing.T) {
	f := newFixture()
	err := f.svc.ApproveSlips(context.Background(), payroll.SlipStatusRequest{})
	assert.Error(t, err)
}

// ========== ADJUSTMENTS ==========

func TestCreateAdjustment_OnDraftPeriod(t *testing.T) {
	f := newFixture(lakEmployee("emp-1", "E001", "6000000"))
	period := f.createPeriod(t, 2026, 3)

	created, err := f.svc.CreateAdjustment(context.Background(), payroll.CreateAdjustmentRequest{
		EmployeeID: "emp-1",
		PeriodID:   period.ID,
		Name:       "Referral bonus",
		Type:       "BONUS",
		Amount:     dec("500000"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
}

func TestCreateAdjustment_FrozenAfterPeriodCompletes(t *testing.T) {
	f := newFixture(lakEmployee("emp-1", "E001", "6000000"))
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	_, err = f.svc.CreateAdjustment(context.Background(), payroll.CreateAdjustmentRequest{
		EmployeeID: "emp-1",
		PeriodID:   period.ID,
		Name:       "Late bonus",
		Type:       "BONUS",
		Amount:     dec("500000"),
	})
	assert.ErrorIs(t, err, payroll.ErrPeriodNotDraft)
}

func TestDeleteAdjustment_FrozenAfterPeriodCompletes(t *testing.T) {
	f := newFixture(lakEmployee("emp-1", "E001", "6000000"))
	period := f.createPeriod(t, 2026, 3)

	created, err := f.svc.CreateAdjustment(context.Background(), payroll.CreateAdjustmentRequest{
		EmployeeID: "emp-1",
		PeriodID:   period.ID,
		Name:       "Transport allowance",
		Type:       "EARNING",
		IsTaxable:  true,
		Amount:     dec("150000"),
	})
	require.NoError(t, err)

	_, err = f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	err = f.svc.DeleteAdjustment(context.Background(), created.ID)
	assert.ErrorIs(t, err, payroll.ErrPeriodNotDraft)
}

func TestCreateAdjustment_UnknownEmployee(t *testing.T) {
	f := newFixture(lakEmployee("emp-1", "E001", "6000000"))
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.CreateAdjustment(context.Background(), payroll.CreateAdjustmentRequest{
		EmployeeID: "ghost",
		PeriodID:   period.ID,
		Name:       "Bonus",
		Type:       "BONUS",
		Amount:     dec("100"),
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestRunPayroll_AdjustmentsAffectSlip(t *testing.T) {
	f := newFixture(lakEmployee("emp-1", "E001", "3000000"))
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.CreateAdjustment(context.Background(), payroll.CreateAdjustmentRequest{
		EmployeeID: "emp-1",
		PeriodID:   period.ID,
		Name:       "13th month",
		Type:       "BONUS",
		Amount:     dec("1000000"),
	})
	require.NoError(t, err)

	_, err = f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	slip, err := f.payrollRepo.GetSlipByEmployeePeriod(context.Background(), "emp-1", period.ID)
	require.NoError(t, err)

	// Bonus lands in net untaxed, gross unchanged.
	assert.Equal(t, "3000000", slip.GrossIncome.String())
	assert.Equal(t, "3758250", slip.NetSalary.String())
}

// ========== DOWNSTREAM DATA FEEDS ==========

func TestGetNssfReport_TotalsMatchLines(t *testing.T) {
	f := newFixture(
		lakEmployee("emp-1", "E001", "6000000"),
		lakEmployee("emp-2", "E002", "3000000"),
	)
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	report, err := f.svc.GetNssfReport(context.Background(), period.ID)
	require.NoError(t, err)

	require.Len(t, report.Lines, 2)
	// 4.5M capped + 3M
	assert.Equal(t, "7500000", report.TotalNssfBase.String())
	assert.Equal(t, "412500", report.TotalNssfEmployee.String())
	assert.Equal(t, "450000", report.TotalNssfEmployer.String())
}

func TestGetBankTransfer_OnlyApprovedSlips(t *testing.T) {
	f := newFixture(
		lakEmployee("emp-1", "E001", "6000000"),
		lakEmployee("emp-2", "E002", "3000000"),
	)
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	slip, err := f.payrollRepo.GetSlipByEmployeePeriod(context.Background(), "emp-1", period.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.ApproveSlips(context.Background(), payroll.SlipStatusRequest{SlipIDs: []string{slip.ID}}))

	transfer, err := f.svc.GetBankTransfer(context.Background(), period.ID)
	require.NoError(t, err)

	require.Len(t, transfer.Lines, 1)
	assert.Equal(t, 1, transfer.TotalCount)
	assert.Equal(t, "5492250", transfer.TotalAmount.String())
}

func TestGetPeriodSummary_CountsByStatus(t *testing.T) {
	f := newFixture(
		lakEmployee("emp-1", "E001", "6000000"),
		lakEmployee("emp-2", "E002", "3000000"),
	)
	period := f.createPeriod(t, 2026, 3)

	_, err := f.svc.RunPayroll(context.Background(), period.ID, payroll.RunPayrollRequest{})
	require.NoError(t, err)

	slip, err := f.payrollRepo.GetSlipByEmployeePeriod(context.Background(), "emp-1", period.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.ApproveSlips(context.Background(), payroll.SlipStatusRequest{SlipIDs: []string{slip.ID}}))

	summary, err := f.svc.GetPeriodSummary(context.Background(), period.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.TotalEmployees)
	assert.Equal(t, int64(1), summary.CalculatedCount)
	assert.Equal(t, int64(1), summary.ApprovedCount)
	assert.Equal(t, int64(0), summary.PaidCount)
	assert.Equal(t, 2026, summary.Year)
	assert.Equal(t, 3, summary.Month)
}

// ========== MASTER DATA ==========

func TestCreateRate_SupersedesOpenRate(t *testing.T) {
	f := newFixture()

	created, err := f.svc.CreateRate(context.Background(), payroll.CreateRateRequest{
		FromCurrency:  "USD",
		Rate:          dec("22000"),
		EffectiveDate: "2026-09-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "LAK", created.ToCurrency)
	assert.Nil(t, created.ExpiryDate)

	rates, err := f.svc.ListRates(context.Background())
	require.NoError(t, err)

	// The previously open USD row is now closed at the new effective date.
	var closed int
	for _, r := range rates {
		if r.FromCurrency == "USD" && r.ExpiryDate != nil {
			closed++
		}
	}
	assert.Equal(t, 2, closed)
}

func TestCreateRate_RejectsBackdatedOverlap(t *testing.T) {
	f := newFixture()

	// Falls inside the closed USD window (2026-01-01 to 2026-06-01); the
	// old rate would still cover the same instants.
	_, err := f.svc.CreateRate(context.Background(), payroll.CreateRateRequest{
		FromCurrency:  "USD",
		Rate:          dec("22000"),
		EffectiveDate: "2026-02-01",
	})
	assert.ErrorIs(t, err, payroll.ErrRateConflict)

	// Same effective date as the open row is rejected too.
	_, err = f.svc.CreateRate(context.Background(), payroll.CreateRateRequest{
		FromCurrency:  "USD",
		Rate:          dec("22000"),
		EffectiveDate: "2026-06-01",
	})
	assert.ErrorIs(t, err, payroll.ErrRateConflict)

	// Nothing was written and the open row is untouched.
	rates, err := f.svc.ListRates(context.Background())
	require.NoError(t, err)
	var usd, open int
	for _, r := range rates {
		if r.FromCurrency != "USD" {
			continue
		}
		usd++
		if r.ExpiryDate == nil {
			open++
		}
	}
	assert.Equal(t, 2, usd)
	assert.Equal(t, 1, open)
}

func TestCreateRate_RejectsLAK(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateRate(context.Background(), payroll.CreateRateRequest{
		FromCurrency:  "LAK",
		Rate:          dec("1"),
		EffectiveDate: "2026-09-01",
	})
	assert.Error(t, err)
}

func TestCreateBracket_Validates(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateBracket(context.Background(), payroll.CreateBracketRequest{
		MinIncome: dec("1000"),
		MaxIncome: decPtr("500"),
		Rate:      dec("0.05"),
		SortOrder: 1,
	})
	assert.Error(t, err)

	created, err := f.svc.CreateBracket(context.Background(), payroll.CreateBracketRequest{
		MinIncome: dec("15000000"),
		MaxIncome: decPtr("25000000"),
		Rate:      dec("0.15"),
		SortOrder: 4,
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
}

func TestSetBracketActive(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.svc.SetBracketActive(context.Background(), "b4", false))

	brackets, err := f.svc.ListBrackets(context.Background())
	require.NoError(t, err)
	for _, b := range brackets {
		if b.ID == "b4" {
			assert.False(t, b.IsActive)
		}
	}

	err = f.svc.SetBracketActive(context.Background(), "missing", true)
	assert.ErrorIs(t, err, payroll.ErrBracketNotFound)
}
