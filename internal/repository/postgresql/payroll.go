package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/payroll"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/pkg/database"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== PERIODS ==========

func (r *payrollRepository) CreatePeriod(ctx context.Context, period payroll.Period) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_periods (id, year, month, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, year, month, start_date, end_date, status, created_at, updated_at
	`

	var p payroll.Period
	err := q.QueryRow(ctx, query,
		uuid.NewString(), period.Year, period.Month, period.StartDate, period.EndDate, period.Status,
	).Scan(
		&p.ID, &p.Year, &p.Month, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "uk_period_year_month") {
			return payroll.Period{}, payroll.ErrPeriodConflict
		}
		return payroll.Period{}, fmt.Errorf("failed to create payroll period: %w", err)
	}

	return p, nil
}

func (r *payrollRepository) GetPeriodByID(ctx context.Context, id string) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, year, month, start_date, end_date, status, created_at, updated_at
		FROM payroll_periods
		WHERE id = $1
	`

	var p payroll.Period
	err := q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Year, &p.Month, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Period{}, payroll.ErrPeriodNotFound
		}
		return payroll.Period{}, fmt.Errorf("failed to get payroll period: %w", err)
	}

	return p, nil
}

func (r *payrollRepository) GetPeriodByYearMonth(ctx context.Context, year, month int) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, year, month, start_date, end_date, status, created_at, updated_at
		FROM payroll_periods
		WHERE year = $1 AND month = $2
	`

	var p payroll.Period
	err := q.QueryRow(ctx, query, year, month).Scan(
		&p.ID, &p.Year, &p.Month, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Period{}, payroll.ErrPeriodNotFound
		}
		return payroll.Period{}, fmt.Errorf("failed to get payroll period: %w", err)
	}

	return p, nil
}

func (r *payrollRepository) ListPeriods(ctx context.Context) ([]payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, year, month, start_date, end_date, status, created_at, updated_at
		FROM payroll_periods
		ORDER BY year DESC, month DESC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll periods: %w", err)
	}
	defer rows.Close()

	var periods []payroll.Period
	for rows.Next() {
		var p payroll.Period
		if err := rows.Scan(
			&p.ID, &p.Year, &p.Month, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payroll period: %w", err)
		}
		periods = append(periods, p)
	}

	return periods, nil
}

func (r *payrollRepository) CompletePeriod(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_periods
		SET status = 'COMPLETED', updated_at = NOW()
		WHERE id = $1 AND status = 'DRAFT'
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Either the period does not exist or it already completed.
			if _, getErr := r.GetPeriodByID(ctx, id); getErr != nil {
				return getErr
			}
			return payroll.ErrPeriodNotDraft
		}
		return fmt.Errorf("failed to complete payroll period: %w", err)
	}

	return nil
}

// ========== SLIPS ==========

const slipColumns = `
	s.id, s.employee_id, s.period_id, s.base_salary, s.overtime_pay,
	s.allowances, s.gross_income, s.nssf_base, s.nssf_employee_deduction,
	s.nssf_employer_contribution, s.taxable_income, s.tax_deduction,
	s.other_deductions, s.net_salary, s.status, s.base_salary_original,
	s.contract_currency, s.exchange_rate_used, s.net_salary_original,
	s.payment_currency, s.created_at, s.updated_at
`

func scanSlip(row pgx.Row) (payroll.SalarySlip, error) {
	var s payroll.SalarySlip
	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.PeriodID, &s.BaseSalary, &s.OvertimePay,
		&s.Allowances, &s.GrossIncome, &s.NssfBase, &s.NssfEmployee,
		&s.NssfEmployer, &s.TaxableIncome, &s.TaxDeduction,
		&s.OtherDeductions, &s.NetSalary, &s.Status, &s.BaseSalaryOriginal,
		&s.ContractCurrency, &s.ExchangeRateUsed, &s.NetSalaryOriginal,
		&s.PaymentCurrency, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *payrollRepository) CreateSlip(ctx context.Context, slip payroll.SalarySlip) (payroll.SalarySlip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_slips (
			id, employee_id, period_id, base_salary, overtime_pay, allowances,
			gross_income, nssf_base, nssf_employee_deduction,
			nssf_employer_contribution, taxable_income, tax_deduction,
			other_deductions, net_salary, status, base_salary_original,
			contract_currency, exchange_rate_used, net_salary_original,
			payment_currency
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, employee_id, period_id, base_salary, overtime_pay,
			allowances, gross_income, nssf_base, nssf_employee_deduction,
			nssf_employer_contribution, taxable_income, tax_deduction,
			other_deductions, net_salary, status, base_salary_original,
			contract_currency, exchange_rate_used, net_salary_original,
			payment_currency, created_at, updated_at
	`

	var created payroll.SalarySlip
	err := q.QueryRow(ctx, query,
		uuid.NewString(), slip.EmployeeID, slip.PeriodID, slip.BaseSalary, slip.OvertimePay, slip.Allowances,
		slip.GrossIncome, slip.NssfBase, slip.NssfEmployee,
		slip.NssfEmployer, slip.TaxableIncome, slip.TaxDeduction,
		slip.OtherDeductions, slip.NetSalary, slip.Status, slip.BaseSalaryOriginal,
		slip.ContractCurrency, slip.ExchangeRateUsed, slip.NetSalaryOriginal,
		slip.PaymentCurrency,
	).Scan(
		&created.ID, &created.EmployeeID, &created.PeriodID, &created.BaseSalary, &created.OvertimePay,
		&created.Allowances, &created.GrossIncome, &created.NssfBase, &created.NssfEmployee,
		&created.NssfEmployer, &created.TaxableIncome, &created.TaxDeduction,
		&created.OtherDeductions, &created.NetSalary, &created.Status, &created.BaseSalaryOriginal,
		&created.ContractCurrency, &created.ExchangeRateUsed, &created.NetSalaryOriginal,
		&created.PaymentCurrency, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return payroll.SalarySlip{}, fmt.Errorf("failed to create salary slip: %w", err)
	}

	return created, nil
}

func (r *payrollRepository) ReplaceSlip(ctx context.Context, slip payroll.SalarySlip) (payroll.SalarySlip, error) {
	q := GetQuerier(ctx, r.db)

	// Status is intentionally not part of the update; recompute preserves
	// the slip's progression. PAID slips are guarded here as well as in
	// the orchestrator.
	query := `
		UPDATE salary_slips SET
			base_salary = $2, overtime_pay = $3, allowances = $4,
			gross_income = $5, nssf_base = $6, nssf_employee_deduction = $7,
			nssf_employer_contribution = $8, taxable_income = $9,
			tax_deduction = $10, other_deductions = $11, net_salary = $12,
			base_salary_original = $13, contract_currency = $14,
			exchange_rate_used = $15, net_salary_original = $16,
			payment_currency = $17, updated_at = NOW()
		WHERE id = $1 AND status <> 'PAID'
		RETURNING id, employee_id, period_id, base_salary, overtime_pay,
			allowances, gross_income, nssf_base, nssf_employee_deduction,
			nssf_employer_contribution, taxable_income, tax_deduction,
			other_deductions, net_salary, status, base_salary_original,
			contract_currency, exchange_rate_used, net_salary_original,
			payment_currency, created_at, updated_at
	`

	var updated payroll.SalarySlip
	err := q.QueryRow(ctx, query,
		slip.ID, slip.BaseSalary, slip.OvertimePay, slip.Allowances,
		slip.GrossIncome, slip.NssfBase, slip.NssfEmployee,
		slip.NssfEmployer, slip.TaxableIncome,
		slip.TaxDeduction, slip.OtherDeductions, slip.NetSalary,
		slip.BaseSalaryOriginal, slip.ContractCurrency,
		slip.ExchangeRateUsed, slip.NetSalaryOriginal,
		slip.PaymentCurrency,
	).Scan(
		&updated.ID, &updated.EmployeeID, &updated.PeriodID, &updated.BaseSalary, &updated.OvertimePay,
		&updated.Allowances, &updated.GrossIncome, &updated.NssfBase, &updated.NssfEmployee,
		&updated.NssfEmployer, &updated.TaxableIncome, &updated.TaxDeduction,
		&updated.OtherDeductions, &updated.NetSalary, &updated.Status, &updated.BaseSalaryOriginal,
		&updated.ContractCurrency, &updated.ExchangeRateUsed, &updated.NetSalaryOriginal,
		&updated.PaymentCurrency, &updated.CreatedAt, &updated.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			if _, getErr := r.GetSlipByID(ctx, slip.ID); getErr != nil {
				return payroll.SalarySlip{}, getErr
			}
			return payroll.SalarySlip{}, payroll.ErrSlipAlreadyPaid
		}
		return payroll.SalarySlip{}, fmt.Errorf("failed to replace salary slip: %w", err)
	}

	return updated, nil
}

func (r *payrollRepository) GetSlipByID(ctx context.Context, id string) (payroll.SalarySlip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + slipColumns + `, e.full_name, e.employee_code
		FROM salary_slips s
		JOIN employees e ON s.employee_id = e.id
		WHERE s.id = $1
	`

	var s payroll.SalarySlip
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.EmployeeID, &s.PeriodID, &s.BaseSalary, &s.OvertimePay,
		&s.Allowances, &s.GrossIncome, &s.NssfBase, &s.NssfEmployee,
		&s.NssfEmployer, &s.TaxableIncome, &s.TaxDeduction,
		&s.OtherDeductions, &s.NetSalary, &s.Status, &s.BaseSalaryOriginal,
		&s.ContractCurrency, &s.ExchangeRateUsed, &s.NetSalaryOriginal,
		&s.PaymentCurrency, &s.CreatedAt, &s.UpdatedAt,
		&s.EmployeeName, &s.EmployeeCode,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.SalarySlip{}, payroll.ErrSlipNotFound
		}
		return payroll.SalarySlip{}, fmt.Errorf("failed to get salary slip: %w", err)
	}

	return s, nil
}

func (r *payrollRepository) GetSlipByEmployeePeriod(ctx context.Context, employeeID, periodID string) (payroll.SalarySlip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + slipColumns + `
		FROM salary_slips s
		WHERE s.employee_id = $1 AND s.period_id = $2
	`

	s, err := scanSlip(q.QueryRow(ctx, query, employeeID, periodID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.SalarySlip{}, payroll.ErrSlipNotFound
		}
		return payroll.SalarySlip{}, fmt.Errorf("failed to get salary slip: %w", err)
	}

	return s, nil
}

func (r *payrollRepository) ListSlipsByPeriod(ctx context.Context, periodID string) ([]payroll.SalarySlip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + slipColumns + `, e.full_name, e.employee_code
		FROM salary_slips s
		JOIN employees e ON s.employee_id = e.id
		WHERE s.period_id = $1
		ORDER BY e.employee_code
	`

	rows, err := q.Query(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary slips: %w", err)
	}
	defer rows.Close()

	var slips []payroll.SalarySlip
	for rows.Next() {
		var s payroll.SalarySlip
		if err := rows.Scan(
			&s.ID, &s.EmployeeID, &s.PeriodID, &s.BaseSalary, &s.OvertimePay,
			&s.Allowances, &s.GrossIncome, &s.NssfBase, &s.NssfEmployee,
			&s.NssfEmployer, &s.TaxableIncome, &s.TaxDeduction,
			&s.OtherDeductions, &s.NetSalary, &s.Status, &s.BaseSalaryOriginal,
			&s.ContractCurrency, &s.ExchangeRateUsed, &s.NetSalaryOriginal,
			&s.PaymentCurrency, &s.CreatedAt, &s.UpdatedAt,
			&s.EmployeeName, &s.EmployeeCode,
		); err != nil {
			return nil, fmt.Errorf("failed to scan salary slip: %w", err)
		}
		slips = append(slips, s)
	}

	return slips, nil
}

func (r *payrollRepository) AdvanceSlipsStatus(ctx context.Context, ids []string, to payroll.SlipStatus) error {
	// A batch approve or pay is all-or-nothing: one bad slip rolls back
	// every transition in the request.
	return WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		for _, id := range ids {
			if err := r.advanceSlip(txCtx, id, to); err != nil {
				return fmt.Errorf("slip %s: %w", id, err)
			}
		}
		return nil
	})
}

func (r *payrollRepository) advanceSlip(ctx context.Context, id string, to payroll.SlipStatus) error {
	q := GetQuerier(ctx, r.db)

	var allowedFrom []string
	switch to {
	case payroll.SlipStatusApproved:
		allowedFrom = []string{string(payroll.SlipStatusCalculated)}
	case payroll.SlipStatusPaid:
		allowedFrom = []string{string(payroll.SlipStatusCalculated), string(payroll.SlipStatusApproved)}
	default:
		return payroll.ErrInvalidSlipTransition
	}

	query := `
		UPDATE salary_slips
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, to, allowedFrom).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			if _, getErr := r.GetSlipByID(ctx, id); getErr != nil {
				return getErr
			}
			return payroll.ErrInvalidSlipTransition
		}
		return fmt.Errorf("failed to advance salary slip status: %w", err)
	}

	return nil
}
