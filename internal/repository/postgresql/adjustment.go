package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/payroll"
)

// ========== ADJUSTMENTS ==========

func (r *payrollRepository) CreateAdjustment(ctx context.Context, adjustment payroll.Adjustment) (payroll.Adjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_adjustments (
			id, employee_id, period_id, name, type, amount, is_taxable, is_nssf_assessable
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, employee_id, period_id, name, type, amount, is_taxable, is_nssf_assessable, created_at, updated_at
	`

	var a payroll.Adjustment
	err := q.QueryRow(ctx, query,
		uuid.NewString(), adjustment.EmployeeID, adjustment.PeriodID, adjustment.Name,
		adjustment.Type, adjustment.Amount, adjustment.IsTaxable, adjustment.IsNssfAssessable,
	).Scan(
		&a.ID, &a.EmployeeID, &a.PeriodID, &a.Name, &a.Type, &a.Amount,
		&a.IsTaxable, &a.IsNssfAssessable, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return payroll.Adjustment{}, fmt.Errorf("failed to create payroll adjustment: %w", err)
	}

	return a, nil
}

func (r *payrollRepository) GetAdjustmentByID(ctx context.Context, id string) (payroll.Adjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, period_id, name, type, amount, is_taxable, is_nssf_assessable, created_at, updated_at
		FROM payroll_adjustments
		WHERE id = $1
	`

	var a payroll.Adjustment
	err := q.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.EmployeeID, &a.PeriodID, &a.Name, &a.Type, &a.Amount,
		&a.IsTaxable, &a.IsNssfAssessable, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Adjustment{}, payroll.ErrAdjustmentNotFound
		}
		return payroll.Adjustment{}, fmt.Errorf("failed to get payroll adjustment: %w", err)
	}

	return a, nil
}

func (r *payrollRepository) ListAdjustments(ctx context.Context, periodID string, employeeID *string) ([]payroll.Adjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, period_id, name, type, amount, is_taxable, is_nssf_assessable, created_at, updated_at
		FROM payroll_adjustments
		WHERE period_id = $1 AND ($2::uuid IS NULL OR employee_id = $2)
		ORDER BY created_at
	`

	rows, err := q.Query(ctx, query, periodID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []payroll.Adjustment
	for rows.Next() {
		var a payroll.Adjustment
		if err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.PeriodID, &a.Name, &a.Type, &a.Amount,
			&a.IsTaxable, &a.IsNssfAssessable, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payroll adjustment: %w", err)
		}
		adjustments = append(adjustments, a)
	}

	return adjustments, nil
}

func (r *payrollRepository) DeleteAdjustment(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `DELETE FROM payroll_adjustments WHERE id = $1`

	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete payroll adjustment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrAdjustmentNotFound
	}

	return nil
}

// ========== AGGREGATIONS ==========

func (r *payrollRepository) GetPeriodSummary(ctx context.Context, periodID string) (payroll.PeriodSummaryResponse, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			p.id, p.year, p.month,
			COUNT(s.id),
			COALESCE(SUM(s.gross_income), 0),
			COALESCE(SUM(s.nssf_employee_deduction), 0),
			COALESCE(SUM(s.nssf_employer_contribution), 0),
			COALESCE(SUM(s.tax_deduction), 0),
			COALESCE(SUM(s.net_salary), 0),
			COUNT(s.id) FILTER (WHERE s.status = 'CALCULATED'),
			COUNT(s.id) FILTER (WHERE s.status = 'APPROVED'),
			COUNT(s.id) FILTER (WHERE s.status = 'PAID')
		FROM payroll_periods p
		LEFT JOIN salary_slips s ON s.period_id = p.id
		WHERE p.id = $1
		GROUP BY p.id, p.year, p.month
	`

	var summary payroll.PeriodSummaryResponse
	err := q.QueryRow(ctx, query, periodID).Scan(
		&summary.PeriodID, &summary.Year, &summary.Month,
		&summary.TotalEmployees,
		&summary.TotalGrossIncome,
		&summary.TotalNssfEmployee,
		&summary.TotalNssfEmployer,
		&summary.TotalTax,
		&summary.TotalNetSalary,
		&summary.CalculatedCount,
		&summary.ApprovedCount,
		&summary.PaidCount,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PeriodSummaryResponse{}, payroll.ErrPeriodNotFound
		}
		return payroll.PeriodSummaryResponse{}, fmt.Errorf("failed to get period summary: %w", err)
	}

	return summary, nil
}

func (r *payrollRepository) GetNssfReportLines(ctx context.Context, periodID string) ([]payroll.NssfReportLine, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			s.employee_id, e.full_name, e.nssf_number,
			s.nssf_base, s.nssf_employee_deduction, s.nssf_employer_contribution
		FROM salary_slips s
		JOIN employees e ON s.employee_id = e.id
		WHERE s.period_id = $1
		ORDER BY e.employee_code
	`

	rows, err := q.Query(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nssf report lines: %w", err)
	}
	defer rows.Close()

	var lines []payroll.NssfReportLine
	for rows.Next() {
		var l payroll.NssfReportLine
		if err := rows.Scan(
			&l.EmployeeID, &l.EmployeeName, &l.NssfNumber,
			&l.NssfBase, &l.NssfEmployee, &l.NssfEmployer,
		); err != nil {
			return nil, fmt.Errorf("failed to scan nssf report line: %w", err)
		}
		lines = append(lines, l)
	}

	return lines, nil
}

func (r *payrollRepository) GetBankTransferLines(ctx context.Context, periodID string) ([]payroll.BankTransferLine, error) {
	q := GetQuerier(ctx, r.db)

	// Transfers pay the original-currency net when the employee is paid in
	// a non-LAK currency, otherwise the LAK net.
	query := `
		SELECT
			s.employee_id, e.full_name, e.bank_name, e.bank_account_number,
			CASE WHEN s.payment_currency = 'LAK' THEN s.net_salary ELSE s.net_salary_original END,
			s.payment_currency
		FROM salary_slips s
		JOIN employees e ON s.employee_id = e.id
		WHERE s.period_id = $1 AND s.status = 'APPROVED'
		ORDER BY e.employee_code
	`

	rows, err := q.Query(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank transfer lines: %w", err)
	}
	defer rows.Close()

	var lines []payroll.BankTransferLine
	for rows.Next() {
		var l payroll.BankTransferLine
		if err := rows.Scan(
			&l.EmployeeID, &l.EmployeeName, &l.BankName, &l.BankAccountNumber,
			&l.Amount, &l.Currency,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bank transfer line: %w", err)
		}
		lines = append(lines, l)
	}

	return lines, nil
}
