package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/payroll"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/pkg/database"
)

// earningsRepository reads the per-(employee, period) amounts that
// upstream attendance and benefits processing has already resolved into
// LAK. An absent row means zero for everything, not an error.
type earningsRepository struct {
	db *database.DB
}

func NewEarningsRepository(db *database.DB) payroll.EarningsSource {
	return &earningsRepository{db: db}
}

func (r *earningsRepository) EarningsFor(ctx context.Context, employeeID, periodID string) (payroll.PeriodEarnings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT overtime_pay, allowances, other_deductions
		FROM period_earnings
		WHERE employee_id = $1 AND period_id = $2
	`

	var e payroll.PeriodEarnings
	err := q.QueryRow(ctx, query, employeeID, periodID).Scan(
		&e.Overtime, &e.Allowances, &e.OtherDeductions,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PeriodEarnings{}, nil
		}
		return payroll.PeriodEarnings{}, fmt.Errorf("failed to get period earnings: %w", err)
	}

	return e, nil
}
