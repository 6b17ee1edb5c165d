package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/employee"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/pkg/database"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `
	id, employee_code, full_name, base_salary, contract_currency,
	payment_currency, dependent_count, nssf_number, bank_name,
	bank_account_number, status, hire_date, resignation_date,
	created_at, updated_at, deleted_at
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.EmployeeCode, &e.FullName, &e.BaseSalary, &e.ContractCurrency,
		&e.PaymentCurrency, &e.DependentCount, &e.NssfNumber, &e.BankName,
		&e.BankAccountNumber, &e.Status, &e.HireDate, &e.ResignationDate,
		&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	)
	return e, err
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 AND deleted_at IS NULL`

	e, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return e, nil
}

func (r *employeeRepository) GetActive(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE status = 'active' AND deleted_at IS NULL
		ORDER BY employee_code
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	return employees, nil
}
