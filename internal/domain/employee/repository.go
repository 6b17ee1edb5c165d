package employee

import "context"

// EmployeeRepository is the read-only view of employee master data the
// payroll engine consumes. Employee management itself lives elsewhere.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetActive(ctx context.Context) ([]Employee, error)
}
