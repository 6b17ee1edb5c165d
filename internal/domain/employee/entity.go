package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID                string
	EmployeeCode      string
	FullName          string
	BaseSalary        decimal.Decimal
	ContractCurrency  string
	PaymentCurrency   string
	DependentCount    int
	NssfNumber        *string
	BankName          string
	BankAccountNumber string
	Status            EmploymentStatus
	HireDate          time.Time
	ResignationDate   *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// IsActive reports whether the employee is included in payroll runs.
func (e Employee) IsActive() bool {
	return e.Status == EmploymentStatusActive && e.DeletedAt == nil
}
