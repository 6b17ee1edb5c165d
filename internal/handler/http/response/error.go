package response

import (
	"errors"
	"net/http"

	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/employee"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/payroll"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Not found
	case errors.Is(err, payroll.ErrPeriodNotFound):
		NotFound(w, "Payroll period not found")
	case errors.Is(err, payroll.ErrSlipNotFound):
		NotFound(w, "Salary slip not found")
	case errors.Is(err, payroll.ErrAdjustmentNotFound):
		NotFound(w, "Adjustment not found")
	case errors.Is(err, payroll.ErrBracketNotFound):
		NotFound(w, "Tax bracket not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// State conflicts
	case errors.Is(err, payroll.ErrPeriodConflict):
		Conflict(w, "Payroll period already exists for this month")
	case errors.Is(err, payroll.ErrPeriodNotDraft):
		Conflict(w, "Payroll period is no longer in draft")
	case errors.Is(err, payroll.ErrPeriodCompleted):
		Conflict(w, "Payroll period already completed")
	case errors.Is(err, payroll.ErrRunInProgress):
		Conflict(w, "A payroll run is already in progress for this period")
	case errors.Is(err, payroll.ErrSlipAlreadyPaid):
		Conflict(w, "Salary slip already paid")
	case errors.Is(err, payroll.ErrInvalidSlipTransition):
		Conflict(w, "Invalid salary slip status transition")
	case errors.Is(err, payroll.ErrRateConflict):
		Conflict(w, "Conversion rate overlaps an existing rate for this currency")

	// Calculation input problems
	case errors.Is(err, payroll.ErrMissingConversionRate):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrInvalidBaseSalary):
		BadRequest(w, err.Error(), nil)

	// Statutory configuration problems
	case errors.Is(err, payroll.ErrNoActiveBrackets),
		errors.Is(err, payroll.ErrInvalidBracketConfig),
		errors.Is(err, payroll.ErrSettingNotFound),
		errors.Is(err, payroll.ErrInvalidSettingValue):
		InternalServerError(w, err.Error())

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
