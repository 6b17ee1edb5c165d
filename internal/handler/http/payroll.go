package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/domain/payroll"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/handler/http/response"
	"github.com/mindset-tt/LaoHRSystem-sub001/internal/pkg/validator"
)

type PayrollHandler interface {
	// Periods
	CreatePeriod(w http.ResponseWriter, r *http.Request)
	GetPeriod(w http.ResponseWriter, r *http.Request)
	ListPeriods(w http.ResponseWriter, r *http.Request)
	RunPayroll(w http.ResponseWriter, r *http.Request)

	// Slips
	GetSlip(w http.ResponseWriter, r *http.Request)
	ListSlips(w http.ResponseWriter, r *http.Request)
	ApproveSlips(w http.ResponseWriter, r *http.Request)
	MarkSlipsPaid(w http.ResponseWriter, r *http.Request)

	// Adjustments
	CreateAdjustment(w http.ResponseWriter, r *http.Request)
	ListAdjustments(w http.ResponseWriter, r *http.Request)
	DeleteAdjustment(w http.ResponseWriter, r *http.Request)

	// Master data
	ListBrackets(w http.ResponseWriter, r *http.Request)
	CreateBracket(w http.ResponseWriter, r *http.Request)
	SetBracketActive(w http.ResponseWriter, r *http.Request)
	ListRates(w http.ResponseWriter, r *http.Request)
	CreateRate(w http.ResponseWriter, r *http.Request)

	// Downstream data feeds
	GetPeriodSummary(w http.ResponseWriter, r *http.Request)
	GetNssfReport(w http.ResponseWriter, r *http.Request)
	GetBankTransfer(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// uuidParam reads a URL parameter expected to hold a UUID and rejects
// malformed values before they reach the database.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := chi.URLParam(r, name)
	if !validator.IsValidUUID(value) {
		response.BadRequest(w, "Invalid "+name, nil)
		return "", false
	}
	return value, true
}

// ========== PERIODS ==========

func (h *payrollHandlerImpl) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreatePeriod(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll period created", result)
}

func (h *payrollHandlerImpl) GetPeriod(w http.ResponseWriter, r *http.Request) {
	periodID, ok := uuidParam(w, r, "periodID")
	if !ok {
		return
	}

	result, err := h.payrollService.GetPeriod(r.Context(), periodID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListPeriods(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListPeriods(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) RunPayroll(w http.ResponseWriter, r *http.Request) {
	periodID, ok := uuidParam(w, r, "periodID")
	if !ok {
		return
	}

	req := payroll.RunPayrollRequest{}
	if recompute := r.URL.Query().Get("recompute"); recompute != "" {
		value, err := strconv.ParseBool(recompute)
		if err != nil {
			response.BadRequest(w, "Invalid recompute flag", nil)
			return
		}
		req.Recompute = value
	}

	result, err := h.payrollService.RunPayroll(r.Context(), periodID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if len(result.Errors) > 0 {
		response.SuccessWithMessage(w, "Payroll run completed with errors", result)
		return
	}
	response.SuccessWithMessage(w, "Payroll run completed", result)
}

// ========== SLIPS ==========

func (h *payrollHandlerImpl) GetSlip(w http.ResponseWriter, r *http.Request) {
	slipID, ok := uuidParam(w, r, "slipID")
	if !ok {
		return
	}

	result, err := h.payrollService.GetSlip(r.Context(), slipID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListSlips(w http.ResponseWriter, r *http.Request) {
	periodID, ok := uuidParam(w, r, "periodID")
	if !ok {
		return
	}

	result, err := h.payrollService.ListSlips(r.Context(), periodID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ApproveSlips(w http.ResponseWriter, r *http.Request) {
	var req payroll.SlipStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.payrollService.ApproveSlips(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary slips approved", nil)
}

func (h *payrollHandlerImpl) MarkSlipsPaid(w http.ResponseWriter, r *http.Request) {
	var req payroll.SlipStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.payrollService.MarkSlipsPaid(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary slips marked as paid", nil)
}

// ========== ADJUSTMENTS ==========

func (h *payrollHandlerImpl) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	periodID, ok := uuidParam(w, r, "periodID")
	if !ok {
		return
	}
	req.PeriodID = periodID

	result, err := h.payrollService.CreateAdjustment(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Adjustment created", result)
}

func (h *payrollHandlerImpl) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	periodID, ok := uuidParam(w, r, "periodID")
	if !ok {
		return
	}

	var employeeID *string
	if value := r.URL.Query().Get("employee_id"); value != "" {
		if !validator.IsValidUUID(value) {
			response.BadRequest(w, "Invalid employee_id", nil)
			return
		}
		employeeID = &value
	}

	result, err := h.payrollService.ListAdjustments(r.Context(), periodID, employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) DeleteAdjustment(w http.ResponseWriter, r *http.Request) {
	adjustmentID, ok := uuidParam(w, r, "adjustmentID")
	if !ok {
		return
	}

	if err := h.payrollService.DeleteAdjustment(r.Context(), adjustmentID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Adjustment deleted", nil)
}

// ========== MASTER DATA ==========

func (h *payrollHandlerImpl) ListBrackets(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListBrackets(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) CreateBracket(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateBracketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreateBracket(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Tax bracket created", result)
}

func (h *payrollHandlerImpl) SetBracketActive(w http.ResponseWriter, r *http.Request) {
	bracketID, ok := uuidParam(w, r, "bracketID")
	if !ok {
		return
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.payrollService.SetBracketActive(r.Context(), bracketID, req.IsActive); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Tax bracket updated", nil)
}

func (h *payrollHandlerImpl) ListRates(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListRates(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) CreateRate(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreateRate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Conversion rate created", result)
}

// ========== DOWNSTREAM DATA FEEDS ==========

func (h *payrollHandlerImpl) GetPeriodSummary(w http.ResponseWriter, r *http.Request) {
	periodID, ok := uuidParam(w, r, "periodID")
	if !ok {
		return
	}

	result, err := h.payrollService.GetPeriodSummary(r.Context(), periodID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetNssfReport(w http.ResponseWriter, r *http.Request) {
	periodID, ok := uuidParam(w, r, "periodID")
	if !ok {
		return
	}

	result, err := h.payrollService.GetNssfReport(r.Context(), periodID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetBankTransfer(w http.ResponseWriter, r *http.Request) {
	periodID, ok := uuidParam(w, r, "periodID")
	if !ok {
		return
	}

	result, err := h.payrollService.GetBankTransfer(r.Context(), periodID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
