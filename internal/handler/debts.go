package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/duitku/debt-engine/internal/domain"
	"github.com/duitku/debt-engine/internal/service"
	customError "github.com/duitku/debt-engine/pkg/errors"
	"github.com/duitku/debt-engine/pkg/response"
)

type DebtHandler struct {
	service   *service.DebtService
	validator *validator.Validate
}

func NewDebtHandler(service *service.DebtService) *DebtHandler {
	return &DebtHandler{
		service:   service,
		validator: validator.New(),
	}
}

func (h *DebtHandler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.authorize(w, r, PermCreateDebts)
	if !ok {
		return
	}

	var req domain.CreateDebtRequest
	if !h.decode(w, r, &req) {
		return
	}

	debt, err := h.service.CreateDebt(r.Context(), householdID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, debt)
}

func (h *DebtHandler) ListDebts(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.authorize(w, r, PermViewDebts)
	if !ok {
		return
	}

	filter := domain.DebtFilter{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("type"); v != "" {
		debtType := domain.DebtType(v)
		filter.Type = &debtType
	}
	if v := r.URL.Query().Get("isActive"); v != "" {
		active := v == "true"
		filter.IsActive = &active
	}

	debts, err := h.service.ListDebts(r.Context(), householdID, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, debts)
}

func (h *DebtHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.authorize(w, r, PermViewDebts)
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(r.Context(), householdID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, summary)
}

func (h *DebtHandler) GetDebt(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.authorize(w, r, PermViewDebts)
	if !ok {
		return
	}

	debtID, ok := h.debtID(w, r)
	if !ok {
		return
	}

	debt, err := h.service.GetDebt(r.Context(), householdID, debtID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, debt)
}

func (h *DebtHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.authorize(w, r, PermViewDebts)
	if !ok {
		return
	}

	debtID, ok := h.debtID(w, r)
	if !ok {
		return
	}

	schedule, err := h.service.GetSchedule(r.Context(), householdID, debtID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, schedule)
}

func (h *DebtHandler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.authorize(w, r, PermManageDebts)
	if !ok {
		return
	}

	debtID, ok := h.debtID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateDebtRequest
	if !h.decode(w, r, &req) {
		return
	}

	debt, err := h.service.UpdateDebt(r.Context(), householdID, debtID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, debt)
}

func (h *DebtHandler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.authorize(w, r, PermDeleteDebts)
	if !ok {
		return
	}

	debtID, ok := h.debtID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteDebt(r.Context(), householdID, debtID); err != nil {
		writeServiceError(w, err)
		return
	}

	response.JSON(w, http.StatusNoContent, nil)
}

func (h *DebtHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	householdID, ok := h.authorize(w, r, PermManageDebts)
	if !ok {
		return
	}

	debtID, ok := h.debtID(w, r)
	if !ok {
		return
	}

	var req domain.CreateDebtPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), householdID, debtID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, payment)
}

func (h *DebtHandler) authorize(w http.ResponseWriter, r *http.Request, perm string) (uuid.UUID, bool) {
	householdID, ok := householdFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "missing household identity")
		return uuid.Nil, false
	}
	if !hasPermission(r.Context(), perm) {
		response.Forbidden(w, "PERMISSION_DENIED", "missing permission "+perm)
		return uuid.Nil, false
	}
	return householdID, true
}

func (h *DebtHandler) debtID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	debtID, err := uuid.Parse(mux.Vars(r)["debtId"])
	if err != nil {
		response.BadRequest(w, "INVALID_DEBT_ID", "debt id must be a valid UUID")
		return uuid.Nil, false
	}
	return debtID, true
}

func (h *DebtHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "INVALID_BODY", "request body is not valid JSON")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.BadRequest(w, customError.ErrCodeValidationFailed, err.Error())
		return false
	}
	return true
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Validation and business rejections are client errors; only repository
// faults surface as 500s.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *customError.ValidationError
	if errors.As(err, &validationErr) {
		response.BadRequest(w, customError.ErrCodeValidationFailed, validationErr.Error())
		return
	}

	var businessErr *customError.BusinessError
	if errors.As(err, &businessErr) {
		switch businessErr.Code {
		case customError.ErrCodeDebtNotFound:
			response.NotFound(w, businessErr.Code, businessErr.Message)
		case customError.ErrCodeHouseholdMismatch:
			response.Forbidden(w, businessErr.Code, businessErr.Message)
		case customError.ErrCodeDatabaseError, customError.ErrCodeCacheError:
			log.Printf("internal error: %v", err)
			response.InternalServerError(w, "internal error")
		default:
			response.BadRequest(w, businessErr.Code, businessErr.Message)
		}
		return
	}

	log.Printf("unexpected error: %v", err)
	response.InternalServerError(w, "internal error")
}
