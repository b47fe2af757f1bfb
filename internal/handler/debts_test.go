package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/duitku/debt-engine/internal/domain"
	"github.com/duitku/debt-engine/internal/service"
	"github.com/duitku/debt-engine/tests/mocks"
)

func newTestRouter(debtRepo *mocks.MockDebtRepository, paymentRepo *mocks.MockPaymentRepository) *mux.Router {
	svc := service.NewDebtService(debtRepo, paymentRepo, nil, nil)
	h := NewDebtHandler(svc)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(HouseholdGuard)
	api.HandleFunc("/debts", h.CreateDebt).Methods("POST")
	api.HandleFunc("/debts", h.ListDebts).Methods("GET")
	api.HandleFunc("/debts/summary", h.GetSummary).Methods("GET")
	api.HandleFunc("/debts/{debtId}", h.GetDebt).Methods("GET")
	api.HandleFunc("/debts/{debtId}/schedule", h.GetSchedule).Methods("GET")
	api.HandleFunc("/debts/{debtId}/payments", h.RecordPayment).Methods("POST")
	return router
}

func TestHouseholdGuard_MissingIdentity(t *testing.T) {
	router := newTestRouter(&mocks.MockDebtRepository{}, &mocks.MockPaymentRepository{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/debts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDebtHandler_PermissionDenied(t *testing.T) {
	router := newTestRouter(&mocks.MockDebtRepository{}, &mocks.MockPaymentRepository{})

	body := strings.NewReader(`{"type":"PERSONAL","name":"n","creditor":"c","principal_amount":"100","currency":"IDR","start_date":"2024-01-01"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/debts", body)
	req.Header.Set("X-Household-ID", uuid.NewString())
	req.Header.Set("X-Permissions", PermViewDebts)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDebtHandler_ListDebts(t *testing.T) {
	debtRepo := &mocks.MockDebtRepository{}
	householdID := uuid.New()
	debtRepo.On("List", mock.Anything, householdID, mock.Anything).Return([]*domain.Debt{}, nil)

	router := newTestRouter(debtRepo, &mocks.MockPaymentRepository{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/debts?isActive=true", nil)
	req.Header.Set("X-Household-ID", householdID.String())
	req.Header.Set("X-Permissions", PermViewDebts)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	debtRepo.AssertExpectations(t)
}

func TestDebtHandler_CrossHouseholdAccessForbidden(t *testing.T) {
	debtRepo := &mocks.MockDebtRepository{}

	otherHousehold := uuid.New()
	debt := &domain.Debt{
		ID:                  uuid.New(),
		HouseholdID:         otherHousehold,
		Type:                domain.DebtTypePersonal,
		PrincipalCents:      100_00,
		CurrentBalanceCents: 100_00,
		Currency:            "IDR",
		StartDate:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:            true,
	}
	debtRepo.On("GetByID", mock.Anything, debt.ID).Return(debt, nil)

	router := newTestRouter(debtRepo, &mocks.MockPaymentRepository{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/debts/"+debt.ID.String(), nil)
	req.Header.Set("X-Household-ID", uuid.NewString())
	req.Header.Set("X-Permissions", PermViewDebts)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDebtHandler_RecordPaymentRejectsBadBody(t *testing.T) {
	router := newTestRouter(&mocks.MockDebtRepository{}, &mocks.MockPaymentRepository{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/debts/"+uuid.NewString()+"/payments",
		strings.NewReader(`{not json`))
	req.Header.Set("X-Household-ID", uuid.NewString())
	req.Header.Set("X-Permissions", PermManageDebts)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDebtHandler_GetScheduleRepositoryFault(t *testing.T) {
	debtRepo := &mocks.MockDebtRepository{}
	debtID := uuid.New()
	debtRepo.On("GetByID", mock.Anything, debtID).Return(nil, errors.New("driver failure"))

	router := newTestRouter(debtRepo, &mocks.MockPaymentRepository{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/debts/"+debtID.String()+"/schedule", nil)
	req.Header.Set("X-Household-ID", uuid.NewString())
	req.Header.Set("X-Permissions", PermViewDebts)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// An unexpected repository error is a server fault, not a client error.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDebtHandler_CreateDebtSuccess(t *testing.T) {
	debtRepo := &mocks.MockDebtRepository{}
	householdID := uuid.New()
	debtRepo.On("Create", mock.Anything, mock.MatchedBy(func(d *domain.Debt) bool {
		return d.HouseholdID == householdID && d.PrincipalCents == decimal.NewFromInt(100).Shift(2).IntPart()
	})).Return(nil)

	router := newTestRouter(debtRepo, &mocks.MockPaymentRepository{})

	body := strings.NewReader(`{"type":"PERSONAL","name":"Family loan","creditor":"Uncle","principal_amount":"100","currency":"IDR","start_date":"2024-01-01"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/debts", body)
	req.Header.Set("X-Household-ID", householdID.String())
	req.Header.Set("X-Permissions", PermCreateDebts+","+PermManageDebts)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	debtRepo.AssertExpectations(t)
}
