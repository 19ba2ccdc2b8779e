package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	partnerapp "github.com/invoicer/backend/internal/application/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCustomerService is a mock implementation of CustomerService
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Create(ctx context.Context, req partnerapp.CreateCustomerRequest) (*partnerapp.CustomerResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) GetByID(ctx context.Context, customerID uuid.UUID) (*partnerapp.CustomerResponse, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context, filter partnerapp.CustomerListFilter) ([]partnerapp.CustomerResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]partnerapp.CustomerResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerService) Update(ctx context.Context, customerID uuid.UUID, req partnerapp.UpdateCustomerRequest) (*partnerapp.CustomerResponse, error) {
	args := m.Called(ctx, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) Delete(ctx context.Context, customerID uuid.UUID) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func setupCustomerRouter(svc CustomerService) *gin.Engine {
	h := NewCustomerHandler(svc)
	r := gin.New()
	r.Use(middleware.RequestID())
	g := r.Group("/api/v1/customers")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return r
}

func sampleCustomer() *partnerapp.CustomerResponse {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &partnerapp.CustomerResponse{
		ID:          uuid.New(),
		Name:        "Ada Lovelace",
		Email:       "ada@analytical.test",
		Company:     "Analytical Engines Ltd",
		DisplayName: "Ada Lovelace (Analytical Engines Ltd)",
		Country:     "UK",
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCustomerHandler_Create(t *testing.T) {
	svc := new(MockCustomerService)
	customer := sampleCustomer()
	svc.On("Create", mock.Anything, mock.MatchedBy(func(req partnerapp.CreateCustomerRequest) bool {
		return req.Name == "Ada Lovelace" && req.Email == "ada@analytical.test"
	})).Return(customer, nil)

	w := doRequest(setupCustomerRouter(svc), http.MethodPost, "/api/v1/customers",
		`{"name":"Ada Lovelace","email":"ada@analytical.test","company":"Analytical Engines Ltd"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, customer.ID.String(), data["id"])
	assert.Equal(t, "Ada Lovelace (Analytical Engines Ltd)", data["display_name"])
	svc.AssertExpectations(t)
}

func TestCustomerHandler_Create_ValidationFailure(t *testing.T) {
	svc := new(MockCustomerService)

	w := doRequest(setupCustomerRouter(svc), http.MethodPost, "/api/v1/customers",
		`{"name":"","email":"not-an-email"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)

	fields := make([]string, 0, len(resp.Error.Details))
	for _, d := range resp.Error.Details {
		fields = append(fields, d.Field)
	}
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCustomerHandler_Create_DuplicateEmail(t *testing.T) {
	svc := new(MockCustomerService)
	svc.On("Create", mock.Anything, mock.Anything).
		Return(nil, shared.NewDomainError("ALREADY_EXISTS", "A customer with this email already exists"))

	w := doRequest(setupCustomerRouter(svc), http.MethodPost, "/api/v1/customers",
		`{"name":"Ada","email":"ada@analytical.test"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeAlreadyExists, decodeResponse(t, w).Error.Code)
}

func TestCustomerHandler_GetByID(t *testing.T) {
	customer := sampleCustomer()
	missing := uuid.New()

	tests := []struct {
		name       string
		path       string
		setup      func(*MockCustomerService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "found",
			path: "/api/v1/customers/" + customer.ID.String(),
			setup: func(m *MockCustomerService) {
				m.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not found",
			path: "/api/v1/customers/" + missing.String(),
			setup: func(m *MockCustomerService) {
				m.On("GetByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
		},
		{
			name:       "invalid id",
			path:       "/api/v1/customers/42",
			setup:      func(m *MockCustomerService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCustomerService)
			tt.setup(svc)

			w := doRequest(setupCustomerRouter(svc), http.MethodGet, tt.path, "")

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeResponse(t, w).Error.Code)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestCustomerHandler_List_DefaultsPagination(t *testing.T) {
	svc := new(MockCustomerService)
	customers := []partnerapp.CustomerResponse{*sampleCustomer(), *sampleCustomer()}
	svc.On("List", mock.Anything, partnerapp.CustomerListFilter{
		Search:   "ada",
		Page:     1,
		PageSize: 20,
	}).Return(customers, int64(2), nil)

	w := doRequest(setupCustomerRouter(svc), http.MethodGet, "/api/v1/customers?search=ada", "")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(2), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.TotalPages)
	assert.Len(t, resp.Data.([]any), 2)
	svc.AssertExpectations(t)
}

func TestCustomerHandler_List_InvalidQuery(t *testing.T) {
	svc := new(MockCustomerService)

	w := doRequest(setupCustomerRouter(svc), http.MethodGet, "/api/v1/customers?page_size=500&order_dir=sideways", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestCustomerHandler_Update(t *testing.T) {
	svc := new(MockCustomerService)
	customer := sampleCustomer()
	customer.City = "London"
	svc.On("Update", mock.Anything, customer.ID, mock.MatchedBy(func(req partnerapp.UpdateCustomerRequest) bool {
		return req.City != nil && *req.City == "London" && req.Name == nil
	})).Return(customer, nil)

	w := doRequest(setupCustomerRouter(svc), http.MethodPut, "/api/v1/customers/"+customer.ID.String(),
		`{"city":"London"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "London", decodeResponse(t, w).Data.(map[string]any)["city"])
	svc.AssertExpectations(t)
}

func TestCustomerHandler_Delete(t *testing.T) {
	withInvoices := uuid.New()
	deletable := uuid.New()

	svc := new(MockCustomerService)
	svc.On("Delete", mock.Anything, deletable).Return(nil)
	svc.On("Delete", mock.Anything, withInvoices).
		Return(shared.NewDomainError("CUSTOMER_HAS_INVOICES", "Customer has invoices and cannot be deleted"))
	r := setupCustomerRouter(svc)

	w := doRequest(r, http.MethodDelete, "/api/v1/customers/"+deletable.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = doRequest(r, http.MethodDelete, "/api/v1/customers/"+withInvoices.String(), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CUSTOMER_HAS_INVOICES", decodeResponse(t, w).Error.Code)

	svc.AssertExpectations(t)
}
