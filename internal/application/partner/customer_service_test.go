package partner

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mocks
// =============================================================================

// MockCustomerRepository is a testify mock of partner.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

// found unpacks a (*T, error) pair recorded with Return
func found[T any](args mock.Arguments) (*T, error) {
	v, _ := args.Get(0).(*T)
	return v, args.Error(1)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return found[partner.Customer](m.Called(ctx, id))
}

func (m *MockCustomerRepository) FindByEmail(ctx context.Context, email string) (*partner.Customer, error) {
	return found[partner.Customer](m.Called(ctx, email))
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Customer, error) {
	args := m.Called(ctx, filter)
	customers, _ := args.Get(0).([]partner.Customer)
	return customers, args.Error(1)
}

func (m *MockCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockInvoiceCounter is a mock implementation of InvoiceCounter
type MockInvoiceCounter struct {
	mock.Mock
}

func (m *MockInvoiceCounter) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

// recordingPublisher collects published events
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// =============================================================================
// Helpers
// =============================================================================

func newTestCustomer(t *testing.T) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer("Jane Doe", "jane@example.com")
	require.NoError(t, err)
	c.ClearEvents()
	return c
}

func newTestService() (*CustomerService, *MockCustomerRepository, *MockInvoiceCounter, *recordingPublisher) {
	repo := new(MockCustomerRepository)
	counter := new(MockInvoiceCounter)
	publisher := &recordingPublisher{}
	service := NewCustomerService(repo, counter)
	service.SetEventPublisher(publisher)
	return service, repo, counter, publisher
}

func strPtr(s string) *string { return &s }

// =============================================================================
// Tests
// =============================================================================

func TestCustomerService_Create_Success(t *testing.T) {
	service, repo, _, publisher := newTestService()
	ctx := context.Background()

	req := CreateCustomerRequest{
		Name:    "Jane Doe",
		Email:   "Jane@Example.com",
		Company: "Acme Ltd",
		Phone:   "+44 20 7946 0958",
		City:    "London",
		Country: "UK",
	}

	repo.On("ExistsByEmail", ctx, "jane@example.com").Return(false, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*partner.Customer")).Return(nil)

	result, err := service.Create(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", result.Name)
	assert.Equal(t, "jane@example.com", result.Email)
	assert.Equal(t, "Acme Ltd", result.DisplayName)
	assert.Equal(t, "London, UK", result.FullAddress)
	assert.Equal(t, []string{partner.EventTypeCustomerCreated}, publisher.types())
	repo.AssertExpectations(t)
}

func TestCustomerService_Create_DuplicateEmail(t *testing.T) {
	service, repo, _, publisher := newTestService()
	ctx := context.Background()

	repo.On("ExistsByEmail", ctx, "jane@example.com").Return(true, nil)

	result, err := service.Create(ctx, CreateCustomerRequest{Name: "Jane", Email: "jane@example.com"})

	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	assert.Empty(t, publisher.events)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCustomerService_Create_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  CreateCustomerRequest
		code string
	}{
		{"empty name", CreateCustomerRequest{Name: "  ", Email: "a@example.com"}, "INVALID_NAME"},
		{"bad email", CreateCustomerRequest{Name: "A", Email: "not-an-email"}, "INVALID_EMAIL"},
		{"bad phone", CreateCustomerRequest{Name: "A", Email: "a@example.com", Phone: "call me"}, "INVALID_PHONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _, _ := newTestService()
			repo.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)

			_, err := service.Create(context.Background(), tt.req)

			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.code, domainErr.Code)
			repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestCustomerService_GetByID(t *testing.T) {
	service, repo, _, _ := newTestService()
	ctx := context.Background()
	customer := newTestCustomer(t)
	missing := uuid.New()

	repo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	repo.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)

	result, err := service.GetByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, result.ID)

	_, err = service.GetByID(ctx, missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCustomerService_List_AppliesDefaultsAndCountryFilter(t *testing.T) {
	service, repo, _, _ := newTestService()
	ctx := context.Background()
	customer := newTestCustomer(t)

	expected := shared.Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "name",
		OrderDir: "asc",
		Search:   "jane",
		Filters:  map[string]any{"country": "UK"},
	}
	repo.On("FindAll", ctx, expected).Return([]partner.Customer{*customer}, nil)
	repo.On("Count", ctx, expected).Return(int64(1), nil)

	items, total, err := service.List(ctx, CustomerListFilter{Search: "jane", Country: "UK"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, customer.Email, items[0].Email)
}

func TestCustomerService_List_RepositoryError(t *testing.T) {
	service, repo, _, _ := newTestService()
	repo.On("FindAll", mock.Anything, mock.Anything).Return([]partner.Customer(nil), errors.New("db down"))

	_, _, err := service.List(context.Background(), CustomerListFilter{})
	assert.EqualError(t, err, "db down")
}

func TestCustomerService_Update_Success(t *testing.T) {
	service, repo, _, publisher := newTestService()
	ctx := context.Background()
	customer := newTestCustomer(t)

	repo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	repo.On("ExistsByEmail", ctx, "jane.doe@example.com").Return(false, nil)
	repo.On("Save", ctx, customer).Return(nil)

	result, err := service.Update(ctx, customer.ID, UpdateCustomerRequest{
		Email:   strPtr("Jane.Doe@example.com"),
		City:    strPtr("Leeds"),
		Country: strPtr("UK"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", result.Name)
	assert.Equal(t, "jane.doe@example.com", result.Email)
	assert.Equal(t, "Leeds", result.City)
	assert.Equal(t, []string{partner.EventTypeCustomerUpdated}, publisher.types())
	repo.AssertExpectations(t)
}

func TestCustomerService_Update_SameEmailSkipsUniquenessCheck(t *testing.T) {
	service, repo, _, _ := newTestService()
	ctx := context.Background()
	customer := newTestCustomer(t)

	repo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	repo.On("Save", ctx, customer).Return(nil)

	_, err := service.Update(ctx, customer.ID, UpdateCustomerRequest{Email: strPtr("JANE@example.com")})

	require.NoError(t, err)
	repo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
}

func TestCustomerService_Update_DuplicateEmail(t *testing.T) {
	service, repo, _, _ := newTestService()
	ctx := context.Background()
	customer := newTestCustomer(t)

	repo.On("FindByID", ctx, customer.ID).Return(customer, nil)
	repo.On("ExistsByEmail", ctx, "taken@example.com").Return(true, nil)

	_, err := service.Update(ctx, customer.ID, UpdateCustomerRequest{Email: strPtr("taken@example.com")})

	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCustomerService_Delete(t *testing.T) {
	t.Run("deletes customer without invoices", func(t *testing.T) {
		service, repo, counter, publisher := newTestService()
		ctx := context.Background()
		customer := newTestCustomer(t)

		repo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		counter.On("CountByCustomer", ctx, customer.ID).Return(int64(0), nil)
		repo.On("Delete", ctx, customer.ID).Return(nil)

		require.NoError(t, service.Delete(ctx, customer.ID))
		assert.Equal(t, []string{partner.EventTypeCustomerDeleted}, publisher.types())
		repo.AssertExpectations(t)
	})

	t.Run("refuses customer with invoices", func(t *testing.T) {
		service, repo, counter, publisher := newTestService()
		ctx := context.Background()
		customer := newTestCustomer(t)

		repo.On("FindByID", ctx, customer.ID).Return(customer, nil)
		counter.On("CountByCustomer", ctx, customer.ID).Return(int64(3), nil)

		err := service.Delete(ctx, customer.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CUSTOMER_HAS_INVOICES", domainErr.Code)
		assert.Empty(t, publisher.events)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		service, repo, counter, _ := newTestService()
		id := uuid.New()
		repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		assert.ErrorIs(t, service.Delete(context.Background(), id), shared.ErrNotFound)
		counter.AssertNotCalled(t, "CountByCustomer", mock.Anything, mock.Anything)
	})
}
