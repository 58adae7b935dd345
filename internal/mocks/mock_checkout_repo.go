package mocks

import (
	"context"

	"github.com/okalli/checkout-service/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockCheckoutRepo struct {
	mock.Mock
	domain.CheckoutRepository
}

func (m *MockCheckoutRepo) Create(ctx context.Context, checkout *domain.Checkout) error {
	args := m.Called(ctx, checkout)
	return args.Error(0)
}

func (m *MockCheckoutRepo) GetById(ctx context.Context, id int64) (*domain.Checkout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Checkout), args.Error(1)
}

func (m *MockCheckoutRepo) SetCustomer(ctx context.Context, id, customerID int64) error {
	args := m.Called(ctx, id, customerID)
	return args.Error(0)
}

func (m *MockCheckoutRepo) SetState(ctx context.Context, id int64, state domain.CheckoutState) error {
	args := m.Called(ctx, id, state)
	return args.Error(0)
}

func (m *MockCheckoutRepo) Audit(ctx context.Context) ([]domain.Checkout, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Checkout), args.Error(1)
}

func (m *MockCheckoutRepo) CreateInvoiceDetail(ctx context.Context, detail *domain.InvoiceDetail) error {
	args := m.Called(ctx, detail)
	return args.Error(0)
}

func (m *MockCheckoutRepo) GetInvoiceDetail(ctx context.Context, checkoutID int64) (*domain.InvoiceDetail, error) {
	args := m.Called(ctx, checkoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceDetail), args.Error(1)
}
