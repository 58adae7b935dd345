package mocks

import (
	"context"

	"github.com/okalli/checkout-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
	domain.Gateway
}

func (m *MockGateway) CreateCustomer(ctx context.Context, email, description, token string) (string, error) {
	args := m.Called(ctx, email, description, token)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) UpdateCustomer(ctx context.Context, gatewayID, description, token string) error {
	args := m.Called(ctx, gatewayID, description, token)
	return args.Error(0)
}

func (m *MockGateway) CardExpiry(ctx context.Context, gatewayID string) (domain.CardExpiry, error) {
	args := m.Called(ctx, gatewayID)
	return args.Get(0).(domain.CardExpiry), args.Error(1)
}

func (m *MockGateway) Charge(ctx context.Context, gatewayID string, amount decimal.Decimal, currency, description, reference string) error {
	args := m.Called(ctx, gatewayID, amount, currency, description, reference)
	return args.Error(0)
}
