package mocks

import (
	"context"

	"github.com/okalli/checkout-service/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentPlanRepo struct {
	mock.Mock
	domain.PaymentPlanRepository
}

func (m *MockPaymentPlanRepo) Create(ctx context.Context, plan *domain.PaymentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPaymentPlanRepo) GetBySlug(ctx context.Context, slug string) (*domain.PaymentPlan, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentPlan), args.Error(1)
}

func (m *MockPaymentPlanRepo) GetById(ctx context.Context, id int64) (*domain.PaymentPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentPlan), args.Error(1)
}

func (m *MockPaymentPlanRepo) Update(ctx context.Context, plan *domain.PaymentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPaymentPlanRepo) Delete(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

func (m *MockPaymentPlanRepo) Current(ctx context.Context) ([]domain.PaymentPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentPlan), args.Error(1)
}

func (m *MockPaymentPlanRepo) InUse(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
