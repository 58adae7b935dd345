package mocks

import (
	"context"

	"github.com/okalli/checkout-service/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPayablePlanRepo struct {
	mock.Mock
	domain.PayablePlanRepository
}

func (m *MockPayablePlanRepo) Create(ctx context.Context, plan *domain.PayablePlan, deposit *domain.Instalment) error {
	args := m.Called(ctx, plan, deposit)
	return args.Error(0)
}

func (m *MockPayablePlanRepo) GetById(ctx context.Context, id int64) (*domain.PayablePlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PayablePlan), args.Error(1)
}

func (m *MockPayablePlanRepo) GetByRef(ctx context.Context, ref domain.PayableRef) (*domain.PayablePlan, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PayablePlan), args.Error(1)
}

func (m *MockPayablePlanRepo) Outstanding(ctx context.Context) ([]domain.PayablePlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PayablePlan), args.Error(1)
}

func (m *MockPayablePlanRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
