package mocks

import (
	"context"
	"time"

	"github.com/okalli/checkout-service/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockInstalmentRepo struct {
	mock.Mock
	domain.InstalmentRepository
}

func (m *MockInstalmentRepo) GetById(ctx context.Context, id int64) (*domain.Instalment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Instalment), args.Error(1)
}

func (m *MockInstalmentRepo) ListByPlan(ctx context.Context, payablePlanID int64) ([]domain.Instalment, error) {
	args := m.Called(ctx, payablePlanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Instalment), args.Error(1)
}

func (m *MockInstalmentRepo) CreateBatch(ctx context.Context, instalments []domain.Instalment) error {
	args := m.Called(ctx, instalments)
	return args.Error(0)
}

func (m *MockInstalmentRepo) SetState(ctx context.Context, id int64, state domain.CheckoutState) error {
	args := m.Called(ctx, id, state)
	return args.Error(0)
}

func (m *MockInstalmentRepo) DueIds(ctx context.Context, today time.Time) ([]int64, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockInstalmentRepo) Claim(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockInstalmentRepo) RequeueStale(ctx context.Context, cutoff time.Time) ([]int64, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockInstalmentRepo) Retry(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
