package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okalli/checkout-service/internal/domain"
	"github.com/shopspring/decimal"
)

// FakeGateway is an in-memory gateway used in dev environments where no
// Stripe key is configured. Every charge succeeds.
type FakeGateway struct {
	mu   sync.Mutex
	next int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (f *FakeGateway) CreateCustomer(ctx context.Context, email, description, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	return fmt.Sprintf("fake_cus_%d", f.next), nil
}

func (f *FakeGateway) UpdateCustomer(ctx context.Context, gatewayID, description, token string) error {
	return nil
}

func (f *FakeGateway) CardExpiry(ctx context.Context, gatewayID string) (domain.CardExpiry, error) {
	expiry := time.Now().AddDate(2, 0, 0)

	return domain.CardExpiry{
		Year:  expiry.Year(),
		Month: int(expiry.Month()),
	}, nil
}

func (f *FakeGateway) Charge(
	ctx context.Context,
	gatewayID string,
	amount decimal.Decimal,
	currency, description, reference string) error {

	return nil
}
