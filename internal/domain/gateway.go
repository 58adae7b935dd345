package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type CardExpiry struct {
	Year  int
	Month int
}

// Gateway is the external card-processing service. Charge failures are
// reported as *GatewayError (declined) or ErrGatewayUnavailable (transient
// infrastructure failure).
type Gateway interface {
	CreateCustomer(ctx context.Context, email, description, token string) (string, error)
	UpdateCustomer(ctx context.Context, gatewayID, description, token string) error
	CardExpiry(ctx context.Context, gatewayID string) (CardExpiry, error)
	Charge(ctx context.Context, gatewayID string, amount decimal.Decimal, currency, description, reference string) error
}
