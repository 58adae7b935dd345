package payment

import (
	"context"
	"errors"

	"github.com/okalli/checkout-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/charge"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/paymentmethod"
)

// StripeGateway implements domain.Gateway against the Stripe API.
type StripeGateway struct{}

func NewStripeGateway(secretKey string) *StripeGateway {
	stripe.Key = secretKey

	return &StripeGateway{}
}

func (s *StripeGateway) CreateCustomer(ctx context.Context, email, description, token string) (string, error) {
	params := &stripe.CustomerParams{
		Email:       stripe.String(email),
		Description: stripe.String(description),
		Source:      stripe.String(token),
	}
	params.Context = ctx

	c, err := customer.New(params)
	if err != nil {
		return "", translateError(err)
	}

	return c.ID, nil
}

func (s *StripeGateway) UpdateCustomer(ctx context.Context, gatewayID, description, token string) error {
	params := &stripe.CustomerParams{
		Description: stripe.String(description),
		Source:      stripe.String(token),
	}
	params.Context = ctx

	_, err := customer.Update(gatewayID, params)
	if err != nil {
		return translateError(err)
	}

	return nil
}

// CardExpiry returns the expiry of the customer's default card, or the
// zero value when the customer has no card on file.
func (s *StripeGateway) CardExpiry(ctx context.Context, gatewayID string) (domain.CardExpiry, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(gatewayID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	params.Context = ctx

	iter := paymentmethod.List(params)
	for iter.Next() {
		pm := iter.PaymentMethod()
		if pm.Card == nil {
			continue
		}

		return domain.CardExpiry{
			Year:  int(pm.Card.ExpYear),
			Month: int(pm.Card.ExpMonth),
		}, nil
	}

	if err := iter.Err(); err != nil {
		return domain.CardExpiry{}, translateError(err)
	}

	return domain.CardExpiry{}, nil
}

func (s *StripeGateway) Charge(
	ctx context.Context,
	gatewayID string,
	amount decimal.Decimal,
	currency, description, reference string) error {

	params := &stripe.ChargeParams{
		Amount:      stripe.Int64(asMinorUnits(amount)),
		Currency:    stripe.String(currency),
		Customer:    stripe.String(gatewayID),
		Description: stripe.String(description),
	}
	params.Context = ctx
	params.AddMetadata("checkout_reference", reference)

	_, err := charge.New(params)
	if err != nil {
		return translateError(err)
	}

	return nil
}

// asMinorUnits converts a 2dp amount into the gateway's integer minor
// units, e.g. 10.50 GBP -> 1050 pennies.
func asMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// translateError maps Stripe's error taxonomy onto the domain's: card and
// request errors become a *domain.GatewayError carrying the diagnostic
// fields; transport and server-side failures become ErrGatewayUnavailable.
func translateError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return domain.ErrGatewayUnavailable
	}

	switch stripeErr.Type {
	case stripe.ErrorTypeAPI:
		return domain.ErrGatewayUnavailable
	default:
		return &domain.GatewayError{
			Code:        string(stripeErr.Code),
			DeclineCode: string(stripeErr.DeclineCode),
			Param:       stripeErr.Param,
			HTTPStatus:  stripeErr.HTTPStatusCode,
			Err:         err,
		}
	}
}
