package domain

import (
	"context"
	"time"
)

// Customer links an email address (and name) to a gateway customer record.
//
// Note: multiple users in the wider system may share an email address. If
// they have different names this table looks confusing; check the payable
// on the relevant Checkout row when diagnosing.
type Customer struct {
	ID        int64
	Name      string
	Email     string
	GatewayID string
	// ExpiryDate is the last day of the card's expiry month, or nil when
	// the expiry has never been fetched from the gateway.
	ExpiryDate *time.Time
	Refresh    bool
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// IsExpiring reports whether the card expires within one month of today,
// inclusive. A nil expiry date means the card has not expired.
func (c *Customer) IsExpiring(today time.Time) bool {
	if c.ExpiryDate == nil {
		return false
	}
	oneMonth := today.AddDate(0, 1, 0)
	return !c.ExpiryDate.After(oneMonth)
}

type CustomerRepository interface {
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	Create(ctx context.Context, customer *Customer) error
	Update(ctx context.Context, customer *Customer) error
	ListRefresh(ctx context.Context) ([]Customer, error)
}
