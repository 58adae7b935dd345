package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PayableRef identifies a payable entity for persistence: a registered type
// tag plus the entity's own id.
type PayableRef struct {
	Type string
	ID   int64
}

func (r PayableRef) String() string {
	return fmt.Sprintf("%s/%d", r.Type, r.ID)
}

// Payable is the capability the checkout core requires from any entity that
// owes money. Concrete implementations live with the owning feature and are
// resolved through the payable registry at read time.
type Payable interface {
	PayableRef() PayableRef

	CheckoutName() string
	CheckoutEmail() string
	CheckoutDescription() []string
	CheckoutTotal() decimal.Decimal

	// CheckoutActions lists the actions this payable offers. An empty list
	// means the payable is only ever charged directly, never interactively.
	CheckoutActions() []CheckoutAction

	// CheckoutCanCharge is the subject-specific precondition gate, checked
	// against a freshly loaded subject immediately before a charge.
	CheckoutCanCharge() bool

	// CheckoutSuccess and CheckoutFail run inside the same transaction as
	// the checkout state write, so the subject may persist its own
	// denormalized status.
	CheckoutSuccess(ctx context.Context, checkout *Checkout) error
	CheckoutFail(ctx context.Context) error

	CheckoutSuccessURL(checkoutID int64) string
	CheckoutFailURL(checkoutID int64) string
	AbsoluteURL() string
}

// Stateful is implemented by payables that track a checkout state of their
// own, such as plan instalments.
type Stateful interface {
	CheckoutState() CheckoutState
}

func (a CheckoutAction) OfferedBy(p Payable) bool {
	for _, action := range p.CheckoutActions() {
		if action == a {
			return true
		}
	}
	return false
}

// Actor is the identity performing a checkout operation. Background sweeps
// run as SystemActor, which is anonymous.
type Actor struct {
	ID    *int64
	Email string
	Staff bool
}

func (a Actor) Anonymous() bool {
	return a.ID == nil
}

var SystemActor = Actor{}
