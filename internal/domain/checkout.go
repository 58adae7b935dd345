package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CheckoutState string

const (
	CheckoutStateFail    CheckoutState = "fail"
	CheckoutStatePending CheckoutState = "pending"
	// CheckoutStateRequest marks an instalment claimed by a sweep just
	// before the charge attempt. The claim commits before the gateway call
	// so a crash mid-charge never leaves the row looking untouched.
	CheckoutStateRequest CheckoutState = "request"
	CheckoutStateSuccess CheckoutState = "success"
)

type CheckoutAction string

const (
	ActionCardRefresh CheckoutAction = "card_refresh"
	ActionCharge      CheckoutAction = "charge"
	ActionInvoice     CheckoutAction = "invoice"
	ActionManual      CheckoutAction = "manual"
	ActionPayment     CheckoutAction = "payment"
	ActionPaymentPlan CheckoutAction = "payment_plan"
)

// actionNames are the display captions used in notifications.
var actionNames = map[CheckoutAction]string{
	ActionCardRefresh: "Update Card",
	ActionCharge:      "Charge",
	ActionInvoice:     "Invoice",
	ActionManual:      "Record Manual Payment",
	ActionPayment:     "Payment",
	ActionPaymentPlan: "Setup Payment Plan",
}

// actionPayments maps each action to whether fulfilling it takes money
// through the gateway. Setting up a payment plan does not charge; the
// deposit instalment is charged through its own checkout.
var actionPayments = map[CheckoutAction]bool{
	ActionCardRefresh: false,
	ActionCharge:      true,
	ActionInvoice:     false,
	ActionManual:      false,
	ActionPayment:     true,
	ActionPaymentPlan: false,
}

func (a CheckoutAction) Valid() bool {
	_, ok := actionPayments[a]
	return ok
}

func (a CheckoutAction) RequiresPayment() bool {
	return actionPayments[a]
}

func (a CheckoutAction) Name() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return string(a)
}

// Checkout is one attempt to take money, or to record a non-monetary
// action, against a payable. Rows are never updated after the terminal
// state write and never deleted, so the table doubles as an audit log.
type Checkout struct {
	ID           int64
	Reference    string
	CheckoutDate time.Time
	Action       CheckoutAction
	CustomerID   *int64
	UserID       *int64
	State        CheckoutState
	Description  string
	Total        *decimal.Decimal
	Payable      PayableRef
	CreatedAt    time.Time
}

func (c *Checkout) Failed() bool {
	return c.State == CheckoutStateFail
}

// InvoiceDetail holds the billing address captured when a customer chooses
// to pay by invoice rather than by card.
type InvoiceDetail struct {
	ID          int64
	CheckoutID  int64
	CompanyName string `validate:"max=100"`
	Address1    string `validate:"max=100"`
	Address2    string `validate:"max=100"`
	Address3    string `validate:"max=100"`
	Town        string `validate:"max=100"`
	County      string `validate:"max=100"`
	Postcode    string `validate:"max=20"`
	Country     string `validate:"max=100"`
	ContactName string `validate:"max=100"`
	Email       string `validate:"required,email"`
	Phone       string `validate:"max=50"`
}

// Lines returns the non-empty address lines for display.
func (d *InvoiceDetail) Lines() []string {
	fields := []string{
		d.ContactName,
		d.CompanyName,
		d.Address1,
		d.Address2,
		d.Address3,
		d.Town,
		d.County,
		d.Postcode,
		d.Country,
		d.Email,
		d.Phone,
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			lines = append(lines, f)
		}
	}
	return lines
}

type CheckoutRepository interface {
	Create(ctx context.Context, checkout *Checkout) error
	GetById(ctx context.Context, id int64) (*Checkout, error)
	SetCustomer(ctx context.Context, id, customerID int64) error
	SetState(ctx context.Context, id int64, state CheckoutState) error
	Audit(ctx context.Context) ([]Checkout, error)
	CreateInvoiceDetail(ctx context.Context, detail *InvoiceDetail) error
	GetInvoiceDetail(ctx context.Context, checkoutID int64) (*InvoiceDetail, error)
}
