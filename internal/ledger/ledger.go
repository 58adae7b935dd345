// Package ledger is a minimal built-in receivable: one row per amount
// owed, charged through the checkout flows. It doubles as the reference
// implementation of the payable contract for services that embed their
// own payable types.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/okalli/checkout-service/internal/domain"
	"github.com/okalli/checkout-service/internal/payable"
	"github.com/shopspring/decimal"
)

const PayableType = "ledger"

// Entry is one receivable. State mirrors the outcome of the latest
// checkout against it.
type Entry struct {
	ID          int64
	Name        string
	Email       string
	Description string
	Total       decimal.Decimal
	State       domain.CheckoutState
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetById(ctx context.Context, id int64) (*Entry, error)
	SetState(ctx context.Context, id int64, state domain.CheckoutState) error
}

// Register wires ledger entries into the payable registry.
func Register(registry *payable.Registry, repo Repository) {
	registry.Register(PayableType, func(ctx context.Context, id int64) (domain.Payable, error) {
		entry, err := repo.GetById(ctx, id)
		if err != nil {
			return nil, err
		}

		return &entryPayable{repo: repo, entry: entry}, nil
	})
}

type entryPayable struct {
	repo  Repository
	entry *Entry
}

var (
	_ domain.Payable  = (*entryPayable)(nil)
	_ domain.Stateful = (*entryPayable)(nil)
)

func (p *entryPayable) PayableRef() domain.PayableRef {
	return domain.PayableRef{Type: PayableType, ID: p.entry.ID}
}

func (p *entryPayable) CheckoutName() string  { return p.entry.Name }
func (p *entryPayable) CheckoutEmail() string { return p.entry.Email }

func (p *entryPayable) CheckoutDescription() []string {
	return []string{p.entry.Description}
}

func (p *entryPayable) CheckoutTotal() decimal.Decimal { return p.entry.Total }

func (p *entryPayable) CheckoutActions() []domain.CheckoutAction {
	return []domain.CheckoutAction{
		domain.ActionPayment,
		domain.ActionPaymentPlan,
		domain.ActionInvoice,
		domain.ActionCardRefresh,
	}
}

func (p *entryPayable) CheckoutCanCharge() bool {
	return p.entry.State != domain.CheckoutStateSuccess
}

func (p *entryPayable) CheckoutState() domain.CheckoutState {
	return p.entry.State
}

func (p *entryPayable) CheckoutSuccess(ctx context.Context, checkout *domain.Checkout) error {
	if err := p.repo.SetState(ctx, p.entry.ID, domain.CheckoutStateSuccess); err != nil {
		return err
	}
	p.entry.State = domain.CheckoutStateSuccess
	return nil
}

func (p *entryPayable) CheckoutFail(ctx context.Context) error {
	if err := p.repo.SetState(ctx, p.entry.ID, domain.CheckoutStateFail); err != nil {
		return err
	}
	p.entry.State = domain.CheckoutStateFail
	return nil
}

func (p *entryPayable) CheckoutSuccessURL(checkoutID int64) string {
	return fmt.Sprintf("/ledger/%d/paid", p.entry.ID)
}

func (p *entryPayable) CheckoutFailURL(checkoutID int64) string {
	return fmt.Sprintf("/ledger/%d/declined", p.entry.ID)
}

func (p *entryPayable) AbsoluteURL() string {
	return fmt.Sprintf("/ledger/%d", p.entry.ID)
}
