package checkout

import (
	"context"
	"fmt"

	"github.com/okalli/checkout-service/internal/domain"
	"github.com/okalli/checkout-service/internal/payable"
	"github.com/shopspring/decimal"
)

// InstalmentPayableType tags instalments in the payable registry so the
// sweep can charge them like any other payable.
const InstalmentPayableType = "instalment"

// RegisterInstalmentPayable wires instalments into the given registry.
// Call once during startup, after the owning payable types are registered.
func (s *Service) RegisterInstalmentPayable(registry *payable.Registry) {
	registry.Register(InstalmentPayableType, s.loadInstalmentPayable)
}

func (s *Service) loadInstalmentPayable(ctx context.Context, id int64) (domain.Payable, error) {
	instalment, err := s.instalments.GetById(ctx, id)
	if err != nil {
		return nil, err
	}

	payablePlan, err := s.payablePlans.GetById(ctx, instalment.PayablePlanID)
	if err != nil {
		return nil, err
	}

	plan, err := s.plans.GetById(ctx, payablePlan.PlanID)
	if err != nil {
		return nil, err
	}

	owner, err := s.registry.Resolve(ctx, payablePlan.Payable)
	if err != nil {
		return nil, err
	}

	return &instalmentPayable{
		service:     s,
		instalment:  instalment,
		payablePlan: payablePlan,
		plan:        plan,
		owner:       owner,
	}, nil
}

// instalmentPayable adapts an instalment to the payable contract. Identity
// fields delegate to the payable that owns the plan; money and state come
// from the instalment itself.
type instalmentPayable struct {
	service     *Service
	instalment  *domain.Instalment
	payablePlan *domain.PayablePlan
	plan        *domain.PaymentPlan
	owner       domain.Payable
}

var (
	_ domain.Payable  = (*instalmentPayable)(nil)
	_ domain.Stateful = (*instalmentPayable)(nil)
)

func (p *instalmentPayable) PayableRef() domain.PayableRef {
	return domain.PayableRef{Type: InstalmentPayableType, ID: p.instalment.ID}
}

func (p *instalmentPayable) CheckoutName() string {
	return p.owner.CheckoutName()
}

func (p *instalmentPayable) CheckoutEmail() string {
	return p.owner.CheckoutEmail()
}

func (p *instalmentPayable) CheckoutDescription() []string {
	if p.instalment.Deposit {
		return []string{p.plan.Name, "Deposit"}
	}
	return []string{
		p.plan.Name,
		fmt.Sprintf("Instalment %d of %d", p.instalment.Count, p.plan.Count+1),
	}
}

func (p *instalmentPayable) CheckoutTotal() decimal.Decimal {
	return p.instalment.Amount
}

// CheckoutActions is empty: instalments are charged directly by staff or
// the sweep, never through an interactive checkout.
func (p *instalmentPayable) CheckoutActions() []domain.CheckoutAction {
	return nil
}

// CheckoutCanCharge requires the instalment to be due. The deposit is
// charged from pending; a scheduled instalment must have been claimed by a
// sweep first, so it is charged from request.
func (p *instalmentPayable) CheckoutCanCharge() bool {
	if p.instalment.Due.After(p.service.today()) {
		return false
	}

	if p.instalment.Deposit {
		return p.instalment.State == domain.CheckoutStatePending
	}

	return p.instalment.State == domain.CheckoutStateRequest
}

func (p *instalmentPayable) CheckoutState() domain.CheckoutState {
	return p.instalment.State
}

// CheckoutSuccess records the instalment as paid. A cleared deposit also
// triggers generation of the remaining schedule. The owning payable is
// notified last so it can update its own status.
func (p *instalmentPayable) CheckoutSuccess(ctx context.Context, checkout *domain.Checkout) error {
	if err := p.service.instalments.SetState(ctx, p.instalment.ID, domain.CheckoutStateSuccess); err != nil {
		return err
	}
	p.instalment.State = domain.CheckoutStateSuccess

	if p.instalment.Deposit {
		if err := p.service.CreateInstalments(ctx, p.payablePlan.ID); err != nil {
			return err
		}
	}

	return p.owner.CheckoutSuccess(ctx, checkout)
}

func (p *instalmentPayable) CheckoutFail(ctx context.Context) error {
	if err := p.service.instalments.SetState(ctx, p.instalment.ID, domain.CheckoutStateFail); err != nil {
		return err
	}
	p.instalment.State = domain.CheckoutStateFail

	return p.owner.CheckoutFail(ctx)
}

func (p *instalmentPayable) CheckoutSuccessURL(checkoutID int64) string {
	return p.owner.CheckoutSuccessURL(checkoutID)
}

func (p *instalmentPayable) CheckoutFailURL(checkoutID int64) string {
	return p.owner.CheckoutFailURL(checkoutID)
}

func (p *instalmentPayable) AbsoluteURL() string {
	return p.owner.AbsoluteURL()
}
