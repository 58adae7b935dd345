// Package checkout coordinates gateway calls with local state transitions:
// one-off payments, pay-by-invoice, card refresh and multi-instalment
// payment plans.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okalli/checkout-service/internal/domain"
	"github.com/okalli/checkout-service/internal/mailer"
	"github.com/okalli/checkout-service/internal/payable"
	"github.com/shopspring/decimal"
)

const (
	TemplateCheckoutNotification = "checkout_notification.tmpl"
	TemplateCardExpiry           = "customer_card_expiry.tmpl"
	TemplateStaleInstalments     = "stale_instalments.tmpl"
)

type Service struct {
	logger       *slog.Logger
	tx           domain.TxRunner
	customers    domain.CustomerRepository
	checkouts    domain.CheckoutRepository
	plans        domain.PaymentPlanRepository
	payablePlans domain.PayablePlanRepository
	instalments  domain.InstalmentRepository
	gateway      domain.Gateway
	mailer       mailer.Mailer
	registry     *payable.Registry
	currency     string
	notifyEmails []string
	now          func() time.Time
}

type ServiceConfig struct {
	Logger       *slog.Logger
	Tx           domain.TxRunner
	Customers    domain.CustomerRepository
	Checkouts    domain.CheckoutRepository
	Plans        domain.PaymentPlanRepository
	PayablePlans domain.PayablePlanRepository
	Instalments  domain.InstalmentRepository
	Gateway      domain.Gateway
	Mailer       mailer.Mailer
	Registry     *payable.Registry
	Currency     string
	// NotifyEmails receive a notification for every checkout outcome. An
	// empty list is logged as an error on each notify, not treated as a
	// hard failure.
	NotifyEmails []string
	Now          func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		logger:       cfg.Logger,
		tx:           cfg.Tx,
		customers:    cfg.Customers,
		checkouts:    cfg.Checkouts,
		plans:        cfg.Plans,
		payablePlans: cfg.PayablePlans,
		instalments:  cfg.Instalments,
		gateway:      cfg.Gateway,
		mailer:       cfg.Mailer,
		registry:     cfg.Registry,
		currency:     cfg.Currency,
		notifyEmails: cfg.NotifyEmails,
		now:          now,
	}
}

// InitCustomer binds the payable's email identity to a gateway customer.
// An existing customer gets the new card token and name, and the card
// refresh flag is cleared; otherwise a gateway customer is created along
// with the local row.
func (s *Service) InitCustomer(ctx context.Context, subject domain.Payable, token string) (*domain.Customer, error) {
	name := subject.CheckoutName()
	email := subject.CheckoutEmail()

	customer, err := s.customers.GetByEmail(ctx, email)
	if err == nil {
		customer.Name = name
		customer.Refresh = false

		if err = s.customers.Update(ctx, customer); err != nil {
			return nil, err
		}

		if err = s.gateway.UpdateCustomer(ctx, customer.GatewayID, name, token); err != nil {
			return nil, fmt.Errorf("updating gateway customer %q: %w", email, err)
		}

		return customer, nil
	}

	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	gatewayID, err := s.gateway.CreateCustomer(ctx, email, name, token)
	if err != nil {
		return nil, fmt.Errorf("creating gateway customer %q: %w", email, err)
	}

	customer = &domain.Customer{
		Name:      name,
		Email:     email,
		GatewayID: gatewayID,
	}
	if err = s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

// UpdateCardExpiry fetches the card expiry from the gateway and stores it
// as the last day of the expiry month. When the card moves into its final
// month the refresh flag is raised and the customer is emailed.
func (s *Service) UpdateCardExpiry(ctx context.Context, email string) error {
	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil
		}

		return err
	}

	expiry, err := s.gateway.CardExpiry(ctx, customer.GatewayID)
	if err != nil {
		return err
	}
	if expiry.Year == 0 || expiry.Month == 0 {
		return nil
	}

	// last day of the expiry month
	lastDay := time.Date(expiry.Year, time.Month(expiry.Month), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, -1)
	customer.ExpiryDate = &lastDay

	isExpiring := customer.IsExpiring(s.today())
	flagChanged := customer.Refresh != isExpiring
	customer.Refresh = isExpiring

	if err = s.customers.Update(ctx, customer); err != nil {
		return err
	}

	if flagChanged && isExpiring {
		data := map[string]any{
			"Name":   customer.Name,
			"Expiry": lastDay.Format("January 2006"),
		}
		if err = s.mailer.Send(customer.Email, TemplateCardExpiry, data); err != nil {
			s.logger.Error("failed to send card expiry email", "email", customer.Email, "error", err)
		}
	}

	return nil
}

// RefreshCardExpiryDates refreshes the stored card expiry for every
// customer with an outstanding payment plan.
func (s *Service) RefreshCardExpiryDates(ctx context.Context) error {
	plans, err := s.payablePlans.Outstanding(ctx)
	if err != nil {
		return err
	}

	for _, plan := range plans {
		subject, err := s.registry.Resolve(ctx, plan.Payable)
		if err != nil {
			s.logger.Error("cannot resolve payable for card expiry refresh",
				"payable", plan.Payable.String(), "error", err)
			continue
		}

		if err = s.UpdateCardExpiry(ctx, subject.CheckoutEmail()); err != nil {
			s.logger.Error("cannot refresh card expiry",
				"email", subject.CheckoutEmail(), "error", err)
		}
	}

	return nil
}

// Charge collects money for a payable that already has a registered card.
// Only staff, or the anonymous system actor used by background sweeps, may
// charge on behalf of another identity. Gateway failures are converted
// into a failed checkout; the caller never sees the raw gateway error.
func (s *Service) Charge(ctx context.Context, ref domain.PayableRef, actor domain.Actor) (*domain.Checkout, error) {
	if !actor.Staff && !actor.Anonymous() {
		return nil, domain.ErrNotAuthorized
	}

	subject, err := s.registry.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !subject.CheckoutCanCharge() {
		return nil, domain.ErrCannotCharge
	}

	customer, err := s.customers.GetByEmail(ctx, subject.CheckoutEmail())
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", domain.ErrNotRegistered, subject.CheckoutEmail())
		}

		return nil, err
	}

	checkout, err := s.createCheckout(ctx, domain.ActionCharge, subject, actor)
	if err != nil {
		return nil, err
	}

	if err = s.attachCustomer(ctx, checkout, customer); err != nil {
		return nil, err
	}

	return s.attempt(ctx, checkout, subject, customer)
}

// Pay takes a payment for the current user, capturing their card token.
// A logged-in user may only pay for a payable matching their own email;
// anonymous checkouts are allowed.
func (s *Service) Pay(ctx context.Context, ref domain.PayableRef, actor domain.Actor, token string) (*domain.Checkout, error) {
	subject, err := s.interactiveSubject(ctx, ref, domain.ActionPayment)
	if err != nil {
		return nil, err
	}

	if !actor.Anonymous() && !strings.EqualFold(actor.Email, subject.CheckoutEmail()) {
		return nil, domain.ErrNotAuthorized
	}

	checkout, err := s.createCheckout(ctx, domain.ActionPayment, subject, actor)
	if err != nil {
		return nil, err
	}

	customer, err := s.InitCustomer(ctx, subject, token)
	if err != nil {
		return s.abort(ctx, checkout, subject, err)
	}

	if err = s.attachCustomer(ctx, checkout, customer); err != nil {
		return nil, err
	}

	return s.attempt(ctx, checkout, subject, customer)
}

// CardRefresh captures fresh card details without taking a payment.
func (s *Service) CardRefresh(ctx context.Context, ref domain.PayableRef, actor domain.Actor, token string) (*domain.Checkout, error) {
	subject, err := s.interactiveSubject(ctx, ref, domain.ActionCardRefresh)
	if err != nil {
		return nil, err
	}

	checkout, err := s.createCheckout(ctx, domain.ActionCardRefresh, subject, actor)
	if err != nil {
		return nil, err
	}

	customer, err := s.InitCustomer(ctx, subject, token)
	if err != nil {
		return s.abort(ctx, checkout, subject, err)
	}

	if err = s.attachCustomer(ctx, checkout, customer); err != nil {
		return nil, err
	}

	if err = s.success(ctx, checkout, subject); err != nil {
		return nil, err
	}

	return checkout, nil
}

// Invoice records a pay-by-invoice checkout along with the billing
// details. No gateway interaction takes place.
func (s *Service) Invoice(ctx context.Context, ref domain.PayableRef, actor domain.Actor, detail *domain.InvoiceDetail) (*domain.Checkout, error) {
	subject, err := s.interactiveSubject(ctx, ref, domain.ActionInvoice)
	if err != nil {
		return nil, err
	}

	checkout, err := s.createCheckout(ctx, domain.ActionInvoice, subject, actor)
	if err != nil {
		return nil, err
	}

	detail.CheckoutID = checkout.ID
	if err = s.checkouts.CreateInvoiceDetail(ctx, detail); err != nil {
		return nil, err
	}

	if err = s.success(ctx, checkout, subject); err != nil {
		return nil, err
	}

	return checkout, nil
}

// Manual marks a transaction as paid without a gateway call, e.g. when a
// cheque arrives. Staff only.
func (s *Service) Manual(ctx context.Context, ref domain.PayableRef, actor domain.Actor) (*domain.Checkout, error) {
	if !actor.Staff {
		return nil, domain.ErrNotAuthorized
	}

	subject, err := s.registry.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if stateful, ok := subject.(domain.Stateful); ok {
		switch stateful.CheckoutState() {
		case domain.CheckoutStateFail, domain.CheckoutStatePending, domain.CheckoutStateRequest:
		default:
			return nil, domain.ErrCannotCharge
		}
	}

	checkout, err := s.createCheckout(ctx, domain.ActionManual, subject, actor)
	if err != nil {
		return nil, err
	}

	if err = s.success(ctx, checkout, subject); err != nil {
		return nil, err
	}

	return checkout, nil
}

// SetUpPaymentPlan binds a plan definition to the payable, captures the
// card, and creates the deposit instalment due today. The deposit itself
// is charged separately; the remaining instalments are generated only once
// the deposit clears.
func (s *Service) SetUpPaymentPlan(
	ctx context.Context,
	ref domain.PayableRef,
	actor domain.Actor,
	planSlug, token string) (*domain.Checkout, error) {

	subject, err := s.interactiveSubject(ctx, ref, domain.ActionPaymentPlan)
	if err != nil {
		return nil, err
	}

	plan, err := s.plans.GetBySlug(ctx, planSlug)
	if err != nil {
		return nil, err
	}
	if plan.Deleted {
		return nil, domain.ErrRecordNotFound
	}

	total := subject.CheckoutTotal()
	payablePlan := &domain.PayablePlan{
		Payable: subject.PayableRef(),
		PlanID:  plan.ID,
		Total:   total,
	}
	deposit := &domain.Instalment{
		Count:   1,
		State:   domain.CheckoutStatePending,
		Deposit: true,
		Amount:  plan.DepositAmount(total),
		Due:     s.today(),
	}

	if err = s.payablePlans.Create(ctx, payablePlan, deposit); err != nil {
		return nil, err
	}

	checkout, err := s.createCheckout(ctx, domain.ActionPaymentPlan, subject, actor)
	if err != nil {
		return nil, err
	}

	customer, err := s.InitCustomer(ctx, subject, token)
	if err != nil {
		return s.abort(ctx, checkout, subject, err)
	}

	if err = s.attachCustomer(ctx, checkout, customer); err != nil {
		return nil, err
	}

	if err = s.success(ctx, checkout, subject); err != nil {
		return nil, err
	}

	return checkout, nil
}

// ChargeDeposit charges the deposit instalment for the payable's plan.
// Staff or the anonymous system actor only, same as any direct charge.
func (s *Service) ChargeDeposit(ctx context.Context, ref domain.PayableRef, actor domain.Actor) (*domain.Checkout, error) {
	payablePlan, err := s.payablePlans.GetByRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	instalments, err := s.instalments.ListByPlan(ctx, payablePlan.ID)
	if err != nil {
		return nil, err
	}

	if _, err = checkCreateInstalments(payablePlan.ID, instalments); err != nil {
		return nil, err
	}

	deposit := instalments[0]

	return s.Charge(ctx, domain.PayableRef{Type: InstalmentPayableType, ID: deposit.ID}, actor)
}

// CreateInstalments materializes the amortization schedule for a payable
// plan. It may run exactly once, and only while the single deposit row
// exists; anything else is corrupt data and aborts with an InvariantError
// before any row is written.
func (s *Service) CreateInstalments(ctx context.Context, payablePlanID int64) error {
	payablePlan, err := s.payablePlans.GetById(ctx, payablePlanID)
	if err != nil {
		return err
	}

	existing, err := s.instalments.ListByPlan(ctx, payablePlanID)
	if err != nil {
		return err
	}

	depositDue, err := checkCreateInstalments(payablePlanID, existing)
	if err != nil {
		return err
	}

	plan, err := s.plans.GetById(ctx, payablePlan.PlanID)
	if err != nil {
		return err
	}

	schedule := plan.Instalments(depositDue, payablePlan.Total)

	instalments := make([]domain.Instalment, len(schedule))
	for i, scheduled := range schedule {
		instalments[i] = domain.Instalment{
			PayablePlanID: payablePlanID,
			Count:         i + 2,
			State:         domain.CheckoutStatePending,
			Deposit:       false,
			Amount:        scheduled.Amount,
			Due:           scheduled.Due,
		}
	}

	return s.instalments.CreateBatch(ctx, instalments)
}

// checkCreateInstalments verifies the plan holds exactly one instalment
// row and that it is the deposit, returning the deposit's due date which
// seeds the schedule.
func checkCreateInstalments(payablePlanID int64, instalments []domain.Instalment) (time.Time, error) {
	switch {
	case len(instalments) == 0:
		return time.Time{}, domain.Invariantf(
			"no deposit/instalment record set up for payment plan '%d'", payablePlanID)
	case len(instalments) > 1:
		return time.Time{}, domain.Invariantf(
			"instalments already created for this payment plan '%d'", payablePlanID)
	case !instalments[0].Deposit:
		return time.Time{}, domain.Invariantf(
			"no deposit record for payment plan '%d'", payablePlanID)
	}

	return instalments[0].Due, nil
}

// PlanExample returns the schedule a plan would produce for the given
// total, deposit first, for display before the customer commits. A zero
// due date means the deposit would be due today.
func (s *Service) PlanExample(ctx context.Context, planSlug string, total decimal.Decimal, due time.Time) ([]domain.ScheduledPayment, error) {
	plan, err := s.plans.GetBySlug(ctx, planSlug)
	if err != nil {
		return nil, err
	}
	if plan.Deleted {
		return nil, domain.ErrRecordNotFound
	}

	if due.IsZero() {
		due = s.today()
	}

	return plan.Example(due, total), nil
}

func (s *Service) interactiveSubject(ctx context.Context, ref domain.PayableRef, action domain.CheckoutAction) (domain.Payable, error) {
	subject, err := s.registry.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !action.OfferedBy(subject) {
		return nil, domain.ErrActionNotOffered
	}

	if !subject.CheckoutCanCharge() {
		return nil, domain.ErrCannotCharge
	}

	return subject, nil
}

// createCheckout snapshots the description and total off the subject; the
// checkout must remain a receipt of what was believed true at attempt
// time, even if the subject changes afterwards.
func (s *Service) createCheckout(
	ctx context.Context,
	action domain.CheckoutAction,
	subject domain.Payable,
	actor domain.Actor) (*domain.Checkout, error) {

	var total *decimal.Decimal
	if action != domain.ActionCardRefresh {
		t := subject.CheckoutTotal()
		total = &t
	}

	checkout := &domain.Checkout{
		Reference:    uuid.NewString(),
		CheckoutDate: s.now(),
		Action:       action,
		UserID:       actor.ID,
		State:        domain.CheckoutStatePending,
		Description:  strings.Join(subject.CheckoutDescription(), ", "),
		Total:        total,
		Payable:      subject.PayableRef(),
	}

	if err := s.checkouts.Create(ctx, checkout); err != nil {
		return nil, err
	}

	return checkout, nil
}

func (s *Service) attachCustomer(ctx context.Context, checkout *domain.Checkout, customer *domain.Customer) error {
	if err := s.checkouts.SetCustomer(ctx, checkout.ID, customer.ID); err != nil {
		return err
	}

	checkout.CustomerID = &customer.ID
	return nil
}

// attempt performs the gateway charge and commits the resulting terminal
// transition. Gateway failures of any kind become a failed checkout; the
// taxonomy only changes what gets logged.
func (s *Service) attempt(ctx context.Context, checkout *domain.Checkout, subject domain.Payable, customer *domain.Customer) (*domain.Checkout, error) {
	err := s.performCharge(ctx, checkout, customer)
	if err != nil {
		return s.abort(ctx, checkout, subject, err)
	}

	if err = s.success(ctx, checkout, subject); err != nil {
		return nil, err
	}

	return checkout, nil
}

func (s *Service) performCharge(ctx context.Context, checkout *domain.Checkout, customer *domain.Customer) error {
	if !checkout.Action.RequiresPayment() {
		return nil
	}

	if checkout.Total == nil {
		return domain.ErrCannotCharge
	}

	return s.gateway.Charge(
		ctx,
		customer.GatewayID,
		*checkout.Total,
		s.currency,
		checkout.Description,
		checkout.Reference,
	)
}

// abort logs the failure with its full diagnostic detail, marks the
// checkout failed and notifies. The original error is not returned; the
// failed checkout is the outcome.
func (s *Service) abort(ctx context.Context, checkout *domain.Checkout, subject domain.Payable, cause error) (*domain.Checkout, error) {
	var gatewayErr *domain.GatewayError
	switch {
	case errors.As(cause, &gatewayErr):
		s.logger.Error("card declined",
			"checkout", checkout.ID,
			"payable", checkout.Payable.String(),
			"code", gatewayErr.Code,
			"decline_code", gatewayErr.DeclineCode,
			"param", gatewayErr.Param,
			"http_status", gatewayErr.HTTPStatus,
		)
	case errors.Is(cause, domain.ErrGatewayUnavailable):
		s.logger.Error("payment gateway unavailable",
			"checkout", checkout.ID,
			"payable", checkout.Payable.String(),
		)
	default:
		s.logger.Error("checkout attempt failed",
			"checkout", checkout.ID,
			"payable", checkout.Payable.String(),
			"error", cause,
		)
	}

	if err := s.fail(ctx, checkout, subject); err != nil {
		return nil, err
	}

	return checkout, nil
}

// success commits the terminal state write together with the subject's
// success callback: either the checkout, the subject and any instalment
// schedule all record the payment, or none of them do. Notification only
// goes out once the unit has committed.
func (s *Service) success(ctx context.Context, checkout *domain.Checkout, subject domain.Payable) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.checkouts.SetState(ctx, checkout.ID, domain.CheckoutStateSuccess); err != nil {
			return err
		}

		return subject.CheckoutSuccess(ctx, checkout)
	})
	if err != nil {
		return err
	}
	checkout.State = domain.CheckoutStateSuccess

	s.notify(checkout, subject)
	return nil
}

func (s *Service) fail(ctx context.Context, checkout *domain.Checkout, subject domain.Payable) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.checkouts.SetState(ctx, checkout.ID, domain.CheckoutStateFail); err != nil {
			return err
		}

		return subject.CheckoutFail(ctx)
	})
	if err != nil {
		return err
	}
	checkout.State = domain.CheckoutStateFail

	s.notify(checkout, subject)
	return nil
}

// notify emails the configured admin addresses with the checkout outcome.
// Missing configuration is an operator error worth logging, never a reason
// to fail the checkout itself.
func (s *Service) notify(checkout *domain.Checkout, subject domain.Payable) {
	if len(s.notifyEmails) == 0 {
		s.logger.Error("cannot send email notification of checkout transaction: " +
			"no notification addresses configured")
		return
	}

	data := map[string]any{
		"State":       strings.ToUpper(string(checkout.State)),
		"Action":      checkout.Action.Name(),
		"Name":        subject.CheckoutName(),
		"Email":       subject.CheckoutEmail(),
		"Date":        checkout.CheckoutDate.Format("02/01/2006 15:04"),
		"Description": checkout.Description,
		"URL":         subject.AbsoluteURL(),
	}

	for _, recipient := range s.notifyEmails {
		if err := s.mailer.Send(recipient, TemplateCheckoutNotification, data); err != nil {
			s.logger.Error("failed to send checkout notification",
				"recipient", recipient, "checkout", checkout.ID, "error", err)
		}
	}
}

// NotifyStaleRequeue warns admins that instalments were returned to
// pending after an interrupted sweep, so they can reconcile against the
// gateway before the rows are retried.
func (s *Service) NotifyStaleRequeue(ids []int64) {
	if len(s.notifyEmails) == 0 {
		s.logger.Error("cannot send stale instalment notification: " +
			"no notification addresses configured")
		return
	}

	data := map[string]any{"Ids": ids}

	for _, recipient := range s.notifyEmails {
		if err := s.mailer.Send(recipient, TemplateStaleInstalments, data); err != nil {
			s.logger.Error("failed to send stale instalment notification",
				"recipient", recipient, "error", err)
		}
	}
}

// Audit lists every checkout, newest first.
func (s *Service) Audit(ctx context.Context) ([]domain.Checkout, error) {
	return s.checkouts.Audit(ctx)
}

func (s *Service) today() time.Time {
	return dateOnly(s.now())
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
