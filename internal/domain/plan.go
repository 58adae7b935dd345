package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PaymentPlan defines how a total is split into a deposit and a series of
// monthly instalments. Once any payable plan references it the definition
// is frozen; the repository enforces this on every update path.
type PaymentPlan struct {
	ID   int64
	Name string
	Slug string
	// Deposit is the initial deposit as a percentage of the total.
	Deposit int
	// Count is the number of instalments, excluding the deposit.
	Count int
	// Interval is the number of months between instalments.
	Interval  int
	Deleted   bool
	CreatedAt time.Time
}

func (p *PaymentPlan) Validate() error {
	if p.Count < 1 {
		return errors.New("set at least one instalment")
	}
	if p.Deposit < 1 {
		return errors.New("set an initial deposit")
	}
	if p.Deposit > 100 {
		return errors.New("the deposit cannot exceed 100 percent")
	}
	if p.Interval < 1 {
		return errors.New("set the number of months between instalments")
	}
	return nil
}

// DepositAmount is the deposit for the given total, rounded to the cent.
func (p *PaymentPlan) DepositAmount(total decimal.Decimal) decimal.Decimal {
	return total.Mul(decimal.NewFromInt(int64(p.Deposit))).Div(hundred).Round(2)
}

// ScheduledPayment is one (due date, amount) entry in a schedule.
type ScheduledPayment struct {
	Due    time.Time
	Amount decimal.Decimal
}

// Instalments builds the amortization schedule for the given total,
// excluding the deposit. Dates fall on the first of the month, Interval
// months apart. The first instalment is pushed out an extra month when the
// deposit lands after the 15th, so it never falls due too soon after the
// deposit. The last amount absorbs any rounding drift so that deposit plus
// instalments reconstitutes the total exactly.
func (p *PaymentPlan) Instalments(depositDue time.Time, total decimal.Decimal) []ScheduledPayment {
	deposit := p.DepositAmount(total)

	firstInterval := p.Interval
	if depositDue.Day() > 15 {
		firstInterval++
	}
	year, month, _ := depositDue.Date()
	start := time.Date(year, month+time.Month(firstInterval), 1, 0, 0, 0, 0, time.UTC)

	instalment := total.Sub(deposit).Div(decimal.NewFromInt(int64(p.Count))).Round(2)

	schedule := make([]ScheduledPayment, p.Count)
	check := deposit
	for i := range schedule {
		schedule[i] = ScheduledPayment{
			Due:    start.AddDate(0, i*p.Interval, 0),
			Amount: instalment,
		}
		check = check.Add(instalment)
	}
	// make the total match
	last := &schedule[p.Count-1]
	last.Amount = last.Amount.Add(total.Sub(check))

	return schedule
}

// Example is the full schedule, deposit first, as shown to a customer
// before they commit to a plan.
func (p *PaymentPlan) Example(depositDue time.Time, total decimal.Decimal) []ScheduledPayment {
	result := []ScheduledPayment{
		{Due: depositDue, Amount: p.DepositAmount(total)},
	}
	return append(result, p.Instalments(depositDue, total)...)
}

type PaymentPlanRepository interface {
	Create(ctx context.Context, plan *PaymentPlan) error
	GetBySlug(ctx context.Context, slug string) (*PaymentPlan, error)
	GetById(ctx context.Context, id int64) (*PaymentPlan, error)
	// Update fails with ErrPlanInUse once any payable plan references the
	// plan, protecting historical amortization math.
	Update(ctx context.Context, plan *PaymentPlan) error
	Delete(ctx context.Context, slug string) error
	Current(ctx context.Context) ([]PaymentPlan, error)
	InUse(ctx context.Context, id int64) (bool, error)
}
