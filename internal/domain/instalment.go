package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PayablePlan binds one payment plan definition to one payable with a fixed
// total. A payable has at most one plan; the table enforces uniqueness on
// the payable reference.
type PayablePlan struct {
	ID        int64
	Payable   PayableRef
	PlanID    int64
	Total     decimal.Decimal
	Deleted   bool
	CreatedAt time.Time
}

// Instalment is one scheduled payment within a payable plan. The deposit
// row (count 1) is created with the plan; the remaining rows are created
// only after the deposit clears.
type Instalment struct {
	ID            int64
	PayablePlanID int64
	Count         int
	State         CheckoutState
	Deposit       bool
	Amount        decimal.Decimal
	Due           time.Time
	// StateChangedAt drives the stale-request requeue after a crash
	// between claim and final commit.
	StateChangedAt time.Time
	CreatedAt      time.Time
}

type PayablePlanRepository interface {
	// Create persists the plan and its deposit instalment in one
	// transaction; a plan should never exist without its deposit row.
	Create(ctx context.Context, plan *PayablePlan, deposit *Instalment) error
	GetById(ctx context.Context, id int64) (*PayablePlan, error)
	GetByRef(ctx context.Context, ref PayableRef) (*PayablePlan, error)
	// Outstanding lists plans, excluding deleted ones, that still have an
	// instalment in the fail, pending or request state. Used to refresh
	// card expiry dates.
	Outstanding(ctx context.Context) ([]PayablePlan, error)
	Delete(ctx context.Context, id int64) error
}

type InstalmentRepository interface {
	GetById(ctx context.Context, id int64) (*Instalment, error)
	ListByPlan(ctx context.Context, payablePlanID int64) ([]Instalment, error)
	CreateBatch(ctx context.Context, instalments []Instalment) error
	SetState(ctx context.Context, id int64, state CheckoutState) error

	// DueIds snapshots the ids of instalments ready for the sweep: pending,
	// due on or before today, not a deposit, plan not deleted.
	DueIds(ctx context.Context, today time.Time) ([]int64, error)

	// Claim locks the row without waiting, re-checks that it is still
	// pending and moves it to request in one short transaction. It returns
	// false when the row is locked by a concurrent sweep or no longer
	// pending; either way the caller skips it.
	Claim(ctx context.Context, id int64) (bool, error)

	// RequeueStale returns request-state rows older than the cutoff to
	// pending and reports which rows it touched.
	RequeueStale(ctx context.Context, cutoff time.Time) ([]int64, error)

	// Retry resets a failed instalment to pending so the next sweep picks
	// it up. Staff action; failed instalments are never re-swept silently.
	Retry(ctx context.Context, id int64) error
}
