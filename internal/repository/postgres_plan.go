package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okalli/checkout-service/internal/domain"
)

type PostgresPaymentPlanRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPaymentPlanRepository(db *pgxpool.Pool) *PostgresPaymentPlanRepository {
	return &PostgresPaymentPlanRepository{
		db: db,
	}
}

func (p *PostgresPaymentPlanRepository) Create(ctx context.Context, plan *domain.PaymentPlan) error {
	query := `
		INSERT INTO payment_plans (name, slug, deposit_percent, instalment_count, interval_months)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := q(ctx, p.db).QueryRow(
		ctx,
		query,
		plan.Name,
		plan.Slug,
		plan.Deposit,
		plan.Count,
		plan.Interval,
	).Scan(&plan.ID, &plan.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrDuplicateSlug
		}

		return err
	}

	return nil
}

func (p *PostgresPaymentPlanRepository) GetBySlug(ctx context.Context, slug string) (*domain.PaymentPlan, error) {
	query := planSelect + ` WHERE slug = $1`

	return p.getOne(ctx, query, slug)
}

func (p *PostgresPaymentPlanRepository) GetById(ctx context.Context, id int64) (*domain.PaymentPlan, error) {
	query := planSelect + ` WHERE id = $1`

	return p.getOne(ctx, query, id)
}

// Update rewrites the plan definition. The in-use check and the write
// happen in one transaction so a payable plan created concurrently cannot
// slip past the guard.
func (p *PostgresPaymentPlanRepository) Update(ctx context.Context, plan *domain.PaymentPlan) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var inUse bool

		query := `SELECT EXISTS (SELECT 1 FROM payable_plans WHERE plan_id = $1)`
		if err := tx.QueryRow(ctx, query, plan.ID).Scan(&inUse); err != nil {
			return err
		}

		if inUse {
			return domain.ErrPlanInUse
		}

		query = `
			UPDATE payment_plans
			SET name = $1, deposit_percent = $2, instalment_count = $3, interval_months = $4
			WHERE id = $5
		`

		tag, err := tx.Exec(ctx, query, plan.Name, plan.Deposit, plan.Count, plan.Interval, plan.ID)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return domain.ErrRecordNotFound
		}

		return nil
	})
}

// Delete soft-deletes the plan so existing payable plans keep their
// definition while new ones can no longer use it.
func (p *PostgresPaymentPlanRepository) Delete(ctx context.Context, slug string) error {
	query := `UPDATE payment_plans SET deleted = TRUE WHERE slug = $1`

	tag, err := q(ctx, p.db).Exec(ctx, query, slug)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresPaymentPlanRepository) Current(ctx context.Context) ([]domain.PaymentPlan, error) {
	query := planSelect + ` WHERE deleted = FALSE ORDER BY slug`

	rows, err := q(ctx, p.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]domain.PaymentPlan, 0)

	for rows.Next() {
		var plan domain.PaymentPlan

		err = rows.Scan(
			&plan.ID,
			&plan.Name,
			&plan.Slug,
			&plan.Deposit,
			&plan.Count,
			&plan.Interval,
			&plan.Deleted,
			&plan.CreatedAt,
		)

		if err != nil {
			return nil, err
		}

		plans = append(plans, plan)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}

func (p *PostgresPaymentPlanRepository) InUse(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM payable_plans WHERE plan_id = $1)`

	var inUse bool
	err := q(ctx, p.db).QueryRow(ctx, query, id).Scan(&inUse)

	return inUse, err
}

const planSelect = `
	SELECT id, name, slug, deposit_percent, instalment_count, interval_months, deleted, created_at
	FROM payment_plans
`

func (p *PostgresPaymentPlanRepository) getOne(ctx context.Context, query string, arg any) (*domain.PaymentPlan, error) {
	var plan domain.PaymentPlan

	err := q(ctx, p.db).QueryRow(ctx, query, arg).Scan(
		&plan.ID,
		&plan.Name,
		&plan.Slug,
		&plan.Deposit,
		&plan.Count,
		&plan.Interval,
		&plan.Deleted,
		&plan.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &plan, nil
}
