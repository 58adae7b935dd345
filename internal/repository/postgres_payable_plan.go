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

type PostgresPayablePlanRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPayablePlanRepository(db *pgxpool.Pool) *PostgresPayablePlanRepository {
	return &PostgresPayablePlanRepository{
		db: db,
	}
}

func (p *PostgresPayablePlanRepository) Create(
	ctx context.Context,
	plan *domain.PayablePlan,
	deposit *domain.Instalment) error {

	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO payable_plans (payable_type, payable_id, plan_id, total)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`

		err := tx.QueryRow(
			ctx,
			query,
			plan.Payable.Type,
			plan.Payable.ID,
			plan.PlanID,
			plan.Total,
		).Scan(&plan.ID, &plan.CreatedAt)

		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return domain.ErrPlanExists
			}

			return err
		}

		deposit.PayablePlanID = plan.ID

		query = `
			INSERT INTO instalments (payable_plan_id, count, state, deposit, amount, due)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, state_changed_at, created_at
		`

		return tx.QueryRow(
			ctx,
			query,
			deposit.PayablePlanID,
			deposit.Count,
			deposit.State,
			deposit.Deposit,
			deposit.Amount,
			deposit.Due,
		).Scan(&deposit.ID, &deposit.StateChangedAt, &deposit.CreatedAt)
	})
}

func (p *PostgresPayablePlanRepository) GetById(ctx context.Context, id int64) (*domain.PayablePlan, error) {
	query := payablePlanSelect + ` WHERE id = $1`

	return p.getOne(ctx, query, id)
}

func (p *PostgresPayablePlanRepository) GetByRef(ctx context.Context, ref domain.PayableRef) (*domain.PayablePlan, error) {
	query := payablePlanSelect + ` WHERE payable_type = $1 AND payable_id = $2`

	var plan domain.PayablePlan

	err := q(ctx, p.db).QueryRow(ctx, query, ref.Type, ref.ID).Scan(
		&plan.ID,
		&plan.Payable.Type,
		&plan.Payable.ID,
		&plan.PlanID,
		&plan.Total,
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

func (p *PostgresPayablePlanRepository) Outstanding(ctx context.Context) ([]domain.PayablePlan, error) {
	query := payablePlanSelect + `
		WHERE deleted = FALSE
			AND id IN (
				SELECT payable_plan_id
				FROM instalments
				WHERE state IN ('fail', 'pending', 'request')
			)
		ORDER BY created_at
	`

	rows, err := q(ctx, p.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]domain.PayablePlan, 0)

	for rows.Next() {
		var plan domain.PayablePlan

		err = rows.Scan(
			&plan.ID,
			&plan.Payable.Type,
			&plan.Payable.ID,
			&plan.PlanID,
			&plan.Total,
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

func (p *PostgresPayablePlanRepository) Delete(ctx context.Context, id int64) error {
	query := `UPDATE payable_plans SET deleted = TRUE WHERE id = $1`

	tag, err := q(ctx, p.db).Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

const payablePlanSelect = `
	SELECT id, payable_type, payable_id, plan_id, total, deleted, created_at
	FROM payable_plans
`

func (p *PostgresPayablePlanRepository) getOne(ctx context.Context, query string, arg any) (*domain.PayablePlan, error) {
	var plan domain.PayablePlan

	err := q(ctx, p.db).QueryRow(ctx, query, arg).Scan(
		&plan.ID,
		&plan.Payable.Type,
		&plan.Payable.ID,
		&plan.PlanID,
		&plan.Total,
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
