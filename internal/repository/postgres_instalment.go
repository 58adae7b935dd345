package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okalli/checkout-service/internal/domain"
)

type PostgresInstalmentRepository struct {
	db *pgxpool.Pool
}

func NewPostgresInstalmentRepository(db *pgxpool.Pool) *PostgresInstalmentRepository {
	return &PostgresInstalmentRepository{
		db: db,
	}
}

func (p *PostgresInstalmentRepository) GetById(ctx context.Context, id int64) (*domain.Instalment, error) {
	query := instalmentSelect + ` WHERE id = $1`

	instalment, err := scanInstalment(q(ctx, p.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return instalment, nil
}

func (p *PostgresInstalmentRepository) ListByPlan(ctx context.Context, payablePlanID int64) ([]domain.Instalment, error) {
	query := instalmentSelect + ` WHERE payable_plan_id = $1 ORDER BY count`

	rows, err := q(ctx, p.db).Query(ctx, query, payablePlanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instalments := make([]domain.Instalment, 0)

	for rows.Next() {
		instalment, err := scanInstalment(rows)
		if err != nil {
			return nil, err
		}

		instalments = append(instalments, *instalment)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return instalments, nil
}

// CreateBatch inserts the generated schedule in one transaction; an
// invariant failure part way through must leave no partial schedule behind.
func (p *PostgresInstalmentRepository) CreateBatch(ctx context.Context, instalments []domain.Instalment) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO instalments (payable_plan_id, count, state, deposit, amount, due)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, state_changed_at, created_at
		`

		for i := range instalments {
			instalment := &instalments[i]

			err := tx.QueryRow(
				ctx,
				query,
				instalment.PayablePlanID,
				instalment.Count,
				instalment.State,
				instalment.Deposit,
				instalment.Amount,
				instalment.Due,
			).Scan(&instalment.ID, &instalment.StateChangedAt, &instalment.CreatedAt)

			if err != nil {
				return err
			}
		}

		return nil
	})
}

func (p *PostgresInstalmentRepository) SetState(ctx context.Context, id int64, state domain.CheckoutState) error {
	query := `UPDATE instalments SET state = $1, state_changed_at = NOW() WHERE id = $2`

	tag, err := q(ctx, p.db).Exec(ctx, query, state, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresInstalmentRepository) DueIds(ctx context.Context, today time.Time) ([]int64, error) {
	query := `
		SELECT i.id
		FROM instalments i
		JOIN payable_plans pp ON i.payable_plan_id = pp.id
		WHERE i.state = 'pending'
			AND i.due <= $1
			AND i.deposit = FALSE
			AND pp.deleted = FALSE
		ORDER BY i.id
	`

	rows, err := q(ctx, p.db).Query(ctx, query, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)

	for rows.Next() {
		var id int64

		if err = rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// Claim takes ownership of one due instalment. The row lock is requested
// with NOWAIT so a row held by a concurrent sweep is skipped, never queued
// behind. The transaction commits before any gateway call is made; the
// remote charge must never run inside a database transaction.
func (p *PostgresInstalmentRepository) Claim(ctx context.Context, id int64) (bool, error) {
	claimed := false

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var state domain.CheckoutState

		query := `SELECT state FROM instalments WHERE id = $1 FOR UPDATE NOWAIT`
		err := tx.QueryRow(ctx, query, id).Scan(&state)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		// a concurrent sweep may have moved the row on before we locked it
		if state != domain.CheckoutStatePending {
			return nil
		}

		query = `UPDATE instalments SET state = 'request', state_changed_at = NOW() WHERE id = $1`
		if _, err = tx.Exec(ctx, query, id); err != nil {
			return err
		}

		claimed = true
		return nil
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.LockNotAvailable {
			return false, nil
		}

		return false, err
	}

	return claimed, nil
}

func (p *PostgresInstalmentRepository) RequeueStale(ctx context.Context, cutoff time.Time) ([]int64, error) {
	query := `
		UPDATE instalments
		SET state = 'pending', state_changed_at = NOW()
		WHERE state = 'request' AND state_changed_at < $1
		RETURNING id
	`

	rows, err := q(ctx, p.db).Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)

	for rows.Next() {
		var id int64

		if err = rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func (p *PostgresInstalmentRepository) Retry(ctx context.Context, id int64) error {
	query := `
		UPDATE instalments
		SET state = 'pending', state_changed_at = NOW()
		WHERE id = $1 AND state = 'fail'
	`

	tag, err := q(ctx, p.db).Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

const instalmentSelect = `
	SELECT id, payable_plan_id, count, state, deposit, amount, due, state_changed_at, created_at
	FROM instalments
`

func scanInstalment(row pgx.Row) (*domain.Instalment, error) {
	var instalment domain.Instalment

	err := row.Scan(
		&instalment.ID,
		&instalment.PayablePlanID,
		&instalment.Count,
		&instalment.State,
		&instalment.Deposit,
		&instalment.Amount,
		&instalment.Due,
		&instalment.StateChangedAt,
		&instalment.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &instalment, nil
}
