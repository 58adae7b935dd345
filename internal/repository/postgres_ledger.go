package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okalli/checkout-service/internal/domain"
	"github.com/okalli/checkout-service/internal/ledger"
)

type PostgresLedgerRepository struct {
	db *pgxpool.Pool
}

func NewPostgresLedgerRepository(db *pgxpool.Pool) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{
		db: db,
	}
}

func (p *PostgresLedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (name, email, description, total, state)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if entry.State == "" {
		entry.State = domain.CheckoutStatePending
	}

	return q(ctx, p.db).QueryRow(
		ctx,
		query,
		entry.Name,
		entry.Email,
		entry.Description,
		entry.Total,
		entry.State,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (p *PostgresLedgerRepository) GetById(ctx context.Context, id int64) (*ledger.Entry, error) {
	query := `
		SELECT id, name, email, description, total, state, created_at, updated_at
		FROM ledger_entries
		WHERE id = $1
	`

	var entry ledger.Entry

	err := q(ctx, p.db).QueryRow(ctx, query, id).Scan(
		&entry.ID,
		&entry.Name,
		&entry.Email,
		&entry.Description,
		&entry.Total,
		&entry.State,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &entry, nil
}

func (p *PostgresLedgerRepository) SetState(ctx context.Context, id int64, state domain.CheckoutState) error {
	query := `
		UPDATE ledger_entries
		SET state = $1, updated_at = NOW()
		WHERE id = $2
	`

	tag, err := q(ctx, p.db).Exec(ctx, query, state, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
