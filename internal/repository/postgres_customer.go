package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okalli/checkout-service/internal/domain"
)

type PostgresCustomerRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCustomerRepository(db *pgxpool.Pool) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{
		db: db,
	}
}

func (p *PostgresCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := `
		SELECT id, name, email, gateway_id, expiry_date, refresh, created_at, updated_at
		FROM customers
		WHERE email = $1
	`

	var customer domain.Customer

	err := q(ctx, p.db).QueryRow(ctx, query, email).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.GatewayID,
		&customer.ExpiryDate,
		&customer.Refresh,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &customer, nil
}

func (p *PostgresCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (name, email, gateway_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	return q(ctx, p.db).QueryRow(
		ctx,
		query,
		customer.Name,
		customer.Email,
		customer.GatewayID,
	).Scan(&customer.ID, &customer.CreatedAt)
}

func (p *PostgresCustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET name = $1, gateway_id = $2, expiry_date = $3, refresh = $4, updated_at = NOW()
		WHERE id = $5
	`

	tag, err := q(ctx, p.db).Exec(
		ctx,
		query,
		customer.Name,
		customer.GatewayID,
		customer.ExpiryDate,
		customer.Refresh,
		customer.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresCustomerRepository) ListRefresh(ctx context.Context) ([]domain.Customer, error) {
	query := `
		SELECT id, name, email, gateway_id, expiry_date, refresh, created_at, updated_at
		FROM customers
		WHERE refresh = TRUE
		ORDER BY id
	`

	rows, err := q(ctx, p.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)

	for rows.Next() {
		var customer domain.Customer

		err = rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Email,
			&customer.GatewayID,
			&customer.ExpiryDate,
			&customer.Refresh,
			&customer.CreatedAt,
			&customer.UpdatedAt,
		)

		if err != nil {
			return nil, err
		}

		customers = append(customers, customer)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}
