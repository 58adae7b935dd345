package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okalli/checkout-service/internal/domain"
)

type PostgresCheckoutRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCheckoutRepository(db *pgxpool.Pool) *PostgresCheckoutRepository {
	return &PostgresCheckoutRepository{
		db: db,
	}
}

func (p *PostgresCheckoutRepository) Create(ctx context.Context, checkout *domain.Checkout) error {
	query := `
		INSERT INTO checkouts (
			reference,
			checkout_date,
			action,
			customer_id,
			user_id,
			state,
			description,
			total,
			payable_type,
			payable_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	return q(ctx, p.db).QueryRow(
		ctx,
		query,
		checkout.Reference,
		checkout.CheckoutDate,
		checkout.Action,
		checkout.CustomerID,
		checkout.UserID,
		checkout.State,
		checkout.Description,
		checkout.Total,
		checkout.Payable.Type,
		checkout.Payable.ID,
	).Scan(&checkout.ID, &checkout.CreatedAt)
}

func (p *PostgresCheckoutRepository) GetById(ctx context.Context, id int64) (*domain.Checkout, error) {
	query := `
		SELECT id, reference, checkout_date, action, customer_id, user_id,
			state, description, total, payable_type, payable_id, created_at
		FROM checkouts
		WHERE id = $1
	`

	checkout, err := scanCheckout(q(ctx, p.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return checkout, nil
}

func (p *PostgresCheckoutRepository) SetCustomer(ctx context.Context, id, customerID int64) error {
	query := `UPDATE checkouts SET customer_id = $1 WHERE id = $2`

	tag, err := q(ctx, p.db).Exec(ctx, query, customerID, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresCheckoutRepository) SetState(ctx context.Context, id int64, state domain.CheckoutState) error {
	query := `UPDATE checkouts SET state = $1 WHERE id = $2`

	tag, err := q(ctx, p.db).Exec(ctx, query, state, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

// Audit lists every checkout, newest first. Checkouts are never deleted, so
// this is the complete history of payment attempts.
func (p *PostgresCheckoutRepository) Audit(ctx context.Context) ([]domain.Checkout, error) {
	query := `
		SELECT id, reference, checkout_date, action, customer_id, user_id,
			state, description, total, payable_type, payable_id, created_at
		FROM checkouts
		ORDER BY id DESC
	`

	rows, err := q(ctx, p.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checkouts := make([]domain.Checkout, 0)

	for rows.Next() {
		checkout, err := scanCheckout(rows)
		if err != nil {
			return nil, err
		}

		checkouts = append(checkouts, *checkout)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return checkouts, nil
}

func (p *PostgresCheckoutRepository) CreateInvoiceDetail(ctx context.Context, detail *domain.InvoiceDetail) error {
	query := `
		INSERT INTO invoice_details (
			checkout_id, company_name, address_1, address_2, address_3,
			town, county, postcode, country, contact_name, email, phone
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	return q(ctx, p.db).QueryRow(
		ctx,
		query,
		detail.CheckoutID,
		detail.CompanyName,
		detail.Address1,
		detail.Address2,
		detail.Address3,
		detail.Town,
		detail.County,
		detail.Postcode,
		detail.Country,
		detail.ContactName,
		detail.Email,
		detail.Phone,
	).Scan(&detail.ID)
}

func (p *PostgresCheckoutRepository) GetInvoiceDetail(ctx context.Context, checkoutID int64) (*domain.InvoiceDetail, error) {
	query := `
		SELECT id, checkout_id, company_name, address_1, address_2, address_3,
			town, county, postcode, country, contact_name, email, phone
		FROM invoice_details
		WHERE checkout_id = $1
	`

	var detail domain.InvoiceDetail

	err := q(ctx, p.db).QueryRow(ctx, query, checkoutID).Scan(
		&detail.ID,
		&detail.CheckoutID,
		&detail.CompanyName,
		&detail.Address1,
		&detail.Address2,
		&detail.Address3,
		&detail.Town,
		&detail.County,
		&detail.Postcode,
		&detail.Country,
		&detail.ContactName,
		&detail.Email,
		&detail.Phone,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &detail, nil
}

func scanCheckout(row pgx.Row) (*domain.Checkout, error) {
	var checkout domain.Checkout

	err := row.Scan(
		&checkout.ID,
		&checkout.Reference,
		&checkout.CheckoutDate,
		&checkout.Action,
		&checkout.CustomerID,
		&checkout.UserID,
		&checkout.State,
		&checkout.Description,
		&checkout.Total,
		&checkout.Payable.Type,
		&checkout.Payable.ID,
		&checkout.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &checkout, nil
}
