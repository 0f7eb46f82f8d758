package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ticketbay/marketplace/internal/core/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	query := `
	SELECT id, email, gateway_customer_ref, connected_account_ref, created_at
	FROM users
	WHERE id = $1
	`

	var user domain.User
	var customerRef, accountRef sql.NullString

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&customerRef,
		&accountRef,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	user.GatewayCustomerRef = customerRef.String
	user.ConnectedAccountRef = accountRef.String
	return &user, nil
}

func (r *UserRepository) SetGatewayCustomerRef(ctx context.Context, userID uuid.UUID, ref string) error {
	return r.setRef(ctx, userID, "gateway_customer_ref", ref)
}

func (r *UserRepository) SetConnectedAccountRef(ctx context.Context, userID uuid.UUID, ref string) error {
	return r.setRef(ctx, userID, "connected_account_ref", ref)
}

func (r *UserRepository) setRef(ctx context.Context, userID uuid.UUID, column, ref string) error {
	// column comes from the two fixed call sites above, never from input.
	result, err := r.db.ExecContext(ctx, `UPDATE users SET `+column+` = $1 WHERE id = $2`, ref, userID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
