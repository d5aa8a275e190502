package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sumails/sumails/internal/models"
	"github.com/sumails/sumails/services/dashboard-api/internal/db"
)

// Repository is the backing store of connected accounts.
type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ConnectedAccount, error)
	Upsert(ctx context.Context, account models.ConnectedAccount) (models.ConnectedAccount, error)
}

// PostgresRepository stores accounts in the connected_accounts table.
type PostgresRepository struct {
	db db.DBTX
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ConnectedAccount, error) {
	query := `SELECT id, user_id, email, access_token, refresh_token, expires_at, created_at
		FROM connected_accounts WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []models.ConnectedAccount{}
	for rows.Next() {
		var acc models.ConnectedAccount
		if err := rows.Scan(
			&acc.ID,
			&acc.UserID,
			&acc.Email,
			&acc.AccessToken,
			&acc.RefreshToken,
			&acc.ExpiresAt,
			&acc.CreatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	return accounts, rows.Err()
}

// Upsert inserts the account, or refreshes its tokens when the user already linked that address.
// A refresh token is only replaced when the provider issued a new one.
func (r *PostgresRepository) Upsert(ctx context.Context, account models.ConnectedAccount) (models.ConnectedAccount, error) {
	query := `
		INSERT INTO connected_accounts (id, user_id, email, access_token, refresh_token, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, email) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), connected_accounts.refresh_token),
			expires_at = EXCLUDED.expires_at
		RETURNING id, created_at
	`

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, query,
		account.ID,
		account.UserID,
		account.Email,
		account.AccessToken,
		account.RefreshToken,
		account.ExpiresAt,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		return models.ConnectedAccount{}, fmt.Errorf("upsert connected account: %w", err)
	}
	return account, nil
}
