package models

import (
	"time"

	"github.com/google/uuid"
)

// ConnectedAccount is a Gmail mailbox a user linked through the OAuth consent flow.
// Token material never leaves the service; API responses use ConnectedAccountView.
type ConnectedAccount struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	Email        string    `db:"email" json:"email"`
	AccessToken  string    `db:"access_token" json:"-"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Expired reports whether the access token must be treated as invalid at now.
func (a ConnectedAccount) Expired(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}

// View strips credentials for the dashboard.
func (a ConnectedAccount) View(now time.Time) ConnectedAccountView {
	return ConnectedAccountView{
		ID:        a.ID,
		Email:     a.Email,
		ExpiresAt: a.ExpiresAt,
		Expired:   a.Expired(now),
	}
}

type ConnectedAccountView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
	Expired   bool      `json:"expired"`
}
