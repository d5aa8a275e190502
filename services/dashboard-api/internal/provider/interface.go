package provider

import (
	"context"

	"github.com/sumails/sumails/internal/models"
)

const (
	DefaultMaxResults = 10
	// MaxResultsLimit caps any caller-supplied bound.
	MaxResultsLimit = 100
)

// Provider defines the mailbox operations the dashboard needs from an email provider.
// Results keep the provider's native ordering and never exceed maxResults.
type Provider interface {
	// FetchEmails lists message metadata. An empty query means no filter.
	FetchEmails(ctx context.Context, accessToken string, maxResults int, query string) ([]models.EmailData, error)

	// FetchEmailsWithContent is FetchEmails plus the decoded text body.
	FetchEmailsWithContent(ctx context.Context, accessToken string, maxResults int, query string) ([]models.EmailDataWithContent, error)

	// Profile returns the mailbox address the token belongs to.
	Profile(ctx context.Context, accessToken string) (string, error)
}

// NormalizeMaxResults applies the default and the upper limit.
func NormalizeMaxResults(n int) int {
	if n <= 0 {
		return DefaultMaxResults
	}
	if n > MaxResultsLimit {
		return MaxResultsLimit
	}
	return n
}
