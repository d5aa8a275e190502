// Package directory answers which Gmail mailboxes a user has connected.
package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sumails/sumails/internal/apperr"
	"github.com/sumails/sumails/internal/models"
	"github.com/sumails/sumails/services/dashboard-api/internal/metrics"
)

// ErrorPolicy decides what a page load sees when the backing store fails.
type ErrorPolicy string

const (
	// FailOpen substitutes an empty list. The page renders, but the user
	// cannot tell their mailboxes are missing because of an outage.
	FailOpen ErrorPolicy = "fail-open"
	// FailClosed surfaces the FetchError to the caller.
	FailClosed ErrorPolicy = "fail-closed"
)

// ParseErrorPolicy accepts "fail-open" or "fail-closed"; empty means FailOpen.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch ErrorPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailOpen:
		return FailOpen, nil
	case FailClosed:
		return FailClosed, nil
	default:
		return "", fmt.Errorf("unknown directory error policy %q", s)
	}
}

type Service struct {
	repo   Repository
	policy ErrorPolicy
	log    *zap.Logger
}

func NewService(repo Repository, policy ErrorPolicy, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, policy: policy, log: log}
}

// Policy returns the configured error policy.
func (s *Service) Policy() ErrorPolicy {
	return s.policy
}

// GetUserConnectedAccounts returns every mailbox the user linked.
// Any store failure comes back as *apperr.FetchError.
func (s *Service) GetUserConnectedAccounts(ctx context.Context, userID uuid.UUID) ([]models.ConnectedAccount, error) {
	accounts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, &apperr.FetchError{UserID: userID.String(), Err: err}
	}
	if accounts == nil {
		accounts = []models.ConnectedAccount{}
	}
	return accounts, nil
}

// AccountsForPage applies the error policy. degraded is true when FailOpen
// replaced a failed lookup with an empty list.
func (s *Service) AccountsForPage(ctx context.Context, userID uuid.UUID) (accounts []models.ConnectedAccount, degraded bool, err error) {
	accounts, err = s.GetUserConnectedAccounts(ctx, userID)
	if err == nil {
		return accounts, false, nil
	}
	if s.policy == FailClosed {
		return nil, false, err
	}

	metrics.IncDirectoryFailOpen()
	s.log.Warn("Connected account lookup failed, serving empty list",
		zap.String("user_id", userID.String()),
		zap.String("policy", string(s.policy)),
		zap.Error(err),
	)
	return []models.ConnectedAccount{}, true, nil
}

// FindByEmail returns the user's account for the given address.
func (s *Service) FindByEmail(ctx context.Context, userID uuid.UUID, email string) (models.ConnectedAccount, error) {
	accounts, err := s.GetUserConnectedAccounts(ctx, userID)
	if err != nil {
		return models.ConnectedAccount{}, err
	}
	for _, acc := range accounts {
		if strings.EqualFold(acc.Email, email) {
			return acc, nil
		}
	}
	return models.ConnectedAccount{}, &apperr.NotFoundError{Resource: "connected account", Key: email}
}

// Connect records the outcome of a completed OAuth consent flow.
func (s *Service) Connect(ctx context.Context, account models.ConnectedAccount) (models.ConnectedAccount, error) {
	if account.UserID == uuid.Nil {
		return models.ConnectedAccount{}, apperr.Invalid("userId", "is required")
	}
	if account.Email == "" {
		return models.ConnectedAccount{}, apperr.Invalid("email", "is required")
	}
	if account.AccessToken == "" {
		return models.ConnectedAccount{}, apperr.Invalid("accessToken", "is required")
	}

	saved, err := s.repo.Upsert(ctx, account)
	if err != nil {
		return models.ConnectedAccount{}, err
	}

	s.log.Info("Mailbox connected",
		zap.String("user_id", saved.UserID.String()),
		zap.String("account_id", saved.ID.String()),
	)
	return saved, nil
}
