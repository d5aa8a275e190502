package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sumails/sumails/internal/apperr"
	"github.com/sumails/sumails/internal/models"
	"github.com/sumails/sumails/services/dashboard-api/internal/provider"
)

var errTokenExpired = errors.New("access token expired")

const (
	formatMetadata = "metadata"
	formatFull     = "full"
	formatPreview  = "preview"
)

type emailsRequest struct {
	AccessToken string `json:"accessToken"`
	// Account selects a stored mailbox by address instead of a raw token.
	// Requires the X-User-ID header.
	Account    string `json:"account"`
	MaxResults int    `json:"maxResults"`
	Query      string `json:"query"`
	Format     string `json:"format"`
}

func (s *Server) handleFetchEmails(c *gin.Context) {
	var req emailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	switch req.Format {
	case "":
		req.Format = formatMetadata
	case formatMetadata, formatFull, formatPreview:
	default:
		badRequest(c, "format must be one of: metadata, full, preview")
		return
	}
	if req.MaxResults < 0 {
		badRequest(c, "maxResults must not be negative")
		return
	}

	if req.AccessToken == "" && req.Account != "" {
		token, err := s.storedToken(c, req.Account)
		if err != nil {
			s.respondError(c, err, "Failed to resolve mailbox")
			return
		}
		req.AccessToken = token
	}
	if req.AccessToken == "" {
		badRequest(c, "Access token is required")
		return
	}

	ctx := c.Request.Context()
	maxResults := provider.NormalizeMaxResults(req.MaxResults)

	switch req.Format {
	case formatMetadata:
		emails, err := s.deps.Provider.FetchEmails(ctx, req.AccessToken, maxResults, req.Query)
		if err != nil {
			s.respondError(c, err, "Failed to fetch emails")
			return
		}
		c.JSON(http.StatusOK, gin.H{"emails": emails})
	default:
		emails, err := s.deps.Provider.FetchEmailsWithContent(ctx, req.AccessToken, maxResults, req.Query)
		if err != nil {
			s.respondError(c, err, "Failed to fetch emails")
			return
		}
		if req.Format == formatFull {
			c.JSON(http.StatusOK, gin.H{"emails": emails})
			return
		}
		previews := make([]models.UnsummarizedEmail, 0, len(emails))
		for _, e := range emails {
			previews = append(previews, e.Unsummarized())
		}
		c.JSON(http.StatusOK, gin.H{"emails": previews})
	}
}

// storedToken looks up the caller's connected mailbox. Expired tokens are
// rejected here; refreshing them is the token-refresh job's responsibility.
func (s *Server) storedToken(c *gin.Context, email string) (string, error) {
	userID, err := uuid.Parse(c.GetHeader(userHeader))
	if err != nil || userID == uuid.Nil {
		return "", &apperr.AuthError{Op: "resolve mailbox", Err: err}
	}

	account, err := s.deps.Directory.FindByEmail(c.Request.Context(), userID, email)
	if err != nil {
		return "", err
	}
	if account.Expired(s.deps.Now()) {
		return "", &apperr.AuthError{Op: "resolve mailbox " + account.ID.String(), Err: errTokenExpired}
	}
	return account.AccessToken, nil
}
