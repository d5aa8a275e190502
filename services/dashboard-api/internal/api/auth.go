package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sumails/sumails/internal/models"
)

// Google omits expires_in on some grants; assume the documented one-hour lifetime.
const defaultTokenLifetime = time.Hour

func (s *Server) handleAuthURL(c *gin.Context) {
	authURL, err := s.deps.Issuer.AuthURL()
	if err != nil {
		s.respondError(c, err, "Failed to generate auth URL")
		return
	}
	c.JSON(http.StatusOK, gin.H{"authUrl": authURL})
}

type callbackRequest struct {
	Code string `json:"code"`
}

// handleAuthCallback completes the consent flow: exchange the code, resolve
// the mailbox address and record the connected account.
func (s *Server) handleAuthCallback(c *gin.Context) {
	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if req.Code == "" {
		badRequest(c, "Authorization code is required")
		return
	}

	ctx := c.Request.Context()
	token, err := s.deps.Issuer.Exchange(ctx, req.Code)
	if err != nil {
		s.respondError(c, err, "Failed to exchange authorization code")
		return
	}

	email, err := s.deps.Provider.Profile(ctx, token.AccessToken)
	if err != nil {
		s.respondError(c, err, "Failed to read mailbox profile")
		return
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = s.deps.Now().Add(defaultTokenLifetime)
	}

	account, err := s.deps.Directory.Connect(ctx, models.ConnectedAccount{
		UserID:       currentUser(c),
		Email:        email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		s.respondError(c, err, "Failed to save connected account")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"account": account.View(s.deps.Now())})
}
