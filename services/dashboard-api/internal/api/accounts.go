package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sumails/sumails/internal/models"
)

func (s *Server) handleListAccounts(c *gin.Context) {
	accounts, degraded, err := s.deps.Directory.AccountsForPage(c.Request.Context(), currentUser(c))
	if err != nil {
		s.respondError(c, err, "Failed to load connected accounts")
		return
	}

	now := s.deps.Now()
	views := make([]models.ConnectedAccountView, 0, len(accounts))
	for _, acc := range accounts {
		views = append(views, acc.View(now))
	}
	c.JSON(http.StatusOK, gin.H{"accounts": views, "degraded": degraded})
}
