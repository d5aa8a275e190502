package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sumails/sumails/internal/apperr"
)

func (s *Server) handleGetSettings(c *gin.Context) {
	form, err := s.deps.Settings.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		s.respondError(c, err, "Failed to load settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": form})
}

func (s *Server) handlePutSettings(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	form, err := s.deps.Validator.Validate(raw)
	if err != nil {
		s.respondError(c, err, "Failed to validate settings")
		return
	}
	if err := s.deps.Settings.Save(c.Request.Context(), currentUser(c), *form); err != nil {
		s.respondError(c, err, "Failed to save settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": form})
}

func (s *Server) handlePatchSettings(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	patch, err := s.deps.Validator.ValidatePartial(raw)
	if err != nil {
		s.respondError(c, err, "Failed to validate settings")
		return
	}
	if patch.Empty() {
		s.respondError(c, apperr.Invalid("body", "no settings supplied"), "Failed to validate settings")
		return
	}

	form, err := s.deps.Settings.Patch(c.Request.Context(), currentUser(c), *patch)
	if err != nil {
		s.respondError(c, err, "Failed to update settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": form})
}
