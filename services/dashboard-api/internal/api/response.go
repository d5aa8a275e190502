package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sumails/sumails/internal/apperr"
)

// respondError maps the error taxonomy onto status codes. Only validation
// details reach the client; everything else gets a generic message and the
// cause goes to the log.
func (s *Server) respondError(c *gin.Context, err error, fallback string) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": ve.Fields})
		return
	}

	status, msg := http.StatusInternalServerError, fallback
	switch {
	case apperr.IsAuth(err):
		status, msg = http.StatusUnauthorized, "Mailbox authorization failed"
	case apperr.IsNotFound(err):
		status, msg = http.StatusNotFound, "Not found"
	case apperr.IsRateLimit(err):
		status, msg = http.StatusTooManyRequests, "Mail provider rate limit reached, retry later"
	case apperr.IsUpstream(err):
		status, msg = http.StatusBadGateway, "Mail provider unavailable"
	}

	fields := []zap.Field{
		zap.String("route", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.log.Error(fallback, fields...)
	} else {
		s.log.Warn(fallback, fields...)
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
