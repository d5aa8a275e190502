package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/sumails/sumails/internal/models"
	"github.com/sumails/sumails/services/dashboard-api/internal/logstore"
)

func (s *Server) handleProcessingLog(c *gin.Context) {
	logs, err := logstore.Read[models.AccountProcessingLog](s.deps.Logs, logstore.ProcessingLog)
	if err != nil {
		s.respondError(c, err, "Failed to read processing log")
		return
	}

	sortByRecency(logs)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"logs":    logs,
		"total":   len(logs),
	})
}

// sortByRecency orders most recent first; ties keep store order.
func sortByRecency(logs []models.AccountProcessingLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].NewerThan(logs[j])
	})
}
