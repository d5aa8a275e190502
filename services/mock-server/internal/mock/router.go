package mock

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultMaxResults = 100
	maxMaxResults     = 500
)

// NewRouter serves the subset of the Gmail REST API the dashboard uses.
func NewRouter(mb *Mailbox, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), func(c *gin.Context) {
		c.Next()
		log.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	me := r.Group("/gmail/v1/users/me", requireBearer())
	{
		me.GET("/profile", func(c *gin.Context) {
			c.JSON(http.StatusOK, mb.Profile())
		})
		me.GET("/messages", func(c *gin.Context) {
			maxResults := defaultMaxResults
			if v := c.Query("maxResults"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil || n < 1 {
					apiError(c, http.StatusBadRequest, "invalidArgument", "Invalid maxResults")
					return
				}
				maxResults = min(n, maxMaxResults)
			}
			c.JSON(http.StatusOK, mb.List(maxResults, c.Query("q")))
		})
		me.GET("/messages/:id", func(c *gin.Context) {
			format := c.DefaultQuery("format", "full")
			if format != "full" && format != "metadata" {
				apiError(c, http.StatusBadRequest, "invalidArgument", "Unsupported format")
				return
			}
			msg, ok := mb.Get(c.Param("id"), format, c.QueryArray("metadataHeaders"))
			if !ok {
				apiError(c, http.StatusNotFound, "notFound", "Requested entity was not found.")
				return
			}
			c.JSON(http.StatusOK, msg)
		})
	}

	admin := r.Group("/admin")
	{
		admin.POST("/messages/add", func(c *gin.Context) {
			var req struct {
				Count int `json:"count"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				req.Count, _ = strconv.Atoi(c.DefaultQuery("count", "1"))
			}
			if req.Count < 1 {
				req.Count = 1
			}

			total := mb.Add(req.Count)
			c.JSON(http.StatusOK, gin.H{
				"added":   req.Count,
				"total":   total,
				"message": fmt.Sprintf("Added %d message(s). Total messages: %d", req.Count, total),
			})
		})
	}

	return r
}

func requireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			apiError(c, http.StatusUnauthorized, "authError", "Request had invalid authentication credentials.")
			return
		}
		c.Next()
	}
}

// apiError writes the googleapi error envelope so clients can decode it.
func apiError(c *gin.Context, code int, reason, msg string) {
	c.AbortWithStatusJSON(code, gin.H{
		"error": gin.H{
			"code":    code,
			"message": msg,
			"errors":  []gin.H{{"reason": reason, "message": msg}},
		},
	})
}
