// Package api is the dashboard's HTTP surface.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/sumails/sumails/internal/models"
	"github.com/sumails/sumails/services/dashboard-api/internal/logstore"
	"github.com/sumails/sumails/services/dashboard-api/internal/metrics"
	"github.com/sumails/sumails/services/dashboard-api/internal/provider"
	"github.com/sumails/sumails/services/dashboard-api/internal/settings"
)

// OAuthIssuer builds consent URLs and exchanges authorization codes.
type OAuthIssuer interface {
	AuthURL() (string, error)
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// Directory looks up and records connected mailboxes.
type Directory interface {
	AccountsForPage(ctx context.Context, userID uuid.UUID) ([]models.ConnectedAccount, bool, error)
	FindByEmail(ctx context.Context, userID uuid.UUID, email string) (models.ConnectedAccount, error)
	Connect(ctx context.Context, account models.ConnectedAccount) (models.ConnectedAccount, error)
}

type Config struct {
	Port           int
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Issuer    OAuthIssuer
	Provider  provider.Provider
	Directory Directory
	Logs      *logstore.Store
	Validator *settings.Validator
	Settings  settings.Store
	Log       *zap.Logger
	// Now is the clock used for token expiry; defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	cfg    Config
	deps   Deps
	log    *zap.Logger
	router *gin.Engine
}

func NewServer(cfg Config, deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Validator == nil {
		deps.Validator = settings.NewValidator()
	}

	s := &Server{cfg: cfg, deps: deps, log: deps.Log}
	s.router = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(recovery(s.log), requestLogger(s.log), metrics.HTTPMetrics())
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", userHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/auth/url", s.handleAuthURL)
		api.POST("/auth/callback", requireUser(), s.handleAuthCallback)
		api.GET("/accounts", requireUser(), s.handleListAccounts)
		api.POST("/emails", s.handleFetchEmails)
		api.GET("/processing-log", s.handleProcessingLog)

		user := api.Group("/settings", requireUser())
		user.GET("", s.handleGetSettings)
		user.PUT("", s.handlePutSettings)
		user.PATCH("", s.handlePatchSettings)
	}

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting dashboard API", zap.String("addr", srv.Addr))
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down dashboard API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
