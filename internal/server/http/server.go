// Package http is the gin transport edge: routing, bearer authentication,
// multipart avatar upload and the mapping of error kinds to status codes.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/services"
	"github.com/gin-gonic/gin"
)

type Sessions interface {
	Signup(ctx context.Context, email, password string, fields models.ProfileFields) (*services.Session, error)
	Signin(ctx context.Context, email, password string) (*services.Session, error)
	Logout(ctx context.Context, userID string) error
	Current(user *models.User) models.CurrentUser
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type Profiles interface {
	UpdateProfile(ctx context.Context, user *models.User, upd models.ProfileUpdate) (*models.PublicProfile, error)
	UpdateAvatar(ctx context.Context, userID string, file *models.FileRef) (*models.PublicProfile, error)
}

type Federated interface {
	Initiate(ctx context.Context) (string, error)
	Complete(ctx context.Context, code, state string) (string, error)
}

type HTTPServer struct {
	address   string
	uploadDir string
	sessions  Sessions
	profiles  Profiles
	federated Federated
	logger    logging.Logger
}

func NewHTTPServer(address, uploadDir string, l logging.Logger, s Sessions, p Profiles, f Federated) *HTTPServer {
	return &HTTPServer{
		address:   address,
		uploadDir: uploadDir,
		sessions:  s,
		profiles:  p,
		federated: f,
		logger:    l.With("module", "http_server"),
	}
}

// Router builds the gin engine with every route mounted.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	_ = r.SetTrustedProxies(nil)

	api := r.Group("/api/auth")
	api.POST("/register", s.register)
	api.POST("/login", s.login)
	api.GET("/google", s.googleAuth)
	api.GET("/google-redirect", s.googleRedirect)

	authed := api.Group("", s.authenticate())
	authed.POST("/logout", s.logout)
	authed.GET("/current", s.current)
	authed.PATCH("/avatars", s.updateAvatar)
	authed.PATCH("/profile", s.updateProfile)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
