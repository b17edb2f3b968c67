// Package api exposes the JSON HTTP interface.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/applications"
	"github.com/samkraft/samkraft-api/internal/auth"
	"github.com/samkraft/samkraft-api/internal/captcha"
	"github.com/samkraft/samkraft-api/internal/certificates"
	"github.com/samkraft/samkraft-api/internal/logger"
	"github.com/samkraft/samkraft-api/internal/projects"
	"github.com/samkraft/samkraft-api/internal/store"
)

const serviceName = "samkraft-api"

type Config struct {
	Address        string
	AllowedOrigins []string
	RequestTimeout time.Duration
	// Debug adds internal error details to 4xx responses.
	Debug bool
}

// Deps are the services the handlers call into.
type Deps struct {
	Store    store.Store
	Projects *projects.Service
	Recorder *applications.Recorder
	Issuer   *certificates.Issuer
	Captcha  *captcha.Verifier
	Auth     *auth.Authenticator
}

type Server struct {
	echo   *echo.Echo
	cfg    Config
	deps   Deps
	logger *zap.Logger
	now    func() time.Time
}

func New(cfg Config, deps Deps, l *zap.Logger) *Server {
	if cfg.Address == "" {
		cfg.Address = ":8080"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		echo:   echo.New(),
		cfg:    cfg,
		deps:   deps,
		logger: logger.WithFields(l).Named("api"),
		now:    time.Now,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = cfg.Debug
	s.registerMiddlewares()
	s.registerRoutes()

	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("address", s.cfg.Address))
	if err := s.echo.Start(s.cfg.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("stopping http server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) registerMiddlewares() {
	s.echo.Use(middleware.RequestID())
	s.echo.Use(s.accessLog())
	s.echo.Use(s.recoverPanics())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      func(c echo.Context) bool { return !isAPIPath(c.Request().URL.Path) },
		AllowOrigins: s.cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
	}))
	if s.cfg.RequestTimeout > 0 {
		s.echo.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: s.cfg.RequestTimeout,
		}))
	}

	s.echo.HTTPErrorHandler = s.handleError
}

func (s *Server) registerRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", s.health)
	api.GET("/projects", s.listProjects)
	api.GET("/projects/:id", s.getProject)
	api.GET("/municipalities", s.listMunicipalities)
	api.GET("/skills", s.listSkills)
	api.GET("/users/:username/portfolio", s.getPortfolio)
	api.GET("/certificates/verify/:hash", s.verifyCertificate)
	api.POST("/verify-turnstile", s.verifyTurnstile)

	if s.deps.Auth == nil {
		s.logger.Warn("authentication is not configured, private endpoints are disabled")
		return
	}

	authn := s.deps.Auth.Middleware()
	api.GET("/projects/matches", s.matchProjects, authn)
	api.POST("/projects", s.createProject, authn)
	api.PATCH("/projects/:id/status", s.changeProjectStatus, authn)
	api.POST("/projects/:id/applications", s.applyToProject, authn)
	api.GET("/me/applications", s.myApplications, authn)
	api.PATCH("/applications/:id", s.decideApplication, authn)
	api.POST("/applications/:id/certificates", s.issueCertificate, authn)
}

func isAPIPath(path string) bool {
	return path == "/api" || len(path) > 4 && path[:5] == "/api/"
}
