package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/samkraft/samkraft-api/internal/portfolio"
	"github.com/samkraft/samkraft-api/internal/store"
)

const pingTimeout = 3 * time.Second

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Database  string    `json:"database"`
}

func (s *Server) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Timestamp: s.now().UTC(),
		Service:   serviceName,
		Database:  "connected",
	}
	if err := s.deps.Store.Ping(ctx); err != nil {
		s.logger.Warn("backend ping failed")
		resp.Status = "degraded"
		resp.Database = "unavailable"
	}
	return ok(c, resp)
}

func (s *Server) listMunicipalities(c echo.Context) error {
	items, err := s.deps.Store.ListMunicipalities(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch municipalities").WithInternal(err)
	}
	return list(c, items)
}

func (s *Server) listSkills(c echo.Context) error {
	items, err := s.deps.Store.ListSkills(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch skills").WithInternal(err)
	}
	return list(c, items)
}

func (s *Server) getPortfolio(c echo.Context) error {
	p, err := portfolio.Build(c.Request().Context(), s.deps.Store, c.Param("username"))
	if err != nil {
		if isNotFound(err) {
			return fail(c, http.StatusNotFound, "user not found or profile is private")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch portfolio").WithInternal(err)
	}
	return ok(c, p)
}

func (s *Server) verifyCertificate(c echo.Context) error {
	cert, err := s.deps.Issuer.Verify(c.Request().Context(), c.Param("hash"))
	if err != nil {
		if isNotFound(err) {
			valid := false
			return c.JSON(http.StatusNotFound, envelope{
				Success: false,
				Error:   "certificate not found or has been revoked",
				Valid:   &valid,
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to verify certificate").WithInternal(err)
	}

	valid := true
	return c.JSON(http.StatusOK, envelope{Success: true, Valid: &valid, Data: cert})
}

type turnstileRequest struct {
	Token string `json:"token"`
}

func (s *Server) verifyTurnstile(c echo.Context) error {
	var req turnstileRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return fail(c, http.StatusBadRequest, "missing token")
	}

	remoteIP := c.Request().Header.Get("CF-Connecting-IP")
	if remoteIP == "" {
		remoteIP = c.RealIP()
	}

	result, err := s.deps.Captcha.Verify(c.Request().Context(), req.Token, remoteIP)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "server error").WithInternal(err)
	}
	if !result.Success {
		return c.JSON(http.StatusForbidden, envelope{Success: false, Errors: result.ErrorCodes})
	}
	return c.JSON(http.StatusOK, envelope{Success: true})
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
