package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/applications"
	"github.com/samkraft/samkraft-api/internal/certificates"
	"github.com/samkraft/samkraft-api/internal/lifecycle"
	"github.com/samkraft/samkraft-api/internal/store"
)

// toHTTPError maps domain errors to HTTP errors. Unknown errors become 500.
func toHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, validationMessage(ve)).WithInternal(err)
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found").WithInternal(err)
	case errors.Is(err, lifecycle.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "forbidden").WithInternal(err)
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, "invalid status transition").WithInternal(err)
	case errors.Is(err, applications.ErrDuplicateApplication):
		return echo.NewHTTPError(http.StatusConflict, "already applied to this project").WithInternal(err)
	case errors.Is(err, applications.ErrProjectFull):
		return echo.NewHTTPError(http.StatusConflict, "project has no free places").WithInternal(err)
	case errors.Is(err, certificates.ErrNotCompleted):
		return echo.NewHTTPError(http.StatusConflict, "participation is not completed").WithInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)).WithInternal(err)
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he := toHTTPError(err)

	message, ok := he.Message.(string)
	if !ok {
		message = http.StatusText(he.Code)
	}

	if he.Code >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.Error(err),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
		)
	} else {
		s.logger.Debug("request rejected", zap.Error(err), zap.Int("status", he.Code))
		if s.cfg.Debug && he.Internal != nil {
			message = message + ": " + he.Internal.Error()
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, envelope{Success: false, Error: message})
	}
	if err != nil {
		s.logger.Error("could not send error response", zap.Error(err))
	}
}
