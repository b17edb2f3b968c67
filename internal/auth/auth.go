// Package auth authenticates API callers with bearer tokens issued by the backend.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/logger"
	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/store"
)

const viewerKey = "viewer"

var ErrUnauthorized = errors.New("unauthorized")

type Authenticator struct {
	secret []byte
	users  store.Users
	logger *zap.Logger
}

func New(secret string, users store.Users, l *zap.Logger) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is not configured")
	}
	return &Authenticator{
		secret: []byte(secret),
		users:  users,
		logger: logger.WithFields(l).Named("auth"),
	}, nil
}

// UserID validates a raw token and returns its subject.
func (a *Authenticator) UserID(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if !token.Valid {
		return "", fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", fmt.Errorf("%w: invalid subject: %w", ErrUnauthorized, err)
	}
	return id.String(), nil
}

// Authenticate resolves the profile of the bearer of an Authorization header value.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (models.Profile, error) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		return models.Profile{}, fmt.Errorf("%w: expected bearer token", ErrUnauthorized)
	}

	userID, err := a.UserID(strings.TrimSpace(raw))
	if err != nil {
		return models.Profile{}, err
	}

	profile, err := a.users.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Profile{}, fmt.Errorf("%w: unknown user %s", ErrUnauthorized, userID)
	}
	if err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// caller profile in the echo context.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			profile, err := a.Authenticate(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if errors.Is(err, ErrUnauthorized) {
				a.logger.Debug("rejected request", zap.Error(err))
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required").WithInternal(err)
			}
			if err != nil {
				return err
			}

			c.Set(viewerKey, profile)
			return next(c)
		}
	}
}

// Viewer returns the authenticated caller of the request.
func Viewer(c echo.Context) (models.Profile, bool) {
	profile, ok := c.Get(viewerKey).(models.Profile)
	return profile, ok
}

// Sign issues an HS256 token for userID. It is used by tooling and tests.
func Sign(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
