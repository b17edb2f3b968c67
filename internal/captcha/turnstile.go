// Package captcha verifies bot-mitigation tokens with Cloudflare Turnstile.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/logger"
)

const (
	DefaultEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"
	defaultTimeout  = 10 * time.Second
)

var ErrNotConfigured = errors.New("turnstile secret is not configured")

type Config struct {
	Secret   string
	Endpoint string
	Timeout  time.Duration
}

// Result is the provider verdict for a token.
type Result struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes,omitempty"`
	Hostname   string   `json:"hostname,omitempty"`
}

type Verifier struct {
	secret     string
	endpoint   string
	logger     *zap.Logger
	HTTPClient *http.Client
}

func New(cfg Config, l *zap.Logger) *Verifier {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Verifier{
		secret:     strings.TrimSpace(cfg.Secret),
		endpoint:   endpoint,
		logger:     logger.WithFields(l).Named("captcha"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (v *Verifier) Enabled() bool {
	return v != nil && v.secret != ""
}

// Verify asks the provider whether token is valid. A rejected token is not an
// error; the returned Result carries the provider error codes.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) (Result, error) {
	if !v.Enabled() {
		return Result{}, ErrNotConfigured
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("calling turnstile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("turnstile bad status: %s", resp.Status)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decoding turnstile response: %w", err)
	}

	if !result.Success {
		v.logger.Info("turnstile token rejected", zap.Strings("error_codes", result.ErrorCodes))
	}
	return result, nil
}
