// Package postgrest implements store.Store on top of a PostgREST endpoint
// such as the Supabase REST API.
package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/store"
)

const (
	restPath  = "/rest/v1"
	userAgent = "samkraft-api"

	defaultPageSize = 100
	defaultTimeout  = 10 * time.Second
)

// Config holds connection settings. It is built once at process start.
type Config struct {
	URL        string
	ServiceKey string
	Timeout    time.Duration
	PageSize   int
}

type Client struct {
	logger     *zap.Logger
	serviceKey string
	pageSize   int
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

var _ store.Store = (*Client)(nil)

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend url is not configured")
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("backend service key is not configured")
	}
	if !strings.HasSuffix(base, restPath) {
		base += restPath
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		logger:     logger.Named("postgrest"),
		serviceKey: cfg.ServiceKey,
		pageSize:   pageSize,
		APIURL:     base,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: userAgent,
	}, nil
}

// Ping checks that the backend answers a minimal query.
func (c *Client) Ping(ctx context.Context) error {
	q := newQuery().Select("id").Limit(1)
	_, err := c.getPage(ctx, "projects", q.values)
	return err
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/%s", c.APIURL, table)
}
