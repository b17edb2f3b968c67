package postgrest

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/logger"
	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/store"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"

	maxLoggedBodyLength = 512
)

// APIError is the error document returned by PostgREST.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bad status: %d", e.Status)
	}
	return fmt.Sprintf("bad status: %d: %s", e.Status, e.Message)
}

// GetItems makes GET requests to the table and returns rows from all pages.
// Paging stops at the first empty page. A positive limit stops paging once
// that many rows are collected.
func (c *Client) GetItems(ctx context.Context, table string, q url.Values, limit int) ([]models.Record, error) {
	var items []models.Record

	for offset := 0; ; {
		size := c.pageSize
		if limit > 0 && limit-len(items) < size {
			size = limit - len(items)
		}

		page := cloneValues(q)
		page.Set("limit", strconv.Itoa(size))
		page.Set("offset", strconv.Itoa(offset))

		rows, err := c.getPage(ctx, table, page)
		if err != nil {
			return nil, err
		}
		items = append(items, rows...)

		// The server may cap pages below size (db-max-rows), so only an
		// empty page marks the end.
		if len(rows) == 0 || (limit > 0 && len(items) >= limit) {
			break
		}

		c.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"page at offset %d returned %d rows", offset, len(rows)),
		))
		offset += len(rows)
	}

	return items, nil
}

// getOne returns the first row matching q or store.ErrNotFound.
func (c *Client) getOne(ctx context.Context, table string, q url.Values) (models.Record, error) {
	page := cloneValues(q)
	page.Set("limit", "1")

	rows, err := c.getPage(ctx, table, page)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return rows[0], nil
}

func (c *Client) getPage(ctx context.Context, table string, q url.Values) ([]models.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL(table), nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.URL.RawQuery = q.Encode()

	var rows []models.Record
	if err := c.do(req, http.StatusOK, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// insert creates a row and returns its stored representation.
func (c *Client) insert(ctx context.Context, table string, body any, q url.Values) (models.Record, error) {
	rows, err := c.write(ctx, http.MethodPost, table, body, q, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert into %s returned no rows", table)
	}
	return rows[0], nil
}

// update patches the rows matching q and returns the first updated one.
func (c *Client) update(ctx context.Context, table string, body any, q url.Values) (models.Record, error) {
	rows, err := c.write(ctx, http.MethodPatch, table, body, q, http.StatusOK)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return rows[0], nil
}

func (c *Client) write(ctx context.Context, method, table string, body any, q url.Values, expected int) ([]models.Record, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding %s body: %w", table, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.tableURL(table), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Prefer", "return=representation")
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	var rows []models.Record
	if err := c.do(req, expected, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) do(req *http.Request, expected int, target any) error {
	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode != expected && resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil {
			apiErr.Message = logger.TruncateForLog(string(data), maxLoggedBodyLength)
		}
		c.logger.Debug("backend returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logger.TruncateForLog(string(data), maxLoggedBodyLength)),
		)
		return apiErr
	}

	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	return json.Unmarshal(data, target)
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceKey))
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
