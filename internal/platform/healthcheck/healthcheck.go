// Package healthcheck calls a running service's health endpoints. It backs the
// "healthcheck" subcommand used by container orchestrators.
package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Result is the decoded body of /health or /health/db.
type Result struct {
	Status  string                 `json:"status"`
	Service string                 `json:"service,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Pool    map[string]interface{} `json:"pool,omitempty"`
}

// Client checks one service base URL.
type Client struct {
	http *resty.Client
}

// New returns a client that retries transient failures up to retries times.
func New(baseURL string, timeout time.Duration, retries int) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &Client{http: client}
}

// Check requests path and fails unless the service answers 200.
func (c *Client) Check(ctx context.Context, path string) (*Result, error) {
	var result Result
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&result).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		if result.Error != "" {
			return &result, fmt.Errorf("check %s: status %d: %s", path, resp.StatusCode(), result.Error)
		}
		return &result, fmt.Errorf("check %s: status %d", path, resp.StatusCode())
	}
	return &result, nil
}

// CheckAll checks /health and, when withDB is set, /health/db.
func (c *Client) CheckAll(ctx context.Context, withDB bool) error {
	if _, err := c.Check(ctx, "/health"); err != nil {
		return err
	}
	if withDB {
		if _, err := c.Check(ctx, "/health/db"); err != nil {
			return err
		}
	}
	return nil
}
