package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client fetches reports from a running server. Requests are limited to one
// per second.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Fetch retrieves GET /api/stats.
func (c *Client) Fetch(ctx context.Context, detailed bool) (Report, error) {
	var rep Report
	q := url.Values{}
	if detailed {
		q.Set("detailed", "true")
	}
	err := c.get(ctx, "/api/stats", q, &rep)
	return rep, err
}

// Missing retrieves GET /api/stats/missing.
func (c *Client) Missing(ctx context.Context) (map[string]map[string][]Missing, error) {
	var out map[string]map[string][]Missing
	err := c.get(ctx, "/api/stats/missing", nil, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, q url.Values, into any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("fetch %s: %s: %s", path, resp.Status, e.Error)
		}
		return fmt.Errorf("fetch %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
