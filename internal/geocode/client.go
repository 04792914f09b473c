// Package geocode backfills missing Listed Country values through the
// OpenStreetMap Nominatim API. Requests are rate limited to stay inside the
// service's usage policy.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"supercli/internal/config"
	"supercli/internal/errors"
)

// Client queries Nominatim for the country of a free-form location.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewClient builds a rate-limited client from the geocode configuration.
func NewClient(cfg config.GeocodeConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.RequestDelay
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		logger:    logger,
	}
}

// searchResult is the slice element Nominatim returns for /search.
type searchResult struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Country string `json:"country"`
	} `json:"address"`
}

// Country resolves a free-form query to a country name. Returns "" without
// error when Nominatim has no answer for the query.
func (c *Client) Country(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&addressdetails=1&limit=1",
		c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", errors.FetchFailed(endpoint, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.FetchFailed(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.FetchFailed(endpoint, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", errors.FetchFailed(endpoint, err)
	}

	if len(results) == 0 || results[0].Address.Country == "" {
		c.logger.Debug("no geocode result", slog.String("query", query))
		return "", nil
	}
	return results[0].Address.Country, nil
}

// CountryForHolding tries the combined "name, address" query first, then
// falls back to the address alone. Either query failing outright is reported;
// an empty result just moves on to the next attempt.
func (c *Client) CountryForHolding(ctx context.Context, name, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", nil
	}

	if name = strings.TrimSpace(name); name != "" {
		country, err := c.Country(ctx, name+", "+address)
		if err != nil {
			return "", err
		}
		if country != "" {
			return country, nil
		}
	}
	return c.Country(ctx, address)
}
