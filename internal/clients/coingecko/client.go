// Package coingecko queries the CoinGecko REST API for market snapshots
// and coin search.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crypto-pulse/internal/config"
	"crypto-pulse/internal/services/watchlist"
)

const (
	demoKeyHeader   = "x-cg-demo-api-key"
	priceChangeSets = "1h,24h,7d"
	maxErrBody      = 512
)

// StatusError reports a non-200 answer from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("coingecko: unexpected status %d: %s", e.Code, e.Body)
}

// Client implements watchlist.MarketData over HTTP.
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	vsCurrency string
}

// New builds a client from cfg. httpClient may be nil, in which case one with
// MARKET_DATA_TIMEOUT_SEC is created.
func New(httpClient *http.Client, cfg config.Config) *Client {
	if httpClient == nil {
		timeout := cfg.MarketDataTimeout()
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	vs := cfg.MarketVSCurrency
	if vs == "" {
		vs = "usd"
	}

	return &Client{
		http:       httpClient,
		baseURL:    strings.TrimRight(cfg.MarketDataBaseURL, "/"),
		apiKey:     cfg.MarketDataAPIKey,
		vsCurrency: vs,
	}
}

// Markets calls /coins/markets for ids. Unknown ids are simply absent.
func (c *Client) Markets(ctx context.Context, ids []string) ([]watchlist.Coin, error) {
	if len(ids) == 0 {
		return []watchlist.Coin{}, nil
	}

	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("ids", strings.Join(ids, ","))
	q.Set("price_change_percentage", priceChangeSets)

	var coins []watchlist.Coin
	if err := c.get(ctx, "/coins/markets", q, &coins); err != nil {
		return nil, err
	}
	if coins == nil {
		coins = []watchlist.Coin{}
	}
	return coins, nil
}

type searchResponse struct {
	Coins []watchlist.Candidate `json:"coins"`
}

// Search calls /search and returns the coin hits in provider order.
func (c *Client) Search(ctx context.Context, query string) ([]watchlist.Candidate, error) {
	q := url.Values{}
	q.Set("query", query)

	var resp searchResponse
	if err := c.get(ctx, "/search", q, &resp); err != nil {
		return nil, err
	}
	if resp.Coins == nil {
		return []watchlist.Candidate{}, nil
	}
	return resp.Coins, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("coingecko: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(demoKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("coingecko: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("coingecko: decode %s: %w", path, err)
	}
	return nil
}
