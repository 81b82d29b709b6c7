package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public exchange-rate API host.
const DefaultBaseURL = "https://api.exchangerate-api.com"

var (
	ErrNotConfigured = errors.New("exchange rate api key not configured")
	ErrAPIFailure    = errors.New("exchange rate api reported failure")
)

// ClientConfig configures the exchange-rate REST client.
type ClientConfig struct {
	APIKey  string
	BaseURL string

	// HTTPClient is an optional custom HTTP client (for testing).
	HTTPClient *http.Client

	Timeout time.Duration
}

// Client talks to the /v6/latest and /v6/convert endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(base, "/"), apiKey: cfg.APIKey}, nil
}

type latestResponse struct {
	Success   bool                       `json:"success"`
	Timestamp int64                      `json:"timestamp"`
	Base      string                     `json:"base"`
	Date      string                     `json:"date"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

type convertResponse struct {
	Success bool `json:"success"`
	Query   struct {
		From   string          `json:"from"`
		To     string          `json:"to"`
		Amount decimal.Decimal `json:"amount"`
	} `json:"query"`
	Info struct {
		Timestamp int64           `json:"timestamp"`
		Rate      decimal.Decimal `json:"rate"`
	} `json:"info"`
	Result decimal.Decimal `json:"result"`
}

// Rate returns the units of to per one unit of from.
func (c *Client) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	resp, err := doGet[latestResponse](ctx, c, "/v6/latest", url.Values{
		"base":    {from},
		"symbols": {to},
	})
	if err != nil {
		return decimal.Zero, err
	}
	if !resp.Success {
		return decimal.Zero, ErrAPIFailure
	}
	rate, ok := resp.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate %s->%s missing: %w", from, to, ErrAPIFailure)
	}
	return rate, nil
}

// Convert asks the API to convert amount and returns the result and the rate used.
func (c *Client) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (result, rate decimal.Decimal, err error) {
	resp, err := doGet[convertResponse](ctx, c, "/v6/convert", url.Values{
		"from":   {from},
		"to":     {to},
		"amount": {amount.String()},
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if !resp.Success {
		return decimal.Zero, decimal.Zero, ErrAPIFailure
	}
	return resp.Result, resp.Info.Rate, nil
}

func doGet[T any](ctx context.Context, c *Client, path string, params url.Values) (*T, error) {
	params.Set("access_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("exchange rate api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
