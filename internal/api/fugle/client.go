package fugle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/xgabrieliou-ai/my-stock-dashboard/internal/platform/http"
	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

const defaultBaseURL = "https://api.fugle.tw/marketdata/v1.0/stock"

// Client is the Fugle market-data API client. It serves native 1-minute
// candles and display names for Taiwan-exchange symbols.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *platformhttp.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Fugle client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  float64
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new Fugle API client
func NewClient(options ClientOptions) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:  options.APIKey,
		baseURL: baseURL,
		httpClient: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetries:      options.MaxRetries,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "fugle_client").Logger(),
	}
}

// Candles fetches the native 1-minute intraday candles for a symbol.
// Candles come back sorted oldest-first with strictly increasing
// timestamps; any failure, including an empty response, is reported as
// models.ErrNoData.
func (c *Client) Candles(ctx context.Context, symbol string) ([]models.Candle, error) {
	endpoint := fmt.Sprintf("%s/intraday/candles?symbol=%s&timeframe=1", c.baseURL, url.QueryEscape(symbol))

	c.logger.Debug().Str("symbol", symbol).Msg("Fetching candles")

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrNoData, err)
	}

	var data models.FugleCandlesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing candle response")
		return nil, fmt.Errorf("%w: parsing response: %v", models.ErrNoData, err)
	}
	if len(data.Data) == 0 {
		if data.Message != "" {
			c.logger.Warn().Str("message", data.Message).Msg("Fugle API error")
			return nil, fmt.Errorf("%w: %s", models.ErrNoData, data.Message)
		}
		c.logger.Warn().Str("symbol", symbol).Msg("No candles in response")
		return nil, fmt.Errorf("%w: empty response for %s", models.ErrNoData, symbol)
	}

	candles := make([]models.Candle, 0, len(data.Data))
	for _, v := range data.Data {
		ts, err := time.Parse(time.RFC3339, v.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: bad candle timestamp %q: %v", models.ErrNoData, v.Date, err)
		}
		candles = append(candles, models.Candle{
			Time:   ts,
			Open:   v.Open,
			High:   v.High,
			Low:    v.Low,
			Close:  v.Close,
			Volume: v.Volume,
		})
	}

	// Oldest first for the resampler and the rolling indicators
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})
	for i := 1; i < len(candles); i++ {
		if !candles[i].Time.After(candles[i-1].Time) {
			return nil, fmt.Errorf("%w: duplicate candle timestamp %s", models.ErrNoData, candles[i].Time)
		}
	}

	c.logger.Debug().Int("count", len(candles)).Msg("Fetched candles")
	return candles, nil
}

// StockName resolves the human display name for a symbol. Best effort:
// callers fall back to the raw symbol on error.
func (c *Client) StockName(ctx context.Context, symbol string) (string, error) {
	endpoint := fmt.Sprintf("%s/intraday/quote?symbol=%s", c.baseURL, url.QueryEscape(symbol))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}

	var quote models.FugleQuoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return "", fmt.Errorf("parsing quote response: %w", err)
	}
	if quote.Name == "" {
		return "", fmt.Errorf("no name for symbol %s", symbol)
	}
	return quote.Name, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
