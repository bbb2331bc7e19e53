// Package pricefeed fetches current quotes from the CoinMarketCap API.
package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/irfndi/ratepulse/internal/config"
	"github.com/irfndi/ratepulse/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	quotesPath      = "/v1/cryptocurrency/quotes/latest"
	defaultCurrency = "USD"
)

// ErrNotConfigured is returned when no API key was supplied.
var ErrNotConfigured = errors.New("price API key not configured")

// PriceSource looks up the current price of an asset.
type PriceSource interface {
	LatestPrice(ctx context.Context, symbol string) (*models.CurrentPrice, bool, error)
}

// Client is a CoinMarketCap quotes client.
type Client struct {
	http     *resty.Client
	apiKey   string
	currency string
}

// quotesResponse mirrors the parts of /v1/cryptocurrency/quotes/latest we read.
type quotesResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data map[string]struct {
		ID     int    `json:"id"`
		Symbol string `json:"symbol"`
		Quote  map[string]struct {
			Price       *decimal.Decimal `json:"price"`
			LastUpdated time.Time        `json:"last_updated"`
		} `json:"quote"`
	} `json:"data"`
}

// NewClient creates a client from configuration. The API key is sent on
// every request as X-CMC_PRO_API_KEY.
func NewClient(cfg *config.PriceAPIConfig, logger *logrus.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if resp == nil {
				return false
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Accepts", "application/json").
		SetHeader("X-CMC_PRO_API_KEY", cfg.APIKey)
	if logger != nil {
		rc.SetLogger(logger)
	}

	return &Client{
		http:     rc,
		apiKey:   cfg.APIKey,
		currency: defaultCurrency,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// LatestPrice returns the current USD price for symbol. found is false when
// the API does not know the symbol or has no USD quote for it.
func (c *Client) LatestPrice(ctx context.Context, symbol string) (*models.CurrentPrice, bool, error) {
	if !c.Configured() {
		return nil, false, ErrNotConfigured
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":  symbol,
			"convert": c.currency,
		}).
		SetResult(&quotesResponse{}).
		Get(quotesPath)
	if err != nil {
		return nil, false, fmt.Errorf("price API request for %s failed: %w", symbol, err)
	}

	switch {
	case resp.StatusCode() == http.StatusBadRequest:
		// CMC answers 400 "Invalid value for symbol" for unknown symbols.
		return nil, false, nil
	case resp.IsError():
		return nil, false, fmt.Errorf("price API returned %d for %s", resp.StatusCode(), symbol)
	}

	body, ok := resp.Result().(*quotesResponse)
	if !ok || body == nil {
		return nil, false, fmt.Errorf("price API returned an unreadable body for %s", symbol)
	}
	if body.Status.ErrorCode != 0 {
		return nil, false, fmt.Errorf("price API error %d: %s", body.Status.ErrorCode, body.Status.ErrorMessage)
	}

	entry, ok := body.Data[symbol]
	if !ok {
		return nil, false, nil
	}
	quote, ok := entry.Quote[c.currency]
	if !ok || quote.Price == nil {
		return nil, false, nil
	}

	return &models.CurrentPrice{
		Symbol:    symbol,
		Price:     *quote.Price,
		Currency:  c.currency,
		UpdatedAt: quote.LastUpdated,
	}, true, nil
}
