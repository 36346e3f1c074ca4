// Package backend is the HTTP client for the trading bot backend API.
package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"botdash/internal/model"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Endpoint paths relative to the API base URL.
const (
	PathStatus      = "/bot/status"
	PathConfig      = "/bot/config"
	PathStart       = "/bot/start"
	PathStop        = "/bot/stop"
	PathReset       = "/bot/reset"
	PathSummary     = "/account/summary"
	PathHistory     = "/trade/history"
	PathHoldings    = "/trade/holdings"
	PathPerformance = "/account/performance"
	PathMarketChart = "/market/chart"
)

const HeaderRequestID = "X-Request-ID"

// Observer receives the outcome of every request. err is nil on 2xx.
type Observer interface {
	ObserveRequest(endpoint string, elapsed time.Duration, err error)
}

type Client struct {
	base string
	rest *resty.Client
	obs  Observer
}

func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	r.SetHeader("Accept", "application/json")
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

// SetObserver installs o. Call before the client is shared.
func (c *Client) SetObserver(o Observer) {
	c.obs = o
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.base
}

func (c *Client) Status(ctx context.Context) (model.BotConfig, error) {
	var cfg model.BotConfig
	err := c.get(ctx, PathStatus, nil, &cfg)
	return cfg, err
}

func (c *Client) Summary(ctx context.Context) (model.AccountSummary, error) {
	var s model.AccountSummary
	err := c.get(ctx, PathSummary, nil, &s)
	return s, err
}

func (c *Client) TradeHistory(ctx context.Context) ([]model.Trade, error) {
	var trades []model.Trade
	err := c.get(ctx, PathHistory, nil, &trades)
	return trades, err
}

func (c *Client) Holdings(ctx context.Context) ([]model.Holding, error) {
	var holdings []model.Holding
	err := c.get(ctx, PathHoldings, nil, &holdings)
	return holdings, err
}

func (c *Client) Performance(ctx context.Context) ([]model.AccountSnapshot, error) {
	var snaps []model.AccountSnapshot
	err := c.get(ctx, PathPerformance, nil, &snaps)
	return snaps, err
}

func (c *Client) MarketChart(ctx context.Context, interval model.Interval) ([]model.MarketBar, error) {
	var bars []model.MarketBar
	err := c.get(ctx, PathMarketChart, map[string]string{"interval": string(interval)}, &bars)
	return bars, err
}

// UpdateConfig posts the full configuration object.
func (c *Client) UpdateConfig(ctx context.Context, cfg model.BotConfig) error {
	return c.post(ctx, PathConfig, nil, cfg)
}

func (c *Client) Start(ctx context.Context, interval model.Interval) error {
	return c.post(ctx, PathStart, map[string]string{"interval": string(interval)}, nil)
}

func (c *Client) Stop(ctx context.Context) error {
	return c.post(ctx, PathStop, nil, nil)
}

// Reset clears backtest history on the backend.
func (c *Client) Reset(ctx context.Context) error {
	return c.post(ctx, PathReset, nil, nil)
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, result any) error {
	req := c.rest.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(result)
	if params != nil {
		req.SetQueryParams(params)
	}
	return c.do(req, http.MethodGet, path)
}

// post sends a command. Commands carry a fresh request ID so backend logs
// can be matched to dashboard logs.
func (c *Client) post(ctx context.Context, path string, params map[string]string, body any) error {
	req := c.rest.R().
		SetContext(ctx).
		SetHeader(HeaderRequestID, uuid.NewString())
	if params != nil {
		req.SetQueryParams(params)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	return c.do(req, http.MethodPost, path)
}

func (c *Client) do(req *resty.Request, method, path string) (err error) {
	start := time.Now()
	defer func() {
		if c.obs != nil {
			c.obs.ObserveRequest(path, time.Since(start), err)
		}
	}()

	resp, err := req.Execute(method, c.base+path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return newAPIError(method, path, resp.StatusCode(), resp.Body())
	}
	return nil
}
