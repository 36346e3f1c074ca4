package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"botdash/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method    string
	Path      string
	Query     string
	Body      string
	RequestID string
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]http.HandlerFunc
}

func newFakeBackend(t *testing.T, handlers map[string]http.HandlerFunc) (*fakeBackend, *httptest.Server) {
	fb := &fakeBackend{handlers: handlers}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.requests = append(fb.requests, recordedRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Body:      string(body),
			RequestID: r.Header.Get(HeaderRequestID),
		})
		fb.mu.Unlock()

		if h, ok := fb.handlers[r.Method+" "+r.URL.Path]; ok {
			h(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) Requests() []recordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]recordedRequest(nil), fb.requests...)
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string][]error
}

func (o *recordingObserver) ObserveRequest(endpoint string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = make(map[string][]error)
	}
	o.calls[endpoint] = append(o.calls[endpoint], err)
}

func TestClientReads(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]http.HandlerFunc{
		"GET /api/bot/status":          jsonHandler(200, `{"selectedSymbol":"BTCUSDT","tradingMode":"TRAINING","status":"PAUSED"}`),
		"GET /api/account/summary":     jsonHandler(200, `{"currentBalance":"900.5","currentPortfolioValue":"1100.25","initialCapital":"1000","totalProfitLoss":"100.25"}`),
		"GET /api/trade/history":       jsonHandler(200, `[{"id":1,"timestamp":"2024-03-01T10:00:00","symbol":"BTCUSDT","action":"BUY","quantity":"0.01","price":"60000","fee":"0.6","profitLoss":"0","finalBalance":"399.4","strategyName":"EMA"}]`),
		"GET /api/trade/holdings":      jsonHandler(200, `[{"symbol":"BTCUSDT","quantity":"0.01","avgBuyPrice":"60000"}]`),
		"GET /api/account/performance": jsonHandler(200, `[{"id":7,"timestamp":"2024-03-01T10:00:00","totalBalance":"1000","cashBalance":"400","cryptoBalance":"600"}]`),
		"GET /api/market/chart":        jsonHandler(200, `[{"openTime":"2024-03-01T10:00:00","closePrice":"60100.5"}]`),
	})

	c := New(srv.URL+"/api/", time.Second)
	ctx := context.Background()

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.BotConfig{SelectedSymbol: "BTCUSDT", TradingMode: model.ModeTraining, Status: model.StatusPaused}, status)

	summary, err := c.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, summary.TotalProfitLoss.Equal(decimal.RequireFromString("100.25")))

	trades, err := c.TradeHistory(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, model.ActionBuy, trades[0].Action)
	assert.Equal(t, "EMA", trades[0].StrategyName)

	holdings, err := c.Holdings(ctx)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "BTCUSDT", holdings[0].Symbol)

	snaps, err := c.Performance(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(7), snaps[0].ID)

	bars, err := c.MarketChart(ctx, model.Interval4h)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.True(t, bars[0].ClosePrice.Equal(decimal.RequireFromString("60100.5")))
}

func TestClientMarketChartSendsInterval(t *testing.T) {
	fb, srv := newFakeBackend(t, map[string]http.HandlerFunc{
		"GET /market/chart": jsonHandler(200, `[]`),
	})

	_, err := New(srv.URL, time.Second).MarketChart(context.Background(), model.Interval1d)
	require.NoError(t, err)

	reqs := fb.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "interval=1d", reqs[0].Query)
}

func TestClientCommands(t *testing.T) {
	fb, srv := newFakeBackend(t, nil)
	c := New(srv.URL, time.Second)
	ctx := context.Background()

	require.NoError(t, c.UpdateConfig(ctx, model.BotConfig{SelectedSymbol: "ETHUSDT", TradingMode: model.ModeTrading, Status: model.StatusIdle}))
	require.NoError(t, c.Start(ctx, model.Interval5m))
	require.NoError(t, c.Stop(ctx))
	require.NoError(t, c.Reset(ctx))

	reqs := fb.Requests()
	require.Len(t, reqs, 4)

	assert.Equal(t, "POST", reqs[0].Method)
	assert.Equal(t, "/bot/config", reqs[0].Path)
	var sent model.BotConfig
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &sent))
	assert.Equal(t, "ETHUSDT", sent.SelectedSymbol)
	assert.Equal(t, model.ModeTrading, sent.TradingMode)

	assert.Equal(t, "/bot/start", reqs[1].Path)
	assert.Equal(t, "interval=5m", reqs[1].Query)
	assert.Equal(t, "/bot/stop", reqs[2].Path)
	assert.Equal(t, "/bot/reset", reqs[3].Path)

	seen := map[string]bool{}
	for _, r := range reqs {
		assert.NotEmpty(t, r.RequestID, "command %s without request id", r.Path)
		assert.False(t, seen[r.RequestID], "request id reused")
		seen[r.RequestID] = true
	}
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "json message",
			handler:     jsonHandler(http.StatusConflict, `{"status":409,"message":"Bot is already running"}`),
			wantStatus:  http.StatusConflict,
			wantMessage: "Bot is already running",
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "plain text body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "gateway exploded", http.StatusBadGateway)
			},
			wantStatus:  http.StatusBadGateway,
			wantMessage: "gateway exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newFakeBackend(t, map[string]http.HandlerFunc{"POST /bot/start": tt.handler})

			err := New(srv.URL, time.Second).Start(context.Background(), model.Interval1h)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, "/bot/start", apiErr.Endpoint)
			assert.Equal(t, tt.wantStatus == http.StatusConflict, IsConflict(err))
		})
	}
}

func TestClientStatusErrorKeepsZeroValue(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]http.HandlerFunc{
		"GET /bot/status": jsonHandler(http.StatusServiceUnavailable, `{"message":"warming up"}`),
	})

	cfg, err := New(srv.URL, time.Second).Status(context.Background())
	require.Error(t, err)
	assert.Equal(t, model.BotConfig{}, cfg)
	assert.Contains(t, err.Error(), "503 warming up")
}

func TestClientNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	c := New(url, time.Second)
	c.SetObserver(obs)

	err := c.Stop(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	require.Len(t, obs.calls["/bot/stop"], 1)
	assert.Error(t, obs.calls["/bot/stop"][0])
}

func TestClientContextCancel(t *testing.T) {
	release := make(chan struct{})
	_, srv := newFakeBackend(t, map[string]http.HandlerFunc{
		"GET /bot/status": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		},
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := New(srv.URL, 5*time.Second).Status(ctx)
	require.Error(t, err)
	assert.Error(t, ctx.Err())
}

func TestClientObserverSeesSuccess(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]http.HandlerFunc{
		"GET /trade/holdings": jsonHandler(200, `[]`),
	})
	obs := &recordingObserver{}
	c := New(srv.URL, time.Second)
	c.SetObserver(obs)

	holdings, err := c.Holdings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, holdings)
	require.Len(t, obs.calls["/trade/holdings"], 1)
	assert.NoError(t, obs.calls["/trade/holdings"][0])
}
