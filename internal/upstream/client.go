package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wonny/borsa-screener/internal/normalize"
	"github.com/wonny/borsa-screener/pkg/config"
	"github.com/wonny/borsa-screener/pkg/httputil"
	"github.com/wonny/borsa-screener/pkg/logger"
	"github.com/wonny/borsa-screener/pkg/metrics"
)

const (
	// DefaultBatchSize 상세 조회 묶음 크기
	DefaultBatchSize = 10

	// DefaultHistoryDays 시간봉 조회 기본 기간
	DefaultHistoryDays = 45
	maxHistoryDays     = 90
)

// Endpoint labels used for failure metrics
const (
	EndpointSymbols    = "symbols"
	EndpointStock      = "stock"
	EndpointFiltered   = "filtered_symbols"
	EndpointPrediction = "prediction"
	EndpointHistory    = "history"
)

// Client talks to the market data and prediction service
// ⭐ SSOT: 업스트림 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	metrics    *metrics.Recorder
	baseURL    string
	batchSize  int
	limiter    *rate.Limiter
}

// NewClient creates a new upstream client
func NewClient(cfg config.UpstreamConfig, httpClient *httputil.Client, rec *metrics.Recorder, log *logger.Logger) *Client {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), batch)
	}

	return &Client{
		httpClient: httpClient,
		logger:     log,
		metrics:    rec,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		batchSize:  batch,
		limiter:    limiter,
	}
}

func (c *Client) endpoint(path string, params url.Values) string {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (c *Client) get(ctx context.Context, label, path string, params url.Values, dest interface{}) error {
	if err := c.httpClient.GetJSON(ctx, c.endpoint(path, params), dest); err != nil {
		c.metrics.RecordUpstreamFailure(label)
		return err
	}
	return nil
}

// Symbols returns the full instrument universe
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	var symbols []string
	if err := c.get(ctx, EndpointSymbols, "/stocks/symbols", nil, &symbols); err != nil {
		return nil, fmt.Errorf("fetch symbols: %w", err)
	}
	return symbols, nil
}

// Stock returns one instrument detail row
func (c *Client) Stock(ctx context.Context, symbol string) (normalize.RawStock, error) {
	var raw normalize.RawStock
	path := "/stocks/" + url.PathEscape(symbol)
	if err := c.get(ctx, EndpointStock, path, nil, &raw); err != nil {
		return normalize.RawStock{}, fmt.Errorf("fetch stock %s: %w", symbol, err)
	}
	if raw.Symbol == "" {
		raw.Symbol = symbol
	}
	return raw, nil
}

// FilteredStocks returns the rows that passed the service-side filters.
// 응답은 심볼 문자열 배열 또는 객체 배열 둘 다 가능
func (c *Client) FilteredStocks(ctx context.Context, refresh bool) ([]normalize.RawStock, error) {
	var params url.Values
	if refresh {
		params = url.Values{"refresh": {"true"}}
	}

	var items []json.RawMessage
	if err := c.get(ctx, EndpointFiltered, "/stocks/filtered-symbols", params, &items); err != nil {
		return nil, fmt.Errorf("fetch filtered symbols: %w", err)
	}

	return decodeStockItems(items)
}

func decodeStockItems(items []json.RawMessage) ([]normalize.RawStock, error) {
	out := make([]normalize.RawStock, 0, len(items))
	for i, item := range items {
		var symbol string
		if err := json.Unmarshal(item, &symbol); err == nil {
			out = append(out, normalize.RawStock{Symbol: symbol})
			continue
		}

		var raw normalize.RawStock
		if err := json.Unmarshal(item, &raw); err != nil {
			return nil, fmt.Errorf("decode filtered item %d: %w", i, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// Prediction returns the per-symbol multi-model prediction payload
func (c *Client) Prediction(ctx context.Context, symbol string) (normalize.RawPrediction, error) {
	var raw normalize.RawPrediction
	path := "/stocks/prediction/" + url.PathEscape(symbol)
	if err := c.get(ctx, EndpointPrediction, path, nil, &raw); err != nil {
		return normalize.RawPrediction{}, fmt.Errorf("fetch prediction %s: %w", symbol, err)
	}
	if raw.Symbol == "" {
		raw.Symbol = symbol
	}
	return raw, nil
}

// historyResponse is the saatlik-data envelope
type historyResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    []normalize.RawBar `json:"data"`
}

// History returns hourly bars for the last days (clamped to 1..90).
// success=false 응답은 에러가 아닌 빈 결과
func (c *Client) History(ctx context.Context, symbol string, days int) ([]normalize.RawBar, error) {
	days = ClampDays(days)

	var resp historyResponse
	path := "/stocks/saatlik-data/" + url.PathEscape(symbol)
	params := url.Values{"days": {strconv.Itoa(days)}}
	if err := c.get(ctx, EndpointHistory, path, params, &resp); err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", symbol, err)
	}

	if !resp.Success {
		c.logger.WithFields(map[string]interface{}{
			"symbol":  symbol,
			"message": resp.Message,
		}).Warn("Upstream returned no hourly data")
		return []normalize.RawBar{}, nil
	}
	return resp.Data, nil
}

// ClampDays bounds a history window to 1..90 days (0 → default)
func ClampDays(days int) int {
	switch {
	case days == 0:
		return DefaultHistoryDays
	case days < 1:
		return 1
	case days > maxHistoryDays:
		return maxHistoryDays
	}
	return days
}

// FetchStocks fetches detail rows in batches, paced by the limiter.
// 실패한 심볼은 로그 후 건너뜀 (부분 결과 반환); 입력 순서 유지
func (c *Client) FetchStocks(ctx context.Context, symbols []string) ([]normalize.RawStock, error) {
	start := time.Now()
	out := make([]normalize.RawStock, 0, len(symbols))
	failed := 0

	for from := 0; from < len(symbols); from += c.batchSize {
		to := from + c.batchSize
		if to > len(symbols) {
			to = len(symbols)
		}
		batch := symbols[from:to]

		results := make([]*normalize.RawStock, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, sym := range batch {
			i, sym := i, sym
			g.Go(func() error {
				if c.limiter != nil {
					if err := c.limiter.Wait(gctx); err != nil {
						return err
					}
				}
				raw, err := c.Stock(gctx, sym)
				if err != nil {
					c.logger.WithFields(map[string]interface{}{
						"symbol": sym,
						"error":  err.Error(),
					}).Warn("Skipping symbol after upstream failure")
					return nil
				}
				results[i] = &raw
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return out, fmt.Errorf("fetch batch %d-%d: %w", from, to, err)
		}
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("fetch batch %d-%d: %w", from, to, err)
		}

		for _, r := range results {
			if r == nil {
				failed++
				continue
			}
			out = append(out, *r)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"fetched":   len(out),
		"failed":    failed,
		"duration":  time.Since(start).String(),
	}).Info("Fetched stock details")
	c.metrics.ObserveDuration("upstream_fetch", time.Since(start))

	return out, nil
}

// FetchUniverse fetches the symbol list then every detail row
func (c *Client) FetchUniverse(ctx context.Context) ([]normalize.RawStock, error) {
	symbols, err := c.Symbols(ctx)
	if err != nil {
		return nil, err
	}
	return c.FetchStocks(ctx, symbols)
}
