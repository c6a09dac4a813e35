package jquants

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/takumi-oka/market-log/internal/contracts"
	"github.com/takumi-oka/market-log/pkg/config"
	"github.com/takumi-oka/market-log/pkg/httputil"
	"github.com/takumi-oka/market-log/pkg/logger"
)

const dateFormat = "20060102"

// Envelope key candidates per endpoint, in priority order. Older API
// generations wrapped the payload array under different top-level keys.
var (
	barsEnvelope     = []string{"daily_quotes", "quotes", "data"}
	masterEnvelope   = []string{"info", "listed_info", "data"}
	finsEnvelope     = []string{"statements", "summaries", "data"}
	investorEnvelope = []string{"trades_spec", "investor_types", "data"}
)

// Client handles communication with the J-Quants API
// ⭐ SSOT: J-Quants API呼び出しはこのクライアントだけ
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new J-Quants client
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	httpClient := httputil.New(log, cfg.JQuants.Timeout).
		WithRateLimit(cfg.JQuants.RatePerSecond).
		WithHeader("x-api-key", strings.TrimSpace(cfg.JQuants.APIKey))

	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(cfg.JQuants.BaseURL, "/"),
	}
}

// Master fetches the security master list
func (c *Client) Master(ctx context.Context) ([]map[string]interface{}, error) {
	return c.fetch(ctx, "/equities/master", nil, masterEnvelope)
}

// PriceBars fetches daily price bars for one security
func (c *Client) PriceBars(ctx context.Context, apiCode string, from, to time.Time) ([]map[string]interface{}, error) {
	params := url.Values{}
	params.Set("code", apiCode)
	params.Set("from", from.Format(dateFormat))
	params.Set("to", to.Format(dateFormat))
	return c.fetch(ctx, "/equities/bars/daily", params, barsEnvelope)
}

// Financials fetches financial statement summaries for one security
func (c *Client) Financials(ctx context.Context, apiCode string, from, to time.Time) ([]map[string]interface{}, error) {
	params := url.Values{}
	params.Set("code", apiCode)
	params.Set("from", from.Format(dateFormat))
	params.Set("to", to.Format(dateFormat))
	return c.fetch(ctx, "/fins/summary", params, finsEnvelope)
}

// InvestorFlows fetches investor-type flow records for one security
func (c *Client) InvestorFlows(ctx context.Context, apiCode string, from, to time.Time) ([]map[string]interface{}, error) {
	params := url.Values{}
	params.Set("code", apiCode)
	params.Set("from", from.Format(dateFormat))
	params.Set("to", to.Format(dateFormat))
	return c.fetch(ctx, "/equities/investor-types", params, investorEnvelope)
}

// DailySnapshot fetches the market-wide bars for one trading date
func (c *Client) DailySnapshot(ctx context.Context, date time.Time) ([]map[string]interface{}, error) {
	params := url.Values{}
	params.Set("date", date.Format(dateFormat))
	return c.fetch(ctx, "/equities/bars/daily", params, barsEnvelope)
}

// fetch issues exactly one GET and maps the response onto the error
// taxonomy: 200 + records -> success, 200 + empty -> NoData, 429 ->
// RateLimited, other non-200 -> APIError, network/parse -> TransportError,
// 200 without any known envelope key -> UnrecognizedSchema.
func (c *Client) fetch(ctx context.Context, path string, params url.Values, envelopeKeys []string) ([]map[string]interface{}, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, contracts.TransportError(fmt.Sprintf("GET %s", path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, contracts.RateLimitedError(fmt.Sprintf("GET %s", path))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, contracts.TransportError(fmt.Sprintf("read body of GET %s", path), err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("GET %s: %s", path, truncate(string(body), 200))
		return nil, contracts.APIError(resp.StatusCode, detail)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, contracts.TransportError(fmt.Sprintf("decode body of GET %s", path), err)
	}

	records, found := probeEnvelope(payload, envelopeKeys)
	if !found {
		return nil, contracts.SchemaError(fmt.Sprintf(
			"GET %s: none of the envelope keys %v present", path, envelopeKeys))
	}

	if len(records) == 0 {
		return nil, contracts.NoDataError(fmt.Sprintf("GET %s returned an empty record array", path))
	}

	c.logger.WithFields(map[string]interface{}{
		"path":  path,
		"count": len(records),
	}).Debug("Fetched records")

	return records, nil
}

// probeEnvelope returns the record array under the first candidate key
// present in the payload
func probeEnvelope(payload map[string]interface{}, keys []string) ([]map[string]interface{}, bool) {
	for _, key := range keys {
		raw, present := payload[key]
		if !present {
			continue
		}

		arr, ok := raw.([]interface{})
		if !ok {
			continue
		}

		records := make([]map[string]interface{}, 0, len(arr))
		for _, item := range arr {
			if rec, ok := item.(map[string]interface{}); ok {
				records = append(records, rec)
			}
		}
		return records, true
	}
	return nil, false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
