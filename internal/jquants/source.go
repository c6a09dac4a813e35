// Package jquants is the J-Quants API client: four resource kinds, one GET
// per call, credential as a header, no retries. Response envelopes vary by
// API generation, so each endpoint probes a priority-ordered list of
// candidate top-level keys.
package jquants

import (
	"context"
	"time"

	"github.com/takumi-oka/market-log/pkg/config"
	"github.com/takumi-oka/market-log/pkg/logger"
)

// Source is the record source the fetchers and the market aggregator
// consume. The live client and the mock fixture source are interchangeable:
// both return raw (un-normalized) records and the shared error taxonomy.
// ⭐ SSOT: 外部データ源の抽象はこのインターフェースだけ
type Source interface {
	// Master returns the security master list
	Master(ctx context.Context) ([]map[string]interface{}, error)

	// PriceBars returns daily bars for one security over [from, to]
	PriceBars(ctx context.Context, apiCode string, from, to time.Time) ([]map[string]interface{}, error)

	// Financials returns financial statement summaries for one security
	Financials(ctx context.Context, apiCode string, from, to time.Time) ([]map[string]interface{}, error)

	// InvestorFlows returns investor-type flow records for one security
	InvestorFlows(ctx context.Context, apiCode string, from, to time.Time) ([]map[string]interface{}, error)

	// DailySnapshot returns the market-wide bars for one trading date
	DailySnapshot(ctx context.Context, date time.Time) ([]map[string]interface{}, error)
}

// NewSource returns the mock fixture source in mock mode, the live client
// otherwise. Downstream components are agnostic to which one they got.
func NewSource(cfg *config.Config, log *logger.Logger) Source {
	if cfg.JQuants.MockMode {
		log.Info("J-Quants mock mode enabled, using fixture dataset")
		return NewMockSource()
	}
	return NewClient(cfg, log)
}
