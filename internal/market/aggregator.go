// Package market aggregates market-wide daily snapshots: up/down/flat
// breadth, trading value by segment over a rolling window, and the
// trading-value ranking.
package market

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/takumi-oka/market-log/internal/contracts"
	"github.com/takumi-oka/market-log/internal/jquants"
	"github.com/takumi-oka/market-log/internal/master"
	"github.com/takumi-oka/market-log/internal/schema"
	"github.com/takumi-oka/market-log/pkg/config"
	"github.com/takumi-oka/market-log/pkg/logger"
	"github.com/takumi-oka/market-log/pkg/redis"
)

// Aggregator orchestrates repeated snapshot fetches across a rolling window
// ⭐ SSOT: 市場全体の集計はこのアグリゲータだけ
type Aggregator struct {
	src    jquants.Source
	logger *logger.Logger
	cache  *redis.Cache // nil disables memoization
	cfg    config.MarketConfig

	// cacheID fingerprints the credential so cached aggregates are never
	// shared across API keys
	cacheID string

	// now is a seam for tests; the scan always starts from "today"
	now func() time.Time
}

// NewAggregator creates a market aggregator
func NewAggregator(src jquants.Source, cfg *config.Config, cache *redis.Cache, log *logger.Logger) *Aggregator {
	sum := sha256.Sum256([]byte(cfg.JQuants.APIKey))
	return &Aggregator{
		src:     src,
		logger:  log,
		cache:   cache,
		cfg:     cfg.Market,
		cacheID: hex.EncodeToString(sum[:4]),
		now:     time.Now,
	}
}

// daySnapshot is one accepted trading day
type daySnapshot struct {
	date time.Time
	rows []contracts.SnapshotRow
}

// fetchDay fetches and decodes one day's market snapshot. ok is false when
// the day must be skipped: fetch failure of any kind, or fewer records than
// the trading-day threshold.
func (a *Aggregator) fetchDay(ctx context.Context, date time.Time) (daySnapshot, bool) {
	raw, err := a.src.DailySnapshot(ctx, date)
	if err != nil {
		a.logger.WithFields(map[string]interface{}{
			"date":   date.Format("2006-01-02"),
			"reason": err.Error(),
		}).Debug("Skipping day")
		return daySnapshot{}, false
	}

	// Heuristic non-trading-day filter: holidays return near-empty
	// responses. Strictly more than the threshold.
	if len(raw) <= a.cfg.TradingDayThreshold {
		a.logger.WithFields(map[string]interface{}{
			"date":      date.Format("2006-01-02"),
			"records":   len(raw),
			"threshold": a.cfg.TradingDayThreshold,
		}).Debug("Skipping day below trading-day threshold")
		return daySnapshot{}, false
	}

	rows := make([]contracts.SnapshotRow, 0, len(raw))
	for _, rec := range raw {
		canonical, err := schema.Normalize(schema.KindPriceBar, rec)
		if err != nil {
			continue
		}
		if row, ok := schema.DecodeSnapshotRow(canonical); ok {
			rows = append(rows, row)
		}
	}

	return daySnapshot{date: date, rows: rows}, true
}

// Breadth scans backward from today until it has collected the configured
// number of trading days (2) or exhausted the scan budget (10 days). It
// returns the newest day's rows with day-over-day percent changes, joined
// against the security master, plus the up/down/flat counts.
//
// With a single accepted day the result is a documented degraded mode: all
// percent changes report zero. With none it is NoData.
func (a *Aggregator) Breadth(ctx context.Context) (*contracts.MarketBreadth, error) {
	today := a.now()

	var accepted []daySnapshot
	for i := 0; i < a.cfg.ScanBudget && len(accepted) < a.cfg.BreadthDays; i++ {
		date := today.AddDate(0, 0, -i)
		if snap, ok := a.fetchDay(ctx, date); ok {
			accepted = append(accepted, snap)
		}
	}

	if len(accepted) == 0 {
		return nil, contracts.NoDataError(fmt.Sprintf(
			"no trading day found within the last %d days", a.cfg.ScanBudget))
	}

	// The master join is a soft dependency here: without it rows fall back
	// to code-as-name and an unknown segment.
	mc, err := master.Load(ctx, a.src, a.logger)
	if err != nil {
		a.logger.WithError(err).Warn("Security master unavailable, breadth rows carry defaults")
		mc = nil
	}

	latest := accepted[0]
	degraded := len(accepted) < 2

	var prev map[string]contracts.SnapshotRow
	if !degraded {
		prev = make(map[string]contracts.SnapshotRow, len(accepted[1].rows))
		for _, row := range accepted[1].rows {
			prev[row.Code] = row
		}
	}

	breadth := &contracts.MarketBreadth{
		Date:     latest.date,
		Degraded: degraded,
		Rows:     make([]contracts.BreadthRow, 0, len(latest.rows)),
	}
	if !degraded {
		prevDate := accepted[1].date
		breadth.PrevDate = &prevDate
	}

	zero := 0.0
	for _, row := range latest.rows {
		out := contracts.BreadthRow{
			Code:         row.Code,
			CompanyName:  row.Code,
			Segment:      contracts.SegmentUnknown,
			Close:        row.Close,
			TradingValue: row.TradingValue,
		}

		if mc != nil {
			if name, ok := mc.Name(row.Code); ok {
				out.CompanyName = name
			}
			if segment, ok := mc.SegmentOf(row.Code); ok {
				out.Segment = segment
			} else {
				out.Segment = contracts.SegmentOthers
			}
		}

		switch {
		case degraded:
			out.PriceChangePct = &zero
			out.ValueChangePct = &zero
		default:
			if prevRow, ok := prev[row.Code]; ok {
				out.PriceChangePct = pctChange(row.Close, prevRow.Close)
				out.ValueChangePct = pctChange(row.TradingValue, prevRow.TradingValue)
			}
		}

		switch {
		case out.PriceChangePct == nil || *out.PriceChangePct == 0:
			breadth.Flat++
		case *out.PriceChangePct > 0:
			breadth.Up++
		default:
			breadth.Down++
		}

		breadth.Rows = append(breadth.Rows, out)
	}

	a.logger.WithFields(map[string]interface{}{
		"date":     latest.date.Format("2006-01-02"),
		"rows":     len(breadth.Rows),
		"degraded": degraded,
	}).Debug("Computed market breadth")

	return breadth, nil
}

// SegmentHistory sums trading value per mapped segment for each accepted
// trading day of the past windowDays calendar days, ascending by date.
// The security master is a hard dependency: segment attribution is
// meaningless without it. Skipped days are never padded; NoData only when
// every scanned day was skipped.
//
// Day fetches run on a bounded worker pool; a rate-limited day is skipped
// like any other failed day and does not abort the rest.
func (a *Aggregator) SegmentHistory(ctx context.Context, windowDays int) ([]contracts.MarketHistoryRow, error) {
	if windowDays <= 0 {
		windowDays = a.cfg.HistoryDays
	}
	today := a.now()

	cacheKey := fmt.Sprintf("segment-history:%s:%d:%s",
		a.cacheID, windowDays, today.Format("2006-01-02"))

	if a.cache != nil {
		var cached []contracts.MarketHistoryRow
		if found, err := a.cache.Get(ctx, cacheKey, &cached); err == nil && found {
			a.logger.WithField("key", cacheKey).Debug("Segment history served from cache")
			return cached, nil
		}
	}

	mc, err := master.Load(ctx, a.src, a.logger)
	if err != nil {
		return nil, contracts.DependencyError("security master list could not be loaded", err)
	}

	results := make([]*contracts.MarketHistoryRow, windowDays)

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.cfg.Concurrency)
	for i := 0; i < windowDays; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			date := today.AddDate(0, 0, -offset)
			snap, ok := a.fetchDay(ctx, date)
			if !ok {
				return
			}

			row := contracts.MarketHistoryRow{
				Date:                  snap.date,
				TradingValueBySegment: make(map[contracts.Segment]float64),
			}
			for _, r := range snap.rows {
				segment, ok := mc.SegmentOf(r.Code)
				if !ok {
					segment = contracts.SegmentOthers
				}
				row.TradingValueBySegment[segment] += r.TradingValue
			}
			results[offset] = &row
		}(i)
	}
	wg.Wait()

	history := make([]contracts.MarketHistoryRow, 0, windowDays)
	for _, row := range results {
		if row != nil {
			history = append(history, *row)
		}
	}

	if len(history) == 0 {
		return nil, contracts.NoDataError(fmt.Sprintf(
			"every day in the %d-day window was skipped", windowDays))
	}

	sort.Slice(history, func(i, j int) bool { return history[i].Date.Before(history[j].Date) })

	if a.cache != nil {
		if err := a.cache.Set(ctx, cacheKey, history, a.cfg.HistoryTTL); err != nil {
			a.logger.WithError(err).Warn("Failed to cache segment history")
		}
	}

	return history, nil
}

// RankByTradingValue sorts breadth rows descending by trading value, ties
// broken by code ascending, and keeps the top n. Pure function; the input
// slice is not modified.
func RankByTradingValue(rows []contracts.BreadthRow, n int) []contracts.BreadthRow {
	ranked := make([]contracts.BreadthRow, len(rows))
	copy(ranked, rows)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TradingValue != ranked[j].TradingValue {
			return ranked[i].TradingValue > ranked[j].TradingValue
		}
		return ranked[i].Code < ranked[j].Code
	})

	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// pctChange returns the percent change versus prev, nil when the
// denominator is zero
func pctChange(cur, prev float64) *float64 {
	if prev == 0 {
		return nil
	}
	v := (cur - prev) / prev * 100
	return &v
}
