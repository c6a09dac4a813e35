// Package stock produces the canonical per-security tables: price history,
// full-year financial statements with valuation ratios, and investor flows.
package stock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/takumi-oka/market-log/internal/contracts"
	"github.com/takumi-oka/market-log/internal/jquants"
	"github.com/takumi-oka/market-log/internal/schema"
	"github.com/takumi-oka/market-log/pkg/config"
	"github.com/takumi-oka/market-log/pkg/logger"
)

// Service orchestrates the API client and the normalizer for one security
// ⭐ SSOT: 銘柄単位のデータ整形はこのサービスだけ
type Service struct {
	src      jquants.Source
	logger   *logger.Logger
	lookback time.Duration
	buffer   time.Duration
}

// NewService creates a stock data service
func NewService(src jquants.Source, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{
		src:      src,
		logger:   log,
		lookback: cfg.JQuants.PriceLookback,
		buffer:   cfg.JQuants.LookbackBuffer,
	}
}

// window returns the fetch window: the product lookback plus a buffer so
// the as-of price join always has a bar before the oldest disclosure.
func (s *Service) window() (time.Time, time.Time) {
	to := time.Now()
	from := to.Add(-s.lookback - s.buffer)
	return from, to
}

// PriceHistory returns the canonical price table for one security, sorted
// ascending by date. The code may be given in either digit form; bars carry
// the display form.
func (s *Service) PriceHistory(ctx context.Context, code string) ([]contracts.PriceBar, error) {
	apiCode := contracts.APICode(code)
	from, to := s.window()

	raw, err := s.src.PriceBars(ctx, apiCode, from, to)
	if err != nil {
		return nil, err
	}

	display := contracts.DisplayCode(code)
	bars := make([]contracts.PriceBar, 0, len(raw))
	for _, rec := range raw {
		canonical, err := schema.Normalize(schema.KindPriceBar, rec)
		if err != nil {
			return nil, err
		}
		bar, ok := schema.DecodePriceBar(canonical)
		if !ok {
			continue
		}
		if bar.Code == "" {
			bar.Code = display
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, contracts.NoDataError(fmt.Sprintf("no usable price bars for %s", display))
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	s.logger.WithFields(map[string]interface{}{
		"code":  display,
		"count": len(bars),
	}).Debug("Fetched price history")

	return bars, nil
}

// LatestQuote returns the newest close and its day-over-day delta for the
// watch board. With a single bar the delta is zero.
func (s *Service) LatestQuote(ctx context.Context, code string) (contracts.Quote, error) {
	bars, err := s.PriceHistory(ctx, code)
	if err != nil {
		return contracts.Quote{}, err
	}

	latest := bars[len(bars)-1]
	quote := contracts.Quote{
		Code:  latest.Code,
		Date:  latest.Date,
		Close: latest.Close,
	}
	if len(bars) >= 2 {
		quote.PrevClose = bars[len(bars)-2].Close
		quote.CloseDelta = latest.Close - quote.PrevClose
	}
	return quote, nil
}

// RecentHistory reshapes an ascending price series into the last-n table,
// newest first, with day-over-day percent changes and trading value in oku.
// Pure function.
func RecentHistory(bars []contracts.PriceBar, n int) []contracts.RecentRow {
	start := len(bars) - n
	if start < 0 {
		start = 0
	}

	rows := make([]contracts.RecentRow, 0, len(bars)-start)
	for i := len(bars) - 1; i >= start; i-- {
		row := contracts.RecentRow{
			Date:            bars[i].Date,
			Close:           bars[i].Close,
			TradingValueOku: bars[i].TradingValue / contracts.Oku,
		}
		if i > 0 {
			row.ClosePct = pctChange(bars[i].Close, bars[i-1].Close)
			row.ValuePct = pctChange(bars[i].TradingValue, bars[i-1].TradingValue)
		}
		rows = append(rows, row)
	}
	return rows
}

// FinancialHistory returns the canonical financial-statement table: only
// full-year actual filings, one per fiscal period end (the latest
// disclosure wins), with PER/PBR computed against the given price series.
func (s *Service) FinancialHistory(ctx context.Context, code string, prices []contracts.PriceBar) ([]contracts.FinancialStatement, error) {
	apiCode := contracts.APICode(code)
	from, to := s.window()

	raw, err := s.src.Financials(ctx, apiCode, from, to)
	if err != nil {
		return nil, err
	}

	// Filter to full-year actuals, dedup per fiscal period end
	byPeriod := make(map[time.Time]contracts.FinancialStatement)
	for _, rec := range raw {
		canonical, err := schema.Normalize(schema.KindStatement, rec)
		if err != nil {
			return nil, err
		}
		st, ok := schema.DecodeStatement(canonical)
		if !ok {
			continue
		}
		if !isFullYearActual(st.DocumentType) {
			continue
		}

		if kept, exists := byPeriod[st.FiscalPeriodEnd]; !exists || st.DisclosureDate.After(kept.DisclosureDate) {
			byPeriod[st.FiscalPeriodEnd] = st
		}
	}

	if len(byPeriod) == 0 {
		return nil, contracts.NoDataError(fmt.Sprintf(
			"no full-year filings for %s", contracts.DisplayCode(code)))
	}

	statements := make([]contracts.FinancialStatement, 0, len(byPeriod))
	for _, st := range byPeriod {
		st.PER, st.PBR = valuationRatios(st, prices)
		statements = append(statements, st)
	}

	sort.Slice(statements, func(i, j int) bool {
		return statements[i].DisclosureDate.Before(statements[j].DisclosureDate)
	})

	return statements, nil
}

// InvestorFlows returns the weekly net foreign / net individual flow series
// for one security, ascending by date.
func (s *Service) InvestorFlows(ctx context.Context, code string) ([]contracts.InvestorFlowRecord, error) {
	apiCode := contracts.APICode(code)
	from, to := s.window()

	raw, err := s.src.InvestorFlows(ctx, apiCode, from, to)
	if err != nil {
		return nil, err
	}

	flows := make([]contracts.InvestorFlowRecord, 0, len(raw))
	for _, rec := range raw {
		canonical, err := schema.Normalize(schema.KindInvestorFlow, rec)
		if err != nil {
			return nil, err
		}
		if flow, ok := schema.DecodeInvestorFlow(canonical); ok {
			flows = append(flows, flow)
		}
	}

	if len(flows) == 0 {
		return nil, contracts.NoDataError(fmt.Sprintf(
			"no investor-flow records for %s", contracts.DisplayCode(code)))
	}

	sort.Slice(flows, func(i, j int) bool { return flows[i].Date.Before(flows[j].Date) })
	return flows, nil
}

// isFullYearActual keeps full-year / 4th-quarter actual filings and drops
// forecasts. Case-insensitive substring match on the document-type tag.
func isFullYearActual(docType string) bool {
	tag := strings.ToLower(docType)
	if strings.Contains(tag, "forecast") {
		return false
	}
	return strings.Contains(tag, "fy") || strings.Contains(tag, "4q")
}

// valuationRatios computes PER/PBR from the price as of the disclosure
// date. Undefined (nil) when EPS/BPS are absent or not positive, or when no
// bar exists at or before the disclosure.
func valuationRatios(st contracts.FinancialStatement, prices []contracts.PriceBar) (per, pbr *float64) {
	price, ok := closeAsOf(prices, st.DisclosureDate)
	if !ok {
		return nil, nil
	}

	if st.EPS != nil && *st.EPS > 0 {
		v := price / *st.EPS
		per = &v
	}
	if st.BPS != nil && *st.BPS > 0 {
		v := price / *st.BPS
		pbr = &v
	}
	return per, pbr
}

// closeAsOf returns the close of the most recent bar dated at or before
// date. The series must be ascending by date.
func closeAsOf(bars []contracts.PriceBar, date time.Time) (float64, bool) {
	// First index strictly after date
	idx := sort.Search(len(bars), func(i int) bool { return bars[i].Date.After(date) })
	if idx == 0 {
		return 0, false
	}
	return bars[idx-1].Close, true
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
