package stock

import (
	"context"
	"testing"
	"time"

	"github.com/takumi-oka/market-log/internal/contracts"
	"github.com/takumi-oka/market-log/pkg/config"
	"github.com/takumi-oka/market-log/pkg/logger"
)

// stubSource serves canned records and remembers the requested code
type stubSource struct {
	bars       []map[string]interface{}
	statements []map[string]interface{}
	flows      []map[string]interface{}
	err        error

	gotCode string
}

func (s *stubSource) Master(ctx context.Context) ([]map[string]interface{}, error) {
	return nil, contracts.NoDataError("stub")
}

func (s *stubSource) PriceBars(ctx context.Context, code string, from, to time.Time) ([]map[string]interface{}, error) {
	s.gotCode = code
	return s.bars, s.err
}

func (s *stubSource) Financials(ctx context.Context, code string, from, to time.Time) ([]map[string]interface{}, error) {
	s.gotCode = code
	return s.statements, s.err
}

func (s *stubSource) InvestorFlows(ctx context.Context, code string, from, to time.Time) ([]map[string]interface{}, error) {
	s.gotCode = code
	return s.flows, s.err
}

func (s *stubSource) DailySnapshot(ctx context.Context, date time.Time) ([]map[string]interface{}, error) {
	return nil, contracts.NoDataError("stub")
}

func newTestService(src *stubSource) *Service {
	cfg := &config.Config{
		JQuants: config.JQuantsConfig{
			PriceLookback:  4 * 365 * 24 * time.Hour,
			LookbackBuffer: 60 * 24 * time.Hour,
		},
	}
	return NewService(src, cfg, logger.NewNop())
}

func TestPriceHistory(t *testing.T) {
	src := &stubSource{bars: []map[string]interface{}{
		// Out of order on purpose; one record without close
		{"Date": "2025-05-02", "Close": 110.0, "TurnoverValue": 2.0e8},
		{"Date": "2025-05-01", "Close": 100.0, "TurnoverValue": 1.0e8},
		{"Date": "2025-05-07"},
	}}
	svc := newTestService(src)

	bars, err := svc.PriceHistory(context.Background(), "8058")
	if err != nil {
		t.Fatalf("PriceHistory() failed: %v", err)
	}

	// 4-digit input queries the API with the zero-padded 5-digit form
	if src.gotCode != "80580" {
		t.Errorf("API queried with code %s, want 80580", src.gotCode)
	}

	// Record without a close is excluded, remainder sorted ascending
	if len(bars) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(bars))
	}
	if !bars[0].Date.Before(bars[1].Date) {
		t.Error("Bars are not ascending by date")
	}

	// Output reports the user-facing 4-digit form
	for _, bar := range bars {
		if bar.Code != "8058" {
			t.Errorf("Bar code = %s, want 8058", bar.Code)
		}
	}
}

func TestPriceHistoryNoUsableBars(t *testing.T) {
	src := &stubSource{bars: []map[string]interface{}{{"Date": "2025-05-01"}}}
	svc := newTestService(src)

	_, err := svc.PriceHistory(context.Background(), "8058")
	if !contracts.IsNoData(err) {
		t.Errorf("Expected NoData, got %v", err)
	}
}

func TestLatestQuote(t *testing.T) {
	src := &stubSource{bars: []map[string]interface{}{
		{"Date": "2025-05-01", "Close": 100.0},
		{"Date": "2025-05-02", "Close": 110.0},
	}}
	svc := newTestService(src)

	quote, err := svc.LatestQuote(context.Background(), "8058")
	if err != nil {
		t.Fatalf("LatestQuote() failed: %v", err)
	}
	if quote.Close != 110.0 || quote.CloseDelta != 10.0 {
		t.Errorf("Quote = %+v, want close 110 delta 10", quote)
	}

	// Single bar: delta is zero
	src.bars = src.bars[:1]
	quote, err = svc.LatestQuote(context.Background(), "8058")
	if err != nil {
		t.Fatalf("LatestQuote() failed: %v", err)
	}
	if quote.CloseDelta != 0 {
		t.Errorf("Single-bar delta = %v, want 0", quote.CloseDelta)
	}
}

func TestRecentHistory(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC) }
	bars := []contracts.PriceBar{
		{Date: day(1), Close: 100, TradingValue: 0}, // zero denominator for day 2
		{Date: day(2), Close: 110, TradingValue: 2 * contracts.Oku},
		{Date: day(7), Close: 99, TradingValue: 1 * contracts.Oku},
	}

	rows := RecentHistory(bars, 14)
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}

	// Newest first
	if !rows[0].Date.Equal(day(7)) {
		t.Errorf("First row date = %v, want newest", rows[0].Date)
	}

	// Close pct of newest row: (99-110)/110
	if rows[0].ClosePct == nil || *rows[0].ClosePct > -9.9 || *rows[0].ClosePct < -10.1 {
		t.Errorf("ClosePct = %v, want ~-10", rows[0].ClosePct)
	}

	// Trading-value pct with zero prior value is undefined, not infinity
	if rows[1].ValuePct != nil {
		t.Errorf("ValuePct vs zero denominator = %v, want nil", rows[1].ValuePct)
	}

	// Oldest row has no prior bar at all
	if rows[2].ClosePct != nil || rows[2].ValuePct != nil {
		t.Error("Oldest row percent changes should be nil")
	}

	// Oku conversion divides the raw trading value
	if rows[0].TradingValueOku != 1.0 {
		t.Errorf("TradingValueOku = %v, want 1", rows[0].TradingValueOku)
	}

	// n smaller than the series truncates from the old end
	if short := RecentHistory(bars, 2); len(short) != 2 || !short[0].Date.Equal(day(7)) {
		t.Errorf("RecentHistory(n=2) = %d rows starting %v", len(short), short[0].Date)
	}
}

func TestFinancialHistory(t *testing.T) {
	src := &stubSource{statements: []map[string]interface{}{
		{
			"DisclosedDate":        "2024-05-10",
			"CurrentPeriodEndDate": "2024-03-31",
			"TypeOfDocument":       "FYFinancialStatements_Consolidated_JP",
			"EarningsPerShare":     10.0,
			"BookValuePerShare":    50.0,
		},
		{
			// Same fiscal period, earlier disclosure: dropped by dedup
			"DisclosedDate":        "2024-04-26",
			"CurrentPeriodEndDate": "2024-03-31",
			"TypeOfDocument":       "FYFinancialStatements_Consolidated_JP",
			"EarningsPerShare":     999.0,
		},
		{
			// Forecast: dropped by the document-type filter
			"DisclosedDate":        "2024-05-10",
			"CurrentPeriodEndDate": "2025-03-31",
			"TypeOfDocument":       "FYEarnForecast",
		},
		{
			// Quarterly: dropped
			"DisclosedDate":        "2023-08-04",
			"CurrentPeriodEndDate": "2023-06-30",
			"TypeOfDocument":       "1QFinancialStatements_Consolidated_JP",
		},
		{
			// EPS=0: PER undefined
			"DisclosedDate":        "2023-05-10",
			"CurrentPeriodEndDate": "2023-03-31",
			"TypeOfDocument":       "4QFinancialStatements_NonConsolidated_JP",
			"EarningsPerShare":     0.0,
		},
		{
			// Disclosed before any price bar: ratios undefined
			"DisclosedDate":        "2020-05-10",
			"CurrentPeriodEndDate": "2020-03-31",
			"TypeOfDocument":       "FYFinancialStatements_Consolidated_JP",
			"EarningsPerShare":     10.0,
		},
	}}
	svc := newTestService(src)

	day := func(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC) }
	prices := []contracts.PriceBar{
		{Date: day(2023, 5, 9), Close: 80},
		{Date: day(2024, 5, 8), Close: 100},
	}

	statements, err := svc.FinancialHistory(context.Background(), "8058", prices)
	if err != nil {
		t.Fatalf("FinancialHistory() failed: %v", err)
	}

	if len(statements) != 3 {
		t.Fatalf("Expected 3 statements, got %d", len(statements))
	}

	// Ascending by disclosure date
	oldest, zeroEPS, latest := statements[0], statements[1], statements[2]

	if !latest.DisclosureDate.Equal(day(2024, 5, 10)) {
		t.Errorf("Dedup kept disclosure %v, want 2024-05-10", latest.DisclosureDate)
	}
	if latest.EPS == nil || *latest.EPS != 10.0 {
		t.Errorf("Dedup kept EPS %v, want 10 (the later disclosure)", latest.EPS)
	}

	// PER = as-of price 100 / EPS 10
	if latest.PER == nil || *latest.PER != 10.0 {
		t.Errorf("PER = %v, want 10", latest.PER)
	}
	// PBR = 100 / 50
	if latest.PBR == nil || *latest.PBR != 2.0 {
		t.Errorf("PBR = %v, want 2", latest.PBR)
	}

	if zeroEPS.PER != nil {
		t.Errorf("PER with EPS=0 = %v, want nil", zeroEPS.PER)
	}

	if oldest.PER != nil || oldest.PBR != nil {
		t.Error("Ratios before the first price bar should be nil")
	}
}

func TestInvestorFlows(t *testing.T) {
	src := &stubSource{flows: []map[string]interface{}{
		{
			"Date":                          "2025-05-09",
			"BrokerageForeignersPurchases":  300.0,
			"BrokerageForeignersSales":      100.0,
			"BrokerageIndividualsPurchases": 50.0,
			"BrokerageIndividualsSales":     80.0,
		},
		{
			"PublishedDate":    "2025-05-02",
			"ForeignPurchases": 100.0,
			"ForeignSales":     150.0,
		},
	}}
	svc := newTestService(src)

	flows, err := svc.InvestorFlows(context.Background(), "8058")
	if err != nil {
		t.Fatalf("InvestorFlows() failed: %v", err)
	}
	if len(flows) != 2 {
		t.Fatalf("Expected 2 flows, got %d", len(flows))
	}

	// Ascending by date; the older record uses the old vocabulary
	if flows[0].NetForeign != -50.0 {
		t.Errorf("Old-vocabulary NetForeign = %v, want -50", flows[0].NetForeign)
	}
	if flows[1].NetForeign != 200.0 || flows[1].NetIndividual != -30.0 {
		t.Errorf("NetForeign/NetIndividual = %v/%v, want 200/-30",
			flows[1].NetForeign, flows[1].NetIndividual)
	}
}

func TestIsFullYearActual(t *testing.T) {
	tests := []struct {
		docType string
		want    bool
	}{
		{"FYFinancialStatements_Consolidated_JP", true},
		{"4QFinancialStatements_NonConsolidated_JP", true},
		{"fyfinancialstatements_consolidated_us", true},
		{"1QFinancialStatements_Consolidated_JP", false},
		{"EarnForecastRevision", false},
		{"FYEarnForecast", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.docType, func(t *testing.T) {
			if got := isFullYearActual(tt.docType); got != tt.want {
				t.Errorf("isFullYearActual(%q) = %v, want %v", tt.docType, got, tt.want)
			}
		})
	}
}

func TestCloseAsOf(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC) }
	bars := []contracts.PriceBar{
		{Date: day(1), Close: 100},
		{Date: day(7), Close: 110},
	}

	tests := []struct {
		name   string
		date   time.Time
		want   float64
		wantOK bool
	}{
		{"before all bars", day(1).AddDate(0, 0, -1), 0, false},
		{"exact match", day(1), 100, true},
		{"between bars", day(3), 100, true},
		{"after all bars", day(30), 110, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := closeAsOf(bars, tt.date)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("closeAsOf(%v) = %v, %v; want %v, %v", tt.date, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
