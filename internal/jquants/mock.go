package jquants

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/takumi-oka/market-log/internal/contracts"
)

// MockSource serves a small deterministic fixture dataset in place of live
// calls. Records use the same raw vocabularies as the live API, so the
// normalizer and everything downstream run the exact same path.
// ⭐ SSOT: 開発用フィクスチャはここだけ
type MockSource struct {
	master []map[string]interface{}
}

// Named fixture securities; the rest of the synthetic universe is generated.
var mockNamed = []struct {
	code    string
	name    string
	segment string
}{
	{"80580", "三菱商事", "プライム市場"},
	{"72030", "トヨタ自動車", "プライム市場"},
	{"99840", "ソフトバンクグループ", "プライム市場"},
	{"33500", "メタプラネット", "スタンダード市場"},
	{"43850", "メルカリ", "グロース市場"},
	{"96330", "東宝", "スタンダード市場"},
}

var mockSegments = []string{
	"プライム市場",
	"スタンダード市場",
	"グロース市場",
	"TOKYO PRO Market",
}

// mockUniverseSize is large enough to clear the trading-day threshold
const mockUniverseSize = 120

// NewMockSource creates the fixture source
func NewMockSource() *MockSource {
	master := make([]map[string]interface{}, 0, len(mockNamed)+mockUniverseSize)

	for _, s := range mockNamed {
		master = append(master, map[string]interface{}{
			"Code":   s.code,
			"Name":   s.name,
			"Market": s.segment,
		})
	}

	for i := 0; i < mockUniverseSize; i++ {
		code := fmt.Sprintf("%04d0", 6001+i)
		master = append(master, map[string]interface{}{
			"Code":   code,
			"Name":   fmt.Sprintf("テスト株式会社%d", i+1),
			"Market": mockSegments[i%len(mockSegments)],
		})
	}

	return &MockSource{master: master}
}

// Master returns the fixture security list
func (m *MockSource) Master(ctx context.Context) ([]map[string]interface{}, error) {
	return m.master, nil
}

// PriceBars returns deterministic weekday bars over [from, to]
func (m *MockSource) PriceBars(ctx context.Context, apiCode string, from, to time.Time) ([]map[string]interface{}, error) {
	// Cap the series so a 4-year lookback stays small in dev mode
	start := from
	if cap := to.AddDate(0, 0, -180); start.Before(cap) {
		start = cap
	}

	var bars []map[string]interface{}
	for d := start; !d.After(to); d = d.AddDate(0, 0, 1) {
		if isWeekend(d) {
			continue
		}
		bars = append(bars, mockBar(apiCode, d))
	}

	if len(bars) == 0 {
		return nil, contracts.NoDataError("fixture has no bars in the requested window")
	}
	return bars, nil
}

// Financials returns four full-year filings plus records the fetcher must
// filter out: a forecast document and a superseded disclosure for the same
// fiscal period end.
func (m *MockSource) Financials(ctx context.Context, apiCode string, from, to time.Time) ([]map[string]interface{}, error) {
	base := basePrice(apiCode)

	var statements []map[string]interface{}
	for year := to.Year() - 4; year < to.Year(); year++ {
		periodEnd := fmt.Sprintf("%d-03-31", year)
		disclosed := fmt.Sprintf("%d-05-10", year)
		growth := float64(year - (to.Year() - 4))

		statements = append(statements, map[string]interface{}{
			"DisclosedDate":        disclosed,
			"CurrentPeriodEndDate": periodEnd,
			"TypeOfDocument":       "FYFinancialStatements_Consolidated_JP",
			"NetSales":             (1000 + 80*growth) * 1e9,
			"OperatingProfit":      (90 + 8*growth) * 1e9,
			"OrdinaryProfit":       (85 + 8*growth) * 1e9,
			"EarningsPerShare":     base / 12,
			"BookValuePerShare":    base / 1.5,
		})
	}

	// Forecast for the running year: excluded by the document-type filter
	statements = append(statements, map[string]interface{}{
		"DisclosedDate":        fmt.Sprintf("%d-05-10", to.Year()-1),
		"CurrentPeriodEndDate": fmt.Sprintf("%d-03-31", to.Year()),
		"TypeOfDocument":       "EarnForecastRevision",
		"NetSales":             1500 * 1e9,
	})

	// Earlier disclosure for the latest period: removed by the dedup
	statements = append(statements, map[string]interface{}{
		"DisclosedDate":        fmt.Sprintf("%d-04-28", to.Year()-1),
		"CurrentPeriodEndDate": fmt.Sprintf("%d-03-31", to.Year()-1),
		"TypeOfDocument":       "FYFinancialStatements_Consolidated_JP",
		"NetSales":             900 * 1e9,
		"EarningsPerShare":     base / 15,
	})

	return statements, nil
}

// InvestorFlows returns eight weekly records in the newer vocabulary
func (m *MockSource) InvestorFlows(ctx context.Context, apiCode string, from, to time.Time) ([]map[string]interface{}, error) {
	base := basePrice(apiCode)

	var flows []map[string]interface{}
	week := to
	for week.Weekday() != time.Friday {
		week = week.AddDate(0, 0, -1)
	}

	for i := 0; i < 8; i++ {
		d := week.AddDate(0, 0, -7*i)
		if d.Before(from) {
			break
		}
		swing := float64(i%3) - 1 // -1, 0, 1 across weeks
		flows = append(flows, map[string]interface{}{
			"Date":                          d.Format("2006-01-02"),
			"BrokerageForeignersPurchases":  base * 1e6 * (2 + swing),
			"BrokerageForeignersSales":      base * 1e6 * 2,
			"BrokerageIndividualsPurchases": base * 1e6,
			"BrokerageIndividualsSales":     base * 1e6 * (1 + swing/2),
		})
	}

	if len(flows) == 0 {
		return nil, contracts.NoDataError("fixture has no flows in the requested window")
	}
	return flows, nil
}

// DailySnapshot returns a full synthetic universe on weekdays and an empty
// result on weekends, mimicking the live holiday behavior.
func (m *MockSource) DailySnapshot(ctx context.Context, date time.Time) ([]map[string]interface{}, error) {
	if isWeekend(date) {
		return nil, contracts.NoDataError("fixture market is closed on " + date.Format("2006-01-02"))
	}

	records := make([]map[string]interface{}, 0, len(m.master))
	for _, entry := range m.master {
		code := entry["Code"].(string)
		records = append(records, mockBar(code, date))
	}
	return records, nil
}

// mockBar builds one raw bar with prices derived from the code and date, so
// repeated calls agree and day-over-day deltas are non-trivial.
func mockBar(apiCode string, date time.Time) map[string]interface{} {
	base := basePrice(apiCode)
	wave := float64(date.YearDay()%7) - 3 // -3..3
	closePrice := base + wave*base/100
	volume := 500000 + float64(date.YearDay()%5)*100000

	return map[string]interface{}{
		"Code":          apiCode,
		"Date":          date.Format("2006-01-02"),
		"Open":          closePrice - base/200,
		"High":          closePrice + base/100,
		"Low":           closePrice - base/100,
		"Close":         closePrice,
		"Volume":        volume,
		"TurnoverValue": closePrice * volume,
	}
}

// basePrice derives a stable positive price level from the code digits
func basePrice(apiCode string) float64 {
	n, err := strconv.Atoi(apiCode)
	if err != nil || n <= 0 {
		n = 5000
	}
	return float64(n%9000)/10 + 500
}

func isWeekend(d time.Time) bool {
	return d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
}
