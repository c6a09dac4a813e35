package contracts

import "time"

// SnapshotRow is one security's entry in a market-wide daily snapshot.
// Records lacking a resolvable close or trading value never become rows.
type SnapshotRow struct {
	Code         string  `json:"code"` // display (4-digit) form
	Close        float64 `json:"close"`
	TradingValue float64 `json:"trading_value"`
}

// BreadthRow is a snapshot row joined against the security master and
// annotated with day-over-day percent changes. Nil percent means undefined
// (no prior record, or zero denominator).
type BreadthRow struct {
	Code           string   `json:"code"`
	CompanyName    string   `json:"company_name"`
	Segment        Segment  `json:"segment"`
	Close          float64  `json:"close"`
	TradingValue   float64  `json:"trading_value"`
	PriceChangePct *float64 `json:"price_change_pct"`
	ValueChangePct *float64 `json:"value_change_pct"`
}

// MarketBreadth is the market-wide single-day summary
type MarketBreadth struct {
	Date     time.Time    `json:"date"`
	PrevDate *time.Time   `json:"prev_date,omitempty"` // nil in degraded mode
	Rows     []BreadthRow `json:"rows"`
	Up       int          `json:"up"`
	Down     int          `json:"down"`
	Flat     int          `json:"flat"`

	// Degraded is set when only one trading day was found within the scan
	// budget: all percent changes are reported as zero, not as undefined.
	Degraded bool `json:"degraded"`
}

// MarketHistoryRow is one accepted trading day of the rolling segment scan:
// trading value summed per mapped segment. Days that produced no data are
// absent, never padded with zero rows.
type MarketHistoryRow struct {
	Date                  time.Time           `json:"date"`
	TradingValueBySegment map[Segment]float64 `json:"trading_value_by_segment"`
}
