package contracts

import "time"

// Oku is 100 million yen, the display unit for monetary aggregates.
// Displayed oku values are always the raw canonical value divided by this,
// never re-derived from another source field.
const Oku = 100_000_000.0

// PriceBar is one canonical daily price bar for a single security.
// Ordered ascending by date; unique per (code, date).
type PriceBar struct {
	Code         string    `json:"code"` // display (4-digit) form
	Date         time.Time `json:"date"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       int64     `json:"volume"`
	TradingValue float64   `json:"trading_value"`
}

// Quote is the latest close with its day-over-day delta, for the watch board
type Quote struct {
	Code       string    `json:"code"`
	Date       time.Time `json:"date"`
	Close      float64   `json:"close"`
	PrevClose  float64   `json:"prev_close"`
	CloseDelta float64   `json:"close_delta"` // 0 when only one bar exists
}

// RecentRow is one row of the recent-history table (newest first):
// day-over-day percent changes plus trading value in oku units.
// Nil percent means undefined (no prior bar or zero denominator).
type RecentRow struct {
	Date            time.Time `json:"date"`
	Close           float64   `json:"close"`
	ClosePct        *float64  `json:"close_pct"`
	TradingValueOku float64   `json:"trading_value_oku"`
	ValuePct        *float64  `json:"value_pct"`
}

// FinancialStatement is one canonical full-year filing.
// Deduplicated per fiscal period end, keeping the latest disclosure.
// Nil numerics mean the source omitted the field; nil PER/PBR mean the
// ratio is undefined (EPS/BPS not positive, or no price bar at or before
// the disclosure date).
type FinancialStatement struct {
	DisclosureDate  time.Time `json:"disclosure_date"`
	FiscalPeriodEnd time.Time `json:"fiscal_period_end"`
	DocumentType    string    `json:"document_type"`
	NetSales        *float64  `json:"net_sales"`
	OperatingProfit *float64  `json:"operating_profit"`
	OrdinaryProfit  *float64  `json:"ordinary_profit"`
	EPS             *float64  `json:"eps"`
	BPS             *float64  `json:"bps"`
	PER             *float64  `json:"per"`
	PBR             *float64  `json:"pbr"`
}

// InvestorFlowRecord is one week of net investor flow for a security,
// derived as purchases minus sales per investor category.
type InvestorFlowRecord struct {
	Date          time.Time `json:"date"`
	NetForeign    float64   `json:"net_foreign"`
	NetIndividual float64   `json:"net_individual"`
}
