// Package schema maps the several field vocabularies the J-Quants API has
// used across versions onto one canonical column set per record kind.
// Centralizing the alias tables here keeps the rest of the pipeline
// shape-agnostic.
package schema

import (
	"fmt"

	"github.com/takumi-oka/market-log/internal/contracts"
)

// RecordKind tags which alias table applies to a raw record
type RecordKind string

const (
	KindPriceBar     RecordKind = "price_bar"
	KindCompany      RecordKind = "company"
	KindStatement    RecordKind = "statement"
	KindInvestorFlow RecordKind = "investor_flow"
)

// Canonical field names
const (
	FieldCode            = "code"
	FieldDate            = "date"
	FieldOpen            = "open"
	FieldHigh            = "high"
	FieldLow             = "low"
	FieldClose           = "close"
	FieldVolume          = "volume"
	FieldTradingValue    = "tradingValue"
	FieldCompanyName     = "companyName"
	FieldMarketSegment   = "marketSegment"
	FieldSectorCode      = "sectorCode"
	FieldSectorName      = "sectorName"
	FieldDisclosureDate  = "disclosureDate"
	FieldFiscalPeriodEnd = "fiscalPeriodEnd"
	FieldDocumentType    = "documentType"
	FieldNetSales        = "netSales"
	FieldOperatingProfit = "operatingProfit"
	FieldOrdinaryProfit  = "ordinaryProfit"
	FieldEPS             = "eps"
	FieldBPS             = "bps"
	FieldForeignBuy      = "foreignPurchases"
	FieldForeignSell     = "foreignSales"
	FieldIndividualBuy   = "individualPurchases"
	FieldIndividualSell  = "individualSales"
)

// fieldAlias is one canonical field with its source-key candidates in
// priority order: the first alias present in the raw record wins.
type fieldAlias struct {
	canonical string
	sources   []string
}

// ⭐ SSOT: API世代ごとのフィールド名の揺れはこの表だけで吸収する
var aliasTables = map[RecordKind][]fieldAlias{
	KindPriceBar: {
		{FieldCode, []string{"Code", "LocalCode"}},
		{FieldDate, []string{"Date", "date"}},
		{FieldOpen, []string{"O", "Open", "AdjustmentOpen"}},
		{FieldHigh, []string{"H", "High", "AdjustmentHigh"}},
		{FieldLow, []string{"L", "Low", "AdjustmentLow"}},
		{FieldClose, []string{"C", "Close", "AdjustmentClose"}},
		{FieldVolume, []string{"V", "Volume", "AdjustmentVolume"}},
		{FieldTradingValue, []string{"TurnoverValue", "TradingValue", "Value"}},
	},
	KindCompany: {
		{FieldCode, []string{"Code", "LocalCode"}},
		{FieldCompanyName, []string{"Name", "CoName", "CompanyName"}},
		{FieldMarketSegment, []string{"Market", "MarketCodeName", "MarketCode", "MarketSegment"}},
		{FieldSectorCode, []string{"Sector17Code", "SectorCode"}},
		{FieldSectorName, []string{"Sector17CodeName", "SectorName"}},
	},
	KindStatement: {
		{FieldDisclosureDate, []string{"DisclosedDate", "DisclosureDate"}},
		{FieldFiscalPeriodEnd, []string{"CurrentPeriodEndDate", "CurrentFiscalYearEndDate", "FiscalPeriodEnd"}},
		{FieldDocumentType, []string{"TypeOfDocument", "DocType", "DocumentType"}},
		{FieldNetSales, []string{"NetSales", "Sales", "Revenue"}},
		{FieldOperatingProfit, []string{"OperatingProfit", "OperatingIncome"}},
		{FieldOrdinaryProfit, []string{"OrdinaryProfit", "OrdinaryIncome"}},
		{FieldEPS, []string{"EarningsPerShare", "EPS"}},
		{FieldBPS, []string{"BookValuePerShare", "BPS"}},
	},
	KindInvestorFlow: {
		{FieldDate, []string{"Date", "PublishedDate"}},
		{FieldForeignBuy, []string{"BrokerageForeignersPurchases", "ForeignPurchases"}},
		{FieldForeignSell, []string{"BrokerageForeignersSales", "ForeignSales"}},
		{FieldIndividualBuy, []string{"BrokerageIndividualsPurchases", "IndividualPurchases"}},
		{FieldIndividualSell, []string{"BrokerageIndividualsSales", "IndividualSales"}},
	},
}

// Normalize renames the keys of one raw record onto the canonical column
// set for kind. Pure function: only fields present in raw are carried over,
// canonical fields with no matching source key stay absent, unknown extra
// keys are dropped. An unknown kind is an UnrecognizedSchema failure since
// downstream aggregation cannot proceed without the alias table.
func Normalize(kind RecordKind, raw map[string]interface{}) (map[string]interface{}, error) {
	table, ok := aliasTables[kind]
	if !ok {
		return nil, contracts.SchemaError(fmt.Sprintf("no alias table for record kind %q", kind))
	}

	canonical := make(map[string]interface{}, len(table))
	for _, alias := range table {
		for _, source := range alias.sources {
			if value, present := raw[source]; present {
				canonical[alias.canonical] = value
				break
			}
		}
	}

	return canonical, nil
}
