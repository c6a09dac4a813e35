package schema

import (
	"github.com/takumi-oka/market-log/internal/contracts"
)

// Typed decoders from canonical records into domain structs. Each returns
// ok=false when the identifying or value columns the struct cannot live
// without are absent; such records are excluded rather than zero-filled.

// DecodePriceBar decodes a canonical price-bar record. Date and close are
// required; the remaining numerics default to zero when absent.
func DecodePriceBar(rec map[string]interface{}) (contracts.PriceBar, bool) {
	date, ok := Date(rec, FieldDate)
	if !ok {
		return contracts.PriceBar{}, false
	}
	closePrice, ok := Float(rec, FieldClose)
	if !ok {
		return contracts.PriceBar{}, false
	}

	code, _ := String(rec, FieldCode)
	open, _ := Float(rec, FieldOpen)
	high, _ := Float(rec, FieldHigh)
	low, _ := Float(rec, FieldLow)
	volume, _ := Float(rec, FieldVolume)
	value, _ := Float(rec, FieldTradingValue)

	return contracts.PriceBar{
		Code:         contracts.DisplayCode(code),
		Date:         date,
		Open:         open,
		High:         high,
		Low:          low,
		Close:        closePrice,
		Volume:       int64(volume),
		TradingValue: value,
	}, true
}

// DecodeSnapshotRow decodes a canonical price-bar record into a market
// snapshot row. Records lacking code, close or trading value are excluded
// from aggregation, not defaulted.
func DecodeSnapshotRow(rec map[string]interface{}) (contracts.SnapshotRow, bool) {
	code, ok := String(rec, FieldCode)
	if !ok {
		return contracts.SnapshotRow{}, false
	}
	closePrice, ok := Float(rec, FieldClose)
	if !ok {
		return contracts.SnapshotRow{}, false
	}
	value, ok := Float(rec, FieldTradingValue)
	if !ok {
		return contracts.SnapshotRow{}, false
	}

	return contracts.SnapshotRow{
		Code:         contracts.DisplayCode(code),
		Close:        closePrice,
		TradingValue: value,
	}, true
}

// DecodeSecurityRecord decodes a canonical company record. Code is required;
// the company name defaults to the code and the segment label to Others.
func DecodeSecurityRecord(rec map[string]interface{}) (contracts.SecurityRecord, bool) {
	code, ok := String(rec, FieldCode)
	if !ok {
		return contracts.SecurityRecord{}, false
	}

	display := contracts.DisplayCode(code)

	name, ok := String(rec, FieldCompanyName)
	if !ok {
		name = display
	}
	segment, ok := String(rec, FieldMarketSegment)
	if !ok {
		segment = string(contracts.SegmentOthers)
	}

	sectorCode, _ := String(rec, FieldSectorCode)
	sectorName, _ := String(rec, FieldSectorName)

	return contracts.SecurityRecord{
		Code:             display,
		CompanyName:      name,
		MarketSegmentRaw: segment,
		SectorCode:       sectorCode,
		SectorName:       sectorName,
	}, true
}

// DecodeStatement decodes a canonical statement record. Disclosure date,
// fiscal period end and document type are required for the dedup and the
// forecast filter; the numerics stay nil when the source omitted them.
// PER/PBR are left nil here, they need the price series.
func DecodeStatement(rec map[string]interface{}) (contracts.FinancialStatement, bool) {
	disclosed, ok := Date(rec, FieldDisclosureDate)
	if !ok {
		return contracts.FinancialStatement{}, false
	}
	periodEnd, ok := Date(rec, FieldFiscalPeriodEnd)
	if !ok {
		return contracts.FinancialStatement{}, false
	}
	docType, ok := String(rec, FieldDocumentType)
	if !ok {
		return contracts.FinancialStatement{}, false
	}

	return contracts.FinancialStatement{
		DisclosureDate:  disclosed,
		FiscalPeriodEnd: periodEnd,
		DocumentType:    docType,
		NetSales:        FloatPtr(rec, FieldNetSales),
		OperatingProfit: FloatPtr(rec, FieldOperatingProfit),
		OrdinaryProfit:  FloatPtr(rec, FieldOrdinaryProfit),
		EPS:             FloatPtr(rec, FieldEPS),
		BPS:             FloatPtr(rec, FieldBPS),
	}, true
}

// DecodeInvestorFlow decodes a canonical investor-flow record: net flow is
// purchases minus sales per investor category, absent legs counting as zero.
func DecodeInvestorFlow(rec map[string]interface{}) (contracts.InvestorFlowRecord, bool) {
	date, ok := Date(rec, FieldDate)
	if !ok {
		return contracts.InvestorFlowRecord{}, false
	}

	foreignBuy, _ := Float(rec, FieldForeignBuy)
	foreignSell, _ := Float(rec, FieldForeignSell)
	individualBuy, _ := Float(rec, FieldIndividualBuy)
	individualSell, _ := Float(rec, FieldIndividualSell)

	return contracts.InvestorFlowRecord{
		Date:          date,
		NetForeign:    foreignBuy - foreignSell,
		NetIndividual: individualBuy - individualSell,
	}, true
}
