package schema

import (
	"testing"
	"time"
)

func TestDecodePriceBar(t *testing.T) {
	tests := []struct {
		name   string
		rec    map[string]interface{}
		wantOK bool
	}{
		{
			name: "complete bar",
			rec: map[string]interface{}{
				FieldCode: "80580", FieldDate: "2025-05-01",
				FieldOpen: 100.0, FieldHigh: 110.0, FieldLow: 95.0,
				FieldClose: 105.0, FieldVolume: 1000.0, FieldTradingValue: 105000.0,
			},
			wantOK: true,
		},
		{
			name:   "missing close is excluded",
			rec:    map[string]interface{}{FieldCode: "80580", FieldDate: "2025-05-01"},
			wantOK: false,
		},
		{
			name:   "missing date is excluded",
			rec:    map[string]interface{}{FieldCode: "80580", FieldClose: 105.0},
			wantOK: false,
		},
		{
			name: "string numerics from older generations",
			rec: map[string]interface{}{
				FieldCode: "80580", FieldDate: "20250501", FieldClose: "1,050",
			},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar, ok := DecodePriceBar(tt.rec)
			if ok != tt.wantOK {
				t.Fatalf("DecodePriceBar() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if bar.Code != "8058" {
				t.Errorf("Code = %s, want display form 8058", bar.Code)
			}
			if bar.Date.IsZero() {
				t.Error("Date is zero")
			}
		})
	}
}

func TestDecodeSnapshotRowRequiresValueColumns(t *testing.T) {
	tests := []struct {
		name   string
		rec    map[string]interface{}
		wantOK bool
	}{
		{
			name: "complete row",
			rec: map[string]interface{}{
				FieldCode: "13010", FieldClose: 4000.0, FieldTradingValue: 1.2e9,
			},
			wantOK: true,
		},
		{
			name:   "no trading value",
			rec:    map[string]interface{}{FieldCode: "13010", FieldClose: 4000.0},
			wantOK: false,
		},
		{
			name:   "no close",
			rec:    map[string]interface{}{FieldCode: "13010", FieldTradingValue: 1.2e9},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := DecodeSnapshotRow(tt.rec); ok != tt.wantOK {
				t.Errorf("DecodeSnapshotRow() ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestDecodeSecurityRecordDefaults(t *testing.T) {
	rec, ok := DecodeSecurityRecord(map[string]interface{}{FieldCode: "33500"})
	if !ok {
		t.Fatal("DecodeSecurityRecord() failed")
	}
	if rec.Code != "3350" {
		t.Errorf("Code = %s, want 3350", rec.Code)
	}
	if rec.CompanyName != "3350" {
		t.Errorf("CompanyName should default to code, got %s", rec.CompanyName)
	}
	if rec.MarketSegmentRaw != "Others" {
		t.Errorf("MarketSegmentRaw should default to Others, got %s", rec.MarketSegmentRaw)
	}
}

func TestDecodeStatement(t *testing.T) {
	rec := map[string]interface{}{
		FieldDisclosureDate:  "2025-05-09",
		FieldFiscalPeriodEnd: "2025-03-31",
		FieldDocumentType:    "FYFinancialStatements_Consolidated_JP",
		FieldNetSales:        1.0e12,
		FieldEPS:             250.5,
	}

	st, ok := DecodeStatement(rec)
	if !ok {
		t.Fatal("DecodeStatement() failed")
	}
	if st.NetSales == nil || *st.NetSales != 1.0e12 {
		t.Errorf("NetSales = %v, want 1e12", st.NetSales)
	}
	if st.OperatingProfit != nil {
		t.Error("OperatingProfit should be nil when source omitted it")
	}
	if st.EPS == nil || *st.EPS != 250.5 {
		t.Errorf("EPS = %v, want 250.5", st.EPS)
	}
	if st.PER != nil || st.PBR != nil {
		t.Error("PER/PBR must stay nil until priced")
	}
}

func TestDecodeInvestorFlowNets(t *testing.T) {
	rec := map[string]interface{}{
		FieldDate:           "2025-05-09",
		FieldForeignBuy:     200.0,
		FieldForeignSell:    150.0,
		FieldIndividualBuy:  80.0,
		FieldIndividualSell: 90.0,
	}

	flow, ok := DecodeInvestorFlow(rec)
	if !ok {
		t.Fatal("DecodeInvestorFlow() failed")
	}
	if flow.NetForeign != 50.0 {
		t.Errorf("NetForeign = %v, want 50", flow.NetForeign)
	}
	if flow.NetIndividual != -10.0 {
		t.Errorf("NetIndividual = %v, want -10", flow.NetIndividual)
	}
	if want := time.Date(2025, 5, 9, 0, 0, 0, 0, time.UTC); !flow.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", flow.Date, want)
	}
}
