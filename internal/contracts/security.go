package contracts

// Segment is the normalized market segment classification
type Segment string

const (
	SegmentPrime    Segment = "Prime"
	SegmentStandard Segment = "Standard"
	SegmentGrowth   Segment = "Growth"
	SegmentOthers   Segment = "Others"

	// SegmentUnknown marks rows whose master lookup was unavailable,
	// distinct from a looked-up-but-unmatched Others.
	SegmentUnknown Segment = "-"
)

// SecurityRecord is one entry of the security master list
type SecurityRecord struct {
	Code             string  `json:"code"` // display (4-digit) form
	CompanyName      string  `json:"company_name"`
	MarketSegmentRaw string  `json:"market_segment_raw"`
	Segment          Segment `json:"segment"`
	SectorCode       string  `json:"sector_code,omitempty"`
	SectorName       string  `json:"sector_name,omitempty"`
}
