// Package master builds the security master lookup: code to company name
// and code to normalized market segment.
package master

import (
	"context"
	"strings"

	"github.com/takumi-oka/market-log/internal/contracts"
	"github.com/takumi-oka/market-log/internal/jquants"
	"github.com/takumi-oka/market-log/internal/schema"
	"github.com/takumi-oka/market-log/pkg/logger"
)

// segmentRule is one ordered classification rule: the first label substring
// match wins. Prime is checked before Standard before Growth because the
// product wants the most specific market class first when a raw label could
// contain several recognizable substrings.
type segmentRule struct {
	segment    contracts.Segment
	substrings []string
}

// ⭐ SSOT: 市場区分の判定ルールはこの表だけ
var segmentRules = []segmentRule{
	{contracts.SegmentPrime, []string{"プライム", "prime"}},
	{contracts.SegmentStandard, []string{"スタンダード", "standard"}},
	{contracts.SegmentGrowth, []string{"グロース", "growth"}},
}

// NormalizeSegment maps a free-text segment label onto the 4-way
// classification. Case-insensitive substring match, native and romanized
// labels both recognized; anything unmatched classifies as Others.
func NormalizeSegment(rawLabel string) contracts.Segment {
	label := strings.ToLower(rawLabel)
	for _, rule := range segmentRules {
		for _, sub := range rule.substrings {
			if strings.Contains(label, sub) {
				return rule.segment
			}
		}
	}
	return contracts.SegmentOthers
}

// Cache is the read-only master lookup for one render cycle
type Cache struct {
	records  []contracts.SecurityRecord
	names    map[string]string            // display code -> company name
	segments map[string]contracts.Segment // display code -> segment
}

// Load fetches and normalizes the security master list. Callers decide
// whether a failure is soft (breadth: annotate rows with defaults) or hard
// (segment history: abort).
func Load(ctx context.Context, src jquants.Source, log *logger.Logger) (*Cache, error) {
	raw, err := src.Master(ctx)
	if err != nil {
		return nil, err
	}

	cache := &Cache{
		names:    make(map[string]string, len(raw)),
		segments: make(map[string]contracts.Segment, len(raw)),
	}

	for _, rec := range raw {
		canonical, err := schema.Normalize(schema.KindCompany, rec)
		if err != nil {
			return nil, err
		}
		security, ok := schema.DecodeSecurityRecord(canonical)
		if !ok {
			continue
		}

		security.Segment = NormalizeSegment(security.MarketSegmentRaw)
		cache.records = append(cache.records, security)
		cache.names[security.Code] = security.CompanyName
		cache.segments[security.Code] = security.Segment
	}

	if len(cache.records) == 0 {
		return nil, contracts.NoDataError("security master list is empty after normalization")
	}

	log.WithField("count", len(cache.records)).Debug("Loaded security master")
	return cache, nil
}

// Records returns all master entries
func (c *Cache) Records() []contracts.SecurityRecord {
	return c.records
}

// Name returns the company name for a code in either digit form
func (c *Cache) Name(code string) (string, bool) {
	name, ok := c.names[contracts.DisplayCode(code)]
	return name, ok
}

// SegmentOf returns the normalized segment for a code in either digit form
func (c *Cache) SegmentOf(code string) (contracts.Segment, bool) {
	segment, ok := c.segments[contracts.DisplayCode(code)]
	return segment, ok
}

// Search resolves a query that is either a security code or an exact
// company name
func (c *Cache) Search(query string) (contracts.SecurityRecord, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return contracts.SecurityRecord{}, false
	}

	if contracts.IsCodeQuery(query) {
		display := contracts.DisplayCode(query)
		for _, rec := range c.records {
			if rec.Code == display {
				return rec, true
			}
		}
		return contracts.SecurityRecord{}, false
	}

	for _, rec := range c.records {
		if rec.CompanyName == query {
			return rec, true
		}
	}
	return contracts.SecurityRecord{}, false
}
