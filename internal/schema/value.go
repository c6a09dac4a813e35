package schema

import (
	"strconv"
	"strings"
	"time"
)

// Value coercion for canonical records. API numbers arrive as JSON float64
// but older generations serialized some of them as strings; dates appear as
// "2006-01-02" or "20060102".

// Float extracts a numeric canonical field. ok is false when the field is
// absent or not coercible.
func Float(rec map[string]interface{}, field string) (float64, bool) {
	v, present := rec[field]
	if !present || v == nil {
		return 0, false
	}

	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if s == "" || s == "-" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FloatPtr is Float returning nil for absent/uncoercible fields
func FloatPtr(rec map[string]interface{}, field string) *float64 {
	if f, ok := Float(rec, field); ok {
		return &f
	}
	return nil
}

// String extracts a string canonical field
func String(rec map[string]interface{}, field string) (string, bool) {
	v, present := rec[field]
	if !present || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), s != ""
}

// Date extracts a calendar-date canonical field
func Date(rec map[string]interface{}, field string) (time.Time, bool) {
	s, ok := String(rec, field)
	if !ok {
		return time.Time{}, false
	}

	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
