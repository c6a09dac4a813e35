package contracts

import "strings"

// Security codes appear in two forms: the 4-digit form users type and the
// 5-digit form the API expects (4 digits right-padded with one zero).
// ⭐ SSOT: 銘柄コードの桁変換はここだけ

// APICode returns the 5-digit form used for API queries
func APICode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) == 4 {
		return code + "0"
	}
	return code
}

// DisplayCode returns the user-facing 4-digit form
func DisplayCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) == 5 && strings.HasSuffix(code, "0") {
		return code[:4]
	}
	return code
}

// IsCodeQuery reports whether q looks like a security code (4 or 5 digits)
func IsCodeQuery(q string) bool {
	q = strings.TrimSpace(q)
	if len(q) != 4 && len(q) != 5 {
		return false
	}
	for _, r := range q {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
