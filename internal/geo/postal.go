package geo

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var wildcardCache sync.Map // pattern -> *regexp.Regexp

// NormalizePostalCode upper-cases the code and strips inner whitespace so that
// "sw1a 1aa" and "SW1A1AA" compare equal.
func NormalizePostalCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// MatchWildcard is the tax-zone postal predicate: '*' matches any run of
// characters (prefix, suffix or inner), everything else is literal.
func MatchWildcard(pattern, code string) bool {
	pattern = NormalizePostalCode(pattern)
	code = NormalizePostalCode(code)
	if pattern == "" || code == "" {
		return false
	}
	if !strings.Contains(pattern, "*") {
		return pattern == code
	}
	return wildcardRegexp(pattern).MatchString(code)
}

func wildcardRegexp(pattern string) *regexp.Regexp {
	if re, ok := wildcardCache.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}
	expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
	re := regexp.MustCompile(expr)
	wildcardCache.Store(pattern, re)
	return re
}

// MatchPostalRule is the shipping-zone postal predicate. A rule is one of:
//
//	75*          prefix wildcard
//	75000-75999  inclusive numeric range
//	75001        exact code
func MatchPostalRule(rule, code string) bool {
	rule = NormalizePostalCode(rule)
	code = NormalizePostalCode(code)
	if rule == "" || code == "" {
		return false
	}

	if strings.HasSuffix(rule, "*") {
		return strings.HasPrefix(code, strings.TrimSuffix(rule, "*"))
	}

	if lo, hi, ok := parseRange(rule); ok {
		n, err := strconv.ParseInt(code, 10, 64)
		if err != nil {
			return false
		}
		return n >= lo && n <= hi
	}

	return rule == code
}

func parseRange(rule string) (int64, int64, bool) {
	parts := strings.SplitN(rule, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	hi, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}
