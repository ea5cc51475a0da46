package geo

import (
	"strings"

	"golang.org/x/text/language"
)

// countryNames covers the destinations the storefront ships to. Anything else
// falls through to ISO alpha-3 parsing and finally to the raw upper-cased input.
var countryNames = map[string]string{
	"france":         "FR",
	"germany":        "DE",
	"deutschland":    "DE",
	"belgium":        "BE",
	"belgique":       "BE",
	"spain":          "ES",
	"espana":         "ES",
	"italy":          "IT",
	"italia":         "IT",
	"netherlands":    "NL",
	"luxembourg":     "LU",
	"switzerland":    "CH",
	"suisse":         "CH",
	"portugal":       "PT",
	"austria":        "AT",
	"ireland":        "IE",
	"united kingdom": "GB",
	"great britain":  "GB",
	"uk":             "GB",
	"united states":  "US",
	"usa":            "US",
	"canada":         "CA",
	"monaco":         "MC",
}

// NormalizeCountry turns user input into an ISO 3166 alpha-2 code on a best
// effort basis. Two-letter input is upper-cased as is; unknown longer strings
// are returned upper-cased without validation.
func NormalizeCountry(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	if len(s) == 2 {
		return strings.ToUpper(s)
	}
	if code, ok := countryNames[strings.ToLower(s)]; ok {
		return code
	}
	if len(s) == 3 {
		if region, err := language.ParseRegion(s); err == nil && region.IsCountry() {
			return region.String()
		}
	}
	return strings.ToUpper(s)
}

// IsCountry reports whether input normalises to an assigned ISO country.
func IsCountry(input string) bool {
	code := NormalizeCountry(input)
	if len(code) != 2 {
		return false
	}
	region, err := language.ParseRegion(code)
	return err == nil && region.IsCountry()
}
