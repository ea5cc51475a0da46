// Package geo holds the address predicates shared by tax and shipping zones:
// country normalisation and postal-code pattern matching. Nothing in here
// touches storage.
package geo

import "strings"

// Address is the destination a tax or shipping zone is matched against.
type Address struct {
	Country    string `json:"country"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city,omitempty"`
}

// Normalized returns a copy with the country resolved to ISO alpha-2 and the
// state/postal code canonicalised for comparisons.
func (a Address) Normalized() Address {
	return Address{
		Country:    NormalizeCountry(a.Country),
		State:      strings.ToUpper(strings.TrimSpace(a.State)),
		PostalCode: NormalizePostalCode(a.PostalCode),
		City:       strings.TrimSpace(a.City),
	}
}

// HasSignal reports whether the address carries anything a zone can match on.
func (a Address) HasSignal() bool {
	return strings.TrimSpace(a.Country) != "" || strings.TrimSpace(a.PostalCode) != ""
}

// ContainsFold reports whether list holds v, ignoring case and surrounding spaces.
func ContainsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}
