package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCountry(t *testing.T) {
	tests := map[string]string{
		"fr":             "FR",
		" France ":       "FR",
		"Deutschland":    "DE",
		"United Kingdom": "GB",
		"FRA":            "FR",
		"usa":            "US",
		"":               "",
		"Atlantis":       "ATLANTIS",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeCountry(in), in)
	}
}

func TestIsCountry(t *testing.T) {
	assert.True(t, IsCountry("FR"))
	assert.True(t, IsCountry("belgique"))
	assert.True(t, IsCountry("DEU"))
	assert.False(t, IsCountry("Narnia"))
	assert.False(t, IsCountry(""))
}

func TestMatchWildcard(t *testing.T) {
	tests := []struct {
		pattern, code string
		want          bool
	}{
		{"75*", "75011", true},
		{"*001", "75001", true},
		{"SW*AA", "SW1A 1AA", true},
		{"*", "ANY", true},
		{"75001", "75001", true},
		{"75001", "75002", false},
		{"75*", "", false},
		{"7.*", "75011", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchWildcard(tt.pattern, tt.code), tt.pattern+" ~ "+tt.code)
	}
}

func TestMatchPostalRule(t *testing.T) {
	tests := []struct {
		rule, code string
		want       bool
	}{
		{"75*", "75011", true},
		{"75*", "76011", false},
		{"75000-75999", "75000", true},
		{"75000-75999", "75999", true},
		{"75000-75999", "76000", false},
		{"75000-75999", "7500A", false},
		{"13001", "13001", true},
		{"13001", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchPostalRule(tt.rule, tt.code), tt.rule+" ~ "+tt.code)
	}
}

func TestAddress_Normalized(t *testing.T) {
	a := Address{Country: "france", State: " idf ", PostalCode: "75 001", City: " Paris "}.Normalized()
	assert.Equal(t, Address{Country: "FR", State: "IDF", PostalCode: "75001", City: "Paris"}, a)
	assert.False(t, Address{State: "CA"}.HasSignal())
}
