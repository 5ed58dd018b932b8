// Package shipping resolves a customer's country to one of three fixed
// shipping cost tiers. Detection is best effort: a forwarded geolocation
// header is preferred, an IP lookup service is the fallback, and any
// failure lands on the domestic tier so checkout never blocks on shipping.
package shipping

import "strings"

// Tier names a shipping cost bracket
type Tier string

const (
	TierDomestic      Tier = "domestic"
	TierRegional      Tier = "regional"
	TierInternational Tier = "international"
)

// Rate is a fixed shipping charge with a displayed delivery estimate
type Rate struct {
	Tier        Tier
	DisplayName string
	Amount      int64
	Currency    string
	MinDays     int64
	MaxDays     int64
}

// Table maps customer countries onto shipping rates
type Table struct {
	domestic string
	regional map[string]bool
	rates    map[Tier]Rate
}

// NewTable builds the tier table from fixed configuration
func NewTable(domesticCountry string, regionalCountries []string, currency string, rates map[Tier]Rate) *Table {
	regional := make(map[string]bool, len(regionalCountries))
	for _, c := range regionalCountries {
		regional[normalizeCountry(c)] = true
	}
	for tier, rate := range rates {
		rate.Tier = tier
		rate.Currency = currency
		rates[tier] = rate
	}
	return &Table{
		domestic: normalizeCountry(domesticCountry),
		regional: regional,
		rates:    rates,
	}
}

// RateFor resolves a detected country code to a rate. Unknown or
// undetectable countries resolve to the domestic tier.
func (t *Table) RateFor(country string) Rate {
	code := normalizeCountry(country)

	switch {
	case code == t.domestic:
		return t.rates[TierDomestic]
	case t.regional[code]:
		return t.rates[TierRegional]
	case isCountryCode(code):
		return t.rates[TierInternational]
	default:
		// Empty or malformed detection falls back to domestic
		return t.rates[TierDomestic]
	}
}

func normalizeCountry(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}

// isCountryCode reports whether the string looks like an ISO 3166-1 alpha-2
// code. The lookup service can return sentinel strings like "Undefined".
func isCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
