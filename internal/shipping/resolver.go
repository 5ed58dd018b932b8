package shipping

import (
	"context"

	"github.com/keycasey/Spirit-Beads-Service/prometheus"
	"go.uber.org/zap"
)

// CountryLookup resolves an IP address to a country code
type CountryLookup interface {
	CountryForIP(ctx context.Context, ip string) (string, error)
}

// Resolver picks the shipping rate for a checkout from a forwarded country
// hint or, failing that, an IP lookup.
type Resolver struct {
	table  *Table
	lookup CountryLookup
	log    *zap.Logger
}

// NewResolver creates a shipping rate resolver
func NewResolver(table *Table, lookup CountryLookup, log *zap.Logger) *Resolver {
	return &Resolver{table: table, lookup: lookup, log: log}
}

// Quote resolves the shipping rate for a request. countryHint comes from the
// forwarded geolocation header and wins when present; otherwise the client
// IP is looked up. Detection failure is not an error, it selects the
// domestic fallback.
func (r *Resolver) Quote(ctx context.Context, countryHint string, clientIP string) Rate {
	country := normalizeCountry(countryHint)

	if country == "" && clientIP != "" && r.lookup != nil {
		detected, err := r.lookup.CountryForIP(ctx, clientIP)
		if err != nil {
			r.log.Warn("Country lookup failed, using domestic shipping tier",
				zap.String("ip", clientIP),
				zap.Error(err))
		} else {
			country = detected
		}
	}

	rate := r.table.RateFor(country)
	prometheus.RecordShippingTier(string(rate.Tier))
	return rate
}
