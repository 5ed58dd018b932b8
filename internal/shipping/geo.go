package shipping

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// GeoClient maps a client IP to a country code via an external lookup
// service, wrapped in a circuit breaker so a degraded service cannot slow
// every checkout down.
type GeoClient struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewGeoClient creates a geolocation client for the lookup service
func NewGeoClient(baseURL string, timeout time.Duration, log *zap.Logger) *GeoClient {
	st := gobreaker.Settings{
		Name:        "GeoLookup",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &GeoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cb:      gobreaker.NewCircuitBreaker(st),
		timeout: timeout,
	}
}

// CountryForIP returns the two-letter country code for an IP address
func (g *GeoClient) CountryForIP(ctx context.Context, ip string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.lookup(ctx, ip)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (g *GeoClient) lookup(ctx context.Context, ip string) (string, error) {
	url := fmt.Sprintf("%s/%s/country/", g.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geo lookup returned status %d", resp.StatusCode)
	}

	// The service answers with a bare country code
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}
