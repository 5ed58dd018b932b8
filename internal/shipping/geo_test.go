package shipping

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGeoClient_CountryForIP(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the trimmed country code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/203.0.113.7/country/", r.URL.Path)
			w.Write([]byte("US\n"))
		}))
		defer server.Close()

		client := NewGeoClient(server.URL, time.Second, zap.NewNop())
		country, err := client.CountryForIP(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.Equal(t, "US", country)
	})

	t.Run("non-200 response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewGeoClient(server.URL, time.Second, zap.NewNop())
		_, err := client.CountryForIP(ctx, "203.0.113.7")
		assert.Error(t, err)
	})

	t.Run("breaker opens after repeated failures and stops calling out", func(t *testing.T) {
		var hits atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewGeoClient(server.URL, time.Second, zap.NewNop())
		for i := 0; i < 5; i++ {
			_, err := client.CountryForIP(ctx, "203.0.113.7")
			assert.Error(t, err)
		}
		require.Equal(t, int64(5), hits.Load())

		// The breaker is open now: the next call fails without a request
		_, err := client.CountryForIP(ctx, "203.0.113.7")
		assert.Error(t, err)
		assert.Equal(t, int64(5), hits.Load())
	})
}
