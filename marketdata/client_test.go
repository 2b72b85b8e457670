package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/pharmadex/config"
	"github.com/teranos/pharmadex/errors"
)

// provider fakes the quote API. respond gets the 1-based call number.
func provider(t *testing.T, respond func(call int, w http.ResponseWriter, r *http.Request)) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		respond(int(n), w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testClient(t *testing.T, baseURL string, retries int) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL:           baseURL,
		APIKey:            "test-key",
		RequestsPerMinute: 600000,
		MaxRetries:        retries,
		Timeout:           5 * time.Second,
		AllowPrivate:      true,
		InitialBackoff:    time.Millisecond,
		Logger:            zaptest.NewLogger(t).Sugar(),
	})
	require.NoError(t, err)
	return c
}

func overview(w http.ResponseWriter, symbol, cap string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"Symbol":%q,"Name":"Pfizer Inc","MarketCapitalization":%q}`, symbol, cap)
}

func TestQuote(t *testing.T) {
	srv, calls := provider(t, func(_ int, w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PFE", r.URL.Query().Get("symbol"))
		switch r.URL.Query().Get("function") {
		case "OVERVIEW":
			overview(w, "PFE", "160500000000")
		case "GLOBAL_QUOTE":
			fmt.Fprint(w, `{"Global Quote":{"01. symbol":"PFE","05. price":"28.4100"}}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	q, err := testClient(t, srv.URL, 0).Quote(context.Background(), "pfe")
	require.NoError(t, err)
	assert.Equal(t, Quote{Ticker: "PFE", MarketCapBillions: 160.5, Price: 28.41}, q)
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestRetriesTransientFailures(t *testing.T) {
	srv, calls := provider(t, func(call int, w http.ResponseWriter, _ *http.Request) {
		switch call {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		case 3:
			fmt.Fprint(w, `{"Note":"Thank you for using our API. Our standard API rate limit is 5 requests per minute."}`)
		default:
			overview(w, "NVS", "190000000000")
		}
	})

	capB, err := testClient(t, srv.URL, 3).MarketCap(context.Background(), "NVS")
	require.NoError(t, err)
	assert.Equal(t, 190.0, capB)
	assert.EqualValues(t, 4, atomic.LoadInt32(calls))
}

func TestRetriesExhausted(t *testing.T) {
	srv, calls := provider(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := testClient(t, srv.URL, 2).MarketCap(context.Background(), "NVS")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryExternalAPI, errors.CategoryOf(err))
	assert.Contains(t, err.Error(), "status 503")
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestPermanentFailuresAreNotRetried(t *testing.T) {
	tests := []struct {
		name     string
		respond  func(w http.ResponseWriter)
		category errors.Category
	}{
		{"bad request", func(w http.ResponseWriter) { w.WriteHeader(http.StatusBadRequest) }, errors.CategoryExternalAPI},
		{"provider error", func(w http.ResponseWriter) { fmt.Fprint(w, `{"Error Message":"Invalid API call."}`) }, errors.CategoryExternalAPI},
		{"not json", func(w http.ResponseWriter) { fmt.Fprint(w, `<html>maintenance</html>`) }, errors.CategoryExternalAPI},
		{"malformed cap", func(w http.ResponseWriter) { overview(w, "PFE", "None") }, errors.CategoryExternalAPI},
		{"unknown ticker", func(w http.ResponseWriter) { fmt.Fprint(w, `{}`) }, errors.CategoryNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := provider(t, func(_ int, w http.ResponseWriter, _ *http.Request) { tt.respond(w) })

			_, err := testClient(t, srv.URL, 3).MarketCap(context.Background(), "PFE")
			require.Error(t, err)
			assert.Equal(t, tt.category, errors.CategoryOf(err))
			assert.EqualValues(t, 1, atomic.LoadInt32(calls))
		})
	}
}

func TestTransportFailureIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := testClient(t, base, 1).MarketCap(context.Background(), "PFE")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNetwork, errors.CategoryOf(err))
}

func TestCancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv, calls := provider(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		cancel()
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := testClient(t, srv.URL, 5).MarketCap(ctx, "PFE")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNetwork, errors.CategoryOf(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestLimiterSpacesRequests(t *testing.T) {
	srv, _ := provider(t, func(_ int, w http.ResponseWriter, _ *http.Request) {
		overview(w, "PFE", "1000000000")
	})
	c, err := NewClient(Options{BaseURL: srv.URL, APIKey: "test-key", RequestsPerMinute: 600, AllowPrivate: true})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.MarketCap(context.Background(), "PFE")
		require.NoError(t, err)
	}
	// 10/s with burst 1: the 2nd and 3rd calls wait ~100ms each
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "https://www.alphavantage.co"})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err))
	assert.Contains(t, errors.GetAllHints(err), "set PHARMADEX_MARKETDATA_API_KEY or marketdata.api_key")

	_, err = NewClient(Options{BaseURL: "http://127.0.0.1:9999", APIKey: "k"})
	assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err), "private base URL needs AllowPrivate")

	_, err = testClient(t, "http://127.0.0.1:1", 0).MarketCap(context.Background(), "  ")
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.MarketDataConfig{
		BaseURL:           "https://quotes.example",
		APIKey:            "k",
		RequestsPerMinute: 75,
		MaxRetries:        4,
		TimeoutSeconds:    9,
	})
	assert.Equal(t, Options{
		BaseURL:           "https://quotes.example",
		APIKey:            "k",
		RequestsPerMinute: 75,
		MaxRetries:        4,
		Timeout:           9 * time.Second,
	}, opts)
}
