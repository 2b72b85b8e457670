// Package marketdata fetches company financials from an external provider
// (Alpha Vantage compatible) and refreshes stored market capitalizations.
//
// Every request waits on a shared rate limiter so the provider's quota is
// respected across concurrent callers. Throttled (429, or a 200 carrying a
// quota notice) and 5xx responses are retried with exponential backoff.
package marketdata

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/pharmadex/config"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/internal/httpclient"
	"github.com/teranos/pharmadex/logger"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	maxBodyBytes   = 1 << 20
)

// Quote is the provider's view of one listed company.
type Quote struct {
	Ticker            string  `json:"ticker"`
	MarketCapBillions float64 `json:"marketCapBillions"`
	Price             float64 `json:"price"`
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	APIKey            string
	RequestsPerMinute int
	MaxRetries        int
	Timeout           time.Duration
	// AllowPrivate lets BaseURL point at a local mock provider.
	AllowPrivate bool
	// InitialBackoff overrides the first retry delay (tests).
	InitialBackoff time.Duration
	Logger         *zap.SugaredLogger
}

// OptionsFromConfig maps the marketdata config section to Options.
func OptionsFromConfig(cfg config.MarketDataConfig) Options {
	return Options{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		RequestsPerMinute: cfg.RequestsPerMinute,
		MaxRetries:        cfg.MaxRetries,
		Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Client calls the provider. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	apiKey     string
	http       *httpclient.SaferClient
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	logger     *zap.SugaredLogger
}

// NewClient validates opts and builds a Client. A missing API key or base
// URL is a configuration error.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.WithHint(
			errors.Configuration(nil, "marketdata API key is not set"),
			"set PHARMADEX_MARKETDATA_API_KEY or marketdata.api_key")
	}
	httpc := httpclient.New(httpclient.Options{Timeout: opts.Timeout, AllowPrivate: opts.AllowPrivate})
	base, err := httpc.ValidateURL(opts.BaseURL)
	if err != nil {
		return nil, errors.Configuration(err, "marketdata.base_url %q", opts.BaseURL)
	}

	perMinute := opts.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = config.DefaultRequestsPerMinute
	}
	backoff := opts.InitialBackoff
	if backoff <= 0 {
		backoff = initialBackoff
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		base:       base,
		apiKey:     opts.APIKey,
		http:       httpc,
		limiter:    rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger.OrNop(opts.Logger),
	}, nil
}

// Quote returns market cap and last price for ticker.
func (c *Client) Quote(ctx context.Context, ticker string) (Quote, error) {
	capB, err := c.MarketCap(ctx, ticker)
	if err != nil {
		return Quote{}, err
	}

	var body struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := c.get(ctx, "GLOBAL_QUOTE", ticker, &body); err != nil {
		return Quote{}, err
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(body.GlobalQuote["05. price"]), 64)
	if err != nil {
		return Quote{}, errors.ExternalAPI(err, "quote %s: malformed price", ticker)
	}
	return Quote{Ticker: strings.ToUpper(ticker), MarketCapBillions: capB, Price: price}, nil
}

// MarketCap returns ticker's market capitalization in billions.
func (c *Client) MarketCap(ctx context.Context, ticker string) (float64, error) {
	var body struct {
		Symbol    string `json:"Symbol"`
		MarketCap string `json:"MarketCapitalization"`
	}
	if err := c.get(ctx, "OVERVIEW", ticker, &body); err != nil {
		return 0, err
	}
	if body.Symbol == "" {
		return 0, errors.NotFound("ticker %q is unknown to the provider", ticker)
	}
	raw, err := strconv.ParseFloat(strings.TrimSpace(body.MarketCap), 64)
	if err != nil || raw < 0 {
		return 0, errors.ExternalAPI(err, "overview %s: malformed market capitalization %q", ticker, body.MarketCap)
	}
	return raw / 1e9, nil
}

// get performs one provider call with rate limiting and retries, decoding
// the JSON body into out.
func (c *Client) get(ctx context.Context, function, ticker string, out any) error {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return errors.Validation("ticker is required")
	}

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/query"
	q := url.Values{}
	q.Set("function", function)
	q.Set("symbol", strings.ToUpper(ticker))
	q.Set("apikey", c.apiKey)
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// 1s, 2s, 4s, ... up to maxBackoff
			wait := c.backoff * time.Duration(1<<(attempt-1))
			if wait > maxBackoff {
				wait = maxBackoff
			}
			c.logger.Debugw("Retrying provider call",
				"function", function,
				logger.FieldTicker, ticker,
				"attempt", attempt,
				"wait", wait,
				logger.FieldError, lastErr)
			select {
			case <-ctx.Done():
				return errors.Network(ctx.Err(), "%s %s", function, ticker)
			case <-time.After(wait):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Network(err, "%s %s: rate limiter", function, ticker)
		}

		retry, err := c.do(ctx, u.String(), function, ticker, out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	c.logger.Warnw("Provider call failed after retries",
		"function", function,
		logger.FieldTicker, ticker,
		"attempts", c.maxRetries+1,
		logger.FieldError, lastErr)
	return lastErr
}

// do sends one request. retry reports whether the failure is transient.
func (c *Client) do(ctx context.Context, rawURL, function, ticker string, out any) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, errors.Internal(err, "build %s request", function)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ctx.Err() == nil, errors.Network(err, "%s %s", function, ticker)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return true, errors.Network(err, "%s %s: read body", function, ticker)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, errors.ExternalAPI(nil, "%s %s: status %d", function, ticker, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return false, errors.ExternalAPI(nil, "%s %s: status %d", function, ticker, resp.StatusCode)
	}

	var notice struct {
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &notice); err != nil {
		return false, errors.ExternalAPI(err, "%s %s: malformed payload", function, ticker)
	}
	switch {
	case notice.ErrorMessage != "":
		return false, errors.ExternalAPI(nil, "%s %s: %s", function, ticker, notice.ErrorMessage)
	case notice.Note != "" || notice.Information != "":
		// quota notices arrive as 200s
		return true, errors.ExternalAPI(nil, "%s %s: provider throttled the request", function, ticker)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, errors.ExternalAPI(err, "%s %s: malformed payload", function, ticker)
	}
	return false, nil
}
