package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"perp-trader/internal/domain"
)

const (
	PriceTimeout        = 20 * time.Second
	FundingTimeout      = 15 * time.Second
	OpenInterestTimeout = 12 * time.Second
	CandlesTimeout      = 30 * time.Second

	maxBodyBytes  = 4 << 20
	errorBodySize = 200
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type headerProfile struct {
	userAgent string
	origin    string
}

var headerProfiles = map[domain.ProviderID]headerProfile{
	domain.ProviderBinance:     {origin: "https://www.binance.com"},
	domain.ProviderCoinbase:    {userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", origin: "https://pro.coinbase.com"},
	domain.ProviderCoinGecko:   {userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", origin: "https://www.coingecko.com"},
	domain.ProviderCoinPaprika: {origin: "https://coinpaprika.com"},
	domain.ProviderKraken:      {origin: "https://www.kraken.com"},
}

// Requests per second allowed towards each provider. Public tiers of the
// aggregators are far stricter than the exchanges.
var rateLimits = map[domain.ProviderID]rate.Limit{
	domain.ProviderCoinGecko:     rate.Every(2 * time.Second),
	domain.ProviderCoinGlass:     rate.Every(2 * time.Second),
	domain.ProviderCryptoCompare: 5,
	domain.ProviderCoinPaprika:   5,
	domain.ProviderCoinCap:       5,
	domain.ProviderKraken:        1,
	domain.ProviderCoinbase:      10,
	domain.ProviderBinance:       20,
}

// transport adds browser-like headers to every request and converts the
// statuses that signal regional blocking into *StatusError, so clients that
// swallow status codes still surface them.
type transport struct {
	base    http.RoundTripper
	profile headerProfile
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	setBrowserHeaders(req.Header, t.profile)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if geoStatuses[resp.StatusCode] {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySize))
		resp.Body.Close()
		return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}

func setBrowserHeaders(h http.Header, profile headerProfile) {
	ua := profile.userAgent
	if ua == "" {
		ua = browserUserAgent
	}
	defaults := map[string]string{
		"User-Agent":      ua,
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
		"Cache-Control":   "no-cache",
		"Pragma":          "no-cache",
	}
	if profile.origin != "" {
		defaults["Origin"] = profile.origin
		defaults["Referer"] = profile.origin + "/"
	}
	for k, v := range defaults {
		if h.Get(k) == "" {
			h.Set(k, v)
		}
	}
}

// NewHTTPClient returns an http.Client that carries the browser headers for
// id and reports regional blocking as *StatusError.
func NewHTTPClient(id domain.ProviderID, base http.RoundTripper) *http.Client {
	return &http.Client{Transport: &transport{base: base, profile: headerProfiles[id]}}
}

// Client is the shared plumbing used by the JSON adapters: one transport,
// per-provider rate limiting and uniform error classification.
type Client struct {
	base     http.RoundTripper
	mu       sync.Mutex
	clients  map[domain.ProviderID]*http.Client
	limiters map[domain.ProviderID]*rate.Limiter
}

func NewClient(base http.RoundTripper) *Client {
	return &Client{
		base:     base,
		clients:  make(map[domain.ProviderID]*http.Client),
		limiters: make(map[domain.ProviderID]*rate.Limiter),
	}
}

// HTTPClient returns the http.Client used for id. It is created on first use.
func (c *Client) HTTPClient(id domain.ProviderID) *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	hc, ok := c.clients[id]
	if !ok {
		hc = NewHTTPClient(id, c.base)
		c.clients[id] = hc
	}
	return hc
}

func (c *Client) limiter(id domain.ProviderID) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[id]
	if !ok {
		limit, known := rateLimits[id]
		if !known {
			limit = 5
		}
		l = rate.NewLimiter(limit, 3)
		c.limiters[id] = l
	}
	return l
}

// Wait blocks until the provider's rate limiter admits one request.
func (c *Client) Wait(ctx context.Context, id domain.ProviderID) error {
	if err := c.limiter(id).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// getJSON performs one GET bounded by timeout and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, id domain.ProviderID, capability domain.Capability, timeout time.Duration, rawURL string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.Wait(ctx, id); err != nil {
		return transient(id, capability, err)
	}

	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return transient(id, capability, err)
	}

	res, err := c.HTTPClient(id).Do(req)
	if err != nil {
		return classify(id, capability, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return transient(id, capability, fmt.Errorf("read body: %w", err))
	}

	if res.StatusCode >= 400 {
		snippet := truncate(string(body), errorBodySize)
		kind := KindTransient
		if LooksGeoRestricted(res.StatusCode, snippet) {
			kind = KindGeoRestricted
		}
		return &Error{
			Provider:   id,
			Capability: capability,
			Kind:       kind,
			Status:     res.StatusCode,
			Err:        errors.New(snippet),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return transient(id, capability, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// number decodes JSON numbers that some providers send as strings.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*n = number(v)
	return nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}

// interpolateOHLC fills open/high/low for sources that only report closes.
// Open is the previous close; high and low bracket both.
func interpolateOHLC(candles []domain.Candle) {
	for i := range candles {
		open := candles[i].Close
		if i > 0 {
			open = candles[i-1].Close
		}
		candles[i].Open = open
		candles[i].High = max(open, candles[i].Close)
		candles[i].Low = min(open, candles[i].Close)
	}
}

func tail(candles []domain.Candle, limit int) []domain.Candle {
	if limit > 0 && len(candles) > limit {
		return candles[len(candles)-limit:]
	}
	return candles
}
