// Package currency converts USD costs to EUR using a cached exchange rate.
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	DefaultURL  = "https://open.er-api.com/v6/latest/USD"
	DefaultRate = 0.95
)

// Rate sources reported in a Quote.
const (
	SourceLive     = "live"
	SourceCached   = "cached"
	SourceStale    = "stale"
	SourceFallback = "fallback"
)

// Options configures a Converter.
type Options struct {
	URL          string
	TTL          time.Duration
	DefaultRate  float64
	FetchTimeout time.Duration
	HTTPClient   *http.Client
}

// Quote is a USD to EUR rate and where it came from.
type Quote struct {
	Rate      float64   `json:"rate"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
}

// Converter caches the USD to EUR rate for TTL. A failed refresh keeps the
// last good rate, or the default rate if there never was one.
type Converter struct {
	mu        sync.Mutex
	opts      Options
	rate      float64
	fetchedAt time.Time
	now       func() time.Time
	logger    logrus.FieldLogger
}

// New creates a Converter.
func New(opts Options, logger logrus.FieldLogger) *Converter {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.DefaultRate <= 0 {
		opts.DefaultRate = DefaultRate
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 3 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Converter{opts: opts, now: time.Now, logger: logger}
}

// Quote returns the current rate, refreshing it when the cache has expired.
func (c *Converter) Quote(ctx context.Context) Quote {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.rate > 0 && now.Sub(c.fetchedAt) < c.opts.TTL {
		return Quote{Rate: c.rate, Source: SourceCached, FetchedAt: c.fetchedAt}
	}

	rate, err := c.fetch(ctx)
	if err != nil {
		if c.rate > 0 {
			c.logger.WithError(err).Warn("Failed to refresh currency rate, keeping last value")
			return Quote{Rate: c.rate, Source: SourceStale, FetchedAt: c.fetchedAt}
		}
		c.logger.WithError(err).Warn("Failed to fetch live currency rate, using fallback")
		return Quote{Rate: c.opts.DefaultRate, Source: SourceFallback}
	}

	c.rate = rate
	c.fetchedAt = now
	c.logger.WithField("rate", rate).Info("Updated currency rate")
	return Quote{Rate: rate, Source: SourceLive, FetchedAt: now}
}

// ToEUR converts a USD amount, rounded to 6 decimals.
func (c *Converter) ToEUR(ctx context.Context, usd float64) (float64, Quote) {
	q := c.Quote(ctx)
	eur := decimal.NewFromFloat(usd).Mul(decimal.NewFromFloat(q.Rate)).Round(6)
	return eur.InexactFloat64(), q
}

type rateResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func (c *Converter) fetch(ctx context.Context) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate service returned %s", resp.Status)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decoding rate response: %w", err)
	}
	rate, ok := body.Rates["EUR"]
	if !ok || rate <= 0 {
		return 0, errors.New("rate response has no EUR rate")
	}
	return rate, nil
}
