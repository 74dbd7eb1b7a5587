package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"mercadinho-be/internal/logger"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client reads live price and quantity-on-hand for one SKU. A pure read: the
// engine never mutates inventory.
type Client interface {
	Quote(ctx context.Context, ean string) (*PriceQuote, error)
}

type Options struct {
	Timeout      time.Duration // per-attempt HTTP timeout
	RetryBackoff time.Duration // pause before the single retry
	RateLimit    rate.Limit    // calls per second against the oracle
	RateBurst    int
	BreakerTrip  uint32 // consecutive failures before the breaker opens
}

func (o *Options) fill() {
	if o.Timeout == 0 {
		o.Timeout = 5 * time.Second
	}
	if o.RetryBackoff == 0 {
		o.RetryBackoff = 300 * time.Millisecond
	}
	if o.RateLimit == 0 {
		o.RateLimit = rate.Limit(20)
	}
	if o.RateBurst == 0 {
		o.RateBurst = 40
	}
	if o.BreakerTrip == 0 {
		o.BreakerTrip = 5
	}
}

type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*PriceQuote]
	limiter    *rate.Limiter
	backoff    time.Duration
	now        func() time.Time
}

func NewClient(baseURL, apiKey string, opts Options) Client {
	opts.fill()

	settings := gobreaker.Settings{
		Name:    "pricing-oracle",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerTrip
		},
		IsSuccessful: func(err error) bool {
			// A missing SKU is an answer, not an outage.
			return err == nil || errors.Is(err, ErrQuoteNotFound)
		},
	}

	return &client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: opts.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[*PriceQuote](settings),
		limiter:    rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		backoff:    opts.RetryBackoff,
		now:        time.Now,
	}
}

// Quote fetches the current price and stock for an EAN. One transient-failure
// retry with backoff; after that the caller gets ErrOracleUnavailable, never
// an invented value.
func (c *client) Quote(ctx context.Context, ean string) (*PriceQuote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	quote, err := c.breaker.Execute(func() (*PriceQuote, error) {
		q, err := c.fetch(ctx, ean)
		if err == nil || errors.Is(err, ErrQuoteNotFound) {
			return q, err
		}

		logger.FromCtx(ctx).Warn("oracle call failed, retrying once",
			zap.String("ean", ean),
			zap.Error(err),
		)

		select {
		case <-time.After(c.backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return c.fetch(ctx, ean)
	})
	if err != nil {
		if errors.Is(err, ErrQuoteNotFound) {
			return nil, ErrQuoteNotFound
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrOracleUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	return quote, nil
}

type quoteResponse struct {
	EAN       string   `json:"ean"`
	Name      string   `json:"nome"`
	Price     *float64 `json:"preco"`
	Available *float64 `json:"estoque"`
}

func (c *client) fetch(ctx context.Context, ean string) (*PriceQuote, error) {
	endpoint := fmt.Sprintf("%s/api/produtos/estoque?ean=%s", c.baseURL, url.QueryEscape(ean))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrQuoteNotFound
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("oracle returned %d: %s", resp.StatusCode, string(body))
	}

	var payload quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding oracle response: %w", err)
	}

	// An empty body for a known-shaped 200 still means "no quote".
	if payload.EAN == "" || payload.Price == nil || payload.Available == nil {
		return nil, ErrQuoteNotFound
	}

	return &PriceQuote{
		EAN:       payload.EAN,
		UnitPrice: *payload.Price,
		Available: *payload.Available,
		FetchedAt: c.now(),
	}, nil
}
