package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/internal/txerrors"
	"github.com/txf-quant/txfbt/pkg/types"
)

func decFromStr(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// rateLimiter is a token-bucket limiter guarding outbound requests to
// a remote bar source. Refills at rate tokens per interval, up to
// burst capacity.
type rateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	burst    float64
	rate     float64 // tokens per second
	lastFill time.Time
}

func newRateLimiter(ratePerSecond float64, burst int) *rateLimiter {
	return &rateLimiter{tokens: float64(burst), burst: float64(burst), rate: ratePerSecond, lastFill: time.Now()}
}

// Wait blocks until a token is available or ctx is cancelled.
func (r *rateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(r.lastFill).Seconds()
		r.tokens = min(r.burst, r.tokens+elapsed*r.rate)
		r.lastFill = now
		if r.tokens >= 1 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - r.tokens) / r.rate * float64(time.Second))
		r.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// HTTPSource fetches historical bars from a remote JSON endpoint,
// throttled by a token-bucket limiter so a multi-symbol backfill
// doesn't trip the provider's rate limits.
type HTTPSource struct {
	client  *resty.Client
	limiter *rateLimiter
}

// NewHTTPSource creates a client against baseURL, allowing up to
// requestsPerSecond requests per second with the given burst capacity.
func NewHTTPSource(baseURL string, requestsPerSecond float64, burst int) *HTTPSource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond)
	return &HTTPSource{client: client, limiter: newRateLimiter(requestsPerSecond, burst)}
}

type barPayload struct {
	Timestamp    string `json:"timestamp"`
	Open         string `json:"open"`
	High         string `json:"high"`
	Low          string `json:"low"`
	Close        string `json:"close"`
	Volume       int64  `json:"volume"`
	OpenInterest int64  `json:"open_interest"`
}

// FetchBars retrieves bars for symbol between from and to, rate
// limited per request.
func (s *HTTPSource) FetchBars(ctx context.Context, symbol string, from, to time.Time) ([]types.Bar, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var payload []barPayload
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"from":   from.Format(time.RFC3339),
			"to":     to.Format(time.RFC3339),
		}).
		SetResult(&payload).
		Get("/bars")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", txerrors.ErrDataError, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: remote returned %s", txerrors.ErrDataError, resp.Status())
	}

	bars := make([]types.Bar, 0, len(payload))
	for _, p := range payload {
		bar, err := payloadToBar(symbol, p)
		if err != nil {
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func payloadToBar(symbol string, p barPayload) (types.Bar, error) {
	ts, err := time.Parse(time.RFC3339, p.Timestamp)
	if err != nil {
		return types.Bar{}, err
	}
	open, err1 := decFromStr(p.Open)
	high, err2 := decFromStr(p.High)
	low, err3 := decFromStr(p.Low)
	cls, err4 := decFromStr(p.Close)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return types.Bar{}, fmt.Errorf("malformed bar payload for %s at %s", symbol, p.Timestamp)
	}
	return types.Bar{
		Symbol:       symbol,
		Timestamp:    ts,
		Open:         open,
		High:         high,
		Low:          low,
		Close:        cls,
		Volume:       p.Volume,
		OpenInterest: p.OpenInterest,
	}, nil
}
