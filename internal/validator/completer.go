package validator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRateLimit   = 5 // requests per second
	defaultBurst       = 5
	defaultMaxRetries  = 3
	defaultBaseBackoff = 1 * time.Second
	defaultHTTPTimeout = 2 * time.Minute
	defaultMaxTokens   = 1024

	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultAnthropicBaseURL = "https://api.anthropic.com"
)

// Completer sends one system+user prompt pair to a model and returns the
// raw text of its reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Options selects and configures a Completer.
type Options struct {
	Provider   string
	Model      string
	BaseURL    string
	APIKey     string
	MaxRetries int
	RateLimit  float64
	Burst      int
	// HTTPClient is optional; tests use it to point at httptest servers.
	HTTPClient *http.Client
}

// NewCompleter builds the provider's completer wrapped with rate limiting
// and transport retries.
func NewCompleter(opts Options) (Completer, error) {
	var (
		c   Completer
		err error
	)
	switch opts.Provider {
	case "openai":
		c, err = newOpenAICompleter(opts)
	case "anthropic":
		c, err = newAnthropicCompleter(opts)
	default:
		return nil, fmt.Errorf("unknown provider: %s", opts.Provider)
	}
	if err != nil {
		return nil, err
	}

	limit, burst, retries := opts.RateLimit, opts.Burst, opts.MaxRetries
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	if retries < 0 {
		retries = defaultMaxRetries
	}
	return NewResilientCompleter(c, rate.NewLimiter(rate.Limit(limit), burst), retries, defaultBaseBackoff), nil
}

// ResilientCompleter rate limits calls to next and retries retryable
// failures with exponential backoff.
type ResilientCompleter struct {
	next        Completer
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
}

// NewResilientCompleter wraps next. A nil limiter disables rate limiting.
func NewResilientCompleter(next Completer, limiter *rate.Limiter, maxRetries int, baseBackoff time.Duration) *ResilientCompleter {
	return &ResilientCompleter{
		next:        next,
		limiter:     limiter,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
	}
}

// Complete implements Completer.
func (r *ResilientCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := r.baseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
			}
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("rate limiter: %w", err)
			}
		}

		out, err := r.next.Complete(ctx, system, user)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryableError(err) || ctx.Err() != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}
