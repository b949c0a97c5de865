package gbfs

import (
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrFeedCircuitOpen is returned without touching the network while the feed
// breaker is open.
var ErrFeedCircuitOpen = errors.New("gbfs feed circuit breaker is open")

// TransportConfig tunes the resilient feed transport.
type TransportConfig struct {
	// Timeout bounds a single HTTP attempt. Default 10s.
	Timeout time.Duration

	// MaxRetries bounds retry attempts per request. Default 3.
	MaxRetries uint64

	// InitialInterval and MaxInterval shape the exponential backoff.
	// Defaults 100ms and 5s.
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// BreakerTimeout is how long the breaker stays open before probing.
	// Default 60s.
	BreakerTimeout time.Duration
}

// Transport wraps an HTTP client with exponential-backoff retries and a
// circuit breaker shared across both feed endpoints. The feed publisher is a
// single upstream, so one breaker guards both documents.
type Transport struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     TransportConfig
}

// serverError marks a 5xx so the breaker counts it as a failure.
type serverError struct {
	statusCode int
}

func (e *serverError) Error() string {
	return "feed server error: " + http.StatusText(e.statusCode)
}

// NewTransport creates a resilient feed transport.
func NewTransport(cfg TransportConfig) *Transport {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "gbfs-feed",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
	})

	return &Transport{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		config:     cfg,
	}
}

// Do executes the request with retries on network errors and 5xx responses.
// Returns ErrFeedCircuitOpen immediately while the breaker is open.
func (t *Transport) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = t.config.InitialInterval
	bo.MaxInterval = t.config.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, t.config.MaxRetries), ctx)

	var lastResp *http.Response

	operation := func() error {
		resp, err := t.breaker.Execute(func() (*http.Response, error) {
			r, err := t.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 {
				return r, &serverError{statusCode: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrFeedCircuitOpen)
			}
			if resp != nil {
				resp.Body.Close()
			}
			return err
		}

		lastResp = resp
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return lastResp, nil
}

// State exposes the breaker state for health reporting.
func (t *Transport) State() gobreaker.State {
	return t.breaker.State()
}
