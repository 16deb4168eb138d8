package pisrs

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// HTTPClient is an interface matching the Do method of *http.Client.
// This allows injection of mock clients for testing and custom transports.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultRequestInterval is the default minimum interval between HTTP requests
// to PISRS, to avoid overwhelming the service.
const DefaultRequestInterval = 1 * time.Second

// RateLimitedHTTPClient wraps an HTTPClient with a token-bucket rate limiter
// that admits one request per interval. Waiting honors the request context.
type RateLimitedHTTPClient struct {
	underlying HTTPClient
	limiter    *rate.Limiter
}

// NewRateLimitedHTTPClient creates a rate-limited HTTP client that enforces
// the given minimum interval between requests. A non-positive interval
// disables limiting.
func NewRateLimitedHTTPClient(underlying HTTPClient, requestInterval time.Duration) *RateLimitedHTTPClient {
	limit := rate.Inf
	if requestInterval > 0 {
		limit = rate.Every(requestInterval)
	}
	return &RateLimitedHTTPClient{
		underlying: underlying,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Do executes an HTTP request, waiting for the rate limiter before sending.
func (rateLimitedClient *RateLimitedHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if err := rateLimitedClient.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return rateLimitedClient.underlying.Do(req)
}
