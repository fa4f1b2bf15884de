package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/rescale/pdrive/internal/config"
	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/http"
	"github.com/rescale/pdrive/internal/logging"
	"github.com/rescale/pdrive/internal/ratelimit"
)

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg("[RETRY] " + msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not all info
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("[RETRY] " + msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg("[RETRY] " + msg)
}

// apiMetrics tracks API usage statistics
type apiMetrics struct {
	sync.Mutex
	totalCalls  int64
	callsByPath map[string]int64
}

// Client talks to the storage server's folder and file endpoints.
type Client struct {
	httpClient *nethttp.Client       // JSON calls, retried via StandardClient
	transfer   *retryablehttp.Client // multipart uploads and downloads
	config     *config.Config
	baseURL    string
	limiter    *ratelimit.RateLimiter
	logger     *logging.Logger
	metrics    *apiMetrics
}

// NewClient creates a new API client. logger may be nil.
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if cfg.APIBaseURL == "" {
		return nil, ErrEmptyBaseURL
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	baseURL, err := cfg.ResolveAPIURL()
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}

	// Configure HTTP client with proxy support
	httpClient, err := http.ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}
	transferClient, err := http.CreateTransferClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure transfer client: %w", err)
	}

	return &Client{
		httpClient: newRetryClient(httpClient, logger).StandardClient(),
		transfer:   newRetryClient(transferClient, logger),
		config:     cfg,
		baseURL:    baseURL,
		limiter:    ratelimit.NewRateLimiter(cfg.RequestsPerSecond, constants.DefaultRequestBurst, logger),
		logger:     logger,
		metrics:    &apiMetrics{callsByPath: make(map[string]int64)},
	}, nil
}

func newRetryClient(httpClient *nethttp.Client, logger *logging.Logger) *retryablehttp.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = constants.MaxRetries
	retryClient.RetryWaitMin = constants.RetryInitialDelay
	retryClient.RetryWaitMax = constants.RetryMaxDelay
	retryClient.Logger = &retryLogger{logger: logger}
	// Hand the final response back to the caller instead of a generic
	// "giving up" error, so the server's detail message is not lost.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return retryClient
}

// GetConfig returns the configuration used by this API client
func (c *Client) GetConfig() *config.Config {
	return c.config
}

// BaseURL returns the resolved absolute API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CallCount returns how many API requests this client has issued.
func (c *Client) CallCount() int64 {
	c.metrics.Lock()
	defer c.metrics.Unlock()
	return c.metrics.totalCalls
}

func (c *Client) track(method, path string) {
	c.metrics.Lock()
	c.metrics.totalCalls++
	c.metrics.callsByPath[method+" "+path]++
	c.metrics.Unlock()
}

// doRequest performs a JSON request with rate limiting
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}
	c.track(method, path)

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("API call failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("API call")

	if resp.StatusCode == nethttp.StatusTooManyRequests {
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Str("retry_after", resp.Header.Get("Retry-After")).
			Msg("THROTTLED by server")
	}
	return resp, nil
}

// doJSON runs doRequest and decodes a successful response into out (which may
// be nil). Any status outside ok becomes an *APIError.
func (c *Client) doJSON(ctx context.Context, op, method, path string, body, out interface{}, ok ...int) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	return decodeResponse(op, resp, out, ok...)
}

func decodeResponse(op string, resp *nethttp.Response, out interface{}, ok ...int) error {
	if len(ok) == 0 {
		ok = []int{nethttp.StatusOK}
	}
	accepted := false
	for _, code := range ok {
		if resp.StatusCode == code {
			accepted = true
			break
		}
	}
	if !accepted {
		return newAPIError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}
