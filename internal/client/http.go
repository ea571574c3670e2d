package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"golang.org/x/time/rate"
)

// DefaultAPIURL is the public detection API.
const DefaultAPIURL = "https://api.gitguardian.com"

const multiscanPath = "/v1/multiscan"

// Options configures an HTTPClient.
type Options struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries uint64
	Logger     *slog.Logger

	// RetryInterval is the first back-off delay. Defaults to one second.
	RetryInterval time.Duration

	// RateLimit is the number of requests per second. Zero disables limiting.
	RateLimit float64
}

// HTTPClient is a Scanner backed by the multiscan HTTP endpoint.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	userAgent  string
	maxRetries uint64
	retryDelay time.Duration
	limiter    *rate.Limiter
	client     *http.Client
	log        *slog.Logger
}

// New creates an HTTPClient. An API key is required.
func New(opts Options) (*HTTPClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key is not set")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	c := &HTTPClient{
		baseURL:    baseURL,
		apiKey:     opts.APIKey,
		userAgent:  opts.UserAgent,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryInterval,
		client:     &http.Client{Timeout: timeout},
		log:        opts.Logger,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	if c.retryDelay == 0 {
		c.retryDelay = time.Second
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	return c, nil
}

// MultiContentScan posts docs to the multiscan endpoint. It returns *Success
// only when the API answered with exactly one result per document.
func (c *HTTPClient) MultiContentScan(ctx context.Context, docs []Payload, headers map[string]string) Response {
	payload, err := json.Marshal(docs)
	if err != nil {
		return &Failure{Detail: fmt.Sprintf("marshaling request: %v", err)}
	}

	var results []ScanResult
	op := func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		var err error
		results, err = c.post(ctx, payload, headers)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.retryable() {
			c.log.Debug("retrying multiscan", "status", apiErr.Status, "documents", len(docs))
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(newBackOff(c.retryDelay), c.maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if IsAuthError(err) {
				c.log.Warn("API refused the API key", "status", apiErr.Status)
			}
			return &Failure{Status: apiErr.Status, Detail: apiErr.Detail}
		}
		return &Failure{Detail: err.Error()}
	}

	if len(results) != len(docs) {
		return &Failure{
			Status: http.StatusOK,
			Detail: fmt.Sprintf("expected %d results, got %d", len(docs), len(results)),
		}
	}
	return &Success{Results: results}
}

func (c *HTTPClient) post(ctx context.Context, payload []byte, headers map[string]string) ([]ScanResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+multiscanPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Detail: detailFrom(body)}
	}

	var results []ScanResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return results, nil
}

// detailFrom extracts the "detail" field of an error body, falling back to
// the raw body.
func detailFrom(body []byte) string {
	var d struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &d); err == nil && d.Detail != "" {
		return d.Detail
	}
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty response"
	}
	return s
}

func newBackOff(initial time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = time.Minute
	return b
}
