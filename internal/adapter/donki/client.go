package donki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/config"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/domain"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/observability"
)

const (
	dateLayout = "2006-01-02"

	// maxErrorBody caps how much of an upstream error response is carried
	// in a ClientError.
	maxErrorBody = 512
)

// Client fetches CME and GST records from the DONKI API with retry,
// exponential backoff, and range chunking.
type Client struct {
	baseURL      string
	cmeEndpoint  string
	gstEndpoint  string
	apiKey       string
	maxRetries   int
	baseDelay    time.Duration
	maxRangeDays int

	httpClient *http.Client
	clock      clockwork.Clock
	cache      *responseCache
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a DONKI client from config. The per-attempt timeout
// comes from cfg.RequestTimeout; sleeps between attempts go through the
// given clock so tests can run without real delays.
func NewClient(cfg *config.Config, clk clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		cmeEndpoint:  cfg.CMEEndpoint,
		gstEndpoint:  cfg.GSTEndpoint,
		apiKey:       cfg.APIKey,
		maxRetries:   cfg.MaxRetries,
		baseDelay:    cfg.BaseDelay,
		maxRangeDays: cfg.MaxRangeDays,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		clock:   clk,
		cache:   newResponseCache(cfg.CacheSize),
		logger:  logger,
		metrics: metrics,
	}
}

// FetchCME retrieves raw CME records for [start, end], chunking ranges
// longer than the configured maximum into sequential sub-requests.
func (c *Client) FetchCME(ctx context.Context, start, end time.Time) ([]domain.RawCME, error) {
	var all []domain.RawCME
	err := c.fetchChunked(ctx, c.cmeEndpoint, start, end, func(body []byte) error {
		var page []domain.RawCME
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("decode CME response: %w", err)
		}
		all = append(all, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.RecordsFetched.WithLabelValues("cme").Add(float64(len(all)))
	}
	return all, nil
}

// FetchGST retrieves raw GST records for [start, end], chunking ranges
// longer than the configured maximum into sequential sub-requests.
func (c *Client) FetchGST(ctx context.Context, start, end time.Time) ([]domain.RawGST, error) {
	var all []domain.RawGST
	err := c.fetchChunked(ctx, c.gstEndpoint, start, end, func(body []byte) error {
		var page []domain.RawGST
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("decode GST response: %w", err)
		}
		all = append(all, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.RecordsFetched.WithLabelValues("gst").Add(float64(len(all)))
	}
	return all, nil
}

// fetchChunked validates the range, splits it into maxRangeDays-sized
// chunks, and feeds each response body to decode in chronological order.
func (c *Client) fetchChunked(ctx context.Context, endpoint string, start, end time.Time, decode func([]byte) error) error {
	if start.After(end) {
		return fmt.Errorf("%s: start date %s is after end date %s",
			endpoint, start.Format(dateLayout), end.Format(dateLayout))
	}

	for chunkStart := start; !chunkStart.After(end); {
		chunkEnd := chunkStart.AddDate(0, 0, c.maxRangeDays)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		body, err := c.fetch(ctx, endpoint, chunkStart, chunkEnd)
		if err != nil {
			return err
		}
		if err := decode(body); err != nil {
			return err
		}

		// Next chunk starts the day after this one ended.
		chunkStart = chunkEnd.AddDate(0, 0, 1)
	}
	return nil
}

// fetch performs one date-range request with the retry policy: network
// errors, 5xx, and 429 are retried up to maxRetries times with exponential
// backoff (baseDelay * 2^attempt); other 4xx statuses fail immediately.
func (c *Client) fetch(ctx context.Context, endpoint string, start, end time.Time) ([]byte, error) {
	cacheKey := fmt.Sprintf("%s|%s|%s", endpoint, start.Format(dateLayout), end.Format(dateLayout))
	if body, ok := c.cache.get(cacheKey); ok {
		c.logger.Debug("serving cached response",
			"endpoint", endpoint,
			"start", start.Format(dateLayout),
			"end", end.Format(dateLayout),
		)
		return body, nil
	}

	params := url.Values{
		"startDate": {start.Format(dateLayout)},
		"endDate":   {end.Format(dateLayout)},
		"api_key":   {c.apiKey},
	}
	fullURL := c.baseURL + endpoint + "?" + params.Encode()

	attempts := c.maxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		body, retryable, err := c.doRequest(ctx, endpoint, fullURL)
		if err == nil {
			c.logAttempt(endpoint, start, end, attempt, "success")
			c.countAttempt(endpoint, "success")
			c.cache.put(cacheKey, body)
			return body, nil
		}
		if !retryable {
			c.logAttempt(endpoint, start, end, attempt, "fatal", "error", err)
			c.countAttempt(endpoint, "fatal")
			return nil, err
		}

		lastErr = err
		c.logAttempt(endpoint, start, end, attempt, "retryable", "error", err)
		c.countAttempt(endpoint, "retryable")

		if attempt == attempts-1 {
			break
		}
		delay := c.baseDelay << attempt
		c.logger.Warn("request failed, backing off",
			"endpoint", endpoint,
			"attempt", attempt+1,
			"delay", delay,
		)
		if c.metrics != nil {
			c.metrics.FetchRetries.WithLabelValues(endpoint).Inc()
		}
		if !c.sleep(ctx, delay) {
			return nil, &RequestError{Endpoint: endpoint, Attempts: attempt + 1, Err: ctx.Err()}
		}
	}

	return nil, &RequestError{Endpoint: endpoint, Attempts: attempts, Err: lastErr}
}

// doRequest performs a single HTTP attempt. The second return value reports
// whether the failure is worth retrying.
func (c *Client) doRequest(ctx context.Context, endpoint, fullURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, fmt.Errorf("read response body: %w", err)
		}
		return body, false, nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for connection reuse
		return nil, true, fmt.Errorf("%s: status %d", endpoint, resp.StatusCode)

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, false, &ClientError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
}

// logAttempt records one attempt. The API key is a query parameter, so the
// full URL is never logged.
func (c *Client) logAttempt(endpoint string, start, end time.Time, attempt int, outcome string, extra ...any) {
	args := append([]any{
		"endpoint", endpoint,
		"start", start.Format(dateLayout),
		"end", end.Format(dateLayout),
		"attempt", attempt + 1,
		"outcome", outcome,
	}, extra...)
	c.logger.Info("donki request", args...)
}

func (c *Client) countAttempt(endpoint, outcome string) {
	if c.metrics != nil {
		c.metrics.FetchAttempts.WithLabelValues(endpoint, outcome).Inc()
	}
}

// sleep waits for d on the injected clock, returning false if the context
// was cancelled first.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-c.clock.After(d):
		return true
	}
}
