// Package supabase provides the PostgREST-backed implementation of the
// ledger store and member directory ports. It is the production data
// backend; the in-memory store covers dev mode and tests.
package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/observability"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to the Supabase PostgREST API. Every request goes
// through the bulkhead, the circuit breaker and retry-with-backoff; the
// reporting engine above never retries on its own.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	bulkhead       *resilience.Bulkhead
	cfg            resilience.Config
	metrics        *observability.Metrics
	logger         *zap.Logger
	loc            *time.Location
}

// NewClient creates a Supabase client. loc is the reporting timezone used
// for day grouping.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger, loc *time.Location) *Client {
	if loc == nil {
		loc = time.UTC
	}
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		bulkhead:       resilience.NewBulkhead(maxConcurrency),
		cfg:            cfg,
		metrics:        metrics,
		logger:         logger,
		loc:            loc,
	}
}

// doRequest executes an authenticated read against Supabase PostgREST with
// the full resilience stack. All ledger queries are GETs, so retrying is
// always safe.
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			var err error
			body, err = c.get(ctx, path)
			return err
		})
	})
	if err != nil {
		c.metrics.IncrLedgerError("supabase")
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, &domain.ErrCircuitOpen{Service: "supabase"}
		}
		return nil, &domain.ErrExternalService{Service: "supabase", Err: err}
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("supabase: request OK",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

// pgTimestamp formats a timestamp for a PostgREST filter value.
// Millisecond precision matches the ledger's column resolution.
func pgTimestamp(t time.Time) string {
	return url.QueryEscape(t.Format("2006-01-02T15:04:05.000Z07:00"))
}

// windowFilter renders a domain.Window as PostgREST query conditions on the
// given column. The closed-interval report window uses lte; everything else
// is half-open.
func windowFilter(column string, w domain.Window) string {
	var parts []string
	if !w.Start.IsZero() {
		parts = append(parts, fmt.Sprintf("%s=gte.%s", column, pgTimestamp(w.Start)))
	}
	if !w.End.IsZero() {
		op := "lt"
		if w.EndInclusive {
			op = "lte"
		}
		parts = append(parts, fmt.Sprintf("%s=%s.%s", column, op, pgTimestamp(w.End)))
	}
	return strings.Join(parts, "&")
}

// appendFilter joins a non-empty condition onto a query path.
func appendFilter(path, cond string) string {
	if cond == "" {
		return path
	}
	return path + "&" + cond
}
