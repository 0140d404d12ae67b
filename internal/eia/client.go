package eia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"energypolicy/internal/config"
	apperrors "energypolicy/internal/errors"
	"energypolicy/internal/infrastructure"
)

// maxResponseBytes caps how much of an upstream body is read
const maxResponseBytes = 32 << 20

var (
	// ErrMissingAPIKey is returned when no API key is configured
	ErrMissingAPIKey = errors.New("EIA API key not configured")
	// ErrInvalidResponse is returned when a 2xx body is not JSON
	ErrInvalidResponse = errors.New("EIA API returned invalid JSON")
)

// UpstreamError reports a non-2xx upstream response
type UpstreamError struct {
	Status     int
	StatusText string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("EIA API error: %d %s", e.Status, e.StatusText)
}

// Client calls the statistics API. It never retries.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *infrastructure.BusinessMetrics
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithLogger sets the client logger
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithMetrics records upstream calls on m
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

// NewClient creates a client from the EIA configuration section
func NewClient(cfg config.EIAConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.EIABaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = infrastructure.GetLogger()
	}
	c.logger = c.logger.With(slog.String("component", "eia_client"))
	return c
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// BuildURL renders the upstream URL for p. Parameters appear in a fixed
// order: api_key, frequency, data[], facets, start, end, length, sort.
func (c *Client) BuildURL(p Params) string {
	var q queryBuilder
	q.add("api_key", c.apiKey)
	if p.Frequency != "" {
		q.add("frequency", p.Frequency)
	}
	for _, d := range p.Data {
		q.add("data[]", d)
	}
	for _, f := range p.Facets {
		for _, v := range f.Values {
			q.add("facets["+f.Key+"][]", v)
		}
	}
	if p.Start != "" {
		q.add("start", p.Start)
	}
	if p.End != "" {
		q.add("end", p.End)
	}
	if p.Length > 0 {
		q.add("length", strconv.Itoa(p.Length))
	}
	for i, s := range p.Sort {
		q.add(fmt.Sprintf("sort[%d][column]", i), s.Column)
		q.add(fmt.Sprintf("sort[%d][direction]", i), s.Direction)
	}

	return c.baseURL + "/" + p.Route + "?" + q.String()
}

// Fetch validates p, calls the API and returns the JSON body unchanged
func (c *Client) Fetch(ctx context.Context, p Params) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrMissingAPIKey
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.do(ctx, p)
	c.metrics.RecordUpstreamCall(ctx, p.Route, time.Since(start), err)

	if err != nil {
		c.logger.WarnContext(ctx, "EIA request failed",
			slog.String("route", p.Route),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	c.logger.DebugContext(ctx, "EIA request completed",
		slog.String("route", p.Route),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)))
	return body, nil
}

func (c *Client) do(ctx context.Context, p Params) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BuildURL(p), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("EIA request failed", redactURLError(err)).
			WithContext("route", p.Route)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &UpstreamError{Status: resp.StatusCode, StatusText: statusText(resp)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read EIA response: %w", err)
	}
	if !json.Valid(body) {
		return nil, ErrInvalidResponse
	}
	return body, nil
}

// statusText is the reason phrase of resp, e.g. "Not Found"
func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if text := strings.TrimPrefix(resp.Status, prefix); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// redactURLError drops the request URL, which carries the API key
func redactURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

type queryBuilder struct {
	b strings.Builder
}

func (q *queryBuilder) add(key, value string) {
	if q.b.Len() > 0 {
		q.b.WriteByte('&')
	}
	q.b.WriteString(url.QueryEscape(key))
	q.b.WriteByte('=')
	q.b.WriteString(url.QueryEscape(value))
}

func (q *queryBuilder) String() string {
	return q.b.String()
}

// CacheControl renders the response cache policy for proxied data
func CacheControl(maxAge, staleWhileRevalidate time.Duration) string {
	return fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate=%d",
		int64(maxAge/time.Second), int64(staleWhileRevalidate/time.Second))
}
