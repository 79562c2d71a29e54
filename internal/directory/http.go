package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBytes = 4 << 20

const (
	opListRegions   = "list_regions"
	opListDistricts = "list_districts"
)

// HTTPClient is the HTTP implementation of Client:
//
//	GET {base}/provincia        -> [{"id":..,"name":..}]
//	GET {base}/provincia/{id}   -> [{"codiceComune":..,"name":..}]
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
	metrics *Metrics
	tracer  trace.Tracer
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient swaps the underlying transport client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		h.http = c
	}
}

// WithMetrics records call outcomes.
func WithMetrics(m *Metrics) Option {
	return func(h *HTTPClient) {
		h.metrics = m
	}
}

// NewHTTPClient builds a directory client that authorizes every call with the
// given bearer token. An empty token sends no Authorization header; the
// directory is expected to reject such calls.
func NewHTTPClient(baseURL, token string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		tracer:  otel.Tracer("shipform/internal/directory"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// ListRegions fetches every region.
func (c *HTTPClient) ListRegions(ctx context.Context) (regions []Region, err error) {
	ctx, span := c.tracer.Start(ctx, "directory.ListRegions", trace.WithSpanKind(trace.SpanKindClient))
	start := time.Now()
	defer func() {
		c.finish(span, opListRegions, start, err)
	}()

	if err := c.getJSON(ctx, "/provincia", &regions); err != nil {
		return nil, wrap(opListRegions, "", err)
	}
	span.SetAttributes(attribute.Int("directory.regions", len(regions)))
	return regions, nil
}

// ListDistricts fetches the districts of one region.
func (c *HTTPClient) ListDistricts(ctx context.Context, regionID RegionID) (districts []District, err error) {
	ctx, span := c.tracer.Start(ctx, "directory.ListDistricts",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("directory.region_id", regionID.String())),
	)
	start := time.Now()
	defer func() {
		c.finish(span, opListDistricts, start, err)
	}()

	if err := c.getJSON(ctx, "/provincia/"+url.PathEscape(regionID.String()), &districts); err != nil {
		return nil, wrap(opListDistricts, regionID, err)
	}
	span.SetAttributes(attribute.Int("directory.districts", len(districts)))
	return districts, nil
}

func (c *HTTPClient) finish(span trace.Span, op string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(categoryOf(err)))
	}
	span.End()
	c.metrics.observe(op, start, err)
}

type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

type decodeError struct {
	err error
}

func (e decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e decodeError) Unwrap() error { return e.err }

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return statusError{code: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return decodeError{err: err}
	}
	return nil
}

func wrap(op string, regionID RegionID, err error) *Error {
	e := &Error{Op: op, RegionID: regionID, Err: err}
	var se statusError
	var de decodeError
	switch {
	case errors.As(err, &se):
		e.Category = CategoryStatus
		e.StatusCode = se.code
	case errors.As(err, &de):
		e.Category = CategoryBadData
	case errors.Is(err, context.Canceled):
		e.Category = CategoryCanceled
	default:
		e.Category = CategoryTransport
	}
	return e
}

func categoryOf(err error) Category {
	var de *Error
	if errors.As(err, &de) {
		return de.Category
	}
	return CategoryTransport
}
