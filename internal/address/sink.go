package address

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Sink persists a submitted address. Only success or failure is observed.
type Sink interface {
	Submit(ctx context.Context, payload Payload) error
}

// ErrSubmissionFailed is the SubmissionFailed failure.
var ErrSubmissionFailed = errors.New("address submission failed")

// genericReason is used when the sink gives no usable message.
const genericReason = "address submission failed"

const maxReasonBytes = 512

// SubmissionError carries the sink's reason for rejecting a submission.
type SubmissionError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("submission failed (status %d): %s", e.StatusCode, e.Reason)
	}
	return "submission failed: " + e.Reason
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Is makes every *SubmissionError match ErrSubmissionFailed.
func (e *SubmissionError) Is(target error) bool { return target == ErrSubmissionFailed }

// SinkMetrics counts submissions by outcome.
type SinkMetrics struct {
	Submissions *prometheus.CounterVec
	Duration    prometheus.Histogram
}

// NewSinkMetrics registers sink metrics on reg.
func NewSinkMetrics(reg prometheus.Registerer) *SinkMetrics {
	f := promauto.With(reg)
	return &SinkMetrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shipform_sink_submissions_total",
			Help: "Address sink submissions by outcome",
		}, []string{"outcome"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "shipform_sink_submission_duration_seconds",
			Help:    "Address sink submission latency",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *SinkMetrics) observe(start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.Submissions.WithLabelValues(outcome).Inc()
	m.Duration.Observe(time.Since(start).Seconds())
}

// HTTPSink posts payloads to {base}/indirizzi/create.
type HTTPSink struct {
	endpoint string
	token    string
	http     *http.Client
	metrics  *SinkMetrics
	tracer   trace.Tracer
}

// SinkOption configures an HTTPSink.
type SinkOption func(*HTTPSink)

func WithSinkHTTPClient(c *http.Client) SinkOption {
	return func(s *HTTPSink) { s.http = c }
}

func WithSinkMetrics(m *SinkMetrics) SinkOption {
	return func(s *HTTPSink) { s.metrics = m }
}

// NewHTTPSink builds a sink client authorized with the given bearer token.
func NewHTTPSink(baseURL, token string, opts ...SinkOption) *HTTPSink {
	s := &HTTPSink{
		endpoint: strings.TrimRight(baseURL, "/") + "/indirizzi/create",
		token:    token,
		http:     &http.Client{Timeout: 10 * time.Second},
		tracer:   otel.Tracer("shipform/internal/address"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Submit sends one POST. Any transport error or non-2xx status is a *SubmissionError.
func (s *HTTPSink) Submit(ctx context.Context, payload Payload) (err error) {
	ctx, span := s.tracer.Start(ctx, "address.Submit",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("address.region", payload.RegionName())),
	)
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "submission failed")
		}
		span.End()
		s.metrics.observe(start, err)
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return &SubmissionError{Reason: genericReason, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return &SubmissionError{Reason: genericReason, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return &SubmissionError{Reason: transportReason(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxReasonBytes))
		return &SubmissionError{StatusCode: resp.StatusCode, Reason: reasonFromBody(raw)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func transportReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "address service timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "submission canceled"
	}
	return genericReason
}

// reasonFromBody prefers a JSON "message"/"error_description"/"error" field,
// then plain text, then the generic reason.
func reasonFromBody(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return genericReason
	}
	var body struct {
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		for _, candidate := range []string{body.Message, body.ErrorDescription, body.Error} {
			if c := strings.TrimSpace(candidate); c != "" {
				return c
			}
		}
		return genericReason
	}
	if raw[0] == '<' {
		return genericReason
	}
	return string(raw)
}
