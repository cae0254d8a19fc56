package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "hornbeam.requests.total"
	metricRequestDuration  = "hornbeam.request.duration.seconds"
	metricErrorsTotal      = "hornbeam.errors.total"
	metricInflightRequests = "hornbeam.inflight.requests"

	metricRewrites            = "hornbeam.rewrites"
	metricRewriteReplacements = "hornbeam.rewrite.replacements"
	metricRewriteDuration     = "hornbeam.rewrite.duration.seconds"

	attrOp      = "op"
	attrStatus  = "status"
	attrRule    = "rule"
	attrOutcome = "outcome"

	// StatusOK marks a successful request.
	StatusOK = "ok"
	// StatusError marks a failed request.
	StatusError = "error"
)

// Rewrite outcomes.
const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
	OutcomeError     = "error"
)

// durationBucketBoundaries covers 100µs to 30s: single-node rewrites finish
// in well under a millisecond, whole-file passes over large inputs in seconds.
var durationBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}

// REDMetrics holds the OTel instruments for Rate, Error, Duration metrics of
// served requests (MCP tool calls and HTTP).
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{
		requestsTotal:    reqTotal,
		requestDuration:  reqDuration,
		errorsTotal:      errTotal,
		inflightRequests: inflight,
	}, nil
}

// RecordRequest records a completed request with its operation, status, and duration.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrOp, op),
		))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// RewriteMetrics counts rule applications by outcome.
type RewriteMetrics struct {
	rewrites     metric.Int64Counter
	replacements metric.Int64Counter
	duration     metric.Float64Histogram
}

// NewRewriteMetrics creates rewrite instruments from the given meter.
func NewRewriteMetrics(mt metric.Meter) (*RewriteMetrics, error) {
	rewrites, err := mt.Int64Counter(metricRewrites,
		metric.WithDescription("Rule applications by outcome"),
		metric.WithUnit("{application}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRewrites, err)
	}

	replacements, err := mt.Int64Counter(metricRewriteReplacements,
		metric.WithDescription("Nodes replaced by rule"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRewriteReplacements, err)
	}

	duration, err := mt.Float64Histogram(metricRewriteDuration,
		metric.WithDescription("Rule application duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRewriteDuration, err)
	}

	return &RewriteMetrics{
		rewrites:     rewrites,
		replacements: replacements,
		duration:     duration,
	}, nil
}

// RecordRewrite records one application of rule.
func (rm *RewriteMetrics) RecordRewrite(ctx context.Context, rule, outcome string, replaced int, duration time.Duration) {
	ruleAttr := attribute.String(attrRule, rule)

	rm.rewrites.Add(ctx, 1, metric.WithAttributes(ruleAttr, attribute.String(attrOutcome, outcome)))
	rm.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(ruleAttr))

	if replaced > 0 {
		rm.replacements.Add(ctx, int64(replaced), metric.WithAttributes(ruleAttr))
	}
}
