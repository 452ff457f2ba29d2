// Package metrics records checkout and lifecycle outcomes as OpenTelemetry
// counters.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/fjod/go_delivery"

type Metrics struct {
	submissions metric.Int64Counter
	transitions metric.Int64Counter
}

// New registers the counters on provider, or on the global provider when nil.
func New(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	submissions, err := meter.Int64Counter("delivery.orders.submitted",
		metric.WithDescription("Order submissions by outcome"),
		metric.WithUnit("{order}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create submissions counter: %w", err)
	}
	transitions, err := meter.Int64Counter("delivery.status.transitions",
		metric.WithDescription("Status transition requests by entity and outcome"),
		metric.WithUnit("{transition}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create transitions counter: %w", err)
	}

	return &Metrics{submissions: submissions, transitions: transitions}, nil
}

func (m *Metrics) OrderSubmitted(ctx context.Context, outcome string) {
	m.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) StatusTransition(ctx context.Context, entity, outcome string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("outcome", outcome)))
}
