package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the storefront's business counters. A nil *Metrics records
// nothing, so components can be built without a meter in tests.
type Metrics struct {
	ordersPlaced    metric.Int64Counter
	ordersFailed    metric.Int64Counter
	authRequests    metric.Int64Counter
	cartMutations   metric.Int64Counter
	handoffFailures metric.Int64Counter
}

// NewMetrics registers the counters on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFromMeter(otel.Meter("storefront"))
}

func NewMetricsFromMeter(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.ordersPlaced, err = meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders accepted by the remote store")); err != nil {
		return nil, err
	}
	if m.ordersFailed, err = meter.Int64Counter("storefront.orders.failed",
		metric.WithDescription("Checkout attempts rejected or failed")); err != nil {
		return nil, err
	}
	if m.authRequests, err = meter.Int64Counter("storefront.auth.requests",
		metric.WithDescription("Auth gateway calls by operation and outcome")); err != nil {
		return nil, err
	}
	if m.cartMutations, err = meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart changes by operation")); err != nil {
		return nil, err
	}
	if m.handoffFailures, err = meter.Int64Counter("storefront.handoff.failures",
		metric.WithDescription("Order hand-off notifications that could not be sent")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) OrderPlaced(ctx context.Context) {
	if m == nil {
		return
	}
	m.ordersPlaced.Add(ctx, 1)
}

func (m *Metrics) OrderFailed(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.ordersFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) AuthRequest(ctx context.Context, op, outcome string) {
	if m == nil {
		return
	}
	m.authRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) CartMutation(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *Metrics) HandoffFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.handoffFailures.Add(ctx, 1)
}
