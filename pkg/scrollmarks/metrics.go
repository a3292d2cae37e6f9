package scrollmarks

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "scrollmarks"

type metrics struct {
	dispatches metric.Int64Counter
	checks     metric.Int64Counter
	recomputes metric.Int64Counter
	live       metric.Int64UpDownCounter
}

func newMetrics(provider metric.MeterProvider) *metrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	m := &metrics{}
	var err error
	if m.dispatches, err = meter.Int64Counter("scrollmarks.dispatches",
		metric.WithDescription("Callbacks invoked for crossed marks"),
		metric.WithUnit("{call}")); err != nil {
		otel.Handle(err)
		m.dispatches, _ = fallback.Int64Counter("scrollmarks.dispatches")
	}
	if m.checks, err = meter.Int64Counter("scrollmarks.checks",
		metric.WithDescription("Crossing scans performed"),
		metric.WithUnit("{scan}")); err != nil {
		otel.Handle(err)
		m.checks, _ = fallback.Int64Counter("scrollmarks.checks")
	}
	if m.recomputes, err = meter.Int64Counter("scrollmarks.recomputes",
		metric.WithDescription("Trigger points recalculated"),
		metric.WithUnit("{mark}")); err != nil {
		otel.Handle(err)
		m.recomputes, _ = fallback.Int64Counter("scrollmarks.recomputes")
	}
	if m.live, err = meter.Int64UpDownCounter("scrollmarks.live",
		metric.WithDescription("Registered marks"),
		metric.WithUnit("{mark}")); err != nil {
		otel.Handle(err)
		m.live, _ = fallback.Int64UpDownCounter("scrollmarks.live")
	}
	return m
}

func (m *metrics) dispatched(dir Direction) {
	m.dispatches.Add(context.Background(), 1, metric.WithAttributes(attribute.String("direction", dir.String())))
}

func (m *metrics) checked() {
	m.checks.Add(context.Background(), 1)
}

func (m *metrics) recomputed(n int) {
	m.recomputes.Add(context.Background(), int64(n))
}

func (m *metrics) added()   { m.live.Add(context.Background(), 1) }
func (m *metrics) removed() { m.live.Add(context.Background(), -1) }
