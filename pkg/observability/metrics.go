package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ajitpratap0/slabpool/pkg/threadpool"
)

// StatsSource reports thread pool occupancy.
type StatsSource interface {
	Stats() threadpool.Stats
}

// RegisterPoolGauges publishes queue and record slab occupancy of every
// source as observable gauges on m. Unregister the returned registration
// before the sources are closed.
func RegisterPoolGauges(m metric.Meter, sources ...StatsSource) (metric.Registration, error) {
	pending, err := m.Int64ObservableGauge("slabpool.pool.pending",
		metric.WithDescription("Tasks queued but not yet picked up"))
	if err != nil {
		return nil, err
	}
	live, err := m.Int64ObservableGauge("slabpool.pool.records.live",
		metric.WithDescription("Task records currently allocated"))
	if err != nil {
		return nil, err
	}
	pools, err := m.Int64ObservableGauge("slabpool.pool.records.pools",
		metric.WithDescription("Static pools backing task records"))
	if err != nil {
		return nil, err
	}
	capacity, err := m.Int64ObservableGauge("slabpool.pool.records.capacity",
		metric.WithDescription("Task record slots across all static pools"))
	if err != nil {
		return nil, err
	}

	return m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, src := range sources {
			s := src.Stats()
			attrs := metric.WithAttributes(attribute.String("pool", s.Name))
			o.ObserveInt64(pending, int64(s.Pending), attrs)
			o.ObserveInt64(live, int64(s.Records.Live), attrs)
			o.ObserveInt64(pools, int64(s.Records.Pools), attrs)
			o.ObserveInt64(capacity, int64(s.Records.Capacity), attrs)
		}
		return nil
	}, pending, live, pools, capacity)
}
