package memory

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ajitpratap0/slabpool/pkg/metrics"
)

// MetricsAllocator reports an upstream allocator's traffic to Prometheus.
type MetricsAllocator struct {
	upstream Allocator

	allocatedBytes prometheus.Counter
	inuseBytes     prometheus.Gauge
	failures       prometheus.Counter
}

var _ Allocator = (*MetricsAllocator)(nil)

// NewMetricsAllocator decorates upstream; name becomes the "allocator" label.
func NewMetricsAllocator(upstream Allocator, name string) *MetricsAllocator {
	if upstream == nil {
		upstream = System()
	}
	return &MetricsAllocator{
		upstream:       upstream,
		allocatedBytes: metrics.AllocatorBytesAllocated.WithLabelValues(name),
		inuseBytes:     metrics.AllocatorBytesInUse.WithLabelValues(name),
		failures:       metrics.AllocatorFailures.WithLabelValues(name),
	}
}

func (m *MetricsAllocator) Allocate(size int) ([]byte, error) {
	buf, err := m.upstream.Allocate(size)
	if err != nil {
		m.failures.Inc()
		return nil, err
	}
	m.allocatedBytes.Add(float64(size))
	m.inuseBytes.Add(float64(size))
	return buf, nil
}

func (m *MetricsAllocator) Reallocate(buf []byte, size int) ([]byte, error) {
	old := len(buf)
	out, err := m.upstream.Reallocate(buf, size)
	if err != nil {
		m.failures.Inc()
		return nil, err
	}
	if size > old {
		m.allocatedBytes.Add(float64(size - old))
	}
	m.inuseBytes.Add(float64(size - old))
	return out, nil
}

func (m *MetricsAllocator) Deallocate(buf []byte) {
	m.inuseBytes.Sub(float64(len(buf)))
	m.upstream.Deallocate(buf)
}
