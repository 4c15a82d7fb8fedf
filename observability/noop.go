package observability

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

// NoOpMetrics returns a no-op implementation of the Metrics interface
func NoOpMetrics() Metrics {
	return &noopMetrics{}
}

// noopMetrics is a no-op implementation of the Metrics interface
type noopMetrics struct{}

func (m *noopMetrics) Counter(name string, help string, labels ...string) Counter {
	return &noopCounter{}
}

func (m *noopMetrics) WriteText(w io.Writer) error {
	return nil
}

func (m *noopMetrics) Registry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

type noopCounter struct{}

func (c *noopCounter) Inc()                                        {}
func (c *noopCounter) Add(value float64)                           {}
func (c *noopCounter) WithLabels(labels map[string]string) Counter { return c }
