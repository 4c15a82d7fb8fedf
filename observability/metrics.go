package observability

import (
	"fmt"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Counter represents a monotonically increasing counter metric
type Counter interface {
	// Inc increments the counter by 1
	Inc()

	// Add adds the given value to the counter
	Add(value float64)

	// WithLabels returns a counter with the given labels
	WithLabels(labels map[string]string) Counter
}

// Metrics is the interface for metrics collection and exposure
type Metrics interface {
	// Counter creates or retrieves a counter metric.
	// Calling Counter twice with the same name returns the same underlying vector.
	Counter(name string, help string, labels ...string) Counter

	// WriteText writes the collected metrics in the Prometheus text format
	WriteText(w io.Writer) error

	// Registry returns the underlying Prometheus registry
	Registry() *prometheus.Registry
}

// MetricsConfig contains configuration for metrics
type MetricsConfig struct {
	// Enabled determines if metrics collection is enabled
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace is the namespace prefix for all metrics
	Namespace string `json:"namespace" yaml:"namespace"`

	// Subsystem is the subsystem prefix for all metrics
	Subsystem string `json:"subsystem" yaml:"subsystem"`
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "openid",
		Subsystem: "message",
	}
}

// prometheusMetrics keeps its collectors in a private registry so that each
// CLI invocation reports only its own counts
type prometheusMetrics struct {
	registry *prometheus.Registry
	config   MetricsConfig

	mu   sync.Mutex
	vecs map[string]*prometheus.CounterVec
}

// NewMetrics creates a new metrics instance with the default configuration
func NewMetrics() Metrics {
	return NewMetricsWithConfig(DefaultMetricsConfig())
}

// NewMetricsWithConfig creates a new metrics instance with the provided configuration
func NewMetricsWithConfig(config MetricsConfig) Metrics {
	return &prometheusMetrics{
		registry: prometheus.NewRegistry(),
		config:   config,
		vecs:     make(map[string]*prometheus.CounterVec),
	}
}

// Counter creates or retrieves a counter metric
func (m *prometheusMetrics) Counter(name string, help string, labels ...string) Counter {
	if !m.config.Enabled {
		return &noopCounter{}
	}

	fqName := prometheus.BuildFQName(m.config.Namespace, m.config.Subsystem, name)

	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.vecs[fqName]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: fqName, Help: help}, labels)
		m.registry.MustRegister(vec)
		m.vecs[fqName] = vec
	}
	return &counter{vec: vec, labelNames: labels, values: make([]string, len(labels))}
}

// WriteText gathers the registry and writes it in the Prometheus text format
func (m *prometheusMetrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Registry returns the underlying Prometheus registry
func (m *prometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// counter is one series of a counter vector; labels it was not given stay empty
type counter struct {
	vec        *prometheus.CounterVec
	labelNames []string
	values     []string
}

func (c *counter) Inc() {
	c.vec.WithLabelValues(c.values...).Inc()
}

func (c *counter) Add(value float64) {
	c.vec.WithLabelValues(c.values...).Add(value)
}

func (c *counter) WithLabels(labels map[string]string) Counter {
	values := make([]string, len(c.labelNames))
	for i, name := range c.labelNames {
		values[i] = labels[name]
	}
	return &counter{vec: c.vec, labelNames: c.labelNames, values: values}
}
