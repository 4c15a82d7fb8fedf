package observability

import "io"

// ObservabilityConfig contains configuration for all observability components
type ObservabilityConfig struct {
	// Logger contains configuration for the logger
	Logger LoggerConfig `json:"logger" yaml:"logger"`

	// Metrics contains configuration for metrics collection
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// DefaultObservabilityConfig returns the default observability configuration
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Logger:  DefaultLoggerConfig(),
		Metrics: DefaultMetricsConfig(),
	}
}

// NewLogger builds the logger described by the configuration, writing to w
func (c ObservabilityConfig) NewLogger(w io.Writer) Logger {
	return NewLoggerWithWriter(w, c.Logger)
}

// NewMetrics builds the metrics collector described by the configuration
func (c ObservabilityConfig) NewMetrics() Metrics {
	if !c.Metrics.Enabled {
		return NoOpMetrics()
	}
	return NewMetricsWithConfig(c.Metrics)
}
