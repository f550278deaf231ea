package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Schema metrics
	SchemaParsesTotal       *prometheus.CounterVec
	ResolutionWarningsTotal prometheus.Counter

	// Cache metrics
	SchemaCacheHitsTotal   prometheus.Counter
	SchemaCacheMissesTotal prometheus.Counter

	// Codec metrics
	EncodesTotal *prometheus.CounterVec
	DecodesTotal *prometheus.CounterVec

	// Jobs metrics
	EnqueuesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		SchemaParsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protoform_schema_parses_total",
				Help: "Total number of schema parses by result",
			},
			[]string{"result"},
		),
		ResolutionWarningsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "protoform_schema_resolution_warnings_total",
				Help: "Total number of unresolved type references degraded to opaque fields",
			},
		),
		SchemaCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "protoform_schema_cache_hits_total",
				Help: "Total number of schema cache hits",
			},
		),
		SchemaCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "protoform_schema_cache_misses_total",
				Help: "Total number of schema cache misses",
			},
		),
		EncodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protoform_encodes_total",
				Help: "Total number of value tree encodes by result",
			},
			[]string{"result"},
		),
		DecodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protoform_decodes_total",
				Help: "Total number of payload decodes by display tier",
			},
			[]string{"tier"},
		),
		EnqueuesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protoform_job_enqueues_total",
				Help: "Total number of job enqueue attempts by method and result",
			},
			[]string{"method", "result"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.SchemaParsesTotal,
			m.ResolutionWarningsTotal,
			m.SchemaCacheHitsTotal,
			m.SchemaCacheMissesTotal,
			m.EncodesTotal,
			m.DecodesTotal,
			m.EnqueuesTotal,
		)
	}

	return m
}

// Result label values
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultEmpty   = "empty"
)

func resultLabel(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// RecordParse records a schema parse and the warnings it produced
func (m *Metrics) RecordParse(err error, warnings int) {
	if m == nil {
		return
	}
	m.SchemaParsesTotal.WithLabelValues(resultLabel(err)).Inc()
	if warnings > 0 {
		m.ResolutionWarningsTotal.Add(float64(warnings))
	}
}

// RecordCacheLookup records a schema cache hit or miss
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.SchemaCacheHitsTotal.Inc()
		return
	}
	m.SchemaCacheMissesTotal.Inc()
}

// RecordEncode records an encode outcome; empty is true when no bytes were produced
// because the value tree was empty
func (m *Metrics) RecordEncode(err error, empty bool) {
	if m == nil {
		return
	}
	label := resultLabel(err)
	if err == nil && empty {
		label = ResultEmpty
	}
	m.EncodesTotal.WithLabelValues(label).Inc()
}

// RecordDecode records which display tier a decode landed on
func (m *Metrics) RecordDecode(tier string) {
	if m == nil {
		return
	}
	m.DecodesTotal.WithLabelValues(tier).Inc()
}

// RecordEnqueue records a job enqueue attempt
func (m *Metrics) RecordEnqueue(method string, err error) {
	if m == nil {
		return
	}
	m.EnqueuesTotal.WithLabelValues(method, resultLabel(err)).Inc()
}
