package pipeline

import "github.com/prometheus/client_golang/prometheus"

// Record outcomes.
const (
	OutcomeArticle       = "article"
	OutcomeFeatureSet    = "feature_set"
	OutcomeDuplicate     = "duplicate_feature_set"
	OutcomeUninformative = "uninformative"
	OutcomeFailed        = "failed"
)

// Metrics counts pipeline outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	records *prometheus.CounterVec
	batches *prometheus.CounterVec
}

// NewMetrics registers the pipeline counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsrag",
			Subsystem: "pipeline",
			Name:      "records_total",
			Help:      "Records processed by the prepare pipeline, by outcome.",
		}, []string{"outcome"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsrag",
			Subsystem: "pipeline",
			Name:      "batches_total",
			Help:      "Documents handled by the prepare pipeline, by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.records, m.batches)
	}
	return m
}

func (m *Metrics) record(outcome string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(outcome).Inc()
}

func (m *Metrics) batch(result string) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(result).Inc()
}
