package host

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "fot"

// Telemetry is the metrics sink behind fot_metrics and the event counter.
// It registers on its own registry so several hosts can coexist.
type Telemetry struct {
	registry  *prometheus.Registry
	resonance *prometheus.HistogramVec
	virtues   *prometheus.GaugeVec
	virtueOps *prometheus.CounterVec
	events    *prometheus.CounterVec
}

func NewTelemetry() *Telemetry {
	t := &Telemetry{
		registry: prometheus.NewRegistry(),
		resonance: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resonance_score",
			Help:      "Resonance scores recorded by agents.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"agent"}),
		virtues: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "virtue_level",
			Help:      "Accumulated virtue deltas per virtue.",
		}, []string{"virtue"}),
		virtueOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "virtue_records_total",
			Help:      "Virtue deltas recorded.",
		}, []string{"virtue"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resonance_events_total",
			Help:      "Resonance events emitted.",
		}, []string{"agent"}),
	}
	t.registry.MustRegister(t.resonance, t.virtues, t.virtueOps, t.events)
	return t
}

// Registry exposes the private registry for scraping or gathering.
func (t *Telemetry) Registry() *prometheus.Registry {
	return t.registry
}

func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s is not finite: %v", name, v)
	}
	return nil
}

// ObserveResonance records one score. The context is not a label; its
// cardinality is unbounded.
func (t *Telemetry) ObserveResonance(agentID, _ string, score float64) error {
	if err := finite("score", score); err != nil {
		return err
	}
	t.resonance.WithLabelValues(agentID).Observe(score)
	return nil
}

// AddVirtue accumulates delta for virtue. Subjects are not labelled.
func (t *Telemetry) AddVirtue(_, virtue string, delta float64) error {
	if err := finite("delta", delta); err != nil {
		return err
	}
	t.virtues.WithLabelValues(virtue).Add(delta)
	t.virtueOps.WithLabelValues(virtue).Inc()
	return nil
}

func (t *Telemetry) CountEvent(agentID string) {
	t.events.WithLabelValues(agentID).Inc()
}

// Snapshot flattens the gathered metrics into "name{labels}" → value.
// Histograms report their sample count.
func (t *Telemetry) Snapshot() (map[string]float64, error) {
	families, err := t.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			out[mf.GetName()+labelString(m.GetLabel())] = metricValue(mf.GetType(), m)
		}
	}
	return out, nil
}

func labelString(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

func metricValue(kind dto.MetricType, m *dto.Metric) float64 {
	switch kind {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	default:
		return 0
	}
}
