package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "manuscript"

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	members       *prom.CounterVec
	warnings      *prom.CounterVec
	buildOutcome  *prom.CounterVec
}

// NewPrometheusRecorder creates the collectors and registers them on reg,
// a fresh registry when nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		members: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "members_total",
			Help:      "Garden members processed, by result",
		}, []string{"result"}),
		warnings: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Recoverable problems recorded, by kind",
		}, []string{"kind"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.members, pr.warnings, pr.buildOutcome)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncMember(built bool) {
	res := "failed"
	if built {
		res = "built"
	}
	p.members.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) AddWarnings(kind string, n int) {
	if n <= 0 {
		return
	}
	p.warnings.WithLabelValues(kind).Add(float64(n))
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome Outcome) {
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}
