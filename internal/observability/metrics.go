package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"gnss-analyzer/internal/accuracy"
	"gnss-analyzer/internal/series"
)

// Metrics holds the gauges and counters for one analysis run. Each run gets
// its own registry so repeated runs in one process never mix.
type Metrics struct {
	Registry *prometheus.Registry

	Lines        *prometheus.CounterVec
	OutOfSession prometheus.Counter
	Fixes        *prometheus.GaugeVec
	TTFF         *prometheus.GaugeVec
	CEP          *prometheus.GaugeVec
	RMS          *prometheus.GaugeVec
	FixError     prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Lines: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gnss_lines_total",
			Help: "Log lines read, by parse outcome",
		}, []string{"outcome"}),
		OutOfSession: f.NewCounter(prometheus.CounterOpts{
			Name: "gnss_out_of_session_total",
			Help: "Fixes stamped outside the session window",
		}),
		Fixes: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gnss_fixes",
			Help: "Fix records in the series, total and valid",
		}, []string{"kind"}),
		// Unlabelled vectors so the series only exists once set.
		TTFF: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gnss_ttff_seconds",
			Help: "Time to first fix",
		}, nil),
		CEP: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gnss_cep_meters",
			Help: "Circular error probable by nearest rank",
		}, []string{"p"}),
		RMS: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gnss_rms_meters",
			Help: "Root mean square horizontal error",
		}, nil),
		FixError: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gnss_fix_error_meters",
			Help:    "Horizontal error per valid fix",
			Buckets: []float64{0.5, 1, 2, 3, 5, 10, 20, 50, 100},
		}),
	}
}

// Observe records one finished run. Metrics that are unavailable (no fix
// acquired) are left unset rather than reported as zero.
func (m *Metrics) Observe(s series.Series, res accuracy.Result) {
	d := s.Diagnostics
	sum := res.Summary
	fixes := sum.TotalFixes + d.OutOfSession
	m.Lines.WithLabelValues("fix").Add(float64(fixes))
	m.Lines.WithLabelValues("aux").Add(float64(d.Lines - d.Malformed - d.Ignored - d.Headers - fixes))
	m.Lines.WithLabelValues("malformed").Add(float64(d.Malformed))
	m.Lines.WithLabelValues("ignored").Add(float64(d.Ignored))
	m.Lines.WithLabelValues("header").Add(float64(d.Headers))
	m.OutOfSession.Add(float64(d.OutOfSession))

	m.Fixes.WithLabelValues("total").Set(float64(sum.TotalFixes))
	m.Fixes.WithLabelValues("valid").Set(float64(sum.ValidFixes))

	if sum.TTFF != nil {
		m.TTFF.WithLabelValues().Set(*sum.TTFF)
	}
	if sum.CEP50 != nil {
		m.CEP.WithLabelValues("50").Set(*sum.CEP50)
	}
	if sum.CEP95 != nil {
		m.CEP.WithLabelValues("95").Set(*sum.CEP95)
	}
	if sum.RMS != nil {
		m.RMS.WithLabelValues().Set(*sum.RMS)
	}
	for _, e := range res.Errors {
		m.FixError.Observe(e)
	}
}

// Push sends the registry to a Prometheus pushgateway, grouped by log stem.
func (m *Metrics) Push(ctx context.Context, url, job, stem string) error {
	err := push.New(url, job).
		Gatherer(m.Registry).
		Grouping("log", stem).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
