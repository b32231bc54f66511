package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "smartcart"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	ticks              *prom.CounterVec
	cartEvents         *prom.CounterVec
	checkouts          *prom.CounterVec
	submissionRetries  prom.Counter
	cartLines          prom.Gauge
	cartTotal          prom.Gauge
	detectionDuration  prom.Histogram
	submissionDuration *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers the collectors on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		ticks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "detection_ticks_total",
			Help:      "Detection ticks by outcome",
		}, []string{"outcome"}),
		cartEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cart_events_total",
			Help:      "Cart ledger changes by kind",
		}, []string{"kind"}),
		checkouts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout triggers by outcome",
		}, []string{"outcome"}),
		submissionRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "submission_retries_total",
			Help:      "Purchase submission retries after transient failures",
		}),
		cartLines: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "cart_lines",
			Help:      "Distinct products currently in the cart",
		}),
		cartTotal: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "cart_total",
			Help:      "Current cart total in display currency",
		}),
		detectionDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_duration_seconds",
			Help:      "Time to capture and classify one snapshot",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20},
		}),
		submissionDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Purchase submission duration including retries",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
	}
	reg.MustRegister(pr.ticks, pr.cartEvents, pr.checkouts, pr.submissionRetries,
		pr.cartLines, pr.cartTotal, pr.detectionDuration, pr.submissionDuration)
	return pr
}

func (p *PrometheusRecorder) IncTick(outcome TickOutcome) {
	if p == nil {
		return
	}
	p.ticks.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncCartEvent(kind string) {
	if p == nil {
		return
	}
	p.cartEvents.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncCheckout(outcome CheckoutOutcome) {
	if p == nil {
		return
	}
	p.checkouts.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncSubmissionRetry() {
	if p == nil {
		return
	}
	p.submissionRetries.Inc()
}

func (p *PrometheusRecorder) SetCart(lines int, total float64) {
	if p == nil {
		return
	}
	p.cartLines.Set(float64(lines))
	p.cartTotal.Set(total)
}

func (p *PrometheusRecorder) ObserveDetectionDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.detectionDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveSubmissionDuration(d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.submissionDuration.WithLabelValues(res).Observe(d.Seconds())
}
