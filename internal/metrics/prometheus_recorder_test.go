package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func family(t *testing.T, reg *prom.Registry, name string) *dto.MetricFamily {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric family %s not found", name)
	return nil
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncTick(TickApplied)
	pr.IncTick(TickApplied)
	pr.IncTick(TickSkipped)
	pr.IncCartEvent("added")
	pr.IncCheckout(CheckoutSubmitted)
	pr.IncSubmissionRetry()
	pr.SetCart(2, 4.5)
	pr.ObserveDetectionDuration(800 * time.Millisecond)
	pr.ObserveSubmissionDuration(150*time.Millisecond, true)

	ticks := family(t, reg, "smartcart_detection_ticks_total")
	counts := map[string]float64{}
	for _, m := range ticks.GetMetric() {
		counts[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"applied": 2, "skipped": 1}, counts)

	total := family(t, reg, "smartcart_cart_total")
	assert.InDelta(t, 4.5, total.GetMetric()[0].GetGauge().GetValue(), 0.0001)

	retries := family(t, reg, "smartcart_submission_retries_total")
	assert.InDelta(t, 1, retries.GetMetric()[0].GetCounter().GetValue(), 0.0001)

	hist := family(t, reg, "smartcart_detection_duration_seconds")
	assert.Equal(t, uint64(1), hist.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncTick(TickDetectFailed)
		pr.SetCart(0, 0)
		pr.ObserveSubmissionDuration(time.Second, false)
	})
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncCheckout(CheckoutIgnored)
	r.ObserveDetectionDuration(time.Second)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncCartEvent("removed")

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `smartcart_cart_events_total{kind="removed"} 1`)
}
