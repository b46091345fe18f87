package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ignite/offer-monitor/internal/engine"
	"github.com/ignite/offer-monitor/internal/service/analysis"
)

var (
	analysisRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offer_monitor_analysis_runs_total",
		Help: "Analysis runs by outcome",
	}, []string{"outcome"})

	actionItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offer_monitor_action_items_total",
		Help: "Action items emitted by rule",
	}, []string{"rule"})

	analysisLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "offer_monitor_analysis_latency_seconds",
		Help:    "Analysis run latency",
		Buckets: prometheus.DefBuckets,
	})

	lastReportTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "offer_monitor_last_report_latest_date_seconds",
		Help: "Latest date of the most recent report, as a unix timestamp",
	})
)

// Run outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeDeliveryError = "delivery_error"
	OutcomeError         = "error"
)

// Metrics records analysis runs in Prometheus.
type Metrics struct{}

// ObserveRun implements analysis.Observer.
func (Metrics) ObserveRun(rep *engine.Report, elapsed time.Duration, err error) {
	analysisLatency.Observe(elapsed.Seconds())
	analysisRunsTotal.WithLabelValues(outcome(err)).Inc()
	if rep == nil {
		return
	}
	for rule, n := range rep.ActionsByRule() {
		actionItemsTotal.WithLabelValues(strconv.Itoa(rule)).Add(float64(n))
	}
	lastReportTimestamp.Set(float64(rep.LatestDate.Unix()))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, analysis.ErrDelivery):
		return OutcomeDeliveryError
	}
	return OutcomeError
}
