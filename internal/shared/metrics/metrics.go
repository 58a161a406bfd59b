// Package metrics holds the prometheus collectors of the service. They are
// registered on Registry, which the HTTP server exposes on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "auction"

var (
	Registry = prometheus.NewRegistry()

	BidsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bids_total",
		Help:      "Bid placements by outcome reason (accepted or a rejection reason).",
	}, []string{"outcome"})

	BidRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bid_retries_total",
		Help:      "Bid attempts retried after a write conflict.",
	})

	BidDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bid_duration_seconds",
		Help:      "Latency of bid placement including retries.",
		Buckets:   prometheus.DefBuckets,
	})

	SettlementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settlements_total",
		Help:      "Settlement attempts by result: sold, unsold, lost_claim or error.",
	}, []string{"result"})

	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settlement_notifications_total",
		Help:      "Outcome notifications by message kind and delivery status.",
	}, []string{"kind", "status"})

	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "settlement_sweep_duration_seconds",
		Help:      "Duration of one settlement sweep.",
		Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60},
	})

	LiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_connections",
		Help:      "Open websocket connections across all auction rooms.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		BidsTotal,
		BidRetriesTotal,
		BidDuration,
		SettlementsTotal,
		NotificationsTotal,
		SweepDuration,
		LiveConnections,
	)
}

// Since observes the seconds elapsed from start on h.
func Since(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}
