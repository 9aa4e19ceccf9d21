package urlapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposed to prometheus
var (
	metricBallotsCast = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eboto",
		Name:      "ballots_cast_total",
		Help:      "Number of ballots accepted and committed",
	})
	metricBallotsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eboto",
		Name:      "ballots_rejected_total",
		Help:      "Number of ballots rejected, by reason",
	}, []string{"reason"})
	metricTallyRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eboto",
		Name:      "tally_requests_total",
		Help:      "Number of realtime tally reads",
	})
)

func (u *URLAPI) registerMetrics() {
	if u.metricsagent == nil {
		return
	}
	u.metricsagent.Register(metricBallotsCast)
	u.metricsagent.Register(metricBallotsRejected)
	u.metricsagent.Register(metricTallyRequests)
}
