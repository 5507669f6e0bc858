package monitoring

import (
	"time"

	"townhall/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Gauges
	townsActiveTotal    prometheus.Gauge
	playersOnlineTotal  prometheus.Gauge
	subscriptionsActive prometheus.Gauge

	// Counters
	joinsTotal           prometheus.Counter
	joinFailuresTotal    prometheus.Counter
	broadcastEventsTotal *prometheus.CounterVec
	severedSubscribers   prometheus.Counter

	// Histograms
	joinDuration prometheus.Histogram

	// Per-town metrics
	townOccupancy  *prometheus.GaugeVec
	townPlaceables *prometheus.GaugeVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		townsActiveTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "townhall_towns_active_total",
			Help: "Total number of active towns",
		}),

		playersOnlineTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "townhall_players_online_total",
			Help: "Total number of players with a live session",
		}),

		subscriptionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "townhall_subscriptions_active_total",
			Help: "Total number of active event subscriptions",
		}),

		joinsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "townhall_joins_total",
			Help: "Total number of successful town joins",
		}),

		joinFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "townhall_join_failures_total",
			Help: "Total number of failed town joins",
		}),

		broadcastEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "townhall_broadcast_events_total",
			Help: "Total number of events pushed to subscribers",
		}, []string{"event"}),

		severedSubscribers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "townhall_severed_subscribers_total",
			Help: "Total number of subscribers severed for falling behind",
		}),

		joinDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "townhall_join_duration_seconds",
			Help:    "Duration of the join path including media token provisioning",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),

		townOccupancy: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "townhall_town_occupancy",
			Help: "Number of subscribed participants per town",
		}, []string{"town_id"}),

		townPlaceables: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "townhall_town_placeables",
			Help: "Number of placeables per town",
		}, []string{"town_id"}),
	}
}

func (p *PrometheusCollector) RecordTownCreated(townID domain.TownID) {
	p.townsActiveTotal.Inc()
}

func (p *PrometheusCollector) RecordTownDestroyed(townID domain.TownID) {
	p.townsActiveTotal.Dec()

	p.townOccupancy.DeleteLabelValues(string(townID))
	p.townPlaceables.DeleteLabelValues(string(townID))
}

func (p *PrometheusCollector) RecordJoin(duration time.Duration) {
	p.joinsTotal.Inc()
	p.playersOnlineTotal.Inc()
	p.joinDuration.Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordJoinFailure() {
	p.joinFailuresTotal.Inc()
}

func (p *PrometheusCollector) RecordPlayerLeft() {
	p.playersOnlineTotal.Dec()
}

func (p *PrometheusCollector) RecordSubscribed(townID domain.TownID) {
	p.subscriptionsActive.Inc()
	p.townOccupancy.WithLabelValues(string(townID)).Inc()
}

func (p *PrometheusCollector) RecordUnsubscribed(townID domain.TownID) {
	p.subscriptionsActive.Dec()
	p.townOccupancy.WithLabelValues(string(townID)).Dec()
}

func (p *PrometheusCollector) RecordBroadcast(event string) {
	p.broadcastEventsTotal.WithLabelValues(event).Inc()
}

func (p *PrometheusCollector) RecordSubscriberSevered() {
	p.severedSubscribers.Inc()
}

func (p *PrometheusCollector) RecordPlaceableCount(townID domain.TownID, count int) {
	p.townPlaceables.WithLabelValues(string(townID)).Set(float64(count))
}
