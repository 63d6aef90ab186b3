// Package metrics holds the domain counters exported at /metrics.
// Every method is safe to call on a nil *Metrics, which records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "noteally"

// Metrics groups the engagement and feed collectors.
type Metrics struct {
	likesToggled    *prometheus.CounterVec
	viewsRecorded   prometheus.Counter
	feedSubscribers prometheus.Gauge
	feedSnapshots   prometheus.Counter
	uploads         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		likesToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "likes_toggled_total",
			Help:      "Like toggles applied to notes, by direction.",
		}, []string{"direction"}),
		viewsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_recorded_total",
			Help:      "View increments applied to notes.",
		}),
		feedSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_subscribers",
			Help:      "Open note feed subscriptions.",
		}),
		feedSnapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_snapshots_total",
			Help:      "Snapshots delivered to feed subscribers.",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Note uploads, by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.likesToggled, m.viewsRecorded, m.feedSubscribers, m.feedSnapshots, m.uploads} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// LikeToggled records a like ("like") or unlike ("unlike").
func (m *Metrics) LikeToggled(direction string) {
	if m == nil {
		return
	}
	m.likesToggled.WithLabelValues(direction).Inc()
}

// ViewRecorded records one view increment.
func (m *Metrics) ViewRecorded() {
	if m == nil {
		return
	}
	m.viewsRecorded.Inc()
}

// SubscriberOpened and SubscriberClosed track live feed subscriptions.
func (m *Metrics) SubscriberOpened() {
	if m == nil {
		return
	}
	m.feedSubscribers.Inc()
}

func (m *Metrics) SubscriberClosed() {
	if m == nil {
		return
	}
	m.feedSubscribers.Dec()
}

// SnapshotDelivered counts one snapshot handed to a subscriber.
func (m *Metrics) SnapshotDelivered() {
	if m == nil {
		return
	}
	m.feedSnapshots.Inc()
}

// Upload records an upload outcome ("ok", "rejected", "failed").
func (m *Metrics) Upload(outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
}
