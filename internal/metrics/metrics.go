package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics счетчики бота
type Metrics struct {
	Updates       *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	Calculations  *prometheus.CounterVec
	Snapshots     *prometheus.CounterVec
	HandleSeconds prometheus.Histogram
}

// New создает счетчики и регистрирует их в reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutrition_bot_updates_total",
			Help: "Incoming updates by outcome",
		}, []string{"outcome"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutrition_bot_transitions_total",
			Help: "Conversation state transitions",
		}, []string{"from", "to"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutrition_bot_rejections_total",
			Help: "Rejected inputs by reason",
		}, []string{"reason"}),
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutrition_bot_calculations_total",
			Help: "Completed calculations by option",
		}, []string{"option"}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutrition_bot_snapshots_total",
			Help: "Snapshot writes by result",
		}, []string{"result"}),
		HandleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nutrition_bot_handle_seconds",
			Help:    "Time spent handling one update",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.Updates, m.Transitions, m.Rejections, m.Calculations, m.Snapshots, m.HandleSeconds)
	return m
}

// SnapshotSaved подходит как колбэк для repository.Autosave
func (m *Metrics) SnapshotSaved(err error) {
	if err != nil {
		m.Snapshots.WithLabelValues("error").Inc()
		return
	}
	m.Snapshots.WithLabelValues("ok").Inc()
}
