package metrics

import "github.com/prometheus/client_golang/prometheus"

// PortalMetrics counts lifecycle transitions and relay traffic.
type PortalMetrics struct {
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	polled        prometheus.Counter
}

func NewPortalMetrics(reg prometheus.Registerer) *PortalMetrics {
	m := &PortalMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cityhospital",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Appointment and request transitions by operation and outcome",
		}, []string{"operation", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cityhospital",
			Subsystem: "relay",
			Name:      "notifications_sent_total",
			Help:      "Notifications appended to patient inboxes by type",
		}, []string{"type"}),
		polled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cityhospital",
			Subsystem: "relay",
			Name:      "notifications_delivered_total",
			Help:      "Unread notifications returned by polls",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions, m.notifications, m.polled)
	return m
}

func (m *PortalMetrics) ObserveTransition(operation, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, outcome).Inc()
}

func (m *PortalMetrics) ObserveNotification(notificationType string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(notificationType).Inc()
}

func (m *PortalMetrics) ObserveDelivered(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.polled.Add(float64(count))
}
