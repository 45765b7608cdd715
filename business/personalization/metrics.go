package personalization

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personalization_events_recorded_total",
			Help: "Count of behavior events appended to the event store by event_type.",
		},
		[]string{"event_type"},
	)

	EventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personalization_events_dropped_total",
			Help: "Count of behavior events that could not be recorded, by reason.",
		},
		[]string{"reason"},
	)

	SectionsAssembledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personalization_sections_assembled_total",
			Help: "Count of section assemblies by outcome (personalized, fallback, degraded).",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(EventsRecordedTotal, EventsDroppedTotal, SectionsAssembledTotal)
}
