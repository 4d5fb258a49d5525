package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	lessonTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cadenza",
			Name:      "lesson_transitions_total",
			Help:      "Count of lesson state transitions by move and outcome.",
		},
		[]string{"move", "outcome"},
	)

	lessonsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cadenza",
			Name:      "lessons_created_total",
			Help:      "Count of lesson requests created by students.",
		},
	)

	notificationsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cadenza",
			Name:      "notifications_published_total",
			Help:      "Count of notification events published on the bus.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(lessonTransitions, lessonsCreated, notificationsPublished)
	})
}

func IncTransition(move, outcome string) {
	lessonTransitions.WithLabelValues(move, outcome).Inc()
}

func IncLessonCreated() {
	lessonsCreated.Inc()
}

func IncNotificationPublished() {
	notificationsPublished.Inc()
}
