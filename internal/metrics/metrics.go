// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	registry           *prometheus.Registry
	sessionsStarted    *prometheus.CounterVec
	answers            *prometheus.CounterVec
	scoreSubmissions   *prometheus.CounterVec
	persistenceFailure *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vocab",
			Name:      "sessions_started_total",
			Help:      "Quiz sessions started, by difficulty.",
		}, []string{"difficulty"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vocab",
			Name:      "answers_total",
			Help:      "Answers scored, by difficulty and correctness.",
		}, []string{"difficulty", "correct"}),
		scoreSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vocab",
			Name:      "score_submissions_total",
			Help:      "Leaderboard score submissions, by result.",
		}, []string{"result"}),
		persistenceFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vocab",
			Name:      "persistence_failures_total",
			Help:      "Storage collaborator failures, by operation.",
		}, []string{"op"}),
	}
	m.registry.MustRegister(
		m.sessionsStarted,
		m.answers,
		m.scoreSubmissions,
		m.persistenceFailure,
		prometheus.NewGoCollector(),
	)
	return m
}

func (m *Metrics) SessionStarted(difficulty string) {
	if m == nil {
		return
	}
	m.sessionsStarted.WithLabelValues(difficulty).Inc()
}

func (m *Metrics) Answered(difficulty string, correct bool) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(difficulty, strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) ScoreSubmitted(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.scoreSubmissions.WithLabelValues(result).Inc()
}

func (m *Metrics) PersistenceFailed(op string) {
	if m == nil {
		return
	}
	m.persistenceFailure.WithLabelValues(op).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
