// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionsCreated counts sessions issued by login, signup and password change.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearth_sessions_created_total",
		Help: "Total number of sessions created",
	})

	// SessionValidations counts validation outcomes: valid, renewed, invalid, error.
	SessionValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_session_validations_total",
		Help: "Total number of session validations by result",
	}, []string{"result"})

	// LoginAttempts counts password logins by result: success, failure.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_login_attempts_total",
		Help: "Total number of login attempts by result",
	}, []string{"result"})

	// ShareCodeCollisions counts share codes rejected by the unique index.
	ShareCodeCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearth_share_code_collisions_total",
		Help: "Total number of share code collisions during home creation",
	})

	ReaperSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_reaper_sweeps_total",
		Help: "Total number of abandoned-home sweeps by result",
	}, []string{"result"})

	HomesReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearth_homes_reaped_total",
		Help: "Total number of abandoned homes deleted",
	})

	SessionsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearth_sessions_purged_total",
		Help: "Total number of expired sessions deleted by the reaper",
	})

	ChoresCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearth_chores_completed_total",
		Help: "Total number of chore completions",
	})

	// LiveClients is the number of open websocket connections.
	LiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hearth_live_clients",
		Help: "Number of connected websocket clients",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
