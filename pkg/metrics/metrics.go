package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts records login attempts by result (success|failure|locked).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retroline_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// ActiveNodes tracks the number of connection slots currently held.
	ActiveNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retroline_active_nodes",
			Help: "Number of BBS nodes currently in use",
		},
	)

	// ChatParticipants tracks the chat room roster size.
	ChatParticipants = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retroline_chat_participants",
			Help: "Number of users currently in the chat room",
		},
	)

	// SessionsStarted counts terminal sessions that completed the connection ceremony.
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retroline_sessions_started_total",
			Help: "Total number of terminal sessions started",
		},
	)

	// SessionTimeouts counts sessions ended by the session clock expiring.
	SessionTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retroline_session_timeouts_total",
			Help: "Total number of sessions disconnected by time expiry",
		},
	)

	// APILatency observes HTTP request latency by method, path and status.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retroline_api_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
