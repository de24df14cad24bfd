package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TokensJoined = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "antrian",
		Name:      "tokens_joined_total",
		Help:      "Tokens created by join.",
	}, []string{"provider_id"})

	TokenTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "antrian",
		Name:      "token_transitions_total",
		Help:      "Token status transitions by event.",
	}, []string{"event"})

	// ClockSkew counts finished tokens whose end_time preceded start_time.
	ClockSkew = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "antrian",
		Name:      "duration_clock_skew_total",
		Help:      "Negative service durations clamped to zero.",
	})

	SwapOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "antrian",
		Name:      "swap_requests_total",
		Help:      "Swap requests by resulting status.",
	}, []string{"status"})

	SwapsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "antrian",
		Name:      "swaps_expired_total",
		Help:      "Swap requests moved to EXPIRED by sweeps.",
	})

	JoinRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "antrian",
		Name:      "join_number_retries_total",
		Help:      "Joins retried after a token number collision.",
	})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "antrian",
		Name:      "websocket_clients",
		Help:      "Connected board websocket clients.",
	})
)
