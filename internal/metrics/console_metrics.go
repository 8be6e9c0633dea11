package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// All labels are low-cardinality: no session, operator or incident ids.

var (
	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_replies_total",
			Help: "Assistant replies generated, by intent",
		},
		[]string{"intent"},
	)

	ScenarioTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_scenario_transitions_total",
			Help: "Scenario triggers by resulting state (or rejected/guarded)",
		},
		[]string{"trigger", "result"},
	)

	PopupsOpenedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_popups_opened_total",
			Help: "Popups opened by kind",
		},
		[]string{"kind"},
	)

	ClipsSavedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_clips_saved_total",
			Help: "Clips saved from CCTV popups",
		},
	)

	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_broadcasts_total",
			Help: "Bulletins sent, by result",
		},
		[]string{"result"},
	)

	PrefChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_pref_changes_total",
			Help: "Overlay preference writes by key",
		},
		[]string{"key"},
	)

	PrefSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "console_pref_subscribers",
			Help: "Connected preference websocket clients",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "console_sessions_cached",
			Help: "Console sessions held in the in-process cache",
		},
	)

	TrackingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_tracking_runs_total",
			Help: "Re-tracking progress runs by outcome",
		},
		[]string{"result"},
	)

	RateLimitTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_rate_limit_total",
			Help: "Rate limit decisions by scope and result",
		},
		[]string{"scope", "result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status class",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)
