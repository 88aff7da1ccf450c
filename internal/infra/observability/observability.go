// Package observability exposes Prometheus metrics for the election,
// failure-detection, causal-multicast, directory, and transport
// subsystems.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Election Metrics ───────────────────────────────────────────────

var ElectionRoundsStarted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ringchat",
	Subsystem: "election",
	Name:      "rounds_started_total",
	Help:      "Total election rounds started by this node as initiator.",
})

var ElectionLeaderChanges = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ringchat",
	Subsystem: "election",
	Name:      "leader_changes_total",
	Help:      "Total times this node observed a new leader announced.",
})

// ─── Failure Detector Metrics ───────────────────────────────────────

var HeartbeatsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ringchat",
	Subsystem: "failuredetector",
	Name:      "heartbeats_sent_total",
	Help:      "Total heartbeats sent, by sender role (leader broadcast or follower).",
}, []string{"kind"})

var PeerTimeouts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ringchat",
	Subsystem: "failuredetector",
	Name:      "peer_timeouts_total",
	Help:      "Total peer heartbeat timeouts observed.",
})

var ClientTimeouts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ringchat",
	Subsystem: "failuredetector",
	Name:      "client_timeouts_total",
	Help:      "Total client heartbeat timeouts observed.",
})

// ─── Causal Multicast Metrics ───────────────────────────────────────

var HoldBackQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "ringchat",
	Subsystem: "causal",
	Name:      "hold_back_queue_depth",
	Help:      "Current hold-back queue depth per room.",
}, []string{"room"})

var MessagesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ringchat",
	Subsystem: "causal",
	Name:      "messages_delivered_total",
	Help:      "Total CHAT messages delivered, by room.",
}, []string{"room"})

// ─── Directory Metrics ──────────────────────────────────────────────

var DirectorySyncsPushed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ringchat",
	Subsystem: "directory",
	Name:      "syncs_pushed_total",
	Help:      "Total SYNC_ROOMS pushes sent by the leader.",
})

var DirectorySize = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ringchat",
	Subsystem: "directory",
	Name:      "entries",
	Help:      "Current number of rooms known to the local directory cache.",
})

// ─── Connection Metrics ─────────────────────────────────────────────

var PeerConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ringchat",
	Subsystem: "transport",
	Name:      "peer_connections",
	Help:      "Current number of live server-to-server connections.",
})

var ClientConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ringchat",
	Subsystem: "transport",
	Name:      "client_connections",
	Help:      "Current number of live server-to-client connections.",
})
