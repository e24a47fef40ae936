// Package metrics holds the process-wide Prometheus collectors.
//
// Labels are bounded (event names, reasons, route patterns) so a client can
// never inflate cardinality. No per-player labels.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine
	tickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Time spent in one engine tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	}, []string{"cadence"}) // "sim", "sweep", "snapshot"

	commandDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_command_duration_seconds",
		Help:    "Time spent applying one inbound command",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})

	playersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_players",
		Help: "Connected players",
	})

	enemiesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_enemies",
		Help: "Live enemies",
	})

	claimedCells = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_claimed_cells",
		Help: "Cells with an owner",
	})

	difficultyGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_difficulty_multiplier",
		Help: "Current enemy health multiplier",
	})

	capturesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_captures_total",
		Help: "Applied territory captures",
	})

	cellsCaptured = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_cells_captured_total",
		Help: "Cells gained by capture, by source",
	}, []string{"source"}) // "trail", "enclosed", "expand"

	cellsStolen = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_cells_stolen_total",
		Help: "Cells taken from another player",
	})

	penaltiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_trail_penalties_total",
		Help: "Trail interceptions applied",
	})

	enemySpawns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_enemy_spawns_total",
		Help: "Enemies spawned by type",
	}, []string{"type"})

	enemyKills = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_enemy_kills_total",
		Help: "Enemies killed by type",
	}, []string{"type"})

	playerDamage = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_player_hits_total",
		Help: "Player hits that applied damage",
	})

	respawns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_respawns_total",
		Help: "Players respawned after reaching zero health",
	})

	commandsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_commands_dropped_total",
		Help: "Inbound messages dropped before reaching the engine",
	}, []string{"reason"}) // "rate_limit", "decode", "unknown", "inbox_full"

	// Transport
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter, origin check or caps",
	}, []string{"reason"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "WebSocket messages by direction",
	}, []string{"direction"}) // "in", "out", "dropped"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})
)

func RecordTick(cadence string, d time.Duration) {
	tickDuration.WithLabelValues(cadence).Observe(d.Seconds())
}

func RecordCommand(d time.Duration) {
	commandDuration.Observe(d.Seconds())
}

// UpdateWorld refreshes the population gauges.
func UpdateWorld(players, enemies, claimed int, difficulty float64) {
	playersGauge.Set(float64(players))
	enemiesGauge.Set(float64(enemies))
	claimedCells.Set(float64(claimed))
	difficultyGauge.Set(difficulty)
}

func RecordCapture(trailCells, enclosedCells, stolen int) {
	capturesTotal.Inc()
	cellsCaptured.WithLabelValues("trail").Add(float64(trailCells))
	cellsCaptured.WithLabelValues("enclosed").Add(float64(enclosedCells))
	cellsStolen.Add(float64(stolen))
}

func RecordExpand(cells int) {
	cellsCaptured.WithLabelValues("expand").Add(float64(cells))
}

func RecordPenalty() {
	penaltiesTotal.Inc()
}

func RecordEnemySpawn(enemyType string) {
	enemySpawns.WithLabelValues(enemyType).Inc()
}

func RecordEnemyKill(enemyType string) {
	enemyKills.WithLabelValues(enemyType).Inc()
}

func RecordPlayerHit() {
	playerDamage.Inc()
}

func RecordRespawn() {
	respawns.Inc()
}

// RecordCommandDropped reason must be one of: "rate_limit", "decode",
// "unknown", "inbox_full".
func RecordCommandDropped(reason string) {
	commandsDropped.WithLabelValues(reason).Inc()
}

// RecordConnectionRejected reason must be one of: "rate_limit", "origin",
// "ws_total_limit", "ws_ip_limit", "player_limit".
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// RecordWSMessage direction is "in", "out" or "dropped".
func RecordWSMessage(direction string) {
	wsMessagesTotal.WithLabelValues(direction).Inc()
}

// RecordRequest records HTTP request metrics. endpoint must be a route
// pattern, never a raw path.
func RecordRequest(method, endpoint string, status int, d time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(d.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}
