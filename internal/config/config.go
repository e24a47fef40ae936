// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all runtime settings.
//
// World geometry (grid size, enemy cap, tick cadences) is part of the client
// contract and lives as constants in the game package, not here.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	StaticDir      string   // Client assets; empty disables static serving
	AllowedOrigins []string // Exact origins allowed besides localhost
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:      3000,
		StaticDir: "./public",
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if dir, ok := os.LookupEnv("STATIC_DIR"); ok {
		cfg.StaticDir = dir
	}
	if origins := getEnvList("ALLOWED_ORIGINS"); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}

	return cfg
}

// =============================================================================
// ENGINE CONFIGURATION
// =============================================================================

// EngineConfig holds simulation settings.
type EngineConfig struct {
	Seed         int64  // RNG seed; 0 seeds from the clock
	MaxPlayers   int    // Joins beyond this are refused; 0 means unlimited
	InboxSize    int    // Queued commands before new ones are dropped
	EventLogPath string // JSONL audit trail; empty keeps it in memory only
}

// DefaultEngine returns the default engine configuration.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		MaxPlayers: 100,
		InboxSize:  1024,
	}
}

// EngineFromEnv returns engine configuration with environment variable overrides.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()

	if s := getEnvInt64("RNG_SEED", 0); s != 0 {
		cfg.Seed = s
	}
	if mp := getEnvInt("MAX_PLAYERS", -1); mp >= 0 {
		cfg.MaxPlayers = mp
	}
	if n := getEnvInt("ENGINE_INBOX_SIZE", 0); n > 0 {
		cfg.InboxSize = n
	}
	cfg.EventLogPath = os.Getenv("EVENT_LOG_PATH")

	return cfg
}

// =============================================================================
// TRANSPORT LIMITS
// =============================================================================

// LimitsConfig controls DoS protection at the transport edge.
type LimitsConfig struct {
	MaxWSConnections      int     // Total websocket connections
	MaxWSConnectionsPerIP int     // Websocket connections per client IP
	MessagesPerSecond     float64 // Inbound messages per connection
	MessageBurst          int
	MaxMessageBytes       int64
	SendBuffer            int // Outbound messages queued per connection
	HTTPRequestsPerSecond float64
	HTTPBurst             int
	RateLimitCleanup      time.Duration
}

// DefaultLimits returns the default transport limits. Clients report their
// position every frame, so the inbound budget allows 60/s with headroom.
func DefaultLimits() LimitsConfig {
	return LimitsConfig{
		MaxWSConnections:      500,
		MaxWSConnectionsPerIP: 10,
		MessagesPerSecond:     120,
		MessageBurst:          240,
		MaxMessageBytes:       64 << 10,
		SendBuffer:            256,
		HTTPRequestsPerSecond: 10,
		HTTPBurst:             20,
		RateLimitCleanup:      5 * time.Minute,
	}
}

// LimitsFromEnv returns limits with environment variable overrides.
func LimitsFromEnv() LimitsConfig {
	cfg := DefaultLimits()

	if n := getEnvInt("MAX_WS_CONNECTIONS", 0); n > 0 {
		cfg.MaxWSConnections = n
	}
	if n := getEnvInt("MAX_WS_CONNECTIONS_PER_IP", 0); n > 0 {
		cfg.MaxWSConnectionsPerIP = n
	}
	if r := getEnvFloat("WS_MESSAGES_PER_SECOND", 0); r > 0 {
		cfg.MessagesPerSecond = r
	}
	if b := getEnvInt("WS_MESSAGE_BURST", 0); b > 0 {
		cfg.MessageBurst = b
	}
	if r := getEnvFloat("HTTP_REQUESTS_PER_SECOND", 0); r > 0 {
		cfg.HTTPRequestsPerSecond = r
	}
	if b := getEnvInt("HTTP_BURST", 0); b > 0 {
		cfg.HTTPBurst = b
	}

	return cfg
}

// =============================================================================
// DEBUG CONFIGURATION
// =============================================================================

// DebugConfig holds the pprof/metrics server settings.
type DebugConfig struct {
	Enabled       bool
	Addr          string // Forced to localhost unless AllowExternal
	AllowExternal bool
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultDebug returns the default debug configuration.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled: true,
		Addr:    "127.0.0.1:6060",
	}
}

// DebugFromEnv returns debug configuration with environment variable overrides.
func DebugFromEnv() DebugConfig {
	cfg := DefaultDebug()

	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.Enabled = false
	}
	if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	cfg.AllowExternal = os.Getenv("ALLOW_DEBUG_EXTERNAL") == "true"
	cfg.BasicAuthUser = os.Getenv("DEBUG_USER")
	cfg.BasicAuthPass = os.Getenv("DEBUG_PASS")

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server ServerConfig
	Engine EngineConfig
	Limits LimitsConfig
	Debug  DebugConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server: ServerFromEnv(),
		Engine: EngineFromEnv(),
		Limits: LimitsFromEnv(),
		Debug:  DebugFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
