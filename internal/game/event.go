package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypePlayerJoin
	EventTypePlayerLeave
	EventTypeCapture
	EventTypeExpand
	EventTypePenalty
	EventTypeEnemySpawn
	EventTypeEnemyKill
	EventTypeDamage
	EventTypeRespawn
)

// EventVersion is bumped when a payload shape changes.
const EventVersion uint8 = 2

// Event is one entry of the audit log.
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`
	TickNum   uint64          `json:"tickNum"`  // Simulation tick this occurred in
	PlayerID  string          `json:"playerId"` // Source player (for rate limiting)
	Payload   json.RawMessage `json:"payload"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypePlayerJoin:
		return "player_join"
	case EventTypePlayerLeave:
		return "player_leave"
	case EventTypeCapture:
		return "capture"
	case EventTypeExpand:
		return "expand"
	case EventTypePenalty:
		return "penalty"
	case EventTypeEnemySpawn:
		return "enemy_spawn"
	case EventTypeEnemyKill:
		return "enemy_kill"
	case EventTypeDamage:
		return "damage"
	case EventTypeRespawn:
		return "respawn"
	default:
		return "unknown"
	}
}

// MarshalText writes the readable name into the JSONL file.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Typed payloads for different event types

type PlayerJoinPayload struct {
	SeedX int     `json:"seedX"`
	SeedY int     `json:"seedY"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type PlayerLeavePayload struct {
	CellsReleased int `json:"cellsReleased"`
}

type CapturePayload struct {
	TrailCells    int            `json:"trailCells"`
	EnclosedCells int            `json:"enclosedCells"`
	Losers        map[string]int `json:"losers,omitempty"`
	Territory     int            `json:"territory"`
}

type ExpandPayload struct {
	Reward string `json:"reward"`
	Asked  int    `json:"asked"`
	Gained int    `json:"gained"`
}

type PenaltyPayload struct {
	Trespasser string `json:"trespasser"`
	Victim     string `json:"victim"`
	CellsLost  int    `json:"cellsLost"`
}

type EnemySpawnPayload struct {
	EnemyID    int64   `json:"enemyId"`
	EnemyType  string  `json:"enemyType"`
	Multiplier float64 `json:"multiplier"`
}

type EnemyKillPayload struct {
	EnemyID   int64  `json:"enemyId"`
	EnemyType string `json:"enemyType"`
}

type DamagePayload struct {
	AttackerID string  `json:"attackerId"`
	VictimID   string  `json:"victimId"`
	Damage     float64 `json:"damage"`
	VictimHP   float64 `json:"victimHp"`
}

type RespawnPayload struct {
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event stamped at now.
func NewEvent(eventType EventType, tickNum uint64, playerID string, payload interface{}, now time.Time) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: now.UnixNano(),
		TickNum:   tickNum,
		PlayerID:  playerID,
		Payload:   EncodePayload(payload),
	}
}
