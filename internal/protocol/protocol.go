// Package protocol defines the message vocabulary exchanged between arena
// clients and the engine, plus the wire codecs that frame it.
//
// Every frame is an envelope {"event": <name>, "data": <payload>}. The same
// envelope is used for JSON text frames and msgpack binary frames.
package protocol

// Inbound events (client -> engine)
const (
	EventSelectColor      = "selectColor"
	EventPlayerUpdate     = "playerUpdate"
	EventPlayerShoot      = "playerShoot"
	EventEnemyHit         = "enemyHit"
	EventPlayerHit        = "playerHit"
	EventExpandTerritory  = "expandTerritory"
	EventCaptureTerritory = "captureTerritory"
	EventPlayerCableCatch = "playerCableCatch"
	EventOpenShop         = "openShop"
	EventCloseShop        = "closeShop"
)

// Outbound events (engine -> clients)
const (
	EventCurrentPlayers   = "currentPlayers"
	EventColorTaken       = "colorTaken"
	EventColorAccepted    = "colorAccepted"
	EventNewPlayer        = "newPlayer"
	EventEnemySpawn       = "enemySpawn"
	EventEnemyState       = "enemyState"
	EventEnemyDestroyed   = "enemyDestroyed"
	EventEnemyKilled      = "enemyKilled"
	EventTerritoryPenalty = "territoryPenalty"
	EventPlayerDisconnect = "playerDisconnect"
)

// Message is an outbound envelope. Data must not be mutated after the
// message is handed to a connection: it is encoded on the writer goroutine.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Frame is a decoded inbound envelope. Data holds the generic decoded
// payload (maps, slices, numbers, strings) and is interpreted field by field
// with the readers in fields.go.
type Frame struct {
	Event string
	Data  any
}
