package protocol

// PlayerView is the client-facing shape of a player. Territory is omitted
// on movement updates and sent in full on joins, captures and snapshots.
// Color and the tether fields are null until set.
type PlayerView struct {
	ID           string   `json:"id"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	Health       float64  `json:"health"`
	Coins        int      `json:"coins"`
	Color        *string  `json:"color"`
	Level        int      `json:"level"`
	CableActive  bool     `json:"cableActive"`
	CableTarget  *string  `json:"cableTarget"`
	CaughtBy     *string  `json:"caughtBy"`
	Invulnerable bool     `json:"invulnerable"`
	Territory    [][2]int `json:"territory,omitempty"`
	Trail        [][2]int `json:"trail"`
	NewCells     [][2]int `json:"newCells,omitempty"`
}

// EnemyView is the client-facing shape of an enemy.
type EnemyView struct {
	ID        int64   `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Type      string  `json:"type"`
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth"`
	Speed     float64 `json:"speed"`
	Radius    float64 `json:"radius"`
	Color     string  `json:"color"`
}

type SpawnPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type NewPlayer struct {
	ID   string     `json:"id"`
	Data PlayerView `json:"data"`
}

// PlayerUpdate carries either a full PlayerView or a partial map delta.
type PlayerUpdate struct {
	ID   string `json:"id"`
	Data any    `json:"data"`
}

// Relay wraps an opaque client payload with the sender id.
type Relay struct {
	ID   string `json:"id"`
	Data any    `json:"data"`
}

type EnemyKilled struct {
	EnemyID   int64   `json:"enemyId"`
	EnemyType string  `json:"enemyType"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	PlayerID  string  `json:"playerId"`
}

type TerritoryPenalty struct {
	ID        string   `json:"id"`
	Territory [][2]int `json:"territory"`
	Trail     [][2]int `json:"trail"`
}

// Optional maps the empty string to null on the wire.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
