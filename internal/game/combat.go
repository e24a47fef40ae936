package game

import (
	"log"
	"time"

	"territory-arena/internal/metrics"
	"territory-arena/internal/protocol"
)

// EnemyHit applies damage from attackerID to an enemy. A kill removes the
// enemy and tells the attacker what it was.
func (w *World) EnemyHit(attackerID string, enemyID int64, damage float64, now time.Time) {
	if _, ok := w.players[attackerID]; !ok || damage <= 0 {
		return
	}
	e := w.enemies.Get(enemyID)
	if e == nil {
		return
	}

	e.Health -= damage
	if e.Health > 0 {
		w.broadcast(protocol.EventEnemyState, w.enemies.Views())
		return
	}

	w.enemies.Remove(enemyID)
	metrics.RecordEnemyKill(e.Type.Name)
	w.broadcast(protocol.EventEnemyDestroyed, enemyID)
	w.sendTo(attackerID, protocol.EventEnemyKilled, protocol.EnemyKilled{
		EnemyID:   e.ID,
		EnemyType: e.Type.Name,
		X:         e.X,
		Y:         e.Y,
		PlayerID:  attackerID,
	})

	log.Printf("💀 Enemy %d (%s) killed by player %s", e.ID, e.Type.Name, attackerID)
	w.emit(EventTypeEnemyKill, attackerID, EnemyKillPayload{EnemyID: e.ID, EnemyType: e.Type.Name}, now)
}

// PlayerHit damages targetID unless it is invulnerable or standing on its
// own territory. Reaching zero health respawns the target.
func (w *World) PlayerHit(attackerID, targetID string, damage float64, now time.Time) {
	if _, ok := w.players[attackerID]; !ok || damage <= 0 {
		return
	}
	t, ok := w.players[targetID]
	if !ok || !t.CanBeHit(now) {
		return
	}
	if w.owners.Owns(targetID, w.grid.CellAt(t.X, t.Y)) {
		return
	}

	t.Health = max(t.Health-damage, 0)
	metrics.RecordPlayerHit()
	w.broadcast(protocol.EventPlayerUpdate, protocol.PlayerUpdate{
		ID:   targetID,
		Data: map[string]any{"health": t.Health},
	})
	w.emit(EventTypeDamage, attackerID, DamagePayload{
		AttackerID: attackerID,
		VictimID:   targetID,
		Damage:     damage,
		VictimHP:   t.Health,
	}, now)

	if t.Health == 0 {
		w.respawn(t, now)
	}
}

// respawn restores p to full health on one of its own cells, or a fresh
// seed cell when it owns none.
func (w *World) respawn(p *Player, now time.Time) {
	var cell Cell
	if owned := w.owners.Territory(p.ID); len(owned) > 0 {
		cell = owned[w.rng.Intn(len(owned))]
	} else if seed, err := w.seedCell(); err == nil {
		cell = seed
		w.owners.Claim(seed, p.ID)
	} else {
		cell = w.grid.CellAt(p.X, p.Y)
	}

	w.releaseTether(p)
	p.X, p.Y = w.grid.Center(cell)
	p.Health = PlayerMaxHealth
	p.Trail = nil

	if w.enemies.ClearAround(p.X, p.Y, SpawnProtectionRadius) > 0 {
		w.broadcast(protocol.EventEnemyState, w.enemies.Views())
	}
	w.broadcast(protocol.EventPlayerUpdate, protocol.PlayerUpdate{ID: p.ID, Data: w.fullView(p)})

	metrics.RecordRespawn()
	log.Printf("♻️ Player %s respawned at cell (%d,%d)", p.ID, cell.X, cell.Y)
	w.emit(EventTypeRespawn, p.ID, RespawnPayload{SpawnX: p.X, SpawnY: p.Y}, now)
}

// OpenShop makes id invulnerable until it leaves the shop.
func (w *World) OpenShop(id string) {
	p, ok := w.players[id]
	if !ok {
		return
	}
	p.InShop = true
	if !p.Invulnerable {
		p.Invulnerable = true
		w.broadcast(protocol.EventPlayerUpdate, protocol.PlayerUpdate{
			ID:   id,
			Data: map[string]any{"invulnerable": true},
		})
	}
}

// CloseShop starts the grace period after which invulnerability ends.
func (w *World) CloseShop(id string, now time.Time) {
	p, ok := w.players[id]
	if !ok || !p.InShop {
		return
	}
	p.InShop = false
	p.InvulnerableUntil = now.Add(InvulnerabilityGrace)
}

// SweepInvulnerability ends every grace period that has run out.
func (w *World) SweepInvulnerability(now time.Time) {
	for _, id := range w.order {
		p := w.players[id]
		if !p.Invulnerable || p.InShop || !now.After(p.InvulnerableUntil) {
			continue
		}
		p.Invulnerable = false
		w.broadcast(protocol.EventPlayerUpdate, protocol.PlayerUpdate{
			ID:   id,
			Data: map[string]any{"invulnerable": false},
		})
	}
}
