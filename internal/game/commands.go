package game

import (
	"errors"
	"fmt"
	"time"

	"territory-arena/internal/protocol"
)

// ErrUnknownEvent is returned for inbound events the engine does not handle.
var ErrUnknownEvent = errors.New("unknown event")

// Command is one decoded player action. Apply runs on the engine goroutine.
type Command interface {
	Apply(w *World, now time.Time)
}

type SelectColorCmd struct {
	PlayerID string
	Color    string
}

func (c SelectColorCmd) Apply(w *World, _ time.Time) { w.SelectColor(c.PlayerID, c.Color) }

type PlayerUpdateCmd struct {
	PlayerID string
	Fields   protocol.Fields
}

func (c PlayerUpdateCmd) Apply(w *World, now time.Time) { w.UpdatePlayer(c.PlayerID, c.Fields, now) }

type ShootCmd struct {
	PlayerID string
	Payload  any
}

func (c ShootCmd) Apply(w *World, _ time.Time) { w.RelayShoot(c.PlayerID, c.Payload) }

type CableCatchCmd struct {
	PlayerID string
	Payload  any
}

func (c CableCatchCmd) Apply(w *World, _ time.Time) { w.RelayCableCatch(c.PlayerID, c.Payload) }

type EnemyHitCmd struct {
	PlayerID string
	EnemyID  int64
	Damage   float64
}

func (c EnemyHitCmd) Apply(w *World, now time.Time) {
	w.EnemyHit(c.PlayerID, c.EnemyID, c.Damage, now)
}

type PlayerHitCmd struct {
	PlayerID string
	TargetID string
	Damage   float64
}

func (c PlayerHitCmd) Apply(w *World, now time.Time) {
	w.PlayerHit(c.PlayerID, c.TargetID, c.Damage, now)
}

type ExpandCmd struct {
	PlayerID string
	Reward   string
	K        int
	HasK     bool
}

func (c ExpandCmd) Apply(w *World, now time.Time) {
	w.Expand(c.PlayerID, c.Reward, c.K, c.HasK, now)
}

type CaptureCmd struct {
	PlayerID string
	Trail    []Cell
}

func (c CaptureCmd) Apply(w *World, now time.Time) { w.Capture(c.PlayerID, c.Trail, now) }

type OpenShopCmd struct{ PlayerID string }

func (c OpenShopCmd) Apply(w *World, _ time.Time) { w.OpenShop(c.PlayerID) }

type CloseShopCmd struct{ PlayerID string }

func (c CloseShopCmd) Apply(w *World, now time.Time) { w.CloseShop(c.PlayerID, now) }

// DecodeCommand turns an inbound frame from playerID into a Command.
// Payloads of the wrong shape produce an error; the caller drops them.
func DecodeCommand(playerID string, f protocol.Frame) (Command, error) {
	switch f.Event {
	case protocol.EventSelectColor:
		color, ok := f.Data.(string)
		if !ok {
			return nil, fmt.Errorf("%s: color is not a string", f.Event)
		}
		return SelectColorCmd{PlayerID: playerID, Color: color}, nil

	case protocol.EventPlayerUpdate:
		fields := protocol.AsFields(f.Data)
		if fields == nil {
			return nil, fmt.Errorf("%s: payload is not an object", f.Event)
		}
		return PlayerUpdateCmd{PlayerID: playerID, Fields: fields}, nil

	case protocol.EventPlayerShoot:
		return ShootCmd{PlayerID: playerID, Payload: f.Data}, nil

	case protocol.EventPlayerCableCatch:
		return CableCatchCmd{PlayerID: playerID, Payload: f.Data}, nil

	case protocol.EventEnemyHit:
		fields := protocol.AsFields(f.Data)
		id, okID := fields.Float("enemyId")
		dmg, okDmg := fields.Float("damage")
		if !okID || !okDmg {
			return nil, fmt.Errorf("%s: need numeric enemyId and damage", f.Event)
		}
		return EnemyHitCmd{PlayerID: playerID, EnemyID: int64(id), Damage: dmg}, nil

	case protocol.EventPlayerHit:
		fields := protocol.AsFields(f.Data)
		target, okT := fields.String("playerId")
		dmg, okDmg := fields.Float("damage")
		if !okT || !okDmg {
			return nil, fmt.Errorf("%s: need playerId and numeric damage", f.Event)
		}
		return PlayerHitCmd{PlayerID: playerID, TargetID: target, Damage: dmg}, nil

	case protocol.EventExpandTerritory:
		fields := protocol.AsFields(f.Data)
		reward, _ := fields.String("enemyType")
		k, hasK := fields.Int("K")
		return ExpandCmd{PlayerID: playerID, Reward: reward, K: k, HasK: hasK}, nil

	case protocol.EventCaptureTerritory:
		raw, ok := protocol.AsFields(f.Data).Pairs("trail")
		if !ok {
			return nil, fmt.Errorf("%s: trail is not a list", f.Event)
		}
		trail := make([]Cell, len(raw))
		for i, pr := range raw {
			trail[i] = Cell{pr[0], pr[1]}
		}
		return CaptureCmd{PlayerID: playerID, Trail: trail}, nil

	case protocol.EventOpenShop:
		return OpenShopCmd{PlayerID: playerID}, nil

	case protocol.EventCloseShop:
		return CloseShopCmd{PlayerID: playerID}, nil
	}
	return nil, fmt.Errorf("%q: %w", f.Event, ErrUnknownEvent)
}
