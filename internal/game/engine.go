package game

import (
	"errors"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"territory-arena/internal/metrics"
	"territory-arena/internal/protocol"
)

var (
	ErrServerFull    = errors.New("server full")
	ErrEngineStopped = errors.New("engine stopped")
)

// DefaultInboxSize bounds queued commands across all players.
const DefaultInboxSize = 1024

// Conn is the engine's view of one player connection.
type Conn interface {
	// Send queues msg without blocking. It returns false if the message
	// was dropped.
	Send(msg protocol.Message) bool
	Close()
}

// EngineConfig configures an Engine. Zero values pick defaults.
type EngineConfig struct {
	Seed       int64 // 0 seeds from the clock
	MaxPlayers int   // 0 means unlimited
	InboxSize  int
	EventLog   *EventLog
	Now        func() time.Time
}

type joinRequest struct {
	id    string
	conn  Conn
	reply chan error
}

type leaveRequest struct {
	id   string
	done chan struct{}
}

// Engine owns the World on a single goroutine. Every change, whether from a
// command, a disconnect or a tick, runs on that goroutine in arrival order,
// so no two ever overlap.
type Engine struct {
	inbox chan any
	world *World
	conns map[string]Conn

	snapshots SnapshotStore
	now       func() time.Time
	cfg       EngineConfig
	startedAt time.Time

	running  atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	dropped atomic.Uint64
}

// NewEngine creates a stopped engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = DefaultInboxSize
	}
	if cfg.Seed == 0 {
		cfg.Seed = cfg.Now().UnixNano()
	}

	start := cfg.Now()
	e := &Engine{
		inbox:     make(chan any, cfg.InboxSize),
		world:     NewWorld(rand.New(rand.NewSource(cfg.Seed)), start, cfg.EventLog),
		conns:     make(map[string]Conn),
		now:       cfg.Now,
		cfg:       cfg,
		startedAt: start,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	e.snapshots.Publish(e.world.Snapshot(start))
	return e
}

// Start begins the engine loop.
func (e *Engine) Start() {
	select {
	case <-e.stopChan:
		return // stopped engines do not restart
	default:
	}
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	go e.run()
	log.Printf("🎮 Game engine started (seed %d)", e.cfg.Seed)
}

// Stop ends the loop and closes every player connection.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
		if e.running.Swap(false) {
			<-e.done
		}
		for _, c := range e.conns {
			c.Close()
		}
		log.Println("🛑 Game engine stopped")
	})
}

// Connect adds a player for conn and sends it the current world. It
// returns once the player exists, or with ErrServerFull, ErrWorldFull or
// ErrEngineStopped.
func (e *Engine) Connect(id string, conn Conn) error {
	req := joinRequest{id: id, conn: conn, reply: make(chan error, 1)}
	select {
	case e.inbox <- req:
	case <-e.stopChan:
		return ErrEngineStopped
	}
	select {
	case err := <-req.reply:
		return err
	case <-e.stopChan:
		return ErrEngineStopped
	}
}

// Disconnect removes a player and waits until the removal is applied.
func (e *Engine) Disconnect(id string) {
	req := leaveRequest{id: id, done: make(chan struct{})}
	select {
	case e.inbox <- req:
	case <-e.stopChan:
		return
	}
	select {
	case <-req.done:
	case <-e.stopChan:
	}
}

// Submit queues a command without blocking. It returns false when the
// inbox is full and the command was dropped.
func (e *Engine) Submit(cmd Command) bool {
	select {
	case e.inbox <- cmd:
		return true
	default:
		e.dropped.Add(1)
		metrics.RecordCommandDropped("inbox_full")
		return false
	}
}

// Snapshot returns the latest published world state. Safe from any
// goroutine.
func (e *Engine) Snapshot() *GameSnapshot {
	return e.snapshots.Load()
}

// EngineStats summarises the engine for the stats endpoint.
type EngineStats struct {
	Uptime          string        `json:"uptime"`
	Running         bool          `json:"running"`
	Players         int           `json:"players"`
	Enemies         int           `json:"enemies"`
	ClaimedCells    int           `json:"claimedCells"`
	Difficulty      float64       `json:"difficulty"`
	Ticks           uint64        `json:"ticks"`
	CommandsDropped uint64        `json:"commandsDropped"`
	EventLog        EventLogStats `json:"eventLog"`
}

func (e *Engine) Stats() EngineStats {
	snap := e.Snapshot()
	return EngineStats{
		Uptime:          e.now().Sub(e.startedAt).Round(time.Second).String(),
		Running:         e.running.Load(),
		Players:         snap.PlayerCount,
		Enemies:         snap.EnemyCount,
		ClaimedCells:    snap.ClaimedCells,
		Difficulty:      snap.Difficulty,
		Ticks:           snap.TickNumber,
		CommandsDropped: e.dropped.Load(),
		EventLog:        e.cfg.EventLog.GetStats(),
	}
}

func (e *Engine) run() {
	defer close(e.done)

	sim := time.NewTicker(SimInterval)
	defer sim.Stop()
	sweep := time.NewTicker(SweepInterval)
	defer sweep.Stop()
	reconcile := time.NewTicker(SnapshotInterval)
	defer reconcile.Stop()

	for {
		select {
		case <-e.stopChan:
			return

		case msg := <-e.inbox:
			e.handle(msg)

		case <-sim.C:
			start := time.Now()
			e.world.Step(e.now())
			e.flush()
			e.snapshots.Publish(e.world.Snapshot(e.now()))
			metrics.RecordTick("sim", time.Since(start))

		case <-sweep.C:
			start := time.Now()
			e.world.SweepInvulnerability(e.now())
			e.flush()
			metrics.RecordTick("sweep", time.Since(start))

		case <-reconcile.C:
			start := time.Now()
			e.world.Reconcile()
			e.flush()
			metrics.RecordTick("snapshot", time.Since(start))
		}
	}
}

func (e *Engine) handle(msg any) {
	switch m := msg.(type) {
	case joinRequest:
		m.reply <- e.join(m.id, m.conn)

	case leaveRequest:
		e.world.RemovePlayer(m.id, e.now())
		delete(e.conns, m.id)
		e.flush()
		e.snapshots.Publish(e.world.Snapshot(e.now()))
		close(m.done)

	case Command:
		start := time.Now()
		m.Apply(e.world, e.now())
		e.flush()
		metrics.RecordCommand(time.Since(start))
	}
}

func (e *Engine) join(id string, conn Conn) error {
	if e.cfg.MaxPlayers > 0 && e.world.PlayerCount() >= e.cfg.MaxPlayers {
		return ErrServerFull
	}
	if _, err := e.world.AddPlayer(id, e.now()); err != nil {
		return err
	}
	e.conns[id] = conn
	e.flush()
	e.snapshots.Publish(e.world.Snapshot(e.now()))
	return nil
}

// flush routes queued deliveries to connections.
func (e *Engine) flush() {
	for _, d := range e.world.Drain() {
		if d.To != "" {
			if c, ok := e.conns[d.To]; ok {
				c.Send(d.Msg)
			}
			continue
		}
		for id, c := range e.conns {
			if id != d.Except {
				c.Send(d.Msg)
			}
		}
	}
}
