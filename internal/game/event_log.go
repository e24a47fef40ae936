package game

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize      = 1024                   // Pending events before drops
	MaxEventsPerSec      = 10000                  // Global rate limit
	MaxEventsPerPlayer   = 100                    // Per-player rate limit per second
	BatchFlushSize       = 64                     // Events per batch write
	BatchFlushInterval   = 100 * time.Millisecond // How often to flush
	PlayerLimiterCleanup = 5 * time.Minute        // Cleanup interval for player limiters
)

// EventLog is a bounded, rate-limited audit trail written as JSON lines.
// Emit never blocks: when the queue is full or a limiter refuses, the event
// is counted as dropped.
type EventLog struct {
	queue chan Event

	// Rate limiting so one noisy player cannot flood the file
	globalLimiter  *rate.Limiter
	playerLimiters sync.Map // map[string]*playerLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	out    io.Writer
	closer io.Closer

	sequence     atomic.Uint64
	droppedCount atomic.Uint64
	totalCount   atomic.Uint64
	written      atomic.Uint64
}

type playerLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // unix nano
}

// NewEventLog creates an idle event log. Call Start or StartWriter.
func NewEventLog() *EventLog {
	return &EventLog{
		queue:         make(chan Event, EventBufferSize),
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start opens filePath for append and begins writing. An empty path keeps
// the log running with events discarded after counting.
func (el *EventLog) Start(filePath string) error {
	if filePath == "" {
		return el.StartWriter(io.Discard, nil)
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	return el.StartWriter(file, file)
}

// StartWriter begins the async writer on w. closer, if non-nil, is closed
// by Stop.
func (el *EventLog) StartWriter(w io.Writer, closer io.Closer) error {
	if !el.running.CompareAndSwap(false, true) {
		return nil
	}
	el.out = w
	el.closer = closer

	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()
	return nil
}

// Stop flushes pending events and closes the output.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Swap(false) {
			return
		}
		close(el.stopChan)
		el.writerWg.Wait()

		if el.closer != nil {
			if err := el.closer.Close(); err != nil {
				log.Printf("⚠️ Event log close: %v", err)
			}
		}
	})
}

// Emit queues an event. Returns false if rate limited, full or stopped.
func (el *EventLog) Emit(event Event) bool {
	if el == nil || !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		el.droppedCount.Add(1)
		return false
	}
	if event.PlayerID != "" && !el.getPlayerLimiter(event.PlayerID).Allow() {
		el.droppedCount.Add(1)
		return false
	}

	event.Sequence = el.sequence.Add(1)
	select {
	case el.queue <- event:
		el.totalCount.Add(1)
		return true
	default:
		el.droppedCount.Add(1)
		return false
	}
}

// EmitSimple builds and emits an event in one call.
func (el *EventLog) EmitSimple(eventType EventType, tickNum uint64, playerID string, payload interface{}, now time.Time) bool {
	if el == nil || !el.running.Load() {
		return false
	}
	return el.Emit(NewEvent(eventType, tickNum, playerID, payload, now))
}

func (el *EventLog) getPlayerLimiter(playerID string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := el.playerLimiters.Load(playerID); ok {
		e := v.(*playerLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}

	entry := &playerLimiterEntry{
		limiter: rate.NewLimiter(MaxEventsPerPlayer, MaxEventsPerPlayer/10),
	}
	entry.lastUsed.Store(now)
	actual, _ := el.playerLimiters.LoadOrStore(playerID, entry)
	return actual.(*playerLimiterEntry).limiter
}

// writerLoop batches events and writes them as newline-delimited JSON.
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	bw := bufio.NewWriter(el.out)
	batch := make([]Event, 0, BatchFlushSize)

	for {
		select {
		case <-el.stopChan:
			// Final flush
			for drained := false; !drained; {
				select {
				case ev := <-el.queue:
					batch = append(batch, ev)
				default:
					drained = true
				}
			}
			el.flushBatch(bw, batch)
			return

		case ev := <-el.queue:
			batch = append(batch, ev)
			if len(batch) >= BatchFlushSize {
				el.flushBatch(bw, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				el.flushBatch(bw, batch)
				batch = batch[:0]
			}
		}
	}
}

func (el *EventLog) flushBatch(bw *bufio.Writer, batch []Event) {
	enc := json.NewEncoder(bw)
	for _, event := range batch {
		if err := enc.Encode(event); err != nil {
			continue
		}
		el.written.Add(1)
	}
	if err := bw.Flush(); err != nil {
		log.Printf("⚠️ Event log write: %v", err)
	}
}

// cleanupLoop drops limiters of players that have gone quiet.
func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(PlayerLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.cleanupPlayerLimiters(time.Now().Add(-PlayerLimiterCleanup))
		}
	}
}

func (el *EventLog) cleanupPlayerLimiters(cutoff time.Time) {
	el.playerLimiters.Range(func(key, value interface{}) bool {
		if value.(*playerLimiterEntry).lastUsed.Load() < cutoff.UnixNano() {
			el.playerLimiters.Delete(key)
		}
		return true
	})
}

// EventLogStats is reported on /api/stats.
type EventLogStats struct {
	Total   uint64 `json:"total"`
	Dropped uint64 `json:"dropped"`
	Written uint64 `json:"written"`
	Pending int    `json:"pending"`
	Running bool   `json:"running"`
}

func (el *EventLog) GetStats() EventLogStats {
	if el == nil {
		return EventLogStats{}
	}
	return EventLogStats{
		Total:   el.totalCount.Load(),
		Dropped: el.droppedCount.Load(),
		Written: el.written.Load(),
		Pending: len(el.queue),
		Running: el.running.Load(),
	}
}
