package game

import (
	"bufio"
	"bytes"
	"encoding/json"
	"math/rand"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("Bad JSONL line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestEventLogWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	el := NewEventLog()
	if err := el.StartWriter(&buf, nil); err != nil {
		t.Fatalf("StartWriter: %v", err)
	}

	el.EmitSimple(EventTypeCapture, 3, "a", CapturePayload{TrailCells: 4, EnclosedCells: 9, Territory: 14}, testStart)
	el.EmitSimple(EventTypePlayerLeave, 4, "a", PlayerLeavePayload{CellsReleased: 14}, testStart)
	el.Stop()

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0]["type"] != "capture" {
		t.Errorf("Expected type 'capture', got %v", lines[0]["type"])
	}
	if lines[0]["tickNum"] != 3.0 {
		t.Errorf("Expected tickNum 3, got %v", lines[0]["tickNum"])
	}
	payload := lines[0]["payload"].(map[string]any)
	if payload["enclosedCells"] != 9.0 {
		t.Errorf("Expected enclosedCells 9, got %v", payload["enclosedCells"])
	}
	if lines[1]["sequence"].(float64) <= lines[0]["sequence"].(float64) {
		t.Error("Expected increasing sequence numbers")
	}

	stats := el.GetStats()
	if stats.Written != 2 || stats.Total != 2 || stats.Running {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestEventLogPerPlayerLimit(t *testing.T) {
	var buf bytes.Buffer
	el := NewEventLog()
	el.StartWriter(&buf, nil)
	defer el.Stop()

	accepted := 0
	for i := 0; i < 50; i++ {
		if el.EmitSimple(EventTypeDamage, 0, "spammer", DamagePayload{Damage: 1}, testStart) {
			accepted++
		}
	}
	if accepted >= 50 {
		t.Error("Expected the per-player limiter to drop some events")
	}
	if el.GetStats().Dropped == 0 {
		t.Error("Expected dropped events to be counted")
	}

	// Another player is unaffected
	if !el.EmitSimple(EventTypeDamage, 0, "quiet", DamagePayload{Damage: 1}, testStart) {
		t.Error("Expected a different player to be accepted")
	}
}

func TestEventLogIdle(t *testing.T) {
	el := NewEventLog()
	if el.EmitSimple(EventTypeRespawn, 0, "a", RespawnPayload{}, testStart) {
		t.Error("Emit before Start should be refused")
	}
	el.Stop() // never started

	var nilLog *EventLog
	if nilLog.EmitSimple(EventTypeRespawn, 0, "a", RespawnPayload{}, testStart) {
		t.Error("Nil log should refuse events")
	}
	if stats := nilLog.GetStats(); stats != (EventLogStats{}) {
		t.Errorf("Expected zero stats, got %+v", stats)
	}
}

// TestWorldEmitsEvents runs a short game and checks the audit trail.
func TestWorldEmitsEvents(t *testing.T) {
	var buf bytes.Buffer
	el := NewEventLog()
	el.StartWriter(&buf, nil)

	w := NewWorld(rand.New(rand.NewSource(1)), testStart, el)
	w.AddPlayer("a", testStart)
	w.Capture("a", ring(10, 10, 12, 12), testStart)
	w.RemovePlayer("a", testStart)
	el.Stop()

	var types []string
	for _, line := range decodeLines(t, &buf) {
		types = append(types, line["type"].(string))
	}
	want := []string{"player_join", "capture", "player_leave"}
	if len(types) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("Expected event %d to be %s, got %s", i, want[i], types[i])
		}
	}
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		t    EventType
		want string
	}{
		{EventTypePlayerJoin, "player_join"},
		{EventTypePenalty, "penalty"},
		{EventTypeEnemyKill, "enemy_kill"},
		{EventType(200), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, got)
		}
	}
}
