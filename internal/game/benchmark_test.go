package game

import (
	"fmt"
	"math/rand"
	"testing"
	"time"
)

// =============================================================================
// BENCHMARK SUITE: CRITICAL PATH PERFORMANCE TESTS
// Run with: go test -bench=. -benchmem ./internal/game/...
// =============================================================================

// -----------------------------------------------------------------------------
// SIMULATION STEP BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkWorldStep_10Players(b *testing.B)  { benchmarkWorldStep(b, 10) }
func BenchmarkWorldStep_50Players(b *testing.B)  { benchmarkWorldStep(b, 50) }
func BenchmarkWorldStep_100Players(b *testing.B) { benchmarkWorldStep(b, 100) }

func benchmarkWorldStep(b *testing.B, playerCount int) {
	w := NewWorld(rand.New(rand.NewSource(1)), testStart, nil)
	for i := 0; i < playerCount; i++ {
		if _, err := w.AddPlayer(fmt.Sprintf("Player%d", i), testStart); err != nil {
			b.Fatal(err)
		}
	}
	w.Drain()

	now := testStart
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		now = now.Add(SimInterval)
		w.Step(now)
		w.Drain()
	}
}

// -----------------------------------------------------------------------------
// SNAPSHOT GENERATION BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkSnapshot_10Players(b *testing.B)  { benchmarkSnapshot(b, 10) }
func BenchmarkSnapshot_100Players(b *testing.B) { benchmarkSnapshot(b, 100) }

func benchmarkSnapshot(b *testing.B, playerCount int) {
	w := NewWorld(rand.New(rand.NewSource(1)), testStart, nil)
	for i := 0; i < playerCount; i++ {
		w.AddPlayer(fmt.Sprintf("Player%d", i), testStart)
	}
	w.Drain()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = w.Snapshot(testStart)
	}
}

// -----------------------------------------------------------------------------
// CAPTURE BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkSolveEnclosure_SmallRing(b *testing.B) { benchmarkEnclosure(b, 10) }
func BenchmarkSolveEnclosure_LargeRing(b *testing.B) { benchmarkEnclosure(b, 60) }

func benchmarkEnclosure(b *testing.B, side int) {
	trail := ring(20, 20, 20+side, 20+side)
	owned := func(Cell) bool { return false }

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = SolveEnclosure(DefaultGrid, trail, owned)
	}
}

func BenchmarkCaptureTerritory_Contested(b *testing.B) {
	trail := ring(40, 40, 80, 80)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		idx := NewOwnershipIndex()
		for y := 41; y < 80; y += 2 {
			for x := 41; x < 80; x += 2 {
				idx.Claim(Cell{X: x, Y: y}, "rival")
			}
		}
		b.StartTimer()

		_ = CaptureTerritory(idx, DefaultGrid, "me", trail)
	}
}

// -----------------------------------------------------------------------------
// STRESS: RAPID JOIN/LEAVE
// -----------------------------------------------------------------------------

func BenchmarkStress_RapidJoinLeave(b *testing.B) {
	w := NewWorld(rand.New(rand.NewSource(1)), testStart, nil)
	now := testStart

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		id := fmt.Sprintf("Player%d", i)
		w.AddPlayer(id, now)
		w.RemovePlayer(id, now)
		w.Drain()
		now = now.Add(time.Millisecond)
	}
}
