package sim

import (
	"math"
	"math/rand"
	"testing"
)

func lineTopology(spacing float64, count int, base Position, commRange float64) *Topology {
	positions := make([]Position, count)
	for i := range positions {
		positions[i] = Position{X: float64(i) * spacing, Y: 0}
	}
	return NewTopology(positions, base, commRange, 1.0)
}

func TestTopology_Distances(t *testing.T) {
	// GIVEN a 3-4-5 triangle of nodes and a base station
	top := NewTopology(
		[]Position{{0, 0}, {3, 0}, {3, 4}},
		Position{X: 0, Y: 4}, 30, 1.0,
	)

	// THEN pairwise and base distances are Euclidean
	if d := top.Distance(0, 2); math.Abs(d-5) > 1e-12 {
		t.Errorf("Distance(0,2): got %g, want 5", d)
	}
	if d := top.DistanceToBase(1); math.Abs(d-5) > 1e-12 {
		t.Errorf("DistanceToBase(1): got %g, want 5", d)
	}
	if d := top.DistanceToPoint(0, Position{X: 3, Y: 4}); math.Abs(d-5) > 1e-12 {
		t.Errorf("DistanceToPoint: got %g, want 5", d)
	}
}

func TestTopology_NeighborsWithin_ExcludesSelfAndDead(t *testing.T) {
	// GIVEN a line of nodes 10 apart with radio range 15
	top := lineTopology(10, 5, Position{X: 50, Y: 0}, 15)

	// THEN a middle node sees exactly its two line neighbors, ascending
	got := top.NeighborsWithin(2, 15)
	want := []NodeID{1, 3}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("NeighborsWithin(2): got %v, want %v", got, want)
	}

	// WHEN a neighbor dies
	top.MarkDead(1)

	// THEN it disappears from the relation immediately
	got = top.NeighborsWithin(2, 15)
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("NeighborsWithin(2) after death: got %v, want [3]", got)
	}
	if top.NeighborsWithin(1, 15) != nil && len(top.NeighborsWithin(1, 15)) != 0 {
		t.Errorf("dead node should have no cached neighbors: got %v", top.NeighborsWithin(1, 15))
	}
}

func TestTopology_NeighborsWithin_NonCachedRange(t *testing.T) {
	// A query at a range other than the configured one scans instead of
	// using the cache; results must agree in ordering.
	top := lineTopology(10, 5, Position{X: 50, Y: 0}, 15)
	got := top.NeighborsWithin(2, 25)
	want := []NodeID{0, 1, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("NeighborsWithin(2, 25): got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NeighborsWithin(2, 25): got %v, want %v", got, want)
		}
	}
}

func TestTopology_AliveAccounting(t *testing.T) {
	top := lineTopology(10, 4, Position{X: 0, Y: 0}, 15)
	if n := top.AliveCount(); n != 4 {
		t.Fatalf("AliveCount: got %d, want 4", n)
	}
	if e := top.TotalEnergy(); math.Abs(e-4.0) > 1e-12 {
		t.Fatalf("TotalEnergy: got %g, want 4", e)
	}

	top.MarkDead(1)
	top.MarkDead(3)

	if n := top.AliveCount(); n != 2 {
		t.Errorf("AliveCount after deaths: got %d, want 2", n)
	}
	alive := top.AliveNodes()
	if len(alive) != 2 || alive[0] != 0 || alive[1] != 2 {
		t.Errorf("AliveNodes: got %v, want [0 2]", alive)
	}
	if e := top.TotalEnergy(); math.Abs(e-2.0) > 1e-12 {
		t.Errorf("TotalEnergy after deaths: got %g, want 2", e)
	}
}

func TestNewRandomTopology_DeterministicPerSeed(t *testing.T) {
	// GIVEN two topologies drawn from identically seeded streams
	a := NewRandomTopology(50, 100, 100, Position{X: 50, Y: 50}, 30, 1.0, rand.New(rand.NewSource(7)))
	b := NewRandomTopology(50, 100, 100, Position{X: 50, Y: 50}, 30, 1.0, rand.New(rand.NewSource(7)))

	// THEN placements are identical and inside the area
	for i := 0; i < 50; i++ {
		na, nb := a.Node(NodeID(i)), b.Node(NodeID(i))
		if na.X != nb.X || na.Y != nb.Y {
			t.Fatalf("node %d: (%g,%g) vs (%g,%g)", i, na.X, na.Y, nb.X, nb.Y)
		}
		if na.X < 0 || na.X > 100 || na.Y < 0 || na.Y > 100 {
			t.Fatalf("node %d placed outside area: (%g,%g)", i, na.X, na.Y)
		}
	}
}
