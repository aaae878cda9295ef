package sim

import (
	"math"
	"math/rand"
)

// Position is a fixed 2D coordinate.
type Position struct {
	X float64
	Y float64
}

// Topology owns every node of one run plus the base-station position. It
// serves distances and in-range neighbor sets, excluding dead nodes. The
// adjacency relation is cached for the configured radio range and lazily
// recomputed after liveness changes.
type Topology struct {
	nodes     []Node
	base      Position
	commRange float64

	adjacency [][]NodeID
	adjValid  bool
}

// NewTopology builds a topology from explicit positions. Node IDs are
// assigned in position order.
func NewTopology(positions []Position, base Position, commRange, initialEnergy float64) *Topology {
	t := &Topology{
		nodes:     make([]Node, len(positions)),
		base:      base,
		commRange: commRange,
	}
	for i, p := range positions {
		t.nodes[i] = Node{
			ID:     NodeID(i),
			X:      p.X,
			Y:      p.Y,
			Energy: initialEnergy,
			Alive:  true,
		}
	}
	return t
}

// NewRandomTopology places count nodes uniformly in the area using the
// given RNG stream.
func NewRandomTopology(count int, width, height float64, base Position, commRange, initialEnergy float64, rng *rand.Rand) *Topology {
	positions := make([]Position, count)
	for i := range positions {
		positions[i] = Position{
			X: rng.Float64() * width,
			Y: rng.Float64() * height,
		}
	}
	return NewTopology(positions, base, commRange, initialEnergy)
}

// Len returns the total node count, dead included.
func (t *Topology) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given id. The returned pointer is only
// valid for the lifetime of the topology.
func (t *Topology) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Base returns the base-station position.
func (t *Topology) Base() Position {
	return t.base
}

// CommRange returns the configured radio range.
func (t *Topology) CommRange() float64 {
	return t.commRange
}

// Distance is the Euclidean distance between two nodes.
func (t *Topology) Distance(a, b NodeID) float64 {
	na, nb := &t.nodes[a], &t.nodes[b]
	return math.Hypot(na.X-nb.X, na.Y-nb.Y)
}

// DistanceToBase is the Euclidean distance from a node to the base station.
func (t *Topology) DistanceToBase(id NodeID) float64 {
	n := &t.nodes[id]
	return math.Hypot(n.X-t.base.X, n.Y-t.base.Y)
}

// DistanceToPoint is the Euclidean distance from a node to an arbitrary
// point.
func (t *Topology) DistanceToPoint(id NodeID, p Position) float64 {
	n := &t.nodes[id]
	return math.Hypot(n.X-p.X, n.Y-p.Y)
}

// AliveNodes returns the ids of all live nodes in ascending order. The
// ascending order is part of the contract: engines iterate it to keep event
// emission deterministic.
func (t *Topology) AliveNodes() []NodeID {
	ids := make([]NodeID, 0, len(t.nodes))
	for i := range t.nodes {
		if t.nodes[i].Alive {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// AliveCount returns the number of live nodes.
func (t *Topology) AliveCount() int {
	n := 0
	for i := range t.nodes {
		if t.nodes[i].Alive {
			n++
		}
	}
	return n
}

// TotalEnergy sums the remaining energy over all nodes.
func (t *Topology) TotalEnergy() float64 {
	total := 0.0
	for i := range t.nodes {
		total += t.nodes[i].Energy
	}
	return total
}

// MarkDead records a node death and invalidates the cached adjacency. The
// node is excluded from all neighbor computations from this instant on.
func (t *Topology) MarkDead(id NodeID) {
	n := &t.nodes[id]
	n.Alive = false
	n.Energy = 0
	t.adjValid = false
}

// NeighborsWithin returns the live nodes within range r of the given node,
// ascending by id, excluding the node itself. Queries at the configured
// radio range hit the adjacency cache; other ranges scan.
func (t *Topology) NeighborsWithin(id NodeID, r float64) []NodeID {
	if r == t.commRange {
		if !t.adjValid {
			t.rebuildAdjacency()
		}
		return t.adjacency[id]
	}
	return t.scanWithin(id, r)
}

// rebuildAdjacency recomputes the in-range relation over live nodes only.
func (t *Topology) rebuildAdjacency() {
	t.adjacency = make([][]NodeID, len(t.nodes))
	for i := range t.nodes {
		if !t.nodes[i].Alive {
			continue
		}
		t.adjacency[i] = t.scanWithin(NodeID(i), t.commRange)
	}
	t.adjValid = true
}

func (t *Topology) scanWithin(id NodeID, r float64) []NodeID {
	var out []NodeID
	for j := range t.nodes {
		if NodeID(j) == id || !t.nodes[j].Alive {
			continue
		}
		if t.Distance(id, NodeID(j)) <= r {
			out = append(out, NodeID(j))
		}
	}
	return out
}
