package sim

// NodeSnapshot is a value-type copy of one node's visible state at a round
// boundary. Mutating a snapshot never touches the live simulation.
type NodeSnapshot struct {
	ID     NodeID
	X, Y   float64
	Role   Role
	Energy float64
	Alive  bool
}

// Snapshot returns read-only copies of all nodes in ascending id order.
// Visualization and export consume this; no mutation path is exposed
// outward.
func (s *Simulator) Snapshot() []NodeSnapshot {
	out := make([]NodeSnapshot, s.Topology.Len())
	for i := range out {
		n := s.Topology.Node(NodeID(i))
		out[i] = NodeSnapshot{
			ID:     n.ID,
			X:      n.X,
			Y:      n.Y,
			Role:   n.Role,
			Energy: n.Energy,
			Alive:  n.Alive,
		}
	}
	return out
}
