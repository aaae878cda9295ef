package sim

// NodeID identifies a sensor node. IDs are dense indices into the
// topology's node slice, so cluster/chain membership is stored as IDs
// rather than pointers.
type NodeID int

// NoNode marks the absence of a node, e.g. a packet whose next hop is the
// base station.
const NoNode NodeID = -1

// Role tags a node with its protocol-specific duty for the current round.
type Role uint8

const (
	RoleNormal Role = iota
	RoleClusterHead
	RoleClusterMember
	RoleChainMember
	RoleChainLeader
)

var roleNames = map[Role]string{
	RoleNormal:        "normal",
	RoleClusterHead:   "cluster_head",
	RoleClusterMember: "cluster_member",
	RoleChainMember:   "chain_member",
	RoleChainLeader:   "chain_leader",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Node is a sensor node. Identity and position are immutable once the
// topology is constructed; energy only ever decreases and Alive is derived
// from it. Protocol-specific transient state (gradients, cluster
// membership, chain neighbors) lives in the protocol engines, keyed by ID.
type Node struct {
	ID     NodeID
	X, Y   float64
	Energy float64
	Alive  bool
	Role   Role
}

// Position returns the node's fixed coordinates.
func (n *Node) Position() (float64, float64) {
	return n.X, n.Y
}
