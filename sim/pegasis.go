package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// pegasisEngine implements the PEGASIS chain state machine. The chain is a
// greedy nearest-neighbor order over alive nodes starting from the node
// farthest from the base station (an approximation of the optimal tour,
// not a bug). Data flows from both chain ends inward toward the round's
// leader, aggregating at each hop; the leader makes the single long-range
// transmission to the base station.
type pegasisEngine struct {
	packetBits int

	chain    []NodeID
	chainPos []int // node id -> chain position, -1 when not in chain
	leader   NodeID

	// Per-round relay state. Packets accumulate per side; a death breaks
	// that side for the remainder of the round and forces a rebuild.
	leftCarry   []*Packet
	rightCarry  []*Packet
	leftBroken  bool
	rightBroken bool
}

func newPEGASIS(cfg *Config) *pegasisEngine {
	return &pegasisEngine{packetBits: cfg.PacketBits, leader: NoNode}
}

func (e *pegasisEngine) Name() string { return ProtocolPEGASIS }

func (e *pegasisEngine) Setup(s *Simulator) {
	e.chainPos = make([]int, s.Topology.Len())
	e.buildChain(s)
}

// buildChain reconstructs the chain from scratch over the current alive
// set. Stale neighbor pointers from a previous chain are never traversed.
func (e *pegasisEngine) buildChain(s *Simulator) {
	for i := range e.chainPos {
		e.chainPos[i] = -1
	}
	alive := s.Topology.AliveNodes()
	e.chain = e.chain[:0]
	if len(alive) == 0 {
		return
	}

	// Start farthest from the base station, tie broken by lowest id.
	start := alive[0]
	maxDist := s.Topology.DistanceToBase(start)
	for _, id := range alive[1:] {
		if d := s.Topology.DistanceToBase(id); d > maxDist {
			maxDist = d
			start = id
		}
	}

	remaining := make(map[NodeID]bool, len(alive))
	for _, id := range alive {
		remaining[id] = true
	}
	delete(remaining, start)
	e.chain = append(e.chain, start)

	for len(remaining) > 0 {
		end := e.chain[len(e.chain)-1]
		next := NoNode
		minDist := math.Inf(1)
		for _, id := range alive { // ascending scan keeps ties deterministic
			if !remaining[id] {
				continue
			}
			if d := s.Topology.Distance(end, id); d < minDist {
				minDist = d
				next = id
			}
		}
		e.chain = append(e.chain, next)
		delete(remaining, next)
	}

	for pos, id := range e.chain {
		e.chainPos[id] = pos
		s.Topology.Node(id).Role = RoleChainMember
	}
	logrus.Debugf("pegasis: chain rebuilt, %d nodes", len(e.chain))
}

func (e *pegasisEngine) chainDamaged(s *Simulator) bool {
	for _, id := range e.chain {
		if !s.Topology.Node(id).Alive {
			return true
		}
	}
	return false
}

func (e *pegasisEngine) OnRoundStart(s *Simulator, round int) {
	if len(e.chain) == 0 || e.chainDamaged(s) {
		e.buildChain(s)
	}
	if len(e.chain) == 0 {
		return
	}

	// Leadership rotates round-robin over chain positions.
	if e.leader != NoNode && e.chainPos[e.leader] >= 0 {
		s.Topology.Node(e.leader).Role = RoleChainMember
	}
	leaderPos := round % len(e.chain)
	e.leader = e.chain[leaderPos]
	s.Topology.Node(e.leader).Role = RoleChainLeader

	e.leftCarry = nil
	e.rightCarry = nil
	e.leftBroken = false
	e.rightBroken = false

	// Relays run end-inward on both sides of the leader, in hop order;
	// same-time FIFO scheduling preserves that order.
	t := float64(round)
	for i := 0; i < leaderPos; i++ {
		s.Schedule(&Event{
			Time: t + phaseData, Kind: EventChainRelay, Round: round,
			Node: e.chain[i], Target: e.chain[i+1],
		})
	}
	for i := len(e.chain) - 1; i > leaderPos; i-- {
		s.Schedule(&Event{
			Time: t + phaseData, Kind: EventChainRelay, Round: round,
			Node: e.chain[i], Target: e.chain[i-1],
		})
	}
	s.Schedule(&Event{Time: t + phaseForward, Kind: EventLeaderSend, Round: round, Node: e.leader})
}

func (e *pegasisEngine) OnEvent(s *Simulator, ev *Event) {
	switch ev.Kind {
	case EventChainRelay:
		e.onRelay(s, ev)
	case EventLeaderSend:
		e.onLeaderSend(s, ev)
	}
}

func (e *pegasisEngine) side(id NodeID) (carry *[]*Packet, broken *bool) {
	if e.chainPos[id] < e.chainPos[e.leader] {
		return &e.leftCarry, &e.leftBroken
	}
	return &e.rightCarry, &e.rightBroken
}

// onRelay moves one hop's worth of data inward: the relaying node senses
// its own reading, aggregates it with the carried payload at fixed per-bit
// cost, and transmits a constant-size aggregate to the next chain node.
func (e *pegasisEngine) onRelay(s *Simulator, ev *Event) {
	from, to := ev.Node, ev.Target
	carry, broken := e.side(from)
	if *broken {
		return
	}
	if !s.Topology.Node(from).Alive {
		e.dropSide(s, carry, broken, "chain_broken")
		return
	}
	if !s.Spend(from, s.Energy.SenseCost(e.packetBits)) {
		e.dropSide(s, carry, broken, "chain_broken")
		return
	}
	own := NewPacket(from, e.packetBits)
	own.NextHop = to
	pkts := append(*carry, own)

	if len(pkts) > 1 {
		if !s.Spend(from, s.Energy.AggregateCost(e.packetBits)) {
			e.dropPackets(s, pkts, carry, broken, "chain_broken")
			return
		}
	}
	if !s.Spend(from, s.Energy.TransmitCost(e.packetBits, s.Topology.Distance(from, to))) {
		e.dropPackets(s, pkts, carry, broken, "relay_died")
		return
	}
	for _, p := range pkts {
		p.Hops++
		p.NextHop = to
	}
	if !s.Spend(to, s.Energy.ReceiveCost(e.packetBits)) {
		e.dropPackets(s, pkts, carry, broken, "next_hop_died")
		return
	}
	*carry = pkts
}

// onLeaderSend fuses both sides with the leader's own reading and makes
// the single long-range transmission to the base station.
func (e *pegasisEngine) onLeaderSend(s *Simulator, ev *Event) {
	l := ev.Node
	if !s.Topology.Node(l).Alive {
		e.dropSide(s, &e.leftCarry, &e.leftBroken, "leader_dead")
		e.dropSide(s, &e.rightCarry, &e.rightBroken, "leader_dead")
		return
	}
	if !s.Spend(l, s.Energy.SenseCost(e.packetBits)) {
		e.dropSide(s, &e.leftCarry, &e.leftBroken, "leader_dead")
		e.dropSide(s, &e.rightCarry, &e.rightBroken, "leader_dead")
		return
	}
	own := NewPacket(l, e.packetBits)
	pkts := make([]*Packet, 0, len(e.leftCarry)+len(e.rightCarry)+1)
	pkts = append(pkts, e.leftCarry...)
	pkts = append(pkts, own)
	pkts = append(pkts, e.rightCarry...)

	if len(pkts) > 1 {
		if !s.Spend(l, s.Energy.AggregateCost(e.packetBits)) {
			e.dropPacketsAll(s, pkts, "leader_died")
			return
		}
	}
	if !s.Spend(l, s.Energy.TransmitCost(e.packetBits, s.Topology.DistanceToBase(l))) {
		e.dropPacketsAll(s, pkts, "leader_died")
		return
	}
	for _, p := range pkts {
		p.Hops++
		s.EmitDelivered(p)
	}
	e.leftCarry = nil
	e.rightCarry = nil
}

func (e *pegasisEngine) dropSide(s *Simulator, carry *[]*Packet, broken *bool, reason string) {
	for _, p := range *carry {
		s.EmitDropped(p, reason)
	}
	*carry = nil
	*broken = true
}

func (e *pegasisEngine) dropPackets(s *Simulator, pkts []*Packet, carry *[]*Packet, broken *bool, reason string) {
	for _, p := range pkts {
		s.EmitDropped(p, reason)
	}
	*carry = nil
	*broken = true
}

func (e *pegasisEngine) dropPacketsAll(s *Simulator, pkts []*Packet, reason string) {
	for _, p := range pkts {
		s.EmitDropped(p, reason)
	}
	e.leftCarry = nil
	e.rightCarry = nil
}

// Chain returns the current chain order. Exposed for inspection and tests.
func (e *pegasisEngine) Chain() []NodeID {
	return e.chain
}

func (e *pegasisEngine) IsTerminal(s *Simulator) bool {
	return s.Topology.AliveCount() == 0
}
