package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// leachEngine implements the LEACH clustering state machine. Each round:
// probabilistic cluster-head election with bounded-rotation fairness,
// advertisement and join phases, member-to-head data transfer, and one
// long-range aggregate transmission per head to the base station.
type leachEngine struct {
	p             float64
	clusterRadius float64
	packetBits    int
	ctrlBits      int

	lastHeadRound []int      // round a node last served as head, -cycle before start
	heads         []NodeID   // heads of the current round, ascending
	memberHead    []NodeID   // member -> joined head, NoNode before join
	collected     [][]NodeID // head -> member senders whose data reached it this round
}

func newLEACH(cfg *Config) *leachEngine {
	return &leachEngine{
		p:             cfg.LEACH.P,
		clusterRadius: cfg.LEACH.ClusterRadius,
		packetBits:    cfg.PacketBits,
		ctrlBits:      cfg.ControlBits,
	}
}

func (e *leachEngine) Name() string { return ProtocolLEACH }

// cycle is the head-rotation period 1/P in rounds.
func (e *leachEngine) cycle() int {
	c := int(math.Round(1 / e.p))
	if c < 1 {
		c = 1
	}
	return c
}

func (e *leachEngine) Setup(s *Simulator) {
	n := s.Topology.Len()
	e.lastHeadRound = make([]int, n)
	e.memberHead = make([]NodeID, n)
	e.collected = make([][]NodeID, n)
	for i := 0; i < n; i++ {
		e.lastHeadRound[i] = -e.cycle()
		e.memberHead[i] = NoNode
	}
}

func (e *leachEngine) OnRoundStart(s *Simulator, round int) {
	// Head role is relinquished at round end regardless of energy; a fresh
	// election happens here.
	e.heads = e.heads[:0]
	for i := 0; i < s.Topology.Len(); i++ {
		n := s.Topology.Node(NodeID(i))
		if n.Alive {
			n.Role = RoleNormal
		}
		e.memberHead[i] = NoNode
		e.collected[i] = nil
	}

	cycle := e.cycle()
	threshold := e.p / (1 - e.p*float64(round%cycle))
	if threshold > 1 {
		threshold = 1
	}

	// One draw per eligible node, in ascending id order, from the election
	// stream. A node that served as head within the last 1/P rounds sits
	// the election out.
	rng := s.RNG.ForSubsystem(SubsystemElection)
	alive := s.Topology.AliveNodes()
	for _, id := range alive {
		if round-e.lastHeadRound[id] < cycle {
			continue
		}
		if rng.Float64() < threshold {
			e.heads = append(e.heads, id)
		}
	}

	// No head elected stalls the network, so force the lowest-energy alive
	// node to head, preferring nodes still inside their rotation window.
	if len(e.heads) == 0 && len(alive) > 0 {
		forced := e.forcedHead(s, alive, round, cycle)
		e.heads = append(e.heads, forced)
		logrus.Debugf("leach: round %d forced head %d", round, forced)
	}

	for _, h := range e.heads {
		e.lastHeadRound[h] = round
		s.Topology.Node(h).Role = RoleClusterHead
	}

	t := float64(round)
	for _, h := range e.heads {
		s.Schedule(&Event{Time: t + phaseSetup, Kind: EventAdvertise, Round: round, Node: h})
	}
	for _, id := range alive {
		if s.Topology.Node(id).Role == RoleClusterHead {
			continue
		}
		s.Schedule(&Event{Time: t + phaseJoin, Kind: EventJoinRequest, Round: round, Node: id})
		s.Schedule(&Event{Time: t + phaseData, Kind: EventDataSend, Round: round, Node: id})
	}
	for _, h := range e.heads {
		s.Schedule(&Event{Time: t + phaseForward, Kind: EventLeaderSend, Round: round, Node: h})
	}
}

// forcedHead picks the lowest-energy candidate, tie broken by lowest id.
// Eligible nodes are preferred; when fewer than 1/P alive nodes remain the
// rotation constraint is waived.
func (e *leachEngine) forcedHead(s *Simulator, alive []NodeID, round, cycle int) NodeID {
	best := NoNode
	bestEnergy := math.Inf(1)
	pick := func(ids []NodeID) {
		for _, id := range ids {
			if en := s.Topology.Node(id).Energy; en < bestEnergy {
				bestEnergy = en
				best = id
			}
		}
	}
	var eligible []NodeID
	for _, id := range alive {
		if round-e.lastHeadRound[id] >= cycle {
			eligible = append(eligible, id)
		}
	}
	if len(eligible) > 0 {
		pick(eligible)
	} else {
		pick(alive)
	}
	return best
}

func (e *leachEngine) OnEvent(s *Simulator, ev *Event) {
	switch ev.Kind {
	case EventAdvertise:
		e.onAdvertise(s, ev)
	case EventJoinRequest:
		e.onJoin(s, ev)
	case EventDataSend:
		e.onDataSend(s, ev)
	case EventLeaderSend:
		e.onLeaderSend(s, ev)
	}
}

// onAdvertise broadcasts the head's advertisement over the maximum cluster
// radius; every live node in radius pays the receive cost.
func (e *leachEngine) onAdvertise(s *Simulator, ev *Event) {
	h := ev.Node
	if !s.Topology.Node(h).Alive {
		return
	}
	if !s.Spend(h, s.Energy.TransmitCost(e.ctrlBits, e.clusterRadius)) {
		return
	}
	for _, nb := range s.Topology.NeighborsWithin(h, e.clusterRadius) {
		s.Spend(nb, s.Energy.ReceiveCost(e.ctrlBits))
	}
}

// onJoin attaches a member to its nearest-by-distance live head and pays
// for the join message on both ends.
func (e *leachEngine) onJoin(s *Simulator, ev *Event) {
	m := ev.Node
	node := s.Topology.Node(m)
	if !node.Alive || node.Role == RoleClusterHead {
		return
	}
	h := e.nearestHead(s, m)
	if h == NoNode {
		return // no live head; direct-to-base fallback at data time
	}
	if !s.Spend(m, s.Energy.TransmitCost(e.ctrlBits, s.Topology.Distance(m, h))) {
		return
	}
	s.Spend(h, s.Energy.ReceiveCost(e.ctrlBits))
	e.memberHead[m] = h
	node.Role = RoleClusterMember
}

func (e *leachEngine) nearestHead(s *Simulator, m NodeID) NodeID {
	best := NoNode
	bestDist := math.Inf(1)
	for _, h := range e.heads {
		if !s.Topology.Node(h).Alive {
			continue
		}
		if d := s.Topology.Distance(m, h); d < bestDist {
			bestDist = d
			best = h
		}
	}
	return best
}

// onDataSend performs one member's steady-state transmission. A member
// whose head died mid-round falls back to a direct base-station
// transmission for this round only.
func (e *leachEngine) onDataSend(s *Simulator, ev *Event) {
	m := ev.Node
	if !s.Topology.Node(m).Alive {
		return
	}
	pkt := NewPacket(m, e.packetBits)
	if !s.Spend(m, s.Energy.SenseCost(e.packetBits)) {
		s.EmitDropped(pkt, "died_sensing")
		return
	}

	h := e.memberHead[m]
	if h != NoNode && s.Topology.Node(h).Alive {
		pkt.NextHop = h
		if !s.Spend(m, s.Energy.TransmitCost(e.packetBits, s.Topology.Distance(m, h))) {
			s.EmitDropped(pkt, "sender_died")
			return
		}
		pkt.Hops++
		if !s.Spend(h, s.Energy.ReceiveCost(e.packetBits)) {
			s.EmitDropped(pkt, "next_hop_died")
			return
		}
		e.collected[h] = append(e.collected[h], m)
		return
	}

	// Head never joined or died before the data phase.
	if !s.Spend(m, s.Energy.TransmitCost(e.packetBits, s.Topology.DistanceToBase(m))) {
		s.EmitDropped(pkt, "sender_died")
		return
	}
	pkt.Hops++
	s.EmitDelivered(pkt)
}

// onLeaderSend aggregates the head's collected data and transmits a single
// compressed packet to the base station. The aggregate size is independent
// of the member count; the aggregation cost is paid over the received
// volume.
func (e *leachEngine) onLeaderSend(s *Simulator, ev *Event) {
	h := ev.Node
	members := e.collected[h]
	if !s.Topology.Node(h).Alive {
		e.dropCluster(s, h, members, false, "head_dead")
		return
	}
	if !s.Spend(h, s.Energy.SenseCost(e.packetBits)) {
		e.dropCluster(s, h, members, false, "head_dead")
		return
	}
	volume := (len(members) + 1) * e.packetBits
	if !s.Spend(h, s.Energy.AggregateCost(volume)) {
		e.dropCluster(s, h, members, true, "head_dead")
		return
	}
	if !s.Spend(h, s.Energy.TransmitCost(e.packetBits, s.Topology.DistanceToBase(h))) {
		e.dropCluster(s, h, members, true, "head_died_forwarding")
		return
	}

	own := NewPacket(h, e.packetBits)
	own.Hops = 1
	s.EmitDelivered(own)
	for _, m := range members {
		pkt := NewPacket(m, e.packetBits)
		pkt.NextHop = h
		pkt.Hops = 2
		s.EmitDelivered(pkt)
	}
}

// dropCluster records delivery failures for all packets buffered at a dead
// or dying head, the head's own sensed packet included once sensed.
func (e *leachEngine) dropCluster(s *Simulator, h NodeID, members []NodeID, ownSensed bool, reason string) {
	if ownSensed {
		own := NewPacket(h, e.packetBits)
		own.Hops = 1
		s.EmitDropped(own, reason)
	}
	for _, m := range members {
		pkt := NewPacket(m, e.packetBits)
		pkt.NextHop = h
		pkt.Hops = 1
		s.EmitDropped(pkt, reason)
	}
}

func (e *leachEngine) IsTerminal(s *Simulator) bool {
	return s.Topology.AliveCount() == 0
}
