package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// gearEngine implements Geographic and Energy Aware Routing. Each round
// the base station addresses a query to the target region; the query is
// forwarded hop by hop toward the region by the neighbor minimizing
// cost = alpha*distance_to_region + (1-alpha)*(1/remaining_energy) among
// those making strictly positive geographic progress, with a cost-only
// recovery mode around holes. Inside the region the query spreads by
// restricted flooding, and in-region nodes route their readings back to
// the base station the same way.
type gearEngine struct {
	alpha        float64
	region       Position
	regionRadius float64
	packetBits   int
	ctrlBits     int

	seenQuery   []map[int]bool
	curQueryID  int
	nextQueryID int
}

func newGEAR(cfg *Config) *gearEngine {
	return &gearEngine{
		alpha:        cfg.GEAR.Alpha,
		region:       Position{X: cfg.GEAR.RegionX, Y: cfg.GEAR.RegionY},
		regionRadius: cfg.GEAR.RegionRadius,
		packetBits:   cfg.PacketBits,
		ctrlBits:     cfg.ControlBits,
	}
}

func (e *gearEngine) Name() string { return ProtocolGEAR }

func (e *gearEngine) Setup(s *Simulator) {
	e.seenQuery = make([]map[int]bool, s.Topology.Len())
	for i := range e.seenQuery {
		e.seenQuery[i] = make(map[int]bool)
	}
}

func (e *gearEngine) OnRoundStart(s *Simulator, round int) {
	s.Schedule(&Event{
		Time: float64(round) + phaseSetup, Kind: EventQueryForward, Round: round, Node: NoNode,
	})
}

func (e *gearEngine) OnEvent(s *Simulator, ev *Event) {
	switch ev.Kind {
	case EventQueryForward:
		e.onQueryForward(s, ev)
	case EventRegionFlood:
		e.onRegionFlood(s, ev)
	case EventDataSend:
		e.onDataSend(s, ev)
	}
}

func (e *gearEngine) inRegion(s *Simulator, id NodeID) bool {
	return s.Topology.DistanceToPoint(id, e.region) <= e.regionRadius
}

// cost is the GEAR forwarding estimate toward an arbitrary target point.
func (e *gearEngine) cost(s *Simulator, id NodeID, target Position) float64 {
	energy := s.Topology.Node(id).Energy
	if energy <= 0 {
		return math.Inf(1)
	}
	return e.alpha*s.Topology.DistanceToPoint(id, target) + (1-e.alpha)*(1/energy)
}

// nextHop picks the forwarding neighbor toward target: minimal cost among
// live unvisited neighbors with strictly positive geographic progress.
// When no neighbor makes progress (a hole), recovery mode minimizes cost
// alone within the local neighborhood. The second return reports whether
// recovery mode was used.
func (e *gearEngine) nextHop(s *Simulator, cur NodeID, target Position, visited map[NodeID]bool) (NodeID, bool) {
	nbs := s.Topology.NeighborsWithin(cur, s.Topology.CommRange())
	curDist := s.Topology.DistanceToPoint(cur, target)

	best := NoNode
	bestCost := math.Inf(1)
	for _, nb := range nbs {
		if visited[nb] {
			continue
		}
		if curDist-s.Topology.DistanceToPoint(nb, target) <= 0 {
			continue
		}
		if c := e.cost(s, nb, target); c < bestCost {
			bestCost = c
			best = nb
		}
	}
	if best != NoNode {
		return best, false
	}

	for _, nb := range nbs {
		if visited[nb] {
			continue
		}
		if c := e.cost(s, nb, target); c < bestCost {
			bestCost = c
			best = nb
		}
	}
	return best, best != NoNode
}

// onQueryForward carries one query from the base station to the target
// region, paying per-hop control costs. Reaching the region hands off to
// restricted flooding; running out of candidates drops the query as a
// delivery failure.
func (e *gearEngine) onQueryForward(s *Simulator, ev *Event) {
	e.curQueryID = e.nextQueryID
	e.nextQueryID++

	// Injection point: the live node nearest the base station.
	cur := NoNode
	minDist := math.Inf(1)
	for _, id := range s.Topology.AliveNodes() {
		if d := s.Topology.DistanceToBase(id); d < minDist {
			minDist = d
			cur = id
		}
	}
	pkt := &Packet{Sender: NoNode, SizeBits: e.ctrlBits}
	if cur == NoNode {
		s.EmitDropped(pkt, "no_route")
		return
	}
	if !s.Spend(cur, s.Energy.ReceiveCost(e.ctrlBits)) {
		s.EmitDropped(pkt, "next_hop_died")
		return
	}

	visited := map[NodeID]bool{cur: true}
	for {
		if e.inRegion(s, cur) {
			s.Schedule(&Event{
				Time: s.Queue.Now(), Kind: EventRegionFlood, Round: ev.Round, Node: cur,
			})
			return
		}
		next, recovered := e.nextHop(s, cur, e.region, visited)
		if next == NoNode {
			s.EmitDropped(pkt, "no_route")
			return
		}
		if recovered {
			logrus.Debugf("gear: query %d recovery mode at node %d", e.curQueryID, cur)
		}
		pkt.NextHop = next
		if !s.Spend(cur, s.Energy.TransmitCost(e.ctrlBits, s.Topology.Distance(cur, next))) {
			s.EmitDropped(pkt, "relay_died")
			return
		}
		pkt.Hops++
		if !s.Spend(next, s.Energy.ReceiveCost(e.ctrlBits)) {
			s.EmitDropped(pkt, "next_hop_died")
			return
		}
		visited[next] = true
		cur = next
	}
}

// onRegionFlood spreads the query among in-region nodes only, suppressing
// duplicates with the per-query id cache, then schedules each reached
// node's data response.
func (e *gearEngine) onRegionFlood(s *Simulator, ev *Event) {
	entry := ev.Node
	if !s.Topology.Node(entry).Alive {
		return
	}
	qid := e.curQueryID
	commRange := s.Topology.CommRange()

	queue := []NodeID{entry}
	e.seenQuery[entry][qid] = true
	reached := []NodeID{entry}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !s.Topology.Node(cur).Alive {
			continue
		}
		if !s.Spend(cur, s.Energy.TransmitCost(e.ctrlBits, commRange)) {
			continue
		}
		for _, nb := range s.Topology.NeighborsWithin(cur, commRange) {
			if !e.inRegion(s, nb) || e.seenQuery[nb][qid] {
				continue
			}
			if !s.Spend(nb, s.Energy.ReceiveCost(e.ctrlBits)) {
				continue
			}
			e.seenQuery[nb][qid] = true
			queue = append(queue, nb)
			reached = append(reached, nb)
		}
	}

	for _, id := range reached {
		s.Schedule(&Event{
			Time: float64(ev.Round) + phaseData, Kind: EventDataSend, Round: ev.Round, Node: id,
		})
	}
}

// onDataSend routes one in-region node's reading back to the base station
// with the same energy-aware geographic forwarding, the base station
// standing in as a point target.
func (e *gearEngine) onDataSend(s *Simulator, ev *Event) {
	src := ev.Node
	if !s.Topology.Node(src).Alive {
		return
	}
	pkt := NewPacket(src, e.packetBits)
	if !s.Spend(src, s.Energy.SenseCost(e.packetBits)) {
		s.EmitDropped(pkt, "died_sensing")
		return
	}

	base := s.Topology.Base()
	commRange := s.Topology.CommRange()
	cur := src
	visited := map[NodeID]bool{src: true}
	for {
		if s.Topology.DistanceToBase(cur) <= commRange {
			if !s.Spend(cur, s.Energy.TransmitCost(e.packetBits, s.Topology.DistanceToBase(cur))) {
				s.EmitDropped(pkt, "relay_died")
				return
			}
			pkt.Hops++
			s.EmitDelivered(pkt)
			return
		}
		next, _ := e.nextHop(s, cur, base, visited)
		if next == NoNode {
			s.EmitDropped(pkt, "no_route")
			return
		}
		pkt.NextHop = next
		if !s.Spend(cur, s.Energy.TransmitCost(e.packetBits, s.Topology.Distance(cur, next))) {
			s.EmitDropped(pkt, "relay_died")
			return
		}
		pkt.Hops++
		if !s.Spend(next, s.Energy.ReceiveCost(e.packetBits)) {
			s.EmitDropped(pkt, "next_hop_died")
			return
		}
		visited[next] = true
		cur = next
	}
}

func (e *gearEngine) IsTerminal(s *Simulator) bool {
	return s.Topology.AliveCount() == 0
}
