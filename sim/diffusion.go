package sim

import (
	"github.com/sirupsen/logrus"
)

// Gradient rates in packets per interval. A source on a reinforced path
// sends every round; off one it sends at the exploratory rate, i.e. every
// reinforcedRate/exploratoryRate rounds.
const (
	exploratoryRate = 1.0
	reinforcedRate  = 4.0
)

// gradientEntry is one directional preference at a node: the neighbor that
// is upstream toward the sink for a given interest. NoNode means the sink
// itself is in direct range.
type gradientEntry struct {
	neighbor   NodeID
	hops       int // hop count to the sink recorded at interest time
	seq        int
	reinforced bool
	lastUsed   int // round the entry last carried traffic
}

// dataArrival records a data packet copy reaching a node: which neighbor
// delivered it and after how many hops. Arrivals are appended in
// deterministic flood order, so "earliest" is simply the best (hops, from)
// entry.
type dataArrival struct {
	from NodeID
	hops int
}

// diffusionEngine implements the Directed Diffusion gradient state
// machine: periodic interest floods from the sink, exploratory multi-path
// data from the sources, and latency-based reinforcement converging each
// sink-source pair onto a single path.
type diffusionEngine struct {
	interestInterval int
	sourceCount      int
	gradientTimeout  int
	packetBits       int
	ctrlBits         int

	seq       int
	gradients [][]gradientEntry
	seenSeq   []int
	sources   []NodeID

	arrivals     []map[int][]dataArrival // per node: packet id -> arrivals
	sinkArrivals map[int][]dataArrival   // packet id -> arrivals at the sink
	pendingPkt   map[NodeID]int          // source -> packet id awaiting reinforcement
	nextPacketID int
}

func newDiffusion(cfg *Config) *diffusionEngine {
	return &diffusionEngine{
		interestInterval: cfg.Diffusion.InterestInterval,
		sourceCount:      cfg.Diffusion.SourceCount,
		gradientTimeout:  cfg.Diffusion.GradientTimeout,
		packetBits:       cfg.PacketBits,
		ctrlBits:         cfg.ControlBits,
		sinkArrivals:     make(map[int][]dataArrival),
		pendingPkt:       make(map[NodeID]int),
	}
}

func (e *diffusionEngine) Name() string { return ProtocolDiffusion }

func (e *diffusionEngine) Setup(s *Simulator) {
	n := s.Topology.Len()
	e.gradients = make([][]gradientEntry, n)
	e.seenSeq = make([]int, n)
	e.arrivals = make([]map[int][]dataArrival, n)
	for i := 0; i < n; i++ {
		e.seenSeq[i] = -1
		e.arrivals[i] = make(map[int][]dataArrival)
	}

	// The sources matching the sink's interest are drawn once from the
	// traffic stream, then kept in ascending order for deterministic
	// iteration.
	rng := s.RNG.ForSubsystem(SubsystemTraffic)
	count := e.sourceCount
	if count > n {
		count = n
	}
	perm := rng.Perm(n)
	picked := make([]NodeID, 0, count)
	for _, idx := range perm[:count] {
		picked = append(picked, NodeID(idx))
	}
	for i := range picked {
		for j := i + 1; j < len(picked); j++ {
			if picked[j] < picked[i] {
				picked[i], picked[j] = picked[j], picked[i]
			}
		}
	}
	e.sources = picked
	logrus.Debugf("diffusion: sources %v", e.sources)
}

func (e *diffusionEngine) OnRoundStart(s *Simulator, round int) {
	e.pruneGradients(round)

	t := float64(round)
	if round%e.interestInterval == 0 {
		s.Schedule(&Event{Time: t + phaseSetup, Kind: EventInterestFlood, Round: round, Node: NoNode})
	}
	for _, src := range e.sources {
		if s.Topology.Node(src).Alive {
			s.Schedule(&Event{Time: t + phaseData, Kind: EventDataSend, Round: round, Node: src})
		}
	}
}

// pruneGradients drops entries that carried no traffic for the timeout
// window. Reinforced entries are exempt; they are only displaced by a newer
// interest or an explicit fallback.
func (e *diffusionEngine) pruneGradients(round int) {
	for id := range e.gradients {
		kept := e.gradients[id][:0]
		for _, g := range e.gradients[id] {
			if g.reinforced || round-g.lastUsed < e.gradientTimeout {
				kept = append(kept, g)
			}
		}
		e.gradients[id] = kept
	}
}

func (e *diffusionEngine) OnEvent(s *Simulator, ev *Event) {
	switch ev.Kind {
	case EventInterestFlood:
		e.onInterestFlood(s, ev)
	case EventDataSend:
		e.onDataSend(s, ev)
	case EventReinforce:
		e.onReinforce(s, ev)
	}
}

// onInterestFlood disseminates a fresh interest outward from the sink.
// Every node rebroadcasts exactly once per interest id (dedup by id is
// authoritative); a newer sequence number supersedes all stale gradients
// at a node.
func (e *diffusionEngine) onInterestFlood(s *Simulator, ev *Event) {
	e.seq++
	seq := e.seq
	round := ev.Round
	commRange := s.Topology.CommRange()

	type flood struct {
		id   NodeID
		hops int
	}
	var queue []flood

	// Nodes in direct range of the sink seed the flood with a
	// direct-to-base gradient.
	for _, id := range s.Topology.AliveNodes() {
		if s.Topology.DistanceToBase(id) > commRange {
			continue
		}
		if !s.Spend(id, s.Energy.ReceiveCost(e.ctrlBits)) {
			continue
		}
		e.seenSeq[id] = seq
		e.gradients[id] = []gradientEntry{{
			neighbor: NoNode, hops: 1, seq: seq, lastUsed: round,
		}}
		queue = append(queue, flood{id, 1})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !s.Topology.Node(cur.id).Alive {
			continue
		}
		// One broadcast per interest id.
		if !s.Spend(cur.id, s.Energy.TransmitCost(e.ctrlBits, commRange)) {
			continue
		}
		for _, nb := range s.Topology.NeighborsWithin(cur.id, commRange) {
			if !s.Spend(nb, s.Energy.ReceiveCost(e.ctrlBits)) {
				continue
			}
			if e.seenSeq[nb] >= seq {
				// Already part of this interest: record an extra gradient
				// for multi-path delivery, but do not rebroadcast again.
				e.addGradient(nb, cur.id, cur.hops+1, seq, round)
				continue
			}
			e.seenSeq[nb] = seq
			e.gradients[nb] = []gradientEntry{{
				neighbor: cur.id, hops: cur.hops + 1, seq: seq, lastUsed: round,
			}}
			queue = append(queue, flood{nb, cur.hops + 1})
		}
	}
}

func (e *diffusionEngine) addGradient(at, neighbor NodeID, hops, seq, round int) {
	for _, g := range e.gradients[at] {
		if g.neighbor == neighbor && g.seq == seq {
			return
		}
	}
	e.gradients[at] = append(e.gradients[at], gradientEntry{
		neighbor: neighbor, hops: hops, seq: seq, lastUsed: round,
	})
}

// reinforcedEntry returns the node's reinforced gradient for the current
// interest, or nil.
func (e *diffusionEngine) reinforcedEntry(id NodeID) *gradientEntry {
	for i := range e.gradients[id] {
		g := &e.gradients[id][i]
		if g.reinforced && g.seq == e.seq {
			return g
		}
	}
	return nil
}

// bestGradient returns the node's best current-interest gradient by
// (hops, neighbor id), skipping dead neighbors. Used as the repair path
// when a reinforced neighbor has died.
func (e *diffusionEngine) bestGradient(s *Simulator, id NodeID) *gradientEntry {
	var best *gradientEntry
	for i := range e.gradients[id] {
		g := &e.gradients[id][i]
		if g.seq != e.seq {
			continue
		}
		if g.neighbor != NoNode && !s.Topology.Node(g.neighbor).Alive {
			continue
		}
		if best == nil || g.hops < best.hops ||
			(g.hops == best.hops && g.neighbor < best.neighbor) {
			best = g
		}
	}
	return best
}

// exploratoryPeriod is the send interval, in rounds, for a source without a
// reinforced path.
func exploratoryPeriod() int {
	return int(reinforcedRate / exploratoryRate)
}

func (e *diffusionEngine) onDataSend(s *Simulator, ev *Event) {
	src := ev.Node
	if !s.Topology.Node(src).Alive {
		return
	}
	if e.reinforcedEntry(src) != nil {
		pkt := NewPacket(src, e.packetBits)
		if !s.Spend(src, s.Energy.SenseCost(e.packetBits)) {
			s.EmitDropped(pkt, "died_sensing")
			return
		}
		e.sendReinforced(s, src, pkt)
		return
	}
	// Off a reinforced path the source throttles itself to the exploratory
	// rate and skips the round entirely, sensing included.
	if ev.Round%exploratoryPeriod() != 0 {
		return
	}
	pkt := NewPacket(src, e.packetBits)
	if !s.Spend(src, s.Energy.SenseCost(e.packetBits)) {
		s.EmitDropped(pkt, "died_sensing")
		return
	}
	e.sendExploratory(s, ev.Round, src, pkt)
}

// sendReinforced unicasts along the converged path. A reinforced neighbor
// that died since convergence falls back to the next-best recorded
// gradient.
func (e *diffusionEngine) sendReinforced(s *Simulator, src NodeID, pkt *Packet) {
	cur := src
	visited := map[NodeID]bool{src: true}
	for {
		g := e.reinforcedEntry(cur)
		if g != nil && g.neighbor != NoNode && !s.Topology.Node(g.neighbor).Alive {
			g.reinforced = false
			g = nil
		}
		if g == nil {
			g = e.bestGradient(s, cur)
		}
		if g == nil {
			s.EmitDropped(pkt, "no_gradient")
			return
		}
		g.lastUsed = s.Round
		if g.neighbor == NoNode {
			if !s.Spend(cur, s.Energy.TransmitCost(e.packetBits, s.Topology.DistanceToBase(cur))) {
				s.EmitDropped(pkt, "relay_died")
				return
			}
			pkt.Hops++
			s.EmitDelivered(pkt)
			return
		}
		next := g.neighbor
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
		if visited[next] {
			s.EmitDropped(pkt, "routing_loop")
			return
		}
		visited[next] = true
		cur = next
	}
}

// sendExploratory floods low-rate data along every recorded gradient. Each
// node forwards a given packet id once; arrival order at every hop is the
// deterministic flood order, standing in for observed latency. The first
// copy to reach the sink counts as the delivery; a reinforcement walk is
// scheduled afterward.
func (e *diffusionEngine) sendExploratory(s *Simulator, round int, src NodeID, pkt *Packet) {
	pktID := e.nextPacketID
	e.nextPacketID++

	type flow struct {
		id   NodeID
		hops int
	}
	queue := []flow{{src, 0}}
	forwarded := map[NodeID]bool{src: true}
	delivered := false

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !s.Topology.Node(cur.id).Alive {
			continue
		}
		for i := range e.gradients[cur.id] {
			g := &e.gradients[cur.id][i]
			if g.seq != e.seq {
				continue
			}
			g.lastUsed = round
			if g.neighbor == NoNode {
				if !s.Spend(cur.id, s.Energy.TransmitCost(e.packetBits, s.Topology.DistanceToBase(cur.id))) {
					break
				}
				e.sinkArrivals[pktID] = append(e.sinkArrivals[pktID], dataArrival{from: cur.id, hops: cur.hops + 1})
				if !delivered {
					delivered = true
					pkt.Hops = cur.hops + 1
					s.EmitDelivered(pkt)
				}
				continue
			}
			if !s.Topology.Node(g.neighbor).Alive {
				continue
			}
			if !s.Spend(cur.id, s.Energy.TransmitCost(e.packetBits, s.Topology.Distance(cur.id, g.neighbor))) {
				break
			}
			if !s.Spend(g.neighbor, s.Energy.ReceiveCost(e.packetBits)) {
				continue
			}
			e.arrivals[g.neighbor][pktID] = append(e.arrivals[g.neighbor][pktID], dataArrival{from: cur.id, hops: cur.hops + 1})
			if !forwarded[g.neighbor] {
				forwarded[g.neighbor] = true
				queue = append(queue, flow{g.neighbor, cur.hops + 1})
			}
		}
	}

	if !delivered {
		s.EmitDropped(pkt, "no_route")
		return
	}
	e.pendingPkt[src] = pktID
	s.Schedule(&Event{
		Time: float64(round) + phaseForward, Kind: EventReinforce, Round: round, Node: src,
	})
}

// bestArrival picks the lowest-latency recorded arrival with a live
// upstream neighbor: minimal hops, ties broken by lowest neighbor id.
func bestArrival(s *Simulator, arrivals []dataArrival) (dataArrival, bool) {
	best := dataArrival{}
	found := false
	for _, a := range arrivals {
		if !s.Topology.Node(a.from).Alive {
			continue
		}
		if !found || a.hops < best.hops || (a.hops == best.hops && a.from < best.from) {
			best = a
			found = true
		}
	}
	return best, found
}

// onReinforce walks the reinforcement from the sink back toward the
// source, hop by hop along the best-performing recorded arrivals, marking
// exactly one gradient per node on the path as reinforced.
func (e *diffusionEngine) onReinforce(s *Simulator, ev *Event) {
	src := ev.Node
	pktID, ok := e.pendingPkt[src]
	if !ok {
		return
	}
	delete(e.pendingPkt, src)

	entry, ok := bestArrival(s, e.sinkArrivals[pktID])
	delete(e.sinkArrivals, pktID)
	if !ok {
		return
	}

	cur := entry.from
	if !s.Spend(cur, s.Energy.ReceiveCost(e.ctrlBits)) {
		return
	}
	e.markReinforced(cur, NoNode)

	for cur != src {
		up, ok := bestArrival(s, e.arrivals[cur][pktID])
		if !ok {
			break
		}
		if !s.Spend(cur, s.Energy.TransmitCost(e.ctrlBits, s.Topology.Distance(cur, up.from))) {
			break
		}
		if !s.Spend(up.from, s.Energy.ReceiveCost(e.ctrlBits)) {
			break
		}
		e.markReinforced(up.from, cur)
		cur = up.from
	}

	// Arrival caches are per exploratory packet; drop them once the
	// reinforcement walk is done.
	for id := range e.arrivals {
		delete(e.arrivals[id], pktID)
	}
}

// markReinforced sets the node's gradient toward the given downstream
// neighbor as the single reinforced entry, clearing any previous one.
func (e *diffusionEngine) markReinforced(at, toward NodeID) {
	for i := range e.gradients[at] {
		g := &e.gradients[at][i]
		if g.seq != e.seq {
			continue
		}
		if g.neighbor == toward {
			g.reinforced = true
		} else if g.reinforced {
			// Negative reinforcement: the displaced path drops back to the
			// exploratory rate.
			g.reinforced = false
		}
	}
}

// Sources returns the interest-matching source nodes. Exposed for tests.
func (e *diffusionEngine) Sources() []NodeID {
	return e.sources
}

func (e *diffusionEngine) IsTerminal(s *Simulator) bool {
	return s.Topology.AliveCount() == 0
}
