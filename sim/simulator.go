package sim

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/wsn-sim/wsn-sim/sim/outcome"
)

// Simulator owns the full state of one run: clock-driving event queue,
// topology, energy model, RNG streams, the active protocol engine, and the
// outcome log. Independent runs share nothing and may execute in parallel
// without synchronization.
type Simulator struct {
	Config   Config
	Queue    *EventQueue
	Topology *Topology
	Energy   *EnergyModel
	RNG      *PartitionedRNG
	Engine   Protocol
	Metrics  *Metrics
	Outcomes *outcome.Log

	Round int
}

// NewSimulator validates the configuration and assembles a run. It returns
// a ConfigurationError before any event is scheduled when the setup is
// invalid.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := NewPartitionedRNG(cfg.Seed)
	base := Position{X: cfg.BaseX, Y: cfg.BaseY}
	var topo *Topology
	if len(cfg.Positions) > 0 {
		topo = NewTopology(cfg.Positions, base, cfg.CommRange, cfg.InitialEnergy)
	} else {
		topo = NewRandomTopology(cfg.NodeCount, cfg.Width, cfg.Height, base,
			cfg.CommRange, cfg.InitialEnergy, rng.ForSubsystem(SubsystemTopology))
	}

	s := &Simulator{
		Config:   cfg,
		Queue:    NewEventQueue(),
		Topology: topo,
		Energy:   NewEnergyModel(),
		RNG:      rng,
		Metrics:  NewMetrics(cfg.NodeCount),
		Outcomes: outcome.NewLog(),
	}
	s.Outcomes.Subscribe(s.Metrics.Observe)

	engine, err := NewProtocol(&cfg)
	if err != nil {
		return nil, err
	}
	s.Engine = engine
	return s, nil
}

// Schedule inserts an event. Scheduling into the past is an engine bug and
// panics with the queue's LogicError; it must never happen for a correct
// engine.
func (s *Simulator) Schedule(ev *Event) *EventHandle {
	h, err := s.Queue.Schedule(ev)
	if err != nil {
		panic(err)
	}
	return h
}

// Run executes the event loop to termination: all nodes dead, the engine's
// own terminal condition, or the configured round horizon. Partial results
// accumulated so far always remain valid.
func (s *Simulator) Run() {
	logrus.Debugf("starting %s run: %d nodes, %d rounds, seed %d",
		s.Engine.Name(), s.Config.NodeCount, s.Config.Rounds, s.Config.Seed)

	s.Engine.Setup(s)
	s.Schedule(&Event{Time: 0, Kind: EventRoundStart, Round: 0})

	for {
		ev := s.Queue.PopNext()
		if ev == nil {
			break
		}
		switch ev.Kind {
		case EventRoundStart:
			s.Round = ev.Round
			logrus.Debugf("[t=%08.2f] round %d start, %d alive",
				ev.Time, ev.Round, s.Topology.AliveCount())
			s.Engine.OnRoundStart(s, ev.Round)
			s.Schedule(&Event{
				Time:  float64(ev.Round) + phaseRoundEnd,
				Kind:  EventRoundEnd,
				Round: ev.Round,
			})
		case EventRoundEnd:
			s.completeRound(ev)
			if s.Engine.IsTerminal(s) || ev.Round+1 >= s.Config.Rounds {
				logrus.Debugf("[t=%08.2f] terminating after round %d", ev.Time, ev.Round)
				return
			}
			s.Schedule(&Event{
				Time:  float64(ev.Round + 1),
				Kind:  EventRoundStart,
				Round: ev.Round + 1,
			})
		default:
			s.Engine.OnEvent(s, ev)
		}
	}
}

// completeRound emits the RoundCompleted outcome and samples the per-round
// series at the boundary.
func (s *Simulator) completeRound(ev *Event) {
	heads := 0
	for i := 0; i < s.Topology.Len(); i++ {
		n := s.Topology.Node(NodeID(i))
		if n.Alive && (n.Role == RoleClusterHead || n.Role == RoleChainLeader) {
			heads++
		}
	}
	s.Metrics.RecordRound(s.Topology.AliveCount(), s.Topology.TotalEnergy(), heads)
	s.Outcomes.Append(outcome.Record{
		Time:  ev.Time,
		Kind:  outcome.RoundCompleted,
		Round: ev.Round,
		Node:  -1,
	})
}

// Spend applies an energy cost to a node and reports whether it survived.
// A cost exceeding the remaining balance kills the node on that action; the
// death is recorded as an outcome and the node leaves all neighbor sets
// immediately. Spending on an already-dead node is a no-op returning false.
func (s *Simulator) Spend(id NodeID, cost float64) bool {
	n := s.Topology.Node(id)
	if !n.Alive {
		return false
	}
	consumed := math.Min(cost, n.Energy)
	_, died := s.Energy.Apply(n, cost)
	s.Metrics.EnergyConsumed += consumed
	if died {
		s.Topology.MarkDead(id)
		logrus.Debugf("[t=%08.2f] node %d died (round %d)", s.Queue.Now(), id, s.Round)
		s.Outcomes.Append(outcome.Record{
			Time:  s.Queue.Now(),
			Kind:  outcome.NodeDied,
			Round: s.Round,
			Node:  int(id),
		})
		return false
	}
	return true
}

// EmitDelivered records a packet delivery at the base station.
func (s *Simulator) EmitDelivered(p *Packet) {
	s.Outcomes.Append(outcome.Record{
		Time:  s.Queue.Now(),
		Kind:  outcome.PacketDelivered,
		Round: s.Round,
		Node:  int(p.Sender),
		Hops:  p.Hops,
	})
}

// EmitDropped records a delivery failure with a reason. Anomalies such as
// unreachable destinations surface here, never as run-aborting errors.
func (s *Simulator) EmitDropped(p *Packet, reason string) {
	s.Outcomes.Append(outcome.Record{
		Time:   s.Queue.Now(),
		Kind:   outcome.PacketDropped,
		Round:  s.Round,
		Node:   int(p.Sender),
		Hops:   p.Hops,
		Detail: reason,
	})
}

// Summary returns the comparison row for the (possibly partial) run.
func (s *Simulator) Summary() Summary {
	return s.Metrics.Summarize(s.Engine.Name())
}
