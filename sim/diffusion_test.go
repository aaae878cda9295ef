package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wsn-sim/wsn-sim/sim/outcome"
)

func diffusionLineConfig() Config {
	cfg := DefaultConfig()
	cfg.Protocol = ProtocolDiffusion
	cfg.NodeCount = 5
	cfg.Width = 100
	cfg.Height = 10
	cfg.BaseX = 50
	cfg.BaseY = 0
	cfg.CommRange = 12
	cfg.Positions = []Position{{0, 0}, {10, 0}, {20, 0}, {30, 0}, {40, 0}}
	return cfg
}

// diamond: two disjoint paths from node 0 to node 3, which is the only node
// in direct range of the base station.
func diffusionDiamondConfig() Config {
	cfg := DefaultConfig()
	cfg.Protocol = ProtocolDiffusion
	cfg.NodeCount = 4
	cfg.Width = 30
	cfg.Height = 20
	cfg.BaseX = 30
	cfg.BaseY = 0
	cfg.CommRange = 15
	cfg.Positions = []Position{{0, 0}, {10, 8}, {10, -8}, {20, 0}}
	cfg.Diffusion.SourceCount = 1
	return cfg
}

func TestDiffusion_InterestFloodBuildsHopGradients(t *testing.T) {
	// GIVEN a line of nodes ending in range of the sink
	s := newTestSim(t, diffusionLineConfig())
	e := s.Engine.(*diffusionEngine)
	e.Setup(s)

	// WHEN an interest floods outward from the sink
	e.onInterestFlood(s, &Event{Kind: EventInterestFlood, Round: 0})

	// THEN the in-range node holds a direct-to-sink gradient
	require.NotEmpty(t, e.gradients[4])
	require.Equal(t, NoNode, e.gradients[4][0].neighbor)
	require.Equal(t, 1, e.gradients[4][0].hops)

	// AND the far end points down the line with the full hop count
	require.NotEmpty(t, e.gradients[0])
	require.Equal(t, NodeID(1), e.gradients[0][0].neighbor)
	require.Equal(t, 5, e.gradients[0][0].hops)
}

func TestDiffusion_ExploratoryDeliveryThenReinforcedUnicast(t *testing.T) {
	// GIVEN gradients established on the line
	s := newTestSim(t, diffusionLineConfig())
	e := s.Engine.(*diffusionEngine)
	e.Setup(s)
	e.onInterestFlood(s, &Event{Kind: EventInterestFlood, Round: 0})

	// WHEN the far node sends its first reading
	e.onDataSend(s, &Event{Kind: EventDataSend, Round: 0, Node: 0})

	// THEN the exploratory flood delivers one copy
	require.Equal(t, 1, s.Metrics.Delivered)
	first := s.Outcomes.Records()[len(s.Outcomes.Records())-1]
	require.Equal(t, 5, first.Hops)

	// AND the scheduled reinforcement converges the path
	ev := s.Queue.PopNext()
	require.NotNil(t, ev)
	require.Equal(t, EventReinforce, ev.Kind)
	e.OnEvent(s, ev)
	for _, id := range []NodeID{0, 1, 2, 3, 4} {
		require.NotNil(t, e.reinforcedEntry(id), "node %d should hold a reinforced gradient", id)
	}

	// AND the next reading unicasts along the reinforced path
	e.onDataSend(s, &Event{Kind: EventDataSend, Round: 1, Node: 0})
	require.Equal(t, 2, s.Metrics.Delivered)
	second := s.Outcomes.Records()[len(s.Outcomes.Records())-1]
	require.Equal(t, outcome.PacketDelivered, second.Kind)
	require.Equal(t, 5, second.Hops)
}

func TestDiffusion_DeadReinforcedNeighborFallsBackToAlternatePath(t *testing.T) {
	// GIVEN a diamond whose upper path has been reinforced
	s := newTestSim(t, diffusionDiamondConfig())
	e := s.Engine.(*diffusionEngine)
	e.Setup(s)
	e.onInterestFlood(s, &Event{Kind: EventInterestFlood, Round: 0})
	e.onDataSend(s, &Event{Kind: EventDataSend, Round: 0, Node: 0})
	e.OnEvent(s, s.Queue.PopNext()) // reinforcement walk

	g := e.reinforcedEntry(0)
	require.NotNil(t, g)
	require.Equal(t, NodeID(1), g.neighbor, "tie on hops should reinforce the lower id path")

	// WHEN the reinforced relay dies
	s.Topology.MarkDead(1)
	e.onDataSend(s, &Event{Kind: EventDataSend, Round: 1, Node: 0})

	// THEN the packet is rerouted over the surviving path
	require.Equal(t, 2, s.Metrics.Delivered)
	last := s.Outcomes.Records()[len(s.Outcomes.Records())-1]
	require.Equal(t, outcome.PacketDelivered, last.Kind)
	require.Equal(t, 3, last.Hops)
	if g := e.reinforcedEntry(0); g != nil && g.neighbor == 1 {
		t.Error("gradient toward dead neighbor is still reinforced")
	}
}

func TestDiffusion_NewInterestSupersedesOldGradients(t *testing.T) {
	// GIVEN a reinforced path from a first interest
	s := newTestSim(t, diffusionLineConfig())
	e := s.Engine.(*diffusionEngine)
	e.Setup(s)
	e.onInterestFlood(s, &Event{Kind: EventInterestFlood, Round: 0})
	e.onDataSend(s, &Event{Kind: EventDataSend, Round: 0, Node: 0})
	e.OnEvent(s, s.Queue.PopNext())
	require.NotNil(t, e.reinforcedEntry(0))

	// WHEN a fresh interest floods
	e.onInterestFlood(s, &Event{Kind: EventInterestFlood, Round: 20})

	// THEN stale gradients and reinforcement are gone
	require.Nil(t, e.reinforcedEntry(0))
	for _, g := range e.gradients[0] {
		require.Equal(t, 2, g.seq)
		require.False(t, g.reinforced)
	}
}

func TestDiffusion_PruneKeepsReinforcedEntries(t *testing.T) {
	s := newTestSim(t, diffusionLineConfig())
	e := s.Engine.(*diffusionEngine)
	e.Setup(s)

	e.gradients[0] = []gradientEntry{
		{neighbor: 1, hops: 2, seq: 1, lastUsed: 0},
		{neighbor: 2, hops: 3, seq: 1, lastUsed: 0, reinforced: true},
		{neighbor: 3, hops: 4, seq: 1, lastUsed: 8},
	}

	// WHEN the timeout window passes for the first entry only
	e.pruneGradients(10) // default timeout is 10 rounds

	require.Len(t, e.gradients[0], 2)
	require.Equal(t, NodeID(2), e.gradients[0][0].neighbor)
	require.Equal(t, NodeID(3), e.gradients[0][1].neighbor)
}

func TestDiffusion_UnreachableSourceDropsWithReason(t *testing.T) {
	// GIVEN a source the interest flood never reached
	cfg := diffusionLineConfig()
	cfg.NodeCount = 2
	cfg.Positions = []Position{{0, 0}, {40, 0}}
	s := newTestSim(t, cfg)
	e := s.Engine.(*diffusionEngine)
	e.Setup(s)
	e.onInterestFlood(s, &Event{Kind: EventInterestFlood, Round: 0})

	// WHEN it tries to send
	e.onDataSend(s, &Event{Kind: EventDataSend, Round: 0, Node: 0})

	// THEN the packet drops with no_route, the run continues
	require.Equal(t, 0, s.Metrics.Delivered)
	require.Equal(t, 1, s.Metrics.Dropped)
	last := s.Outcomes.Records()[len(s.Outcomes.Records())-1]
	require.Equal(t, "no_route", last.Detail)
}

func TestDiffusion_ExploratoryRateThrottlesUnreinforcedSources(t *testing.T) {
	// GIVEN gradients but no reinforced path yet
	s := newTestSim(t, diffusionLineConfig())
	e := s.Engine.(*diffusionEngine)
	e.Setup(s)
	e.onInterestFlood(s, &Event{Kind: EventInterestFlood, Round: 0})

	// WHEN a data round falls between exploratory intervals
	before := s.Topology.Node(0).Energy
	e.onDataSend(s, &Event{Kind: EventDataSend, Round: 1, Node: 0})

	// THEN the source skips the round entirely, sensing included
	require.Equal(t, 0, s.Metrics.Delivered)
	require.Equal(t, 0, s.Metrics.Dropped)
	require.Equal(t, 0, s.Queue.Len())
	require.Equal(t, before, s.Topology.Node(0).Energy)

	// AND it sends on the exploratory interval boundary
	e.onDataSend(s, &Event{Kind: EventDataSend, Round: 4, Node: 0})
	require.Equal(t, 1, s.Metrics.Delivered)

	// AND once reinforced it sends every round
	e.OnEvent(s, s.Queue.PopNext())
	require.NotNil(t, e.reinforcedEntry(0))
	e.onDataSend(s, &Event{Kind: EventDataSend, Round: 5, Node: 0})
	require.Equal(t, 2, s.Metrics.Delivered)
}

func TestDiffusion_SourceSelectionDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Protocol = ProtocolDiffusion
	a := newTestSim(t, cfg)
	b := newTestSim(t, cfg)
	ea := a.Engine.(*diffusionEngine)
	eb := b.Engine.(*diffusionEngine)
	ea.Setup(a)
	eb.Setup(b)

	require.Equal(t, ea.Sources(), eb.Sources())
	require.Len(t, ea.Sources(), cfg.Diffusion.SourceCount)
	for i := 1; i < len(ea.Sources()); i++ {
		require.Less(t, ea.Sources()[i-1], ea.Sources()[i], "sources must be ascending")
	}
}
