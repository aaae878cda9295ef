package sim

// EventKind discriminates the payload of a scheduled Event. The scheduler
// itself never inspects it; the simulator dispatches RoundStart/RoundEnd and
// hands everything else to the active protocol engine.
type EventKind int

const (
	// EventRoundStart opens a simulation round.
	EventRoundStart EventKind = iota
	// EventRoundEnd closes a round and emits a RoundCompleted outcome.
	EventRoundEnd
	// EventAdvertise is a cluster-head advertisement broadcast (LEACH).
	EventAdvertise
	// EventJoinRequest is a member-to-head join message (LEACH).
	EventJoinRequest
	// EventDataSend is a sensed-data transmission toward the collector of
	// the current round (all protocols).
	EventDataSend
	// EventLeaderSend is the long-range aggregate transmission to the base
	// station (LEACH cluster heads, PEGASIS leaders).
	EventLeaderSend
	// EventInterestFlood is a sink-initiated interest dissemination
	// (Directed Diffusion).
	EventInterestFlood
	// EventReinforce is a positive path reinforcement walking upstream
	// from the sink (Directed Diffusion).
	EventReinforce
	// EventChainRelay is a single chain hop toward the leader (PEGASIS).
	EventChainRelay
	// EventQueryForward is a single geographic forwarding hop of a query
	// toward the target region (GEAR).
	EventQueryForward
	// EventRegionFlood is restricted flooding among in-region nodes (GEAR).
	EventRegionFlood
)

var eventKindNames = map[EventKind]string{
	EventRoundStart:    "RoundStart",
	EventRoundEnd:      "RoundEnd",
	EventAdvertise:     "Advertise",
	EventJoinRequest:   "JoinRequest",
	EventDataSend:      "DataSend",
	EventLeaderSend:    "LeaderSend",
	EventInterestFlood: "InterestFlood",
	EventReinforce:     "Reinforce",
	EventChainRelay:    "ChainRelay",
	EventQueryForward:  "QueryForward",
	EventRegionFlood:   "RegionFlood",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Event is a scheduled action on the simulation clock. Node is the
// originating node (NoNode for sink/base-station initiated events), Target
// the optional destination hop, Packet the optional in-flight payload.
type Event struct {
	Time   float64
	Kind   EventKind
	Round  int
	Node   NodeID
	Target NodeID
	Packet *Packet
}

// Intra-round phase offsets. Rounds occupy unit-spaced windows
// [round, round+1); scheduling phases at fixed offsets keeps same-time FIFO
// ordering aligned with protocol phase order.
const (
	phaseSetup    = 0.10
	phaseJoin     = 0.20
	phaseData     = 0.40
	phaseForward  = 0.70
	phaseRoundEnd = 0.95
)
