// Package outcome holds the replayable outcome records emitted by a
// simulation run. It stores pure data types and has no dependency on the
// engine, so collectors and exporters can consume it at any cadence.
package outcome

import "fmt"

// Kind classifies an outcome record.
type Kind string

const (
	NodeDied        Kind = "node_died"
	PacketDelivered Kind = "packet_delivered"
	PacketDropped   Kind = "packet_dropped"
	RoundCompleted  Kind = "round_completed"
)

// Record is a single engine-emitted outcome. Node is the subject node id
// (the dead node, or a packet's original sender); -1 when not applicable.
// Hops carries the relay count for packet records. Detail is a free-form
// reason string ("next_hop_dead", "no_route", ...).
type Record struct {
	Time   float64
	Kind   Kind
	Round  int
	Node   int
	Hops   int
	Detail string
}

// String renders a stable single-line encoding. Determinism tests compare
// these lines byte for byte, so the format must not depend on map order or
// pointer values.
func (r Record) String() string {
	return fmt.Sprintf("t=%.4f kind=%s round=%d node=%d hops=%d detail=%s",
		r.Time, r.Kind, r.Round, r.Node, r.Hops, r.Detail)
}
