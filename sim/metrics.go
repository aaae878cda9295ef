package sim

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/wsn-sim/wsn-sim/sim/outcome"
)

// Metrics aggregates statistics over one run for final reporting:
// delivery counters, energy consumption, lifetime landmarks, and per-round
// series for export and plotting.
type Metrics struct {
	Delivered      int
	Dropped        int
	NodesDied      int
	RoundsComplete int
	EnergyConsumed float64

	// Lifetime landmarks, -1 until reached.
	FirstDeathRound int
	HalfDeathRound  int
	LastDeathRound  int

	// Per-round series, indexed by round.
	AliveSeries  []int
	EnergySeries []float64
	HeadSeries   []int // cluster heads / chain leaders per round

	HopSum     int
	HopSamples int

	nodeCount int
}

// NewMetrics creates a collector for a network of nodeCount nodes.
func NewMetrics(nodeCount int) *Metrics {
	return &Metrics{
		FirstDeathRound: -1,
		HalfDeathRound:  -1,
		LastDeathRound:  -1,
		nodeCount:       nodeCount,
	}
}

// Observe consumes one outcome record. It is the streaming subscriber the
// simulator registers on its outcome log.
func (m *Metrics) Observe(r outcome.Record) {
	switch r.Kind {
	case outcome.PacketDelivered:
		m.Delivered++
		m.HopSum += r.Hops
		m.HopSamples++
	case outcome.PacketDropped:
		m.Dropped++
	case outcome.NodeDied:
		m.NodesDied++
		if m.FirstDeathRound < 0 {
			m.FirstDeathRound = r.Round
		}
		if m.HalfDeathRound < 0 && m.NodesDied*2 >= m.nodeCount {
			m.HalfDeathRound = r.Round
		}
		if m.NodesDied == m.nodeCount {
			m.LastDeathRound = r.Round
		}
	case outcome.RoundCompleted:
		m.RoundsComplete++
	}
}

// RecordRound appends the per-round series sample taken at a round
// boundary.
func (m *Metrics) RecordRound(alive int, totalEnergy float64, heads int) {
	m.AliveSeries = append(m.AliveSeries, alive)
	m.EnergySeries = append(m.EnergySeries, totalEnergy)
	m.HeadSeries = append(m.HeadSeries, heads)
}

// DeliveryRate is delivered / (delivered + dropped), zero when no packets
// were sent.
func (m *Metrics) DeliveryRate() float64 {
	total := m.Delivered + m.Dropped
	if total == 0 {
		return 0
	}
	return float64(m.Delivered) / float64(total)
}

// EnergyEfficiency is packets delivered per Joule consumed.
func (m *Metrics) EnergyEfficiency() float64 {
	if m.EnergyConsumed <= 0 {
		return 0
	}
	return float64(m.Delivered) / m.EnergyConsumed
}

// MeanHops is the average relay count over delivered packets.
func (m *Metrics) MeanHops() float64 {
	if m.HopSamples == 0 {
		return 0
	}
	return float64(m.HopSum) / float64(m.HopSamples)
}

// MeanHeadsPerRound is the long-run average number of cluster heads (or
// chain leaders) per completed round.
func (m *Metrics) MeanHeadsPerRound() float64 {
	if len(m.HeadSeries) == 0 {
		return 0
	}
	heads := make([]float64, len(m.HeadSeries))
	for i, h := range m.HeadSeries {
		heads[i] = float64(h)
	}
	return stat.Mean(heads, nil)
}

// Summary is the flat comparison row derived from a finished run.
type Summary struct {
	Protocol         string
	RoundsComplete   int
	FirstDeathRound  int
	HalfDeathRound   int
	NodesAlive       int
	Delivered        int
	Dropped          int
	DeliveryRate     float64
	EnergyConsumed   float64
	EnergyEfficiency float64
	MeanHops         float64
	MeanHeads        float64
	EnergyStdDev     float64
}

// Summarize computes the comparison row for the given protocol name.
func (m *Metrics) Summarize(protocol string) Summary {
	alive := 0
	if n := len(m.AliveSeries); n > 0 {
		alive = m.AliveSeries[n-1]
	}
	energyStdDev := 0.0
	if len(m.EnergySeries) > 1 {
		energyStdDev = stat.StdDev(m.EnergySeries, nil)
	}
	return Summary{
		Protocol:         protocol,
		RoundsComplete:   m.RoundsComplete,
		FirstDeathRound:  m.FirstDeathRound,
		HalfDeathRound:   m.HalfDeathRound,
		NodesAlive:       alive,
		Delivered:        m.Delivered,
		Dropped:          m.Dropped,
		DeliveryRate:     m.DeliveryRate(),
		EnergyConsumed:   m.EnergyConsumed,
		EnergyEfficiency: m.EnergyEfficiency(),
		MeanHops:         m.MeanHops(),
		MeanHeads:        m.MeanHeadsPerRound(),
		EnergyStdDev:     energyStdDev,
	}
}

// Print displays the summary in the manner of a comparison table row block.
func (s Summary) Print() {
	fmt.Printf("=== %s ===\n", s.Protocol)
	fmt.Printf("Rounds completed     : %d\n", s.RoundsComplete)
	fmt.Printf("First node death     : round %d\n", s.FirstDeathRound)
	fmt.Printf("Half network death   : round %d\n", s.HalfDeathRound)
	fmt.Printf("Nodes alive at end   : %d\n", s.NodesAlive)
	fmt.Printf("Packets delivered    : %d\n", s.Delivered)
	fmt.Printf("Packets dropped      : %d\n", s.Dropped)
	fmt.Printf("Delivery rate        : %.4f\n", s.DeliveryRate)
	fmt.Printf("Energy consumed      : %.6f J\n", s.EnergyConsumed)
	fmt.Printf("Energy efficiency    : %.2f packets/J\n", s.EnergyEfficiency)
	fmt.Printf("Mean hops/packet     : %.2f\n", s.MeanHops)
}
