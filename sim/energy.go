package sim

import "math"

// First-order radio model constants, in Joules. The amplifier coefficient
// switches from free-space (d²) to multipath (d⁴) scaling above the
// crossover distance, which is what makes long-range single-hop
// transmission disproportionately expensive and motivates clustering and
// chaining.
const (
	DefaultElecPerBit   = 50e-9      // electronics, J/bit
	DefaultFreeSpaceAmp = 10e-12     // free-space amplifier, J/bit/m²
	DefaultMultipathAmp = 0.0013e-12 // multipath amplifier, J/bit/m⁴
	DefaultAggPerBit    = 5e-9       // data aggregation, J/bit
	DefaultSensePerBit  = 5e-9       // sensing, J/bit
)

// EnergyModel maps (distance, payload size, operation) to energy cost and
// applies depletion to node balances. It is pure apart from Apply's
// mutation of the target node.
type EnergyModel struct {
	ElecPerBit   float64
	FreeSpaceAmp float64
	MultipathAmp float64
	AggPerBit    float64
	SensePerBit  float64

	crossover float64
}

// NewEnergyModel builds a model with the standard first-order radio
// constants.
func NewEnergyModel() *EnergyModel {
	m := &EnergyModel{
		ElecPerBit:   DefaultElecPerBit,
		FreeSpaceAmp: DefaultFreeSpaceAmp,
		MultipathAmp: DefaultMultipathAmp,
		AggPerBit:    DefaultAggPerBit,
		SensePerBit:  DefaultSensePerBit,
	}
	m.crossover = math.Sqrt(m.FreeSpaceAmp / m.MultipathAmp)
	return m
}

// CrossoverDistance is the threshold beyond which the amplifier cost scales
// with d⁴ instead of d².
func (m *EnergyModel) CrossoverDistance() float64 {
	return m.crossover
}

// TransmitCost is electronics plus amplifier cost for sending bits over
// distance d.
func (m *EnergyModel) TransmitCost(bits int, d float64) float64 {
	b := float64(bits)
	if d < m.crossover {
		return m.ElecPerBit*b + m.FreeSpaceAmp*b*d*d
	}
	return m.ElecPerBit*b + m.MultipathAmp*b*d*d*d*d
}

// ReceiveCost is the electronics cost of receiving bits.
func (m *EnergyModel) ReceiveCost(bits int) float64 {
	return m.ElecPerBit * float64(bits)
}

// SenseCost is the cost of sensing bits of data.
func (m *EnergyModel) SenseCost(bits int) float64 {
	return m.SensePerBit * float64(bits)
}

// AggregateCost is the cost of aggregating bits of received data.
func (m *EnergyModel) AggregateCost(bits int) float64 {
	return m.AggPerBit * float64(bits)
}

// Apply depletes cost from the node's balance, clamping at zero. An action
// costing more than the remaining energy kills the node instead of
// decrementing past zero. Death is reported exactly once: applying further
// cost to a dead node is a no-op returning (0, false).
func (m *EnergyModel) Apply(n *Node, cost float64) (float64, bool) {
	if !n.Alive {
		return 0, false
	}
	n.Energy -= cost
	if n.Energy <= 0 {
		n.Energy = 0
		n.Alive = false
		return 0, true
	}
	return n.Energy, false
}
