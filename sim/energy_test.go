package sim

import (
	"math"
	"testing"
)

func TestEnergyModel_TransmitCost_CrossoverScaling(t *testing.T) {
	m := NewEnergyModel()
	d0 := m.CrossoverDistance()
	bits := 1000

	// GIVEN a distance below the crossover
	// THEN the amplifier term scales with d²
	d := d0 / 2
	want := m.ElecPerBit*1000 + m.FreeSpaceAmp*1000*d*d
	if got := m.TransmitCost(bits, d); math.Abs(got-want) > 1e-18 {
		t.Errorf("below crossover: got %g, want %g", got, want)
	}

	// GIVEN a distance above the crossover
	// THEN the amplifier term scales with d⁴
	d = d0 * 2
	want = m.ElecPerBit*1000 + m.MultipathAmp*1000*d*d*d*d
	if got := m.TransmitCost(bits, d); math.Abs(got-want) > 1e-18 {
		t.Errorf("above crossover: got %g, want %g", got, want)
	}
}

func TestEnergyModel_LongRangeDisproportionatelyExpensive(t *testing.T) {
	// Doubling the distance across the crossover should cost far more than
	// 4x the amplifier energy; this asymmetry is what clustering exploits.
	m := NewEnergyModel()
	d0 := m.CrossoverDistance()
	short := m.TransmitCost(4000, d0*0.9)
	long := m.TransmitCost(4000, d0*1.8)
	if long < short*2 {
		t.Errorf("multipath penalty too small: short=%g long=%g", short, long)
	}
}

func TestEnergyModel_Apply_ClampsAndKillsOnce(t *testing.T) {
	// GIVEN a node with less energy than the cost of an action
	m := NewEnergyModel()
	n := &Node{ID: 0, Energy: 1e-6, Alive: true}

	// WHEN the cost is applied
	balance, died := m.Apply(n, 5e-6)

	// THEN the balance clamps at zero and death is reported
	if balance != 0 || !died {
		t.Fatalf("Apply: got (%g, %v), want (0, true)", balance, died)
	}
	if n.Alive || n.Energy != 0 {
		t.Errorf("node state: alive=%v energy=%g, want dead with zero energy", n.Alive, n.Energy)
	}

	// AND applying again reports death exactly once
	balance, died = m.Apply(n, 1e-6)
	if balance != 0 || died {
		t.Errorf("second Apply: got (%g, %v), want (0, false)", balance, died)
	}
}

func TestEnergyModel_Apply_NormalDepletion(t *testing.T) {
	// GIVEN a node with ample energy
	m := NewEnergyModel()
	n := &Node{ID: 0, Energy: 1.0, Alive: true}

	// WHEN a survivable cost is applied
	balance, died := m.Apply(n, 0.25)

	// THEN the balance decreases and the node lives
	if died {
		t.Fatal("Apply: node died on survivable cost")
	}
	if math.Abs(balance-0.75) > 1e-12 {
		t.Errorf("balance: got %g, want 0.75", balance)
	}
}

func TestEnergyModel_ReceiveSenseAggregateCosts(t *testing.T) {
	m := NewEnergyModel()
	if got, want := m.ReceiveCost(2000), m.ElecPerBit*2000; got != want {
		t.Errorf("ReceiveCost: got %g, want %g", got, want)
	}
	if got, want := m.SenseCost(2000), m.SensePerBit*2000; got != want {
		t.Errorf("SenseCost: got %g, want %g", got, want)
	}
	if got, want := m.AggregateCost(2000), m.AggPerBit*2000; got != want {
		t.Errorf("AggregateCost: got %g, want %g", got, want)
	}
}
