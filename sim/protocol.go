package sim

import "fmt"

// Protocol is the common contract of the four routing engines. The set is
// closed: dispatch goes through this interface plus the NewProtocol
// constructor switch, never open-ended registration.
//
// Engines consume scheduler ticks and the topology/energy services of their
// run, mutate node roles, and emit delivery/energy outcomes through the
// simulator. All engine state is single-owner per run.
type Protocol interface {
	// Name returns the canonical protocol name.
	Name() string

	// Setup initializes protocol structures before round zero (chain
	// construction, source selection). It may schedule events.
	Setup(s *Simulator)

	// OnRoundStart runs the per-round control phase and schedules the
	// round's protocol events.
	OnRoundStart(s *Simulator, round int)

	// OnEvent handles one protocol event popped from the scheduler.
	OnEvent(s *Simulator, ev *Event)

	// IsTerminal reports whether the run should stop before the horizon
	// (typically: no node left alive).
	IsTerminal(s *Simulator) bool
}

// NewProtocol constructs the engine named by the configuration. The config
// must already be validated.
func NewProtocol(cfg *Config) (Protocol, error) {
	switch cfg.Protocol {
	case ProtocolLEACH:
		return newLEACH(cfg), nil
	case ProtocolDiffusion:
		return newDiffusion(cfg), nil
	case ProtocolGEAR:
		return newGEAR(cfg), nil
	case ProtocolPEGASIS:
		return newPEGASIS(cfg), nil
	}
	return nil, &ConfigurationError{
		Field:  "protocol",
		Reason: fmt.Sprintf("unrecognized protocol %q", cfg.Protocol),
	}
}
