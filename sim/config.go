package sim

import "fmt"

// Protocol names accepted by Config.Protocol.
const (
	ProtocolLEACH     = "leach"
	ProtocolDiffusion = "diffusion"
	ProtocolGEAR      = "gear"
	ProtocolPEGASIS   = "pegasis"
)

// ProtocolNames lists the recognized protocol names in comparison order.
var ProtocolNames = []string{ProtocolLEACH, ProtocolDiffusion, ProtocolGEAR, ProtocolPEGASIS}

// LEACHConfig groups LEACH parameters.
type LEACHConfig struct {
	// P is the target fraction of cluster heads per round.
	P float64 `yaml:"p"`
	// ClusterRadius bounds the advertisement broadcast range in meters.
	ClusterRadius float64 `yaml:"cluster_radius"`
}

// DiffusionConfig groups Directed Diffusion parameters.
type DiffusionConfig struct {
	// InterestInterval is the number of rounds between interest floods.
	InterestInterval int `yaml:"interest_interval"`
	// SourceCount is how many nodes match the sink's interest.
	SourceCount int `yaml:"source_count"`
	// GradientTimeout prunes gradient entries unused for this many rounds.
	GradientTimeout int `yaml:"gradient_timeout"`
}

// GEARConfig groups GEAR parameters.
type GEARConfig struct {
	// Alpha weighs distance progress against remaining energy in the
	// forwarding cost: alpha*dist + (1-alpha)*(1/energy).
	Alpha float64 `yaml:"alpha"`
	// Region is the query's geographic target.
	RegionX      float64 `yaml:"region_x"`
	RegionY      float64 `yaml:"region_y"`
	RegionRadius float64 `yaml:"region_radius"`
}

// Config is the full setup of one simulation run. A Config is validated
// before any event is scheduled; invalid combinations fail with a
// ConfigurationError.
type Config struct {
	Protocol string `yaml:"protocol"`

	NodeCount     int     `yaml:"node_count"`
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	BaseX         float64 `yaml:"base_x"`
	BaseY         float64 `yaml:"base_y"`
	InitialEnergy float64 `yaml:"initial_energy"`
	CommRange     float64 `yaml:"comm_range"`

	// PacketBits is the sensed-data payload size, ControlBits the size of
	// protocol control messages (advertisements, joins, interests,
	// reinforcements, queries).
	PacketBits  int `yaml:"packet_bits"`
	ControlBits int `yaml:"control_bits"`

	Seed   int64 `yaml:"seed"`
	Rounds int   `yaml:"rounds"`

	// Positions optionally pins node placement; when empty, nodes are
	// placed uniformly at random from the topology RNG stream.
	Positions []Position `yaml:"positions,omitempty"`

	LEACH     LEACHConfig     `yaml:"leach"`
	Diffusion DiffusionConfig `yaml:"diffusion"`
	GEAR      GEARConfig      `yaml:"gear"`
}

// DefaultConfig returns the standard medium-network setup.
func DefaultConfig() Config {
	return Config{
		Protocol:      ProtocolLEACH,
		NodeCount:     100,
		Width:         100,
		Height:        100,
		BaseX:         50,
		BaseY:         50,
		InitialEnergy: 1.0,
		CommRange:     30,
		PacketBits:    4000,
		ControlBits:   100,
		Seed:          42,
		Rounds:        500,
		LEACH: LEACHConfig{
			P:             0.05,
			ClusterRadius: 30,
		},
		Diffusion: DiffusionConfig{
			InterestInterval: 20,
			SourceCount:      5,
			GradientTimeout:  10,
		},
		GEAR: GEARConfig{
			Alpha:        0.5,
			RegionX:      75,
			RegionY:      75,
			RegionRadius: 15,
		},
	}
}

// Validate checks the configuration, returning a ConfigurationError for the
// first invalid field found.
func (c *Config) Validate() error {
	known := false
	for _, name := range ProtocolNames {
		if c.Protocol == name {
			known = true
			break
		}
	}
	if !known {
		return &ConfigurationError{Field: "protocol", Reason: fmt.Sprintf("unrecognized protocol %q", c.Protocol)}
	}
	if c.NodeCount <= 0 {
		return &ConfigurationError{Field: "node_count", Reason: "must be positive"}
	}
	if c.Width <= 0 || c.Height <= 0 {
		return &ConfigurationError{Field: "area", Reason: "width and height must be positive"}
	}
	if c.InitialEnergy <= 0 {
		return &ConfigurationError{Field: "initial_energy", Reason: "must be positive"}
	}
	if c.CommRange <= 0 {
		return &ConfigurationError{Field: "comm_range", Reason: "must be positive"}
	}
	if c.PacketBits <= 0 {
		return &ConfigurationError{Field: "packet_bits", Reason: "must be positive"}
	}
	if c.ControlBits <= 0 {
		return &ConfigurationError{Field: "control_bits", Reason: "must be positive"}
	}
	if c.Rounds <= 0 {
		return &ConfigurationError{Field: "rounds", Reason: "must be positive"}
	}
	// The base station may sit outside the sensing area (it often does),
	// but not arbitrarily far from it.
	if c.BaseX < -c.Width || c.BaseX > 2*c.Width || c.BaseY < -c.Height || c.BaseY > 2*c.Height {
		return &ConfigurationError{Field: "base_station", Reason: "position outside reasonable bounds of the area"}
	}
	if len(c.Positions) > 0 && len(c.Positions) != c.NodeCount {
		return &ConfigurationError{Field: "positions", Reason: "explicit positions must match node_count"}
	}
	if c.Protocol == ProtocolLEACH {
		if c.LEACH.P <= 0 || c.LEACH.P > 1 {
			return &ConfigurationError{Field: "leach.p", Reason: "must be in (0, 1]"}
		}
		if c.LEACH.ClusterRadius <= 0 {
			return &ConfigurationError{Field: "leach.cluster_radius", Reason: "must be positive"}
		}
	}
	if c.Protocol == ProtocolDiffusion {
		if c.Diffusion.InterestInterval <= 0 {
			return &ConfigurationError{Field: "diffusion.interest_interval", Reason: "must be positive"}
		}
		if c.Diffusion.SourceCount <= 0 {
			return &ConfigurationError{Field: "diffusion.source_count", Reason: "must be positive"}
		}
		if c.Diffusion.GradientTimeout <= 0 {
			return &ConfigurationError{Field: "diffusion.gradient_timeout", Reason: "must be positive"}
		}
	}
	if c.Protocol == ProtocolGEAR {
		if c.GEAR.Alpha < 0 || c.GEAR.Alpha > 1 {
			return &ConfigurationError{Field: "gear.alpha", Reason: "must be in [0, 1]"}
		}
		if c.GEAR.RegionRadius <= 0 {
			return &ConfigurationError{Field: "gear.region_radius", Reason: "must be positive"}
		}
	}
	return nil
}
