package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wsn-sim/wsn-sim/sim"
)

var (
	// CLI flags mirroring sim.Config.
	protocol      string  // Routing protocol to simulate
	preset        string  // Named network preset (small/medium/large)
	configFile    string  // YAML configuration overlay
	logLevel      string  // Log verbosity level
	nodeCount     int     // Number of sensor nodes
	width         float64 // Width of the sensing area in meters
	height        float64 // Height of the sensing area in meters
	baseX         float64 // Base station x position
	baseY         float64 // Base station y position
	initialEnergy float64 // Initial energy per node in Joules
	commRange     float64 // Radio range in meters
	packetBits    int     // Sensed-data payload size in bits
	seed          int64   // Master random seed
	rounds        int     // Simulation horizon in rounds
	leachP        float64 // LEACH target cluster-head fraction
	csvDir        string  // Directory for CSV export (empty = no export)
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "wsn-sim",
	Short: "Discrete-event simulator for energy-aware WSN routing protocols",
}

// buildConfig assembles the run configuration: preset, then YAML overlay,
// then explicit flags.
func buildConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if preset != "" {
		c, err := sim.PresetConfig(preset)
		if err != nil {
			return sim.Config{}, err
		}
		cfg = c
	}
	if configFile != "" {
		if err := sim.LoadConfigFile(configFile, &cfg); err != nil {
			return sim.Config{}, err
		}
	}
	set := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	set("protocol", func() { cfg.Protocol = protocol })
	set("nodes", func() { cfg.NodeCount = nodeCount })
	set("width", func() { cfg.Width = width })
	set("height", func() { cfg.Height = height })
	set("base-x", func() { cfg.BaseX = baseX })
	set("base-y", func() { cfg.BaseY = baseY })
	set("energy", func() { cfg.InitialEnergy = initialEnergy })
	set("range", func() { cfg.CommRange = commRange })
	set("packet-bits", func() { cfg.PacketBits = packetBits })
	set("seed", func() { cfg.Seed = seed })
	set("rounds", func() { cfg.Rounds = rounds })
	set("leach-p", func() { cfg.LEACH.P = leachP })
	return cfg, nil
}

// runCmd executes one simulation using parameters from CLI flags.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one routing-protocol simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := buildConfig(cmd)
		if err != nil {
			logrus.Fatalf("Configuration error: %v", err)
		}
		s, err := sim.NewSimulator(cfg)
		if err != nil {
			logrus.Fatalf("Configuration error: %v", err)
		}

		logrus.Infof("Starting %s: %d nodes, %d rounds, seed %d",
			cfg.Protocol, cfg.NodeCount, cfg.Rounds, cfg.Seed)
		s.Run()
		s.Summary().Print()

		if csvDir != "" {
			runID, err := s.ExportCSV(csvDir)
			if err != nil {
				logrus.Fatalf("CSV export failed: %v", err)
			}
			logrus.Infof("Results exported to %s (run %s)", csvDir, runID)
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, compareCmd} {
		c.Flags().StringVar(&preset, "preset", "", "Named network preset: small, medium, large")
		c.Flags().StringVar(&configFile, "config", "", "YAML configuration overlay file")
		c.Flags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
		c.Flags().IntVar(&nodeCount, "nodes", 100, "Number of sensor nodes")
		c.Flags().Float64Var(&width, "width", 100, "Sensing area width in meters")
		c.Flags().Float64Var(&height, "height", 100, "Sensing area height in meters")
		c.Flags().Float64Var(&baseX, "base-x", 50, "Base station x position")
		c.Flags().Float64Var(&baseY, "base-y", 50, "Base station y position")
		c.Flags().Float64Var(&initialEnergy, "energy", 1.0, "Initial energy per node in Joules")
		c.Flags().Float64Var(&commRange, "range", 30, "Radio range in meters")
		c.Flags().IntVar(&packetBits, "packet-bits", 4000, "Data payload size in bits")
		c.Flags().Int64Var(&seed, "seed", 42, "Master random seed")
		c.Flags().IntVar(&rounds, "rounds", 500, "Simulation horizon in rounds")
		c.Flags().Float64Var(&leachP, "leach-p", 0.05, "LEACH target cluster-head fraction")
		c.Flags().StringVar(&csvDir, "csv-dir", "", "Directory for CSV result export")
	}
	runCmd.Flags().StringVar(&protocol, "protocol", "leach", "Protocol: leach, diffusion, gear, pegasis")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
