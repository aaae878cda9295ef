package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wsn-sim/wsn-sim/sim"
)

// compareCmd runs all four protocols on an identical configuration and
// seed and prints a comparison table.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run all protocols on the same network and compare results",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		baseCfg, err := buildConfig(cmd)
		if err != nil {
			logrus.Fatalf("Configuration error: %v", err)
		}

		summaries := make([]sim.Summary, 0, len(sim.ProtocolNames))
		for _, name := range sim.ProtocolNames {
			cfg := baseCfg
			cfg.Protocol = name
			s, err := sim.NewSimulator(cfg)
			if err != nil {
				logrus.Fatalf("Configuration error: %v", err)
			}
			logrus.Infof("Running %s...", name)
			s.Run()
			summary := s.Summary()
			summaries = append(summaries, summary)

			if csvDir != "" {
				if _, err := s.ExportCSV(csvDir); err != nil {
					logrus.Fatalf("CSV export failed: %v", err)
				}
			}
		}
		printComparison(summaries)
	},
}

// printComparison renders the comparison table and the per-metric winners.
func printComparison(summaries []sim.Summary) {
	fmt.Println("Protocol Performance Summary")
	fmt.Println("----------------------------")
	fmt.Printf("%-11s %9s %9s %10s %9s %9s %11s %12s\n",
		"protocol", "firstDead", "halfDead", "rounds", "delivered", "dropped", "delivRate", "packets/J")
	for _, s := range summaries {
		fmt.Printf("%-11s %9d %9d %10d %9d %9d %11.4f %12.2f\n",
			s.Protocol, s.FirstDeathRound, s.HalfDeathRound, s.RoundsComplete,
			s.Delivered, s.Dropped, s.DeliveryRate, s.EnergyEfficiency)
	}

	best := func(pick func(a, b sim.Summary) bool) string {
		w := summaries[0]
		for _, s := range summaries[1:] {
			if pick(s, w) {
				w = s
			}
		}
		return w.Protocol
	}
	// A first-death round of -1 means no node ever died.
	deathRank := func(r int) int {
		if r < 0 {
			return int(^uint(0) >> 1)
		}
		return r
	}
	fmt.Println("\nBest protocols:")
	fmt.Printf("  Time to first node death : %s\n", best(func(a, b sim.Summary) bool {
		return deathRank(a.FirstDeathRound) > deathRank(b.FirstDeathRound)
	}))
	fmt.Printf("  Packets delivered        : %s\n", best(func(a, b sim.Summary) bool {
		return a.Delivered > b.Delivered
	}))
	fmt.Printf("  Energy efficiency        : %s\n", best(func(a, b sim.Summary) bool {
		return a.EnergyEfficiency > b.EnergyEfficiency
	}))
	fmt.Printf("  Energy conservation      : %s\n", best(func(a, b sim.Summary) bool {
		return a.EnergyConsumed < b.EnergyConsumed
	}))
}
