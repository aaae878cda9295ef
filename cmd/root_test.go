package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wsn-sim/wsn-sim/sim"
)

// resetConfigFlags restores every run flag to its default and clears the
// Changed markers so precedence tests start from a clean slate.
func resetConfigFlags(t *testing.T) {
	t.Helper()
	names := []string{
		"protocol", "preset", "config", "log-level", "nodes", "width", "height",
		"base-x", "base-y", "energy", "range", "packet-bits", "seed", "rounds",
		"leach-p", "csv-dir",
	}
	flags := runCmd.Flags()
	for _, name := range names {
		f := flags.Lookup(name)
		require.NotNil(t, f, "flag %s not registered", name)
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}
}

func TestBuildConfig_DefaultsMatchSimDefaults(t *testing.T) {
	resetConfigFlags(t)
	cfg, err := buildConfig(runCmd)
	require.NoError(t, err)
	require.Equal(t, sim.DefaultConfig(), cfg)
}

func TestBuildConfig_FlagsOverrideDefaults(t *testing.T) {
	resetConfigFlags(t)
	require.NoError(t, runCmd.Flags().Set("protocol", "pegasis"))
	require.NoError(t, runCmd.Flags().Set("nodes", "17"))
	require.NoError(t, runCmd.Flags().Set("leach-p", "0.2"))

	cfg, err := buildConfig(runCmd)
	require.NoError(t, err)
	require.Equal(t, sim.ProtocolPEGASIS, cfg.Protocol)
	require.Equal(t, 17, cfg.NodeCount)
	require.Equal(t, 0.2, cfg.LEACH.P)
	require.Equal(t, 100.0, cfg.Width, "untouched flags keep config defaults")
}

func TestBuildConfig_PresetThenFlagPrecedence(t *testing.T) {
	resetConfigFlags(t)
	require.NoError(t, runCmd.Flags().Set("preset", "small"))
	require.NoError(t, runCmd.Flags().Set("nodes", "17"))

	cfg, err := buildConfig(runCmd)
	require.NoError(t, err)
	require.Equal(t, 17, cfg.NodeCount, "explicit flag beats preset")
	require.Equal(t, 50.0, cfg.Width, "preset fields stay where no flag is set")
	require.Equal(t, 20.0, cfg.CommRange)
}

func TestBuildConfig_YAMLBetweenPresetAndFlags(t *testing.T) {
	resetConfigFlags(t)
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("node_count: 12\nseed: 99\n"), 0o644))

	require.NoError(t, runCmd.Flags().Set("preset", "small"))
	require.NoError(t, runCmd.Flags().Set("config", path))
	require.NoError(t, runCmd.Flags().Set("nodes", "17"))

	cfg, err := buildConfig(runCmd)
	require.NoError(t, err)
	require.Equal(t, 17, cfg.NodeCount, "flag beats YAML beats preset")
	require.Equal(t, int64(99), cfg.Seed, "YAML beats preset defaults")
	require.Equal(t, 50.0, cfg.Width)
}

func TestBuildConfig_UnknownPresetFails(t *testing.T) {
	resetConfigFlags(t)
	require.NoError(t, runCmd.Flags().Set("preset", "galactic"))
	_, err := buildConfig(runCmd)
	require.Error(t, err)
}
