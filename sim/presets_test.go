package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresetConfig_KnownNames(t *testing.T) {
	cases := []struct {
		name  string
		nodes int
		width float64
	}{
		{PresetSmall, 30, 50},
		{PresetMedium, 100, 100},
		{PresetLarge, 200, 200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := PresetConfig(tc.name)
			require.NoError(t, err)
			require.Equal(t, tc.nodes, cfg.NodeCount)
			require.Equal(t, tc.width, cfg.Width)
			require.NoError(t, cfg.Validate(), "presets must always validate")
		})
	}
}

func TestPresetConfig_UnknownName(t *testing.T) {
	_, err := PresetConfig("gigantic")
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "preset", cerr.Field)
}

func TestLoadConfigFile_OverlaysOnDefaults(t *testing.T) {
	// GIVEN a partial YAML file
	path := filepath.Join(t.TempDir(), "run.yaml")
	yaml := "protocol: pegasis\nnode_count: 12\nseed: 99\nleach:\n  p: 0.1\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	// WHEN it is overlaid on the default configuration
	cfg := DefaultConfig()
	require.NoError(t, LoadConfigFile(path, &cfg))

	// THEN only the named fields change
	require.Equal(t, ProtocolPEGASIS, cfg.Protocol)
	require.Equal(t, 12, cfg.NodeCount)
	require.Equal(t, int64(99), cfg.Seed)
	require.Equal(t, 0.1, cfg.LEACH.P)
	require.Equal(t, 100.0, cfg.Width, "untouched field keeps its default")
}

func TestLoadConfigFile_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("node_cuont: 12\n"), 0o644))

	cfg := DefaultConfig()
	err := LoadConfigFile(path, &cfg)
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "config_file", cerr.Field)
}

func TestLoadConfigFile_MissingFile(t *testing.T) {
	cfg := DefaultConfig()
	err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"), &cfg)
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
}
