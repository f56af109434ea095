package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveops/hivectl/pkg/storage"
	"github.com/hiveops/hivectl/pkg/types"
)

func validAddConfig() *NodeAddConfig {
	return &NodeAddConfig{
		Namespace:    "solo",
		KeysDir:      "/keys",
		CacheDir:     "/cache",
		ReleaseTag:   "v0.58.0",
		OutputDir:    "/out",
		AdminKeyPath: "/keys/admin.pem",
		Ledger: Ledger{
			OperatorID:      types.AccountID{Num: 2},
			OperatorKeyPath: "/keys/operator.pem",
		},
		EndpointType: types.EndpointTypeFQDN,
		ChartRef:     "charts/network",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NodeAddConfig)
		wantErr bool
	}{
		{"valid", func(c *NodeAddConfig) {}, false},
		{"missing namespace", func(c *NodeAddConfig) { c.Namespace = "" }, true},
		{"missing output dir", func(c *NodeAddConfig) { c.OutputDir = "" }, true},
		{"missing operator key", func(c *NodeAddConfig) { c.OperatorKeyPath = "" }, true},
		{"bad endpoint type", func(c *NodeAddConfig) { c.EndpointType = "DNS" }, true},
		{"negative min stake", func(c *NodeAddConfig) { c.MinStake = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAddConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNodeCommon(t *testing.T) {
	cfg := &NodeStopConfig{NodeCommon: NodeCommon{
		Namespace:   "solo",
		NodeAliases: []string{"node0", "node1"},
		CacheDir:    "/cache",
	}}
	require.NoError(t, Validate(cfg))

	cfg.NodeAliases = nil
	assert.Error(t, Validate(cfg), "at least one alias is required")

	cfg.NodeAliases = []string{"node0", ""}
	assert.Error(t, Validate(cfg), "empty alias is rejected")
}

func TestStagingDir(t *testing.T) {
	c := NodeCommon{CacheDir: "/cache", ReleaseTag: "v0.58.0"}
	assert.Equal(t, filepath.Join("/cache", "v0.58.0", "staging"), c.StagingDir())
}

func TestTrackedUnusedFields(t *testing.T) {
	cfg := &NodeKeysConfig{
		Namespace:          "solo",
		NodeAliases:        []string{"node0"},
		KeysDir:            "/keys",
		GenerateGossipKeys: true,
	}
	tracked := NewTracked(cfg)

	got := tracked.Use("Namespace", "NodeAliases", "KeysDir")
	assert.Same(t, cfg, got)

	assert.Equal(t, []string{"GenerateGossipKeys", "GenerateTLSKeys"}, tracked.UnusedFields())

	tracked.Use("GenerateGossipKeys", "GenerateTLSKeys")
	assert.Empty(t, tracked.UnusedFields())
}

func TestTrackedFlattensEmbeddedFields(t *testing.T) {
	tracked := NewTracked(validAddConfig())
	unused := tracked.UnusedFields()
	assert.Contains(t, unused, "OperatorID", "embedded ledger fields are tracked flat")
	assert.Contains(t, unused, "Namespace")
}

func TestFlagStore(t *testing.T) {
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	flags := NewFlagStore(store)

	_, ok, err := flags.Bool("solo", FlagGenerateGossipKeys)
	require.NoError(t, err)
	assert.False(t, ok, "no checkpoint before SetBool")

	require.NoError(t, flags.SetBool("solo", FlagGenerateGossipKeys, true))

	value, ok, err := flags.Bool("solo", FlagGenerateGossipKeys)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, value)

	// Other namespaces never see the checkpoint.
	_, ok, err = flags.Bool("other", FlagGenerateGossipKeys)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, flags.Clear("solo", FlagGenerateGossipKeys))
	_, ok, err = flags.Bool("solo", FlagGenerateGossipKeys)
	require.NoError(t, err)
	assert.False(t, ok)
}
