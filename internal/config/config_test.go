package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Test loading default config when file doesn't exist
	t.Run("LoadDefaultWhenMissing", func(t *testing.T) {
		config, err := LoadConfig("nonexistent.yaml")
		require.NoError(t, err)
		require.NotNil(t, config)

		assert.Equal(t, 12, config.Server.MaxPlayersPerRoom)
		assert.Equal(t, 3, config.Game.DefaultRounds)
		assert.Equal(t, 60, config.Game.RoundSeconds)
		assert.Equal(t, 5*time.Second, config.Game.RoundEndDelay)
		assert.Equal(t, 24*time.Hour, config.Server.RoomMaxAge)
	})

	// Test loading from YAML file
	t.Run("LoadFromYAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yaml")

		yamlContent := `
server:
  maxPlayersPerRoom: 6
  roomCodeLength: 4
  roomMaxAge: 12h
  emptyRoomGrace: 10s

game:
  defaultRounds: 5
  roundSeconds: 90
  roundEndDelay: 3s
  baseAward: 50
  timeBonusFactor: 1.5
  drawerBonus: 20
`
		require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

		config, err := LoadConfig(configPath)
		require.NoError(t, err)

		assert.Equal(t, 6, config.Server.MaxPlayersPerRoom)
		assert.Equal(t, 4, config.Server.RoomCodeLength)
		assert.Equal(t, 12*time.Hour, config.Server.RoomMaxAge)
		assert.Equal(t, 10*time.Second, config.Server.EmptyRoomGrace)
		assert.Equal(t, 5, config.Game.DefaultRounds)
		assert.Equal(t, 90, config.Game.RoundSeconds)
		assert.Equal(t, 3*time.Second, config.Game.RoundEndDelay)
		assert.Equal(t, 50, config.Game.BaseAward)
		assert.InDelta(t, 1.5, config.Game.TimeBonusFactor, 0.0001)
		assert.Equal(t, 20, config.Game.DrawerBonus)

		// Untouched keys keep their defaults
		assert.Equal(t, 15, config.Game.SelectionSeconds)
	})

	t.Run("EnvironmentOverridesFile", func(t *testing.T) {
		t.Setenv("PORT", "9999")
		t.Setenv("LOG_LEVEL", "debug")

		config, err := LoadConfig("nonexistent.yaml")
		require.NoError(t, err)

		assert.Equal(t, "9999", config.Server.Port)
		assert.Equal(t, "debug", config.Server.LogLevel)
	})

	t.Run("InvalidYAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "broken.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0644))

		_, err := LoadConfig(configPath)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ServerConfig)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *ServerConfig) {},
		},
		{
			name:    "missing port",
			mutate:  func(c *ServerConfig) { c.Server.Port = "" },
			wantErr: true,
		},
		{
			name: "metrics without port",
			mutate: func(c *ServerConfig) {
				c.Server.EnableMetrics = true
				c.Server.MetricsPort = ""
			},
			wantErr: true,
		},
		{
			name:    "min players below two",
			mutate:  func(c *ServerConfig) { c.Game.MinPlayers = 1 },
			wantErr: true,
		},
		{
			name:    "negative drawer bonus",
			mutate:  func(c *ServerConfig) { c.Game.DrawerBonus = -1 },
			wantErr: true,
		},
		{
			name:    "zero round seconds",
			mutate:  func(c *ServerConfig) { c.Game.RoundSeconds = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateClampsDefaultRounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Game.DefaultRounds = 50
	cfg.Game.MaxRounds = 8

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8, cfg.Game.DefaultRounds)

	cfg.Game.DefaultRounds = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Game.DefaultRounds)
}
