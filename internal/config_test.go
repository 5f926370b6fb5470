package internal_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/shooting-game/internal"
)

func TestDefaultConfig(t *testing.T) {
	config := internal.DefaultConfig()

	assert.Equal(t, 12345, config.Server.Port)
	assert.Equal(t, 5*time.Second, config.Game.ItemSpawnInterval)
	assert.Equal(t, 10*time.Second, config.Game.ItemLifetime)
	assert.Equal(t, 100, config.Game.SpawnMin)
	assert.Equal(t, 400, config.Game.SpawnMax)
	assert.False(t, config.Redis.Enabled)
	assert.Equal(t, "info", config.Log.Level)
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	config, err := internal.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, internal.DefaultConfig(), config)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
game:
  item_spawn_interval: 2s
  spawn_min: 50
  spawn_max: 200
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := internal.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, 2*time.Second, config.Game.ItemSpawnInterval)
	assert.Equal(t, 50, config.Game.SpawnMin)
	assert.Equal(t, 200, config.Game.SpawnMax)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)

	// 未覆蓋的欄位保留預設值
	assert.Equal(t, 10*time.Second, config.Game.ItemLifetime)
}

func TestLoadConfig_InvalidSpawnRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
game:
  spawn_min: 400
  spawn_max: 100
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := internal.LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := internal.LoadConfig("/no/such/config.yaml")
	assert.Error(t, err)
}

func TestConfig_Rules(t *testing.T) {
	config := internal.DefaultConfig()
	rules := config.Rules()

	assert.Equal(t, 5*time.Second, rules.ItemSpawnInterval)
	assert.Equal(t, 10*time.Second, rules.ItemLifetime)
	assert.Equal(t, 100, rules.SpawnMin)
	assert.Equal(t, 400, rules.SpawnMax)
}
