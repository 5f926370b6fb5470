package internal

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 行程設定
type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Game struct {
		ItemSpawnInterval time.Duration `yaml:"item_spawn_interval"`
		ItemLifetime      time.Duration `yaml:"item_lifetime"`
		SpawnMin          int           `yaml:"spawn_min"`
		SpawnMax          int           `yaml:"spawn_max"`
	} `yaml:"game"`

	Redis struct {
		Enabled         bool          `yaml:"enabled"`
		Addr            string        `yaml:"addr"`
		Password        string        `yaml:"password"`
		DB              int           `yaml:"db"`
		PublishInterval time.Duration `yaml:"publish_interval"`
	} `yaml:"redis"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// DefaultConfig 預設值：原始玩法的端口與節奏
func DefaultConfig() *Config {
	c := &Config{}
	c.Server.Port = 12345
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 15 * time.Second

	c.Game.ItemSpawnInterval = 5 * time.Second
	c.Game.ItemLifetime = 10 * time.Second
	c.Game.SpawnMin = 100
	c.Game.SpawnMax = 400

	c.Redis.Enabled = false
	c.Redis.Addr = "localhost:6379"
	c.Redis.PublishInterval = 5 * time.Second

	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// LoadConfig 讀取設定檔並覆蓋預設值
//
// path 為空時只用預設值。
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("讀取設定檔失敗: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("解析設定檔失敗: %w", err)
	}

	if config.Game.SpawnMax <= config.Game.SpawnMin {
		return nil, fmt.Errorf("生成範圍無效: [%d, %d]", config.Game.SpawnMin, config.Game.SpawnMax)
	}
	return config, nil
}

// Rules 由設定導出房間玩法參數
func (c *Config) Rules() GameRules {
	return GameRules{
		ItemSpawnInterval: c.Game.ItemSpawnInterval,
		ItemLifetime:      c.Game.ItemLifetime,
		SpawnMin:          c.Game.SpawnMin,
		SpawnMax:          c.Game.SpawnMax,
	}
}
