package workflow

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/stitch/stitch"
)

// Config holds the process-level configuration: where logs go, which
// kafka servers receive activity, and where the block store lives.
type Config struct {
	Logging stitch.LogConfig   `toml:"logging"`
	Kafka   stitch.KafkaConfig `toml:"kafka"`
	Store   StoreConfig        `toml:"store"`
}

// StoreConfig locates the BadgerDB block store and sizes its in-memory
// cache.  A zero CacheMB disables caching.
type StoreConfig struct {
	Path    string `toml:"path"`
	CacheMB int    `toml:"cache_mb"`
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("no server config file specified")
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file %q: %v", filename, err)
	}
	var c Config
	if _, err := toml.Decode(string(data), &c); err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if c.Store.Path == "" {
		return nil, fmt.Errorf("config file %q must specify a store path", filename)
	}
	return &c, nil
}
