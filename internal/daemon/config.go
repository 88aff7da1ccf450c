// Package daemon loads and holds the node's runtime configuration.
package daemon

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full node configuration, loaded from a TOML file and
// overridden by CLI flags where the caller passes them explicitly.
type Config struct {
	Network         NetworkConfig         `toml:"network"`
	FailureDetector FailureDetectorConfig `toml:"failure_detector"`
	Directory       DirectoryConfig       `toml:"directory"`
	Status          StatusConfig          `toml:"status"`
	Rooms           RoomsConfig           `toml:"rooms"`
}

// NetworkConfig controls the node's listening endpoints.
type NetworkConfig struct {
	TCPPort       int `toml:"tcp_port"`
	DiscoveryPort int `toml:"discovery_port"`
}

// FailureDetectorConfig controls heartbeat cadence and timeout, in
// seconds (TOML has no native duration type).
type FailureDetectorConfig struct {
	PeriodSeconds  float64 `toml:"period_seconds"`
	TimeoutSeconds float64 `toml:"timeout_seconds"`
}

// Period returns the configured heartbeat period as a time.Duration.
func (f FailureDetectorConfig) Period() time.Duration {
	return time.Duration(f.PeriodSeconds * float64(time.Second))
}

// Timeout returns the configured failure timeout as a time.Duration.
func (f FailureDetectorConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds * float64(time.Second))
}

// DirectoryConfig controls the leader's directory sync cadence.
type DirectoryConfig struct {
	SyncIntervalSeconds float64 `toml:"sync_interval_seconds"`
}

// SyncInterval returns the configured sync interval as a Duration.
func (d DirectoryConfig) SyncInterval() time.Duration {
	return time.Duration(d.SyncIntervalSeconds * float64(time.Second))
}

// StatusConfig controls the introspection HTTP API.
type StatusConfig struct {
	Addr string `toml:"addr"`
}

// RoomsConfig controls how many rooms a freshly started node creates.
type RoomsConfig struct {
	NumRooms int `toml:"num_rooms"`
}

// DefaultConfig returns the configuration a node runs with when no
// TOML file is supplied.
func DefaultConfig() Config {
	return Config{
		Network: NetworkConfig{
			TCPPort:       9000,
			DiscoveryPort: 6000,
		},
		FailureDetector: FailureDetectorConfig{
			PeriodSeconds:  2,
			TimeoutSeconds: 4,
		},
		Directory: DirectoryConfig{
			SyncIntervalSeconds: 10,
		},
		Status: StatusConfig{
			Addr: "127.0.0.1:8080",
		},
		Rooms: RoomsConfig{
			NumRooms: 1,
		},
	}
}

// LoadConfig reads a TOML file at path, applying it on top of
// DefaultConfig so a partial file only overrides what it specifies.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
