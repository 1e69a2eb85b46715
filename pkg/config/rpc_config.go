package config

import (
	"fmt"
)

// RPC defaults.
const (
	DefaultMaxWebSocketClients = 64
	DefaultMaxRequestBodyBytes = 5 * 1024 * 1024
)

// RPC is an RPC service configuration information.
type RPC struct {
	BasicService         `yaml:",inline"`
	EnableCORSWorkaround bool `yaml:"EnableCORSWorkaround"`
	MaxRequestBodyBytes  int  `yaml:"MaxRequestBodyBytes"`
	MaxWebSocketClients  int  `yaml:"MaxWebSocketClients"`
	// MaxWebSocketFeeds limits the number of subscriptions per client,
	// zero means no limit.
	MaxWebSocketFeeds int `yaml:"MaxWebSocketFeeds"`
}

// Validate checks RPC for internal consistency. It returns an error if the
// configuration is invalid.
func (cfg *RPC) Validate() error {
	if cfg.MaxWebSocketClients < 0 {
		return fmt.Errorf("negative MaxWebSocketClients: %d", cfg.MaxWebSocketClients)
	}
	if cfg.MaxRequestBodyBytes < 0 {
		return fmt.Errorf("negative MaxRequestBodyBytes: %d", cfg.MaxRequestBodyBytes)
	}
	if cfg.MaxWebSocketFeeds < 0 {
		return fmt.Errorf("negative MaxWebSocketFeeds: %d", cfg.MaxWebSocketFeeds)
	}
	if cfg.Enabled && len(cfg.Addresses) == 0 {
		return fmt.Errorf("RPC is enabled, but no Addresses specified")
	}
	return nil
}
