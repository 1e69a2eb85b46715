package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// UserAgentFormat is a formatted string used to generate user agent string.
	UserAgentFormat = "/fracnft:%s/"
	// DefaultConfigPath is the default path to the config directory.
	DefaultConfigPath = "./config"
	// DevNet is the name of the development network configuration.
	DevNet = "devnet"
	// UnitTestNet is the name of the configuration used in tests.
	UnitTestNet = "unit_testnet"
)

// Version is the version of the node, set at the build time.
var Version string

// Config top level struct representing the config
// for the node.
type Config struct {
	ProtocolConfiguration    ProtocolConfiguration    `yaml:"ProtocolConfiguration"`
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// GenerateUserAgent creates a user agent string based on the build time environment.
func (c Config) GenerateUserAgent() string {
	return fmt.Sprintf(UserAgentFormat, Version)
}

// Validate checks the whole configuration for internal consistency.
func (c Config) Validate() error {
	if err := c.ProtocolConfiguration.Validate(); err != nil {
		return fmt.Errorf("invalid ProtocolConfiguration: %w", err)
	}
	if err := c.ApplicationConfiguration.Validate(); err != nil {
		return fmt.Errorf("invalid ApplicationConfiguration: %w", err)
	}
	return nil
}

// Load attempts to load the config from the given
// path for the given network name.
func Load(path string, net string) (Config, error) {
	configPath := filepath.Join(path, fmt.Sprintf("protocol.%s.yml", net))
	return LoadFile(configPath)
}

// LoadFile loads config from the provided path.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	config := Config{
		ProtocolConfiguration: ProtocolConfiguration{
			ChainID:  DefaultChainID,
			Accounts: DefaultAccounts,
		},
		ApplicationConfiguration: ApplicationConfiguration{
			ExecResultCacheSize: DefaultExecResultCacheSize,
			RPC: RPC{
				MaxWebSocketClients: DefaultMaxWebSocketClients,
				MaxRequestBodyBytes: DefaultMaxRequestBodyBytes,
			},
		},
	}
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err = decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// Blockchain is a set of settings for core.Blockchain to use, it includes
// protocol settings and local node-specific ones.
type Blockchain struct {
	ProtocolConfiguration
	// ExecResultCacheSize is the number of recent execution results
	// kept in memory.
	ExecResultCacheSize int
}

// Blockchain generates a Blockchain configuration based on Protocol and
// Application settings.
func (c Config) Blockchain() Blockchain {
	return Blockchain{
		ProtocolConfiguration: c.ProtocolConfiguration,
		ExecResultCacheSize:   c.ApplicationConfiguration.ExecResultCacheSize,
	}
}
