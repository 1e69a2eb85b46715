package config

import (
	"fmt"

	"github.com/fracnft/fracnft/pkg/core/storage/dbconfig"
)

// DefaultExecResultCacheSize is the default number of execution results
// kept in memory.
const DefaultExecResultCacheSize = 1024

// ApplicationConfiguration config specific to the node.
type ApplicationConfiguration struct {
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`

	LogLevel    string `yaml:"LogLevel"`
	LogPath     string `yaml:"LogPath"`
	LogEncoding string `yaml:"LogEncoding"`

	Pprof      BasicService `yaml:"Pprof"`
	Prometheus BasicService `yaml:"Prometheus"`
	RPC        RPC          `yaml:"RPC"`

	// ExecResultCacheSize is the number of recent transaction execution
	// results served from memory.
	ExecResultCacheSize int `yaml:"ExecResultCacheSize"`
}

// Validate checks ApplicationConfiguration for internal consistency and returns
// an error if any invalid settings are found.
func (a *ApplicationConfiguration) Validate() error {
	if err := a.DBConfiguration.Validate(); err != nil {
		return fmt.Errorf("invalid DBConfiguration: %w", err)
	}
	if a.LogEncoding != "" && a.LogEncoding != "console" && a.LogEncoding != "json" {
		return fmt.Errorf("invalid LogEncoding: %s", a.LogEncoding)
	}
	if a.ExecResultCacheSize <= 0 {
		return fmt.Errorf("ExecResultCacheSize must be positive: %d", a.ExecResultCacheSize)
	}
	if err := a.RPC.Validate(); err != nil {
		return fmt.Errorf("invalid RPC config: %w", err)
	}
	return nil
}
