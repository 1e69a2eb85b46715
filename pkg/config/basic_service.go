package config

import "slices"

// BasicService is the common part of listening node services (RPC,
// Prometheus, Pprof).
type BasicService struct {
	Enabled bool `yaml:"Enabled"`
	// Addresses are "host:port" pairs, port 0 picks a free one.
	Addresses []string `yaml:"Addresses"`
}

// GetAddresses returns Addresses without repeated entries, keeping the
// first occurrence order.
func (s BasicService) GetAddresses() []string {
	res := make([]string, 0, len(s.Addresses))
	for _, a := range s.Addresses {
		if !slices.Contains(res, a) {
			res = append(res, a)
		}
	}
	return res
}
