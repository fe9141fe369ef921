// Package config holds the server's runtime configuration and its
// command-line loader.
package config

import (
	"github.com/spf13/pflag"
)

// Config is the full set of tunables for the aesdsocketd server.
type Config struct {
	// Port is the TCP port the server listens on.
	Port int
	// RingCapacity is N, the number of command slots retained in history.
	RingCapacity int
	// ChunkSize is the maximum bytes read per transport receive call.
	ChunkSize int
	// Daemonize requests the -d detached-daemon startup behavior.
	Daemonize bool
	// Verbose raises the log level to debug.
	Verbose bool
}

// DefaultConfig returns the config with the server's default constants.
func DefaultConfig() *Config {
	return &Config{
		Port:         9000,
		RingCapacity: 10,
		ChunkSize:    1024,
		Daemonize:    false,
		Verbose:      false,
	}
}

// ParseFlags parses args (typically os.Args[1:]) into a Config seeded
// with DefaultConfig().
func ParseFlags(args []string) (*Config, error) {
	cfg := DefaultConfig()

	fs := pflag.NewFlagSet("aesdsocketd", pflag.ContinueOnError)
	fs.BoolVarP(&cfg.Daemonize, "daemon", "d", cfg.Daemonize, "run as a detached daemon")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "TCP listen port")
	fs.IntVar(&cfg.RingCapacity, "ring-capacity", cfg.RingCapacity, "number of command history slots")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "maximum bytes read per transport receive call")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable debug-level logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return cfg, nil
}
