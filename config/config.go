// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime configuration for the gateway process.
// Everything is environment-driven; there are no flags or config files.
type Config struct {
	// ListenPort is the HTTP/websocket listen port of the gateway itself.
	ListenPort int `env:"GATEWAY_LISTEN_PORT" envDefault:"8080"`
	// JobPort is the translation engine's pull port for outbound jobs.
	JobPort int `env:"GATEWAY_JOB_PORT" envDefault:"5555"`
	// ResultPort is the local pull port for inbound translation results.
	ResultPort int `env:"GATEWAY_RESULT_PORT" envDefault:"5558"`
	// EngineHost is the host the translation engine listens on.
	EngineHost string `env:"GATEWAY_ENGINE_HOST" envDefault:"127.0.0.1"`
	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `env:"GATEWAY_LOG_LEVEL" envDefault:"info"`
}

// Load parses the configuration from the process environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	for name, port := range map[string]int{
		"GATEWAY_LISTEN_PORT": c.ListenPort,
		"GATEWAY_JOB_PORT":    c.JobPort,
		"GATEWAY_RESULT_PORT": c.ResultPort,
	} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("%s out of range: %d", name, port)
		}
	}
	if c.EngineHost == "" {
		return fmt.Errorf("GATEWAY_ENGINE_HOST must not be empty")
	}
	return nil
}

// ListenAddr returns the gateway's own listen address.
func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.ListenPort)
}

// EngineAddr returns the engine endpoint jobs are pushed to.
func (c Config) EngineAddr() string {
	return net.JoinHostPort(c.EngineHost, strconv.Itoa(c.JobPort))
}
