package main

import (
	"errors"
	"fmt"
	"strings"

	"dashcore.dev/core/consensus"
	"dashcore.dev/core/network"
)

type Config struct {
	Network     string `json:"network"`
	LogLevel    string `json:"log_level"`
	MaxElements uint64 `json:"max_elements"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultConfig() Config {
	return Config{
		Network:     network.MainNetParams.Name,
		LogLevel:    "info",
		MaxElements: consensus.MAX_SEQUENCE_ELEMENTS,
	}
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Network) == "" {
		return errors.New("network is required")
	}
	if _, err := network.ByName(cfg.Network); err != nil {
		return err
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.MaxElements == 0 {
		return errors.New("max_elements must be > 0")
	}
	if cfg.MaxElements > consensus.MAX_SEQUENCE_ELEMENTS {
		return fmt.Errorf("max_elements must be <= %d", consensus.MAX_SEQUENCE_ELEMENTS)
	}
	return nil
}

// Params resolves the configured network. The config must have been
// validated.
func (c Config) Params() *network.Params {
	p, err := network.ByName(c.Network)
	if err != nil {
		return &network.MainNetParams
	}
	return p
}

// Limits returns the decode limits with the configured element cap.
func (c Config) Limits() consensus.DecodeLimits {
	l := consensus.DefaultDecodeLimits()
	l.MaxElements = c.MaxElements
	return l
}
