package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the application
type Config struct {
	GraphFile   string  `koanf:"graph"`
	WebMode     bool    `koanf:"web"`
	Port        int     `koanf:"port"`
	Watch       bool    `koanf:"watch"`
	OpenBrowser bool    `koanf:"open"`
	Verbosity   string  `koanf:"verbosity"`
	VerboseCnt  int     `koanf:"verbose"`
	History     History `koanf:"history"`
	Layout      Layout  `koanf:"layout"`
}

// History configures the undo/redo stack
type History struct {
	Depth int `koanf:"depth"`
}

// Layout configures auto-layout spacing
type Layout struct {
	HSpacing float64 `koanf:"hspacing"`
	VSpacing float64 `koanf:"vspacing"`
	Margin   float64 `koanf:"margin"`
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"graph":           "workgraph.json",
		"web":             false,
		"port":            8080,
		"watch":           false,
		"open":            true,
		"verbosity":       "",
		"verbose":         0,
		"history.depth":   50,
		"layout.hspacing": 200.0,
		"layout.vspacing": 120.0,
		"layout.margin":   80.0,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (optional) - workgraph.toml
	// Errors are ignored, the file might not exist
	_ = k.Load(file.Provider("workgraph.toml"), toml.Parser())

	// 3. Environment variables, prefix WORKGRAPH_ (e.g. WORKGRAPH_PORT=9090,
	// WORKGRAPH_HISTORY_DEPTH=100)
	if err := k.Load(env.Provider("WORKGRAPH_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "WORKGRAPH_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
