// Package config loads and validates the daemon's TOML configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the resolved daemon configuration.
type Config struct {
	Endpoint1Addr string `toml:"endpoint1_addr"`
	Endpoint2Addr string `toml:"endpoint2_addr"`
	OutputPath    string `toml:"output_path"`
	// AdminAddr enables the local status listener when non-empty.
	AdminAddr string `toml:"admin_addr"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Endpoint1Addr: "95.163.237.76:5123",
		Endpoint2Addr: "95.163.237.76:5124",
		OutputPath:    "sensor_data.txt",
	}
}

// Load reads a TOML config file, fills defaults, and validates it.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	def := Default()
	if cfg.Endpoint1Addr == "" {
		cfg.Endpoint1Addr = def.Endpoint1Addr
	}
	if cfg.Endpoint2Addr == "" {
		cfg.Endpoint2Addr = def.Endpoint2Addr
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = def.OutputPath
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the supervisor cannot start with.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Endpoint1Addr) == "" {
		return fmt.Errorf("config missing endpoint1_addr")
	}
	if strings.TrimSpace(cfg.Endpoint2Addr) == "" {
		return fmt.Errorf("config missing endpoint2_addr")
	}
	if cfg.Endpoint1Addr == cfg.Endpoint2Addr {
		return fmt.Errorf("endpoint addresses must differ: %s", cfg.Endpoint1Addr)
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return fmt.Errorf("config missing output_path")
	}
	return nil
}
