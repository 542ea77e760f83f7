// Package config loads the YAML-backed configuration for the login and
// channel servers.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoginServer holds all configuration for the login server.
type LoginServer struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	LoginPort   int    `yaml:"login_port"`

	// Character store
	CharacterStoreConnection string `yaml:"character_store_connection"`

	// Migration tickets
	MigrationTicketTTL time.Duration `yaml:"migration_ticket_ttl"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error (default: info)

	// Accounts
	AutoCreateAccounts bool `yaml:"auto_create_accounts"`
	AllowGuestAccounts bool `yaml:"allow_guest_accounts"`

	// Flood protection
	FloodProtection       bool `yaml:"flood_protection"`
	FastConnectionLimit   int  `yaml:"fast_connection_limit"`
	NormalConnectionTime  int  `yaml:"normal_connection_time"` // ms
	FastConnectionTime    int  `yaml:"fast_connection_time"`   // ms
	MaxConnectionPerIP    int  `yaml:"max_connection_per_ip"`
}

// ChannelServer holds all configuration for one channel server process.
type ChannelServer struct {
	// Network
	BindAddress      string `yaml:"bind_address"`
	ChannelPortStart int    `yaml:"channel_port_start"`
	Channels         int    `yaml:"channels"`

	// Character store
	CharacterStoreConnection string `yaml:"character_store_connection"`

	// Tick scheduler
	TickIntervalMs int `yaml:"tick_interval_ms"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// DefaultLoginServer returns LoginServer config with sensible defaults,
// matching the configuration surface spec.md §6 names.
func DefaultLoginServer() LoginServer {
	return LoginServer{
		BindAddress:           "0.0.0.0",
		LoginPort:             8484,
		MigrationTicketTTL:    30 * time.Second,
		LogLevel:              "info",
		AutoCreateAccounts:    true,
		AllowGuestAccounts:    true,
		FloodProtection:       true,
		FastConnectionLimit:   15,
		NormalConnectionTime:  700,
		FastConnectionTime:    350,
		MaxConnectionPerIP:    50,
	}
}

// DefaultChannelServer returns ChannelServer config with sensible
// defaults, matching the configuration surface spec.md §6 names.
func DefaultChannelServer() ChannelServer {
	return ChannelServer{
		BindAddress:      "0.0.0.0",
		ChannelPortStart: 8485,
		Channels:         2,
		TickIntervalMs:   50,
		LogLevel:         "info",
	}
}

// LoadLoginServer loads login server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadLoginServer(path string) (LoginServer, error) {
	cfg := DefaultLoginServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadChannelServer loads channel server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadChannelServer(path string) (ChannelServer, error) {
	cfg := DefaultChannelServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
