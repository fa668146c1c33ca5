package app

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Client protocols spoken on the listening socket.
const (
	ProtocolGridConnect = "gridconnect"
	ProtocolSLCAN       = "slcan"
)

// Config collects runtime settings for the bridge.
type Config struct {
	ListenAddress   string
	ClientProtocol  string
	AdapterAddress  string
	ReconnectDelay  time.Duration
	LogLevel        string
	MaxPendingBytes int
	MetricsAddress  string
	// Echo relays frames from one client to every other client.
	Echo bool
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		ListenAddress:   "0.0.0.0:5550",
		ClientProtocol:  ProtocolGridConnect,
		ReconnectDelay:  2 * time.Second,
		LogLevel:        "info",
		MaxPendingBytes: 4096,
		Echo:            true,
	}
}

type fileConfig struct {
	ListenAddress   string `toml:"listen_address"`
	ClientProtocol  string `toml:"client_protocol"`
	AdapterAddress  string `toml:"adapter_address"`
	ReconnectDelay  string `toml:"reconnect_delay"`
	LogLevel        string `toml:"log_level"`
	MaxPendingBytes int    `toml:"max_pending_bytes"`
	MetricsAddress  string `toml:"metrics_address"`
	Echo            bool   `toml:"echo"`
}

// LoadConfig overlays the keys present in a TOML file onto DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load bridge config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load bridge config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("listen_address") {
		cfg.ListenAddress = strings.TrimSpace(raw.ListenAddress)
	}

	if meta.IsDefined("client_protocol") {
		cfg.ClientProtocol = strings.ToLower(strings.TrimSpace(raw.ClientProtocol))
	}

	if meta.IsDefined("adapter_address") {
		cfg.AdapterAddress = strings.TrimSpace(raw.AdapterAddress)
	}

	if meta.IsDefined("reconnect_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReconnectDelay))
		if err != nil {
			return Config{}, fmt.Errorf("parse reconnect_delay: %w", err)
		}
		cfg.ReconnectDelay = d
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("max_pending_bytes") {
		cfg.MaxPendingBytes = raw.MaxPendingBytes
	}

	if meta.IsDefined("metrics_address") {
		cfg.MetricsAddress = strings.TrimSpace(raw.MetricsAddress)
	}

	if meta.IsDefined("echo") {
		cfg.Echo = raw.Echo
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every setting the bridge cannot run with.
func (c Config) Validate() error {
	var errs []error
	if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		errs = append(errs, fmt.Errorf("listen_address: %w", err))
	}
	switch c.ClientProtocol {
	case ProtocolGridConnect, ProtocolSLCAN:
	default:
		errs = append(errs, fmt.Errorf("client_protocol: unknown protocol %q", c.ClientProtocol))
	}
	if c.AdapterAddress != "" {
		if _, _, err := net.SplitHostPort(c.AdapterAddress); err != nil {
			errs = append(errs, fmt.Errorf("adapter_address: %w", err))
		}
	}
	if c.ReconnectDelay <= 0 {
		errs = append(errs, fmt.Errorf("reconnect_delay: must be positive, got %s", c.ReconnectDelay))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.MaxPendingBytes < 64 {
		errs = append(errs, fmt.Errorf("max_pending_bytes: must be at least 64, got %d", c.MaxPendingBytes))
	}
	if c.MetricsAddress != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddress); err != nil {
			errs = append(errs, fmt.Errorf("metrics_address: %w", err))
		}
	}
	return errors.Join(errs...)
}
