package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/veesix-networks/osvolt/pkg/logger"
	"github.com/veesix-networks/osvolt/pkg/models/olt"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIListenAddress      = ":8181"
	DefaultBasePath              = "/oltapp"
	DefaultExporterListenAddress = ":9090"
	DefaultOpDBPath              = "/var/lib/osvolt/opdb.db"
	DefaultQueueSize             = 1024
	DefaultRateLimitRPS          = 50
	DefaultRateLimitBurst        = 100
	DefaultCheckInterval         = 5 * time.Second
	DefaultCheckTimeout          = 2 * time.Second
	DefaultFailureThreshold      = 3
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = logger.LogLevelInfo
	}

	if c.API.ListenAddress == "" {
		c.API.ListenAddress = DefaultAPIListenAddress
	}
	if c.API.BasePath == "" {
		c.API.BasePath = DefaultBasePath
	}
	c.API.BasePath = strings.TrimSuffix(c.API.BasePath, "/")

	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = DefaultRateLimitRPS
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = DefaultRateLimitBurst
	}

	if c.Exporter.Prometheus.ListenAddress == "" {
		c.Exporter.Prometheus.ListenAddress = DefaultExporterListenAddress
	}

	if c.OpDB.Path == "" {
		c.OpDB.Path = DefaultOpDBPath
	}

	if c.Access.QueueSize == 0 {
		c.Access.QueueSize = DefaultQueueSize
	}

	if c.Watchdog.CheckInterval == 0 {
		c.Watchdog.CheckInterval = DefaultCheckInterval
	}
	if c.Watchdog.Timeout == 0 {
		c.Watchdog.Timeout = DefaultCheckTimeout
	}
	if c.Watchdog.FailureThreshold == 0 {
		c.Watchdog.FailureThreshold = DefaultFailureThreshold
	}
}

func (c *Config) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}

	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	for name, lvl := range c.Logging.Components {
		if !logger.ValidLevel(lvl) {
			return fmt.Errorf("logging.components.%s: unknown level %q", name, lvl)
		}
	}

	// an empty base path mounts the routes at the server root
	if c.API.BasePath != "" && !strings.HasPrefix(c.API.BasePath, "/") {
		return fmt.Errorf("api.base_path must start with '/': %s", c.API.BasePath)
	}

	return c.validateDevices()
}

func (c *Config) validateDevices() error {
	devices := make(map[olt.DeviceID]bool)
	names := make(map[string]string)

	for i, d := range c.Access.Devices {
		id, err := olt.ParseDeviceID(d.ID)
		if err != nil {
			return fmt.Errorf("access.devices[%d].id: %w", i, err)
		}
		if devices[id] {
			return fmt.Errorf("access.devices[%d]: duplicate device %s", i, id)
		}
		devices[id] = true

		ports := make(map[olt.PortNumber]bool)
		for j, p := range d.Ports {
			cp, err := olt.NewConnectPoint(d.ID, p.Number)
			if err != nil {
				return fmt.Errorf("access.devices[%d].ports[%d].number: %w", i, j, err)
			}
			if ports[cp.Port] {
				return fmt.Errorf("access.devices[%d].ports[%d]: duplicate port %d", i, j, p.Number)
			}
			ports[cp.Port] = true

			if _, err := olt.NewSubscriberID(p.Name); err != nil {
				return fmt.Errorf("access.devices[%d].ports[%d].name: %w", i, j, err)
			}
			if other, ok := names[p.Name]; ok {
				return fmt.Errorf("access.devices[%d].ports[%d]: port name %q already used by %s", i, j, p.Name, other)
			}
			names[p.Name] = cp.String()
		}

		if d.Uplink != nil && ports[olt.PortNumber(*d.Uplink)] {
			return fmt.Errorf("access.devices[%d].uplink: port %d is also a subscriber port", i, *d.Uplink)
		}
	}

	return nil
}
