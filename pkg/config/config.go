package config

import (
	"time"

	"github.com/veesix-networks/osvolt/pkg/logger"
)

type Config struct {
	Logging  Logging  `yaml:"logging"`
	API      API      `yaml:"api"`
	Exporter Exporter `yaml:"exporter"`
	OpDB     OpDB     `yaml:"opdb"`
	Access   Access   `yaml:"access"`
	Watchdog Watchdog `yaml:"watchdog"`
}

type Logging struct {
	Format      string                     `yaml:"format" validate:"oneof=text json"`
	Level       logger.LogLevel            `yaml:"level"`
	Components  map[string]logger.LogLevel `yaml:"components,omitempty"`
	DebugEvents bool                       `yaml:"debug_events,omitempty"`
}

type API struct {
	Enabled       bool      `yaml:"enabled"`
	ListenAddress string    `yaml:"listen_address"`
	BasePath      string    `yaml:"base_path"`
	RateLimit     RateLimit `yaml:"rate_limit"`
}

// RateLimit is a per-client token bucket applied to provisioning requests.
type RateLimit struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps" validate:"gte=0"`
	Burst   int     `yaml:"burst" validate:"gte=0"`
}

type Exporter struct {
	Prometheus Prometheus `yaml:"prometheus"`
}

type Prometheus struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"`
}

type OpDB struct {
	Path string `yaml:"path" validate:"required"`
}

type Access struct {
	QueueSize int      `yaml:"queue_size" validate:"gte=0"`
	Devices   []Device `yaml:"devices" validate:"dive"`
}

// Device is an OLT known to the access service. Uplink is the NNI port used
// for double-tagged services; without it only untagged services can be added.
type Device struct {
	ID     string  `yaml:"id" validate:"required"`
	Uplink *uint32 `yaml:"uplink,omitempty"`
	Ports  []Port  `yaml:"ports" validate:"dive"`
}

type Port struct {
	Number int64  `yaml:"number" validate:"gte=0,lte=4294967295"`
	Name   string `yaml:"name" validate:"required"`
}

// Watchdog periodically checks the opdb and the access worker. Readiness is
// served on {base_path}/readyz.
type Watchdog struct {
	Enabled          bool          `yaml:"enabled"`
	CheckInterval    time.Duration `yaml:"check_interval" validate:"gte=0"`
	Timeout          time.Duration `yaml:"timeout" validate:"gte=0"`
	FailureThreshold int           `yaml:"failure_threshold" validate:"gte=0"`
}
