package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/osvolt/pkg/logger"
)

const sampleConfig = `
logging:
  format: json
  level: debug
  components:
    access.worker: warn
api:
  enabled: true
  base_path: /oltapp/
  rate_limit:
    enabled: true
    rps: 10
exporter:
  prometheus:
    enabled: true
watchdog:
  enabled: true
  check_interval: 10s
access:
  devices:
    - id: "of:00000000000000a1"
      uplink: 65536
      ports:
        - number: 16
          name: BBSM00000001-1
        - number: 17
          name: BBSM00000002-1
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, logger.LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, logger.LogLevelWarn, cfg.Logging.Components["access.worker"])

	assert.Equal(t, "/oltapp", cfg.API.BasePath)
	assert.Equal(t, DefaultAPIListenAddress, cfg.API.ListenAddress)
	assert.Equal(t, 10.0, cfg.API.RateLimit.RPS)
	assert.Equal(t, DefaultRateLimitBurst, cfg.API.RateLimit.Burst)
	assert.Equal(t, DefaultExporterListenAddress, cfg.Exporter.Prometheus.ListenAddress)
	assert.Equal(t, DefaultOpDBPath, cfg.OpDB.Path)
	assert.Equal(t, DefaultQueueSize, cfg.Access.QueueSize)
	assert.True(t, cfg.Watchdog.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Watchdog.CheckInterval)
	assert.Equal(t, DefaultCheckTimeout, cfg.Watchdog.Timeout)
	assert.Equal(t, DefaultFailureThreshold, cfg.Watchdog.FailureThreshold)

	require.Len(t, cfg.Access.Devices, 1)
	dev := cfg.Access.Devices[0]
	require.NotNil(t, dev.Uplink)
	assert.EqualValues(t, 65536, *dev.Uplink)
	assert.Len(t, dev.Ports, 2)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad format", "logging: {format: xml}"},
		{"bad level", "logging: {level: chatty}"},
		{"bad component level", "logging: {components: {nb: loud}}"},
		{"base path", "api: {base_path: oltapp}"},
		{"bad device id", `access: {devices: [{id: "of:%zz"}]}`},
		{"duplicate device", `access: {devices: [{id: "of:1"}, {id: "of:1"}]}`},
		{"negative port", `access: {devices: [{id: "of:1", ports: [{number: -1, name: a}]}]}`},
		{"duplicate port", `access: {devices: [{id: "of:1", ports: [{number: 1, name: a}, {number: 1, name: b}]}]}`},
		{"empty port name", `access: {devices: [{id: "of:1", ports: [{number: 1, name: ""}]}]}`},
		{"duplicate port name", `access: {devices: [{id: "of:1", ports: [{number: 1, name: a}]}, {id: "of:2", ports: [{number: 1, name: a}]}]}`},
		{"uplink is subscriber port", `access: {devices: [{id: "of:1", uplink: 1, ports: [{number: 1, name: a}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestRootBasePath(t *testing.T) {
	cfg, err := Parse([]byte("api: {base_path: /}"))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.API.BasePath)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "osvolt.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateReportsYAMLPath(t *testing.T) {
	tests := []struct {
		yaml string
		want string
	}{
		{"logging: {format: xml}", "logging.format must be one of: text json"},
		{`access: {devices: [{id: "of:1", ports: [{number: 1, name: a}, {number: 2}]}]}`, "access.devices[0].ports[1].name is required"},
		{`access: {devices: [{id: "of:1", ports: [{number: 4294967296, name: a}]}]}`, "access.devices[0].ports[0].number must be at most 4294967295"},
		{"api: {rate_limit: {rps: -1}}", "api.rate_limit.rps must be at least 0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
