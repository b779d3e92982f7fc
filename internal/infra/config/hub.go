package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// HubConfig represents the hub (front-end) configuration.
type HubConfig struct {
	Server     string           `yaml:"server" default:"hub-1" validate:"required"`
	Proxy      ProxyEndpoints   `yaml:"proxy"`
	Sync       SyncConfig       `yaml:"sync"`
	Scoreboard ScoreboardConfig `yaml:"scoreboard"`
}

// ProxyEndpoints locates the proxy's bridge and RPC endpoints.
type ProxyEndpoints struct {
	BridgeURL string `yaml:"bridge_url" default:"ws://localhost:8080/bridge" validate:"required,url"`
	APIURL    string `yaml:"api_url" default:"http://localhost:8080" validate:"required,url"`
}

// SyncConfig represents front-end syncer configuration.
type SyncConfig struct {
	Channel             string `yaml:"channel" default:"lobbyq:queue"`
	RefreshIntervalMs   int    `yaml:"refresh_interval_ms" default:"1000" validate:"gte=100,lte=60000"`
	ReconnectIntervalMs int    `yaml:"reconnect_interval_ms" default:"2000" validate:"gte=100,lte=60000"`
}

// RefreshInterval returns the periodic refresh period as a duration.
func (s SyncConfig) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalMs) * time.Millisecond
}

// ReconnectInterval returns the bridge reconnect wait as a duration.
func (s SyncConfig) ReconnectInterval() time.Duration {
	return time.Duration(s.ReconnectIntervalMs) * time.Millisecond
}

// ScoreboardConfig represents the rendered queue display.
type ScoreboardConfig struct {
	Enabled     *bool    `yaml:"enabled" default:"true"`
	Title       string   `yaml:"title" default:"lobbyq - %player%"`
	QueueLines  []string `yaml:"queue_lines" default:"[\"Queue: %queue_server%\",\"Position: %queue_position%/%queue_total%\"]"`
	NormalLines []string `yaml:"normal_lines" default:"[\"Online: %online%\",\"Not in a queue\"]"`
}

// IsEnabled reports whether the scoreboard is rendered.
func (s ScoreboardConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// LoadHub loads hub configuration. An empty path yields the defaults.
func LoadHub(path string) (*HubConfig, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read hub config file")
		}
	}
	return ParseHub(data)
}

// ParseHub builds a hub configuration from YAML bytes.
func ParseHub(data []byte) (*HubConfig, error) {
	var cfg HubConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse hub config file")
	}

	if v := os.Getenv("LOBBYQ_HUB_SERVER"); v != "" {
		cfg.Server = v
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "hub config validation failed")
	}

	return &cfg, nil
}
