// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/lobbyq/internal/domain/destination"
)

// Config represents the proxy configuration.
type Config struct {
	Server       ServerConfig        `yaml:"server"`
	Admin        AdminConfig         `yaml:"admin"`
	Queue        QueueConfig         `yaml:"queue"`
	Bridge       BridgeConfig        `yaml:"bridge"`
	Probe        ProbeConfig         `yaml:"probe"`
	Destinations []DestinationConfig `yaml:"destinations" validate:"required,min=1,dive"`
	Messages     MessagesConfig      `yaml:"messages"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// AdminConfig represents admin-related configuration.
type AdminConfig struct {
	Token string `yaml:"token" validate:"required"`
}

// QueueConfig represents admission sweep configuration.
type QueueConfig struct {
	SweepIntervalMs  int `yaml:"sweep_interval_ms" default:"1000" validate:"gte=50,lte=60000"`
	ConnectTimeoutMs int `yaml:"connect_timeout_ms" default:"5000" validate:"gte=100,lte=60000"`
}

// SweepInterval returns the sweep period as a duration.
func (q QueueConfig) SweepInterval() time.Duration {
	return time.Duration(q.SweepIntervalMs) * time.Millisecond
}

// ConnectTimeout returns the connect attempt timeout as a duration.
func (q QueueConfig) ConnectTimeout() time.Duration {
	return time.Duration(q.ConnectTimeoutMs) * time.Millisecond
}

// BridgeConfig represents state-sync bridge transport configuration.
type BridgeConfig struct {
	Channel        string `yaml:"channel" default:"lobbyq:queue"`
	Path           string `yaml:"path" default:"/bridge" validate:"startswith=/"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms" default:"2000" validate:"gte=100,lte=30000"`
}

// WriteTimeout returns the frame write timeout as a duration.
func (b BridgeConfig) WriteTimeout() time.Duration {
	return time.Duration(b.WriteTimeoutMs) * time.Millisecond
}

// ProbeConfig selects the destination reachability check.
type ProbeConfig struct {
	Type     string         `yaml:"type" default:"tcp" validate:"oneof=tcp http none"`
	Settings map[string]any `yaml:"settings"`
}

// DestinationConfig represents a single destination.
type DestinationConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Address string `yaml:"address" validate:"required"`
}

// MessagesConfig represents user-facing messages.
// Templates may use {destination}, {position} and {total}.
type MessagesConfig struct {
	Joined              string `yaml:"joined" default:"You joined the queue for {destination} ({position}/{total})."`
	AlreadyQueued       string `yaml:"already_queued" default:"You are already queued for {destination}."`
	DestinationNotFound string `yaml:"destination_not_found" default:"Server {destination} not found."`
	Left                string `yaml:"left" default:"You left the queue for {destination}."`
	NotQueued           string `yaml:"not_queued" default:"You are not in a queue."`
	Paused              string `yaml:"paused" default:"The queue for {destination} is paused."`
	Unpaused            string `yaml:"unpaused" default:"The queue for {destination} is resumed."`
	Admitted            string `yaml:"admitted" default:"You have been connected to {destination}."`
	Position            string `yaml:"position" default:"You are {position}/{total} in the queue for {destination}."`
	DefaultError        string `yaml:"default_error" default:"Something went wrong."`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}
	if v := os.Getenv("LOBBYQ_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	seen := make(map[string]struct{}, len(c.Destinations))
	for _, d := range c.Destinations {
		if _, dup := seen[d.Name]; dup {
			return errors.Newf("duplicate destination name %q", d.Name)
		}
		seen[d.Name] = struct{}{}
	}

	return nil
}

// DestinationList converts the configured destinations in order.
func (c *Config) DestinationList() []destination.Destination {
	result := make([]destination.Destination, len(c.Destinations))
	for i, d := range c.Destinations {
		result[i] = destination.Destination{Name: d.Name, Address: d.Address}
	}
	return result
}

// GetMessage returns the message template for the given result code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "joined":
		return c.Messages.Joined
	case "already_queued":
		return c.Messages.AlreadyQueued
	case "destination_not_found":
		return c.Messages.DestinationNotFound
	case "left":
		return c.Messages.Left
	case "not_queued":
		return c.Messages.NotQueued
	case "paused":
		return c.Messages.Paused
	case "unpaused":
		return c.Messages.Unpaused
	case "admitted":
		return c.Messages.Admitted
	case "position":
		return c.Messages.Position
	default:
		return c.Messages.DefaultError
	}
}

// Format fills the {destination}, {position} and {total} placeholders of the message for code.
func (c *Config) Format(code, dest string, position, total int) string {
	return FormatMessage(c.GetMessage(code), dest, position, total)
}

// FormatMessage fills the {destination}, {position} and {total} placeholders of tmpl.
func FormatMessage(tmpl, dest string, position, total int) string {
	return strings.NewReplacer(
		"{destination}", dest,
		"{position}", strconv.Itoa(position),
		"{total}", strconv.Itoa(total),
	).Replace(tmpl)
}
