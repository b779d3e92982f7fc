package admission

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lobbyq/internal/domain/destination"
)

// Prober checks whether a destination can accept a player right now.
type Prober interface {
	// Probe returns nil if the destination is reachable.
	Probe(ctx context.Context, dest destination.Destination) error
	// Name returns the prober type (used in config).
	Name() string
}

// NewProberFromConfig creates a prober from its configured type and settings.
func NewProberFromConfig(proberType string, settings map[string]any) (Prober, error) {
	zlog.Debug().Msgf("creating prober: type=%s settings=%+v", proberType, settings)
	switch proberType {
	case "tcp", "":
		return NewTCPProber(settings)
	case "http":
		return NewHTTPProber(settings)
	case "none":
		return NoopProber{}, nil
	default:
		return nil, errors.Newf("unsupported prober type: %s", proberType)
	}
}

// decodeSettings decodes settings into cfg, applies defaults and validates.
func decodeSettings(settings map[string]any, cfg any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(cfg); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}

// NoopProber treats every destination as reachable.
type NoopProber struct{}

func (NoopProber) Probe(ctx context.Context, dest destination.Destination) error {
	return ctx.Err()
}

func (NoopProber) Name() string {
	return "none"
}

// TCPProberConfig represents the configuration for TCPProber.
type TCPProberConfig struct {
	DialTimeoutMs int `yaml:"dial_timeout_ms" mapstructure:"dial_timeout_ms" default:"3000" validate:"gte=1,lte=60000"`
}

// TCPProber opens and closes a TCP connection to the destination address.
type TCPProber struct {
	config *TCPProberConfig
	dialer *net.Dialer
}

// NewTCPProber creates a TCP prober.
func NewTCPProber(settings map[string]any) (*TCPProber, error) {
	var config TCPProberConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &TCPProber{
		config: &config,
		dialer: &net.Dialer{Timeout: time.Duration(config.DialTimeoutMs) * time.Millisecond},
	}, nil
}

func (p *TCPProber) Probe(ctx context.Context, dest destination.Destination) error {
	if dest.Address == "" {
		return errors.Newf("destination %s has no address", dest.Name)
	}
	conn, err := p.dialer.DialContext(ctx, "tcp", dest.Address)
	if err != nil {
		return errors.Wrapf(err, "dial %s", dest.Address)
	}
	return conn.Close()
}

func (p *TCPProber) Name() string {
	return "tcp"
}

// HTTPProberConfig represents the configuration for HTTPProber.
type HTTPProberConfig struct {
	Scheme         string `yaml:"scheme" mapstructure:"scheme" default:"http" validate:"oneof=http https"`
	Path           string `yaml:"path" mapstructure:"path" default:"/healthz"`
	ExpectedStatus int    `yaml:"expected_status" mapstructure:"expected_status" default:"200" validate:"gte=100,lte=599"`
	TimeoutMs      int    `yaml:"timeout_ms" mapstructure:"timeout_ms" default:"3000" validate:"gte=1,lte=60000"`
}

// HTTPProber issues a GET against the destination's health endpoint.
type HTTPProber struct {
	config *HTTPProberConfig
	client *http.Client
}

// NewHTTPProber creates an HTTP prober.
func NewHTTPProber(settings map[string]any) (*HTTPProber, error) {
	var config HTTPProberConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(config.Path, "/") {
		config.Path = "/" + config.Path
	}
	return &HTTPProber{
		config: &config,
		client: &http.Client{Timeout: time.Duration(config.TimeoutMs) * time.Millisecond},
	}, nil
}

func (p *HTTPProber) Probe(ctx context.Context, dest destination.Destination) error {
	url := dest.Address
	if !strings.Contains(url, "://") {
		url = fmt.Sprintf("%s://%s", p.config.Scheme, url)
	}
	url = strings.TrimSuffix(url, "/") + p.config.Path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build probe request")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "probe %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != p.config.ExpectedStatus {
		return errors.Newf("probe %s: unexpected status %d", url, resp.StatusCode)
	}
	return nil
}

func (p *HTTPProber) Name() string {
	return "http"
}
