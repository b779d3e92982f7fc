package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHub_Defaults(t *testing.T) {
	cfg, err := LoadHub("")
	require.NoError(t, err)

	assert.Equal(t, "hub-1", cfg.Server)
	assert.Equal(t, "ws://localhost:8080/bridge", cfg.Proxy.BridgeURL)
	assert.Equal(t, "http://localhost:8080", cfg.Proxy.APIURL)
	assert.Equal(t, "lobbyq:queue", cfg.Sync.Channel)
	assert.Equal(t, time.Second, cfg.Sync.RefreshInterval())
	assert.Equal(t, 2*time.Second, cfg.Sync.ReconnectInterval())
	assert.True(t, cfg.Scoreboard.IsEnabled())
	assert.Equal(t, []string{"Queue: %queue_server%", "Position: %queue_position%/%queue_total%"}, cfg.Scoreboard.QueueLines)
}

func TestParseHub(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, cfg *HubConfig)
	}{
		{
			name: "overrides",
			yaml: `
server: hub-eu
sync:
  refresh_interval_ms: 500
scoreboard:
  enabled: false
  normal_lines: ["idle"]
`,
			check: func(t *testing.T, cfg *HubConfig) {
				assert.Equal(t, "hub-eu", cfg.Server)
				assert.Equal(t, 500*time.Millisecond, cfg.Sync.RefreshInterval())
				assert.False(t, cfg.Scoreboard.IsEnabled())
				assert.Equal(t, []string{"idle"}, cfg.Scoreboard.NormalLines)
			},
		},
		{
			name: "refresh too fast",
			yaml: `
sync:
  refresh_interval_ms: 5
`,
			wantErr: true,
		},
		{
			name: "bad bridge url",
			yaml: `
proxy:
  bridge_url: "not a url"
`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseHub([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestParseHub_EnvServerName(t *testing.T) {
	t.Setenv("LOBBYQ_HUB_SERVER", "hub-env")
	cfg, err := ParseHub(nil)
	require.NoError(t, err)
	assert.Equal(t, "hub-env", cfg.Server)
}
