package destination

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name    string
		input   []Destination
		wantErr error
	}{
		{
			name: "valid destinations",
			input: []Destination{
				{Name: "lobby", Address: "127.0.0.1:25566"},
				{Name: "arena", Address: "127.0.0.1:25567"},
			},
		},
		{
			name:  "empty registry",
			input: nil,
		},
		{
			name: "empty name",
			input: []Destination{
				{Name: "  ", Address: "127.0.0.1:25566"},
			},
			wantErr: ErrEmptyName,
		},
		{
			name: "duplicate name",
			input: []Destination{
				{Name: "lobby"},
				{Name: "lobby"},
			},
			wantErr: ErrDuplicateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.input), r.Len())
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r, err := NewRegistry([]Destination{
		{Name: "lobby", Address: "a:1"},
		{Name: "arena", Address: "b:2"},
		{Name: "survival", Address: "c:3"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"lobby", "arena", "survival"}, r.Names())
	assert.True(t, r.Contains("arena"))
	assert.False(t, r.Contains("Arena"))

	d, ok := r.Get("survival")
	assert.True(t, ok)
	assert.Equal(t, "c:3", d.Address)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	all := r.All()
	all[0].Name = "mutated"
	assert.Equal(t, "lobby", r.Names()[0], "All must return a copy")
}
