package lobbyqv1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	c := Codec{}
	assert.Equal(t, "json", c.Name())

	data, err := c.Marshal(&JoinRequest{PlayerID: "p1", Destination: "lobby"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"player_id":"p1","destination":"lobby"}`, string(data))

	var req JoinRequest
	require.NoError(t, c.Unmarshal(data, &req))
	assert.Equal(t, JoinRequest{PlayerID: "p1", Destination: "lobby"}, req)
}

func TestCodec_EmptyBody(t *testing.T) {
	req := StatusRequest{}
	assert.NoError(t, Codec{}.Unmarshal(nil, &req))
}

func TestCodec_InvalidJSON(t *testing.T) {
	var req JoinRequest
	assert.Error(t, Codec{}.Unmarshal([]byte("{"), &req))
}
