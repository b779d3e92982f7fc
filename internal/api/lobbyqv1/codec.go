package lobbyqv1

import (
	"encoding/json"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
)

// Codec marshals plain Go structs as JSON. It replaces Connect's protobuf-JSON codec,
// which only accepts generated protobuf messages.
type Codec struct{}

var _ connect.Codec = Codec{}

// Name returns "json" so the codec serves application/json requests.
func (Codec) Name() string { return "json" }

// Marshal encodes message as JSON.
func (Codec) Marshal(message any) ([]byte, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, errors.Wrap(err, "marshal json")
	}
	return data, nil
}

// Unmarshal decodes JSON into message. An empty body leaves message unchanged.
func (Codec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, message); err != nil {
		return errors.Wrap(err, "unmarshal json")
	}
	return nil
}
