package bridge

import (
	"github.com/cockroachdb/errors"
)

// DefaultChannel is the logical channel shared by both directions.
const DefaultChannel = "lobbyq:queue"

// EncodeFrame prefixes a payload with its channel name.
func EncodeFrame(channel string, payload []byte) ([]byte, error) {
	w := NewWriter()
	w.WriteString(channel)
	head, err := w.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "encode channel")
	}
	frame := make([]byte, 0, len(head)+len(payload))
	frame = append(frame, head...)
	return append(frame, payload...), nil
}

// DecodeFrame splits a transport frame into its channel name and payload.
func DecodeFrame(data []byte) (string, []byte, error) {
	r := NewReader(data)
	channel, err := r.ReadString("channel")
	if err != nil {
		return "", nil, err
	}
	return channel, data[len(data)-r.Remaining():], nil
}

// encodeMessage encodes m and wraps it in a frame for channel.
func encodeMessage(channel string, m Message) ([]byte, error) {
	payload, err := Encode(m)
	if err != nil {
		return nil, err
	}
	return EncodeFrame(channel, payload)
}
