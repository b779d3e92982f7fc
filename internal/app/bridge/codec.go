// Package bridge provides the state-sync bridge: the queue status wire codec,
// the back-end responder that answers and pushes snapshots, and the front-end syncer.
package bridge

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/osa030/lobbyq/internal/domain/queue"
)

// Subchannel names carried as the first field of every payload.
const (
	SubchannelRequest = "RequestQueueData"
	SubchannelStatus  = "QueueData"
)

var (
	ErrTruncated          = errors.New("truncated frame")
	ErrUnknownSubchannel  = errors.New("unknown subchannel")
	ErrStringTooLong      = errors.New("string exceeds 65535 bytes")
	ErrInvalidUTF8        = errors.New("string is not valid UTF-8")
	ErrIntegerOutOfRange  = errors.New("integer out of int32 range")
	ErrUnsupportedMessage = errors.New("unsupported message type")
)

// Message is a decoded bridge payload.
type Message interface {
	Subchannel() string
}

// RequestQueueStatus asks the back-end for a player's current snapshot.
type RequestQueueStatus struct {
	PlayerID uuid.UUID
}

// Subchannel returns "RequestQueueData".
func (RequestQueueStatus) Subchannel() string { return SubchannelRequest }

// QueueStatus carries a player's snapshot from the back-end to the front-end.
type QueueStatus struct {
	PlayerID uuid.UUID
	Snapshot queue.Snapshot
}

// Subchannel returns "QueueData".
func (QueueStatus) Subchannel() string { return SubchannelStatus }

// Writer appends big-endian fields to a byte buffer.
type Writer struct {
	buf []byte
	err error
}

// NewWriter creates an empty writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// WriteString writes a uint16 byte length followed by the UTF-8 bytes.
func (w *Writer) WriteString(s string) {
	if w.err != nil {
		return
	}
	if len(s) > math.MaxUint16 {
		w.err = errors.Wrapf(ErrStringTooLong, "length %d", len(s))
		return
	}
	if !utf8.ValidString(s) {
		w.err = ErrInvalidUTF8
		return
	}
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteBool writes one byte, 1 for true.
func (w *Writer) WriteBool(b bool) {
	if w.err != nil {
		return
	}
	if b {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// WriteInt32 writes a 4-byte big-endian signed integer.
func (w *Writer) WriteInt32(v int) {
	if w.err != nil {
		return
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		w.err = errors.Wrapf(ErrIntegerOutOfRange, "value %d", v)
		return
	}
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(int32(v)))
}

// Bytes returns the encoded bytes or the first write error.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}

// Reader consumes big-endian fields from a byte slice.
type Reader struct {
	data []byte
	off  int
}

// NewReader creates a reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) take(n int, field string) ([]byte, error) {
	if r.Remaining() < n {
		return nil, errors.Wrapf(ErrTruncated, "%s: need %d bytes, have %d", field, n, r.Remaining())
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ReadString reads a uint16-length-prefixed UTF-8 string.
func (r *Reader) ReadString(field string) (string, error) {
	lb, err := r.take(2, field+" length")
	if err != nil {
		return "", err
	}
	n := int(binary.BigEndian.Uint16(lb))
	b, err := r.take(n, field)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.Wrap(ErrInvalidUTF8, field)
	}
	return string(b), nil
}

// ReadBool reads one byte; any non-zero value is true.
func (r *Reader) ReadBool(field string) (bool, error) {
	b, err := r.take(1, field)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadInt32 reads a 4-byte big-endian signed integer.
func (r *Reader) ReadInt32(field string) (int, error) {
	b, err := r.take(4, field)
	if err != nil {
		return 0, err
	}
	return int(int32(binary.BigEndian.Uint32(b))), nil
}

// Encode serializes a message into its payload bytes.
func Encode(m Message) ([]byte, error) {
	w := NewWriter()
	switch msg := m.(type) {
	case RequestQueueStatus:
		w.WriteString(SubchannelRequest)
		w.WriteString(msg.PlayerID.String())
	case *RequestQueueStatus:
		return Encode(*msg)
	case QueueStatus:
		w.WriteString(SubchannelStatus)
		w.WriteString(msg.PlayerID.String())
		w.WriteBool(msg.Snapshot.InQueue)
		if msg.Snapshot.InQueue {
			w.WriteString(msg.Snapshot.Destination)
			w.WriteInt32(msg.Snapshot.Position)
			w.WriteInt32(msg.Snapshot.Total)
		}
	case *QueueStatus:
		return Encode(*msg)
	default:
		return nil, errors.Wrapf(ErrUnsupportedMessage, "%T", m)
	}
	return w.Bytes()
}

// Decode parses a payload. Bytes after a complete message are ignored.
func Decode(data []byte) (Message, error) {
	r := NewReader(data)
	sub, err := r.ReadString("subchannel")
	if err != nil {
		return nil, err
	}

	switch sub {
	case SubchannelRequest:
		id, err := readPlayerID(r)
		if err != nil {
			return nil, err
		}
		return RequestQueueStatus{PlayerID: id}, nil

	case SubchannelStatus:
		id, err := readPlayerID(r)
		if err != nil {
			return nil, err
		}
		inQueue, err := r.ReadBool("inQueue")
		if err != nil {
			return nil, err
		}
		if !inQueue {
			return QueueStatus{PlayerID: id, Snapshot: queue.NotQueued()}, nil
		}
		dest, err := r.ReadString("destination")
		if err != nil {
			return nil, err
		}
		pos, err := r.ReadInt32("position")
		if err != nil {
			return nil, err
		}
		total, err := r.ReadInt32("total")
		if err != nil {
			return nil, err
		}
		return QueueStatus{PlayerID: id, Snapshot: queue.Queued(dest, pos, total)}, nil

	default:
		return nil, errors.Wrapf(ErrUnknownSubchannel, "%q", sub)
	}
}

func readPlayerID(r *Reader) (uuid.UUID, error) {
	s, err := r.ReadString("playerId")
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "invalid player id %q", s)
	}
	return id, nil
}
