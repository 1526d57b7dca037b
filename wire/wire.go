// Package wire implements the binary frame format exchanged with the
// translation engine. Every frame is a fixed header followed by a JSON
// payload; the header carries an explicit kind discriminant so receivers
// never have to guess a payload's shape.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

// Frame layout: magic(2) | version(1) | kind(1) | length(4, big-endian) | payload.
const (
	magic0  = 'M'
	magic1  = 'T'
	Version = 1

	headerSize = 8

	// MaxPayloadSize bounds the JSON payload of a single frame.
	MaxPayloadSize = 256 * 1024
)

// Kind discriminates the payload shape of a frame.
type Kind uint8

const (
	KindSingleJob Kind = iota + 1
	KindBatchJob
	KindSingleResult
	KindBatchResult
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSingleJob:
		return "single_job"
	case KindBatchJob:
		return "batch_job"
	case KindSingleResult:
		return "single_result"
	case KindBatchResult:
		return "batch_result"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) valid() bool {
	return k >= KindSingleJob && k <= KindBatchResult
}

var (
	ErrBadMagic       = errors.New("wire: bad magic")
	ErrBadVersion     = errors.New("wire: unsupported version")
	ErrUnknownKind    = errors.New("wire: unknown frame kind")
	ErrTruncatedFrame = errors.New("wire: truncated frame")
	ErrPayloadTooBig  = errors.New("wire: payload exceeds maximum size")
)

// Envelope is a decoded frame: the kind plus the raw JSON payload.
type Envelope struct {
	Kind    Kind
	Payload json.RawMessage
}

// Encode serializes payload as JSON and wraps it in a frame of the given
// kind.
func Encode(kind Kind, payload any) ([]byte, error) {
	if !kind.valid() {
		return nil, ErrUnknownKind
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	if len(body) > MaxPayloadSize {
		return nil, ErrPayloadTooBig
	}

	frame := make([]byte, headerSize+len(body))
	frame[0] = magic0
	frame[1] = magic1
	frame[2] = Version
	frame[3] = byte(kind)
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(body)))
	copy(frame[headerSize:], body)
	return frame, nil
}

// Decode validates a frame's header and returns its envelope. The payload
// is not unmarshaled; callers pick the target type from the kind.
func Decode(frame []byte) (Envelope, error) {
	if len(frame) < headerSize {
		return Envelope{}, ErrTruncatedFrame
	}
	if frame[0] != magic0 || frame[1] != magic1 {
		return Envelope{}, ErrBadMagic
	}
	if frame[2] != Version {
		return Envelope{}, fmt.Errorf("%w: %d", ErrBadVersion, frame[2])
	}
	kind := Kind(frame[3])
	if !kind.valid() {
		return Envelope{}, fmt.Errorf("%w: %d", ErrUnknownKind, frame[3])
	}
	length := binary.BigEndian.Uint32(frame[4:8])
	if length > MaxPayloadSize {
		return Envelope{}, ErrPayloadTooBig
	}
	if len(frame) != headerSize+int(length) {
		return Envelope{}, ErrTruncatedFrame
	}
	return Envelope{Kind: kind, Payload: frame[headerSize:]}, nil
}

// Unmarshal decodes the envelope payload into v.
func (e Envelope) Unmarshal(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Kind, err)
	}
	return nil
}
