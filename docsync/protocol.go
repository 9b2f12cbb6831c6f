package docsync

import (
	"code-lab/errors"
	"fmt"
	"unicode/utf8"
)

type MessageType uint64

const (
	MessageSync           MessageType = 0
	MessageAwareness      MessageType = 1
	MessageAuth           MessageType = 2
	MessageQueryAwareness MessageType = 3
)

type SyncType uint64

const (
	SyncStep1  SyncType = 0
	SyncStep2  SyncType = 1
	SyncUpdate SyncType = 2
)

const maxVarUintBytes = 10

var (
	// emptyStateVector asks the peer for everything it holds.
	emptyStateVector = []byte{0}
	// emptyUpdate carries no structs and an empty delete set.
	emptyUpdate = []byte{0, 0}
)

// Message is one decoded frame. Payload is the sync or awareness body, it
// aliases the frame it was decoded from.
type Message struct {
	Type    MessageType
	Sync    SyncType
	Payload []byte
}

func Decode(frame []byte) (Message, error) {
	d := decoder{buf: frame}
	t, err := d.varUint()
	if err != nil {
		return Message{}, err
	}
	m := Message{Type: MessageType(t)}
	switch m.Type {
	case MessageSync:
		s, err := d.varUint()
		if err != nil {
			return Message{}, err
		}
		if SyncType(s) > SyncUpdate {
			return Message{}, fmt.Errorf("%w: sync type %d", errors.ErrMalformedFrame, s)
		}
		m.Sync = SyncType(s)
		if m.Payload, err = d.varBytes(); err != nil {
			return Message{}, err
		}
	case MessageAwareness:
		if m.Payload, err = d.varBytes(); err != nil {
			return Message{}, err
		}
	case MessageAuth, MessageQueryAwareness:
		m.Payload = d.rest()
	default:
		return Message{}, fmt.Errorf("%w: message type %d", errors.ErrMalformedFrame, t)
	}
	return m, nil
}

func EncodeSync(t SyncType, payload []byte) []byte {
	b := make([]byte, 0, len(payload)+2*maxVarUintBytes)
	b = appendVarUint(b, uint64(MessageSync))
	b = appendVarUint(b, uint64(t))
	return appendVarBytes(b, payload)
}

func EncodeAwareness(update []byte) []byte {
	b := make([]byte, 0, len(update)+2*maxVarUintBytes)
	b = appendVarUint(b, uint64(MessageAwareness))
	return appendVarBytes(b, update)
}

// AwarenessState is the presence of one editor client. State is the raw JSON
// document, "null" once the client is gone.
type AwarenessState struct {
	ClientID uint64
	Clock    uint64
	State    string
}

const removedState = "null"

func (s AwarenessState) Removed() bool {
	return s.State == removedState
}

func DecodeAwareness(update []byte) ([]AwarenessState, error) {
	d := decoder{buf: update}
	n, err := d.varUint()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(update)) {
		return nil, fmt.Errorf("%w: %d awareness entries in %d bytes", errors.ErrMalformedFrame, n, len(update))
	}
	states := make([]AwarenessState, 0, n)
	for range n {
		var s AwarenessState
		if s.ClientID, err = d.varUint(); err != nil {
			return nil, err
		}
		if s.Clock, err = d.varUint(); err != nil {
			return nil, err
		}
		if s.State, err = d.varString(); err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, nil
}

func EncodeAwarenessUpdate(states []AwarenessState) []byte {
	b := appendVarUint(nil, uint64(len(states)))
	for _, s := range states {
		b = appendVarUint(b, s.ClientID)
		b = appendVarUint(b, s.Clock)
		b = appendVarBytes(b, []byte(s.State))
	}
	return b
}

type decoder struct {
	buf []byte
	pos int
}

// varUint reads a little-endian base-128 integer, 7 bits per byte.
func (d *decoder) varUint() (uint64, error) {
	var v uint64
	for i := 0; i < maxVarUintBytes; i++ {
		if d.pos >= len(d.buf) {
			return 0, fmt.Errorf("%w: unexpected end of frame", errors.ErrMalformedFrame)
		}
		c := d.buf[d.pos]
		d.pos++
		v |= uint64(c&0x7f) << (7 * i)
		if c < 0x80 {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: integer overflow", errors.ErrMalformedFrame)
}

func (d *decoder) varBytes() ([]byte, error) {
	n, err := d.varUint()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(d.buf)-d.pos) {
		return nil, fmt.Errorf("%w: length %d exceeds frame", errors.ErrMalformedFrame, n)
	}
	b := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}

func (d *decoder) varString() (string, error) {
	b, err := d.varBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: invalid utf-8 string", errors.ErrMalformedFrame)
	}
	return string(b), nil
}

func (d *decoder) rest() []byte {
	return d.buf[d.pos:]
}

func appendVarUint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

func appendVarBytes(b, p []byte) []byte {
	b = appendVarUint(b, uint64(len(p)))
	return append(b, p...)
}
