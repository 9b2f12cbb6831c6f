package docsync

import (
	"code-lab/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarUint_Boundaries(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 255, 300, 16383, 16384, 1<<32 + 7, 1<<53 - 1} {
		d := decoder{buf: appendVarUint(nil, v)}
		got, err := d.varUint()
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Empty(t, d.rest())
	}
	require.Equal(t, []byte{0xac, 0x02}, appendVarUint(nil, 300))
}

func TestDecode_SyncFrames(t *testing.T) {
	req := require.New(t)

	// A y-websocket update frame: sync, update, length 3, payload
	m, err := Decode([]byte{0, 2, 3, 0xa, 0xb, 0xc})
	req.NoError(err)
	req.Equal(MessageSync, m.Type)
	req.Equal(SyncUpdate, m.Sync)
	req.Equal([]byte{0xa, 0xb, 0xc}, m.Payload)

	m, err = Decode(EncodeSync(SyncStep1, emptyStateVector))
	req.NoError(err)
	req.Equal(SyncStep1, m.Sync)
	req.Equal(emptyStateVector, m.Payload)
}

func TestDecode_RejectsMalformed(t *testing.T) {
	for name, frame := range map[string][]byte{
		"empty":            {},
		"unknown type":     {9},
		"unknown sync":     {0, 7, 0},
		"truncated length": {0, 2, 5, 1},
		"dangling varuint": {0, 0x80},
		"overflow":         {0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(frame)
			require.ErrorIs(t, err, errors.ErrMalformedFrame)
		})
	}
}

func TestAwareness_Codec(t *testing.T) {
	req := require.New(t)
	states := []AwarenessState{
		{ClientID: 12345, Clock: 3, State: `{"user":{"name":"Alice","color":"#ffb61e"}}`},
		{ClientID: 7, Clock: 1, State: removedState},
	}

	m, err := Decode(EncodeAwareness(EncodeAwarenessUpdate(states)))
	req.NoError(err)
	req.Equal(MessageAwareness, m.Type)

	got, err := DecodeAwareness(m.Payload)
	req.NoError(err)
	req.Equal(states, got)
	req.True(got[1].Removed())
}

func TestDecodeAwareness_RejectsLyingCount(t *testing.T) {
	_, err := DecodeAwareness(appendVarUint(nil, 1<<40))
	require.ErrorIs(t, err, errors.ErrMalformedFrame)
}
