package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 125, 126, 300, 0xFFFF, 0xFFFF + 1}

	for _, size := range sizes {
		for _, mask := range []bool{false, true} {
			payload := make([]byte, size)
			for i := range payload {
				payload[i] = byte(i)
			}

			encoded := Encode(OpText, payload, mask)
			frame, err := Decode(bytes.NewReader(encoded))
			require.NoError(t, err, "size=%d mask=%t", size, mask)
			assert.Equal(t, OpText, frame.Opcode)
			assert.Equal(t, payload, frame.Payload, "size=%d mask=%t", size, mask)
		}
	}
}

func TestMinimalLengthEncoding(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		headerLen int
		marker    byte
	}{
		{name: "7-bit zero", size: 0, headerLen: 2, marker: 0},
		{name: "7-bit max", size: 125, headerLen: 2, marker: 125},
		{name: "16-bit min", size: 126, headerLen: 4, marker: 126},
		{name: "16-bit max", size: 0xFFFF, headerLen: 4, marker: 126},
		{name: "64-bit min", size: 0xFFFF + 1, headerLen: 10, marker: 127},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded := Encode(OpBinary, make([]byte, tc.size), false)
			assert.Equal(t, tc.marker, encoded[1]&0x7F)
			assert.Len(t, encoded, tc.headerLen+tc.size)

			frame, err := Decode(bytes.NewReader(encoded))
			require.NoError(t, err)
			assert.Len(t, frame.Payload, tc.size)
		})
	}
}

func TestMaskedPayloadIsXORed(t *testing.T) {
	payload := []byte("masked payload bytes")
	encoded := Encode(OpText, payload, true)

	require.Equal(t, byte(0x80), encoded[1]&0x80, "mask bit must be set")
	key := encoded[2:6]
	for i, b := range payload {
		assert.Equal(t, b^key[i%4], encoded[6+i])
	}
}

func TestMaskRoundTrip(t *testing.T) {
	// unmask(mask(P, K), K) == P: masking twice with the same key is the
	// identity, which Decode relies on.
	payload := []byte("round trip property")
	encoded := Encode(OpText, payload, true)

	frame, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, payload, frame.Payload)
}

func TestDecodeUnmaskedServerFrame(t *testing.T) {
	raw := []byte{0x81, 0x05, 'h', 'e', 'l', 'l', 'o'}

	frame, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, OpText, frame.Opcode)
	assert.Equal(t, "hello", string(frame.Payload))
}

func TestDecodeShortRead(t *testing.T) {
	encoded := Encode(OpText, []byte("truncated mid-payload"), false)

	_, err := Decode(bytes.NewReader(encoded[:len(encoded)-3]))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeEmptyStream(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecodeRejectsOversizedFrame(t *testing.T) {
	header := []byte{0x82, 127}
	header = binary.BigEndian.AppendUint64(header, MaxPayloadSize+1)

	_, err := Decode(bytes.NewReader(header))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestIsControl(t *testing.T) {
	assert.True(t, Frame{Opcode: OpClose}.IsControl())
	assert.True(t, Frame{Opcode: OpPing}.IsControl())
	assert.True(t, Frame{Opcode: OpPong}.IsControl())
	assert.False(t, Frame{Opcode: OpText}.IsControl())
	assert.False(t, Frame{Opcode: OpBinary}.IsControl())
}
