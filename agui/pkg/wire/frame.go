package wire

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// WebSocket opcodes from RFC 6455 section 5.2.
const (
	OpContinuation byte = 0x0
	OpText         byte = 0x1
	OpBinary       byte = 0x2
	OpClose        byte = 0x8
	OpPing         byte = 0x9
	OpPong         byte = 0xA
)

// MaxPayloadSize caps the declared length of an inbound frame so a
// corrupt or hostile length field cannot trigger a huge allocation.
const MaxPayloadSize = 1 << 24 // 16 MiB

// Frame is one decoded WebSocket protocol unit.
type Frame struct {
	Opcode  byte
	Payload []byte
}

// IsControl reports whether the frame carries a control opcode.
func (f Frame) IsControl() bool {
	return f.Opcode&0x8 != 0
}

// Encode serializes a single unfragmented frame: the FIN bit is always
// set and continuation frames are never produced. The payload length uses
// the smallest of the 7-bit, 16-bit and 64-bit encodings that fits. When
// mask is true a random 4-byte key is appended and the payload bytes are
// XOR-masked with it, as required for client-to-server frames.
func Encode(opcode byte, payload []byte, mask bool) []byte {
	header := make([]byte, 2, 14)
	header[0] = 0x80 | (opcode & 0x0F)

	var maskBit byte
	if mask {
		maskBit = 0x80
	}

	switch n := len(payload); {
	case n < 126:
		header[1] = maskBit | byte(n)
	case n <= 0xFFFF:
		header[1] = maskBit | 126
		header = binary.BigEndian.AppendUint16(header, uint16(n))
	default:
		header[1] = maskBit | 127
		header = binary.BigEndian.AppendUint64(header, uint64(n))
	}

	if !mask {
		return append(header, payload...)
	}

	var key [4]byte
	_, _ = rand.Read(key[:]) // crypto/rand does not fail on supported platforms

	out := append(header, key[:]...)
	start := len(out)
	out = append(out, payload...)
	for i := range payload {
		out[start+i] ^= key[i%4]
	}
	return out
}

// Decode reads exactly one frame from r. All reads are exact: a stream
// that ends before the declared payload length has arrived is reported as
// an error, since it means the peer disconnected mid-frame. Masked frames
// are unmasked before being returned.
func Decode(r io.Reader) (Frame, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, fmt.Errorf("read frame header: %w", err)
	}

	opcode := header[0] & 0x0F
	masked := header[1]&0x80 != 0
	length := uint64(header[1] & 0x7F)

	switch length {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return Frame{}, fmt.Errorf("read extended length: %w", err)
		}
		length = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return Frame{}, fmt.Errorf("read extended length: %w", err)
		}
		length = binary.BigEndian.Uint64(ext[:])
	}

	if length > MaxPayloadSize {
		return Frame{}, fmt.Errorf("frame payload of %d bytes exceeds the %d byte limit", length, MaxPayloadSize)
	}

	var key [4]byte
	if masked {
		if _, err := io.ReadFull(r, key[:]); err != nil {
			return Frame{}, fmt.Errorf("read mask key: %w", err)
		}
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, fmt.Errorf("read frame payload: %w", err)
	}
	if masked {
		for i := range payload {
			payload[i] ^= key[i%4]
		}
	}

	return Frame{Opcode: opcode, Payload: payload}, nil
}
