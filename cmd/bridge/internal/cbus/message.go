package cbus

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// MaxPayload is the largest payload any opcode can carry.
const MaxPayload = 7

// Message is an opcode together with exactly ByteCount payload bytes.
// Messages are comparable with ==.
type Message struct {
	op   OpCode
	data [MaxPayload]byte
}

// NewMessage binds a payload to an opcode. A nil payload is replaced by
// zero bytes of the right length; any other payload must have exactly the
// opcode's byte count.
func NewMessage(op OpCode, payload []byte) (Message, error) {
	if !op.Known() {
		return Message{}, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, byte(op))
	}
	m := Message{op: op}
	if payload == nil {
		return m, nil
	}
	if len(payload) != op.ByteCount() {
		return Message{}, fmt.Errorf("%w: %s takes %d bytes, got %d",
			ErrPayloadLengthMismatch, op, op.ByteCount(), len(payload))
	}
	copy(m.data[:], payload)
	return m, nil
}

// MustMessage is NewMessage for payloads known to be valid.
func MustMessage(op OpCode, payload []byte) Message {
	m, err := NewMessage(op, payload)
	if err != nil {
		panic(err)
	}
	return m
}

// DecodeMessage parses an opcode byte followed by its payload.
func DecodeMessage(b []byte) (Message, error) {
	if len(b) == 0 {
		return Message{}, ErrEmptyInput
	}
	if _, err := Lookup(b[0]); err != nil {
		return Message{}, err
	}
	return NewMessage(OpCode(b[0]), b[1:])
}

func (m Message) OpCode() OpCode { return m.op }

func (m Message) Descriptor() Descriptor { return m.op.Descriptor() }

// Len is the payload length.
func (m Message) Len() int { return m.op.ByteCount() }

// Payload returns a copy of the payload bytes.
func (m Message) Payload() []byte {
	out := make([]byte, m.Len())
	copy(out, m.data[:])
	return out
}

// Bytes returns the opcode followed by the payload.
func (m Message) Bytes() []byte {
	out := make([]byte, 0, 1+m.Len())
	out = append(out, byte(m.op))
	return append(out, m.data[:m.Len()]...)
}

func (m Message) HasData() bool { return m.Len() != 0 }

func (m Message) IsGeneral() bool   { return m.Descriptor().IsGeneral() }
func (m Message) IsConfig() bool    { return m.Descriptor().IsConfig() }
func (m Message) IsAccessory() bool { return m.Descriptor().IsAccessory() }
func (m Message) IsDCC() bool       { return m.Descriptor().IsDCC() }

// Uint8At returns the payload byte at offset i.
func (m Message) Uint8At(i int) (uint8, error) {
	if i < 0 || i >= m.Len() {
		return 0, fmt.Errorf("cbus: offset %d outside %s payload", i, m.op)
	}
	return m.data[i], nil
}

// Uint16At returns the big-endian value at offsets i and i+1.
func (m Message) Uint16At(i int) (uint16, error) {
	if i < 0 || i+2 > m.Len() {
		return 0, fmt.Errorf("cbus: offset %d outside %s payload", i, m.op)
	}
	return binary.BigEndian.Uint16(m.data[i : i+2]), nil
}

// Hex is the compact wire form: opcode and payload as pairs of uppercase
// hex digits.
func (m Message) Hex() string {
	return fmt.Sprintf("%X", m.Bytes())
}

// String renders the opcode name followed by each payload byte, for
// example <ACON><0><A><FB><41>.
func (m Message) String() string {
	var b strings.Builder
	b.WriteString("<" + m.op.String() + ">")
	for _, v := range m.data[:m.Len()] {
		fmt.Fprintf(&b, "<%X>", v)
	}
	return b.String()
}
