package cbus

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewMessageValidation(t *testing.T) {
	if _, err := NewMessage(OpCode(0xFF), nil); !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("expected ErrUnknownOpcode, got %v", err)
	}
	if _, err := NewMessage(OpACON, []byte{1, 2, 3}); !errors.Is(err, ErrPayloadLengthMismatch) {
		t.Fatalf("expected ErrPayloadLengthMismatch, got %v", err)
	}
	m, err := NewMessage(OpACON, nil)
	if err != nil {
		t.Fatalf("NewMessage returned error: %v", err)
	}
	if !bytes.Equal(m.Payload(), []byte{0, 0, 0, 0}) {
		t.Fatalf("expected zero payload, got % X", m.Payload())
	}
}

func TestDecodeMessage(t *testing.T) {
	m, err := DecodeMessage([]byte{0x90, 0x00, 0x0A, 0xFB, 0x41})
	if err != nil {
		t.Fatalf("DecodeMessage returned error: %v", err)
	}
	if m != NewAccessoryLongEventOn(10, 64321) {
		t.Fatalf("unexpected message %s", m)
	}

	if _, err := DecodeMessage(nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := DecodeMessage([]byte{0xFF}); !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("expected ErrUnknownOpcode, got %v", err)
	}
	if _, err := DecodeMessage([]byte{0x90, 0x00}); !errors.Is(err, ErrPayloadLengthMismatch) {
		t.Fatalf("expected ErrPayloadLengthMismatch, got %v", err)
	}
}

func TestMessageRenderings(t *testing.T) {
	m := NewAccessoryLongEventOn(10, 64321)
	if m.String() != "<ACON><0><A><FB><41>" {
		t.Fatalf("unexpected string %q", m.String())
	}
	if m.Hex() != "90000AFB41" {
		t.Fatalf("unexpected hex %q", m.Hex())
	}
	if !bytes.Equal(m.Bytes(), []byte{0x90, 0x00, 0x0A, 0xFB, 0x41}) {
		t.Fatalf("unexpected bytes % X", m.Bytes())
	}
	if !m.HasData() || !m.IsAccessory() || m.IsDCC() {
		t.Fatalf("unexpected classification for %s", m)
	}

	ack := NewAck()
	if ack.String() != "<ACK>" || ack.Hex() != "00" || ack.HasData() {
		t.Fatalf("unexpected ACK rendering %q %q", ack.String(), ack.Hex())
	}
}

func TestMessageRoundTrip(t *testing.T) {
	for _, d := range Descriptors() {
		p := make([]byte, d.ByteCount)
		for i := range p {
			p[i] = byte(0xA0 + i)
		}
		m := MustMessage(d.Code, p)
		decoded, err := DecodeMessage(m.Bytes())
		if err != nil {
			t.Fatalf("DecodeMessage(%s) returned error: %v", d.Name, err)
		}
		if decoded != m {
			t.Fatalf("round trip mismatch for %s: %s", d.Name, decoded)
		}
	}
}

func TestPayloadIsCopied(t *testing.T) {
	m := NewSetNodeNumber(0x1234)
	p := m.Payload()
	p[0] = 0xFF
	if v, _ := m.Uint16At(0); v != 0x1234 {
		t.Fatalf("payload mutated through copy: %04X", v)
	}
}

func TestMessageAccessors(t *testing.T) {
	m := NewSetNodeVariable(0x0102, 3, 4)
	if v, err := m.Uint16At(0); err != nil || v != 0x0102 {
		t.Fatalf("Uint16At(0) = %04X, %v", v, err)
	}
	if v, err := m.Uint8At(3); err != nil || v != 4 {
		t.Fatalf("Uint8At(3) = %d, %v", v, err)
	}
	if _, err := m.Uint8At(4); err == nil {
		t.Fatalf("expected out of range error")
	}
	if _, err := m.Uint16At(3); err == nil {
		t.Fatalf("expected out of range error")
	}
}
