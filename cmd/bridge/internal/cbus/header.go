// Package cbus implements the MERG CBUS message layer: the packed CAN
// identifier, the opcode catalog, fixed-length messages and the
// GridConnect ASCII framing used to carry CBUS over byte streams.
package cbus

import "fmt"

// MaxSourceID is the largest 7-bit CAN source identifier.
const MaxSourceID = 127

// HeaderSize is the length of the register form of a header.
const HeaderSize = 2

// Header is the CBUS view of a standard CAN identifier: major and minor
// priority plus a 7-bit source id, held in the packed SIDH/SIDL register
// layout. Headers are compared by their packed bytes.
type Header struct {
	high byte
	low  byte
}

// NewHeader packs a header. The source id must fit in seven bits.
func NewHeader(major MajorPriority, minor MinorPriority, sourceID uint8) (Header, error) {
	if sourceID > MaxSourceID {
		return Header{}, fmt.Errorf("%w: %d > %d", ErrInvalidIdentifier, sourceID, MaxSourceID)
	}
	return Header{
		high: packPriority(major, minor) | sourceID>>3,
		low:  (sourceID & 0x07) << 5,
	}, nil
}

// MustHeader is NewHeader for constant arguments; it panics on error.
func MustHeader(major MajorPriority, minor MinorPriority, sourceID uint8) Header {
	h, err := NewHeader(major, minor, sourceID)
	if err != nil {
		panic(err)
	}
	return h
}

// DecodeHeader reads a header from the first two bytes of b in register
// order. Every bit pattern decodes.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes", ErrInsufficientData, len(b))
	}
	// The five low SIDL bits carry extended-id and padding bits, not CBUS data.
	return Header{high: b[0], low: b[1] & 0xE0}, nil
}

// HeaderFromCANID builds a header from a right-aligned 11-bit CAN
// identifier. Bits above the eleventh are ignored.
func HeaderFromCANID(id uint16) Header {
	id &= 0x7FF
	return Header{high: byte(id >> 3), low: byte(id&0x07) << 5}
}

func (h Header) Major() MajorPriority {
	major, _ := unpackPriority(h.high)
	return major
}

func (h Header) Minor() MinorPriority {
	_, minor := unpackPriority(h.high)
	return minor
}

// SourceID is the 7-bit CAN id of the sending node.
func (h Header) SourceID() uint8 {
	return (h.high&0x0F)<<3 | (h.low>>5)&0x07
}

// High is the SIDH register byte.
func (h Header) High() byte { return h.high }

// Low is the SIDL register byte.
func (h Header) Low() byte { return h.low }

// Register returns the bytes to write into the SIDH and SIDL identifier
// registers of a PIC-style CAN controller: left aligned, five zero bits of
// padding on the right.
func (h Header) Register() [2]byte {
	return [2]byte{h.high, h.low}
}

// CANBytes returns the 11-bit identifier right aligned in two bytes.
func (h Header) CANBytes() [2]byte {
	return [2]byte{h.high >> 5, (h.high&0x1F)<<3 | (h.low>>5)&0x07}
}

// CANID returns the 11-bit standard CAN identifier.
func (h Header) CANID() uint16 {
	b := h.CANBytes()
	return uint16(b[0])<<8 | uint16(b[1])
}

// ASCII returns the register form as four uppercase hex digits.
func (h Header) ASCII() string {
	return fmt.Sprintf("%02X%02X", h.high, h.low)
}

// WithMajor returns a copy of h with a different major priority.
func (h Header) WithMajor(major MajorPriority) Header {
	return Header{high: packPriority(major, h.Minor()) | h.high&0x0F, low: h.low}
}

// WithMinor returns a copy of h with a different minor priority.
func (h Header) WithMinor(minor MinorPriority) Header {
	return Header{high: packPriority(h.Major(), minor) | h.high&0x0F, low: h.low}
}

// WithSourceID returns a copy of h with a different source id.
func (h Header) WithSourceID(sourceID uint8) (Header, error) {
	return NewHeader(h.Major(), h.Minor(), sourceID)
}

func (h Header) String() string {
	return fmt.Sprintf("<%d><%d><%d>", uint8(h.Major()), uint8(h.Minor()), h.SourceID())
}
