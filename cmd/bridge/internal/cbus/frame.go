package cbus

import (
	"encoding/hex"
	"fmt"
)

// Frame is one CBUS packet as carried on a byte stream: a header, an
// optional message and the CAN remote-transmission-request flag.
type Frame struct {
	header     Header
	msg        Message
	hasMessage bool
	rtr        bool
}

// NewFrame builds a frame carrying m.
func NewFrame(h Header, m Message, rtr bool) Frame {
	return Frame{header: h, msg: m, hasMessage: true, rtr: rtr}
}

// NewVoidFrame builds a frame with no message. CBUS nodes use an empty
// remote request during CAN id enumeration, but the flag is not implied.
func NewVoidFrame(h Header, rtr bool) Frame {
	return Frame{header: h, rtr: rtr}
}

// FrameFor builds a normal data frame for m sent by sourceID at normal
// major priority and the opcode's own minor priority.
func FrameFor(sourceID uint8, m Message) (Frame, error) {
	h, err := NewHeader(MajorNormal, m.Descriptor().Priority, sourceID)
	if err != nil {
		return Frame{}, err
	}
	return NewFrame(h, m, false), nil
}

func (f Frame) Header() Header { return f.header }

// Message returns the carried message; ok is false for a void frame.
func (f Frame) Message() (m Message, ok bool) {
	return f.msg, f.hasMessage
}

func (f Frame) IsRTR() bool { return f.rtr }

func (f Frame) IsNormal() bool { return !f.rtr }

// Equal compares header and message. The RTR flag is ignored.
func (f Frame) Equal(o Frame) bool {
	return f.header == o.header && f.hasMessage == o.hasMessage && f.msg == o.msg
}

// AppendWire appends the GridConnect form of f to dst.
func (f Frame) AppendWire(dst []byte) []byte {
	dst = append(dst, ':', 'S')
	dst = appendHexUpper(dst, f.header.high, f.header.low)
	if f.rtr {
		dst = append(dst, 'R')
	} else {
		dst = append(dst, 'N')
	}
	if f.hasMessage {
		dst = appendHexUpper(dst, f.msg.Bytes()...)
	}
	return append(dst, ';')
}

// EncodeFrame returns the GridConnect form of f, for example
// ":S0FE0N90000AFB41;".
func EncodeFrame(f Frame) []byte {
	return f.AppendWire(make([]byte, 0, 8+2*(1+MaxPayload)))
}

func (f Frame) String() string {
	kind := "N"
	if f.rtr {
		kind = "R"
	}
	if !f.hasMessage {
		return fmt.Sprintf("%s %s <void>", f.header, kind)
	}
	return fmt.Sprintf("%s %s %s", f.header, kind, f.msg)
}

const upperHex = "0123456789ABCDEF"

func appendHexUpper(dst []byte, b ...byte) []byte {
	for _, v := range b {
		dst = append(dst, upperHex[v>>4], upperHex[v&0x0F])
	}
	return dst
}

// decodeFrame builds a frame from the submatches of one wire match.
func decodeFrame(header, kind, body []byte) (Frame, error) {
	var reg [HeaderSize]byte
	if _, err := hex.Decode(reg[:], header); err != nil {
		return Frame{}, err
	}
	h, err := DecodeHeader(reg[:])
	if err != nil {
		return Frame{}, err
	}
	rtr := kind[0] == 'R'
	if len(body) == 0 {
		return NewVoidFrame(h, rtr), nil
	}
	raw := make([]byte, hex.DecodedLen(len(body)))
	if _, err := hex.Decode(raw, body); err != nil {
		return Frame{}, err
	}
	m, err := DecodeMessage(raw)
	if err != nil {
		return Frame{}, err
	}
	return NewFrame(h, m, rtr), nil
}
