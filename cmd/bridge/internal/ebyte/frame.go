// Package ebyte contains helpers for working with the proprietary
// EByte CAN-to-Ethernet frame format and for carrying CBUS frames over it.
package ebyte

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/example/cbus_bridge/cmd/bridge/internal/cbus"
)

// FrameSize defines the fixed size of the binary frames exchanged with the
// EByte adapter.
const FrameSize = 13

const (
	flagRemote   = 0x40
	flagExtended = 0x80
)

var (
	// ErrFrameSize is returned for input that is not exactly FrameSize bytes.
	ErrFrameSize = errors.New("ebyte: invalid frame size")
	// ErrDLC is returned for a data length above eight.
	ErrDLC = errors.New("ebyte: invalid DLC")
	// ErrExtendedFrame is returned when a 29-bit frame is offered as CBUS.
	ErrExtendedFrame = errors.New("ebyte: extended frames do not carry CBUS")
)

// Frame represents a CAN frame in the EByte binary wire format.
type Frame struct {
	ID       uint32
	Extended bool
	Remote   bool
	DLC      uint8
	Data     [8]byte
}

// ParseFrame converts the 13-byte binary frame emitted by the adapter into a
// structured Frame instance.
func ParseFrame(raw []byte) (Frame, error) {
	if len(raw) != FrameSize {
		return Frame{}, fmt.Errorf("%w: %d", ErrFrameSize, len(raw))
	}

	header := raw[0]

	frame := Frame{}
	frame.DLC = header & 0x0F
	if frame.DLC > 8 {
		return Frame{}, fmt.Errorf("%w: %d", ErrDLC, frame.DLC)
	}
	frame.Remote = header&flagRemote != 0
	frame.Extended = header&flagExtended != 0

	frame.ID = binary.BigEndian.Uint32(raw[1:5])
	copy(frame.Data[:], raw[5:])
	return frame, nil
}

// SerializeFrame converts a structured Frame into the 13-byte binary
// representation expected by the adapter.
func SerializeFrame(frame Frame) ([]byte, error) {
	if frame.DLC > 8 {
		return nil, fmt.Errorf("%w: %d", ErrDLC, frame.DLC)
	}

	buf := make([]byte, FrameSize)
	header := frame.DLC & 0x0F
	if frame.Remote {
		header |= flagRemote
	}
	if frame.Extended {
		header |= flagExtended
	}
	buf[0] = header
	binary.BigEndian.PutUint32(buf[1:5], frame.ID)
	copy(buf[5:], frame.Data[:])
	return buf, nil
}

// FromCBUS places a CBUS frame on the bus as a standard CAN frame: the
// header becomes the 11-bit identifier and the message fills the data
// bytes.
func FromCBUS(f cbus.Frame) Frame {
	frame := Frame{
		ID:     uint32(f.Header().CANID()),
		Remote: f.IsRTR(),
	}
	if m, ok := f.Message(); ok {
		frame.DLC = uint8(copy(frame.Data[:], m.Bytes()))
	}
	return frame
}

// ToCBUS interprets a standard CAN frame as CBUS. A zero-length frame is a
// void frame.
func ToCBUS(frame Frame) (cbus.Frame, error) {
	if frame.Extended {
		return cbus.Frame{}, fmt.Errorf("%w: id 0x%08X", ErrExtendedFrame, frame.ID)
	}
	if frame.DLC > 8 {
		return cbus.Frame{}, fmt.Errorf("%w: %d", ErrDLC, frame.DLC)
	}
	h := cbus.HeaderFromCANID(uint16(frame.ID & 0x7FF))
	if frame.DLC == 0 {
		return cbus.NewVoidFrame(h, frame.Remote), nil
	}
	m, err := cbus.DecodeMessage(frame.Data[:frame.DLC])
	if err != nil {
		return cbus.Frame{}, err
	}
	return cbus.NewFrame(h, m, frame.Remote), nil
}
