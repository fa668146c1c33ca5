// Package slcan implements helpers for the serial CAN (SLCAN) textual
// protocol, used as an alternative client protocol for CBUS tools that
// speak plain CAN.
package slcan

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/cbus_bridge/cmd/bridge/internal/cbus"
	"github.com/example/cbus_bridge/cmd/bridge/internal/ebyte"
)

// Terminator ends every SLCAN line.
const Terminator = '\r'

// ErrMalformedFrame is returned for transmit lines that do not parse.
var ErrMalformedFrame = errors.New("slcan: malformed frame")

// EncodeCANFrame converts a CAN frame into its SLCAN line, terminator
// included.
func EncodeCANFrame(frame ebyte.Frame) string {
	var builder strings.Builder
	switch {
	case frame.Remote && frame.Extended:
		builder.WriteByte('R')
	case frame.Remote && !frame.Extended:
		builder.WriteByte('r')
	case !frame.Remote && frame.Extended:
		builder.WriteByte('T')
	default:
		builder.WriteByte('t')
	}

	if frame.Extended {
		builder.WriteString(fmt.Sprintf("%08X", frame.ID&0x1FFFFFFF))
	} else {
		builder.WriteString(fmt.Sprintf("%03X", frame.ID&0x7FF))
	}

	builder.WriteByte('0' + byte(frame.DLC&0x0F))

	if !frame.Remote {
		for i := uint8(0); i < frame.DLC && i < 8; i++ {
			builder.WriteString(fmt.Sprintf("%02X", frame.Data[i]))
		}
	}

	builder.WriteByte(Terminator)
	return builder.String()
}

// ParseCANFrame parses a t, T, r or R transmit line. A trailing
// terminator is optional.
func ParseCANFrame(line string) (ebyte.Frame, error) {
	line = strings.TrimSuffix(line, string(Terminator))
	if line == "" {
		return ebyte.Frame{}, fmt.Errorf("%w: empty line", ErrMalformedFrame)
	}

	var frame ebyte.Frame
	idLen := 3
	switch line[0] {
	case 't':
	case 'r':
		frame.Remote = true
	case 'T':
		frame.Extended = true
		idLen = 8
	case 'R':
		frame.Remote, frame.Extended = true, true
		idLen = 8
	default:
		return ebyte.Frame{}, fmt.Errorf("%w: %q is not a transmit command", ErrMalformedFrame, line[0])
	}
	if len(line) < 1+idLen+1 {
		return ebyte.Frame{}, fmt.Errorf("%w: %q too short", ErrMalformedFrame, line)
	}

	id, err := strconv.ParseUint(line[1:1+idLen], 16, 32)
	if err != nil {
		return ebyte.Frame{}, fmt.Errorf("%w: identifier: %v", ErrMalformedFrame, err)
	}
	if !frame.Extended && id > 0x7FF {
		return ebyte.Frame{}, fmt.Errorf("%w: standard identifier 0x%X", ErrMalformedFrame, id)
	}
	frame.ID = uint32(id) & 0x1FFFFFFF

	dlc := line[1+idLen]
	if dlc < '0' || dlc > '8' {
		return ebyte.Frame{}, fmt.Errorf("%w: length %q", ErrMalformedFrame, dlc)
	}
	frame.DLC = dlc - '0'

	data := line[2+idLen:]
	if frame.Remote {
		if data != "" {
			return ebyte.Frame{}, fmt.Errorf("%w: remote frame with data", ErrMalformedFrame)
		}
		return frame, nil
	}
	if len(data) != 2*int(frame.DLC) {
		return ebyte.Frame{}, fmt.Errorf("%w: %d data digits for length %d", ErrMalformedFrame, len(data), frame.DLC)
	}
	if _, err := hex.Decode(frame.Data[:frame.DLC], []byte(data)); err != nil {
		return ebyte.Frame{}, fmt.Errorf("%w: data: %v", ErrMalformedFrame, err)
	}
	return frame, nil
}

// EncodeFrame renders a CBUS frame as an SLCAN line. Remote frames carry
// only their length on SLCAN, so the message bytes of an RTR frame are not
// transmitted.
func EncodeFrame(f cbus.Frame) string {
	return EncodeCANFrame(ebyte.FromCBUS(f))
}

// DecodeFrame parses an SLCAN transmit line into a CBUS frame.
func DecodeFrame(line string) (cbus.Frame, error) {
	frame, err := ParseCANFrame(line)
	if err != nil {
		return cbus.Frame{}, err
	}
	if frame.Remote {
		frame.DLC = 0
	}
	return ebyte.ToCBUS(frame)
}
