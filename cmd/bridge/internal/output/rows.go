package output

import (
	"fmt"

	"github.com/example/cbus_bridge/cmd/bridge/internal/cbus"
)

// FrameRow is the printable form of a decoded frame.
type FrameRow struct {
	Wire    string             `json:"wire" yaml:"wire" table:"WIRE"`
	Major   cbus.MajorPriority `json:"major" yaml:"major" table:"MAJOR"`
	Minor   cbus.MinorPriority `json:"minor" yaml:"minor" table:"MINOR"`
	Source  uint8              `json:"source" yaml:"source" table:"SOURCE"`
	RTR     bool               `json:"rtr" yaml:"rtr" table:"RTR"`
	Opcode  string             `json:"opcode,omitempty" yaml:"opcode,omitempty" table:"OPCODE"`
	Payload string             `json:"payload,omitempty" yaml:"payload,omitempty" table:"PAYLOAD"`
	Kind    string             `json:"kind,omitempty" yaml:"kind,omitempty" table:"KIND"`
}

func Frames(frames []cbus.Frame) []FrameRow {
	rows := make([]FrameRow, 0, len(frames))
	for _, f := range frames {
		h := f.Header()
		row := FrameRow{
			Wire:   string(cbus.EncodeFrame(f)),
			Major:  h.Major(),
			Minor:  h.Minor(),
			Source: h.SourceID(),
			RTR:    f.IsRTR(),
		}
		if m, ok := f.Message(); ok {
			row.Opcode = m.OpCode().String()
			row.Payload = fmt.Sprintf("%X", m.Payload())
			row.Kind = m.Descriptor().Kind.String()
		}
		rows = append(rows, row)
	}
	return rows
}

// OpcodeRow is the printable form of a catalog entry.
type OpcodeRow struct {
	Code        string             `json:"code" yaml:"code" table:"CODE"`
	Name        string             `json:"name" yaml:"name" table:"NAME"`
	Bytes       int                `json:"bytes" yaml:"bytes" table:"BYTES"`
	Priority    cbus.MinorPriority `json:"priority" yaml:"priority" table:"PRIORITY"`
	Kind        cbus.Kind          `json:"kind" yaml:"kind" table:"KIND"`
	Description string             `json:"description" yaml:"description" table:"DESCRIPTION"`
}

func Opcodes(descs []cbus.Descriptor) []OpcodeRow {
	rows := make([]OpcodeRow, 0, len(descs))
	for _, d := range descs {
		rows = append(rows, OpcodeRow{
			Code:        fmt.Sprintf("0x%02X", byte(d.Code)),
			Name:        d.Name,
			Bytes:       d.ByteCount,
			Priority:    d.Priority,
			Kind:        d.Kind,
			Description: d.Description,
		})
	}
	return rows
}
