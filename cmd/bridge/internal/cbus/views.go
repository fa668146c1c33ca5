package cbus

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// EngineReport is the decoded payload of a PLOC message.
type EngineReport struct {
	Session     uint8
	LocoAddress uint16
	Speed       uint8
	Direction   Direction
	Functions   [3]uint8
}

// EngineReport decodes a PLOC payload.
func (m Message) EngineReport() (EngineReport, error) {
	if err := m.expect(OpPLOC); err != nil {
		return EngineReport{}, err
	}
	r := EngineReport{
		Session:     m.data[0],
		LocoAddress: binary.BigEndian.Uint16(m.data[1:3]),
		Speed:       m.data[3] & 0x7F,
		Direction:   Direction(m.data[3] >> 7),
	}
	copy(r.Functions[:], m.data[4:7])
	return r, nil
}

// CommandStationReport is the decoded payload of a STAT message.
type CommandStationReport struct {
	Node     uint16
	Station  uint8
	Flags    CommandStationFlags
	RevMajor uint8
	RevMinor uint8
	Build    uint8
}

// CommandStationReport decodes a STAT payload.
func (m Message) CommandStationReport() (CommandStationReport, error) {
	if err := m.expect(OpSTAT); err != nil {
		return CommandStationReport{}, err
	}
	return CommandStationReport{
		Node:     binary.BigEndian.Uint16(m.data[0:2]),
		Station:  m.data[2],
		Flags:    CommandStationFlags(m.data[3]),
		RevMajor: m.data[4],
		RevMinor: m.data[5],
		Build:    m.data[6],
	}, nil
}

// AccessoryEvent is the decoded form of any accessory event opcode.
type AccessoryEvent struct {
	Action AccessoryAction
	Short  bool
	Node   uint16
	// Event is the event number of a long event or the device number of a
	// short one.
	Event uint16
	Data  []byte
}

// AccessoryEvent decodes ACON, ASOF, ARON2 and the other accessory event
// opcodes.
func (m Message) AccessoryEvent() (AccessoryEvent, error) {
	for _, f := range accessoryFamilies {
		for added, op := range f.ops {
			if op != m.op {
				continue
			}
			ev := AccessoryEvent{
				Action: f.action,
				Short:  f.short,
				Node:   binary.BigEndian.Uint16(m.data[0:2]),
				Event:  binary.BigEndian.Uint16(m.data[2:4]),
			}
			if added > 0 {
				ev.Data = append([]byte(nil), m.data[4:4+added]...)
			}
			return ev, nil
		}
	}
	return AccessoryEvent{}, fmt.Errorf("cbus: %s is not an accessory event", m.op)
}

// ModuleName decodes a NAME payload, dropping NUL padding.
func (m Message) ModuleName() (string, error) {
	if err := m.expect(OpNAME); err != nil {
		return "", err
	}
	return strings.TrimRight(string(m.data[:ModuleNameSize]), "\x00"), nil
}

// ProtocolError decodes the error carried by ERR or CMDERR. Codes outside
// the defined set are returned with an empty name.
func (m Message) ProtocolError() (Error, error) {
	var family ErrorFamily
	switch m.op {
	case OpERR:
		family = FamilyCommandStation
	case OpCMDERR:
		family = FamilyConfig
	default:
		return Error{}, fmt.Errorf("cbus: %s carries no error code", m.op)
	}
	code := m.data[2]
	if e, ok := LookupError(family, code); ok {
		return e, nil
	}
	return Error{Family: family, Code: code, Description: "unknown error"}, nil
}

// opcodes whose payload opens with a node number
var nodeNumberOpcodes = map[OpCode]bool{
	OpSNN: true, OpRQNN: true, OpNNREL: true, OpNNACK: true, OpNNLRN: true,
	OpNNULN: true, OpNNCLR: true, OpNNEVN: true, OpNERD: true, OpRQEVN: true,
	OpWRACK: true, OpBOOTM: true, OpENUM: true, OpCMDERR: true, OpEVNLF: true,
	OpNVRD: true, OpNENRD: true, OpRQNPN: true, OpNUMEV: true, OpCANID: true,
	OpEVULN: true, OpNVSET: true, OpNVANS: true, OpPARAN: true, OpREVAL: true,
	OpREQEV: true, OpNEVAL: true, OpPNN: true, OpEVLRN: true, OpEVANS: true,
	OpENRSP: true, OpEVLRNI: true, OpRQDAT: true, OpACDAT: true, OpARDAT: true,
	OpSTAT: true,
}

// NodeNumber returns the node number of node-addressed messages and of
// accessory events.
func (m Message) NodeNumber() (uint16, bool) {
	if nodeNumberOpcodes[m.op] {
		return binary.BigEndian.Uint16(m.data[0:2]), true
	}
	if ev, err := m.AccessoryEvent(); err == nil {
		return ev.Node, true
	}
	return 0, false
}

// opcodes whose payload opens with a session number
var sessionOpcodes = map[OpCode]bool{
	OpKLOC: true, OpQLOC: true, OpDKEEP: true, OpALOC: true, OpSTMOD: true,
	OpPCON: true, OpKCON: true, OpDSPD: true, OpDFLG: true, OpDFNON: true,
	OpDFNOF: true, OpSSTAT: true, OpDFUN: true, OpWCVO: true, OpWCVB: true,
	OpQCVS: true, OpPCVS: true, OpWCVS: true, OpPLOC: true,
}

// Session returns the engine session of DCC session messages.
func (m Message) Session() (uint8, bool) {
	if sessionOpcodes[m.op] {
		return m.data[0], true
	}
	return 0, false
}

func (m Message) expect(op OpCode) error {
	if m.op != op {
		return fmt.Errorf("cbus: expected %s message, got %s", op, m.op)
	}
	return nil
}
