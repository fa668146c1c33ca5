package cbus

import (
	"encoding/binary"
	"fmt"
)

// payload accumulates big-endian message fields.
type payload []byte

func (p payload) u8(v ...uint8) payload { return append(p, v...) }

func (p payload) u16(v uint16) payload { return binary.BigEndian.AppendUint16(p, v) }

// pack builds a message whose layout is fixed by the calling constructor.
func pack(op OpCode, p payload) Message {
	return MustMessage(op, p)
}

// General.

func NewAck() Message         { return pack(OpACK, nil) }
func NewNak() Message         { return pack(OpNAK, nil) }
func NewBusHalt() Message     { return pack(OpHLT, nil) }
func NewBusOn() Message       { return pack(OpBON, nil) }
func NewSystemReset() Message { return pack(OpARST, nil) }

// NewDebug carries a single development status byte.
func NewDebug(status uint8) Message { return pack(OpDBG1, payload{}.u8(status)) }

var extendedOpcodes = [...]OpCode{OpEXTC, OpEXTC1, OpEXTC2, OpEXTC3, OpEXTC4, OpEXTC5, OpEXTC6}

// NewExtended wraps an extended opcode and up to six data bytes, choosing
// EXTC through EXTC6 from the data length.
func NewExtended(ext uint8, data ...byte) (Message, error) {
	if len(data) >= len(extendedOpcodes) {
		return Message{}, fmt.Errorf("%w: extended opcode takes at most %d data bytes, got %d",
			ErrPayloadLengthMismatch, len(extendedOpcodes)-1, len(data))
	}
	return pack(extendedOpcodes[len(data)], payload{}.u8(ext).u8(data...)), nil
}

// Node configuration.

func NewRequestCommandStationStatus() Message { return pack(OpRSTAT, nil) }
func NewQueryNodes() Message                  { return pack(OpQNN, nil) }
func NewRequestNodeParameters() Message       { return pack(OpRQNP, nil) }
func NewRequestModuleName() Message           { return pack(OpRQMN, nil) }

func nodeOnly(op OpCode, node uint16) Message { return pack(op, payload{}.u16(node)) }

func NewSetNodeNumber(node uint16) Message     { return nodeOnly(OpSNN, node) }
func NewRequestNodeNumber(node uint16) Message { return nodeOnly(OpRQNN, node) }
func NewNodeNumberRelease(node uint16) Message { return nodeOnly(OpNNREL, node) }
func NewNodeNumberAck(node uint16) Message     { return nodeOnly(OpNNACK, node) }
func NewEnterLearnMode(node uint16) Message    { return nodeOnly(OpNNLRN, node) }
func NewExitLearnMode(node uint16) Message     { return nodeOnly(OpNNULN, node) }
func NewClearEvents(node uint16) Message       { return nodeOnly(OpNNCLR, node) }
func NewReadEventSpace(node uint16) Message    { return nodeOnly(OpNNEVN, node) }
func NewReadEvents(node uint16) Message        { return nodeOnly(OpNERD, node) }
func NewRequestEventCount(node uint16) Message { return nodeOnly(OpRQEVN, node) }
func NewWriteAck(node uint16) Message          { return nodeOnly(OpWRACK, node) }
func NewBootMode(node uint16) Message          { return nodeOnly(OpBOOTM, node) }
func NewEnumerate(node uint16) Message         { return nodeOnly(OpENUM, node) }

// NewConfigError reports a configuration failure from a node (CMDERR).
func NewConfigError(node uint16, e Error) (Message, error) {
	if e.Family != FamilyConfig {
		return Message{}, fmt.Errorf("cbus: CMDERR needs a %s error, got %s", FamilyConfig, e.Family)
	}
	return pack(OpCMDERR, payload{}.u16(node).u8(e.Code)), nil
}

func NewEventSpaceLeft(node uint16, space uint8) Message {
	return pack(OpEVNLF, payload{}.u16(node).u8(space))
}

func NewReadNodeVariable(node uint16, index uint8) Message {
	return pack(OpNVRD, payload{}.u16(node).u8(index))
}

func NewReadEventByIndex(node uint16, index uint8) Message {
	return pack(OpNENRD, payload{}.u16(node).u8(index))
}

func NewRequestParameter(node uint16, index uint8) Message {
	return pack(OpRQNPN, payload{}.u16(node).u8(index))
}

// NewStoredEventCount answers RQEVN with the number of stored events.
func NewStoredEventCount(node uint16, count uint8) Message {
	return pack(OpNUMEV, payload{}.u16(node).u8(count))
}

// NewSetCANID forces a node onto a specific CAN id.
func NewSetCANID(node uint16, canID uint8) (Message, error) {
	if canID > MaxSourceID {
		return Message{}, fmt.Errorf("%w: %d > %d", ErrInvalidIdentifier, canID, MaxSourceID)
	}
	return pack(OpCANID, payload{}.u16(node).u8(canID)), nil
}

func NewUnlearnEvent(node, event uint16) Message {
	return pack(OpEVULN, payload{}.u16(node).u16(event))
}

func NewSetNodeVariable(node uint16, index, value uint8) Message {
	return pack(OpNVSET, payload{}.u16(node).u8(index, value))
}

// NewNodeVariableAnswer answers NVRD.
func NewNodeVariableAnswer(node uint16, index, value uint8) Message {
	return pack(OpNVANS, payload{}.u16(node).u8(index, value))
}

// NewParameterAnswer answers RQNPN.
func NewParameterAnswer(node uint16, index, value uint8) Message {
	return pack(OpPARAN, payload{}.u16(node).u8(index, value))
}

func NewReadEventVariable(node uint16, eventIndex, variableIndex uint8) Message {
	return pack(OpREVAL, payload{}.u16(node).u8(eventIndex, variableIndex))
}

// NewRequestEventVariable reads an event variable while in learn mode.
func NewRequestEventVariable(node, event uint16, variableIndex uint8) Message {
	return pack(OpREQEV, payload{}.u16(node).u16(event).u8(variableIndex))
}

// NewEventVariableAnswer answers REVAL.
func NewEventVariableAnswer(node uint16, eventIndex, variableIndex, value uint8) Message {
	return pack(OpNEVAL, payload{}.u16(node).u8(eventIndex, variableIndex, value))
}

// NewNodeInfo answers QNN.
func NewNodeInfo(node uint16, manufacturer, module uint8, flags NodeFlags) Message {
	return pack(OpPNN, payload{}.u16(node).u8(manufacturer, module, uint8(flags)))
}

// NewLearnEvent teaches an event variable in learn mode.
func NewLearnEvent(node, event uint16, variableIndex, value uint8) Message {
	return pack(OpEVLRN, payload{}.u16(node).u16(event).u8(variableIndex, value))
}

// NewEventVariableResponse answers REQEV.
func NewEventVariableResponse(node, event uint16, variableIndex, value uint8) Message {
	return pack(OpEVANS, payload{}.u16(node).u16(event).u8(variableIndex, value))
}

// ModuleNameSize is the fixed width of a NAME payload.
const ModuleNameSize = 7

// NewModuleName answers RQMN. Names longer than seven bytes are cut on the
// right; shorter names are padded with NUL bytes.
func NewModuleName(name string) (Message, error) {
	var p [ModuleNameSize]byte
	for i := 0; i < len(name) && i < ModuleNameSize; i++ {
		if name[i] > 0x7F {
			return Message{}, fmt.Errorf("cbus: module name %q is not ASCII", name)
		}
		p[i] = name[i]
	}
	return pack(OpNAME, p[:]), nil
}

// NewNodeParameters answers RQNP with the first seven node parameters.
func NewNodeParameters(params [7]uint8) Message {
	return pack(OpPARAMS, params[:])
}

// NewEventReadResponse answers NERD and NENRD with one stored event.
func NewEventReadResponse(node, eventNode, event uint16, index uint8) Message {
	return pack(OpENRSP, payload{}.u16(node).u16(eventNode).u16(event).u8(index))
}

// NewLearnEventIndexed teaches an event variable by event index.
func NewLearnEventIndexed(node, event uint16, eventIndex, variableIndex, value uint8) Message {
	return pack(OpEVLRNI, payload{}.u16(node).u16(event).u8(eventIndex, variableIndex, value))
}

// Accessories.

// AccessoryAction is the meaning of an accessory event opcode.
type AccessoryAction uint8

const (
	AccessoryOn AccessoryAction = iota
	AccessoryOff
	AccessoryRequest
	AccessoryResponseOn
	AccessoryResponseOff
)

func (a AccessoryAction) String() string {
	switch a {
	case AccessoryOn:
		return "on"
	case AccessoryOff:
		return "off"
	case AccessoryRequest:
		return "request"
	case AccessoryResponseOn:
		return "response-on"
	case AccessoryResponseOff:
		return "response-off"
	default:
		return fmt.Sprintf("AccessoryAction(%d)", uint8(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a AccessoryAction) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

type accessoryFamily struct {
	action AccessoryAction
	short  bool
	ops    []OpCode // indexed by number of added data bytes
}

var accessoryFamilies = []accessoryFamily{
	{AccessoryOn, false, []OpCode{OpACON, OpACON1, OpACON2, OpACON3}},
	{AccessoryOff, false, []OpCode{OpACOF, OpACOF1, OpACOF2, OpACOF3}},
	{AccessoryRequest, false, []OpCode{OpAREQ}},
	{AccessoryResponseOn, false, []OpCode{OpARON, OpARON1, OpARON2, OpARON3}},
	{AccessoryResponseOff, false, []OpCode{OpAROF, OpAROF1, OpAROF2, OpAROF3}},
	{AccessoryOn, true, []OpCode{OpASON, OpASON1, OpASON2, OpASON3}},
	{AccessoryOff, true, []OpCode{OpASOF, OpASOF1, OpASOF2, OpASOF3}},
	{AccessoryRequest, true, []OpCode{OpASRQ}},
	{AccessoryResponseOn, true, []OpCode{OpARSON, OpARSON1, OpARSON2, OpARSON3}},
	{AccessoryResponseOff, true, []OpCode{OpARSOF, OpARSOF1, OpARSOF2, OpARSOF3}},
}

// NewAccessoryEvent builds any accessory event. Long events carry the
// producing node and event number; short events carry the node and a
// device number. Up to three added data bytes select the ACON1..ACON3
// style variants.
func NewAccessoryEvent(action AccessoryAction, short bool, node, event uint16, data ...byte) (Message, error) {
	for _, f := range accessoryFamilies {
		if f.action != action || f.short != short {
			continue
		}
		if len(data) >= len(f.ops) {
			return Message{}, fmt.Errorf("%w: %s accessory %s takes at most %d data bytes, got %d",
				ErrPayloadLengthMismatch, eventLength(short), action, len(f.ops)-1, len(data))
		}
		return pack(f.ops[len(data)], payload{}.u16(node).u16(event).u8(data...)), nil
	}
	return Message{}, fmt.Errorf("cbus: unknown accessory action %s", action)
}

func eventLength(short bool) string {
	if short {
		return "short"
	}
	return "long"
}

func NewAccessoryLongEventOn(node, event uint16) Message {
	return pack(OpACON, payload{}.u16(node).u16(event))
}

func NewAccessoryLongEventOff(node, event uint16) Message {
	return pack(OpACOF, payload{}.u16(node).u16(event))
}

func NewAccessoryShortEventOn(node, device uint16) Message {
	return pack(OpASON, payload{}.u16(node).u16(device))
}

func NewAccessoryShortEventOff(node, device uint16) Message {
	return pack(OpASOF, payload{}.u16(node).u16(device))
}

func NewRequestNodeData(node uint16) Message {
	return nodeOnly(OpRQDAT, node)
}

func NewRequestDeviceData(device uint16) Message {
	return pack(OpRQDDS, payload{}.u16(device))
}

// NewFastClock carries the layout clock: minutes, hours, weekday and month
// packed in one byte, clock divider, day of month and temperature.
func NewFastClock(minutes, hours, weekdayMonth, divider, monthDay, temperature uint8) Message {
	return pack(OpFCLK, payload{}.u8(minutes, hours, weekdayMonth, divider, monthDay, temperature))
}

// NewAccessoryData builds a node data event (ACDAT) or response (ARDAT).
func NewAccessoryData(response bool, node uint16, data [5]byte) Message {
	op := OpACDAT
	if response {
		op = OpARDAT
	}
	return pack(op, payload{}.u16(node).u8(data[:]...))
}

// NewDeviceData builds a device data event (DDES) or response (DDRS).
func NewDeviceData(response bool, device uint16, data [5]byte) Message {
	op := OpDDES
	if response {
		op = OpDDRS
	}
	return pack(op, payload{}.u16(device).u8(data[:]...))
}

// DCC.

func NewTrackOff() Message             { return pack(OpTOF, nil) }
func NewTrackOn() Message              { return pack(OpTON, nil) }
func NewEmergencyStop() Message        { return pack(OpESTOP, nil) }
func NewRequestTrackOff() Message      { return pack(OpRTOF, nil) }
func NewRequestTrackOn() Message       { return pack(OpRTON, nil) }
func NewRequestEmergencyStop() Message { return pack(OpRESTP, nil) }

func NewReleaseEngine(session uint8) Message    { return pack(OpKLOC, payload{}.u8(session)) }
func NewQueryEngine(session uint8) Message      { return pack(OpQLOC, payload{}.u8(session)) }
func NewSessionKeepAlive(session uint8) Message { return pack(OpDKEEP, payload{}.u8(session)) }

func NewRequestEngineSession(locoAddress uint16) Message {
	return pack(OpRLOC, payload{}.u16(locoAddress))
}

func NewQueryConsist(consist, index uint8) Message {
	return pack(OpQCON, payload{}.u8(consist, index))
}

func NewAllocateLoco(session, allocation uint8) Message {
	return pack(OpALOC, payload{}.u8(session, allocation))
}

func NewSetSessionMode(session, mode uint8) Message {
	return pack(OpSTMOD, payload{}.u8(session, mode))
}

func NewConsistAdd(session, consist uint8) Message {
	return pack(OpPCON, payload{}.u8(session, consist))
}

func NewConsistRemove(session, consist uint8) Message {
	return pack(OpKCON, payload{}.u8(session, consist))
}

// Direction is the travel direction bit of a speed byte.
type Direction uint8

const (
	Reverse Direction = 0
	Forward Direction = 1
)

func speedDirection(speed uint8, dir Direction) uint8 {
	return speed&0x7F | uint8(dir&0x01)<<7
}

// NewSetSpeed sets a session's speed step (0..127) and direction.
func NewSetSpeed(session, speed uint8, dir Direction) Message {
	return pack(OpDSPD, payload{}.u8(session, speedDirection(speed, dir)))
}

func NewSetEngineFlags(session, flags uint8) Message {
	return pack(OpDFLG, payload{}.u8(session, flags))
}

func NewFunctionOn(session, function uint8) Message {
	return pack(OpDFNON, payload{}.u8(session, function))
}

func NewFunctionOff(session, function uint8) Message {
	return pack(OpDFNOF, payload{}.u8(session, function))
}

func NewServiceModeStatus(session, status uint8) Message {
	return pack(OpSSTAT, payload{}.u8(session, status))
}

// NewSetFunctions sets a whole function range in DCC format.
func NewSetFunctions(session, functionRange, value uint8) Message {
	return pack(OpDFUN, payload{}.u8(session, functionRange, value))
}

// NewGetEngineSession asks for a session with explicit steal/share flags.
func NewGetEngineSession(locoAddress uint16, flags uint8) Message {
	return pack(OpGLOC, payload{}.u16(locoAddress).u8(flags))
}

// NewCommandStationError reports a command station failure (ERR).
func NewCommandStationError(locoAddress uint16, e Error) (Message, error) {
	if e.Family != FamilyCommandStation {
		return Message{}, fmt.Errorf("cbus: ERR needs a %s error, got %s", FamilyCommandStation, e.Family)
	}
	return pack(OpERR, payload{}.u16(locoAddress).u8(e.Code)), nil
}

var dccPacketOpcodes = map[int]OpCode{3: OpRDCC3, 4: OpRDCC4, 5: OpRDCC5, 6: OpRDCC6}

// NewDCCPacket asks the command station to send a raw DCC packet of three
// to six bytes, repeated the given number of times.
func NewDCCPacket(repeat uint8, packet ...byte) (Message, error) {
	op, ok := dccPacketOpcodes[len(packet)]
	if !ok {
		return Message{}, fmt.Errorf("%w: DCC packet must be 3 to 6 bytes, got %d",
			ErrPayloadLengthMismatch, len(packet))
	}
	return pack(op, payload{}.u8(repeat).u8(packet...)), nil
}

func NewWriteCVOps(session uint8, cv uint16, value uint8) Message {
	return pack(OpWCVO, payload{}.u8(session).u16(cv).u8(value))
}

func NewWriteCVOpsBit(session uint8, cv uint16, value uint8) Message {
	return pack(OpWCVB, payload{}.u8(session).u16(cv).u8(value))
}

func NewReadCV(session uint8, cv uint16, mode uint8) Message {
	return pack(OpQCVS, payload{}.u8(session).u16(cv).u8(mode))
}

func NewReportCV(session uint8, cv uint16, value uint8) Message {
	return pack(OpPCVS, payload{}.u8(session).u16(cv).u8(value))
}

func NewWriteCVService(session uint8, cv uint16, mode, value uint8) Message {
	return pack(OpWCVS, payload{}.u8(session).u16(cv).u8(mode, value))
}

func NewWriteCVOpsByAddress(locoAddress, cv uint16, mode, value uint8) Message {
	return pack(OpWCVOA, payload{}.u16(locoAddress).u16(cv).u8(mode, value))
}

// NewEngineReport answers a session request (PLOC). Missing function
// bytes are zero; more than three is an error.
func NewEngineReport(session uint8, locoAddress uint16, speed uint8, dir Direction, functions ...uint8) (Message, error) {
	if len(functions) > 3 {
		return Message{}, fmt.Errorf("%w: PLOC carries 3 function bytes, got %d",
			ErrPayloadLengthMismatch, len(functions))
	}
	var fns [3]uint8
	copy(fns[:], functions)
	return pack(OpPLOC, payload{}.u8(session).u16(locoAddress).u8(speedDirection(speed, dir)).u8(fns[:]...)), nil
}

// NewCommandStationReport is the STAT status report.
func NewCommandStationReport(node uint16, station uint8, flags CommandStationFlags, revMajor, revMinor, build uint8) Message {
	return pack(OpSTAT, payload{}.u16(node).u8(station, uint8(flags), revMajor, revMinor, build))
}
