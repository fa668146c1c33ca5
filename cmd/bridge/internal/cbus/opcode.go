package cbus

import (
	"fmt"
	"sort"
	"strings"
)

// OpCode is the first byte of a CBUS message. Its top three bits give the
// number of payload bytes that follow.
type OpCode byte

// Kind classifies an opcode for routing by consumers of decoded messages.
type Kind uint8

const (
	KindGeneral Kind = iota
	KindConfig
	KindAccessory
	KindDCC
)

func (k Kind) String() string {
	switch k {
	case KindGeneral:
		return "general"
	case KindConfig:
		return "config"
	case KindAccessory:
		return "accessory"
	case KindDCC:
		return "dcc"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// CBUS 6c opcodes.
const (
	OpACK    OpCode = 0x00
	OpNAK    OpCode = 0x01
	OpHLT    OpCode = 0x02
	OpBON    OpCode = 0x03
	OpTOF    OpCode = 0x04
	OpTON    OpCode = 0x05
	OpESTOP  OpCode = 0x06
	OpARST   OpCode = 0x07
	OpRTOF   OpCode = 0x08
	OpRTON   OpCode = 0x09
	OpRESTP  OpCode = 0x0A
	OpRSTAT  OpCode = 0x0C
	OpQNN    OpCode = 0x0D
	OpRQNP   OpCode = 0x10
	OpRQMN   OpCode = 0x11
	OpKLOC   OpCode = 0x21
	OpQLOC   OpCode = 0x22
	OpDKEEP  OpCode = 0x23
	OpDBG1   OpCode = 0x30
	OpEXTC   OpCode = 0x3F
	OpRLOC   OpCode = 0x40
	OpQCON   OpCode = 0x41
	OpSNN    OpCode = 0x42
	OpALOC   OpCode = 0x43
	OpSTMOD  OpCode = 0x44
	OpPCON   OpCode = 0x45
	OpKCON   OpCode = 0x46
	OpDSPD   OpCode = 0x47
	OpDFLG   OpCode = 0x48
	OpDFNON  OpCode = 0x49
	OpDFNOF  OpCode = 0x4A
	OpSSTAT  OpCode = 0x4C
	OpRQNN   OpCode = 0x50
	OpNNREL  OpCode = 0x51
	OpNNACK  OpCode = 0x52
	OpNNLRN  OpCode = 0x53
	OpNNULN  OpCode = 0x54
	OpNNCLR  OpCode = 0x55
	OpNNEVN  OpCode = 0x56
	OpNERD   OpCode = 0x57
	OpRQEVN  OpCode = 0x58
	OpWRACK  OpCode = 0x59
	OpRQDAT  OpCode = 0x5A
	OpRQDDS  OpCode = 0x5B
	OpBOOTM  OpCode = 0x5C
	OpENUM   OpCode = 0x5D
	OpEXTC1  OpCode = 0x5F
	OpDFUN   OpCode = 0x60
	OpGLOC   OpCode = 0x61
	OpERR    OpCode = 0x63
	OpCMDERR OpCode = 0x6F
	OpEVNLF  OpCode = 0x70
	OpNVRD   OpCode = 0x71
	OpNENRD  OpCode = 0x72
	OpRQNPN  OpCode = 0x73
	OpNUMEV  OpCode = 0x74
	OpCANID  OpCode = 0x75
	OpEXTC2  OpCode = 0x7F
	OpRDCC3  OpCode = 0x80
	OpWCVO   OpCode = 0x82
	OpWCVB   OpCode = 0x83
	OpQCVS   OpCode = 0x84
	OpPCVS   OpCode = 0x85
	OpACON   OpCode = 0x90
	OpACOF   OpCode = 0x91
	OpAREQ   OpCode = 0x92
	OpARON   OpCode = 0x93
	OpAROF   OpCode = 0x94
	OpEVULN  OpCode = 0x95
	OpNVSET  OpCode = 0x96
	OpNVANS  OpCode = 0x97
	OpASON   OpCode = 0x98
	OpASOF   OpCode = 0x99
	OpASRQ   OpCode = 0x9A
	OpPARAN  OpCode = 0x9B
	OpREVAL  OpCode = 0x9C
	OpARSON  OpCode = 0x9D
	OpARSOF  OpCode = 0x9E
	OpEXTC3  OpCode = 0x9F
	OpRDCC4  OpCode = 0xA0
	OpWCVS   OpCode = 0xA2
	OpACON1  OpCode = 0xB0
	OpACOF1  OpCode = 0xB1
	OpREQEV  OpCode = 0xB2
	OpARON1  OpCode = 0xB3
	OpAROF1  OpCode = 0xB4
	OpNEVAL  OpCode = 0xB5
	OpPNN    OpCode = 0xB6
	OpASON1  OpCode = 0xB8
	OpASOF1  OpCode = 0xB9
	OpARSON1 OpCode = 0xBD
	OpARSOF1 OpCode = 0xBE
	OpEXTC4  OpCode = 0xBF
	OpRDCC5  OpCode = 0xC0
	OpWCVOA  OpCode = 0xC1
	OpFCLK   OpCode = 0xCF
	OpACON2  OpCode = 0xD0
	OpACOF2  OpCode = 0xD1
	OpEVLRN  OpCode = 0xD2
	OpEVANS  OpCode = 0xD3
	OpARON2  OpCode = 0xD4
	OpAROF2  OpCode = 0xD5
	OpASON2  OpCode = 0xD8
	OpASOF2  OpCode = 0xD9
	OpARSON2 OpCode = 0xDD
	OpARSOF2 OpCode = 0xDE
	OpEXTC5  OpCode = 0xDF
	OpRDCC6  OpCode = 0xE0
	OpPLOC   OpCode = 0xE1
	OpNAME   OpCode = 0xE2
	OpSTAT   OpCode = 0xE3
	OpPARAMS OpCode = 0xEF
	OpACON3  OpCode = 0xF0
	OpACOF3  OpCode = 0xF1
	OpENRSP  OpCode = 0xF2
	OpARON3  OpCode = 0xF3
	OpAROF3  OpCode = 0xF4
	OpEVLRNI OpCode = 0xF5
	OpACDAT  OpCode = 0xF6
	OpARDAT  OpCode = 0xF7
	OpASON3  OpCode = 0xF8
	OpASOF3  OpCode = 0xF9
	OpDDES   OpCode = 0xFA
	OpDDRS   OpCode = 0xFB
	OpARSON3 OpCode = 0xFD
	OpARSOF3 OpCode = 0xFE
	OpEXTC6  OpCode = 0xFF
)

// Descriptor is the catalog entry for one opcode.
type Descriptor struct {
	Code        OpCode
	Name        string
	ByteCount   int
	Priority    MinorPriority
	Kind        Kind
	Description string
}

func (d Descriptor) IsGeneral() bool   { return d.Kind == KindGeneral }
func (d Descriptor) IsConfig() bool    { return d.Kind == KindConfig }
func (d Descriptor) IsAccessory() bool { return d.Kind == KindAccessory }
func (d Descriptor) IsDCC() bool       { return d.Kind == KindDCC }

var catalogEntries = []Descriptor{
	{OpACK, "ACK", 0, MinorNormal, KindGeneral, "General acknowledgement, affirmative"},
	{OpNAK, "NAK", 0, MinorNormal, KindGeneral, "General acknowledgement, negative"},
	{OpHLT, "HLT", 0, MinorHigh, KindGeneral, "CAN bus not available or busy"},
	{OpBON, "BON", 0, MinorAboveNormal, KindGeneral, "CAN bus available"},
	{OpTOF, "TOF", 0, MinorAboveNormal, KindDCC, "DCC track off"},
	{OpTON, "TON", 0, MinorAboveNormal, KindDCC, "DCC track on"},
	{OpESTOP, "ESTOP", 0, MinorAboveNormal, KindDCC, "Emergency stop all"},
	{OpARST, "ARST", 0, MinorHigh, KindGeneral, "System reset"},
	{OpRTOF, "RTOF", 0, MinorAboveNormal, KindDCC, "Request track off"},
	{OpRTON, "RTON", 0, MinorAboveNormal, KindDCC, "Request track on"},
	{OpRESTP, "RESTP", 0, MinorHigh, KindDCC, "Request emergency stop all"},
	{OpRSTAT, "RSTAT", 0, MinorNormal, KindConfig, "Query status of command station"},
	{OpQNN, "QNN", 0, MinorLow, KindConfig, "Query node status"},
	{OpRQNP, "RQNP", 0, MinorLow, KindConfig, "Request node parameters"},
	{OpRQMN, "RQMN", 0, MinorNormal, KindConfig, "Request module name"},
	{OpKLOC, "KLOC", 1, MinorNormal, KindDCC, "Release engine"},
	{OpQLOC, "QLOC", 1, MinorNormal, KindDCC, "Query engine"},
	{OpDKEEP, "DKEEP", 1, MinorNormal, KindDCC, "Session keepalive from CAB"},
	{OpDBG1, "DBG1", 1, MinorNormal, KindGeneral, "Debug, development only"},
	{OpEXTC, "EXTC", 1, MinorLow, KindGeneral, "Extended OPC with no added bytes"},
	{OpRLOC, "RLOC", 2, MinorNormal, KindDCC, "Request engine session"},
	{OpQCON, "QCON", 2, MinorNormal, KindDCC, "Query consist"},
	{OpSNN, "SNN", 2, MinorLow, KindConfig, "Set node number (node in 'setup')"},
	{OpALOC, "ALOC", 2, MinorNormal, KindDCC, "Allocate loco to assignment or activity"},
	{OpSTMOD, "STMOD", 2, MinorNormal, KindDCC, "Set CAB session mode"},
	{OpPCON, "PCON", 2, MinorNormal, KindDCC, "Set loco into consist (advanced)"},
	{OpKCON, "KCON", 2, MinorNormal, KindDCC, "Remove loco from consist"},
	{OpDSPD, "DSPD", 2, MinorNormal, KindDCC, "Set engine speed and direction"},
	{OpDFLG, "DFLG", 2, MinorNormal, KindDCC, "Set engine (session) flags"},
	{OpDFNON, "DFNON", 2, MinorNormal, KindDCC, "Set engine function ON"},
	{OpDFNOF, "DFNOF", 2, MinorNormal, KindDCC, "Set engine function OFF"},
	{OpSSTAT, "SSTAT", 2, MinorNormal, KindDCC, "Service mode status"},
	{OpRQNN, "RQNN", 2, MinorLow, KindConfig, "Request node number"},
	{OpNNREL, "NNREL", 2, MinorLow, KindConfig, "Node number release"},
	{OpNNACK, "NNACK", 2, MinorLow, KindConfig, "Node number acknowledge (node in 'setup')"},
	{OpNNLRN, "NNLRN", 2, MinorLow, KindConfig, "Set node into learn mode"},
	{OpNNULN, "NNULN", 2, MinorLow, KindConfig, "Release node from learn mode"},
	{OpNNCLR, "NNCLR", 2, MinorLow, KindConfig, "Clear all events from a node"},
	{OpNNEVN, "NNEVN", 2, MinorLow, KindConfig, "Read number of events available"},
	{OpNERD, "NERD", 2, MinorLow, KindConfig, "Read back all events in a node"},
	{OpRQEVN, "RQEVN", 2, MinorLow, KindConfig, "Read number of stored events in node"},
	{OpWRACK, "WRACK", 2, MinorLow, KindConfig, "Write acknowledge"},
	{OpRQDAT, "RQDAT", 2, MinorLow, KindAccessory, "Request node data event"},
	{OpRQDDS, "RQDDS", 2, MinorLow, KindAccessory, "Request device data (short)"},
	{OpBOOTM, "BOOTM", 2, MinorLow, KindConfig, "Put node into 'bootloader' mode"},
	{OpENUM, "ENUM", 2, MinorLow, KindConfig, "Force self enumeration of CAN_ID"},
	{OpEXTC1, "EXTC1", 2, MinorLow, KindGeneral, "Extended OPC with one added byte"},
	{OpDFUN, "DFUN", 3, MinorNormal, KindDCC, "Set engine functions (DCC format)"},
	{OpGLOC, "GLOC", 3, MinorNormal, KindDCC, "Get engine session for dispatching"},
	{OpERR, "ERR", 3, MinorNormal, KindDCC, "Command station error report"},
	{OpCMDERR, "CMDERR", 3, MinorLow, KindConfig, "Error message during configuration"},
	{OpEVNLF, "EVNLF", 3, MinorLow, KindConfig, "Event space left"},
	{OpNVRD, "NVRD", 3, MinorLow, KindConfig, "Request read of node variable"},
	{OpNENRD, "NENRD", 3, MinorLow, KindConfig, "Request read of events by index"},
	{OpRQNPN, "RQNPN", 3, MinorLow, KindConfig, "Request read of node parameter by index"},
	{OpNUMEV, "NUMEV", 3, MinorLow, KindConfig, "Number of events stored in node"},
	{OpCANID, "CANID", 3, MinorLow, KindConfig, "Force a specific CAN_ID"},
	{OpEXTC2, "EXTC2", 3, MinorLow, KindGeneral, "Extended OPC with two added bytes"},
	{OpRDCC3, "RDCC3", 4, MinorNormal, KindDCC, "Request 3 byte DCC packet"},
	{OpWCVO, "WCVO", 4, MinorNormal, KindDCC, "Write CV in OPS mode (byte)"},
	{OpWCVB, "WCVB", 4, MinorNormal, KindDCC, "Write CV in OPS mode (bit)"},
	{OpQCVS, "QCVS", 4, MinorNormal, KindDCC, "Request read CV (service mode)"},
	{OpPCVS, "PCVS", 4, MinorNormal, KindDCC, "Report CV (service mode)"},
	{OpACON, "ACON", 4, MinorLow, KindAccessory, "Accessory ON event (long)"},
	{OpACOF, "ACOF", 4, MinorLow, KindAccessory, "Accessory OFF event (long)"},
	{OpAREQ, "AREQ", 4, MinorLow, KindAccessory, "Accessory status request (long)"},
	{OpARON, "ARON", 4, MinorLow, KindAccessory, "Accessory response ON (long)"},
	{OpAROF, "AROF", 4, MinorLow, KindAccessory, "Accessory response OFF (long)"},
	{OpEVULN, "EVULN", 4, MinorLow, KindConfig, "Unlearn an event in learn mode"},
	{OpNVSET, "NVSET", 4, MinorLow, KindConfig, "Set a node variable"},
	{OpNVANS, "NVANS", 4, MinorLow, KindConfig, "Node variable value response"},
	{OpASON, "ASON", 4, MinorLow, KindAccessory, "Accessory ON event (short)"},
	{OpASOF, "ASOF", 4, MinorLow, KindAccessory, "Accessory OFF event (short)"},
	{OpASRQ, "ASRQ", 4, MinorLow, KindAccessory, "Accessory status request (short)"},
	{OpPARAN, "PARAN", 4, MinorLow, KindConfig, "Parameter readback by index"},
	{OpREVAL, "REVAL", 4, MinorLow, KindConfig, "Request read of event variable"},
	{OpARSON, "ARSON", 4, MinorLow, KindAccessory, "Accessory response ON (short)"},
	{OpARSOF, "ARSOF", 4, MinorLow, KindAccessory, "Accessory response OFF (short)"},
	{OpEXTC3, "EXTC3", 4, MinorLow, KindGeneral, "Extended OPC with three added bytes"},
	{OpRDCC4, "RDCC4", 5, MinorNormal, KindDCC, "Request 4 byte DCC packet"},
	{OpWCVS, "WCVS", 5, MinorNormal, KindDCC, "Write CV in service mode"},
	{OpACON1, "ACON1", 5, MinorLow, KindAccessory, "Accessory ON event with one added byte (long)"},
	{OpACOF1, "ACOF1", 5, MinorLow, KindAccessory, "Accessory OFF event with one added byte (long)"},
	{OpREQEV, "REQEV", 5, MinorLow, KindConfig, "Read event variable in learn mode"},
	{OpARON1, "ARON1", 5, MinorLow, KindAccessory, "Accessory response event ON with one added byte (long)"},
	{OpAROF1, "AROF1", 5, MinorLow, KindAccessory, "Accessory response event OFF with one added byte (long)"},
	{OpNEVAL, "NEVAL", 5, MinorLow, KindConfig, "Read of EV value response"},
	{OpPNN, "PNN", 5, MinorLow, KindConfig, "Response to query node"},
	{OpASON1, "ASON1", 5, MinorLow, KindAccessory, "Accessory ON event with one added byte (short)"},
	{OpASOF1, "ASOF1", 5, MinorLow, KindAccessory, "Accessory OFF event with one added byte (short)"},
	{OpARSON1, "ARSON1", 5, MinorLow, KindAccessory, "Accessory response ON with one added data byte (short)"},
	{OpARSOF1, "ARSOF1", 5, MinorLow, KindAccessory, "Accessory response OFF with one added data byte (short)"},
	{OpEXTC4, "EXTC4", 5, MinorLow, KindGeneral, "Extended OPC with four added bytes"},
	{OpRDCC5, "RDCC5", 6, MinorNormal, KindDCC, "Request 5 byte DCC packet"},
	{OpWCVOA, "WCVOA", 6, MinorNormal, KindDCC, "Write CV in OPS mode by address"},
	{OpFCLK, "FCLK", 6, MinorLow, KindAccessory, "Fast clock"},
	{OpACON2, "ACON2", 6, MinorLow, KindAccessory, "Accessory ON event with two added bytes (long)"},
	{OpACOF2, "ACOF2", 6, MinorLow, KindAccessory, "Accessory OFF event with two added bytes (long)"},
	{OpEVLRN, "EVLRN", 6, MinorLow, KindConfig, "Teach event in learn mode"},
	{OpEVANS, "EVANS", 6, MinorLow, KindConfig, "Response to request for EV value in learn mode"},
	{OpARON2, "ARON2", 6, MinorLow, KindAccessory, "Accessory response event ON with two added bytes (long)"},
	{OpAROF2, "AROF2", 6, MinorLow, KindAccessory, "Accessory response event OFF with two added bytes (long)"},
	{OpASON2, "ASON2", 6, MinorLow, KindAccessory, "Accessory ON event with two added bytes (short)"},
	{OpASOF2, "ASOF2", 6, MinorLow, KindAccessory, "Accessory OFF event with two added bytes (short)"},
	{OpARSON2, "ARSON2", 6, MinorLow, KindAccessory, "Accessory response ON with two added data bytes (short)"},
	{OpARSOF2, "ARSOF2", 6, MinorLow, KindAccessory, "Accessory response OFF with two added data bytes (short)"},
	{OpEXTC5, "EXTC5", 6, MinorLow, KindGeneral, "Extended OPC with five added bytes"},
	{OpRDCC6, "RDCC6", 7, MinorNormal, KindDCC, "Request 6 byte DCC packet"},
	{OpPLOC, "PLOC", 7, MinorNormal, KindDCC, "Engine report from command station"},
	{OpNAME, "NAME", 7, MinorLow, KindConfig, "Response to request for node name"},
	{OpSTAT, "STAT", 7, MinorNormal, KindDCC, "Command station status report"},
	{OpPARAMS, "PARAMS", 7, MinorLow, KindConfig, "Response to request for node parameters (in setup)"},
	{OpACON3, "ACON3", 7, MinorLow, KindAccessory, "Accessory ON event with three added bytes (long)"},
	{OpACOF3, "ACOF3", 7, MinorLow, KindAccessory, "Accessory OFF event with three added bytes (long)"},
	{OpENRSP, "ENRSP", 7, MinorLow, KindConfig, "Response to request to read node events"},
	{OpARON3, "ARON3", 7, MinorLow, KindAccessory, "Accessory response event ON with three added bytes (long)"},
	{OpAROF3, "AROF3", 7, MinorLow, KindAccessory, "Accessory response event OFF with three added bytes (long)"},
	{OpEVLRNI, "EVLRNI", 7, MinorLow, KindConfig, "Teach event in learn mode using event indexing"},
	{OpACDAT, "ACDAT", 7, MinorLow, KindAccessory, "Accessory node data event, 5 data bytes (long)"},
	{OpARDAT, "ARDAT", 7, MinorLow, KindAccessory, "Accessory node data response, 5 data bytes (long)"},
	{OpASON3, "ASON3", 7, MinorLow, KindAccessory, "Accessory ON event with three added bytes (short)"},
	{OpASOF3, "ASOF3", 7, MinorLow, KindAccessory, "Accessory OFF event with three added bytes (short)"},
	{OpDDES, "DDES", 7, MinorLow, KindAccessory, "Accessory node data event, 5 data bytes (short)"},
	{OpDDRS, "DDRS", 7, MinorLow, KindAccessory, "Accessory node data response, 5 data bytes (short)"},
	{OpARSON3, "ARSON3", 7, MinorLow, KindAccessory, "Accessory response ON with 3 added data bytes (short)"},
	{OpARSOF3, "ARSOF3", 7, MinorLow, KindAccessory, "Accessory response OFF with 3 added data bytes (short)"},
	{OpEXTC6, "EXTC6", 7, MinorLow, KindGeneral, "Extended OPC with six added bytes"},
}

var (
	catalog [256]*Descriptor
	byName  map[string]*Descriptor
)

func init() {
	byName = make(map[string]*Descriptor, len(catalogEntries))
	for i := range catalogEntries {
		d := &catalogEntries[i]
		if d.ByteCount != int(d.Code>>5) {
			panic(fmt.Sprintf("cbus: opcode %s (0x%02X) declares %d bytes, encoding implies %d",
				d.Name, byte(d.Code), d.ByteCount, d.Code>>5))
		}
		if catalog[d.Code] != nil {
			panic(fmt.Sprintf("cbus: opcode 0x%02X registered twice", byte(d.Code)))
		}
		if _, dup := byName[d.Name]; dup {
			panic(fmt.Sprintf("cbus: opcode name %s registered twice", d.Name))
		}
		catalog[d.Code] = d
		byName[d.Name] = d
	}
}

// Lookup returns the catalog entry for an opcode byte.
func Lookup(b byte) (Descriptor, error) {
	d := catalog[b]
	if d == nil {
		return Descriptor{}, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, b)
	}
	return *d, nil
}

// LookupName finds an opcode by its mnemonic, ignoring case.
func LookupName(name string) (Descriptor, error) {
	d, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownOpcode, name)
	}
	return *d, nil
}

// Descriptors returns the whole catalog ordered by opcode value.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(catalogEntries))
	copy(out, catalogEntries)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Known reports whether the opcode is in the catalog.
func (op OpCode) Known() bool {
	return catalog[op] != nil
}

// ByteCount is the payload length implied by the opcode value.
func (op OpCode) ByteCount() int {
	return int(op >> 5)
}

// Descriptor returns the catalog entry, or the zero Descriptor for an
// unknown opcode.
func (op OpCode) Descriptor() Descriptor {
	if d := catalog[op]; d != nil {
		return *d
	}
	return Descriptor{}
}

func (op OpCode) String() string {
	if d := catalog[op]; d != nil {
		return d.Name
	}
	return fmt.Sprintf("OpCode(0x%02X)", byte(op))
}

// MarshalText implements encoding.TextMarshaler.
func (op OpCode) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}
