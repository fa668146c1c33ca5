package cbus

import (
	"errors"
	"fmt"
	"strings"
)

// Codec failures. Returned wrapped with context; match with errors.Is.
var (
	ErrInvalidIdentifier     = errors.New("cbus: source identifier out of range")
	ErrInsufficientData      = errors.New("cbus: insufficient header data")
	ErrEmptyInput            = errors.New("cbus: empty message input")
	ErrUnknownOpcode         = errors.New("cbus: unknown opcode")
	ErrPayloadLengthMismatch = errors.New("cbus: payload length mismatch")
)

// ErrorFamily groups the numeric error codes carried by ERR and CMDERR.
type ErrorFamily uint8

const (
	// FamilyCommandStation codes travel in ERR messages.
	FamilyCommandStation ErrorFamily = iota + 1
	// FamilyConfig codes travel in CMDERR messages.
	FamilyConfig
)

func (f ErrorFamily) String() string {
	switch f {
	case FamilyCommandStation:
		return "command-station"
	case FamilyConfig:
		return "config"
	default:
		return fmt.Sprintf("ErrorFamily(%d)", uint8(f))
	}
}

// Error is a protocol-level error condition reported by a command station
// or a node. It is plain data and carries no live resources.
type Error struct {
	Family      ErrorFamily
	Code        uint8
	Name        string
	Description string
}

func (e Error) Error() string {
	return fmt.Sprintf("cbus: %s error %d: %s", e.Family, e.Code, e.Description)
}

// MarshalText renders the error as "family/name".
func (e Error) MarshalText() ([]byte, error) {
	if e.Name == "" {
		return nil, fmt.Errorf("cbus: unnamed %s error %d", e.Family, e.Code)
	}
	return []byte(e.Family.String() + "/" + e.Name), nil
}

// UnmarshalText accepts the form produced by MarshalText.
func (e *Error) UnmarshalText(text []byte) error {
	parsed, err := ParseError(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Command station errors.
var (
	ErrLocoStackFull     = Error{FamilyCommandStation, 1, "loco-stack-full", "loco stack full"}
	ErrLocoAddressTaken  = Error{FamilyCommandStation, 2, "loco-address-taken", "loco address taken"}
	ErrSessionNotPresent = Error{FamilyCommandStation, 3, "session-not-present", "session not present"}
	ErrConsistEmpty      = Error{FamilyCommandStation, 4, "consist-empty", "consist empty"}
	ErrLocoNotFound      = Error{FamilyCommandStation, 5, "loco-not-found", "loco not found"}
	ErrCANBus            = Error{FamilyCommandStation, 6, "can-bus-error", "CAN bus error"}
	ErrInvalidRequest    = Error{FamilyCommandStation, 7, "invalid-request", "invalid request"}
	ErrSessionCancelled  = Error{FamilyCommandStation, 8, "session-cancelled", "session cancelled"}
)

// Configuration errors.
var (
	ErrCommandNotSupported       = Error{FamilyConfig, 1, "command-not-supported", "command not supported"}
	ErrNotInLearnMode            = Error{FamilyConfig, 2, "not-in-learn-mode", "not in learn mode"}
	ErrNotInSetupMode            = Error{FamilyConfig, 3, "not-in-setup-mode", "not in setup mode"}
	ErrTooManyEvents             = Error{FamilyConfig, 4, "too-many-events", "too many events"}
	ErrInvalidEventVariableIndex = Error{FamilyConfig, 6, "invalid-event-variable-index", "invalid event variable index"}
	ErrInvalidEvent              = Error{FamilyConfig, 7, "invalid-event", "invalid event"}
	ErrInvalidParameterIndex     = Error{FamilyConfig, 9, "invalid-parameter-index", "invalid parameter index"}
	ErrInvalidNodeVariableIndex  = Error{FamilyConfig, 10, "invalid-node-variable-index", "invalid node variable index"}
	ErrInvalidEventVariableValue = Error{FamilyConfig, 11, "invalid-event-variable-value", "invalid event variable value"}
	ErrInvalidNodeVariableValue  = Error{FamilyConfig, 12, "invalid-node-variable-value", "invalid node variable value"}
)

var protocolErrors = []Error{
	ErrLocoStackFull,
	ErrLocoAddressTaken,
	ErrSessionNotPresent,
	ErrConsistEmpty,
	ErrLocoNotFound,
	ErrCANBus,
	ErrInvalidRequest,
	ErrSessionCancelled,
	ErrCommandNotSupported,
	ErrNotInLearnMode,
	ErrNotInSetupMode,
	ErrTooManyEvents,
	ErrInvalidEventVariableIndex,
	ErrInvalidEvent,
	ErrInvalidParameterIndex,
	ErrInvalidNodeVariableIndex,
	ErrInvalidEventVariableValue,
	ErrInvalidNodeVariableValue,
}

// LookupError returns the named error for a family and code. Codes not
// defined by the protocol report false.
func LookupError(family ErrorFamily, code uint8) (Error, bool) {
	for _, e := range protocolErrors {
		if e.Family == family && e.Code == code {
			return e, true
		}
	}
	return Error{}, false
}

// Errors lists every defined protocol error of a family in code order.
func Errors(family ErrorFamily) []Error {
	out := make([]Error, 0, len(protocolErrors))
	for _, e := range protocolErrors {
		if e.Family == family {
			out = append(out, e)
		}
	}
	return out
}

// ParseError parses the "family/name" form.
func ParseError(s string) (Error, error) {
	family, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Error{}, fmt.Errorf("cbus: malformed error identifier %q", s)
	}
	for _, e := range protocolErrors {
		if e.Family.String() == family && e.Name == name {
			return e, nil
		}
	}
	return Error{}, fmt.Errorf("cbus: unknown error identifier %q", s)
}
