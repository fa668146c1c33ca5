package cbus

import (
	"fmt"
	"strings"
)

// MajorPriority is the two-bit major arbitration priority of a CBUS frame.
type MajorPriority uint8

const (
	MajorEmergency MajorPriority = iota
	MajorHigh
	MajorNormal
)

// MinorPriority is the two-bit minor arbitration priority of a CBUS frame.
type MinorPriority uint8

const (
	MinorHigh MinorPriority = iota
	MinorAboveNormal
	MinorNormal
	MinorLow
)

const (
	majorShift   = 6
	minorShift   = 4
	priorityMask = 0x03
)

func (p MajorPriority) String() string {
	switch p {
	case MajorEmergency:
		return "emergency"
	case MajorHigh:
		return "high"
	case MajorNormal:
		return "normal"
	default:
		return fmt.Sprintf("MajorPriority(%d)", uint8(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p MajorPriority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (p *MajorPriority) UnmarshalText(text []byte) error {
	for v := MajorEmergency; v <= MajorNormal; v++ {
		if v.String() == strings.ToLower(string(text)) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("cbus: unknown major priority %q", text)
}

func (p MinorPriority) String() string {
	switch p {
	case MinorHigh:
		return "high"
	case MinorAboveNormal:
		return "above-normal"
	case MinorNormal:
		return "normal"
	case MinorLow:
		return "low"
	default:
		return fmt.Sprintf("MinorPriority(%d)", uint8(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p MinorPriority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (p *MinorPriority) UnmarshalText(text []byte) error {
	for v := MinorHigh; v <= MinorLow; v++ {
		if v.String() == strings.ToLower(string(text)) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("cbus: unknown minor priority %q", text)
}

// packPriority places both priorities in the top nibble of the high
// identifier byte.
func packPriority(major MajorPriority, minor MinorPriority) byte {
	return byte(major&priorityMask)<<majorShift | byte(minor&priorityMask)<<minorShift
}

func unpackPriority(high byte) (MajorPriority, MinorPriority) {
	return MajorPriority((high >> majorShift) & priorityMask), MinorPriority((high >> minorShift) & priorityMask)
}
