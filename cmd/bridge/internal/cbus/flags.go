package cbus

import "strings"

// NodeFlags is the flags byte of a PNN node report.
type NodeFlags uint8

const (
	NodeConsumer NodeFlags = 1 << iota
	NodeProducer
	NodeFLiM
	NodeBootloader
	NodeConsumesOwnEvents
	NodeLearnMode
)

var nodeFlagNames = []struct {
	flag NodeFlags
	name string
}{
	{NodeConsumer, "consumer"},
	{NodeProducer, "producer"},
	{NodeFLiM, "flim"},
	{NodeBootloader, "bootloader"},
	{NodeConsumesOwnEvents, "autoconsume"},
	{NodeLearnMode, "learn"},
}

func (f NodeFlags) Has(flag NodeFlags) bool { return f&flag == flag }

func (f NodeFlags) String() string {
	var names []string
	for _, n := range nodeFlagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// CommandStationFlags is the status byte of a STAT report.
type CommandStationFlags uint8

const (
	StationHardwareError CommandStationFlags = 1 << iota
	StationTrackError
	StationTrackPower
	StationBusPower
	StationEmergencyStop
	StationResetDone
	StationServiceMode
)

var stationFlagNames = []struct {
	flag CommandStationFlags
	name string
}{
	{StationHardwareError, "hardware-error"},
	{StationTrackError, "track-error"},
	{StationTrackPower, "track-power"},
	{StationBusPower, "bus-power"},
	{StationEmergencyStop, "emergency-stop"},
	{StationResetDone, "reset-done"},
	{StationServiceMode, "service-mode"},
}

func (f CommandStationFlags) Has(flag CommandStationFlags) bool { return f&flag == flag }

func (f CommandStationFlags) String() string {
	var names []string
	for _, n := range stationFlagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}
