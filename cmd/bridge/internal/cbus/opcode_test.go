package cbus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogByteCounts(t *testing.T) {
	descs := Descriptors()
	require.Len(t, descs, 127)
	for i, d := range descs {
		require.Equal(t, int(d.Code>>5), d.ByteCount, "opcode %s", d.Name)
		require.Equal(t, d.ByteCount, d.Code.ByteCount(), "opcode %s", d.Name)
		require.NotEmpty(t, d.Description, "opcode %s", d.Name)
		if i > 0 {
			require.Less(t, byte(descs[i-1].Code), byte(d.Code))
		}
	}
}

func TestLookup(t *testing.T) {
	cases := []struct {
		code     byte
		name     string
		count    int
		priority MinorPriority
		kind     Kind
	}{
		{0x00, "ACK", 0, MinorNormal, KindGeneral},
		{0x08, "RTOF", 0, MinorAboveNormal, KindDCC},
		{0x23, "DKEEP", 1, MinorNormal, KindDCC},
		{0x40, "RLOC", 2, MinorNormal, KindDCC},
		{0x63, "ERR", 3, MinorNormal, KindDCC},
		{0x6F, "CMDERR", 3, MinorLow, KindConfig},
		{0x90, "ACON", 4, MinorLow, KindAccessory},
		{0xB6, "PNN", 5, MinorLow, KindConfig},
		{0xE1, "PLOC", 7, MinorNormal, KindDCC},
		{0xE3, "STAT", 7, MinorNormal, KindDCC},
	}
	for _, tc := range cases {
		d, err := Lookup(tc.code)
		require.NoError(t, err, "code 0x%02X", tc.code)
		require.Equal(t, OpCode(tc.code), d.Code)
		require.Equal(t, tc.name, d.Name)
		require.Equal(t, tc.count, d.ByteCount)
		require.Equal(t, tc.priority, d.Priority, tc.name)
		require.Equal(t, tc.kind, d.Kind, tc.name)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup(0xFF)
	require.True(t, errors.Is(err, ErrUnknownOpcode))
	require.False(t, OpCode(0xFF).Known())
	require.Equal(t, "OpCode(0xFF)", OpCode(0xFF).String())
	require.Equal(t, Descriptor{}, OpCode(0xFF).Descriptor())
}

func TestLookupName(t *testing.T) {
	d, err := LookupName(" acon ")
	require.NoError(t, err)
	require.Equal(t, OpACON, d.Code)

	_, err = LookupName("NOPE")
	require.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestKindPredicates(t *testing.T) {
	require.True(t, OpACK.Descriptor().IsGeneral())
	require.True(t, OpSNN.Descriptor().IsConfig())
	require.True(t, OpASON.Descriptor().IsAccessory())
	require.True(t, OpDSPD.Descriptor().IsDCC())
	require.False(t, OpDSPD.Descriptor().IsAccessory())
}

func TestOpCodeMarshalText(t *testing.T) {
	text, err := OpPLOC.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "PLOC", string(text))

	text, err = KindAccessory.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "accessory", string(text))
}
