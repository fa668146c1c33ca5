package cbus

import (
	"errors"
	"testing"
)

func TestNewHeaderPacking(t *testing.T) {
	h, err := NewHeader(MajorHigh, MinorLow, 33)
	if err != nil {
		t.Fatalf("NewHeader returned error: %v", err)
	}
	if h.High() != 0x74 || h.Low() != 0x20 {
		t.Fatalf("unexpected register bytes %02X %02X", h.High(), h.Low())
	}
	if h.ASCII() != "7420" {
		t.Fatalf("unexpected ascii %q", h.ASCII())
	}
	if got := h.CANBytes(); got != [2]byte{0x03, 0xA1} {
		t.Fatalf("unexpected CAN bytes % X", got)
	}
	if h.CANID() != 0x3A1 {
		t.Fatalf("unexpected CAN id %03X", h.CANID())
	}
	if h.String() != "<1><3><33>" {
		t.Fatalf("unexpected string %q", h.String())
	}
}

func TestNewHeaderRejectsWideSourceID(t *testing.T) {
	_, err := NewHeader(MajorNormal, MinorNormal, 128)
	if !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	for major := MajorEmergency; major <= MajorNormal; major++ {
		for minor := MinorHigh; minor <= MinorLow; minor++ {
			for id := 0; id <= MaxSourceID; id++ {
				h := MustHeader(major, minor, uint8(id))
				reg := h.Register()
				decoded, err := DecodeHeader(reg[:])
				if err != nil {
					t.Fatalf("DecodeHeader returned error: %v", err)
				}
				if decoded != h {
					t.Fatalf("round trip mismatch for %s: %s", h, decoded)
				}
				if decoded.Major() != major || decoded.Minor() != minor || decoded.SourceID() != uint8(id) {
					t.Fatalf("fields lost for %s", h)
				}
				if HeaderFromCANID(h.CANID()) != h {
					t.Fatalf("CAN id round trip mismatch for %s", h)
				}
			}
		}
	}
}

func TestDecodeHeaderNeverFails(t *testing.T) {
	for hi := 0; hi < 256; hi++ {
		h, err := DecodeHeader([]byte{byte(hi), 0xFF})
		if err != nil {
			t.Fatalf("DecodeHeader(%02X FF) returned error: %v", hi, err)
		}
		if h.SourceID() > MaxSourceID {
			t.Fatalf("source id %d out of range", h.SourceID())
		}
	}

	h, _ := DecodeHeader([]byte{0xC0, 0x00})
	if h.Major() != 3 {
		t.Fatalf("expected raw major 3, got %d", h.Major())
	}
}

func TestDecodeHeaderShortInput(t *testing.T) {
	for _, in := range [][]byte{nil, {0x74}} {
		if _, err := DecodeHeader(in); !errors.Is(err, ErrInsufficientData) {
			t.Fatalf("expected ErrInsufficientData for % X, got %v", in, err)
		}
	}
}

func TestDecodeHeaderIgnoresPadding(t *testing.T) {
	h, err := DecodeHeader([]byte{0x74, 0x3F, 0x99})
	if err != nil {
		t.Fatalf("DecodeHeader returned error: %v", err)
	}
	if h != MustHeader(MajorHigh, MinorLow, 33) {
		t.Fatalf("unexpected header %s", h)
	}
}

func TestHeaderWith(t *testing.T) {
	h := MustHeader(MajorNormal, MinorLow, 10)

	if got := h.WithMajor(MajorEmergency); got.Major() != MajorEmergency || got.Minor() != MinorLow || got.SourceID() != 10 {
		t.Fatalf("WithMajor produced %s", got)
	}
	if got := h.WithMinor(MinorHigh); got.Major() != MajorNormal || got.Minor() != MinorHigh || got.SourceID() != 10 {
		t.Fatalf("WithMinor produced %s", got)
	}
	got, err := h.WithSourceID(127)
	if err != nil || got.SourceID() != 127 || got.Major() != MajorNormal {
		t.Fatalf("WithSourceID produced %s, %v", got, err)
	}
	if _, err := h.WithSourceID(200); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	if h.SourceID() != 10 {
		t.Fatalf("original header mutated")
	}
}
