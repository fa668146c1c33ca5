package cbus

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var enumHeader = MustHeader(MajorEmergency, MinorHigh, 127)

func TestEncodeFrame(t *testing.T) {
	f := NewFrame(enumHeader, NewRequestEngineSession(10), false)
	if got := string(EncodeFrame(f)); got != ":S0FE0N40000A;" {
		t.Fatalf("unexpected wire form %q", got)
	}

	rtr := NewVoidFrame(enumHeader, true)
	if got := string(EncodeFrame(rtr)); got != ":S0FE0R;" {
		t.Fatalf("unexpected void wire form %q", got)
	}

	buf := []byte("prefix")
	buf = f.AppendWire(buf)
	if string(buf) != "prefix:S0FE0N40000A;" {
		t.Fatalf("AppendWire produced %q", buf)
	}
}

func TestDecodeFrames(t *testing.T) {
	got := DecodeFrames([]byte(":S0FE0N40000A;:S0FE0N2310;"))
	want := []Frame{
		NewFrame(enumHeader, NewRequestEngineSession(10), false),
		NewFrame(enumHeader, NewSessionKeepAlive(0x10), false),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("DecodeFrames mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFramesSkipsNoise(t *testing.T) {
	in := "garbage:S0fe0n40000A;\r\n:S0FE0N40000A;junk:SXXXXN00;:S0FE0N40000A"
	got := DecodeFrames([]byte(in))
	want := []Frame{NewFrame(enumHeader, NewRequestEngineSession(10), false)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("DecodeFrames mismatch (-want +got):\n%s", diff)
	}

	if got := DecodeFrames(nil); len(got) != 0 {
		t.Fatalf("expected no frames, got %v", got)
	}
}

func TestDecodeFramesLowercaseHex(t *testing.T) {
	got := DecodeFrames([]byte(":S0fe0N90000afb41;"))
	want := []Frame{NewFrame(enumHeader, NewAccessoryLongEventOn(10, 64321), false)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("DecodeFrames mismatch (-want +got):\n%s", diff)
	}
}

func TestScanFramesAccounting(t *testing.T) {
	in := ":S0FE0N400;:S0FE0NFF;:S0FE0N2310;:S0FE0N9"
	res := ScanFrames([]byte(in))
	if len(res.Frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(res.Frames))
	}
	if res.Rejected != 2 {
		t.Fatalf("expected 2 rejected matches, got %d", res.Rejected)
	}
	if want := strings.LastIndex(in, ";") + 1; res.Consumed != want {
		t.Fatalf("expected consumed %d, got %d", want, res.Consumed)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var want []Frame
	var wire []byte
	for i, d := range Descriptors() {
		m := MustMessage(d.Code, make([]byte, d.ByteCount))
		h := MustHeader(MajorPriority(i%3), d.Priority, uint8(i%128))
		f := NewFrame(h, m, i%2 == 0)
		want = append(want, f)
		wire = f.AppendWire(wire)
	}
	want = append(want, NewVoidFrame(enumHeader, true), NewVoidFrame(enumHeader, false))
	wire = want[len(want)-2].AppendWire(wire)
	wire = want[len(want)-1].AppendWire(wire)

	got := DecodeFrames(wire)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	for i := range want {
		if got[i].IsRTR() != want[i].IsRTR() {
			t.Fatalf("frame %d lost its RTR flag", i)
		}
	}
}

func TestFrameFor(t *testing.T) {
	f, err := FrameFor(5, NewAccessoryLongEventOn(1, 2))
	if err != nil {
		t.Fatalf("FrameFor returned error: %v", err)
	}
	h := f.Header()
	if h.Major() != MajorNormal || h.Minor() != MinorLow || h.SourceID() != 5 {
		t.Fatalf("unexpected header %s", h)
	}
	if !f.IsNormal() || f.IsRTR() {
		t.Fatalf("expected a normal frame")
	}
	if _, err := FrameFor(200, NewAck()); err == nil {
		t.Fatalf("expected error for wide source id")
	}
}

func TestFrameEqualIgnoresRTR(t *testing.T) {
	a := NewFrame(enumHeader, NewAck(), false)
	b := NewFrame(enumHeader, NewAck(), true)
	if !a.Equal(b) {
		t.Fatalf("frames differing only in RTR should be equal")
	}
	if a.Equal(NewVoidFrame(enumHeader, false)) {
		t.Fatalf("void frame should differ from a message frame")
	}
	if _, ok := NewVoidFrame(enumHeader, false).Message(); ok {
		t.Fatalf("void frame reported a message")
	}
}

func TestFrameString(t *testing.T) {
	f := NewFrame(MustHeader(MajorNormal, MinorLow, 1), NewAccessoryLongEventOn(10, 64321), false)
	if got := f.String(); got != "<2><3><1> N <ACON><0><A><FB><41>" {
		t.Fatalf("unexpected string %q", got)
	}
}
