package slcan

import "testing"

func TestParseCommand(t *testing.T) {
	cases := []struct {
		input string
		want  CommandType
	}{
		{"O", CommandOpen},
		{"C", CommandClose},
		{"", CommandUnknown},
		{"X1", CommandUnknown},
		{"T123", CommandTransmit},
		{"t1232ABCD", CommandTransmit},
		{"r7F0", CommandTransmit},
		{"V", CommandVersion},
		{"S6", CommandBitrate},
	}

	for _, tc := range cases {
		cmd := ParseCommand(tc.input)
		if cmd.Type != tc.want {
			t.Fatalf("for %q expected %v got %v", tc.input, tc.want, cmd.Type)
		}
	}
}

func TestParseCommandKeepsRaw(t *testing.T) {
	input := "O123"
	cmd := ParseCommand(input)
	if cmd.Raw != input {
		t.Fatalf("expected raw command to be preserved, got %q", cmd.Raw)
	}
}

func TestCommandReply(t *testing.T) {
	cases := map[string]string{
		"O":     ReplyOK,
		"C":     ReplyOK,
		"S6":    ReplyOK,
		"V":     ReplyVersion,
		"t1230": ReplyTransmitted,
		"Z":     ReplyError,
	}
	for in, want := range cases {
		if got := ParseCommand(in).Reply(); got != want {
			t.Fatalf("for %q expected reply %q got %q", in, want, got)
		}
	}
}
