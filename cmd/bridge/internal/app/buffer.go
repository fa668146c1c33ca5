package app

import (
	"bytes"

	"github.com/example/cbus_bridge/cmd/bridge/internal/cbus"
)

// frameBuffer reassembles GridConnect frames split across reads.
type frameBuffer struct {
	data []byte
	max  int
}

func newFrameBuffer(max int) *frameBuffer {
	return &frameBuffer{data: make([]byte, 0, max), max: max}
}

// feed appends a chunk and extracts every complete frame. Bytes up to the
// last complete frame are released; if what remains exceeds the limit the
// oldest bytes are dropped and their count returned.
func (b *frameBuffer) feed(chunk []byte) (res cbus.ScanResult, discarded int) {
	b.data = append(b.data, chunk...)
	res = cbus.ScanFrames(b.data)
	b.data = b.data[:copy(b.data, b.data[res.Consumed:])]
	if over := len(b.data) - b.max; over > 0 {
		b.data = b.data[:copy(b.data, b.data[over:])]
		discarded = over
	}
	return res, discarded
}

func (b *frameBuffer) pending() int { return len(b.data) }

// lineBuffer splits an SLCAN stream into carriage-return terminated lines.
type lineBuffer struct {
	data []byte
	max  int
}

func newLineBuffer(max int) *lineBuffer {
	return &lineBuffer{data: make([]byte, 0, max), max: max}
}

// feed appends a chunk and returns the complete lines without their
// terminators. Line feeds are ignored so CRLF clients work too.
func (b *lineBuffer) feed(chunk []byte) (lines []string, discarded int) {
	for _, c := range chunk {
		if c != '\n' {
			b.data = append(b.data, c)
		}
	}
	for {
		i := bytes.IndexByte(b.data, '\r')
		if i < 0 {
			break
		}
		lines = append(lines, string(b.data[:i]))
		b.data = b.data[:copy(b.data, b.data[i+1:])]
	}
	if over := len(b.data) - b.max; over > 0 {
		b.data = b.data[:copy(b.data, b.data[over:])]
		discarded = over
	}
	return lines, discarded
}
