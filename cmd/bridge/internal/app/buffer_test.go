package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameBufferReassembles(t *testing.T) {
	b := newFrameBuffer(64)

	res, discarded := b.feed([]byte("junk:S0FE0N400"))
	require.Empty(t, res.Frames)
	require.Zero(t, discarded)
	require.Equal(t, len("junk:S0FE0N400"), b.pending())

	res, discarded = b.feed([]byte("00A;:S0FE0N2310;:S0"))
	require.Len(t, res.Frames, 2)
	require.Zero(t, discarded)
	require.Equal(t, len(":S0"), b.pending())
}

func TestFrameBufferCountsRejects(t *testing.T) {
	b := newFrameBuffer(64)
	res, _ := b.feed([]byte(":S0FE0N0B;:S0FE0N2310;"))
	require.Len(t, res.Frames, 1)
	require.Equal(t, 1, res.Rejected)
	require.Zero(t, b.pending())
}

func TestFrameBufferTruncates(t *testing.T) {
	b := newFrameBuffer(64)
	noise := make([]byte, 100)
	for i := range noise {
		noise[i] = 'x'
	}
	_, discarded := b.feed(noise)
	require.Equal(t, 36, discarded)
	require.Equal(t, 64, b.pending())

	res, _ := b.feed([]byte(":S0FE0N2310;"))
	require.Len(t, res.Frames, 1)
}

func TestLineBuffer(t *testing.T) {
	b := newLineBuffer(16)

	lines, discarded := b.feed([]byte("O\r\nt12"))
	require.Equal(t, []string{"O"}, lines)
	require.Zero(t, discarded)

	lines, _ = b.feed([]byte("30\rV\r"))
	require.Equal(t, []string{"t1230", "V"}, lines)

	lines, discarded = b.feed([]byte("0123456789abcdefXYZ"))
	require.Empty(t, lines)
	require.Equal(t, 3, discarded)
}
