package cbus

import "regexp"

// wirePattern matches one GridConnect frame. The body may be empty so that
// void frames survive a round trip.
var wirePattern = regexp.MustCompile(`:S([0-9a-fA-F]{4})([NR])([0-9a-fA-F]*);`)

// ScanResult is the outcome of scanning a chunk of stream data.
type ScanResult struct {
	Frames []Frame
	// Consumed is the offset just past the last complete match. Bytes
	// before it hold nothing more to decode.
	Consumed int
	// Rejected counts matches whose contents did not decode: odd hex
	// length, an unknown opcode or a payload of the wrong size.
	Rejected int
}

// ScanFrames extracts every well-formed frame from b in order. Bytes that
// do not match the wire form are skipped. A trailing partial frame is left
// beyond Consumed for the caller to retry once more data arrives.
func ScanFrames(b []byte) ScanResult {
	var res ScanResult
	for _, loc := range wirePattern.FindAllSubmatchIndex(b, -1) {
		res.Consumed = loc[1]
		f, err := decodeFrame(b[loc[2]:loc[3]], b[loc[4]:loc[5]], b[loc[6]:loc[7]])
		if err != nil {
			res.Rejected++
			continue
		}
		res.Frames = append(res.Frames, f)
	}
	return res
}

// DecodeFrames returns every frame found in b. It never fails; input
// with no frames yields an empty result.
func DecodeFrames(b []byte) []Frame {
	return ScanFrames(b).Frames
}
