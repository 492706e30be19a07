package playback

import (
	"encoding/binary"
	"io"
	"testing"
)

// makePCM builds 16-bit stereo PCM with sample value i in both channels of
// frame i, which makes resampled output easy to predict.
func makePCM(frames int) []byte {
	data := make([]byte, frames*bytesPerFrame)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(data[i*bytesPerFrame:], uint16(int16(i)))
		binary.LittleEndian.PutUint16(data[i*bytesPerFrame+2:], uint16(int16(i)))
	}
	return data
}

func frameValue(p []byte, frame int) int16 {
	return int16(binary.LittleEndian.Uint16(p[frame*bytesPerFrame:]))
}

func TestPCMStreamReadUnityRatio(t *testing.T) {
	stream := newPCMStream(makePCM(8))

	out := make([]byte, 8*bytesPerFrame)
	n, err := stream.Read(out)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != 8*bytesPerFrame {
		t.Fatalf("Read returned %d bytes, want %d", n, 8*bytesPerFrame)
	}
	for i := 0; i < 8; i++ {
		if got := frameValue(out, i); got != int16(i) {
			t.Errorf("frame %d = %d, want %d", i, got, i)
		}
	}
}

func TestPCMStreamEOF(t *testing.T) {
	stream := newPCMStream(makePCM(4))

	out := make([]byte, 4*bytesPerFrame)
	if _, err := stream.Read(out); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if _, err := stream.Read(out); err != io.EOF {
		t.Errorf("Read past end = %v, want io.EOF", err)
	}
}

func TestPCMStreamDoubleSpeedHalvesFrames(t *testing.T) {
	stream := newPCMStream(makePCM(8))
	stream.setRatio(2.0)

	out := make([]byte, 8*bytesPerFrame)
	n, err := stream.Read(out)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	// Source positions 0, 2, 4, 6 then exhausted.
	if n != 4*bytesPerFrame {
		t.Fatalf("Read returned %d bytes, want %d", n, 4*bytesPerFrame)
	}
	for i, want := range []int16{0, 2, 4, 6} {
		if got := frameValue(out, i); got != want {
			t.Errorf("frame %d = %d, want %d", i, got, want)
		}
	}
}

func TestPCMStreamHalfSpeedInterpolates(t *testing.T) {
	stream := newPCMStream(makePCM(4))
	stream.setRatio(0.5)

	out := make([]byte, 6*bytesPerFrame)
	n, err := stream.Read(out)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != 6*bytesPerFrame {
		t.Fatalf("Read returned %d bytes, want %d", n, 6*bytesPerFrame)
	}
	// Source positions 0, 0.5, 1, 1.5, 2, 2.5 linearly interpolated.
	wantApprox := []float64{0, 0.5, 1, 1.5, 2, 2.5}
	for i, want := range wantApprox {
		got := float64(frameValue(out, i))
		if got < want-1 || got > want+1 {
			t.Errorf("frame %d = %g, want about %g", i, got, want)
		}
	}
}

func TestPCMStreamSeekFrames(t *testing.T) {
	stream := newPCMStream(makePCM(8))

	stream.seekFrames(5)
	if got := stream.positionFrames(); got != 5 {
		t.Errorf("positionFrames = %d, want 5", got)
	}

	out := make([]byte, 1*bytesPerFrame)
	if _, err := stream.Read(out); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := frameValue(out, 0); got != 5 {
		t.Errorf("frame after seek = %d, want 5", got)
	}

	// Seeking past the end clamps.
	stream.seekFrames(100)
	if got := stream.positionFrames(); got != 8 {
		t.Errorf("positionFrames = %d, want 8 (clamped)", got)
	}
}

func TestPCMStreamSeekToStartAfterEOF(t *testing.T) {
	stream := newPCMStream(makePCM(4))

	out := make([]byte, 4*bytesPerFrame)
	if _, err := stream.Read(out); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if _, err := stream.Read(out); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}

	stream.seekFrames(0)
	n, err := stream.Read(out)
	if err != nil {
		t.Fatalf("Read after rewind failed: %v", err)
	}
	if n != 4*bytesPerFrame {
		t.Errorf("Read after rewind returned %d bytes, want %d", n, 4*bytesPerFrame)
	}
}

func TestPCMStreamIgnoresNonPositiveRatio(t *testing.T) {
	stream := newPCMStream(makePCM(4))
	stream.setRatio(0)
	stream.setRatio(-1)
	if stream.ratio != 1.0 {
		t.Errorf("ratio = %g, want 1.0", stream.ratio)
	}
}

func TestPCMStreamLoopWrapsAround(t *testing.T) {
	stream := newPCMStream(makePCM(4))
	stream.setLoop(true)

	out := make([]byte, 10*bytesPerFrame)
	n, err := stream.Read(out)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != 10*bytesPerFrame {
		t.Fatalf("Read returned %d bytes, want %d", n, 10*bytesPerFrame)
	}
	for i, want := range []int16{0, 1, 2, 3, 0, 1, 2, 3, 0, 1} {
		if got := frameValue(out, i); got != want {
			t.Errorf("frame %d = %d, want %d", i, got, want)
		}
	}
}

func TestSampleToInt16Clamps(t *testing.T) {
	cases := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{0.5, 16383},
		{1.7, 32767},   // synth peak above full scale
		{-2.3, -32767}, // and below
	}
	for _, tc := range cases {
		if got := sampleToInt16(tc.in); got != tc.want {
			t.Errorf("sampleToInt16(%g) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMidiVelocityClamps(t *testing.T) {
	cases := []struct {
		gain float64
		want int32
	}{
		{0, 1},
		{0.5, 63},
		{1, 127},
		{2, 127},
	}
	for _, tc := range cases {
		if got := midiVelocity(tc.gain); got != tc.want {
			t.Errorf("midiVelocity(%g) = %d, want %d", tc.gain, got, tc.want)
		}
	}
}
