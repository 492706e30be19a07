package playback

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// bytesPerFrame is the size of one PCM frame: 2 channels, 16-bit samples.
const bytesPerFrame = 4

// pcmStream serves decoded 16-bit stereo PCM to an audio player, resampling
// on the fly to realize a pitch ratio. Reading at ratio r consumes source
// frames r times faster, which raises (r > 1) or lowers (r < 1) the pitch.
//
// The audio thread calls Read while the control thread seeks and changes the
// ratio, so all state is guarded by a mutex.
type pcmStream struct {
	mu    sync.Mutex
	data  []byte  // decoded PCM, shared read-only between streams
	pos   float64 // source position in frames
	ratio float64
	loop  bool
}

func newPCMStream(data []byte) *pcmStream {
	return &pcmStream{
		data:  data,
		ratio: 1.0,
	}
}

// Read fills p with resampled PCM frames using linear interpolation
// between adjacent source frames. Returns io.EOF once the source is
// exhausted; seeking back makes the stream readable again.
func (s *pcmStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totalFrames := len(s.data) / bytesPerFrame
	if totalFrames == 0 {
		return 0, io.EOF
	}

	outFrames := len(p) / bytesPerFrame
	written := 0
	for i := 0; i < outFrames; i++ {
		idx := int(s.pos)
		if idx >= totalFrames {
			if !s.loop {
				break
			}
			s.pos -= float64(totalFrames)
			idx = int(s.pos)
		}
		frac := s.pos - float64(idx)
		for ch := 0; ch < 2; ch++ {
			a := int16(binary.LittleEndian.Uint16(s.data[idx*bytesPerFrame+ch*2:]))
			b := a
			if idx+1 < totalFrames {
				b = int16(binary.LittleEndian.Uint16(s.data[(idx+1)*bytesPerFrame+ch*2:]))
			}
			v := float64(a) + (float64(b)-float64(a))*frac
			binary.LittleEndian.PutUint16(p[i*bytesPerFrame+ch*2:], uint16(int16(v)))
		}
		s.pos += s.ratio
		written++
	}

	if written == 0 {
		return 0, io.EOF
	}
	return written * bytesPerFrame, nil
}

// Seek implements io.Seeker so the audio player can rewind the stream.
// Offsets are interpreted against the source data.
func (s *pcmStream) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = int64(s.pos)*bytesPerFrame + offset
	case io.SeekEnd:
		newOffset = int64(len(s.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}

	if newOffset < 0 {
		return 0, fmt.Errorf("negative position")
	}

	s.pos = float64(newOffset / bytesPerFrame)
	return newOffset, nil
}

// positionFrames returns the current source position in whole frames.
func (s *pcmStream) positionFrames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(s.pos)
}

// seekFrames moves the source position to the given frame, clamped to the
// end of the data.
func (s *pcmStream) seekFrames(n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totalFrames := uint64(len(s.data) / bytesPerFrame)
	if n > totalFrames {
		n = totalFrames
	}
	s.pos = float64(n)
}

// setRatio changes the resampling ratio. Non-positive ratios are ignored.
func (s *pcmStream) setRatio(r float64) {
	if r <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratio = r
}

// setLoop makes Read wrap back to the start instead of reporting io.EOF.
func (s *pcmStream) setLoop(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
}
