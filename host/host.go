// Package host connects an engine to real-time audio outputs.
package host

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/GeoffreyPlitt/debuggo"
)

var debug = debuggo.Debug("nesynth:host")

// Source renders planar stereo blocks. *synth.Engine[float32] is a Source.
type Source interface {
	Process(out [2][]float32, n int) bool
}

// DefaultBlockSize is the render block size used when none is given.
const DefaultBlockSize = 256

// frameBytes is one interleaved stereo float32 frame.
const frameBytes = 8

// planar is a reusable stereo render buffer.
type planar [2][]float32

func newPlanar(n int) planar {
	return planar{make([]float32, n), make([]float32, n)}
}

// resize makes room for n frames. It allocates, so it must not run on
// the audio thread.
func (b *planar) resize(n int) {
	if len(b[0]) < n {
		*b = newPlanar(n)
	}
}

// block returns the first n frames, or fewer when the buffer is smaller.
func (b planar) block(n int) [2][]float32 {
	n = min(n, len(b[0]))
	return [2][]float32{b[0][:n], b[1][:n]}
}

type sourceRef struct{ src Source }

// Stream is an io.Reader producing interleaved little-endian float32
// stereo frames from a Source. The source can be swapped while the
// stream is being read.
type Stream struct {
	src       atomic.Pointer[sourceRef]
	blockSize int
	buf       planar
}

// NewStream creates a stream reading src in blocks of blockSize frames.
func NewStream(src Source, blockSize int) *Stream {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	s := &Stream{
		blockSize: blockSize,
		buf:       newPlanar(blockSize),
	}
	s.SetSource(src)
	return s
}

// SetSource replaces the rendered source. A nil source yields silence.
func (s *Stream) SetSource(src Source) {
	if src == nil {
		s.src.Store(nil)
		return
	}
	s.src.Store(&sourceRef{src: src})
}

// Read fills p with whole frames. Trailing bytes that do not make up a
// frame are zeroed.
func (s *Stream) Read(p []byte) (int, error) {
	ref := s.src.Load()
	if ref == nil {
		clear(p)
		return len(p), nil
	}
	frames := len(p) / frameBytes
	off := 0
	for frames > 0 {
		blk := s.buf.block(min(frames, s.blockSize))
		n := len(blk[0])
		ref.src.Process(blk, n)
		l, r := blk[0], blk[1]
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint32(p[off:], math.Float32bits(l[i]))
			binary.LittleEndian.PutUint32(p[off+4:], math.Float32bits(r[i]))
			off += frameBytes
		}
		frames -= n
	}
	clear(p[off:])
	return len(p), nil
}
