package resampler

// Framer regroups a stream of variable-length sample blocks into frames of
// a fixed size. It is not safe for concurrent use.
type Framer struct {
	size    int
	pending []float32
}

// NewFramer creates a Framer emitting frames of size samples.
func NewFramer(size int) *Framer {
	if size <= 0 {
		panic("resampler: frame size must be positive")
	}
	return &Framer{size: size, pending: make([]float32, 0, size*2)}
}

// Size returns the frame size in samples.
func (f *Framer) Size() int { return f.size }

// Buffered returns the number of samples waiting for a complete frame.
func (f *Framer) Buffered() int { return len(f.pending) }

// Write appends samples and calls emit once for every complete frame, in
// order. The slice passed to emit is owned by the callee.
func (f *Framer) Write(samples []float32, emit func([]float32)) {
	f.pending = append(f.pending, samples...)
	for len(f.pending) >= f.size {
		frame := make([]float32, f.size)
		copy(frame, f.pending[:f.size])
		n := copy(f.pending, f.pending[f.size:])
		f.pending = f.pending[:n]
		emit(frame)
	}
}

// Reset drops any buffered samples.
func (f *Framer) Reset() {
	f.pending = f.pending[:0]
}
