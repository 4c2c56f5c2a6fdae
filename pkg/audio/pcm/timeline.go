package pcm

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrTimelineClosed is returned by Schedule after Close.
var ErrTimelineClosed = errors.New("pcm: timeline closed")

// Timeline mixes buffers that start at absolute sample offsets into a single
// output stream. It is the pull-side half of an output device: the device
// calls Read for every block it plays, and Now reports how much audio has
// been rendered so far.
//
// It is safe to call methods on Timeline from multiple goroutines.
type Timeline struct {
	format Format

	mu     sync.Mutex
	pos    int64
	voices []*Voice
	closed bool
}

// NewTimeline creates an empty timeline rendering in the given format.
func NewTimeline(format Format) *Timeline {
	return &Timeline{format: format}
}

// Format returns the output format of the timeline.
func (tl *Timeline) Format() Format {
	return tl.format
}

// Now returns the current playback position as a duration since the
// timeline was created.
func (tl *Timeline) Now() time.Duration {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.format.SampleDuration(tl.pos)
}

// Position returns the number of samples rendered so far.
func (tl *Timeline) Position() int64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.pos
}

// Active returns the number of voices that have not finished or been stopped.
func (tl *Timeline) Active() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return len(tl.voices)
}

// Schedule plays buf starting at the given position. A start time in the
// past is clamped to the current position. onEnd, if not nil, runs once
// when the voice finishes naturally; it does not run for stopped voices.
func (tl *Timeline) Schedule(buf *Buffer, at time.Duration, onEnd func()) (*Voice, error) {
	if buf.Format != tl.format {
		return nil, fmt.Errorf("pcm: timeline format mismatch: got %v, want %v", buf.Format, tl.format)
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.closed {
		return nil, ErrTimelineClosed
	}
	start := max(tl.format.SamplesInDuration(at), tl.pos)
	v := &Voice{
		tl:      tl,
		start:   start,
		samples: buf.Samples,
		onEnd:   onEnd,
		done:    make(chan struct{}),
	}
	tl.voices = append(tl.voices, v)
	return v, nil
}

// Read renders the next len(out) samples into out and advances the
// position. Regions without voices are silent.
func (tl *Timeline) Read(out []float32) int {
	clear(out)

	tl.mu.Lock()
	from := tl.pos
	to := from + int64(len(out))
	var ended []*Voice
	kept := tl.voices[:0]
	for _, v := range tl.voices {
		v.mixInto(out, from, to)
		if v.end() <= to {
			ended = append(ended, v)
			continue
		}
		kept = append(kept, v)
	}
	clear(tl.voices[len(kept):])
	tl.voices = kept
	tl.pos = to
	tl.mu.Unlock()

	for i := range out {
		out[i] = min(max(out[i], -1), 1)
	}
	for _, v := range ended {
		v.finish(true)
	}
	return len(out)
}

// StopAll stops every scheduled voice.
func (tl *Timeline) StopAll() {
	tl.mu.Lock()
	voices := tl.voices
	tl.voices = nil
	tl.mu.Unlock()

	for _, v := range voices {
		v.finish(false)
	}
}

// Close stops all voices and rejects further scheduling.
func (tl *Timeline) Close() {
	tl.mu.Lock()
	tl.closed = true
	tl.mu.Unlock()
	tl.StopAll()
}

func (tl *Timeline) remove(target *Voice) bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	for i, v := range tl.voices {
		if v == target {
			tl.voices = append(tl.voices[:i], tl.voices[i+1:]...)
			return true
		}
	}
	return false
}

// Voice is one buffer scheduled on a Timeline.
type Voice struct {
	tl      *Timeline
	start   int64
	samples []float32
	onEnd   func()

	once sync.Once
	done chan struct{}
}

// Start returns the scheduled start position of the voice.
func (v *Voice) Start() time.Duration {
	return v.tl.format.SampleDuration(v.start)
}

// Done is closed when the voice finishes or is stopped.
func (v *Voice) Done() <-chan struct{} {
	return v.done
}

// Stop removes the voice from the timeline. Samples already rendered are
// not recalled. Stop is idempotent.
func (v *Voice) Stop() {
	if v.tl.remove(v) {
		v.finish(false)
	}
}

func (v *Voice) end() int64 {
	return v.start + int64(len(v.samples))
}

func (v *Voice) mixInto(out []float32, from, to int64) {
	lo := max(v.start, from)
	hi := min(v.end(), to)
	for p := lo; p < hi; p++ {
		out[p-from] += v.samples[p-v.start]
	}
}

func (v *Voice) finish(natural bool) {
	v.once.Do(func() {
		close(v.done)
		if natural && v.onEnd != nil {
			v.onEnd()
		}
	})
}
