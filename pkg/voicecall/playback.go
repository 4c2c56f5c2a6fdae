package voicecall

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/normacomex/normabot/pkg/audio/pcm"
	"github.com/normacomex/normabot/pkg/geminilive"
)

// PlaybackScheduler lays inbound audio chunks end to end on a
// PlaybackDevice. Chunks play in arrival order without gaps.
type PlaybackScheduler struct {
	dev    PlaybackDevice
	format pcm.Format

	mu sync.Mutex
	// cursor is the sample position where the next chunk starts. It is
	// kept in samples so chunk boundaries never drift.
	cursor  int64
	pending map[ScheduledChunk]struct{}
	closed  bool
}

// NewPlaybackScheduler opens dev for 24 kHz model audio.
func NewPlaybackScheduler(dev PlaybackDevice) (*PlaybackScheduler, error) {
	format := geminilive.OutputFormat
	if err := dev.Open(format); err != nil {
		dev.Close()
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	return &PlaybackScheduler{
		dev:     dev,
		format:  format,
		pending: make(map[ScheduledChunk]struct{}),
	}, nil
}

// Enqueue decodes one base64 chunk and schedules it right after the previous
// one, or now if the device has caught up. Malformed chunks are logged and
// skipped; the returned error is informational.
func (p *PlaybackScheduler) Enqueue(wire string) error {
	buf, err := pcm.DecodeChunk(wire, p.format)
	if err != nil {
		slog.Warn("audio decode error", "error", err)
		return err
	}
	if buf.Len() == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}

	start := max(p.format.SamplesInDuration(p.dev.Now()), p.cursor)
	var chunk ScheduledChunk
	chunk, err = p.dev.Schedule(buf, p.format.SampleDuration(start), func() {
		p.mu.Lock()
		delete(p.pending, chunk)
		p.mu.Unlock()
	})
	if err != nil {
		slog.Warn("audio schedule error", "error", err)
		return err
	}
	p.pending[chunk] = struct{}{}
	p.cursor = start + int64(buf.Len())
	return nil
}

// Interrupt stops every scheduled chunk and resets the cursor so the next
// chunk starts immediately.
func (p *PlaybackScheduler) Interrupt() {
	p.mu.Lock()
	chunks := p.drainLocked()
	p.cursor = 0
	p.mu.Unlock()

	for _, c := range chunks {
		c.Stop()
	}
}

func (p *PlaybackScheduler) drainLocked() []ScheduledChunk {
	chunks := make([]ScheduledChunk, 0, len(p.pending))
	for c := range p.pending {
		chunks = append(chunks, c)
	}
	clear(p.pending)
	return chunks
}

// Pending returns the number of chunks scheduled or playing.
func (p *PlaybackScheduler) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Cursor returns the device time at which the next chunk would start if
// the device has not caught up.
func (p *PlaybackScheduler) Cursor() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format.SampleDuration(p.cursor)
}

// Close stops all chunks and releases the device. It is safe to call more
// than once.
func (p *PlaybackScheduler) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	chunks := p.drainLocked()
	p.cursor = 0
	p.mu.Unlock()

	for _, c := range chunks {
		c.Stop()
	}
	return p.dev.Close()
}
