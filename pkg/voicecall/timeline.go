package voicecall

import (
	"errors"
	"sync"
	"time"

	"github.com/normacomex/normabot/pkg/audio/pcm"
)

// TimelineDevice is a PlaybackDevice over a pcm.Timeline. Output drivers
// pull rendered audio with Read; the timeline position is the device clock.
type TimelineDevice struct {
	mu sync.Mutex
	tl *pcm.Timeline
}

var _ PlaybackDevice = (*TimelineDevice)(nil)

// NewTimelineDevice creates an unopened device.
func NewTimelineDevice() *TimelineDevice {
	return &TimelineDevice{}
}

// Open creates the timeline.
func (d *TimelineDevice) Open(format pcm.Format) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tl != nil {
		return errors.New("voicecall: playback device already open")
	}
	d.tl = pcm.NewTimeline(format)
	return nil
}

func (d *TimelineDevice) timeline() *pcm.Timeline {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tl
}

// Now returns the amount of audio rendered so far.
func (d *TimelineDevice) Now() time.Duration {
	if tl := d.timeline(); tl != nil {
		return tl.Now()
	}
	return 0
}

// Schedule places buf on the timeline.
func (d *TimelineDevice) Schedule(buf *pcm.Buffer, at time.Duration, onEnded func()) (ScheduledChunk, error) {
	tl := d.timeline()
	if tl == nil {
		return nil, pcm.ErrTimelineClosed
	}
	v, err := tl.Schedule(buf, at, onEnded)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Read renders the next len(out) samples. An unopened device renders
// silence.
func (d *TimelineDevice) Read(out []float32) int {
	tl := d.timeline()
	if tl == nil {
		clear(out)
		return len(out)
	}
	return tl.Read(out)
}

// Close stops every voice and rejects further scheduling.
func (d *TimelineDevice) Close() error {
	if tl := d.timeline(); tl != nil {
		tl.Close()
	}
	return nil
}
