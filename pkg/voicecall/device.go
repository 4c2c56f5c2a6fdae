package voicecall

import (
	"context"
	"time"

	"github.com/normacomex/normabot/pkg/audio/pcm"
	"github.com/normacomex/normabot/pkg/geminilive"
)

// Default capture parameters.
const (
	DefaultFrameSize  = 4096
	DefaultGraceDelay = 1500 * time.Millisecond
)

// CaptureConstraints describes the requested microphone stream.
type CaptureConstraints struct {
	SampleRate       int  `json:"sample_rate" yaml:"sample_rate"`
	FrameSize        int  `json:"frame_size" yaml:"frame_size"`
	EchoCancellation bool `json:"echo_cancellation" yaml:"echo_cancellation"`
	NoiseSuppression bool `json:"noise_suppression" yaml:"noise_suppression"`
	AutoGainControl  bool `json:"auto_gain_control" yaml:"auto_gain_control"`
}

// DefaultCaptureConstraints returns 16 kHz mono, 4096-sample frames with all
// voice processing enabled.
func DefaultCaptureConstraints() CaptureConstraints {
	return CaptureConstraints{
		SampleRate:       geminilive.InputFormat.SampleRate(),
		FrameSize:        DefaultFrameSize,
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	}
}

// CaptureDevice is a microphone.
type CaptureDevice interface {
	// Open starts capturing and delivers frames of c.FrameSize samples at
	// c.SampleRate to onFrame, from a device goroutine.
	Open(ctx context.Context, c CaptureConstraints, onFrame func([]float32)) error

	// Close stops capturing. It is safe to call more than once.
	Close() error
}

// PlaybackDevice is a speaker with a sample clock.
type PlaybackDevice interface {
	// Open prepares the device for buffers in format.
	Open(format pcm.Format) error

	// Now returns the current position of the device clock.
	Now() time.Duration

	// Schedule plays buf starting at device time at. If at is already in
	// the past, playback starts immediately. onEnded is called when the
	// buffer finishes playing on its own, not when it is stopped.
	Schedule(buf *pcm.Buffer, at time.Duration, onEnded func()) (ScheduledChunk, error)

	// Close stops all playback and releases the device.
	Close() error
}

// ScheduledChunk is a buffer placed on the playback device.
type ScheduledChunk interface {
	Stop()
}

var _ ScheduledChunk = (*pcm.Voice)(nil)

// Devices creates fresh audio devices for each call.
type Devices struct {
	Capture  func() CaptureDevice
	Playback func() PlaybackDevice
}

// Connector opens remote voice sessions. *geminilive.Client satisfies it.
type Connector interface {
	Connect(ctx context.Context, config *geminilive.ConnectConfig) (geminilive.Session, error)
}

var _ Connector = (*geminilive.Client)(nil)

// Clock abstracts time for the controller.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
