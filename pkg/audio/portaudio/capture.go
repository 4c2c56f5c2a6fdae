package portaudio

import (
	"context"
	"log/slog"
	"sync"

	pa "github.com/gordonklaus/portaudio"

	"github.com/normacomex/normabot/pkg/audio/resampler"
	"github.com/normacomex/normabot/pkg/voicecall"
)

// CaptureDevice reads the microphone and delivers fixed-size frames at the
// requested rate, resampling when the hardware runs at another rate.
type CaptureDevice struct {
	name string

	mu      sync.Mutex
	stream  *pa.Stream
	done    chan struct{}
	stopped chan struct{}
	inited  bool
}

var _ voicecall.CaptureDevice = (*CaptureDevice)(nil)

// NewCaptureDevice returns the default microphone.
func NewCaptureDevice() voicecall.CaptureDevice {
	return &CaptureDevice{}
}

// NewNamedCaptureDevice returns the input device called name. An empty name
// selects the default input.
func NewNamedCaptureDevice(name string) *CaptureDevice {
	return &CaptureDevice{name: name}
}

// Open starts the stream and the read loop.
//
// PortAudio exposes no voice processing, so the echo cancellation, noise
// suppression and gain control constraints are left to the host audio
// system.
func (d *CaptureDevice) Open(ctx context.Context, c voicecall.CaptureConstraints, onFrame func([]float32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pa.Initialize(); err != nil {
		return deviceError("initialize", err)
	}
	d.inited = true

	dev, err := findDevice(d.name, true)
	if err != nil {
		return deviceError("input device", err)
	}

	// Read in blocks of a quarter frame to keep latency low.
	block := max(c.FrameSize/4, 256)
	buf := make([]float32, block)
	stream, rate, err := openMono(dev, true, c.SampleRate, block, buf)
	if err != nil {
		return deviceError("open capture stream", err)
	}
	rs, err := resampler.New(rate, c.SampleRate)
	if err != nil {
		stream.Close()
		return deviceError("capture resampler", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return deviceError("start capture", err)
	}

	d.stream = stream
	d.done = make(chan struct{})
	d.stopped = make(chan struct{})
	slog.Debug("audio capture started", "device", dev.Name, "rate", rate, "frame", c.FrameSize,
		"echo_cancellation", c.EchoCancellation, "noise_suppression", c.NoiseSuppression,
		"auto_gain_control", c.AutoGainControl)

	go d.readLoop(stream, buf, rs, resampler.NewFramer(c.FrameSize), onFrame, d.done, d.stopped)
	return nil
}

func (d *CaptureDevice) readLoop(stream *pa.Stream, buf []float32, rs *resampler.Resampler,
	framer *resampler.Framer, onFrame func([]float32), done, stopped chan struct{}) {
	defer close(stopped)
	for {
		select {
		case <-done:
			return
		default:
		}
		if err := stream.Read(); err != nil {
			if transient(err) {
				continue
			}
			select {
			case <-done:
			default:
				slog.Warn("audio capture stopped", "error", err)
			}
			return
		}
		samples, err := rs.Process(buf)
		if err != nil {
			slog.Warn("capture resample error", "error", err)
			continue
		}
		framer.Write(samples, onFrame)
	}
}

// Close stops the stream and waits for the read loop to exit.
func (d *CaptureDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	if d.stream != nil {
		close(d.done)
		// Abort unblocks a pending Read.
		err = d.stream.Abort()
		<-d.stopped
		if cerr := d.stream.Close(); err == nil {
			err = cerr
		}
		d.stream = nil
	}
	if d.inited {
		d.inited = false
		if terr := pa.Terminate(); err == nil {
			err = terr
		}
	}
	return err
}
