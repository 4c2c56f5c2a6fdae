package portaudio

import (
	"log/slog"
	"sync"
	"time"

	pa "github.com/gordonklaus/portaudio"

	"github.com/normacomex/normabot/pkg/audio/pcm"
	"github.com/normacomex/normabot/pkg/audio/resampler"
	"github.com/normacomex/normabot/pkg/voicecall"
)

// outputBlock is the playback render quantum.
const outputBlock = 20 * time.Millisecond

// PlaybackDevice plays a voicecall.TimelineDevice through an output stream.
// A writer goroutine renders the timeline block by block; the blocking
// stream write paces it to the hardware clock.
type PlaybackDevice struct {
	*voicecall.TimelineDevice
	name string

	mu      sync.Mutex
	stream  *pa.Stream
	done    chan struct{}
	stopped chan struct{}
	inited  bool
}

var _ voicecall.PlaybackDevice = (*PlaybackDevice)(nil)

// NewPlaybackDevice returns the default speaker.
func NewPlaybackDevice() voicecall.PlaybackDevice {
	return NewNamedPlaybackDevice("")
}

// NewNamedPlaybackDevice returns the output device called name. An empty
// name selects the default output.
func NewNamedPlaybackDevice(name string) *PlaybackDevice {
	return &PlaybackDevice{TimelineDevice: voicecall.NewTimelineDevice(), name: name}
}

// Open starts the output stream.
func (d *PlaybackDevice) Open(format pcm.Format) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := pa.Initialize(); err != nil {
		return deviceError("initialize", err)
	}
	d.inited = true

	dev, err := findDevice(d.name, false)
	if err != nil {
		return deviceError("output device", err)
	}

	block := int(format.SamplesInDuration(outputBlock))
	out := make([]float32, block)
	stream, rate, err := openMono(dev, false, format.SampleRate(), block, out)
	if err != nil {
		return deviceError("open playback stream", err)
	}
	rs, err := resampler.New(format.SampleRate(), rate)
	if err != nil {
		stream.Close()
		return deviceError("playback resampler", err)
	}
	if err := d.TimelineDevice.Open(format); err != nil {
		stream.Close()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return deviceError("start playback", err)
	}

	d.stream = stream
	d.done = make(chan struct{})
	d.stopped = make(chan struct{})
	slog.Debug("audio playback started", "device", dev.Name, "rate", rate)

	go d.writeLoop(stream, out, make([]float32, block), rs, d.done, d.stopped)
	return nil
}

func (d *PlaybackDevice) writeLoop(stream *pa.Stream, out, render []float32, rs *resampler.Resampler,
	done, stopped chan struct{}) {
	defer close(stopped)
	var pending []float32
	for {
		select {
		case <-done:
			return
		default:
		}
		for len(pending) < len(out) {
			d.TimelineDevice.Read(render)
			samples, err := rs.Process(render)
			if err != nil {
				slog.Warn("playback resample error", "error", err)
				clear(render)
				samples = render
			}
			pending = append(pending, samples...)
		}
		n := copy(out, pending)
		pending = pending[:copy(pending, pending[n:])]
		if err := stream.Write(); err != nil && !transient(err) {
			select {
			case <-done:
			default:
				slog.Warn("audio playback stopped", "error", err)
			}
			return
		}
	}
}

// Close stops every chunk, the stream and the writer goroutine.
func (d *PlaybackDevice) Close() error {
	d.TimelineDevice.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	if d.stream != nil {
		close(d.done)
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
