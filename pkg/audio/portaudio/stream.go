package portaudio

import (
	"fmt"
	"log/slog"

	pa "github.com/gordonklaus/portaudio"
)

// openMono opens a blocking mono stream on dev. It tries rate first and
// falls back to the device's default rate; the chosen rate is returned.
func openMono(dev *pa.DeviceInfo, input bool, rate, frames int, buf []float32) (*pa.Stream, int, error) {
	params := func(r float64) pa.StreamParameters {
		var p pa.StreamParameters
		if input {
			p = pa.LowLatencyParameters(dev, nil)
			p.Input.Channels = 1
		} else {
			p = pa.LowLatencyParameters(nil, dev)
			p.Output.Channels = 1
		}
		p.SampleRate = r
		p.FramesPerBuffer = frames
		return p
	}

	stream, err := pa.OpenStream(params(float64(rate)), buf)
	if err == nil {
		return stream, rate, nil
	}
	fallback := int(dev.DefaultSampleRate)
	if fallback <= 0 || fallback == rate {
		return nil, 0, err
	}
	slog.Debug("portaudio rate not supported, using device rate",
		"device", dev.Name, "want", rate, "rate", fallback, "error", err)
	stream, err2 := pa.OpenStream(params(float64(fallback)), buf)
	if err2 != nil {
		return nil, 0, fmt.Errorf("%w (at %d Hz: %w)", err, fallback, err2)
	}
	return stream, fallback, nil
}
