// Package resampler converts mono float32 audio between sample rates and
// regroups it into fixed-size frames.
//
// Audio devices rarely run at the 16 kHz and 24 kHz rates used by streaming
// voice endpoints. Capture runs at the device rate and is converted down
// before framing; playback is converted up to the device rate.
//
// Example usage:
//
//	r, err := resampler.New(48000, 16000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	framer := resampler.NewFramer(4096)
//	out, err := r.Process(block)
//	framer.Write(out, func(frame []float32) {
//	    send(frame)
//	})
package resampler
