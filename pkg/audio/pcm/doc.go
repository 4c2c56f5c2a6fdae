// Package pcm provides types and utilities for working with PCM (Pulse Code Modulation) audio data.
//
// The package defines audio formats for common configurations (16-bit mono at various sample rates),
// the wire codec used by streaming voice endpoints, and a Timeline that plays decoded buffers
// at absolute positions on a pull-based output stream.
//
// Key types:
//   - Format: Represents audio format (sample rate, channels, bit depth)
//   - Buffer: Decoded mono float samples at a given format
//   - Timeline: Sample-accurate scheduler and mixer for Buffers
//
// Wire codec:
//
//	// Outbound: float samples -> base64 of int16 little-endian
//	text := pcm.EncodeFrame(frame)
//
//	// Inbound: base64 of int16 little-endian -> float samples
//	buf, err := pcm.DecodeChunk(text, pcm.L16Mono24K)
//	if errors.Is(err, pcm.ErrDecode) {
//	    // drop the chunk
//	}
//
// Scheduling:
//
//	tl := pcm.NewTimeline(pcm.L16Mono24K)
//	v, _ := tl.Schedule(buf, tl.Now(), nil)
//	out := make([]float32, 480)
//	tl.Read(out) // called by the output device for every block
package pcm
