package pcm

import (
	"fmt"
	"time"
)

const (
	// L16Mono16K represents audio/L16; rate=16000; channels=1
	L16Mono16K Format = iota
	// L16Mono24K represents audio/L16; rate=24000; channels=1
	L16Mono24K
	// L16Mono48K represents audio/L16; rate=48000; channels=1
	L16Mono48K
)

// Format represents an audio format configuration.
type Format int

// SampleRate returns the sample rate in Hz for this format.
func (f Format) SampleRate() int {
	switch f {
	case L16Mono16K:
		return 16000
	case L16Mono24K:
		return 24000
	case L16Mono48K:
		return 48000
	}
	panic("pcm: invalid audio type")
}

// Channels returns the number of audio channels for this format.
func (f Format) Channels() int {
	switch f {
	case L16Mono16K, L16Mono24K, L16Mono48K:
		return 1
	}
	panic("pcm: invalid audio type")
}

// Depth returns the bit depth for this format.
func (f Format) Depth() int {
	switch f {
	case L16Mono16K, L16Mono24K, L16Mono48K:
		return 16
	}
	panic("pcm: invalid audio type")
}

// Samples returns the number of samples in the given number of bytes.
func (f Format) Samples(bytes int64) int64 {
	return bytes * 8 / int64(f.Channels()) / int64(f.Depth())
}

// SamplesInDuration returns the number of samples in the given duration,
// rounded to the nearest sample. It inverts SampleDuration exactly.
func (f Format) SamplesInDuration(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	rate := int64(f.SampleRate())
	sec, rem := int64(d/time.Second), int64(d%time.Second)
	return sec*rate + (rem*rate+int64(time.Second)/2)/int64(time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.SamplesInDuration(d) * int64(f.Channels()) * int64(f.Depth()) / 8
}

// Duration returns the duration of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	return f.SampleDuration(f.Samples(bytes))
}

// SampleDuration returns the playback duration of n samples, truncated to
// the nanosecond.
func (f Format) SampleDuration(n int64) time.Duration {
	rate := int64(f.SampleRate())
	sec, rem := n/rate, n%rate
	return time.Duration(sec)*time.Second + time.Duration(rem*int64(time.Second)/rate)
}

// MIMEType returns the MIME type used by streaming voice endpoints,
// e.g. "audio/pcm;rate=16000".
func (f Format) MIMEType() string {
	return fmt.Sprintf("audio/pcm;rate=%d", f.SampleRate())
}

// String returns a human-readable string representation of the format.
func (f Format) String() string {
	switch f {
	case L16Mono16K:
		return "audio/L16; rate=16000; channels=1"
	case L16Mono24K:
		return "audio/L16; rate=24000; channels=1"
	case L16Mono48K:
		return "audio/L16; rate=48000; channels=1"
	}
	panic("pcm: invalid audio type")
}

// FormatForRate returns the mono 16-bit format with the given sample rate.
func FormatForRate(rate int) (Format, bool) {
	switch rate {
	case 16000:
		return L16Mono16K, true
	case 24000:
		return L16Mono24K, true
	case 48000:
		return L16Mono48K, true
	}
	return 0, false
}

// Buffer is a block of decoded mono float samples in [-1, 1].
type Buffer struct {
	Format  Format
	Samples []float32
}

// Len returns the number of samples in the buffer.
func (b *Buffer) Len() int {
	return len(b.Samples)
}

// Duration returns the playback duration of the buffer.
func (b *Buffer) Duration() time.Duration {
	return b.Format.SampleDuration(int64(len(b.Samples)))
}
