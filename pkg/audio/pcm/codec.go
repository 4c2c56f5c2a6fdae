package pcm

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrDecode matches every error returned by DecodeChunk and DecodeBytes.
var ErrDecode = errors.New("pcm: decode error")

// DecodeError describes a malformed inbound audio chunk.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pcm: decode: %s: %v", e.Reason, e.Err)
	}
	return "pcm: decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// EncodeBytes converts float samples to signed 16-bit little-endian PCM.
// Samples are clamped to [-1, 1]; negative values scale by 32768 and
// non-negative values by 32767 so neither end overflows.
func EncodeBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(floatToInt16(s)))
	}
	return out
}

// EncodeFrame converts float samples to base64 text of 16-bit LE PCM, the
// wire form expected by streaming voice endpoints.
func EncodeFrame(samples []float32) string {
	return base64.StdEncoding.EncodeToString(EncodeBytes(samples))
}

// DecodeBytes interprets data as signed 16-bit LE PCM and rescales it to
// float samples in [-1, 1).
func DecodeBytes(data []byte, f Format) (*Buffer, error) {
	if len(data)%2 != 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("odd byte count %d", len(data))}
	}
	samples := make([]float32, len(data)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768
	}
	return &Buffer{Format: f, Samples: samples}, nil
}

// DecodeChunk base64-decodes wire text and returns a playable mono buffer
// at the format's sample rate.
func DecodeChunk(wire string, f Format) (*Buffer, error) {
	data, err := base64.StdEncoding.DecodeString(wire)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid base64", Err: err}
	}
	return DecodeBytes(data, f)
}

func floatToInt16(s float32) int16 {
	switch {
	case math.IsNaN(float64(s)):
		return 0
	case s <= -1:
		return -32768
	case s >= 1:
		return 32767
	case s < 0:
		return int16(s * 32768)
	default:
		return int16(s * 32767)
	}
}
