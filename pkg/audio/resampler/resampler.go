//go:build !js
// +build !js

package resampler

import (
	"fmt"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resampler converts mono float32 audio from one sample rate to another
// using a pure Go resampler (no CGO/FFI dependencies). When both rates are
// equal it passes samples through unchanged.
//
// It is safe to call Process from multiple goroutines, but the output order
// only makes sense for a single producer.
type Resampler struct {
	srcRate int
	dstRate int

	mu        sync.Mutex
	resampler resampling.Resampler
	buf       []float64
}

// New creates a Resampler from srcRate to dstRate (Hz).
func New(srcRate, dstRate int) (*Resampler, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", srcRate, dstRate)
	}
	r := &Resampler{srcRate: srcRate, dstRate: dstRate}
	if srcRate == dstRate {
		return r, nil
	}

	config := &resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	}
	rs, err := resampling.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}
	r.resampler = rs
	return r, nil
}

// SrcRate returns the input sample rate.
func (r *Resampler) SrcRate() int { return r.srcRate }

// DstRate returns the output sample rate.
func (r *Resampler) DstRate() int { return r.dstRate }

// Passthrough reports whether the resampler copies samples unchanged.
func (r *Resampler) Passthrough() bool { return r.resampler == nil }

// Process converts a block of input samples. The filter keeps state between
// calls, so the output for one block may be shorter or longer than
// len(in)*dst/src; the total over a stream converges to that ratio.
func (r *Resampler) Process(in []float32) ([]float32, error) {
	if r.resampler == nil {
		out := make([]float32, len(in))
		copy(out, in)
		return out, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cap(r.buf) < len(in) {
		r.buf = make([]float64, len(in))
	}
	input := r.buf[:len(in)]
	for i, s := range in {
		input[i] = float64(s)
	}

	output, err := r.resampler.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	out := make([]float32, len(output))
	for i, s := range output {
		out[i] = float32(min(max(s, -1), 1))
	}
	return out, nil
}
