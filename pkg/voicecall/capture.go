package voicecall

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// CaptureSource owns a CaptureDevice and hands its frames to a single
// callback. Frames arriving with no callback registered are dropped.
type CaptureSource struct {
	dev         CaptureDevice
	constraints CaptureConstraints

	mu      sync.Mutex
	onFrame func([]float32)
	closed  bool
}

// OpenCapture opens dev with c. Zero fields of c take the defaults. Device
// failures are reported as ErrPermissionDenied or ErrDeviceUnavailable.
func OpenCapture(ctx context.Context, dev CaptureDevice, c CaptureConstraints) (*CaptureSource, error) {
	def := DefaultCaptureConstraints()
	if c.SampleRate <= 0 {
		c.SampleRate = def.SampleRate
	}
	if c.FrameSize <= 0 {
		c.FrameSize = def.FrameSize
	}

	src := &CaptureSource{dev: dev, constraints: c}
	if err := dev.Open(ctx, c, src.deliver); err != nil {
		dev.Close()
		return nil, captureError(err)
	}
	return src, nil
}

func captureError(err error) error {
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
}

// Constraints returns the constraints the device was opened with.
func (s *CaptureSource) Constraints() CaptureConstraints {
	return s.constraints
}

// OnFrame registers the frame callback, replacing any previous one. A nil
// callback drops frames.
func (s *CaptureSource) OnFrame(cb func([]float32)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFrame = cb
}

func (s *CaptureSource) deliver(frame []float32) {
	s.mu.Lock()
	cb := s.onFrame
	closed := s.closed
	s.mu.Unlock()
	if cb == nil || closed {
		return
	}
	cb(frame)
}

// Close stops the device. It is safe to call more than once.
func (s *CaptureSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.onFrame = nil
	s.mu.Unlock()
	return s.dev.Close()
}
