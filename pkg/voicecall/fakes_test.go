package voicecall

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/normacomex/normabot/pkg/audio/pcm"
	"github.com/normacomex/normabot/pkg/geminilive"
)

// fakeClock fires AfterFunc callbacks when Advance passes their deadline.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

// Pending returns the number of armed timers.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// mockSession is a scripted geminilive.Session.
type mockSession struct {
	events chan eventItem
	done   chan struct{}

	mu      sync.Mutex
	texts   []string
	audio   []string
	closed  int
	textErr error
	once    sync.Once
}

type eventItem struct {
	event *geminilive.ServerEvent
	err   error
}

func newMockSession() *mockSession {
	return &mockSession{
		events: make(chan eventItem, 16),
		done:   make(chan struct{}),
	}
}

func (s *mockSession) SendText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.textErr != nil {
		return s.textErr
	}
	s.texts = append(s.texts, text)
	return nil
}

func (s *mockSession) SendAudio(audioBase64 string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = append(s.audio, audioBase64)
	return nil
}

func (s *mockSession) Events() iter.Seq2[*geminilive.ServerEvent, error] {
	return func(yield func(*geminilive.ServerEvent, error) bool) {
		for {
			select {
			case <-s.done:
				return
			case item, ok := <-s.events:
				if !ok {
					return
				}
				if !yield(item.event, item.err) || item.err != nil {
					return
				}
			}
		}
	}
}

func (s *mockSession) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	s.once.Do(func() { close(s.done) })
	return nil
}

// emit delivers a server event to the controller.
func (s *mockSession) emit(e *geminilive.ServerEvent) {
	s.events <- eventItem{event: e}
}

// fail delivers a stream error.
func (s *mockSession) fail(err error) {
	s.events <- eventItem{err: err}
}

// hangup ends the stream cleanly, as a server close does.
func (s *mockSession) hangup() {
	close(s.events)
}

func (s *mockSession) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func (s *mockSession) AudioCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audio)
}

func (s *mockSession) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// mockConnector returns queued sessions or errors.
type mockConnector struct {
	mu       sync.Mutex
	sessions []*mockSession
	err      error
	block    bool
	configs  []*geminilive.ConnectConfig
	calls    int
}

func (c *mockConnector) Connect(ctx context.Context, config *geminilive.ConnectConfig) (geminilive.Session, error) {
	c.mu.Lock()
	c.calls++
	c.configs = append(c.configs, config)
	block, err := c.block, c.err
	var sess *mockSession
	if len(c.sessions) > 0 {
		sess, c.sessions = c.sessions[0], c.sessions[1:]
	}
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = newMockSession()
	}
	return sess, nil
}

func (c *mockConnector) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *mockConnector) LastConfig() *geminilive.ConnectConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.configs) == 0 {
		return nil
	}
	return c.configs[len(c.configs)-1]
}

// fakeCapture is a microphone driven by Emit.
type fakeCapture struct {
	mu          sync.Mutex
	openErr     error
	onFrame     func([]float32)
	constraints CaptureConstraints
	opened      bool
	closes      int
}

func (d *fakeCapture) Open(_ context.Context, c CaptureConstraints, onFrame func([]float32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return d.openErr
	}
	d.opened = true
	d.constraints = c
	d.onFrame = onFrame
	return nil
}

func (d *fakeCapture) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	d.onFrame = nil
	return nil
}

// Emit delivers one frame as the device goroutine would.
func (d *fakeCapture) Emit(frame []float32) {
	d.mu.Lock()
	cb := d.onFrame
	d.mu.Unlock()
	if cb != nil {
		cb(frame)
	}
}

func (d *fakeCapture) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// fakePlayback records scheduled buffers against a settable clock.
type fakePlayback struct {
	mu      sync.Mutex
	openErr error
	format  pcm.Format
	now     time.Duration
	chunks  []*fakeChunk
	closes  int
}

type fakeChunk struct {
	buf     *pcm.Buffer
	at      time.Duration
	onEnded func()

	mu      sync.Mutex
	stopped bool
}

func (c *fakeChunk) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
}

func (c *fakeChunk) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (d *fakePlayback) Open(format pcm.Format) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return d.openErr
	}
	d.format = format
	return nil
}

func (d *fakePlayback) Now() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.now
}

func (d *fakePlayback) SetNow(t time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = t
}

func (d *fakePlayback) Schedule(buf *pcm.Buffer, at time.Duration, onEnded func()) (ScheduledChunk, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := &fakeChunk{buf: buf, at: at, onEnded: onEnded}
	d.chunks = append(d.chunks, c)
	return c, nil
}

func (d *fakePlayback) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return nil
}

func (d *fakePlayback) Chunks() []*fakeChunk {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeChunk(nil), d.chunks...)
}

func (d *fakePlayback) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// chunkOf encodes n samples of value v as a wire chunk.
func chunkOf(n int, v float32) string {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = v
	}
	return pcm.EncodeFrame(samples)
}

var errBoom = errors.New("boom")
