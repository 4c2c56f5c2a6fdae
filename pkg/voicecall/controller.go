package voicecall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/normacomex/normabot/pkg/audio/pcm"
	"github.com/normacomex/normabot/pkg/geminilive"
)

// Controller runs one voice call at a time.
type Controller struct {
	connector   Connector
	devices     Devices
	clock       Clock
	voice       string
	model       string
	grace       time.Duration
	constraints CaptureConstraints

	mu       sync.Mutex
	gen      uint64
	state    CallSession
	capture  *CaptureSource
	playback *PlaybackScheduler
	session  geminilive.Session
	timer    Timer
	closed   bool

	subMu  sync.Mutex
	subs   map[int]func(CallSession)
	nextID int
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(ctrl *Controller) {
		ctrl.clock = c
	}
}

// WithVoice sets the prebuilt voice of the assistant.
func WithVoice(voice string) Option {
	return func(ctrl *Controller) {
		ctrl.voice = voice
	}
}

// WithModel sets the Live model.
func WithModel(model string) Option {
	return func(ctrl *Controller) {
		ctrl.model = model
	}
}

// WithGraceDelay sets the pause between the greeting trigger and the start
// of microphone streaming.
func WithGraceDelay(d time.Duration) Option {
	return func(ctrl *Controller) {
		ctrl.grace = d
	}
}

// WithCaptureConstraints overrides the microphone parameters.
func WithCaptureConstraints(c CaptureConstraints) Option {
	return func(ctrl *Controller) {
		ctrl.constraints = c
	}
}

// NewController creates an idle controller.
func NewController(connector Connector, devices Devices, opts ...Option) *Controller {
	if connector == nil {
		panic("voicecall: connector is required")
	}
	if devices.Capture == nil || devices.Playback == nil {
		panic("voicecall: capture and playback devices are required")
	}
	ctrl := &Controller{
		connector:   connector,
		devices:     devices,
		clock:       systemClock{},
		voice:       geminilive.VoiceKore,
		model:       geminilive.ModelFlashNativeAudio,
		grace:       DefaultGraceDelay,
		constraints: DefaultCaptureConstraints(),
		state:       CallSession{Language: Spanish},
		subs:        make(map[int]func(CallSession)),
	}
	for _, opt := range opts {
		opt(ctrl)
	}
	return ctrl
}

// Snapshot returns the current call state.
func (c *Controller) Snapshot() CallSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every state change. The returned
// function removes the subscription.
func (c *Controller) Subscribe(fn func(CallSession)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Controller) notify(s CallSession) {
	c.subMu.Lock()
	fns := make([]func(CallSession), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// resources are the per-call handles detached from the controller for
// release outside the lock.
type resources struct {
	timer    Timer
	capture  *CaptureSource
	playback *PlaybackScheduler
	session  geminilive.Session
}

// detachLocked invalidates the current call and hands its resources to the
// caller. It resets the gate and mute flags.
func (c *Controller) detachLocked() resources {
	c.gen++
	r := resources{
		timer:    c.timer,
		capture:  c.capture,
		playback: c.playback,
		session:  c.session,
	}
	c.timer, c.capture, c.playback, c.session = nil, nil, nil, nil
	c.state.StreamingEnabled = false
	c.state.Muted = false
	return r
}

func (r resources) release() {
	if r.timer != nil {
		r.timer.Stop()
	}
	if r.capture != nil {
		if err := r.capture.Close(); err != nil {
			slog.Debug("close capture", "error", err)
		}
	}
	if r.playback != nil {
		if err := r.playback.Close(); err != nil {
			slog.Debug("close playback", "error", err)
		}
	}
	if r.session != nil {
		if err := r.session.Close(); err != nil {
			slog.Debug("close session", "error", err)
		}
	}
}

// Start places a call in lang. It is valid from Idle or Error and returns
// once the call is connected or has failed. On failure the controller is in
// the Error state and the returned error matches one of the package
// sentinels; a call hung up while connecting returns ErrCanceled.
func (c *Controller) Start(ctx context.Context, lang Language) error {
	if lang != English {
		lang = Spanish
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.Status.Active() {
		c.mu.Unlock()
		return ErrCallActive
	}
	prev := c.detachLocked()
	gen := c.gen
	c.state = CallSession{
		ID:        uuid.NewString(),
		Status:    StatusConnecting,
		Language:  lang,
		StartedAt: c.clock.Now(),
	}
	snap := c.state
	c.mu.Unlock()

	prev.release()
	c.notify(snap)
	slog.Info("starting call", "id", snap.ID, "language", lang)

	playback, err := NewPlaybackScheduler(c.devices.Playback())
	if err != nil {
		return c.failStart(gen, err)
	}
	if !c.adopt(gen, func() { c.playback = playback }) {
		playback.Close()
		return ErrCanceled
	}

	capture, err := OpenCapture(ctx, c.devices.Capture(), c.constraints)
	if err != nil {
		if ctx.Err() != nil {
			return c.cancelStart(gen)
		}
		return c.failStart(gen, err)
	}
	if !c.adopt(gen, func() { c.capture = capture }) {
		capture.Close()
		return ErrCanceled
	}

	sess, err := c.connector.Connect(ctx, &geminilive.ConnectConfig{
		Model:              c.model,
		ResponseModalities: []string{geminilive.ModalityAudio},
		Voice:              c.voice,
		SystemInstruction:  SystemInstruction(lang),
	})
	if err != nil {
		if isCanceled(err) || ctx.Err() != nil {
			return c.cancelStart(gen)
		}
		return c.failStart(gen, err)
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		sess.Close()
		return ErrCanceled
	}
	c.session = sess
	c.state.Status = StatusConnected
	c.state.ConnectedAt = c.clock.Now()
	snap = c.state
	c.mu.Unlock()

	c.notify(snap)
	slog.Info("call connected", "id", snap.ID)

	go c.pump(gen, sess, playback)

	if err := sess.SendText(GreetingTrigger(lang)); err != nil {
		return c.failStart(gen, err)
	}

	capture.OnFrame(c.sendFrame(gen))

	c.mu.Lock()
	if c.gen == gen {
		c.timer = c.clock.AfterFunc(c.grace, c.enableStreaming(gen))
	}
	c.mu.Unlock()
	return nil
}

// adopt stores a freshly opened resource if gen is still current.
func (c *Controller) adopt(gen uint64, set func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	set()
	return true
}

func (c *Controller) failStart(gen uint64, err error) error {
	kind, ok := c.fail(gen, err, PhaseStart)
	if !ok {
		return ErrCanceled
	}
	sentinel := ErrUnknownSession
	switch kind {
	case KindPermissionDenied:
		sentinel = ErrPermissionDenied
	case KindDeviceUnavailable:
		sentinel = ErrDeviceUnavailable
	case KindRemoteUnavailable:
		sentinel = ErrRemoteUnavailable
	}
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// cancelStart returns to Idle after the caller abandoned a connecting call.
func (c *Controller) cancelStart(gen uint64) error {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrCanceled
	}
	r := c.detachLocked()
	c.state.Status = StatusIdle
	snap := c.state
	c.mu.Unlock()

	r.release()
	c.notify(snap)
	return ErrCanceled
}

// fail tears the call down into the Error state. It reports false when gen
// is stale or the controller is already idle.
func (c *Controller) fail(gen uint64, err error, phase Phase) (ErrorKind, bool) {
	c.mu.Lock()
	if c.gen != gen || c.state.Status == StatusIdle {
		c.mu.Unlock()
		return KindNone, false
	}
	kind := Classify(err)
	if !kind.Fatal() {
		kind = KindUnknown
	}
	r := c.detachLocked()
	c.state.Status = StatusError
	c.state.ErrorKind = kind
	c.state.ErrorMessage = Message(kind, c.state.Language, phase)
	snap := c.state
	c.mu.Unlock()

	slog.Error("call failed", "id", snap.ID, "kind", kind, "error", err)
	r.release()
	c.notify(snap)
	return kind, true
}

// sendFrame returns the capture callback for generation gen. Frames pass
// only while the call is connected, streaming is enabled and the
// microphone is not muted. The send happens under the lock so mute and
// teardown take effect before the next frame.
func (c *Controller) sendFrame(gen uint64) func([]float32) {
	return func(frame []float32) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen || c.session == nil ||
			c.state.Status != StatusConnected || !c.state.StreamingEnabled || c.state.Muted {
			return
		}
		if err := c.session.SendAudio(pcm.EncodeFrame(frame)); err != nil {
			slog.Debug("send audio", "error", err)
		}
	}
}

func (c *Controller) enableStreaming(gen uint64) func() {
	return func() {
		c.mu.Lock()
		if c.gen != gen || c.state.Status != StatusConnected {
			c.mu.Unlock()
			return
		}
		c.state.StreamingEnabled = true
		c.timer = nil
		snap := c.state
		c.mu.Unlock()

		slog.Debug("microphone streaming enabled", "id", snap.ID)
		c.notify(snap)
	}
}

// pump routes remote events of one session until it ends.
func (c *Controller) pump(gen uint64, sess geminilive.Session, playback *PlaybackScheduler) {
	for event, err := range sess.Events() {
		if err != nil {
			c.fail(gen, err, PhaseCall)
			return
		}
		switch event.Type {
		case geminilive.EventServerContent:
			for _, part := range event.AudioParts {
				playback.Enqueue(part)
			}
			if len(event.AudioParts) == 0 && event.HasAudio() {
				playback.Enqueue(event.Audio)
			}
			if event.Interrupted {
				slog.Debug("assistant interrupted")
				playback.Interrupt()
			}
		case geminilive.EventGoAway:
			slog.Warn("voice service closing session soon", "time_left", event.GoAwayTimeLeft)
		}
	}
	c.remoteClosed(gen)
}

// remoteClosed handles a clean close by the server.
func (c *Controller) remoteClosed(gen uint64) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	r := c.detachLocked()
	c.state.Status = StatusIdle
	snap := c.state
	c.mu.Unlock()

	slog.Info("call closed by remote", "id", snap.ID, "reason", ErrSessionClosedByRemote)
	r.release()
	c.notify(snap)
}

// ToggleMute flips the microphone mute and returns the new value.
func (c *Controller) ToggleMute() (bool, error) {
	c.mu.Lock()
	if c.state.Status != StatusConnected {
		c.mu.Unlock()
		return false, ErrNotConnected
	}
	c.state.Muted = !c.state.Muted
	snap := c.state
	c.mu.Unlock()

	c.notify(snap)
	return snap.Muted, nil
}

// Disconnect hangs up. It is safe to call from any state and more than
// once; the controller ends Idle with no devices held.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	wasIdle := c.state.Status == StatusIdle && c.session == nil && c.capture == nil && c.playback == nil
	r := c.detachLocked()
	c.state.Status = StatusIdle
	c.state.ErrorKind = KindNone
	c.state.ErrorMessage = ""
	snap := c.state
	c.mu.Unlock()

	r.release()
	if !wasIdle {
		slog.Info("call ended", "id", snap.ID)
		c.notify(snap)
	}
}

// Close hangs up and rejects further calls.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Disconnect()
	return nil
}
