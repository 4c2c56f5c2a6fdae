package geminilive

import (
	"context"
	"encoding/base64"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// SDKSession is a live session backed by the google.golang.org/genai client.
type SDKSession struct {
	sess      *genai.Session
	config    *ConnectConfig
	closeCh   chan struct{}
	eventsCh  chan eventOrError
	closeOnce sync.Once
	mu        sync.Mutex
}

var _ Session = (*SDKSession)(nil)

func (c *Client) sdkClient(ctx context.Context) (*genai.Client, error) {
	if c.config.genaiClient != nil {
		return c.config.genaiClient, nil
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     c.config.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.config.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("geminilive: create genai client: %w", err)
	}
	return gc, nil
}

// connectSDK opens a live session through genai and waits for the setup
// acknowledgement.
func (c *Client) connectSDK(ctx context.Context, config *ConnectConfig) (*SDKSession, error) {
	gc, err := c.sdkClient(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := gc.Live.Connect(ctx, config.Model, liveConnectConfig(config))
	if err != nil {
		if IsUnavailable(err) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("geminilive: failed to connect: %w", err)
	}

	session := &SDKSession{
		sess:     sess,
		config:   config,
		closeCh:  make(chan struct{}),
		eventsCh: make(chan eventOrError, 100),
	}

	if err := session.awaitSetup(ctx); err != nil {
		sess.Close()
		return nil, err
	}

	go session.readLoop()

	return session, nil
}

func liveConnectConfig(config *ConnectConfig) *genai.LiveConnectConfig {
	lc := &genai.LiveConnectConfig{
		SpeechConfig: &genai.SpeechConfig{
			LanguageCode: config.LanguageCode,
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: config.Voice},
			},
		},
	}
	for _, m := range config.ResponseModalities {
		lc.ResponseModalities = append(lc.ResponseModalities, genai.Modality(m))
	}
	if config.SystemInstruction != "" {
		lc.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: config.SystemInstruction}},
		}
	}
	if config.InputTranscription {
		lc.InputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	if config.OutputTranscription {
		lc.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	return lc
}

func (s *SDKSession) awaitSetup(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.sess.Close() })
	defer stop()

	for {
		msg, err := s.sess.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if cerr := closeError(err); cerr != nil {
				return cerr
			}
			return &Error{Message: "session closed before setup completed"}
		}
		if msg.SetupComplete != nil {
			slog.Debug("live session setup complete", "model", s.config.Model, "transport", TransportSDK)
			return nil
		}
	}
}

// SendText sends a complete user turn containing text.
func (s *SDKSession) SendText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.SendClientContent(genai.LiveClientContentInput{
		Turns:        []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		TurnComplete: genai.Ptr(true),
	})
}

// SendAudio streams one block of base64 16 kHz PCM audio.
func (s *SDKSession) SendAudio(audioBase64 string) error {
	data, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return fmt.Errorf("geminilive: invalid audio: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{MIMEType: InputFormat.MIMEType(), Data: data},
	})
}

// Events returns an iterator over server events.
func (s *SDKSession) Events() iter.Seq2[*ServerEvent, error] {
	return func(yield func(*ServerEvent, error) bool) {
		for {
			select {
			case <-s.closeCh:
				return
			case item, ok := <-s.eventsCh:
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

// Close closes the session.
func (s *SDKSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		err = s.sess.Close()
	})
	return err
}

func (s *SDKSession) readLoop() {
	defer close(s.eventsCh)

	for {
		msg, err := s.sess.Receive()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
			}
			cerr := closeError(err)
			if cerr == nil {
				slog.Debug("live session closed by server")
				return
			}
			select {
			case <-s.closeCh:
			case s.eventsCh <- eventOrError{err: cerr}:
			}
			return
		}

		event := eventFromLive(msg)
		if event == nil {
			continue
		}

		select {
		case <-s.closeCh:
			return
		case s.eventsCh <- eventOrError{event: event}:
		}
	}
}

// eventFromLive converts a genai message into a ServerEvent.
func eventFromLive(msg *genai.LiveServerMessage) *ServerEvent {
	switch {
	case msg.SetupComplete != nil:
		return &ServerEvent{Type: EventSetupComplete}
	case msg.ServerContent != nil:
		sc := msg.ServerContent
		event := &ServerEvent{
			Type:               EventServerContent,
			Interrupted:        sc.Interrupted,
			TurnComplete:       sc.TurnComplete,
			GenerationComplete: sc.GenerationComplete,
		}
		if sc.InputTranscription != nil {
			event.InputTranscript = sc.InputTranscription.Text
		}
		if sc.OutputTranscription != nil {
			event.OutputTranscript = sc.OutputTranscription.Text
		}
		if sc.ModelTurn != nil {
			var text strings.Builder
			for _, p := range sc.ModelTurn.Parts {
				if p == nil {
					continue
				}
				text.WriteString(p.Text)
				if p.InlineData != nil && isAudio(p.InlineData.MIMEType) && len(p.InlineData.Data) > 0 {
					event.addAudio(base64.StdEncoding.EncodeToString(p.InlineData.Data), p.InlineData.MIMEType)
				}
			}
			event.Text = text.String()
		}
		return event
	case msg.GoAway != nil:
		return &ServerEvent{Type: EventGoAway, GoAwayTimeLeft: msg.GoAway.TimeLeft}
	case msg.ToolCall != nil:
		return &ServerEvent{Type: EventToolCall}
	case msg.UsageMetadata != nil:
		return &ServerEvent{Type: EventUsage, TotalTokens: int(msg.UsageMetadata.TotalTokenCount)}
	}
	return nil
}
