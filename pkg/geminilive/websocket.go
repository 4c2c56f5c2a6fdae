package geminilive

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketSession is a live session speaking the raw BidiGenerateContent
// JSON protocol.
type WebSocketSession struct {
	conn         *websocket.Conn
	config       *ConnectConfig
	writeTimeout time.Duration
	closeCh      chan struct{}
	eventsCh     chan eventOrError
	closeOnce    sync.Once
	mu           sync.Mutex
}

type eventOrError struct {
	event *ServerEvent
	err   error
}

var _ Session = (*WebSocketSession)(nil)

// connectWebSocket dials the endpoint, sends the setup message and waits for
// setupComplete.
func (c *Client) connectWebSocket(ctx context.Context, config *ConnectConfig) (*WebSocketSession, error) {
	u, err := url.Parse(c.config.wsURL)
	if err != nil {
		return nil, fmt.Errorf("geminilive: invalid url: %w", err)
	}
	q := u.Query()
	q.Set("key", c.config.apiKey)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.config.httpClient.Timeout,
	}

	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, &Error{
				Code:    resp.StatusCode,
				Message: fmt.Sprintf("failed to connect: %v", err),
			}
		}
		return nil, fmt.Errorf("geminilive: failed to connect: %w", err)
	}

	session := &WebSocketSession{
		conn:         conn,
		config:       config,
		writeTimeout: c.config.writeTimeout,
		closeCh:      make(chan struct{}),
		eventsCh:     make(chan eventOrError, 100),
	}

	if err := session.send(&clientMessage{Setup: newSetupMessage(config)}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("geminilive: send setup: %w", err)
	}
	if err := session.awaitSetup(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	// Start background reader
	go session.readLoop()

	return session, nil
}

// awaitSetup reads until the server acknowledges the setup message.
func (s *WebSocketSession) awaitSetup(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if cerr := closeError(err); cerr != nil {
				return cerr
			}
			return &Error{Message: "session closed before setup completed"}
		}
		event, err := parseEvent(message)
		if err != nil {
			slog.Debug("ignoring message before setup", "error", err)
			continue
		}
		if event.Type == EventSetupComplete {
			slog.Debug("live session setup complete", "model", s.config.Model)
			return nil
		}
	}
}

// SendText sends a complete user turn containing text.
func (s *WebSocketSession) SendText(text string) error {
	return s.send(&clientMessage{
		ClientContent: &clientContent{
			Turns: []content{{
				Role:  "user",
				Parts: []part{{Text: text}},
			}},
			TurnComplete: true,
		},
	})
}

// SendAudio streams one block of base64 16 kHz PCM audio.
func (s *WebSocketSession) SendAudio(audioBase64 string) error {
	return s.send(&clientMessage{
		RealtimeInput: &realtimeInput{
			Audio: &blob{MIMEType: InputFormat.MIMEType(), Data: audioBase64},
		},
	})
}

// Events returns an iterator over server events.
func (s *WebSocketSession) Events() iter.Seq2[*ServerEvent, error] {
	return func(yield func(*ServerEvent, error) bool) {
		for {
			select {
			case <-s.closeCh:
				return
			case item, ok := <-s.eventsCh:
				if !ok {
					return
				}
				if !yield(item.event, item.err) {
					return
				}
				if item.err != nil {
					return
				}
			}
		}
	}
}

// Close closes the session.
func (s *WebSocketSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		s.mu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.mu.Unlock()
		err = s.conn.Close()
	})
	return err
}

// send writes one client message.
func (s *WebSocketSession) send(msg *clientMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("geminilive: marshal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		if msg.RealtimeInput != nil {
			slog.Debug("sending audio", "len", len(msg.RealtimeInput.Audio.Data))
		} else {
			str := string(data)
			if len(str) > 500 {
				str = str[:500] + "..."
			}
			slog.Debug("sending message", "content", str)
		}
	}

	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop reads events from the WebSocket connection.
func (s *WebSocketSession) readLoop() {
	defer close(s.eventsCh)

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		_, message, err := s.conn.ReadMessage()
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

		if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			msgStr := string(message)
			if len(msgStr) > 1000 {
				msgStr = msgStr[:1000] + "..."
			}
			slog.Debug("received message", "len", len(message), "content", msgStr)
		}

		event, err := parseEvent(message)
		if err != nil {
			slog.Warn("dropping live message", "error", err)
			continue
		}

		select {
		case <-s.closeCh:
			return
		case s.eventsCh <- eventOrError{event: event}:
		}
	}
}
