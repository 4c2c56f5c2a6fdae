package geminilive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeLive is a scripted BidiGenerateContent server. Each accepted connection
// receives the setup message, acknowledges it and runs script.
type fakeLive struct {
	setups chan setupMessage
	keys   chan string
	script func(conn *websocket.Conn)
}

func newFakeLive(t *testing.T, script func(conn *websocket.Conn)) (*fakeLive, *httptest.Server) {
	t.Helper()
	f := &fakeLive{
		setups: make(chan setupMessage, 1),
		keys:   make(chan string, 1),
		script: script,
	}
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.keys <- r.URL.Query().Get("key")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil || msg.Setup == nil {
			return
		}
		f.setups <- *msg.Setup
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"setupComplete":{}}`)); err != nil {
			return
		}
		f.script(conn)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
	// Wait for the peer to acknowledge the close.
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestWebSocketSession_Conversation(t *testing.T) {
	received := make(chan clientMessage, 4)
	f, srv := newFakeLive(t, func(conn *websocket.Conn) {
		for range 2 {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			received <- msg
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"AAAA"}},{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"AQAB"}}]}}}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"serverContent":{"interrupted":true}}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"goAway":{"timeLeft":"10s"}}`))
		closeWith(conn, websocket.CloseNormalClosure, "")
	})

	client := NewClient("test-key", WithWebSocketURL(wsURL(srv)))
	session, err := client.Connect(context.Background(), &ConnectConfig{
		SystemInstruction: "be brief",
		LanguageCode:      "es-US",
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer session.Close()

	if key := <-f.keys; key != "test-key" {
		t.Errorf("key = %q, want test-key", key)
	}
	setup := <-f.setups
	if setup.Model != "models/"+ModelFlashNativeAudio {
		t.Errorf("model = %q", setup.Model)
	}
	if got := setup.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; got != VoiceKore {
		t.Errorf("voice = %q, want %q", got, VoiceKore)
	}
	if setup.SystemInstruction == nil || setup.SystemInstruction.Parts[0].Text != "be brief" {
		t.Errorf("system instruction = %+v", setup.SystemInstruction)
	}
	if got := setup.GenerationConfig.ResponseModalities; len(got) != 1 || got[0] != ModalityAudio {
		t.Errorf("modalities = %v", got)
	}

	if err := session.SendText("hola"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if err := session.SendAudio("AAAA"); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}

	text := <-received
	if text.ClientContent == nil || !text.ClientContent.TurnComplete ||
		text.ClientContent.Turns[0].Role != "user" || text.ClientContent.Turns[0].Parts[0].Text != "hola" {
		raw, _ := json.Marshal(text)
		t.Errorf("client content = %s", raw)
	}
	audio := <-received
	if audio.RealtimeInput == nil || audio.RealtimeInput.Audio.MIMEType != "audio/pcm;rate=16000" ||
		audio.RealtimeInput.Audio.Data != "AAAA" {
		raw, _ := json.Marshal(audio)
		t.Errorf("realtime input = %s", raw)
	}

	var events []*ServerEvent
	for event, err := range session.Events() {
		if err != nil {
			t.Fatalf("Events: %v", err)
		}
		events = append(events, event)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if !events[0].HasAudio() || events[0].Audio != "AAAA" || len(events[0].AudioParts) != 2 {
		t.Errorf("audio event = %+v", events[0])
	}
	if !events[1].Interrupted {
		t.Errorf("event[1] not interrupted: %+v", events[1])
	}
	if events[2].Type != EventGoAway || events[2].GoAwayTimeLeft != 10*time.Second {
		t.Errorf("go away event = %+v", events[2])
	}
}

func TestWebSocketSession_Overloaded(t *testing.T) {
	_, srv := newFakeLive(t, func(conn *websocket.Conn) {
		closeWith(conn, CloseTryAgainLater, "try again later")
	})

	client := NewClient("k", WithWebSocketURL(wsURL(srv)))
	session, err := client.Connect(context.Background(), nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer session.Close()

	var got error
	for _, err := range session.Events() {
		if err != nil {
			got = err
		}
	}
	if got == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(got, ErrUnavailable) || !IsUnavailable(got) {
		t.Errorf("error %v does not report unavailable", got)
	}
}

func TestWebSocketSession_HandshakeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient("k", WithWebSocketURL(wsURL(srv)))
	_, err := client.Connect(context.Background(), nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want *Error with code 503", err)
	}
	if !IsUnavailable(err) {
		t.Error("503 handshake should be unavailable")
	}
}

func TestWebSocketSession_ClosedBeforeSetup(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var msg clientMessage
		conn.ReadJSON(&msg)
		closeWith(conn, websocket.CloseNormalClosure, "")
	}))
	defer srv.Close()

	client := NewClient("k", WithWebSocketURL(wsURL(srv)))
	if _, err := client.Connect(context.Background(), nil); err == nil {
		t.Fatal("expected an error when the server closes before setupComplete")
	}
}

func TestWebSocketSession_ConnectCanceled(t *testing.T) {
	_, srv := newFakeLive(t, func(conn *websocket.Conn) {})
	// The fake acknowledges setup immediately, so cancel before dialing.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := NewClient("k", WithWebSocketURL(wsURL(srv)))
	if _, err := client.Connect(ctx, nil); err == nil {
		t.Fatal("expected an error for a canceled context")
	}
}

func TestNewClient_PanicsWithoutKey(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewClient("")
}

func TestParseTransport(t *testing.T) {
	for in, want := range map[string]Transport{"": TransportWebSocket, "websocket": TransportWebSocket, "sdk": TransportSDK} {
		got, err := ParseTransport(in)
		if err != nil || got != want {
			t.Errorf("ParseTransport(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseTransport("grpc"); err == nil {
		t.Error("expected error for unknown transport")
	}
}
