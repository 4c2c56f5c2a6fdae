package geminilive

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventType identifies the kind of a server event.
type EventType string

// Server event types.
const (
	// EventSetupComplete acknowledges the session setup. Connect consumes it,
	// so it is only observed through Events when a transport delivers it late.
	EventSetupComplete EventType = "setup_complete"

	// EventServerContent carries model output and turn signals.
	EventServerContent EventType = "server_content"

	// EventGoAway warns that the server will close the session soon.
	EventGoAway EventType = "go_away"

	// EventToolCall asks the client to run a function.
	EventToolCall EventType = "tool_call"

	// EventUsage reports token usage.
	EventUsage EventType = "usage"
)

// ServerEvent is one message received from the Live API.
type ServerEvent struct {
	// Type is the event type.
	Type EventType `json:"type"`

	// === Server content ===

	// Audio is the base64 PCM data of the first inline audio part of the
	// model turn (24 kHz, 16-bit, mono).
	Audio string `json:"audio,omitzero"`

	// AudioParts holds every inline audio part in order, Audio included.
	AudioParts []string `json:"-"`

	// AudioMIMEType is the MIME type of the first audio part.
	AudioMIMEType string `json:"audio_mime_type,omitzero"`

	// Text concatenates the text parts of the model turn.
	Text string `json:"text,omitzero"`

	// Interrupted reports that the user started speaking over the model.
	Interrupted bool `json:"interrupted,omitzero"`

	// TurnComplete reports that the model finished its turn.
	TurnComplete bool `json:"turn_complete,omitzero"`

	// GenerationComplete reports that the model finished generating.
	GenerationComplete bool `json:"generation_complete,omitzero"`

	// InputTranscript is a transcription fragment of the user's audio.
	InputTranscript string `json:"input_transcript,omitzero"`

	// OutputTranscript is a transcription fragment of the model's audio.
	OutputTranscript string `json:"output_transcript,omitzero"`

	// === Go away ===

	// GoAwayTimeLeft is the time before the server closes the session.
	GoAwayTimeLeft time.Duration `json:"go_away_time_left,omitzero"`

	// === Usage ===

	// TotalTokens is the running token count of the session.
	TotalTokens int `json:"total_tokens,omitzero"`

	// Raw contains the original JSON message.
	Raw []byte `json:"-"`
}

// HasAudio reports whether the event carries model audio.
func (e *ServerEvent) HasAudio() bool {
	return e.Audio != ""
}

// parseEvent decodes a raw server message into a ServerEvent.
func parseEvent(data []byte) (*ServerEvent, error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("geminilive: failed to parse event: %w", err)
	}
	event := eventFromMessage(&msg)
	if event == nil {
		return nil, fmt.Errorf("geminilive: unknown message: %.100s", data)
	}
	event.Raw = data
	return event, nil
}

func eventFromMessage(msg *serverMessage) *ServerEvent {
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
				text.WriteString(p.Text)
				if p.InlineData != nil && isAudio(p.InlineData.MIMEType) {
					event.addAudio(p.InlineData.Data, p.InlineData.MIMEType)
				}
			}
			event.Text = text.String()
		}
		return event
	case msg.GoAway != nil:
		left, _ := time.ParseDuration(msg.GoAway.TimeLeft)
		return &ServerEvent{Type: EventGoAway, GoAwayTimeLeft: left}
	case msg.ToolCall != nil:
		return &ServerEvent{Type: EventToolCall}
	case msg.UsageMetadata != nil:
		return &ServerEvent{Type: EventUsage, TotalTokens: msg.UsageMetadata.TotalTokenCount}
	}
	return nil
}

func (e *ServerEvent) addAudio(data, mimeType string) {
	if data == "" {
		return
	}
	if e.Audio == "" {
		e.Audio = data
		e.AudioMIMEType = mimeType
	}
	e.AudioParts = append(e.AudioParts, data)
}

func isAudio(mimeType string) bool {
	return mimeType == "" || strings.HasPrefix(mimeType, "audio/")
}
