package geminilive

import "iter"

// Session is the common interface for Gemini Live sessions.
// Both the WebSocket and the genai SDK implementations satisfy this interface.
//
// A Session is open as soon as Client.Connect returns: the server has
// acknowledged the setup message.
type Session interface {
	// SendText sends a complete user turn containing text. The model
	// responds to it immediately.
	SendText(text string) error

	// SendAudio streams one block of microphone audio.
	// Audio format requirements:
	//   - Sample rate: 16kHz
	//   - Bit depth: 16-bit signed integers
	//   - Channels: Mono (1 channel)
	//   - Encoding: Little-endian PCM, base64 text
	SendAudio(audioBase64 string) error

	// Events returns an iterator over server events.
	// Iteration ends without an error when the server closes the session
	// normally or Close is called. After an error is yielded, iteration stops.
	Events() iter.Seq2[*ServerEvent, error]

	// Close closes the session connection. It is safe to call more than once.
	Close() error
}
