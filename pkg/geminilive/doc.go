// Package geminilive provides a client for the Gemini Live API.
//
// The Live API is a bidirectional streaming endpoint: the client streams
// 16 kHz PCM microphone audio and receives 24 kHz PCM model speech, turn
// signals and interruption notices. Two transports are available.
//
// # WebSocket
//
// The default transport speaks the raw BidiGenerateContent JSON protocol:
//
//	client := geminilive.NewClient(apiKey)
//	session, err := client.Connect(ctx, &geminilive.ConnectConfig{
//	    Voice:             geminilive.VoiceKore,
//	    SystemInstruction: "You are a helpful assistant.",
//	})
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
// # SDK
//
// WithTransport(TransportSDK) routes the same calls through the official
// google.golang.org/genai client.
//
// # Events
//
//	for event, err := range session.Events() {
//	    if err != nil {
//	        return err
//	    }
//	    if event.HasAudio() {
//	        play(event.Audio)
//	    }
//	    if event.Interrupted {
//	        flush()
//	    }
//	}
//
// Connect returns after the server acknowledged the setup message. The
// event stream ends without an error when the server closes the session
// normally. Overload is reported as an error matching ErrUnavailable.
package geminilive
