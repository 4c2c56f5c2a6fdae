// Package voicecall implements the voice-call core of NormaBot: a
// controller that bridges a microphone and a speaker to a Gemini Live
// session.
//
// The Controller owns three resources per call: a CaptureSource producing
// 16 kHz frames, a PlaybackScheduler laying 24 kHz chunks end to end on the
// output device, and a geminilive.Session. Audio hardware is reached through
// the CaptureDevice and PlaybackDevice interfaces and the remote endpoint
// through Connector, so the state machine runs unchanged against fakes.
//
//	ctrl := voicecall.NewController(client, voicecall.Devices{
//	    Capture:  portaudio.NewCaptureDevice,
//	    Playback: portaudio.NewPlaybackDevice,
//	})
//	defer ctrl.Close()
//	if err := ctrl.Start(ctx, voicecall.Spanish); err != nil {
//	    fmt.Println(ctrl.Snapshot().ErrorMessage)
//	}
//
// Outbound microphone audio is held back until a grace delay after the
// assistant's greeting trigger, and is suppressed while muted.
package voicecall
