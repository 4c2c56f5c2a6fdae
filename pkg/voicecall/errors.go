package voicecall

import (
	"context"
	"errors"

	"github.com/normacomex/normabot/pkg/audio/pcm"
	"github.com/normacomex/normabot/pkg/geminilive"
)

var (
	// ErrPermissionDenied is returned when the user declined microphone access.
	ErrPermissionDenied = errors.New("voicecall: microphone permission denied")

	// ErrDeviceUnavailable is returned when no compatible audio device exists.
	ErrDeviceUnavailable = errors.New("voicecall: audio device unavailable")

	// ErrRemoteUnavailable is returned when the voice service is temporarily
	// saturated. Retrying later is safe.
	ErrRemoteUnavailable = errors.New("voicecall: voice service unavailable")

	// ErrSessionClosedByRemote reports a clean close by the voice service.
	ErrSessionClosedByRemote = errors.New("voicecall: session closed by remote")

	// ErrUnknownSession is the catch-all for other session failures.
	ErrUnknownSession = errors.New("voicecall: session error")

	// ErrCallActive is returned by Start while a call is connecting or
	// connected.
	ErrCallActive = errors.New("voicecall: call already active")

	// ErrNotConnected is returned by operations that need a connected call.
	ErrNotConnected = errors.New("voicecall: not connected")

	// ErrClosed is returned after the controller has been closed.
	ErrClosed = errors.New("voicecall: controller closed")

	// ErrCanceled is returned by Start when the call was hung up or
	// superseded before it finished connecting.
	ErrCanceled = errors.New("voicecall: call canceled")
)

// ErrorKind classifies a call failure.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindPermissionDenied
	KindDeviceUnavailable
	KindRemoteUnavailable
	KindDecode
	KindClosedByRemote
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPermissionDenied:
		return "permission_denied"
	case KindDeviceUnavailable:
		return "device_unavailable"
	case KindRemoteUnavailable:
		return "remote_unavailable"
	case KindDecode:
		return "decode"
	case KindClosedByRemote:
		return "closed_by_remote"
	}
	return "unknown"
}

// Fatal reports whether the kind ends the call.
func (k ErrorKind) Fatal() bool {
	return k != KindNone && k != KindDecode && k != KindClosedByRemote
}

// Classify maps an error to its kind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrDeviceUnavailable):
		return KindDeviceUnavailable
	case errors.Is(err, ErrRemoteUnavailable), geminilive.IsUnavailable(err):
		return KindRemoteUnavailable
	case errors.Is(err, pcm.ErrDecode):
		return KindDecode
	case errors.Is(err, ErrSessionClosedByRemote):
		return KindClosedByRemote
	}
	return KindUnknown
}

// Phase tells Message whether a failure happened while starting a call or
// during an established one.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseCall
)

// Message returns the one-line user-facing message for a failure.
func Message(kind ErrorKind, lang Language, phase Phase) string {
	en := lang == English
	switch kind {
	case KindNone, KindDecode, KindClosedByRemote:
		return ""
	case KindPermissionDenied:
		if en {
			return "Microphone permission is required to continue."
		}
		return "Se requiere permiso de micrófono para continuar."
	case KindDeviceUnavailable:
		if en {
			return "No compatible audio device was found."
		}
		return "No se encontró un dispositivo de audio compatible."
	case KindRemoteUnavailable:
		if en {
			return "The service is temporarily overloaded. Please try again in a few seconds."
		}
		return "El servicio está temporalmente saturado. Por favor intente en unos segundos."
	}
	if phase == PhaseCall {
		if en {
			return "The connection to the assistant was lost. Please try again."
		}
		return "La conexión con el asistente se perdió. Por favor intente de nuevo."
	}
	if en {
		return "The call could not be started."
	}
	return "No se pudo iniciar la llamada."
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, ErrCanceled)
}
