package voicecall

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a call.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Active reports whether the status holds a call that must be hung up
// before a new one can start.
func (s Status) Active() bool {
	return s == StatusConnecting || s == StatusConnected
}

// Language is the conversation language selected for a call.
type Language string

const (
	Spanish Language = "es"
	English Language = "en"
)

// ParseLanguage parses a language code. Empty selects Spanish.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "es", "spanish", "español", "espanol":
		return Spanish, nil
	case "en", "english", "inglés", "ingles":
		return English, nil
	}
	return "", fmt.Errorf("voicecall: unsupported language %q (want es or en)", s)
}

// Name returns the upper-case language name used in the system prompt.
func (l Language) Name() string {
	if l == English {
		return "ENGLISH"
	}
	return "SPANISH"
}

// DisplayName returns the language name shown to the user, in Spanish.
func (l Language) DisplayName() string {
	if l == English {
		return "Inglés"
	}
	return "Español"
}

// LanguageCode returns the BCP-47 speech language hint.
func (l Language) LanguageCode() string {
	if l == English {
		return "en-US"
	}
	return "es-US"
}

// CallSession is a snapshot of the controller state.
type CallSession struct {
	ID       string   `json:"id,omitzero"`
	Status   Status   `json:"status"`
	Language Language `json:"language"`

	// Muted suppresses outbound audio only.
	Muted bool `json:"muted"`

	// StreamingEnabled becomes true once the grace delay after connect has
	// elapsed.
	StreamingEnabled bool `json:"streaming_enabled"`

	ErrorKind    ErrorKind `json:"error_kind,omitzero"`
	ErrorMessage string    `json:"error_message,omitzero"`

	StartedAt   time.Time `json:"started_at,omitzero"`
	ConnectedAt time.Time `json:"connected_at,omitzero"`
}

// Headline is the one-line title describing the call state.
func (s CallSession) Headline() string {
	switch s.Status {
	case StatusConnected:
		if s.StreamingEnabled {
			return "Escuchando..."
		}
		return "NormaBot Hablando..."
	case StatusConnecting:
		return "Conectando servicio..."
	case StatusError:
		return "Conexión Interrumpida"
	}
	return "Línea de Asistencia Normativa"
}

// Detail is the sentence shown under the headline.
func (s CallSession) Detail() string {
	switch s.Status {
	case StatusConnected:
		return fmt.Sprintf("Conversación activa en %s.", s.Language.DisplayName())
	case StatusError:
		return "Hubo un problema con el servicio de voz. Intente nuevamente."
	}
	return "Seleccione su idioma de preferencia y conecte con nuestro asistente de IA especializado."
}
