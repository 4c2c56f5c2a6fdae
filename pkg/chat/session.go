package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// SystemInstruction is the text assistant's persona.
const SystemInstruction = `
Eres "NormaBot", un asistente virtual experto en regulación colombiana especializado en cuatro áreas: 
1. Regulación Aduanera (Estatuto Aduanero, Decretos, Conceptos DIAN).
2. Regulación Cambiaria (Normas del Banco de la República, DCIN-83).
3. Regulación Tributaria (Estatuto Tributario, Reformas recientes).
4. Comercio Exterior (Acuerdos comerciales, MinCIT, VUCE).

Tu objetivo es ayudar a abogados, contadores y gerentes de comercio exterior.
- Responde de manera profesional, precisa y concisa.
- Cita siempre la norma si es posible (ej. "Según el Decreto 1165 de 2016...").
- Si no sabes la respuesta o es un tema fuera de estas áreas, indícalo amablemente.
- Estructura tus respuestas usando Markdown para mejor legibilidad.
`

// Canned replies.
const (
	WelcomeText  = "¡Hola! Soy tu asistente legal de NuevasNormas. ¿Tienes dudas sobre regulación aduanera, cambiaria o tributaria hoy?"
	FallbackText = "Lo siento, no pude generar una respuesta en este momento."
	ErrorText    = "Ocurrió un error al consultar el asistente. Por favor intenta más tarde."
)

// HistoryLimit is the number of trailing lines sent with each prompt,
// including the new user line.
const HistoryLimit = 10

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("chat: empty message")

// Role identifies who wrote a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry of the conversation.
type Message struct {
	Role    Role      `json:"role" yaml:"role"`
	Text    string    `json:"text" yaml:"text"`
	Time    time.Time `json:"timestamp" yaml:"timestamp"`
	IsError bool      `json:"is_error,omitempty" yaml:"is_error,omitempty"`
}

func (m Message) line() string {
	if m.Role == RoleUser {
		return "Usuario: " + m.Text
	}
	return "Bot: " + m.Text
}

// BuildPrompt formats the prompt sent for message given the history lines.
func BuildPrompt(message string, history []string) string {
	return "Historial de chat:\n" + strings.Join(history, "\n") + "\n\nUsuario: " + message
}

// Session is a text conversation. It starts with the welcome message and
// is safe for concurrent use, though sends are serialized.
type Session struct {
	gen Generator
	now func() time.Time

	mu       sync.Mutex
	messages []Message
}

// NewSession starts a conversation answered by gen.
func NewSession(gen Generator) *Session {
	s := &Session{gen: gen, now: time.Now}
	s.messages = []Message{{Role: RoleModel, Text: WelcomeText, Time: s.now()}}
	return s
}

// Messages returns a copy of the conversation.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Send appends text as a user message and returns the reply. An empty
// reply becomes FallbackText. A generator error is returned together with
// an ErrorText reply, which is also recorded.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := Message{Role: RoleUser, Text: text, Time: s.now()}
	lines := make([]string, 0, len(s.messages)+1)
	for _, m := range s.messages {
		lines = append(lines, m.line())
	}
	lines = append(lines, user.line())
	if len(lines) > HistoryLimit {
		lines = lines[len(lines)-HistoryLimit:]
	}
	s.messages = append(s.messages, user)

	reply := Message{Role: RoleModel}
	out, err := s.gen.Generate(ctx, SystemInstruction, BuildPrompt(text, lines))
	switch {
	case err != nil:
		slog.Error("chat: generate failed", "error", err)
		reply.Text = ErrorText
		reply.IsError = true
	case strings.TrimSpace(out) == "":
		reply.Text = FallbackText
	default:
		reply.Text = out
	}
	reply.Time = s.now()
	s.messages = append(s.messages, reply)
	return reply, err
}
