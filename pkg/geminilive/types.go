package geminilive

import (
	"github.com/normacomex/normabot/pkg/audio/pcm"
)

// Models supported by the Gemini Live API.
const (
	// ModelFlashNativeAudio is the native-audio dialog model used for calls.
	ModelFlashNativeAudio = "gemini-2.5-flash-native-audio-preview-09-2025"
	// ModelFlashLive is the half-cascade live model.
	ModelFlashLive = "gemini-live-2.5-flash-preview"
)

// Prebuilt voice options for audio output.
const (
	VoiceKore   = "Kore"
	VoicePuck   = "Puck"
	VoiceCharon = "Charon"
	VoiceFenrir = "Fenrir"
	VoiceAoede  = "Aoede"
	VoiceLeda   = "Leda"
	VoiceOrus   = "Orus"
	VoiceZephyr = "Zephyr"
)

// Modality types.
const (
	ModalityText  = "TEXT"
	ModalityAudio = "AUDIO"
)

// Fixed audio formats of the Live API contract.
var (
	// InputFormat is the format of microphone audio sent to the model.
	InputFormat = pcm.L16Mono16K
	// OutputFormat is the format of audio produced by the model.
	OutputFormat = pcm.L16Mono24K
)

// ConnectConfig contains configuration for establishing a live session.
type ConnectConfig struct {
	// Model is the model to use. Should not start with "models/".
	// Default: ModelFlashNativeAudio
	Model string `json:"model,omitzero" yaml:"model,omitempty"`

	// ResponseModalities are the modalities the model responds with.
	// Default: [AUDIO]
	ResponseModalities []string `json:"response_modalities,omitzero" yaml:"response_modalities,omitempty"`

	// Voice is the prebuilt voice name for audio output.
	// Default: VoiceKore
	Voice string `json:"voice,omitzero" yaml:"voice,omitempty"`

	// LanguageCode is an optional BCP-47 speech language hint (e.g. "es-US").
	LanguageCode string `json:"language_code,omitzero" yaml:"language_code,omitempty"`

	// SystemInstruction is the system prompt pinned for the whole session.
	SystemInstruction string `json:"system_instruction,omitzero" yaml:"system_instruction,omitempty"`

	// InputTranscription asks the server to transcribe the user's audio.
	InputTranscription bool `json:"input_transcription,omitzero" yaml:"input_transcription,omitempty"`

	// OutputTranscription asks the server to transcribe the model's audio.
	OutputTranscription bool `json:"output_transcription,omitzero" yaml:"output_transcription,omitempty"`
}

func (c *ConnectConfig) withDefaults() *ConnectConfig {
	out := ConnectConfig{}
	if c != nil {
		out = *c
	}
	if out.Model == "" {
		out.Model = ModelFlashNativeAudio
	}
	if len(out.ResponseModalities) == 0 {
		out.ResponseModalities = []string{ModalityAudio}
	}
	if out.Voice == "" {
		out.Voice = VoiceKore
	}
	return &out
}

// Wire messages of the BidiGenerateContent protocol. Field names follow the
// protobuf JSON mapping (lowerCamelCase).

type clientMessage struct {
	Setup         *setupMessage  `json:"setup,omitempty"`
	ClientContent *clientContent `json:"clientContent,omitempty"`
	RealtimeInput *realtimeInput `json:"realtimeInput,omitempty"`
}

type setupMessage struct {
	Model                    string            `json:"model"`
	GenerationConfig         *generationConfig `json:"generationConfig,omitempty"`
	SystemInstruction        *content          `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *struct{}         `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}         `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig  *voiceConfig `json:"voiceConfig,omitempty"`
	LanguageCode string       `json:"languageCode,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig *prebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type clientContent struct {
	Turns        []content `json:"turns"`
	TurnComplete bool      `json:"turnComplete"`
}

type realtimeInput struct {
	Audio *blob `json:"audio,omitempty"`
}

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
	GoAway        *goAway        `json:"goAway,omitempty"`
	ToolCall      *struct{}      `json:"toolCall,omitempty"`
	UsageMetadata *usageMetadata `json:"usageMetadata,omitempty"`
}

type serverContent struct {
	ModelTurn           *content       `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	GenerationComplete  bool           `json:"generationComplete,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
}

type transcription struct {
	Text string `json:"text"`
}

type goAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

type usageMetadata struct {
	TotalTokenCount int `json:"totalTokenCount,omitempty"`
}

func newSetupMessage(cfg *ConnectConfig) *setupMessage {
	setup := &setupMessage{
		Model: "models/" + cfg.Model,
		GenerationConfig: &generationConfig{
			ResponseModalities: cfg.ResponseModalities,
			SpeechConfig: &speechConfig{
				VoiceConfig:  &voiceConfig{PrebuiltVoiceConfig: &prebuiltVoiceConfig{VoiceName: cfg.Voice}},
				LanguageCode: cfg.LanguageCode,
			},
		},
	}
	if cfg.SystemInstruction != "" {
		setup.SystemInstruction = &content{Parts: []part{{Text: cfg.SystemInstruction}}}
	}
	if cfg.InputTranscription {
		setup.InputAudioTranscription = &struct{}{}
	}
	if cfg.OutputTranscription {
		setup.OutputAudioTranscription = &struct{}{}
	}
	return setup
}
