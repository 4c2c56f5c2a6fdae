package voicecall

import "fmt"

const systemPrompt = `You are "NormaBot", an expert AI assistant specialized in Colombian regulations (Customs, Tax, and Exchange).

CRITICAL LANGUAGE INSTRUCTION:
The user has explicitly selected %[1]s.
You MUST speak and respond ONLY in %[1]s.

PROTOCOL:
1. Introduce yourself IMMEDIATELY in %[1]s.
2. Do not wait for the user to speak first.
3. Keep answers concise and professional.`

// SystemInstruction returns the persona prompt pinned to lang.
func SystemInstruction(lang Language) string {
	return fmt.Sprintf(systemPrompt, lang.Name())
}

// GreetingTrigger returns the one-shot text asking the assistant to
// introduce itself.
func GreetingTrigger(lang Language) string {
	if lang == English {
		return "Hello. Please introduce yourself right now in English."
	}
	return "Hola. Por favor preséntate ahora mismo."
}
