package interpret

import (
	"strings"

	"github.com/gcbaptista/dreamsense/model"
)

const (
	systemTag = "<|system|>"

	systemInstructions = `You are DreamSense, a dream interpreter that ONLY uses the provided dream dictionary references to interpret dreams.
You have NO knowledge of dream interpretation beyond what is explicitly provided in these references.
NEVER make up interpretations or use your general knowledge about dreams.

STRICT RULES:
1. ONLY use the provided dream dictionary references for your interpretation
2. If a symbol is not in the references, do NOT interpret it
3. Structure your response to directly reference the symbols found in the dream
4. Begin by mentioning which symbols from the dream dictionary you identified
5. For each symbol, explain its meaning according to the dream dictionary ONLY`

	enhancedIntro  = "Based on your dream, I've identified these important symbols:\n\n"
	enhancedBridge = "Considering these symbols together, your dream suggests: "

	// mentionWindow is how many top-ranked symbols are checked for a mention.
	mentionWindow = 3
	// enhanceLimit is how many symbols are listed when the interpretation is enhanced.
	enhanceLimit = 5
)

// BuildPrompt assembles the generation prompt from the rendered dictionary context and the dream.
func BuildPrompt(context, dreamText string) string {
	var b strings.Builder
	b.WriteString(systemTag)
	b.WriteString("\n")
	b.WriteString(systemInstructions)
	b.WriteString("\n\nHere are your ONLY references for dream interpretation:\n\n")
	b.WriteString(context)
	b.WriteString("\n\n")
	b.WriteString(dreamMarker(dreamText))
	b.WriteString("\n\n")
	return b.String()
}

func dreamMarker(dreamText string) string {
	return "Dream: " + dreamText
}

// ExtractInterpretation strips an echoed prompt from generated text. Models
// that echo the prompt are cut after the dream line, or after the system tag
// when the dream line is missing.
func ExtractInterpretation(generated, dreamText string) string {
	if _, after, found := strings.Cut(generated, dreamMarker(dreamText)); found {
		return strings.TrimSpace(firstSegment(after, dreamMarker(dreamText)))
	}
	if _, after, found := strings.Cut(generated, systemTag); found {
		return strings.TrimSpace(firstSegment(after, systemTag))
	}
	return generated
}

// firstSegment returns s up to the next occurrence of sep.
func firstSegment(s, sep string) string {
	before, _, _ := strings.Cut(s, sep)
	return before
}

// Enhance prefixes the interpretation with the retrieved symbols when none of
// the top-ranked ones is mentioned in it.
func Enhance(interpretation string, entries []model.RetrievedEntry) string {
	if len(entries) == 0 {
		return interpretation
	}

	lower := strings.ToLower(interpretation)
	for i, e := range entries {
		if i >= mentionWindow {
			break
		}
		if strings.Contains(lower, strings.ToLower(e.Term)) {
			return interpretation
		}
	}

	var b strings.Builder
	b.WriteString(enhancedIntro)
	for i, e := range entries {
		if i >= enhanceLimit {
			break
		}
		b.WriteString("• ")
		b.WriteString(e.Term)
		b.WriteString(": ")
		b.WriteString(e.Details)
		b.WriteString("\n\n")
	}
	b.WriteString(enhancedBridge)
	b.WriteString(interpretation)
	return b.String()
}
