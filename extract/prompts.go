package extract

import (
	"fmt"
	"strings"
)

// maxHints caps how many detected actors are listed in a chunk prompt.
const maxHints = 10

// systemPromptTemplate fixes the model's task: which verbs count as
// institutional actions and the exact output shape. The %s slot receives
// the canonical verb list.
const systemPromptTemplate = `You are an expert in extracting organizational relationship triples from institutional texts.

Focus ONLY on verbs related to institutional actions like:
%s

Extract relationship triples in this EXACT JSON format:
[
  {
    "role": "organization taking action",
    "practice": "main institutional action verb",
    "counterrole": "partner or recipient organization",
    "context": "short quote from text supporting this"
  }
]

Rules:
1. Only include clear, explicit relationships
2. Role must be a specific organization or actor
3. Practice must be from the canonical verb list or semantically similar
4. Counterrole should be specific (not generic like "people" or "partners")
5. Context must be a direct quote from the text`

// PromptBuilder assembles the extraction prompts. The system prompt is
// fixed at construction; the per-chunk user prompt carries the text plus
// optional caller guidance and detected-actor hints.
type PromptBuilder struct {
	system string
}

// NewPromptBuilder returns a builder whose system prompt names the given
// verb vocabulary.
func NewPromptBuilder(verbs []string) *PromptBuilder {
	return &PromptBuilder{
		system: fmt.Sprintf(systemPromptTemplate, strings.Join(verbs, ", ")),
	}
}

// System returns the fixed system prompt.
func (b *PromptBuilder) System() string { return b.system }

// User builds the prompt for one chunk. guidance adds caller instructions;
// hints lists catalog actors detected in the chunk so the model does not
// miss known organizations. Both are optional.
func (b *PromptBuilder) User(chunk, guidance string, hints []string) string {
	var sb strings.Builder

	if guidance = strings.TrimSpace(guidance); guidance != "" {
		sb.WriteString("Additional instructions: ")
		sb.WriteString(guidance)
		sb.WriteString("\n\n")
	}
	if len(hints) > 0 {
		if len(hints) > maxHints {
			hints = hints[:maxHints]
		}
		sb.WriteString("HINTS: The following known organizations were detected in the text. Consider them as candidate roles:\n")
		sb.WriteString(strings.Join(hints, ", "))
		sb.WriteString("\n\n")
	}
	sb.WriteString("TEXT TO ANALYZE:\n")
	sb.WriteString(chunk)
	sb.WriteString("\n\nReturn ONLY the JSON array, no other text.")
	return sb.String()
}
