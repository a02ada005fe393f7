package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMethod is returned for unrecognized chunking methods.
var ErrUnknownMethod = errors.New("chunker: unknown method")

// Chunking methods accepted by Config.Method.
const (
	MethodWord     = "word"
	MethodSentence = "sentence"
	MethodChar     = "char"
)

// Config controls the chunking behaviour. Size and Overlap are measured in
// the method's unit: words for "word", words per window for "sentence"
// (overlap counts sentences there), runes for "char".
type Config struct {
	Size    int
	Method  string
	Overlap int
}

// Chunk is one extraction window over the input text. Index is 1-based and
// matches the chunk_id tagged onto triplets extracted from it.
type Chunk struct {
	Index int
	Text  string
	Words int
}

// Chunker splits raw text into windows sized for a single LLM call.
type Chunker struct {
	cfg Config
}

// New returns a Chunker with the given configuration.
// Zero-value fields are replaced with sensible defaults, and overlaps that
// would prevent forward progress are dropped.
func New(cfg Config) *Chunker {
	if cfg.Size == 0 {
		cfg.Size = 900
	}
	if cfg.Method == "" {
		cfg.Method = MethodWord
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		cfg.Overlap = 0
	}
	return &Chunker{cfg: cfg}
}

// Chunk splits text with the configured method. Empty or whitespace-only
// input yields no chunks and no error.
func (c *Chunker) Chunk(text string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var parts []string
	switch c.cfg.Method {
	case MethodWord:
		parts = c.byWords(text)
	case MethodSentence:
		parts = c.bySentences(text)
	case MethodChar:
		parts = c.byChars(text)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, c.cfg.Method)
	}

	chunks := make([]Chunk, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks) + 1,
			Text:  part,
			Words: len(strings.Fields(part)),
		})
	}
	return chunks, nil
}

// byWords windows over whitespace-separated words. Consecutive windows
// share Overlap words, so the step is Size-Overlap.
func (c *Chunker) byWords(text string) []string {
	words := strings.Fields(text)
	step := c.cfg.Size - c.cfg.Overlap

	var parts []string
	for i := 0; i < len(words); i += step {
		end := i + c.cfg.Size
		if end > len(words) {
			end = len(words)
		}
		parts = append(parts, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return parts
}

// bySentences accumulates whole sentences until adding the next one would
// push the window past Size words, then flushes. A window therefore never
// exceeds Size by more than one sentence. Overlap carries that many
// trailing sentences into the next window.
func (c *Chunker) bySentences(text string) []string {
	sentences := splitSentences(text)

	var parts []string
	var current []string
	words := 0
	for _, sent := range sentences {
		sw := len(strings.Fields(sent))
		if words+sw > c.cfg.Size && len(current) > 0 {
			parts = append(parts, strings.Join(current, " "))
			if c.cfg.Overlap > 0 && c.cfg.Overlap < len(current) {
				current = append([]string(nil), current[len(current)-c.cfg.Overlap:]...)
			} else {
				current = current[:0:0]
			}
			words = 0
			for _, s := range current {
				words += len(strings.Fields(s))
			}
		}
		current = append(current, sent)
		words += sw
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, " "))
	}
	return parts
}

// byChars windows over runes with Overlap runes shared between windows.
func (c *Chunker) byChars(text string) []string {
	runes := []rune(text)
	step := c.cfg.Size - c.cfg.Overlap

	var parts []string
	for i := 0; i < len(runes); i += step {
		end := i + c.cfg.Size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return parts
}

// Sentences splits text into sentences with the same tokeniser the
// sentence method uses.
func Sentences(text string) []string {
	return splitSentences(text)
}

// splitSentences is a simple sentence tokeniser.  It splits on
// period/question-mark/exclamation followed by whitespace or end of
// string, while trying not to split on abbreviations.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '?' || runes[i] == '!' {
			// Look ahead: if next char is whitespace or end of string,
			// treat as sentence boundary (simple heuristic).
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				s := strings.TrimSpace(cur.String())
				if s != "" {
					sentences = append(sentences, s)
				}
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
