package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// wordsText builds a text of n distinct words.
func wordsText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

// ---------------------------------------------------------------------------
// word method
// ---------------------------------------------------------------------------

func TestWordChunking(t *testing.T) {
	c := New(Config{Size: 900, Method: MethodWord})

	chunks, err := c.Chunk(wordsText(2000))
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3", len(chunks))
	}
	wantWords := []int{900, 900, 200}
	for i, ch := range chunks {
		if ch.Words != wantWords[i] {
			t.Errorf("chunks[%d].Words = %d, want %d", i, ch.Words, wantWords[i])
		}
		if ch.Index != i+1 {
			t.Errorf("chunks[%d].Index = %d, want %d", i, ch.Index, i+1)
		}
	}
}

func TestWordChunkingExactFit(t *testing.T) {
	c := New(Config{Size: 900, Method: MethodWord})

	chunks, err := c.Chunk(wordsText(900))
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0].Words != 900 {
		t.Errorf("chunks[0].Words = %d, want 900", chunks[0].Words)
	}
}

func TestWordChunkingOverlap(t *testing.T) {
	c := New(Config{Size: 10, Method: MethodWord, Overlap: 2})

	chunks, err := c.Chunk(wordsText(18))
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}

	// The second window starts at word 8, repeating w8 and w9.
	first := strings.Fields(chunks[0].Text)
	second := strings.Fields(chunks[1].Text)
	if diff := cmp.Diff(first[8:], second[:2]); diff != "" {
		t.Errorf("overlap mismatch (-end of first +start of second):\n%s", diff)
	}
}

func TestWordChunkingNormalizesWhitespace(t *testing.T) {
	c := New(Config{Size: 10, Method: MethodWord})

	chunks, err := c.Chunk("alpha\t beta \n\n gamma")
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0].Text != "alpha beta gamma" {
		t.Errorf("Text = %q, want single-spaced words", chunks[0].Text)
	}
}

// ---------------------------------------------------------------------------
// sentence method
// ---------------------------------------------------------------------------

func TestSentenceChunking(t *testing.T) {
	// Five sentences of five words each, window of twelve words: a window
	// holds two sentences because a third would exceed the size.
	text := "one two three four five. six seven eight nine ten. " +
		"eleven twelve thirteen fourteen fifteen. sixteen seventeen eighteen nineteen twenty. " +
		"alpha beta gamma delta epsilon."
	c := New(Config{Size: 12, Method: MethodSentence})

	chunks, err := c.Chunk(text)
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3", len(chunks))
	}
	for i, ch := range chunks[:2] {
		if ch.Words != 10 {
			t.Errorf("chunks[%d].Words = %d, want 10", i, ch.Words)
		}
	}
	if chunks[2].Words != 5 {
		t.Errorf("chunks[2].Words = %d, want 5", chunks[2].Words)
	}
}

func TestSentenceChunkingNeverExceedsSizeByMoreThanOneSentence(t *testing.T) {
	text := strings.Repeat("word word word word word word word. ", 40)
	c := New(Config{Size: 20, Method: MethodSentence})

	chunks, err := c.Chunk(text)
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("no chunks returned")
	}
	for i, ch := range chunks {
		// One sentence is 7 words here.
		if ch.Words > 20+7 {
			t.Errorf("chunks[%d].Words = %d, exceeds size plus one sentence", i, ch.Words)
		}
	}
}

func TestSentenceChunkingOverlap(t *testing.T) {
	text := "one two three four five. six seven eight nine ten. " +
		"eleven twelve thirteen fourteen fifteen. sixteen seventeen eighteen nineteen twenty."
	c := New(Config{Size: 12, Method: MethodSentence, Overlap: 1})

	chunks, err := c.Chunk(text)
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}

	want := []string{
		"one two three four five. six seven eight nine ten.",
		"six seven eight nine ten. eleven twelve thirteen fourteen fifteen.",
		"eleven twelve thirteen fourteen fifteen. sixteen seventeen eighteen nineteen twenty.",
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("chunk texts mismatch (-want +got):\n%s", diff)
	}
}

func TestSentenceChunkingOversizedSentence(t *testing.T) {
	// A single sentence longer than the window becomes its own chunk.
	text := "tiny one. " + wordsText(30) + ". tiny two."
	c := New(Config{Size: 10, Method: MethodSentence})

	chunks, err := c.Chunk(text)
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3", len(chunks))
	}
	if chunks[1].Words != 30 {
		t.Errorf("chunks[1].Words = %d, want the oversized sentence intact", chunks[1].Words)
	}
}

// ---------------------------------------------------------------------------
// char method
// ---------------------------------------------------------------------------

func TestCharChunking(t *testing.T) {
	c := New(Config{Size: 4, Method: MethodChar})

	chunks, err := c.Chunk("abcdefghij")
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}

	want := []string{"abcd", "efgh", "ij"}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("chunk texts mismatch (-want +got):\n%s", diff)
	}
}

func TestCharChunkingCountsRunesNotBytes(t *testing.T) {
	c := New(Config{Size: 3, Method: MethodChar})

	chunks, err := c.Chunk("ééééé")
	if err != nil {
		t.Fatalf("Chunk() error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if chunks[0].Text != "ééé" || chunks[1].Text != "éé" {
		t.Errorf("chunks = %q, %q, want rune-aligned windows", chunks[0].Text, chunks[1].Text)
	}
}

// ---------------------------------------------------------------------------
// edge cases
// ---------------------------------------------------------------------------

func TestUnknownMethod(t *testing.T) {
	c := New(Config{Size: 10, Method: "paragraph"})

	_, err := c.Chunk("some text")
	if !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("Chunk() error = %v, want ErrUnknownMethod", err)
	}
}

func TestEmptyInput(t *testing.T) {
	c := New(Config{})

	for _, text := range []string{"", "   ", "\n\t"} {
		chunks, err := c.Chunk(text)
		if err != nil {
			t.Errorf("Chunk(%q) error: %v", text, err)
		}
		if len(chunks) != 0 {
			t.Errorf("Chunk(%q) = %d chunks, want 0", text, len(chunks))
		}
	}
}

func TestDefaults(t *testing.T) {
	c := New(Config{})
	if c.cfg.Size != 900 || c.cfg.Method != MethodWord {
		t.Errorf("defaults = %+v, want Size 900, Method word", c.cfg)
	}

	// An overlap that prevents forward progress is dropped.
	c = New(Config{Size: 10, Overlap: 10})
	if c.cfg.Overlap != 0 {
		t.Errorf("Overlap = %d, want 0 when overlap >= size", c.cfg.Overlap)
	}
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"terminators",
			"First one. Second one? Third one!",
			[]string{"First one.", "Second one?", "Third one!"},
		},
		{
			"no trailing terminator",
			"Complete sentence. Trailing fragment",
			[]string{"Complete sentence.", "Trailing fragment"},
		},
		{
			"decimal point not a boundary",
			"The fund grew 3.5 percent. It kept growing.",
			[]string{"The fund grew 3.5 percent.", "It kept growing."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Sentences(tt.text)); diff != "" {
				t.Errorf("Sentences(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}
