package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mvidoni/sociograph/chunker"
	"github.com/mvidoni/sociograph/llm"
	"github.com/mvidoni/sociograph/mention"
	"github.com/mvidoni/sociograph/ner"
	"github.com/mvidoni/sociograph/triplet"
	"github.com/mvidoni/sociograph/verbs"
)

// Config wires an Extractor's collaborators. Chat and Validator are
// required; Normalizer, Annotator and Scanner are optional features that
// are skipped when nil.
type Config struct {
	Chat       llm.Provider
	Model      string
	Chunker    *chunker.Chunker
	Normalizer *verbs.Normalizer
	Validator  *triplet.Validator
	Annotator  *ner.Annotator
	Scanner    *mention.Scanner
	Prompts    *PromptBuilder
}

// Extractor runs the chunk, prompt, parse, normalize, validate pipeline.
// Chunks are processed one at a time; a failed chunk is logged and skipped
// so one bad model response cannot sink a whole document.
type Extractor struct {
	chat       llm.Provider
	model      string
	chunker    *chunker.Chunker
	normalizer *verbs.Normalizer
	validator  *triplet.Validator
	annotator  *ner.Annotator
	scanner    *mention.Scanner
	prompts    *PromptBuilder
}

// New creates an Extractor. A nil Chunker gets the default word chunker
// and a nil Prompts gets the canonical verb vocabulary.
func New(cfg Config) (*Extractor, error) {
	if cfg.Chat == nil {
		return nil, fmt.Errorf("extract: chat provider is required")
	}
	if cfg.Validator == nil {
		return nil, fmt.Errorf("extract: validator is required")
	}
	if cfg.Chunker == nil {
		cfg.Chunker = chunker.New(chunker.Config{})
	}
	if cfg.Prompts == nil {
		cfg.Prompts = NewPromptBuilder(verbs.Canonical())
	}
	return &Extractor{
		chat:       cfg.Chat,
		model:      cfg.Model,
		chunker:    cfg.Chunker,
		normalizer: cfg.Normalizer,
		validator:  cfg.Validator,
		annotator:  cfg.Annotator,
		scanner:    cfg.Scanner,
		prompts:    cfg.Prompts,
	}, nil
}

// Output is the batch extraction result. Rejected holds one Result per
// candidate that failed validation, for reporting.
type Output struct {
	Triplets []triplet.Validated
	Chunks   int
	Rejected []triplet.Result
}

// Item is one streamed extraction event: a triplet, or the error of a
// chunk that failed. The stream continues past failed chunks.
type Item struct {
	Triplet triplet.Validated
	Err     error
}

// Option adjusts a single extraction call.
type Option func(*options)

type options struct {
	guidance    string
	maxTriplets int
	model       string
}

// WithGuidance adds caller instructions to every chunk prompt.
func WithGuidance(guidance string) Option {
	return func(o *options) { o.guidance = guidance }
}

// WithMaxTriplets caps the number of accepted triplets. Extraction stops
// starting new chunks once the cap is reached.
func WithMaxTriplets(n int) Option {
	return func(o *options) { o.maxTriplets = n }
}

// WithModel overrides the configured chat model for this call.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Extract runs the pipeline over text and collects the results. Empty
// input yields an empty Output. It returns an error only when the input
// cannot be chunked or the context ends; chunk failures are logged and
// skipped, so a text whose every chunk fails yields an empty Output.
func (e *Extractor) Extract(ctx context.Context, text string, opts ...Option) (*Output, error) {
	o := applyOptions(opts)

	chunks, err := e.chunker.Chunk(text)
	if err != nil {
		return nil, err
	}
	out := &Output{Chunks: len(chunks)}
	if len(chunks) == 0 {
		return out, nil
	}

	start := time.Now()
	slog.Info("extract: processing chunks", "chunks", len(chunks), "model", e.modelFor(o))

	var failed int
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if o.maxTriplets > 0 && len(out.Triplets) >= o.maxTriplets {
			break
		}

		accepted, rejected, err := e.processChunk(ctx, chunk, o)
		if err != nil {
			slog.Warn("extract: chunk failed", "chunk", chunk.Index, "error", err)
			failed++
			continue
		}
		out.Rejected = append(out.Rejected, rejected...)
		for _, t := range accepted {
			if o.maxTriplets > 0 && len(out.Triplets) >= o.maxTriplets {
				break
			}
			out.Triplets = append(out.Triplets, t)
		}
		slog.Debug("extract: chunk processed", "chunk", chunk.Index,
			"accepted", len(accepted), "rejected", len(rejected))
	}

	slog.Info("extract: done", "triplets", len(out.Triplets), "rejected", len(out.Rejected),
		"chunks", out.Chunks, "failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return out, nil
}

// ExtractStream runs the same pipeline but sends each triplet as it is
// produced. The channel is closed when the input is exhausted or ctx ends;
// chunk failures are sent as Items with Err set.
func (e *Extractor) ExtractStream(ctx context.Context, text string, opts ...Option) (<-chan Item, error) {
	o := applyOptions(opts)

	chunks, err := e.chunker.Chunk(text)
	if err != nil {
		return nil, err
	}

	items := make(chan Item)
	go func() {
		defer close(items)
		sent := 0
		for _, chunk := range chunks {
			if ctx.Err() != nil {
				return
			}
			if o.maxTriplets > 0 && sent >= o.maxTriplets {
				return
			}

			accepted, _, err := e.processChunk(ctx, chunk, o)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("extract: chunk failed", "chunk", chunk.Index, "error", err)
				select {
				case items <- Item{Err: fmt.Errorf("chunk %d: %w", chunk.Index, err)}:
				case <-ctx.Done():
					return
				}
				continue
			}
			for _, t := range accepted {
				if o.maxTriplets > 0 && sent >= o.maxTriplets {
					return
				}
				select {
				case items <- Item{Triplet: t}:
					sent++
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return items, nil
}

// processChunk runs one chunk through prompt, chat, parse, normalization
// and validation, returning accepted triplets and the rejection results.
func (e *Extractor) processChunk(ctx context.Context, chunk chunker.Chunk, o options) ([]triplet.Validated, []triplet.Result, error) {
	var hints []string
	if e.scanner != nil {
		hints = e.scanner.Scan(chunk.Text)
	}

	resp, err := e.chat.Chat(ctx, llm.ChatRequest{
		Model: e.modelFor(o),
		Messages: []llm.Message{
			{Role: "system", Content: e.prompts.System()},
			{Role: "user", Content: e.prompts.User(chunk.Text, o.guidance, hints)},
		},
		Temperature: 0.0,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("chat: %w", err)
	}

	candidates := ParseCandidates(resp.Content)
	if len(candidates) == 0 {
		return nil, nil, nil
	}
	for i := range candidates {
		candidates[i].ChunkID = chunk.Index
	}

	if e.normalizer != nil {
		candidates, err = e.normalizeCandidates(ctx, candidates)
		if err != nil {
			return nil, nil, fmt.Errorf("normalize practices: %w", err)
		}
	}

	accepted, results := e.validator.ValidateAll(candidates)
	var rejected []triplet.Result
	for _, r := range results {
		if !r.Valid {
			rejected = append(rejected, r)
		}
	}

	if e.annotator != nil {
		e.annotate(accepted)
	}
	return accepted, rejected, nil
}

// normalizeCandidates maps each practice onto the canonical vocabulary
// with a single embedding call. Candidates whose practice matches no
// canonical verb are dropped; rewritten practices keep the original phrase
// in PracticeOriginal.
func (e *Extractor) normalizeCandidates(ctx context.Context, candidates []triplet.Candidate) ([]triplet.Candidate, error) {
	phrases := make([]string, len(candidates))
	for i, c := range candidates {
		phrases[i] = c.Practice
	}
	matches, err := e.normalizer.NormalizeAll(ctx, phrases)
	if err != nil {
		return nil, err
	}

	kept := candidates[:0]
	for i, m := range matches {
		if m.Verb == "" {
			slog.Debug("extract: dropping unmatched practice",
				"practice", candidates[i].Practice, "score", m.Score)
			continue
		}
		c := candidates[i]
		if !strings.EqualFold(strings.TrimSpace(c.Practice), m.Verb) {
			c.PracticeOriginal = strings.TrimSpace(c.Practice)
		}
		c.Practice = m.Verb
		c.PracticeScore = m.Score
		kept = append(kept, c)
	}
	return kept, nil
}

// annotate attaches named entities found in each triplet's context.
// Annotation failures are logged and leave the triplet unannotated.
func (e *Extractor) annotate(triplets []triplet.Validated) {
	for i := range triplets {
		if triplets[i].Context == "" {
			continue
		}
		entities, err := e.annotator.Annotate(triplets[i].Context)
		if err != nil {
			slog.Warn("extract: ner enrichment failed",
				"chunk", triplets[i].ChunkID, "error", err)
			continue
		}
		triplets[i].Entities = entities
	}
}

func (e *Extractor) modelFor(o options) string {
	if o.model != "" {
		return o.model
	}
	return e.model
}
