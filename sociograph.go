package sociograph

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mvidoni/sociograph/catalog"
	"github.com/mvidoni/sociograph/chunker"
	"github.com/mvidoni/sociograph/extract"
	"github.com/mvidoni/sociograph/fuzzy"
	"github.com/mvidoni/sociograph/llm"
	"github.com/mvidoni/sociograph/mention"
	"github.com/mvidoni/sociograph/ner"
	"github.com/mvidoni/sociograph/parser"
	"github.com/mvidoni/sociograph/scrape"
	"github.com/mvidoni/sociograph/store"
	"github.com/mvidoni/sociograph/triplet"
	"github.com/mvidoni/sociograph/verbs"
)

// ReasonNoCanonicalVerb is reported by Validate for candidates whose
// practice matched no canonical verb. It sits outside the validator's rule
// set because normalization runs before validation in the pipeline.
const ReasonNoCanonicalVerb = "no canonical verb match"

// Extractor is the main entry point for triplet extraction.
type Extractor interface {
	// Extract runs the full pipeline over raw text and collects the
	// accepted triplets.
	Extract(ctx context.Context, text string, opts ...ExtractOption) (*Result, error)

	// ExtractStream runs the same pipeline but emits each triplet as it
	// is produced. The channel closes when the input is exhausted or ctx
	// ends; the stream is single-pass and not restartable.
	ExtractStream(ctx context.Context, text string, opts ...ExtractOption) (<-chan extract.Item, error)

	// ExtractURL fetches a web page and extracts triplets from its text.
	ExtractURL(ctx context.Context, url string, opts ...ExtractOption) (*Result, error)

	// ExtractFile parses a document (txt, md, pdf, docx) and extracts
	// triplets from its text.
	ExtractFile(ctx context.Context, path string, opts ...ExtractOption) (*Result, error)

	// Validate normalizes and validates candidates without any model
	// generation. Both returned slices preserve input order and the
	// result count equals the candidate count.
	Validate(ctx context.Context, candidates []triplet.Candidate) ([]triplet.Validated, []triplet.Result, error)

	// Scrape fetches one URL and returns its readable text.
	Scrape(ctx context.Context, url string) (*scrape.Page, error)

	// AddActor adds an actor to the catalog and updates the matcher and
	// mention scanner. The catalog file is saved when one was loaded.
	AddActor(actor, category string) error

	// RemoveActor removes an actor from the catalog. Reports whether the
	// actor existed.
	RemoveActor(actor string) (bool, error)

	// Catalog returns the live actor catalog.
	Catalog() *catalog.Catalog

	// Store returns the persistence layer, or nil when persistence is
	// disabled.
	Store() *store.Store

	// Models lists the configured model entries for the API surface.
	Models() []llm.ModelInfo

	// Close releases held resources.
	Close() error
}

// Result is the outcome of one batch extraction.
type Result struct {
	Triplets  []triplet.Validated `json:"triplets"`
	Chunks    int                 `json:"total_chunks"`
	Rejected  []triplet.Result    `json:"rejected,omitempty"`
	ModelUsed string              `json:"model_used"`
	RunID     int64               `json:"run_id,omitempty"`
}

// ExtractOption adjusts a single extraction call.
type ExtractOption func(*extractOptions)

type extractOptions struct {
	guidance    string
	maxTriplets int
	model       string
}

// WithGuidance adds caller instructions to every chunk prompt.
func WithGuidance(guidance string) ExtractOption {
	return func(o *extractOptions) { o.guidance = guidance }
}

// WithMaxTriplets caps the number of triplets for this call, overriding
// the configured ceiling.
func WithMaxTriplets(n int) ExtractOption {
	return func(o *extractOptions) { o.maxTriplets = n }
}

// WithModel overrides the configured chat model for this call.
func WithModel(model string) ExtractOption {
	return func(o *extractOptions) { o.model = model }
}

// engine is the concrete implementation of Extractor.
type engine struct {
	cfg        Config
	cat        *catalog.Catalog
	matcher    *fuzzy.Matcher
	normalizer *verbs.Normalizer
	validator  *triplet.Validator
	extractor  *extract.Extractor
	scraper    *scrape.Scraper
	parsers    *parser.Registry
	store      *store.Store

	// mu serializes catalog mutation; extraction holds it read-free, so
	// callers must not mutate the catalog mid-extraction.
	mu      sync.Mutex
	scanner *mention.Scanner
}

// New creates an engine from the configuration, wiring the catalog, fuzzy
// matcher, LLM providers, normalizer, validator and optional collaborators.
func New(cfg Config) (Extractor, error) {
	// Apply defaults for zero values
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 900
	}
	if cfg.ChunkMethod == "" {
		cfg.ChunkMethod = chunker.MethodWord
	}
	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = 768
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		cat = loaded
	}

	matcher := fuzzy.New(cat.All(), cfg.FuzzyThreshold)

	chatLLM, err := llm.NewProvider(cfg.Chat)
	if err != nil {
		return nil, fmt.Errorf("creating chat provider: %w", err)
	}

	var normalizer *verbs.Normalizer
	if cfg.NormalizeVerbs {
		embedLLM, err := llm.NewProvider(cfg.Embedding)
		if err != nil {
			return nil, fmt.Errorf("creating embedding provider: %w", err)
		}
		normalizer = verbs.NewNormalizer(embedLLM, verbs.Canonical(), cfg.SimilarityThreshold)
	}

	validator := triplet.NewValidator(triplet.ValidatorConfig{
		Matcher:           matcher,
		RequireActorMatch: cfg.RequireActorMatch,
		FilterGeneric:     cfg.FilterGeneric,
	})

	var scanner *mention.Scanner
	if cfg.PromptHints {
		scanner, err = mention.New(cat.All())
		if err != nil {
			return nil, fmt.Errorf("building mention scanner: %w", err)
		}
	}

	var annotator *ner.Annotator
	if cfg.EnrichNER {
		annotator = ner.New()
	}

	extractor, err := extract.New(extract.Config{
		Chat:  chatLLM,
		Model: cfg.Chat.Model,
		Chunker: chunker.New(chunker.Config{
			Size:    cfg.ChunkSize,
			Method:  cfg.ChunkMethod,
			Overlap: cfg.ChunkOverlap,
		}),
		Normalizer: normalizer,
		Validator:  validator,
		Annotator:  annotator,
		Scanner:    scanner,
	})
	if err != nil {
		return nil, fmt.Errorf("creating extractor: %w", err)
	}

	var st *store.Store
	if cfg.Persist {
		st, err = store.New(cfg.resolveDBPath(), cfg.EmbeddingDim)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
	}

	return &engine{
		cfg:        cfg,
		cat:        cat,
		matcher:    matcher,
		normalizer: normalizer,
		validator:  validator,
		extractor:  extractor,
		scraper: scrape.New(scrape.Config{
			UserAgent:     cfg.Scrape.UserAgent,
			Timeout:       time.Duration(cfg.Scrape.TimeoutSeconds) * time.Second,
			CacheTTL:      time.Duration(cfg.Scrape.CacheTTLSeconds) * time.Second,
			RatePerDomain: cfg.Scrape.RatePerSecond,
			RespectRobots: cfg.Scrape.RespectRobots,
		}),
		parsers: parser.NewRegistry(),
		store:   st,
		scanner: scanner,
	}, nil
}

func (e *engine) Extract(ctx context.Context, text string, opts ...ExtractOption) (*Result, error) {
	return e.extractFrom(ctx, "text", text, opts)
}

func (e *engine) ExtractStream(ctx context.Context, text string, opts ...ExtractOption) (<-chan extract.Item, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	return e.extractor.ExtractStream(ctx, text, e.extractOpts(opts)...)
}

func (e *engine) ExtractURL(ctx context.Context, url string, opts ...ExtractOption) (*Result, error) {
	page, err := e.scraper.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	return e.extractFrom(ctx, url, page.Text, opts)
}

func (e *engine) ExtractFile(ctx context.Context, path string, opts ...ExtractOption) (*Result, error) {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	p, err := e.parsers.Get(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	doc, err := p.Parse(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	return e.extractFrom(ctx, path, doc.Text, opts)
}

// extractFrom runs the pipeline and persists the run when a store is open.
func (e *engine) extractFrom(ctx context.Context, source, text string, opts []ExtractOption) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	o := e.applyOptions(opts)

	out, err := e.extractor.Extract(ctx, text, e.buildOpts(o)...)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Triplets:  out.Triplets,
		Chunks:    out.Chunks,
		Rejected:  out.Rejected,
		ModelUsed: e.modelFor(o),
	}

	if e.store != nil {
		result.RunID = e.persistRun(ctx, source, result)
	}
	return result, nil
}

// persistRun records the extraction in the store. Persistence failures are
// logged, never surfaced: the extraction itself succeeded.
func (e *engine) persistRun(ctx context.Context, source string, result *Result) int64 {
	runID, err := e.store.InsertRun(ctx, source, result.ModelUsed)
	if err != nil {
		slog.Warn("persisting run failed", "source", source, "error", err)
		return 0
	}
	if _, err := e.store.InsertTriplets(ctx, runID, result.Triplets); err != nil {
		slog.Warn("persisting triplets failed", "run_id", runID, "error", err)
		e.store.FinishRun(ctx, runID, result.Chunks, 0, "error")
		return runID
	}
	if err := e.store.FinishRun(ctx, runID, result.Chunks, len(result.Triplets), "success"); err != nil {
		slog.Warn("finishing run failed", "run_id", runID, "error", err)
	}
	return runID
}

func (e *engine) Validate(ctx context.Context, candidates []triplet.Candidate) ([]triplet.Validated, []triplet.Result, error) {
	results := make([]triplet.Result, len(candidates))
	working := make([]triplet.Candidate, len(candidates))
	copy(working, candidates)

	// Normalize all practices in one embedding call, then validate each
	// surviving candidate. Results keep the input positions.
	normalized := make([]bool, len(candidates))
	if e.normalizer != nil {
		phrases := make([]string, len(working))
		for i, c := range working {
			phrases[i] = c.Practice
		}
		matches, err := e.normalizer.NormalizeAll(ctx, phrases)
		if err != nil {
			return nil, nil, fmt.Errorf("normalizing practices: %w", err)
		}
		for i, m := range matches {
			if m.Verb == "" {
				results[i] = triplet.Result{Reason: ReasonNoCanonicalVerb}
				continue
			}
			if !strings.EqualFold(strings.TrimSpace(working[i].Practice), m.Verb) {
				working[i].PracticeOriginal = strings.TrimSpace(working[i].Practice)
			}
			working[i].Practice = m.Verb
			working[i].PracticeScore = m.Score
			normalized[i] = true
		}
	}

	var valid []triplet.Validated
	for i := range working {
		if e.normalizer != nil && !normalized[i] {
			continue
		}
		res := e.validator.Validate(working[i])
		results[i] = res
		if res.Valid {
			valid = append(valid, *res.Triplet)
		}
	}
	return valid, results, nil
}

func (e *engine) Scrape(ctx context.Context, url string) (*scrape.Page, error) {
	return e.scraper.Fetch(ctx, url)
}

func (e *engine) AddActor(actor, category string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.cat.Add(actor, category) {
		return nil // already present
	}
	e.matcher.Add(actor)
	if err := e.rebuildScanner(); err != nil {
		return err
	}
	return e.saveCatalog()
}

func (e *engine) RemoveActor(actor string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.cat.Remove(actor) {
		return false, nil
	}
	e.matcher.Remove(actor)
	if err := e.rebuildScanner(); err != nil {
		return true, err
	}
	return true, e.saveCatalog()
}

// rebuildScanner recreates the mention scanner after a catalog change; the
// Aho-Corasick automaton cannot be patched in place.
func (e *engine) rebuildScanner() error {
	if e.scanner == nil {
		return nil
	}
	scanner, err := mention.New(e.cat.All())
	if err != nil {
		return fmt.Errorf("rebuilding mention scanner: %w", err)
	}
	*e.scanner = *scanner
	return nil
}

func (e *engine) saveCatalog() error {
	if e.cfg.CatalogPath == "" {
		return nil
	}
	if err := e.cat.Save(e.cfg.CatalogPath); err != nil {
		return fmt.Errorf("saving catalog: %w", err)
	}
	return nil
}

func (e *engine) Catalog() *catalog.Catalog { return e.cat }

func (e *engine) Store() *store.Store { return e.store }

func (e *engine) Models() []llm.ModelInfo {
	models := []llm.ModelInfo{{
		ID:   e.cfg.Chat.Model,
		Name: e.cfg.Chat.Provider + "/" + e.cfg.Chat.Model,
		Type: "chat",
	}}
	if e.cfg.NormalizeVerbs {
		models = append(models, llm.ModelInfo{
			ID:   e.cfg.Embedding.Model,
			Name: e.cfg.Embedding.Provider + "/" + e.cfg.Embedding.Model,
			Type: "embedding",
		})
	}
	return models
}

func (e *engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

func (e *engine) applyOptions(opts []ExtractOption) extractOptions {
	o := extractOptions{maxTriplets: e.cfg.MaxTriplets}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (e *engine) extractOpts(opts []ExtractOption) []extract.Option {
	return e.buildOpts(e.applyOptions(opts))
}

func (e *engine) buildOpts(o extractOptions) []extract.Option {
	var out []extract.Option
	if o.guidance != "" {
		out = append(out, extract.WithGuidance(o.guidance))
	}
	if o.maxTriplets > 0 {
		out = append(out, extract.WithMaxTriplets(o.maxTriplets))
	}
	if o.model != "" {
		out = append(out, extract.WithModel(o.model))
	}
	return out
}

func (e *engine) modelFor(o extractOptions) string {
	if o.model != "" {
		return o.model
	}
	return e.cfg.Chat.Model
}
