package verbs

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
)

// Embedder produces one embedding vector per input text. llm.Provider
// satisfies this.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Match is the outcome of normalizing one practice phrase. Verb is empty
// when no canonical verb reached the threshold; Score always carries the
// best cosine similarity seen.
type Match struct {
	Verb  string
	Score float64
}

// Normalizer maps free-form practice phrases onto the canonical verb
// vocabulary by cosine similarity of embeddings. Canonical embeddings are
// computed once on first use and cached; a failed attempt leaves the cache
// empty so a later call can retry.
type Normalizer struct {
	embedder  Embedder
	verbs     []string
	threshold float64

	mu     sync.Mutex
	cached [][]float32
}

// NewNormalizer builds a normalizer over the given verb vocabulary.
// Production callers pass Canonical().
func NewNormalizer(embedder Embedder, vocabulary []string, threshold float64) *Normalizer {
	return &Normalizer{
		embedder:  embedder,
		verbs:     append([]string(nil), vocabulary...),
		threshold: threshold,
	}
}

// Threshold returns the acceptance threshold.
func (n *Normalizer) Threshold() float64 { return n.threshold }

// Normalize maps one phrase onto the vocabulary. It returns the best verb
// and its similarity when the similarity reaches the threshold, otherwise
// an empty verb with the best score seen. The error is non-nil only for
// embedding failures; an unmatched phrase is not an error.
func (n *Normalizer) Normalize(ctx context.Context, phrase string) (string, float64, error) {
	matches, err := n.NormalizeAll(ctx, []string{phrase})
	if err != nil {
		return "", 0, err
	}
	return matches[0].Verb, matches[0].Score, nil
}

// NormalizeAll maps each phrase independently with a single embedding call.
// Results preserve input order.
func (n *Normalizer) NormalizeAll(ctx context.Context, phrases []string) ([]Match, error) {
	canonical, err := n.canonicalEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	cleaned := make([]string, len(phrases))
	for i, p := range phrases {
		cleaned[i] = strings.ToLower(strings.TrimSpace(p))
	}

	vectors, err := n.embedder.Embed(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("embed practice phrases: %w", err)
	}
	if len(vectors) != len(phrases) {
		return nil, fmt.Errorf("embed practice phrases: got %d vectors for %d inputs", len(vectors), len(phrases))
	}

	matches := make([]Match, len(phrases))
	for i, vec := range vectors {
		if cleaned[i] == "" {
			continue
		}
		// Cosine similarity lives in [-1, 1]; start below it so the
		// reported score is the true best even when all are negative.
		best := Match{Score: -1}
		for j, cvec := range canonical {
			score := cosine(vec, cvec)
			if score > best.Score {
				best = Match{Verb: n.verbs[j], Score: score}
			}
		}
		if best.Score < n.threshold {
			best.Verb = ""
		}
		matches[i] = best
	}
	return matches, nil
}

// canonicalEmbeddings returns the cached vocabulary vectors, embedding the
// vocabulary on first use.
func (n *Normalizer) canonicalEmbeddings(ctx context.Context) ([][]float32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cached != nil {
		return n.cached, nil
	}
	vectors, err := n.embedder.Embed(ctx, n.verbs)
	if err != nil {
		return nil, fmt.Errorf("embed canonical verbs: %w", err)
	}
	if len(vectors) != len(n.verbs) {
		return nil, fmt.Errorf("embed canonical verbs: got %d vectors for %d verbs", len(vectors), len(n.verbs))
	}
	n.cached = vectors
	return n.cached, nil
}

// cosine computes cosine similarity over the shared prefix of a and b.
// Zero-magnitude inputs score 0.
func cosine(a, b []float32) float64 {
	length := len(a)
	if len(b) < length {
		length = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < length; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
