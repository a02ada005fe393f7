package ner

import (
	"fmt"
	"strings"

	prose "github.com/jdkato/prose/v2"

	"github.com/mvidoni/sociograph/triplet"
)

// relevantLabels are the entity types worth attaching to extracted
// triplets: organizations, institutions, geopolitical entities, and people.
var relevantLabels = map[string]struct{}{
	"ORG":         {},
	"INSTITUTION": {},
	"GPE":         {},
	"PERSON":      {},
}

// Annotator tags named entities in triplet source contexts using the prose
// statistical model. The zero value is ready to use and safe for concurrent
// calls; the model itself loads lazily inside prose on first document.
type Annotator struct{}

// New returns an Annotator.
func New() *Annotator {
	return &Annotator{}
}

// Annotate returns the relevant named entities found in text, deduplicated
// case-insensitively in first-occurrence order. Empty text yields no
// entities and no error.
func (a *Annotator) Annotate(text string) ([]triplet.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("ner: %w", err)
	}
	return filter(doc.Entities()), nil
}

// filter keeps relevant labels and drops duplicate surface forms.
func filter(entities []prose.Entity) []triplet.Entity {
	seen := make(map[string]struct{}, len(entities))
	var out []triplet.Entity
	for _, ent := range entities {
		if _, ok := relevantLabels[ent.Label]; !ok {
			continue
		}
		text := strings.TrimSpace(ent.Text)
		if text == "" {
			continue
		}
		key := strings.ToLower(text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, triplet.Entity{Text: text, Label: ent.Label})
	}
	return out
}
