package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

//go:embed actors.json
var defaultActors []byte

// Catalog holds known actor names grouped by category. Lookups run against
// lazily built flat views that are invalidated on mutation. A Catalog is not
// safe for concurrent mutation; callers that mutate from multiple goroutines
// must serialize access themselves.
type Catalog struct {
	categories map[string][]string
	order      []string // sorted category names

	// lazy views
	all        []string
	categoryOf map[string]string
}

// New builds a catalog from a category -> actors map. Category iteration
// order is alphabetical so downstream matching stays deterministic.
func New(categories map[string][]string) *Catalog {
	c := &Catalog{categories: make(map[string][]string, len(categories))}
	for name, actors := range categories {
		c.categories[name] = append([]string(nil), actors...)
		c.order = append(c.order, name)
	}
	sort.Strings(c.order)
	return c
}

// Default returns the embedded starter catalog of EIT ecosystem actors.
func Default() *Catalog {
	c, err := parse(defaultActors)
	if err != nil {
		// The embedded catalog is validated by tests; a parse failure here
		// means a broken build, not bad user input.
		panic(fmt.Sprintf("catalog: embedded actors.json: %v", err))
	}
	return c
}

// Load reads a catalog from a JSON file written by Save (or by hand):
// an object mapping category names to arrays of actor names.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

func parse(data []byte) (*Catalog, error) {
	var categories map[string][]string
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, err
	}
	return New(categories), nil
}

// Save writes the catalog as indented JSON. Categories serialize in
// alphabetical order (encoding/json sorts object keys).
func (c *Catalog) Save(path string) error {
	data, err := json.MarshalIndent(c.categories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// Actors returns the actor names in a category, empty for unknown categories.
func (c *Catalog) Actors(category string) []string {
	return append([]string(nil), c.categories[category]...)
}

// Categories returns the category names in alphabetical order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.order...)
}

// All returns every actor name, grouped by category in alphabetical
// category order. The slice is rebuilt after mutations.
func (c *Catalog) All() []string {
	c.ensure()
	return append([]string(nil), c.all...)
}

// Len reports the total number of actors across all categories.
func (c *Catalog) Len() int {
	c.ensure()
	return len(c.all)
}

// Contains reports whether the exact actor name exists in any category.
func (c *Catalog) Contains(actor string) bool {
	c.ensure()
	_, ok := c.categoryOf[actor]
	return ok
}

// Category returns the category an actor belongs to.
func (c *Catalog) Category(actor string) (string, bool) {
	c.ensure()
	cat, ok := c.categoryOf[actor]
	return cat, ok
}

// Search returns all actors whose name contains the query,
// case-insensitively, in All() order.
func (c *Catalog) Search(query string) []string {
	c.ensure()
	q := strings.ToLower(query)
	var out []string
	for _, actor := range c.all {
		if strings.Contains(strings.ToLower(actor), q) {
			out = append(out, actor)
		}
	}
	return out
}

// Add inserts an actor into a category, creating the category when needed.
// It reports false when the actor is already present in that category.
func (c *Catalog) Add(actor, category string) bool {
	actors, exists := c.categories[category]
	for _, a := range actors {
		if a == actor {
			return false
		}
	}
	c.categories[category] = append(actors, actor)
	if !exists {
		i := sort.SearchStrings(c.order, category)
		c.order = append(c.order, "")
		copy(c.order[i+1:], c.order[i:])
		c.order[i] = category
	}
	c.invalidate()
	return true
}

// Remove deletes an actor from whichever category holds it and reports
// whether anything was removed. Empty categories are kept.
func (c *Catalog) Remove(actor string) bool {
	for _, category := range c.order {
		actors := c.categories[category]
		for i, a := range actors {
			if a == actor {
				c.categories[category] = append(actors[:i:i], actors[i+1:]...)
				c.invalidate()
				return true
			}
		}
	}
	return false
}

func (c *Catalog) invalidate() {
	c.all = nil
	c.categoryOf = nil
}

func (c *Catalog) ensure() {
	if c.categoryOf != nil {
		return
	}
	c.all = nil
	c.categoryOf = make(map[string]string)
	for _, category := range c.order {
		for _, actor := range c.categories[category] {
			c.all = append(c.all, actor)
			if _, dup := c.categoryOf[actor]; !dup {
				c.categoryOf[actor] = category
			}
		}
	}
}
