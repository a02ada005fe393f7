package fuzzy

import (
	"strings"
	"unicode/utf8"

	fuzzywuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Matcher resolves free-text names against a fixed list of known names.
// An exact case-insensitive hit short-circuits; otherwise every known name
// is scored with the token-sort ratio and the best score wins when it
// reaches the threshold. Ties keep the earliest name in list order, so
// results are deterministic for a given list.
type Matcher struct {
	names     []string
	threshold int
	byLower   map[string]string
}

// New builds a matcher over names with a 0-100 acceptance threshold.
func New(names []string, threshold int) *Matcher {
	m := &Matcher{
		names:     append([]string(nil), names...),
		threshold: threshold,
	}
	m.rebuild()
	return m
}

func (m *Matcher) rebuild() {
	m.byLower = make(map[string]string, len(m.names))
	for _, name := range m.names {
		key := strings.ToLower(name)
		if _, dup := m.byLower[key]; !dup {
			m.byLower[key] = name
		}
	}
}

// Threshold returns the acceptance threshold.
func (m *Matcher) Threshold() int { return m.threshold }

// Match resolves name to a known name. The boolean reports success.
func (m *Matcher) Match(name string) (string, bool) {
	match, _, ok := m.MatchScore(name)
	return match, ok
}

// MatchScore resolves name and also reports the best score seen, which is
// useful for diagnostics even when no name reaches the threshold. Exact
// case-insensitive matches score 100. Names shorter than two characters
// never match.
func (m *Matcher) MatchScore(name string) (string, int, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(name))
	if utf8.RuneCountInString(cleaned) < 2 {
		return "", 0, false
	}

	if known, ok := m.byLower[cleaned]; ok {
		return known, 100, true
	}

	best := ""
	bestScore := 0
	for _, known := range m.names {
		score := fuzzywuzzy.TokenSortRatio(cleaned, strings.ToLower(known))
		if score > bestScore {
			best = known
			bestScore = score
		}
	}
	if bestScore >= m.threshold {
		return best, bestScore, true
	}
	return "", bestScore, false
}

// MatchAll resolves each name independently, preserving input order.
// Unmatched positions hold the empty string.
func (m *Matcher) MatchAll(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i], _ = m.Match(name)
	}
	return out
}

// Add registers a new known name.
func (m *Matcher) Add(name string) {
	m.names = append(m.names, name)
	key := strings.ToLower(name)
	if _, dup := m.byLower[key]; !dup {
		m.byLower[key] = name
	}
}

// Remove forgets a known name and reports whether it was present.
func (m *Matcher) Remove(name string) bool {
	for i, known := range m.names {
		if known == name {
			m.names = append(m.names[:i:i], m.names[i+1:]...)
			m.rebuild()
			return true
		}
	}
	return false
}
