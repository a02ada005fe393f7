package mention

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"
)

// Scanner finds catalog actors mentioned in free text. It runs an
// Aho-Corasick automaton over the lowercased text, so a single pass
// covers the whole catalog regardless of its size.
type Scanner struct {
	ac    *ahocorasick.Automaton
	names []string
}

// New builds a scanner for the given actor names. Names are matched
// case-insensitively; duplicates and blank entries are dropped.
func New(names []string) (*Scanner, error) {
	patterns := make([]string, 0, len(names))
	canonical := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		patterns = append(patterns, key)
		canonical = append(canonical, strings.TrimSpace(name))
	}
	if len(patterns) == 0 {
		return &Scanner{}, nil
	}

	ac, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, fmt.Errorf("mention: building automaton: %w", err)
	}
	return &Scanner{ac: ac, names: canonical}, nil
}

// Len reports how many distinct names the scanner knows.
func (s *Scanner) Len() int {
	return len(s.names)
}

// Scan returns the canonical names of the actors mentioned in text, in
// order of first appearance. Matches must sit on word boundaries so
// that a name like "EIT" does not fire inside "HEITec".
func (s *Scanner) Scan(text string) []string {
	if s == nil || s.ac == nil || strings.TrimSpace(text) == "" {
		return nil
	}

	haystack := []byte(strings.ToLower(text))
	matches := s.ac.FindAllOverlapping(haystack)
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Start != matches[j].Start {
			return matches[i].Start < matches[j].Start
		}
		return matches[i].End < matches[j].End
	})

	var found []string
	reported := make(map[int]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := reported[m.PatternID]; ok {
			continue
		}
		if !onWordBoundary(haystack, m.Start, m.End) {
			continue
		}
		reported[m.PatternID] = struct{}{}
		found = append(found, s.names[m.PatternID])
	}
	return found
}

// onWordBoundary reports whether the match at [start, end) is not
// embedded in a longer word.
func onWordBoundary(text []byte, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRune(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRune(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
