package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mvidoni/sociograph/triplet"
)

// codeFenceRe strips markdown code fences from model output.
var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// roleHeaderRe locates labeled triplet blocks in non-JSON output. The word
// boundary keeps it from firing inside "Counterrole:".
var roleHeaderRe = regexp.MustCompile(`(?i)\bRole:`)

// labeledFieldsRe parses the body of one labeled block. All four labels
// are required; context runs to the end of the block.
var labeledFieldsRe = regexp.MustCompile(`(?is)^\s*(.+?)\s*Practice:\s*(.+?)\s*Counterrole:\s*(.+?)\s*Context:\s*(.+?)\s*$`)

// ParseCandidates extracts triplet candidates from raw model output. It
// expects the prompted JSON array but tolerates the usual deviations:
// markdown code fences, prose around the array, "JSON:"/"OUTPUT:" prefixes,
// a bare object instead of an array, and the labeled
// Role:/Practice:/Counterrole:/Context: format some models fall back to.
// Output that yields nothing returns an empty slice, never an error; a
// chunk without relationships is a normal outcome.
func ParseCandidates(raw string) []triplet.Candidate {
	cleaned := stripWrapping(raw)
	if cands, ok := parseJSONCandidates(cleaned); ok {
		return cands
	}
	return parseLabeledCandidates(cleaned)
}

// stripWrapping removes code fences and leading output markers.
func stripWrapping(raw string) string {
	if m := codeFenceRe.FindStringSubmatch(raw); len(m) > 1 {
		raw = m[1]
	}
	raw = strings.TrimSpace(raw)
	for _, prefix := range []string{"json:", "output:"} {
		if len(raw) >= len(prefix) && strings.EqualFold(raw[:len(prefix)], prefix) {
			raw = strings.TrimSpace(raw[len(prefix):])
		}
	}
	return raw
}

// parseJSONCandidates locates a JSON array (or a single object, which it
// wraps) and decodes it. The second return value reports whether JSON
// decoding succeeded; items missing any of the three required keys are
// skipped, not failures.
func parseJSONCandidates(text string) ([]triplet.Candidate, bool) {
	payload := text
	start := strings.Index(payload, "[")
	end := strings.LastIndex(payload, "]")
	if start >= 0 && end > start {
		payload = payload[start : end+1]
	} else {
		s := strings.Index(payload, "{")
		e := strings.LastIndex(payload, "}")
		if s < 0 || e <= s {
			return nil, false
		}
		payload = "[" + payload[s:e+1] + "]"
	}

	var items []any
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, false
	}

	cands := make([]triplet.Candidate, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if !hasKeys(item, "role", "practice", "counterrole") {
			continue
		}
		cands = append(cands, triplet.Candidate{
			Role:        fieldString(item, "role"),
			Practice:    fieldString(item, "practice"),
			Counterrole: fieldString(item, "counterrole"),
			Context:     fieldString(item, "context"),
		})
	}
	return cands, true
}

// parseLabeledCandidates splits the text on Role: headers and parses the
// labeled fields inside each block.
func parseLabeledCandidates(text string) []triplet.Candidate {
	locs := roleHeaderRe.FindAllStringIndex(text, -1)

	cands := make([]triplet.Candidate, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		m := labeledFieldsRe.FindStringSubmatch(text[loc[1]:end])
		if m == nil {
			continue
		}
		cands = append(cands, triplet.Candidate{
			Role:        strings.TrimSpace(m[1]),
			Practice:    strings.TrimSpace(m[2]),
			Counterrole: strings.TrimSpace(m[3]),
			Context:     strings.TrimSpace(m[4]),
		})
	}
	return cands
}

func hasKeys(item map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := item[k]; !ok {
			return false
		}
	}
	return true
}

// fieldString returns the trimmed string value for key, stringifying
// non-string JSON values.
func fieldString(item map[string]any, key string) string {
	v, ok := item[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return strings.TrimSpace(s)
}
