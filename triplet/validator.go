package triplet

import (
	"strings"
	"unicode/utf8"
)

// Counterrole length bounds in runes.
const (
	minCounterroleLen = 3
	maxCounterroleLen = 100
)

// genericCounterroles are collective placeholders that carry no information
// about who the interaction targets.
var genericCounterroles = map[string]struct{}{
	"people":        {},
	"partners":      {},
	"community":     {},
	"stakeholders":  {},
	"members":       {},
	"participants":  {},
	"organizations": {},
	"institutions":  {},
	"entities":      {},
	"others":        {},
	"them":          {},
	"they":          {},
	"it":            {},
	"we":            {},
	"us":            {},
}

// vaguePractices are verbs that describe text rather than an institutional
// action.
var vaguePractices = map[string]struct{}{
	"has":        {},
	"is":         {},
	"are":        {},
	"was":        {},
	"were":       {},
	"be":         {},
	"been":       {},
	"discusses":  {},
	"mentions":   {},
	"focuses on": {},
	"refers to":  {},
}

// RoleMatcher resolves a free-text role to a known actor name.
// fuzzy.Matcher satisfies this.
type RoleMatcher interface {
	Match(name string) (string, bool)
}

// ValidatorConfig controls which rules a Validator applies.
type ValidatorConfig struct {
	// Matcher resolves roles against the actor catalog. Required when
	// RequireActorMatch is set; a nil matcher disables the rule.
	Matcher RoleMatcher

	// RequireActorMatch rejects triplets whose role cannot be resolved to
	// a catalog actor, and rewrites accepted roles to the catalog name.
	RequireActorMatch bool

	// FilterGeneric rejects triplets whose counterrole is a generic
	// collective noun.
	FilterGeneric bool
}

// Validator applies the triplet acceptance rules in a fixed order, stopping
// at the first failure. Rejection is data, not an error: callers inspect
// the returned Result.
type Validator struct {
	cfg ValidatorConfig
}

// NewValidator returns a validator for the given rule configuration.
func NewValidator(cfg ValidatorConfig) *Validator {
	if cfg.Matcher == nil {
		cfg.RequireActorMatch = false
	}
	return &Validator{cfg: cfg}
}

// Validate checks one candidate against the rules. Fields are trimmed
// before any rule runs, so whitespace-only input counts as missing.
func (v *Validator) Validate(c Candidate) Result {
	role := strings.TrimSpace(c.Role)
	practice := strings.TrimSpace(c.Practice)
	counterrole := strings.TrimSpace(c.Counterrole)

	if role == "" || practice == "" || counterrole == "" {
		return rejected(ReasonMissingFields)
	}
	if utf8.RuneCountInString(role) < 2 {
		return rejected(ReasonRoleTooShort)
	}
	switch n := utf8.RuneCountInString(counterrole); {
	case n < minCounterroleLen:
		return rejected(ReasonCounterroleTooShort)
	case n > maxCounterroleLen:
		return rejected(ReasonCounterroleTooLong)
	}
	if v.cfg.FilterGeneric {
		if _, ok := genericCounterroles[strings.ToLower(counterrole)]; ok {
			return rejected(ReasonGenericCounterrole)
		}
	}
	if _, ok := vaguePractices[strings.ToLower(practice)]; ok {
		return rejected(ReasonVaguePractice)
	}
	if v.cfg.RequireActorMatch {
		match, ok := v.cfg.Matcher.Match(role)
		if !ok {
			return rejected(ReasonRoleNotInCatalog)
		}
		role = match
	}

	return Result{
		Valid:  true,
		Reason: ReasonValid,
		Triplet: &Validated{
			Role:             role,
			Practice:         practice,
			Counterrole:      counterrole,
			Context:          strings.TrimSpace(c.Context),
			ChunkID:          c.ChunkID,
			PracticeOriginal: c.PracticeOriginal,
			PracticeScore:    c.PracticeScore,
			Confidence:       c.Confidence,
		},
	}
}

// ValidateAll validates each candidate independently. The first return
// value holds the accepted triplets, the second one result per input; both
// preserve input order, and len(valid) plus the number of rejections equals
// len(candidates).
func (v *Validator) ValidateAll(candidates []Candidate) ([]Validated, []Result) {
	valid := make([]Validated, 0, len(candidates))
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		res := v.Validate(c)
		results = append(results, res)
		if res.Valid {
			valid = append(valid, *res.Triplet)
		}
	}
	return valid, results
}

func rejected(reason string) Result {
	return Result{Reason: reason}
}
