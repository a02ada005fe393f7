package triplet

// Candidate is a raw (role, practice, counterrole) triplet parsed from
// model output, before validation. PracticeOriginal and PracticeScore are
// filled by verb normalization when it rewrites the practice.
type Candidate struct {
	Role             string  `json:"role"`
	Practice         string  `json:"practice"`
	Counterrole      string  `json:"counterrole"`
	Context          string  `json:"context,omitempty"`
	ChunkID          int     `json:"chunk_id,omitempty"`
	PracticeOriginal string  `json:"practice_original,omitempty"`
	PracticeScore    float64 `json:"practice_score,omitempty"`
	Confidence       float64 `json:"model_confidence,omitempty"`
}

// Entity is a named entity found in a triplet's source context.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Validated is a triplet that passed every validation rule. Role holds the
// catalog name when actor matching rewrote it; PracticeOriginal holds the
// verb as extracted whenever normalization changed it.
type Validated struct {
	Role             string   `json:"role"`
	Practice         string   `json:"practice"`
	Counterrole      string   `json:"counterrole"`
	Context          string   `json:"context,omitempty"`
	ChunkID          int      `json:"chunk_id,omitempty"`
	PracticeOriginal string   `json:"practice_original,omitempty"`
	PracticeScore    float64  `json:"practice_score,omitempty"`
	Confidence       float64  `json:"model_confidence,omitempty"`
	Entities         []Entity `json:"ner,omitempty"`
}

// Result reports the outcome of validating one candidate. Triplet is set
// only when Valid is true.
type Result struct {
	Valid   bool       `json:"valid"`
	Reason  string     `json:"reason"`
	Triplet *Validated `json:"triplet,omitempty"`
}

// Rejection reasons, in rule order. An earlier rule masks later ones: a
// candidate with a generic counterrole reports that reason even when its
// role is also unknown.
const (
	ReasonValid               = "valid"
	ReasonMissingFields       = "missing required fields"
	ReasonRoleTooShort        = "role too short"
	ReasonCounterroleTooShort = "counterrole too short"
	ReasonCounterroleTooLong  = "counterrole too long"
	ReasonGenericCounterrole  = "generic counterrole"
	ReasonVaguePractice       = "vague practice verb"
	ReasonRoleNotInCatalog    = "role not in actor catalog"
)
