package verbs

// canonical is the closed vocabulary of institutional action verbs that
// extracted practices are normalized onto. Kept sorted; Canonical returns
// a copy so callers cannot reorder it.
var canonical = []string{
	"accelerate",
	"advocate",
	"ally",
	"award",
	"build",
	"campaign",
	"coach",
	"collaborate",
	"connect",
	"coordinate",
	"create",
	"deliver",
	"develop",
	"educate",
	"enable",
	"establish",
	"facilitate",
	"finance",
	"found",
	"fund",
	"grant",
	"host",
	"implement",
	"incubate",
	"initiate",
	"innovate",
	"introduce",
	"invest",
	"join",
	"launch",
	"manage",
	"mentor",
	"mobilize",
	"offer",
	"open",
	"operate",
	"organize",
	"partner",
	"pilot",
	"provide",
	"research",
	"run",
	"scale",
	"select",
	"set up",
	"sponsor",
	"start",
	"support",
	"team",
	"test",
	"train",
	"work",
}

// Canonical returns the canonical verb vocabulary in sorted order.
func Canonical() []string {
	return append([]string(nil), canonical...)
}
