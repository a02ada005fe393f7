package extract

import (
	"strings"
	"testing"
)

func TestPromptBuilderSystem(t *testing.T) {
	b := NewPromptBuilder([]string{"fund", "support", "train"})

	system := b.System()
	for _, want := range []string{
		"fund, support, train",
		`"role"`,
		`"practice"`,
		`"counterrole"`,
		"1. Only include clear, explicit relationships",
	} {
		if !strings.Contains(system, want) {
			t.Errorf("System() missing %q", want)
		}
	}

	if b.System() != system {
		t.Error("System() not deterministic")
	}
}

func TestPromptBuilderUser(t *testing.T) {
	b := NewPromptBuilder([]string{"fund"})

	user := b.User("Siemens funds labs.", "", nil)
	if !strings.Contains(user, "TEXT TO ANALYZE:\nSiemens funds labs.") {
		t.Errorf("User() missing text section:\n%s", user)
	}
	if !strings.Contains(user, "Return ONLY the JSON array") {
		t.Errorf("User() missing output reminder:\n%s", user)
	}
	if strings.Contains(user, "Additional instructions") {
		t.Errorf("User() has guidance section without guidance:\n%s", user)
	}
	if strings.Contains(user, "HINTS") {
		t.Errorf("User() has hints section without hints:\n%s", user)
	}
}

func TestPromptBuilderUserGuidanceAndHints(t *testing.T) {
	b := NewPromptBuilder([]string{"fund"})

	user := b.User("text", "focus on universities", []string{"Siemens", "TU Berlin"})
	if !strings.Contains(user, "Additional instructions: focus on universities") {
		t.Errorf("User() missing guidance:\n%s", user)
	}
	if !strings.Contains(user, "Siemens, TU Berlin") {
		t.Errorf("User() missing hints:\n%s", user)
	}
}

func TestPromptBuilderUserCapsHints(t *testing.T) {
	b := NewPromptBuilder([]string{"fund"})

	hints := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		hints = append(hints, string(rune('a'+i)))
	}
	user := b.User("text", "", hints)
	if strings.Contains(user, "k, l") {
		t.Errorf("User() lists more than %d hints:\n%s", maxHints, user)
	}
	if !strings.Contains(user, "i, j") {
		t.Errorf("User() missing hints under the cap:\n%s", user)
	}
}
