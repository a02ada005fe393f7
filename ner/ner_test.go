package ner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	prose "github.com/jdkato/prose/v2"

	"github.com/mvidoni/sociograph/triplet"
)

func TestFilterKeepsRelevantLabels(t *testing.T) {
	in := []prose.Entity{
		{Text: "EIT Digital", Label: "ORG"},
		{Text: "Munich", Label: "GPE"},
		{Text: "Maria Santos", Label: "PERSON"},
		{Text: "Tuesday", Label: "DATE"},
		{Text: "3.5 million", Label: "MONEY"},
	}

	want := []triplet.Entity{
		{Text: "EIT Digital", Label: "ORG"},
		{Text: "Munich", Label: "GPE"},
		{Text: "Maria Santos", Label: "PERSON"},
	}
	if diff := cmp.Diff(want, filter(in)); diff != "" {
		t.Errorf("filter() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterDeduplicatesCaseInsensitively(t *testing.T) {
	in := []prose.Entity{
		{Text: "EIT Digital", Label: "ORG"},
		{Text: "eit digital", Label: "ORG"},
		{Text: "  EIT Digital ", Label: "GPE"},
		{Text: "Siemens", Label: "ORG"},
	}

	got := filter(in)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(got), got)
	}
	if got[0].Text != "EIT Digital" || got[1].Text != "Siemens" {
		t.Errorf("filter() = %v, want first occurrences kept in order", got)
	}
}

func TestAnnotateEmptyText(t *testing.T) {
	a := New()

	for _, text := range []string{"", "   ", "\n"} {
		got, err := a.Annotate(text)
		if err != nil {
			t.Errorf("Annotate(%q) error: %v", text, err)
		}
		if len(got) != 0 {
			t.Errorf("Annotate(%q) = %v, want none", text, got)
		}
	}
}

// TestAnnotateReturnsOnlyRelevantLabels runs the real model; the exact
// entities depend on it, so only the label filter is asserted.
func TestAnnotateReturnsOnlyRelevantLabels(t *testing.T) {
	a := New()

	got, err := a.Annotate("EIT Digital partnered with Siemens to train engineers in Munich, Germany.")
	if err != nil {
		t.Fatalf("Annotate() error: %v", err)
	}
	for _, ent := range got {
		if _, ok := relevantLabels[ent.Label]; !ok {
			t.Errorf("Annotate() returned label %q, want only relevant labels", ent.Label)
		}
		if ent.Text == "" {
			t.Error("Annotate() returned empty entity text")
		}
	}
}
