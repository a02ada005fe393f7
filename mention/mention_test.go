package mention

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScanFindsActorsInOrder(t *testing.T) {
	s, err := New([]string{"EIT Digital", "Siemens", "Acme University"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	text := "Siemens partnered with EIT Digital to fund student labs. Later, Siemens joined the board."
	want := []string{"Siemens", "EIT Digital"}
	if diff := cmp.Diff(want, s.Scan(text)); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}
}

func TestScanIsCaseInsensitive(t *testing.T) {
	s, err := New([]string{"EIT Digital", "Siemens"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	got := s.Scan("SIEMENS AND eit digital SIGNED AN AGREEMENT")
	want := []string{"Siemens", "EIT Digital"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}
}

func TestScanRespectsWordBoundaries(t *testing.T) {
	s, err := New([]string{"EIT"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if got := s.Scan("HEITec GmbH manufactures electronics."); len(got) != 0 {
		t.Errorf("Scan() = %v, want no matches inside longer words", got)
	}
	if got := s.Scan("The EIT awarded the grant."); len(got) != 1 || got[0] != "EIT" {
		t.Errorf("Scan() = %v, want [EIT]", got)
	}
	if got := s.Scan("See the EIT's annual report."); len(got) != 1 {
		t.Errorf("Scan() = %v, want match before apostrophe", got)
	}
}

func TestScanPrefersLongestName(t *testing.T) {
	s, err := New([]string{"Acme University", "Acme University of Technology"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	got := s.Scan("The Acme University of Technology hosts the innovation hub.")
	var foundFull bool
	for _, name := range got {
		if name == "Acme University of Technology" {
			foundFull = true
		}
	}
	if !foundFull {
		t.Errorf("Scan() = %v, want the full name reported", got)
	}
}

func TestScanEmptyInputs(t *testing.T) {
	s, err := New([]string{"Siemens"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got := s.Scan(""); got != nil {
		t.Errorf("Scan(empty) = %v, want nil", got)
	}
	if got := s.Scan("   \n "); got != nil {
		t.Errorf("Scan(blank) = %v, want nil", got)
	}

	empty, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) error: %v", err)
	}
	if got := empty.Scan("Siemens builds trains."); got != nil {
		t.Errorf("empty scanner Scan() = %v, want nil", got)
	}
}

func TestNewDeduplicatesNames(t *testing.T) {
	s, err := New([]string{"Siemens", "siemens", "  Siemens  ", "", "EIT Digital"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}
