package catalog

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testCatalog() *Catalog {
	return New(map[string][]string{
		"Universities": {"Acme University of Technology", "Delft University of Technology"},
		"Companies":    {"Globex", "Initech"},
	})
}

func TestAllOrderIsDeterministic(t *testing.T) {
	c := testCatalog()

	want := []string{"Globex", "Initech", "Acme University of Technology", "Delft University of Technology"}
	if diff := cmp.Diff(want, c.All()); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}

	// Repeated calls must not reorder.
	if diff := cmp.Diff(c.All(), c.All()); diff != "" {
		t.Errorf("All() unstable across calls (-first +second):\n%s", diff)
	}
}

func TestActorsUnknownCategory(t *testing.T) {
	c := testCatalog()
	if got := c.Actors("Nonprofits"); len(got) != 0 {
		t.Errorf("Actors(unknown) = %v, want empty", got)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"lowercase", "university", []string{"Acme University of Technology", "Delft University of Technology"}},
		{"mixed case", "GLOBEX", []string{"Globex"}},
		{"no match", "zeppelin", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, c.Search(tt.query)); diff != "" {
				t.Errorf("Search(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestAddAndRemove(t *testing.T) {
	c := testCatalog()

	if !c.Add("Umbrella", "Companies") {
		t.Error("Add(new actor) = false, want true")
	}
	if c.Add("Umbrella", "Companies") {
		t.Error("Add(duplicate) = true, want false")
	}
	if !c.Contains("Umbrella") {
		t.Error("Contains(Umbrella) = false after Add")
	}

	// Adding to a new category creates it and keeps category order sorted.
	c.Add("Red Cross", "Nonprofits")
	want := []string{"Companies", "Nonprofits", "Universities"}
	if diff := cmp.Diff(want, c.Categories()); diff != "" {
		t.Errorf("Categories() mismatch (-want +got):\n%s", diff)
	}

	if !c.Remove("Globex") {
		t.Error("Remove(existing) = false, want true")
	}
	if c.Remove("Globex") {
		t.Error("Remove(absent) = true, want false")
	}
	if c.Contains("Globex") {
		t.Error("Contains(Globex) = true after Remove")
	}
}

func TestCategoryLookup(t *testing.T) {
	c := testCatalog()

	cat, ok := c.Category("Initech")
	if !ok || cat != "Companies" {
		t.Errorf("Category(Initech) = %q, %v, want Companies, true", cat, ok)
	}
	if _, ok := c.Category("Unknown Org"); ok {
		t.Error("Category(absent) reported ok")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := testCatalog()
	c.Add("Umbrella", "Companies")

	path := filepath.Join(t.TempDir(), "actors.json")
	if err := c.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(c.All(), loaded.All()); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	if c.Len() == 0 {
		t.Fatal("Default() catalog is empty")
	}
	if !c.Contains("EIT Digital") {
		t.Error("Default() missing EIT Digital")
	}
	if got := c.Search("university"); len(got) == 0 {
		t.Error("Default() has no university actors")
	}
}
