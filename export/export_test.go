package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/mvidoni/sociograph/triplet"
)

func sampleTriplets() []triplet.Validated {
	return []triplet.Validated{
		{
			Role:             "Acme University of Technology",
			Practice:         "fund",
			PracticeOriginal: "provides funding to",
			PracticeScore:    0.714,
			Counterrole:      "Startup XYZ",
			Context:          "Acme provides funding to Startup XYZ.",
			ChunkID:          1,
			Confidence:       0.9,
			Entities: []triplet.Entity{
				{Text: "Startup XYZ", Label: "ORG"},
				{Text: "Acme", Label: "ORG"},
			},
		},
		{
			Role:        "Innovation Hub",
			Practice:    "mentor",
			Counterrole: "early-stage founders",
			ChunkID:     2,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleTriplets()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading csv back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want 3", len(records))
	}
	if diff := cmp.Diff(header, records[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	want := []string{
		"1", "Acme University of Technology", "fund", "provides funding to",
		"0.714", "Startup XYZ", "Acme provides funding to Startup XYZ.",
		"0.90", "Startup XYZ (ORG); Acme (ORG)",
	}
	if diff := cmp.Diff(want, records[1]); diff != "" {
		t.Errorf("first row mismatch (-want +got):\n%s", diff)
	}

	// Zero score/confidence render as empty cells, not "0.000".
	if records[2][4] != "" || records[2][7] != "" {
		t.Errorf("zero score/confidence = %q/%q, want empty", records[2][4], records[2][7])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("rows = %d, want header only", len(records))
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteXLSX(path, sampleTriplets()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "Chunk" || rows[0][1] != "Role" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "Acme University of Technology" {
		t.Errorf("B2 = %q", rows[1][1])
	}
	if rows[2][2] != "mentor" {
		t.Errorf("C3 = %q", rows[2][2])
	}
}
