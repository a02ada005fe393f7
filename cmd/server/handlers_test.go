package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mvidoni/sociograph"
	"github.com/mvidoni/sociograph/catalog"
	"github.com/mvidoni/sociograph/extract"
	"github.com/mvidoni/sociograph/llm"
	"github.com/mvidoni/sociograph/scrape"
	"github.com/mvidoni/sociograph/store"
	"github.com/mvidoni/sociograph/triplet"
)

// fakeEngine implements sociograph.Extractor with canned responses.
type fakeEngine struct {
	result  *sociograph.Result
	err     error
	cat     *catalog.Catalog
	removed bool
}

func (f *fakeEngine) Extract(ctx context.Context, text string, opts ...sociograph.ExtractOption) (*sociograph.Result, error) {
	return f.result, f.err
}

func (f *fakeEngine) ExtractStream(ctx context.Context, text string, opts ...sociograph.ExtractOption) (<-chan extract.Item, error) {
	ch := make(chan extract.Item)
	close(ch)
	return ch, nil
}

func (f *fakeEngine) ExtractURL(ctx context.Context, url string, opts ...sociograph.ExtractOption) (*sociograph.Result, error) {
	return f.result, f.err
}

func (f *fakeEngine) ExtractFile(ctx context.Context, path string, opts ...sociograph.ExtractOption) (*sociograph.Result, error) {
	return f.result, f.err
}

func (f *fakeEngine) Validate(ctx context.Context, cs []triplet.Candidate) ([]triplet.Validated, []triplet.Result, error) {
	return nil, nil, nil
}

func (f *fakeEngine) Scrape(ctx context.Context, url string) (*scrape.Page, error) {
	return &scrape.Page{URL: url, Title: "Example", Text: "Example body."}, nil
}

func (f *fakeEngine) AddActor(actor, category string) error { return nil }

func (f *fakeEngine) RemoveActor(actor string) (bool, error) { return f.removed, nil }

func (f *fakeEngine) Catalog() *catalog.Catalog { return f.cat }

func (f *fakeEngine) Store() *store.Store { return nil }

func (f *fakeEngine) Models() []llm.ModelInfo {
	return []llm.ModelInfo{{ID: "llama3.1:8b", Name: "ollama/llama3.1:8b", Type: "chat"}}
}

func (f *fakeEngine) Close() error { return nil }

func newFakeHandler() (*handler, *fakeEngine) {
	engine := &fakeEngine{
		result: &sociograph.Result{
			Triplets: []triplet.Validated{
				{
					Role:        "Acme University of Technology",
					Practice:    "fund",
					Counterrole: "Startup XYZ",
					Context:     "Acme funds Startup XYZ.",
					ChunkID:     1,
				},
			},
			Chunks:    2,
			ModelUsed: "llama3.1:8b",
		},
		cat: catalog.New(map[string][]string{
			"Universities": {"Acme University of Technology"},
		}),
	}
	return newHandler(engine, "EIT Community"), engine
}

// ---------------------------------------------------------------------------
// /extract
// ---------------------------------------------------------------------------

func TestHandleExtract(t *testing.T) {
	h, _ := newFakeHandler()

	req := httptest.NewRequest(http.MethodPost, "/extract",
		strings.NewReader(`{"text": "Acme funds Startup XYZ."}`))
	w := httptest.NewRecorder()
	h.handleExtract(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}

	var resp struct {
		TotalChunks   int          `json:"total_chunks"`
		TotalTriplets int          `json:"total_triplets"`
		Triplets      []apiTriplet `json:"triplets"`
		ModelUsed     string       `json:"model_used"`
		Status        string       `json:"status"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "success" || resp.TotalChunks != 2 || resp.TotalTriplets != 1 {
		t.Errorf("response = %+v", resp)
	}
	got := resp.Triplets[0]
	if got.ID != 1 || !got.Validated || got.Community != "EIT Community" {
		t.Errorf("triplet = %+v", got)
	}
	if got.Extracted.Role != "Acme University of Technology" || got.Extracted.Practice != "fund" {
		t.Errorf("extracted = %+v", got.Extracted)
	}
	// Confidence defaults to 0.5 when the model reported none.
	if got.Confidence != 0.5 {
		t.Errorf("confidence = %f, want 0.5", got.Confidence)
	}
}

func TestHandleExtractMissingText(t *testing.T) {
	h, _ := newFakeHandler()

	req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(`{"text": ""}`))
	w := httptest.NewRecorder()
	h.handleExtract(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["status"] != "error" {
		t.Errorf("status field = %q, want error", resp["status"])
	}
}

// ---------------------------------------------------------------------------
// /scrape
// ---------------------------------------------------------------------------

func TestHandleScrape(t *testing.T) {
	h, _ := newFakeHandler()

	req := httptest.NewRequest(http.MethodPost, "/scrape",
		strings.NewReader(`{"url": "https://example.com"}`))
	w := httptest.NewRecorder()
	h.handleScrape(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["text"] != "Example body." || resp["source"] != "https://example.com" {
		t.Errorf("response = %v", resp)
	}
}

func TestHandleScrapeMissingURL(t *testing.T) {
	h, _ := newFakeHandler()

	req := httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.handleScrape(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ---------------------------------------------------------------------------
// /catalog
// ---------------------------------------------------------------------------

func TestHandleCatalog(t *testing.T) {
	h, _ := newFakeHandler()

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	w := httptest.NewRecorder()
	h.handleCatalog(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Categories map[string][]string `json:"categories"`
		Total      int                 `json:"total"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Total != 1 || len(resp.Categories["Universities"]) != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleRemoveActorNotFound(t *testing.T) {
	h, engine := newFakeHandler()
	engine.removed = false

	req := httptest.NewRequest(http.MethodDelete, "/catalog/actors/Nobody", nil)
	req.SetPathValue("name", "Nobody")
	w := httptest.NewRecorder()
	h.handleRemoveActor(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Persistence-gated endpoints
// ---------------------------------------------------------------------------

func TestRunsUnavailableWithoutStore(t *testing.T) {
	h, _ := newFakeHandler()

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	w := httptest.NewRecorder()
	h.handleListRuns(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
