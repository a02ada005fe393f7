package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mvidoni/sociograph"
	"github.com/mvidoni/sociograph/store"
)

type handler struct {
	engine    sociograph.Extractor
	community string
}

func newHandler(e sociograph.Extractor, community string) *handler {
	return &handler{engine: e, community: community}
}

// apiTriplet is the wire shape of one extracted triplet.
type apiTriplet struct {
	ID         int          `json:"id"`
	Text       string       `json:"text"`
	Community  string       `json:"community"`
	Extracted  extractedRPC `json:"extracted"`
	Confidence float64      `json:"confidence"`
	Validated  bool         `json:"validated"`
}

type extractedRPC struct {
	Role        string `json:"role"`
	Practice    string `json:"practice"`
	Counterrole string `json:"counterrole"`
}

// POST /extract
func (h *handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	var req struct {
		Text        string `json:"text"`
		Model       string `json:"model,omitempty"`
		UserPrompt  string `json:"user_prompt,omitempty"`
		MaxTriplets int    `json:"max_triplets,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	var opts []sociograph.ExtractOption
	if req.UserPrompt != "" {
		opts = append(opts, sociograph.WithGuidance(req.UserPrompt))
	}
	if req.MaxTriplets > 0 {
		opts = append(opts, sociograph.WithMaxTriplets(req.MaxTriplets))
	}
	// Unknown model names fall back to the configured chat model.
	if req.Model != "" && h.knownModel(req.Model) {
		opts = append(opts, sociograph.WithModel(req.Model))
	}

	result, err := h.engine.Extract(ctx, req.Text, opts...)
	if err != nil {
		if errors.Is(err, sociograph.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "extraction failed")
		slog.Error("extract error", "error", err)
		return
	}

	triplets := make([]apiTriplet, 0, len(result.Triplets))
	for i, t := range result.Triplets {
		confidence := t.Confidence
		if confidence == 0 {
			confidence = 0.5
		}
		triplets = append(triplets, apiTriplet{
			ID:        i + 1,
			Text:      t.Context,
			Community: h.community,
			Extracted: extractedRPC{
				Role:        t.Role,
				Practice:    t.Practice,
				Counterrole: t.Counterrole,
			},
			Confidence: confidence,
			Validated:  true,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_chunks":   result.Chunks,
		"total_triplets": len(triplets),
		"triplets":       triplets,
		"model_used":     result.ModelUsed,
		"status":         "success",
	})
}

func (h *handler) knownModel(model string) bool {
	for _, m := range h.engine.Models() {
		if m.ID == model {
			return true
		}
	}
	return false
}

// POST /scrape
func (h *handler) handleScrape(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	page, err := h.engine.Scrape(ctx, req.URL)
	if err != nil {
		writeError(w, http.StatusBadGateway, "fetch failed")
		slog.Error("scrape error", "url", req.URL, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"text":   page.Text,
		"title":  page.Title,
		"source": page.URL,
	})
}

// GET /models
func (h *handler) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models": h.engine.Models(),
	})
}

// GET /catalog
func (h *handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := h.engine.Catalog()
	categories := make(map[string][]string, len(cat.Categories()))
	for _, c := range cat.Categories() {
		categories[c] = cat.Actors(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		"total":      cat.Len(),
	})
}

// GET /catalog/search?q=
func (h *handler) handleCatalogSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	actors := h.engine.Catalog().Search(q)
	if actors == nil {
		actors = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"actors": actors})
}

// POST /catalog/actors
func (h *handler) handleAddActor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Actor    string `json:"actor"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Actor == "" || req.Category == "" {
		writeError(w, http.StatusBadRequest, "actor and category are required")
		return
	}

	if err := h.engine.AddActor(req.Actor, req.Category); err != nil {
		writeError(w, http.StatusInternalServerError, "adding actor failed")
		slog.Error("add actor error", "actor", req.Actor, "error", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"actor":    req.Actor,
		"category": req.Category,
	})
}

// DELETE /catalog/actors/{name}
func (h *handler) handleRemoveActor(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	removed, err := h.engine.RemoveActor(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "removing actor failed")
		slog.Error("remove actor error", "actor", name, "error", err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "actor not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// store returns the persistence layer, or ErrPersistenceDisabled when
// the engine runs without one.
func (h *handler) store() (*store.Store, error) {
	st := h.engine.Store()
	if st == nil {
		return nil, sociograph.ErrPersistenceDisabled
	}
	return st, nil
}

// GET /runs?limit=
func (h *handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	st, err := h.store()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := st.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing runs failed")
		slog.Error("list runs error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// GET /runs/{id}
func (h *handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	st, err := h.store()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is disabled")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := st.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading run failed")
		slog.Error("get run error", "run_id", id, "error", err)
		return
	}
	triplets, err := st.TripletsByRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading triplets failed")
		slog.Error("get run error", "run_id", id, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run":      run,
		"triplets": triplets,
	})
}

// GET /triplets/search?q=&limit=
func (h *handler) handleSearchTriplets(w http.ResponseWriter, r *http.Request) {
	st, err := h.store()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is disabled")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := st.SearchTriplets(r.Context(), q, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		slog.Error("triplet search error", "q", q, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "status": "error"})
}
