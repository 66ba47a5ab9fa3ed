package server

import (
	"net/http"
	"strconv"

	"github.com/beelinehq/beeline/internal/items"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, map[string]string{
		"message": "Welcome to beeline",
		"version": s.version,
		"docs":    apiPrefix,
	}, http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, map[string]string{"status": "healthy"}, http.StatusOK)
}

// itemID pulls the {id} path value; ok is false after a 400 was written.
// Ids are assigned starting at 1, so anything non-positive is malformed
// input rather than a lookup miss.
func (s *Server) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(r.Context(), w, "item id must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	result := s.items.List()

	if q.Get("available_only") != "" {
		availableOnly, err := strconv.ParseBool(q.Get("available_only"))
		if err != nil {
			writeJSONError(ctx, w, "available_only must be a boolean", http.StatusBadRequest)
			return
		}
		if availableOnly {
			result = s.items.Available()
		}
	}

	minSet, maxSet := q.Get("min_price") != "", q.Get("max_price") != ""
	var minPrice, maxPrice float64
	var err error
	if minSet {
		if minPrice, err = strconv.ParseFloat(q.Get("min_price"), 64); err != nil || minPrice < 0 {
			writeJSONError(ctx, w, "min_price must be a non-negative number", http.StatusBadRequest)
			return
		}
	}
	if maxSet {
		if maxPrice, err = strconv.ParseFloat(q.Get("max_price"), 64); err != nil || maxPrice < 0 {
			writeJSONError(ctx, w, "max_price must be a non-negative number", http.StatusBadRequest)
			return
		}
	}
	switch {
	case minSet && maxSet:
		result = s.items.PriceBetween(minPrice, maxPrice)
	case minSet:
		result = filterItems(result, func(i items.Item) bool { return i.Price >= minPrice })
	case maxSet:
		result = filterItems(result, func(i items.Item) bool { return i.Price <= maxPrice })
	}

	if search := q.Get("search"); search != "" {
		if len(search) > 100 {
			writeJSONError(ctx, w, "search term must be 1-100 characters", http.StatusBadRequest)
			return
		}
		result = s.items.SearchByName(search)
	}

	writeJSON(ctx, w, result, http.StatusOK)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}

	item, found := s.items.Get(id)
	if !found {
		writeJSONError(r.Context(), w, "item not found", http.StatusNotFound)
		return
	}
	writeJSON(r.Context(), w, item, http.StatusOK)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req items.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSONError(ctx, w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	item := s.items.Create(req)
	writeJSON(ctx, w, item, http.StatusCreated)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := s.itemID(w, r)
	if !ok {
		return
	}

	var req items.UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSONError(ctx, w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	item, found := s.items.Update(id, req)
	if !found {
		writeJSONError(ctx, w, "item not found", http.StatusNotFound)
		return
	}
	writeJSON(ctx, w, item, http.StatusOK)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}

	if !s.items.Delete(id) {
		writeJSONError(r.Context(), w, "item not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, s.tokens.TokenInfo(), http.StatusOK)
}

func (s *Server) handleClearToken(w http.ResponseWriter, r *http.Request) {
	s.tokens.ClearToken()
	w.WriteHeader(http.StatusNoContent)
}

func filterItems(in []items.Item, keep func(items.Item) bool) []items.Item {
	out := make([]items.Item, 0, len(in))
	for _, item := range in {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
