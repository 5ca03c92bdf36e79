package handler

import (
	"net/http"
	"strconv"

	"github.com/rentpoint/backend/internal/domain"
)

// itemResponse is the JSON shape of a physical item unit.
type itemResponse struct {
	ID          int64 `json:"id"`
	TypeID      int64 `json:"type_id"`
	IsAvailable bool  `json:"is_available"`
}

func itemToResponse(it domain.Item) itemResponse {
	return itemResponse{ID: it.ID, TypeID: it.TypeID, IsAvailable: it.IsAvailable}
}

// CreateItem handles POST /items.
func (s *Server) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TypeID int64 `json:"type_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	item, err := s.items.Create(r.Context(), req.TypeID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, itemToResponse(item))
}

// GetItem handles GET /items/{itemID}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "itemID")
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid item id")
		return
	}

	item, err := s.items.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, itemToResponse(item))
}

// ListItems handles GET /items.
// Query parameters: type_id (int), is_available (bool) — both optional.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	var filter domain.ItemFilter
	if v := r.URL.Query().Get("type_id"); v != "" {
		typeID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusUnprocessableEntity, "invalid type_id")
			return
		}
		filter.TypeID = &typeID
	}
	if v := r.URL.Query().Get("is_available"); v != "" {
		avail, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, http.StatusUnprocessableEntity, "invalid is_available")
			return
		}
		filter.IsAvailable = &avail
	}

	items, err := s.items.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]itemResponse, len(items))
	for i, it := range items {
		out[i] = itemToResponse(it)
	}
	jsonResponse(w, http.StatusOK, out)
}

// DeleteItem handles DELETE /items/{itemID}.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "itemID")
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid item id")
		return
	}

	if err := s.items.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
