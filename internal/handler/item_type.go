package handler

import (
	"net/http"

	"github.com/rentpoint/backend/internal/domain"
)

// itemTypeResponse is the JSON shape of an item type.
type itemTypeResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func itemTypeToResponse(t domain.ItemType) itemTypeResponse {
	return itemTypeResponse{ID: t.ID, Name: t.Name}
}

// CreateItemType handles POST /item-types.
func (s *Server) CreateItemType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	t, err := s.itemTypes.Create(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, itemTypeToResponse(t))
}

// GetItemType handles GET /item-types/{itemTypeID}.
func (s *Server) GetItemType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "itemTypeID")
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid item type id")
		return
	}

	t, err := s.itemTypes.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, itemTypeToResponse(t))
}

// ListItemTypes handles GET /item-types.
func (s *Server) ListItemTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.itemTypes.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]itemTypeResponse, len(types))
	for i, t := range types {
		out[i] = itemTypeToResponse(t)
	}
	jsonResponse(w, http.StatusOK, out)
}

// DeleteItemType handles DELETE /item-types/{itemTypeID}.
func (s *Server) DeleteItemType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "itemTypeID")
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid item type id")
		return
	}

	if err := s.itemTypes.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
