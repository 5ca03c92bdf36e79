package handler

import (
	"net/http"
	"time"

	"github.com/rentpoint/backend/internal/domain"
	"github.com/rentpoint/backend/internal/middleware"
)

// strikeResponse is the JSON shape of a strike.
type strikeResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	AdminID   int64     `json:"admin_id"`
	Reason    string    `json:"reason"`
	SessionID *int64    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

func strikeToResponse(s domain.Strike) strikeResponse {
	return strikeResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		AdminID:   s.AdminID,
		Reason:    s.Reason,
		SessionID: s.SessionID,
		CreatedAt: s.CreatedAt,
	}
}

// CreateStrike handles POST /strikes: direct administrative issuance,
// attributed to the authenticated admin.
func (s *Server) CreateStrike(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req struct {
		UserID    int64  `json:"user_id"`
		Reason    string `json:"reason"`
		SessionID *int64 `json:"session_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	strike, err := s.strikes.Issue(r.Context(), req.UserID, id.UserID, req.Reason, req.SessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, strikeToResponse(strike))
}

// ListUserStrikes handles GET /strikes/user/{userID}.
func (s *Server) ListUserStrikes(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid user id")
		return
	}

	strikes, err := s.strikes.ListByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]strikeResponse, len(strikes))
	for i, st := range strikes {
		out[i] = strikeToResponse(st)
	}
	jsonResponse(w, http.StatusOK, out)
}

// DeleteStrike handles DELETE /strikes/{strikeID}.
func (s *Server) DeleteStrike(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "strikeID")
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid strike id")
		return
	}

	if err := s.strikes.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
