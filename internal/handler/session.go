package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rentpoint/backend/internal/domain"
	"github.com/rentpoint/backend/internal/middleware"
)

// sessionResponse is the JSON shape of a rental session.
type sessionResponse struct {
	ID             int64         `json:"id"`
	UserID         int64         `json:"user_id"`
	ItemID         int64         `json:"item_id"`
	Status         domain.Status `json:"status"`
	ReservationTS  time.Time     `json:"reservation_ts"`
	StartTS        *time.Time    `json:"start_ts"`
	EndTS          *time.Time    `json:"end_ts"`
	ActualReturnTS *time.Time    `json:"actual_return_ts"`
	AdminOpenID    *int64        `json:"admin_open_id"`
	AdminCloseID   *int64        `json:"admin_close_id"`
}

func sessionToResponse(s domain.RentalSession) sessionResponse {
	return sessionResponse{
		ID:             s.ID,
		UserID:         s.UserID,
		ItemID:         s.ItemID,
		Status:         s.Status,
		ReservationTS:  s.ReservationTS,
		StartTS:        s.StartTS,
		EndTS:          s.EndTS,
		ActualReturnTS: s.ActualReturnTS,
		AdminOpenID:    s.AdminOpenID,
		AdminCloseID:   s.AdminCloseID,
	}
}

func sessionsToResponse(sessions []domain.RentalSession) []sessionResponse {
	out := make([]sessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = sessionToResponse(s)
	}
	return out
}

// CreateSession handles POST /sessions/{itemTypeID}.
// The reservation is made for the authenticated caller.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, http.StatusUnauthorized, "missing identity")
		return
	}
	itemTypeID, err := pathID(r, "itemTypeID")
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid item type id")
		return
	}

	sess, err := s.sessions.Create(r.Context(), id.UserID, itemTypeID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, sessionToResponse(sess))
}

// StartSession handles PATCH /sessions/{sessionID}/start.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, http.StatusUnauthorized, "missing identity")
		return
	}
	sessionID, err := pathID(r, "sessionID")
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid session id")
		return
	}

	sess, err := s.sessions.Start(r.Context(), sessionID, id.UserID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, sessionToResponse(sess))
}

// ReturnSession handles PATCH /sessions/{sessionID}/return.
// Query parameters: with_strike (bool), strike_reason (string).
func (s *Server) ReturnSession(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, http.StatusUnauthorized, "missing identity")
		return
	}
	sessionID, err := pathID(r, "sessionID")
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid session id")
		return
	}

	withStrike := queryBool(r, "with_strike")
	strikeReason := r.URL.Query().Get("strike_reason")

	sess, err := s.sessions.Return(r.Context(), sessionID, id.UserID, withStrike, strikeReason)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, sessionToResponse(sess))
}

// sessionPatchRequest is the JSON body of the administrative patch.
// Absent fields are left untouched.
type sessionPatchRequest struct {
	Status         *string    `json:"status"`
	StartTS        *time.Time `json:"start_ts"`
	EndTS          *time.Time `json:"end_ts"`
	ActualReturnTS *time.Time `json:"actual_return_ts"`
	AdminOpenID    *int64     `json:"admin_open_id"`
	AdminCloseID   *int64     `json:"admin_close_id"`
}

// UpdateSession handles PATCH /sessions/{sessionID}: the operator escape
// hatch for corrective edits outside the guided transitions.
func (s *Server) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, http.StatusUnauthorized, "missing identity")
		return
	}
	sessionID, err := pathID(r, "sessionID")
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid session id")
		return
	}

	var req sessionPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	patch := domain.SessionPatch{
		StartTS:        req.StartTS,
		EndTS:          req.EndTS,
		ActualReturnTS: req.ActualReturnTS,
		AdminOpenID:    req.AdminOpenID,
		AdminCloseID:   req.AdminCloseID,
	}
	if req.Status != nil {
		st := domain.Status(*req.Status)
		patch.Status = &st
	}

	sess, err := s.sessions.Update(r.Context(), sessionID, id.UserID, patch)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, sessionToResponse(sess))
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "sessionID")
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid session id")
		return
	}

	sess, err := s.sessions.GetByID(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, sessionToResponse(sess))
}

// ListUserSessions handles GET /sessions/user/{userID}.
func (s *Server) ListUserSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "invalid user id")
		return
	}

	sessions, err := s.sessions.ListByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, sessionsToResponse(sessions))
}

// statusFlags maps each status filter query parameter to the status it selects.
var statusFlags = []struct {
	param  string
	status domain.Status
}{
	{"is_reserved", domain.StatusReserved},
	{"is_canceled", domain.StatusCanceled},
	{"is_dismissed", domain.StatusDismissed},
	{"is_overdue", domain.StatusOverdue},
	{"is_returned", domain.StatusReturned},
	{"is_active", domain.StatusActive},
}

// ListSessions handles GET /sessions with per-status boolean filters.
// With no filters set the result is an empty list, not all sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.Status
	for _, f := range statusFlags {
		if queryBool(r, f.param) {
			statuses = append(statuses, f.status)
		}
	}

	sessions, err := s.sessions.ListByStatuses(r.Context(), statuses)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, sessionsToResponse(sessions))
}

// queryBool parses a boolean query parameter; absent or malformed means false.
func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
