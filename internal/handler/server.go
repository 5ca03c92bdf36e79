// Package handler implements the HTTP handlers for the rental backend API.
// Handlers are methods on Server, split into entity-specific files, and are
// deliberately thin: decode, call the service, map errors, encode. They
// depend on service interfaces defined here (in the consumer package) so
// tests can inject mocks without touching the database.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/rentpoint/backend/internal/domain"
	"github.com/rentpoint/backend/internal/middleware"
)

// SessionServicer defines the business operations the session handlers depend on.
type SessionServicer interface {
	Create(ctx context.Context, userID, itemTypeID int64) (domain.RentalSession, error)
	Start(ctx context.Context, id, adminID int64) (domain.RentalSession, error)
	Return(ctx context.Context, id, adminID int64, withStrike bool, strikeReason string) (domain.RentalSession, error)
	Update(ctx context.Context, id, adminID int64, patch domain.SessionPatch) (domain.RentalSession, error)
	GetByID(ctx context.Context, id int64) (domain.RentalSession, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.RentalSession, error)
	ListByStatuses(ctx context.Context, statuses []domain.Status) ([]domain.RentalSession, error)
}

// ItemTypeServicer defines the business operations the item type handlers depend on.
type ItemTypeServicer interface {
	Create(ctx context.Context, name string) (domain.ItemType, error)
	GetByID(ctx context.Context, id int64) (domain.ItemType, error)
	List(ctx context.Context) ([]domain.ItemType, error)
	Delete(ctx context.Context, id int64) error
}

// ItemServicer defines the business operations the item handlers depend on.
type ItemServicer interface {
	Create(ctx context.Context, typeID int64) (domain.Item, error)
	GetByID(ctx context.Context, id int64) (domain.Item, error)
	List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	Delete(ctx context.Context, id int64) error
}

// StrikeServicer defines the business operations the strike handlers depend on.
type StrikeServicer interface {
	Issue(ctx context.Context, userID, adminID int64, reason string, sessionID *int64) (domain.Strike, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Strike, error)
	Delete(ctx context.Context, id int64) error
}

// Server holds the service dependencies for all API endpoints.
type Server struct {
	sessions  SessionServicer
	itemTypes ItemTypeServicer
	items     ItemServicer
	strikes   StrikeServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(sessions SessionServicer, itemTypes ItemTypeServicer, items ItemServicer, strikes StrikeServicer) *Server {
	return &Server{sessions: sessions, itemTypes: itemTypes, items: items, strikes: strikes}
}

// Routes returns the authenticated route tree. The caller applies the
// authenticator middleware before mounting; admin-only groups additionally
// require the session admin scope here.
func (s *Server) Routes() chi.Router {
	admin := middleware.RequireScope(middleware.ScopeSessionAdmin)

	r := chi.NewRouter()

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/{itemTypeID}", s.CreateSession)
		r.Get("/user/{userID}", s.ListUserSessions)
		r.Get("/{sessionID}", s.GetSession)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/", s.ListSessions)
			r.Patch("/{sessionID}/start", s.StartSession)
			r.Patch("/{sessionID}/return", s.ReturnSession)
			r.Patch("/{sessionID}", s.UpdateSession)
		})
	})

	r.Route("/item-types", func(r chi.Router) {
		r.Use(admin)
		r.Post("/", s.CreateItemType)
		r.Get("/", s.ListItemTypes)
		r.Get("/{itemTypeID}", s.GetItemType)
		r.Delete("/{itemTypeID}", s.DeleteItemType)
	})

	r.Route("/items", func(r chi.Router) {
		r.Use(admin)
		r.Post("/", s.CreateItem)
		r.Get("/", s.ListItems)
		r.Get("/{itemID}", s.GetItem)
		r.Delete("/{itemID}", s.DeleteItem)
	})

	r.Route("/strikes", func(r chi.Router) {
		r.Use(admin)
		r.Post("/", s.CreateStrike)
		r.Get("/user/{userID}", s.ListUserStrikes)
		r.Delete("/{strikeID}", s.DeleteStrike)
	})

	return r
}
